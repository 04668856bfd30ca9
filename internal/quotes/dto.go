package quotes

import (
	"time"

	"github.com/molaris/molaris/internal/billing"
)

type ItemRequest struct {
	ProcedureID      *int64   `json:"procedure_id,omitempty"`
	Name             string   `json:"name,omitempty" validate:"max=200"`
	Quantity         int      `json:"quantity" validate:"required,gt=0"`
	UnitPriceGross   *float64 `json:"unit_price_gross,omitempty" validate:"omitempty,gte=0"`
	DiscountType     string   `json:"discount_type" validate:"omitempty,oneof=NONE PERCENT ABSOLUTE"`
	DiscountValue    float64  `json:"discount_value" validate:"gte=0"`
	TreatmentSession int      `json:"treatment_session" validate:"gte=0,lte=50"`
	TreatedArea      string   `json:"treated_area" validate:"max=120"`
	ToothCode        string   `json:"tooth_code" validate:"omitempty,len=2"`
}

type CreateRequest struct {
	PatientID           int64         `json:"patient_id" validate:"required,gt=0"`
	Clinician           string        `json:"clinician" validate:"required,max=120"`
	QuoteDate           *time.Time    `json:"quote_date,omitempty"`
	ValidUntil          *time.Time    `json:"valid_until,omitempty"`
	Currency            string        `json:"currency" validate:"omitempty,oneof=HUF EUR"`
	GlobalDiscountType  string        `json:"global_discount_type" validate:"omitempty,oneof=NONE PERCENT ABSOLUTE"`
	GlobalDiscountValue float64       `json:"global_discount_value" validate:"gte=0"`
	Comment             string        `json:"comment"`
	Items               []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateRequest struct {
	Clinician           *string        `json:"clinician,omitempty" validate:"omitempty,max=120"`
	ValidUntil          *time.Time     `json:"valid_until,omitempty"`
	GlobalDiscountType  *string        `json:"global_discount_type,omitempty" validate:"omitempty,oneof=NONE PERCENT ABSOLUTE"`
	GlobalDiscountValue *float64       `json:"global_discount_value,omitempty" validate:"omitempty,gte=0"`
	Comment             *string        `json:"comment,omitempty"`
	Items               *[]ItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

type ListRequest struct {
	PatientID *int64
	Status    *QuoteStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}

// QuoteResponse is a quote with its derived financial summary.
type QuoteResponse struct {
	Quote
	Totals   billing.Totals         `json:"totals"`
	Sessions []billing.SessionTotal `json:"session_totals"`
}

// QuoteListRow is the list projection with the patient name joined in.
type QuoteListRow struct {
	Quote
	PatientName string `json:"patient_name"`
}
