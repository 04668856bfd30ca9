package invoices

import (
	"time"

	"github.com/molaris/molaris/internal/billing"
	"github.com/molaris/molaris/internal/document"
)

type ItemRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	Quantity       int     `json:"quantity" validate:"required,gt=0"`
	UnitPriceGross float64 `json:"unit_price_gross" validate:"gte=0"`
	DiscountType   string  `json:"discount_type" validate:"omitempty,oneof=NONE PERCENT ABSOLUTE"`
	DiscountValue  float64 `json:"discount_value" validate:"gte=0"`
	VATRatePercent float64 `json:"vat_rate_percent" validate:"gte=0,lte=100"`
	TreatedArea    string  `json:"treated_area" validate:"max=120"`
	ToothCode      string  `json:"tooth_code" validate:"omitempty,len=2"`
}

// CreateRequest creates a standalone draft invoice.
type CreateRequest struct {
	PatientID           int64         `json:"patient_id" validate:"required,gt=0"`
	Clinician           string        `json:"clinician" validate:"required,max=120"`
	PaymentMethod       string        `json:"payment_method" validate:"required,oneof=CASH CARD TRANSFER"`
	FulfillmentDate     *time.Time    `json:"fulfillment_date,omitempty"`
	Currency            string        `json:"currency" validate:"omitempty,oneof=HUF EUR"`
	GlobalDiscountType  string        `json:"global_discount_type" validate:"omitempty,oneof=NONE PERCENT ABSOLUTE"`
	GlobalDiscountValue float64       `json:"global_discount_value" validate:"gte=0"`
	Comment             string        `json:"comment"`
	Items               []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// FromQuoteRequest creates a draft invoice by snapshotting an accepted quote.
type FromQuoteRequest struct {
	QuoteID       int64  `json:"quote_id" validate:"required,gt=0"`
	PaymentMethod string `json:"payment_method" validate:"required,oneof=CASH CARD TRANSFER"`
}

// UpdateRequest edits a draft invoice header.
type UpdateRequest struct {
	Clinician           *string    `json:"clinician,omitempty" validate:"omitempty,max=120"`
	PaymentMethod       *string    `json:"payment_method,omitempty" validate:"omitempty,oneof=CASH CARD TRANSFER"`
	FulfillmentDate     *time.Time `json:"fulfillment_date,omitempty"`
	GlobalDiscountType  *string    `json:"global_discount_type,omitempty" validate:"omitempty,oneof=NONE PERCENT ABSOLUTE"`
	GlobalDiscountValue *float64   `json:"global_discount_value,omitempty" validate:"omitempty,gte=0"`
	Comment             *string    `json:"comment,omitempty"`
}

type ListRequest struct {
	PatientID *int64
	Status    *InvoiceStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Limit     int
	Offset    int
}

// InvoiceResponse is an invoice with its derived financial summary.
type InvoiceResponse struct {
	Invoice
	Totals       billing.Totals     `json:"totals"`
	VATBreakdown []document.VATLine `json:"vat_breakdown"`
}

// InvoiceListRow is the list projection with the patient name joined in.
type InvoiceListRow struct {
	Invoice
	PatientName string `json:"patient_name"`
}
