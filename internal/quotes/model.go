// Package quotes manages treatment quotes: ordered priced line items with
// discounts and session assignments, offered to a patient before work begins.
package quotes

import (
	"time"

	"github.com/molaris/molaris/internal/billing"
)

type QuoteStatus string

const (
	StatusDraft    QuoteStatus = "DRAFT"
	StatusClosed   QuoteStatus = "CLOSED"
	StatusAccepted QuoteStatus = "ACCEPTED"
	StatusDeclined QuoteStatus = "DECLINED"
	StatusExpired  QuoteStatus = "EXPIRED"
)

// Quote is a proposed treatment plan. Totals are derived from the items on
// demand and never persisted.
type Quote struct {
	ID             int64            `json:"id"`
	Number         string           `json:"number"`
	PatientID      int64            `json:"patient_id"`
	Clinician      string           `json:"clinician"`
	QuoteDate      time.Time        `json:"quote_date"`
	ValidUntil     time.Time        `json:"valid_until"`
	Status         QuoteStatus      `json:"status"`
	Currency       billing.Currency `json:"currency"`
	GlobalDiscount billing.Discount `json:"global_discount"`
	Comment        string           `json:"comment,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	Items          []QuoteItem      `json:"items,omitempty"`
}

// QuoteItem is one billable procedure instance on a quote. The name and unit
// price are denormalized from the catalog at insert time so later catalog
// edits do not rewrite existing quotes.
type QuoteItem struct {
	ID               int64            `json:"id"`
	QuoteID          int64            `json:"quote_id"`
	ProcedureID      *int64           `json:"procedure_id,omitempty"`
	Name             string           `json:"name"`
	Quantity         int              `json:"quantity"`
	UnitPriceGross   float64          `json:"unit_price_gross"`
	Discount         billing.Discount `json:"discount"`
	TreatmentSession int              `json:"treatment_session"`
	TreatedArea      string           `json:"treated_area,omitempty"`
	ToothCode        string           `json:"tooth_code,omitempty"`
	VATRatePercent   float64          `json:"vat_rate_percent"`
	LineOrder        int              `json:"line_order"`
}

// BillingItems converts the persisted items into calculator input,
// preserving display order.
func (q *Quote) BillingItems() []billing.LineItem {
	items := make([]billing.LineItem, 0, len(q.Items))
	for _, it := range q.Items {
		items = append(items, billing.LineItem{
			Name:             it.Name,
			Quantity:         it.Quantity,
			UnitPriceGross:   it.UnitPriceGross,
			Discount:         it.Discount,
			TreatmentSession: it.TreatmentSession,
			TreatedArea:      it.TreatedArea,
			ToothCode:        it.ToothCode,
		})
	}
	return items
}
