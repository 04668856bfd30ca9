// Package invoices issues billing documents from accepted quotes or from
// scratch. Issued invoices are immutable; corrections mean voiding and
// issuing a new one.
package invoices

import (
	"time"

	"github.com/molaris/molaris/internal/billing"
)

type InvoiceStatus string

const (
	StatusDraft  InvoiceStatus = "DRAFT"
	StatusIssued InvoiceStatus = "ISSUED"
	StatusPaid   InvoiceStatus = "PAID"
	StatusVoid   InvoiceStatus = "VOID"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCard     PaymentMethod = "CARD"
	PaymentTransfer PaymentMethod = "TRANSFER"
)

// ValidPaymentMethod reports whether the value is a known payment method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

// Invoice is one billing document. Line data is snapshotted at creation so
// neither catalog nor quote edits reach an existing invoice.
type Invoice struct {
	ID              int64            `json:"id"`
	Number          string           `json:"number"`
	PatientID       int64            `json:"patient_id"`
	QuoteID         *int64           `json:"quote_id,omitempty"`
	Clinician       string           `json:"clinician"`
	IssueDate       time.Time        `json:"issue_date"`
	FulfillmentDate time.Time        `json:"fulfillment_date"`
	DueDate         time.Time        `json:"due_date"`
	PaymentMethod   PaymentMethod    `json:"payment_method"`
	Status          InvoiceStatus    `json:"status"`
	Currency        billing.Currency `json:"currency"`
	GlobalDiscount  billing.Discount `json:"global_discount"`
	Comment         string           `json:"comment,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Items           []InvoiceItem    `json:"items,omitempty"`
}

// InvoiceItem is one invoice line with its VAT rate captured at creation.
type InvoiceItem struct {
	ID             int64            `json:"id"`
	InvoiceID      int64            `json:"invoice_id"`
	Name           string           `json:"name"`
	Quantity       int              `json:"quantity"`
	UnitPriceGross float64          `json:"unit_price_gross"`
	Discount       billing.Discount `json:"discount"`
	VATRatePercent float64          `json:"vat_rate_percent"`
	TreatedArea    string           `json:"treated_area,omitempty"`
	ToothCode      string           `json:"tooth_code,omitempty"`
	LineOrder      int              `json:"line_order"`
}

// BillingItems converts the lines into calculator input.
func (inv *Invoice) BillingItems() []billing.LineItem {
	items := make([]billing.LineItem, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, billing.LineItem{
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPriceGross: it.UnitPriceGross,
			Discount:       it.Discount,
			TreatedArea:    it.TreatedArea,
			ToothCode:      it.ToothCode,
		})
	}
	return items
}
