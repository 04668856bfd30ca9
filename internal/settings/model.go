// Package settings manages the clinic-wide configuration record consumed by
// document rendering and billing policy.
package settings

import (
	"time"

	"github.com/molaris/molaris/internal/billing"
	"github.com/molaris/molaris/internal/document"
)

// Settings is the singleton clinic configuration row.
type Settings struct {
	ID                 int64            `json:"id"`
	ClinicName         string           `json:"clinic_name"`
	ClinicAddress      string           `json:"clinic_address"`
	ClinicPhone        string           `json:"clinic_phone"`
	ClinicEmail        string           `json:"clinic_email"`
	TaxID              string           `json:"tax_id"`
	Location           string           `json:"location"`
	HomeCurrency       billing.Currency `json:"home_currency"`
	AlternateCurrency  billing.Currency `json:"alternate_currency"`
	Locale             string           `json:"locale"`
	DateLayout         string           `json:"date_layout"`
	QuoteValidityDays  int              `json:"quote_validity_days"`
	InvoiceDueDays     int              `json:"invoice_due_days"`
	VATRatePercent     float64          `json:"vat_rate_percent"`
	QuoteTerms         string           `json:"quote_terms"`
	CapGlobalDiscount  bool             `json:"cap_global_discount"`
	NEAKRetentionDays  int              `json:"neak_retention_days"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// Clinic converts the settings into the document letterhead block.
func (s Settings) Clinic() document.Clinic {
	return document.Clinic{
		Name:     s.ClinicName,
		Address:  s.ClinicAddress,
		Phone:    s.ClinicPhone,
		Email:    s.ClinicEmail,
		TaxID:    s.TaxID,
		Location: s.Location,
	}
}

// UpdateRequest carries a full replacement of the editable fields.
type UpdateRequest struct {
	ClinicName        string  `json:"clinic_name" validate:"required,max=120"`
	ClinicAddress     string  `json:"clinic_address" validate:"required,max=200"`
	ClinicPhone       string  `json:"clinic_phone" validate:"max=40"`
	ClinicEmail       string  `json:"clinic_email" validate:"omitempty,email"`
	TaxID             string  `json:"tax_id" validate:"max=20"`
	Location          string  `json:"location" validate:"required,max=80"`
	HomeCurrency      string  `json:"home_currency" validate:"required,oneof=HUF EUR"`
	AlternateCurrency string  `json:"alternate_currency" validate:"required,oneof=HUF EUR"`
	Locale            string  `json:"locale" validate:"required,max=10"`
	DateLayout        string  `json:"date_layout" validate:"required,max=20"`
	QuoteValidityDays int     `json:"quote_validity_days" validate:"gte=1,lte=365"`
	InvoiceDueDays    int     `json:"invoice_due_days" validate:"gte=0,lte=90"`
	VATRatePercent    float64 `json:"vat_rate_percent" validate:"gte=0,lte=100"`
	QuoteTerms        string  `json:"quote_terms"`
	CapGlobalDiscount bool    `json:"cap_global_discount"`
	NEAKRetentionDays int     `json:"neak_retention_days" validate:"gte=30,lte=3650"`
}
