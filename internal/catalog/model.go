// Package catalog manages the billable procedure catalog and its CSV
// import/export round-trip.
package catalog

import (
	"time"

	"github.com/molaris/molaris/internal/billing"
)

// UnitType describes what a procedure's price applies to.
type UnitType string

const (
	UnitMouth    UnitType = "MOUTH"
	UnitArch     UnitType = "ARCH"
	UnitQuadrant UnitType = "QUADRANT"
	UnitTooth    UnitType = "TOOTH"
)

// ValidUnitType reports whether the value is one of the known unit types.
func ValidUnitType(u UnitType) bool {
	switch u {
	case UnitMouth, UnitArch, UnitQuadrant, UnitTooth:
		return true
	}
	return false
}

// Procedure is one billable catalog entry.
type Procedure struct {
	ID             int64            `json:"id"`
	Code           string           `json:"code"`
	Name           string           `json:"name"`
	UnitType       UnitType         `json:"unit_type"`
	PriceGross     float64          `json:"price_gross"`
	Currency       billing.Currency `json:"currency"`
	VATRatePercent float64          `json:"vat_rate_percent"`
	IsActive       bool             `json:"is_active"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// CreateRequest creates a new catalog entry.
type CreateRequest struct {
	Code           string  `json:"code" validate:"required,max=20"`
	Name           string  `json:"name" validate:"required,max=200"`
	UnitType       string  `json:"unit_type" validate:"required,oneof=MOUTH ARCH QUADRANT TOOTH"`
	PriceGross     float64 `json:"price_gross" validate:"gte=0"`
	Currency       string  `json:"currency" validate:"required,oneof=HUF EUR"`
	VATRatePercent float64 `json:"vat_rate_percent" validate:"gte=0,lte=100"`
}

// UpdateRequest replaces the editable fields of an entry.
type UpdateRequest struct {
	Name           string  `json:"name" validate:"required,max=200"`
	UnitType       string  `json:"unit_type" validate:"required,oneof=MOUTH ARCH QUADRANT TOOTH"`
	PriceGross     float64 `json:"price_gross" validate:"gte=0"`
	Currency       string  `json:"currency" validate:"required,oneof=HUF EUR"`
	VATRatePercent float64 `json:"vat_rate_percent" validate:"gte=0,lte=100"`
	IsActive       bool    `json:"is_active"`
}
