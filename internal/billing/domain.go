// Package billing contains the pure pricing arithmetic shared by quotes and
// invoices: line totals, percentage and absolute discounts, and per-session
// subtotals. Everything here is deterministic and free of I/O.
package billing

import "math"

// Currency identifies a supported billing currency.
type Currency string

const (
	// CurrencyHUF is the home currency, formatted without decimals.
	CurrencyHUF Currency = "HUF"
	// CurrencyEUR is the alternate currency, formatted with two decimals.
	CurrencyEUR Currency = "EUR"
)

// MinorUnits returns the number of decimal places used when rounding
// amounts in this currency.
func (c Currency) MinorUnits() int {
	if c == CurrencyEUR {
		return 2
	}
	return 0
}

// Round rounds an amount to the currency's minor-unit precision.
func (c Currency) Round(v float64) float64 {
	scale := math.Pow(10, float64(c.MinorUnits()))
	return math.Round(v*scale) / scale
}

// DiscountType tags the two discount representations.
type DiscountType string

const (
	DiscountNone     DiscountType = "NONE"
	DiscountPercent  DiscountType = "PERCENT"
	DiscountAbsolute DiscountType = "ABSOLUTE"
)

// Discount is a tagged variant: a percentage in [0,100] or an absolute
// amount, used both per line and for the quote-level global discount.
type Discount struct {
	Type  DiscountType `json:"type"`
	Value float64      `json:"value"`
}

// Resolve converts the discount into an absolute amount against base.
// Percentages are rounded to the currency's minor unit; absolute values are
// capped at base so a discount never exceeds what it applies to.
func (d Discount) Resolve(base float64, cur Currency) float64 {
	switch d.Type {
	case DiscountPercent:
		return cur.Round(base * (d.Value / 100))
	case DiscountAbsolute:
		return math.Min(d.Value, base)
	default:
		return 0
	}
}

// LineItem is one billable procedure instance on a quote or invoice.
type LineItem struct {
	Name             string   `json:"name"`
	Quantity         int      `json:"quantity"`
	UnitPriceGross   float64  `json:"unit_price_gross"`
	Discount         Discount `json:"discount"`
	TreatmentSession int      `json:"treatment_session"`
	TreatedArea      string   `json:"treated_area,omitempty"`
	ToothCode        string   `json:"tooth_code,omitempty"`
}

// GrossTotal is quantity times unit price, before any discount.
func (li LineItem) GrossTotal() float64 {
	return float64(li.Quantity) * li.UnitPriceGross
}

// DiscountAmount resolves the line discount against the gross line total.
func (li LineItem) DiscountAmount(cur Currency) float64 {
	return li.Discount.Resolve(li.GrossTotal(), cur)
}

// Session returns the treatment session the line belongs to, defaulting to 1.
func (li LineItem) Session() int {
	if li.TreatmentSession < 1 {
		return 1
	}
	return li.TreatmentSession
}
