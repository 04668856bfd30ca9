package billing

import (
	"math"
	"sort"
)

// Totals is the derived financial summary of a document. It is recomputed
// from the current line set on demand and never persisted.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	LineDiscounts  float64 `json:"line_discounts"`
	GlobalDiscount float64 `json:"global_discount"`
	Total          float64 `json:"total"`
}

// SessionTotal is the undiscounted subtotal of one treatment session.
type SessionTotal struct {
	Session int     `json:"session"`
	Amount  float64 `json:"amount"`
}

// Input carries everything Compute needs. The policy flag decides whether an
// absolute global discount is capped at the discounted subtotal the same way
// line-level absolute discounts are capped at their line.
type Input struct {
	Items             []LineItem
	GlobalDiscount    Discount
	Currency          Currency
	CapGlobalDiscount bool
}

// Compute reduces the line items into a Totals record plus per-session
// subtotals ordered by ascending session number.
//
// The subtotal sums gross line totals; line discounts accumulate separately
// so the summary can show both as distinct rows. The global discount is
// resolved against subtotal minus line discounts, and the grand total is
// clamped at zero. Input values are not validated here.
func Compute(in Input) (Totals, []SessionTotal) {
	var t Totals
	perSession := make(map[int]float64)

	for _, item := range in.Items {
		gross := item.GrossTotal()
		t.Subtotal += gross
		t.LineDiscounts += item.DiscountAmount(in.Currency)
		perSession[item.Session()] += gross
	}

	discountedBase := t.Subtotal - t.LineDiscounts
	if in.CapGlobalDiscount || in.GlobalDiscount.Type == DiscountPercent {
		t.GlobalDiscount = in.GlobalDiscount.Resolve(discountedBase, in.Currency)
	} else if in.GlobalDiscount.Type == DiscountAbsolute {
		t.GlobalDiscount = in.GlobalDiscount.Value
	}

	t.Total = math.Max(0, discountedBase-t.GlobalDiscount)

	sessions := make([]SessionTotal, 0, len(perSession))
	for session, amount := range perSession {
		sessions = append(sessions, SessionTotal{Session: session, Amount: amount})
	}
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Session < sessions[j].Session })

	return t, sessions
}
