package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeNoDiscounts(t *testing.T) {
	totals, sessions := Compute(Input{
		Items: []LineItem{
			{Name: "Scaling", Quantity: 1, UnitPriceGross: 15000},
			{Name: "Filling", Quantity: 3, UnitPriceGross: 22000},
		},
		Currency: CurrencyHUF,
	})

	assert.Equal(t, 81000.0, totals.Subtotal)
	assert.Equal(t, 0.0, totals.LineDiscounts)
	assert.Equal(t, 0.0, totals.GlobalDiscount)
	assert.Equal(t, totals.Subtotal, totals.Total)
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, sessions[0].Session)
	assert.Equal(t, 81000.0, sessions[0].Amount)
}

func TestComputeMixedSessionsAndLineDiscount(t *testing.T) {
	totals, sessions := Compute(Input{
		Items: []LineItem{
			{Name: "Crown", Quantity: 2, UnitPriceGross: 10000, TreatmentSession: 1},
			{Name: "Extraction", Quantity: 1, UnitPriceGross: 5000, TreatmentSession: 2,
				Discount: Discount{Type: DiscountPercent, Value: 10}},
		},
		Currency: CurrencyHUF,
	})

	assert.Equal(t, 25000.0, totals.Subtotal)
	assert.Equal(t, 500.0, totals.LineDiscounts)
	assert.Equal(t, 24500.0, totals.Total)

	require.Len(t, sessions, 2)
	assert.Equal(t, SessionTotal{Session: 1, Amount: 20000}, sessions[0])
	assert.Equal(t, SessionTotal{Session: 2, Amount: 5000}, sessions[1])
}

func TestAbsoluteLineDiscountCappedAtLineTotal(t *testing.T) {
	item := LineItem{Name: "X-ray", Quantity: 1, UnitPriceGross: 5000,
		Discount: Discount{Type: DiscountAbsolute, Value: 8000}}

	assert.Equal(t, 5000.0, item.DiscountAmount(CurrencyHUF))

	totals, _ := Compute(Input{Items: []LineItem{item}, Currency: CurrencyHUF})
	assert.Equal(t, 5000.0, totals.LineDiscounts)
	assert.Equal(t, 0.0, totals.Total)
}

func TestGlobalPercentAppliesToDiscountedSubtotal(t *testing.T) {
	totals, _ := Compute(Input{
		Items: []LineItem{
			{Quantity: 1, UnitPriceGross: 10000, Discount: Discount{Type: DiscountAbsolute, Value: 2000}},
		},
		GlobalDiscount: Discount{Type: DiscountPercent, Value: 10},
		Currency:       CurrencyHUF,
	})

	// 10% of 8000, not of 10000.
	assert.Equal(t, 800.0, totals.GlobalDiscount)
	assert.Equal(t, 7200.0, totals.Total)
}

func TestGlobalAbsoluteCapPolicy(t *testing.T) {
	in := Input{
		Items:          []LineItem{{Quantity: 1, UnitPriceGross: 3000}},
		GlobalDiscount: Discount{Type: DiscountAbsolute, Value: 9000},
		Currency:       CurrencyHUF,
	}

	in.CapGlobalDiscount = true
	totals, _ := Compute(in)
	assert.Equal(t, 3000.0, totals.GlobalDiscount)
	assert.Equal(t, 0.0, totals.Total)

	in.CapGlobalDiscount = false
	totals, _ = Compute(in)
	assert.Equal(t, 9000.0, totals.GlobalDiscount)
	// Grand total still never goes negative.
	assert.Equal(t, 0.0, totals.Total)
}

func TestPercentRoundingFollowsCurrencyMinorUnits(t *testing.T) {
	item := LineItem{Quantity: 1, UnitPriceGross: 999, Discount: Discount{Type: DiscountPercent, Value: 33}}

	// 329.67 rounds to whole forints but keeps cents in euro.
	assert.Equal(t, 330.0, item.DiscountAmount(CurrencyHUF))
	assert.Equal(t, 329.67, item.DiscountAmount(CurrencyEUR))
}

func TestSessionTotalsSumToSubtotal(t *testing.T) {
	items := []LineItem{
		{Quantity: 2, UnitPriceGross: 1200, TreatmentSession: 3},
		{Quantity: 1, UnitPriceGross: 7400, TreatmentSession: 1},
		{Quantity: 5, UnitPriceGross: 900, TreatmentSession: 3,
			Discount: Discount{Type: DiscountPercent, Value: 25}},
		{Quantity: 1, UnitPriceGross: 600},
	}

	totals, sessions := Compute(Input{Items: items, Currency: CurrencyHUF})

	var sum float64
	for i, st := range sessions {
		sum += st.Amount
		if i > 0 {
			assert.Greater(t, st.Session, sessions[i-1].Session)
		}
	}
	assert.Equal(t, totals.Subtotal, sum)
}

func TestSessionDefaultsToOne(t *testing.T) {
	_, sessions := Compute(Input{
		Items:    []LineItem{{Quantity: 1, UnitPriceGross: 100, TreatmentSession: 0}},
		Currency: CurrencyHUF,
	})
	require.Len(t, sessions, 1)
	assert.Equal(t, 1, sessions[0].Session)
}

func TestComputeIsPureAndRepeatable(t *testing.T) {
	in := Input{
		Items: []LineItem{
			{Quantity: 4, UnitPriceGross: 2500, Discount: Discount{Type: DiscountPercent, Value: 5}},
		},
		GlobalDiscount:    Discount{Type: DiscountAbsolute, Value: 100},
		Currency:          CurrencyHUF,
		CapGlobalDiscount: true,
	}

	first, firstSessions := Compute(in)
	second, secondSessions := Compute(in)
	assert.Equal(t, first, second)
	assert.Equal(t, firstSessions, secondSessions)
}
