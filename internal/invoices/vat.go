package invoices

import (
	"sort"

	"github.com/molaris/molaris/internal/billing"
	"github.com/molaris/molaris/internal/document"
)

// vatBreakdown groups the discounted line amounts by VAT rate and splits
// each group into net and VAT content (prices are gross, VAT-inclusive).
// The global discount is allocated across the rate groups in proportion to
// their share of the discounted subtotal; the rounding residue goes to the
// last group so the table's gross column sums exactly to the grand total
// printed below it.
func vatBreakdown(inv *Invoice, totals billing.Totals) []document.VATLine {
	perRate := make(map[float64]float64)
	var base float64
	for _, it := range inv.Items {
		li := billing.LineItem{
			Quantity:       it.Quantity,
			UnitPriceGross: it.UnitPriceGross,
			Discount:       it.Discount,
		}
		amount := li.GrossTotal() - li.DiscountAmount(inv.Currency)
		perRate[it.VATRatePercent] += amount
		base += amount
	}

	rates := make([]float64, 0, len(perRate))
	for rate := range perRate {
		rates = append(rates, rate)
	}
	sort.Float64s(rates)

	cur := inv.Currency
	lines := make([]document.VATLine, 0, len(rates))
	var allocated float64
	for i, rate := range rates {
		gross := perRate[rate]
		if base > 0 && totals.GlobalDiscount > 0 {
			share := cur.Round(totals.GlobalDiscount * (gross / base))
			if i == len(rates)-1 {
				share = cur.Round(totals.GlobalDiscount - allocated)
			}
			allocated += share
			gross -= share
		}
		net := cur.Round(gross / (1 + rate/100))
		lines = append(lines, document.VATLine{
			Rate:  rate,
			Net:   net,
			VAT:   cur.Round(gross - net),
			Gross: cur.Round(gross),
		})
	}
	return lines
}
