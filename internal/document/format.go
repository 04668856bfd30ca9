package document

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/molaris/molaris/internal/billing"
)

// Formatter produces locale-correct money and date strings for rendered
// documents. Date layout comes from clinic settings rather than ambient
// state so two renders of the same input agree.
type Formatter struct {
	printer    *message.Printer
	dateLayout string
}

// NewFormatter builds a Formatter for the given locale tag and date layout.
// An unparsable tag falls back to Hungarian, the home locale.
func NewFormatter(locale, dateLayout string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.Hungarian
	}
	if dateLayout == "" {
		dateLayout = "2006.01.02."
	}
	return &Formatter{
		printer:    message.NewPrinter(tag),
		dateLayout: dateLayout,
	}
}

// Money renders an amount with the locale's digit grouping and the
// currency's minor-unit precision.
func (f *Formatter) Money(v float64, cur billing.Currency) string {
	amount := f.printer.Sprint(number.Decimal(v,
		number.MinFractionDigits(cur.MinorUnits()),
		number.MaxFractionDigits(cur.MinorUnits()),
	))
	switch cur {
	case billing.CurrencyEUR:
		return amount + " €"
	default:
		return amount + " Ft"
	}
}

// Date renders a date using the configured layout; zero times render empty.
func (f *Formatter) Date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(f.dateLayout)
}

// Quantity renders an item quantity with its piece suffix.
func (f *Formatter) Quantity(q int) string {
	return fmt.Sprintf("%d db", q)
}
