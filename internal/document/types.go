// Package document lays out printable quote and invoice PDFs. The renderer
// owns a single page/cursor model per build, performs no I/O and either
// returns a complete artifact or an error, never partial output.
package document

import (
	"fmt"
	"time"

	"github.com/molaris/molaris/internal/billing"
)

// Clinic is the letterhead identity block printed on every page.
type Clinic struct {
	Name     string
	Address  string
	Phone    string
	Email    string
	TaxID    string
	Location string // city used on the signature date line
}

// Person identifies the patient (or invoice payer).
type Person struct {
	LastName  string
	FirstName string
	BirthDate *time.Time
	TAJ       string
	Address   string
	Phone     string
	Email     string
}

// FullName renders family name first, the home-locale convention.
func (p Person) FullName() string {
	return p.LastName + " " + p.FirstName
}

// Line is one pre-computed presentation row. Amounts are resolved by the
// billing package before rendering so the renderer stays arithmetic-free.
type Line struct {
	Index          int
	Session        int
	Name           string
	Quantity       int
	UnitPrice      float64
	GrossTotal     float64
	DiscountAmount float64
	TreatedArea    string
	ToothCode      string
}

// QuoteDocument aggregates everything the quote PDF needs.
type QuoteDocument struct {
	Clinic      Clinic
	Patient     Person
	Clinician   string
	Number      string
	CreatedAt   time.Time
	ValidUntil  time.Time
	Currency    billing.Currency
	Lines       []Line
	Totals      billing.Totals
	Sessions    []billing.SessionTotal
	Comment     string
	Terms       string
	GeneratedAt time.Time // injected so repeated renders are byte-identical
}

// VATLine is one row of the invoice VAT breakdown.
type VATLine struct {
	Rate  float64 `json:"rate"`
	Net   float64 `json:"net"`
	VAT   float64 `json:"vat"`
	Gross float64 `json:"gross"`
}

// InvoiceDocument aggregates everything the invoice PDF needs.
type InvoiceDocument struct {
	Clinic          Clinic
	Payer           Person
	Clinician       string
	Number          string
	IssueDate       time.Time
	FulfillmentDate time.Time
	DueDate         time.Time
	PaymentMethod   string
	Currency        billing.Currency
	Lines           []Line
	Totals          billing.Totals
	VATBreakdown    []VATLine
	Comment         string
	GeneratedAt     time.Time
}

// Filename composes the deterministic artifact name
// <doc-type>_<number>_<last-name>_<first-name>.pdf.
func Filename(docType, number, lastName, firstName string) string {
	return fmt.Sprintf("%s_%s_%s_%s.pdf",
		fileSlug(docType), fileSlug(number), fileSlug(lastName), fileSlug(firstName))
}
