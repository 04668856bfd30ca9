package document

import (
	"fmt"

	"github.com/molaris/molaris/internal/billing"
)

// RenderInvoice builds the invoice PDF and returns the finished artifact bytes.
func (r *Renderer) RenderInvoice(doc InvoiceDocument) ([]byte, error) {
	b, err := r.composeInvoice(doc)
	if err != nil {
		return nil, err
	}
	return b.output()
}

// InvoiceFilename is the deterministic artifact name for a rendered invoice.
func InvoiceFilename(doc InvoiceDocument) string {
	return Filename("szamla", doc.Number, doc.Payer.LastName, doc.Payer.FirstName)
}

func (r *Renderer) composeInvoice(doc InvoiceDocument) (*builder, error) {
	b := r.newBuilder("Számla "+doc.Number, doc.GeneratedAt, func(b *builder) {
		b.clinicHeader(doc.Clinic, "Számla", doc.Number, [][2]string{
			{"Kelt:", b.f.Date(doc.IssueDate)},
			{"Teljesítés:", b.f.Date(doc.FulfillmentDate)},
			{"Fizetési határidő:", b.f.Date(doc.DueDate)},
			{"Fizetési mód:", doc.PaymentMethod},
		})
	})

	b.patientBlock("Vevő", doc.Payer)
	b.itemTable(doc.Currency, doc.Lines)

	if len(doc.VATBreakdown) > 0 {
		b.vatTable(doc.Currency, doc.VATBreakdown)
	}

	b.totalsBlock(doc.Currency, doc.Totals)

	if doc.Comment != "" {
		b.ensure(5.6 + lineH)
		b.font("B", 10)
		b.pdf.Cell(0, 5.6, b.text("Megjegyzés"))
		b.pdf.Ln(5.6)
		b.font("", 9)
		b.paragraph(doc.Comment, 4.4)
		b.pdf.Ln(2)
	}

	b.signatureBlock(doc.Clinic.Location, doc.IssueDate,
		doc.Clinician, doc.Payer.FullName(),
		"A számla elektronikusan készült és aláírás nélkül is érvényes.")

	return b, nil
}

// vatTable prints the per-rate VAT breakdown required on invoices.
func (b *builder) vatTable(cur billing.Currency, rows []VATLine) {
	colW := 36.0

	b.ensure(5.6 + 6 + float64(len(rows))*lineH)
	b.font("B", 10)
	b.pdf.Cell(0, 5.6, b.text("ÁFA összesítő"))
	b.pdf.Ln(5.6)

	b.font("B", 8.5)
	b.pdf.Cell(colW, 5, b.text("Kulcs"))
	b.pdf.CellFormat(colW, 5, b.text("Nettó"), "", 0, "R", false, 0, "")
	b.pdf.CellFormat(colW, 5, b.text("ÁFA"), "", 0, "R", false, 0, "")
	b.pdf.CellFormat(colW, 5, b.text("Bruttó"), "", 0, "R", false, 0, "")
	b.pdf.Ln(5)

	b.font("", 9)
	for _, row := range rows {
		b.ensure(lineH)
		b.pdf.Cell(colW, lineH, b.text(fmt.Sprintf("%.0f%%", row.Rate)))
		b.pdf.CellFormat(colW, lineH, b.text(b.f.Money(row.Net, cur)), "", 0, "R", false, 0, "")
		b.pdf.CellFormat(colW, lineH, b.text(b.f.Money(row.VAT, cur)), "", 0, "R", false, 0, "")
		b.pdf.CellFormat(colW, lineH, b.text(b.f.Money(row.Gross, cur)), "", 0, "R", false, 0, "")
		b.pdf.Ln(lineH)
	}
	b.pdf.Ln(2)
}
