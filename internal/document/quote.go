package document

import (
	"fmt"

	"github.com/molaris/molaris/internal/billing"
)

// Item table column widths in millimeters, left to right: index/session,
// name, unit price, quantity, line total. The name column absorbs the rest
// of the content width.
const (
	colIndexW = 16.0
	colPriceW = 28.0
	colQtyW   = 18.0
	colTotalW = 30.0
)

func (b *builder) nameColWidth() float64 {
	return b.geo.ContentWidth() - colIndexW - colPriceW - colQtyW - colTotalW
}

// RenderQuote builds the quote PDF and returns the finished artifact bytes.
func (r *Renderer) RenderQuote(doc QuoteDocument) ([]byte, error) {
	b, err := r.composeQuote(doc)
	if err != nil {
		return nil, err
	}
	return b.output()
}

// QuoteFilename is the deterministic artifact name for a rendered quote.
func QuoteFilename(doc QuoteDocument) string {
	return Filename("arajanlat", doc.Number, doc.Patient.LastName, doc.Patient.FirstName)
}

func (r *Renderer) composeQuote(doc QuoteDocument) (*builder, error) {
	b := r.newBuilder("Árajánlat "+doc.Number, doc.GeneratedAt, func(b *builder) {
		b.clinicHeader(doc.Clinic, "Árajánlat", doc.Number, [][2]string{
			{"Kelt:", b.f.Date(doc.CreatedAt)},
			{"Érvényes:", b.f.Date(doc.ValidUntil)},
			{"Kezelőorvos:", doc.Clinician},
		})
	})

	b.patientBlock("Páciens", doc.Patient)
	b.itemTable(doc.Currency, doc.Lines)

	if len(doc.Sessions) > 0 {
		b.ensure(5.6 + lineH)
		b.font("B", 10)
		b.pdf.Cell(0, 5.6, b.text("Kezelési alkalmak"))
		b.pdf.Ln(5.6)
		b.font("", 9)
		for _, st := range doc.Sessions {
			b.ensure(lineH)
			b.pdf.Cell(60, lineH, b.text(fmt.Sprintf("%d. alkalom", st.Session)))
			b.pdf.CellFormat(40, lineH, b.text(b.f.Money(st.Amount, doc.Currency)), "", 0, "R", false, 0, "")
			b.pdf.Ln(lineH)
		}
		b.pdf.Ln(2)
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

	// The terms/warranty page is always appended after the body and
	// paginates under the same rule.
	b.pdf.AddPage()
	b.font("B", 12)
	b.pdf.Cell(0, 7, b.text("Garanciális és fizetési feltételek"))
	b.pdf.Ln(8)
	b.font("", 9)
	b.paragraph(doc.Terms, 4.6)

	b.signatureBlock(doc.Clinic.Location, doc.CreatedAt,
		doc.Clinician, doc.Patient.FullName(),
		"Az árajánlat tájékoztató jellegű; a kezelési terv a vizsgálati leletek alapján módosulhat.")

	return b, nil
}

// itemTable emits the column header and the two-line presentation rows.
func (b *builder) itemTable(cur billing.Currency, lines []Line) {
	nameW := b.nameColWidth()

	b.ensure(6 + rowH)
	b.font("B", 8.5)
	b.pdf.Cell(colIndexW, 6, "#")
	b.pdf.Cell(nameW, 6, b.text("Megnevezés"))
	b.pdf.CellFormat(colPriceW, 6, b.text("Egységár"), "", 0, "R", false, 0, "")
	b.pdf.CellFormat(colQtyW, 6, b.text("Menny."), "", 0, "R", false, 0, "")
	b.pdf.CellFormat(colTotalW, 6, b.text("Összesen"), "", 0, "R", false, 0, "")
	b.pdf.Ln(6)
	b.rule()
	b.pdf.Ln(1.4)

	for _, line := range lines {
		secondary := line.TreatedArea
		if line.ToothCode != "" {
			if secondary != "" {
				secondary += ", "
			}
			secondary += line.ToothCode + ". fog"
		}
		if line.DiscountAmount > 0 {
			if secondary != "" {
				secondary += " - "
			}
			secondary += "kedvezmény: -" + b.f.Money(line.DiscountAmount, cur)
		}

		h := rowH + rowGap
		if secondary != "" {
			h += subRowH
		}
		b.ensure(h)

		b.font("", 9)
		b.pdf.Cell(colIndexW, rowH, b.text(fmt.Sprintf("%d. [%d]", line.Index, line.Session)))
		b.pdf.Cell(nameW, rowH, b.fit(b.text(line.Name), nameW-1))
		b.pdf.CellFormat(colPriceW, rowH, b.text(b.f.Money(line.UnitPrice, cur)), "", 0, "R", false, 0, "")
		b.pdf.CellFormat(colQtyW, rowH, b.text(b.f.Quantity(line.Quantity)), "", 0, "R", false, 0, "")
		b.pdf.CellFormat(colTotalW, rowH, b.text(b.f.Money(line.GrossTotal, cur)), "", 0, "R", false, 0, "")
		b.pdf.Ln(rowH)

		if secondary != "" {
			wide := nameW + colPriceW + colQtyW + colTotalW
			b.font("I", 7.5)
			b.pdf.Cell(colIndexW, subRowH, "")
			b.pdf.Cell(wide, subRowH, b.fit(b.text(secondary), wide-1))
			b.pdf.Ln(subRowH)
		}
		b.pdf.Ln(rowGap)
	}
	b.pdf.Ln(2)
}

// totalsBlock prints the summary: subtotal, conditional discount rows, a
// rule line, then the grand total.
func (b *builder) totalsBlock(cur billing.Currency, t billing.Totals) {
	labelW := b.geo.ContentWidth() - 92 - colTotalW

	emit := func(label string, v float64, bold bool) {
		b.ensure(lineH + 0.6)
		style := ""
		if bold {
			style = "B"
		}
		b.font(style, 9.5)
		b.pdf.Cell(labelW, lineH, "")
		b.pdf.Cell(92, lineH, b.text(label))
		b.pdf.CellFormat(colTotalW, lineH, b.text(b.f.Money(v, cur)), "", 0, "R", false, 0, "")
		b.pdf.Ln(lineH + 0.6)
	}

	emit("Részösszeg:", t.Subtotal, false)
	if t.LineDiscounts > 0 {
		emit("Tételkedvezmények:", -t.LineDiscounts, false)
	}
	if t.GlobalDiscount > 0 {
		emit("Kedvezmény a végösszegből:", -t.GlobalDiscount, false)
	}

	b.ensure(lineH + 2)
	y := b.pdf.GetY()
	b.pdf.SetDrawColor(60, 60, 60)
	b.pdf.Line(b.geo.MarginLeft+labelW, y, b.geo.PageWidth-b.geo.MarginRight, y)
	b.pdf.Ln(1.2)
	emit("Fizetendő összesen:", t.Total, true)
	b.pdf.Ln(2)
}
