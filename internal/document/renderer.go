package document

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// Geometry describes the printable page model in millimeters.
type Geometry struct {
	PageWidth    float64
	PageHeight   float64
	MarginLeft   float64
	MarginTop    float64
	MarginRight  float64
	MarginBottom float64
}

// A4 returns the default portrait A4 geometry.
func A4() Geometry {
	return Geometry{
		PageWidth:    210,
		PageHeight:   297,
		MarginLeft:   15,
		MarginTop:    15,
		MarginRight:  15,
		MarginBottom: 20,
	}
}

// ContentWidth is the horizontal space available to body atoms.
func (g Geometry) ContentWidth() float64 {
	return g.PageWidth - g.MarginLeft - g.MarginRight
}

// Renderer builds quote and invoice PDFs. It is stateless between builds;
// concurrent renders for different documents are independent.
type Renderer struct {
	fmtr *Formatter
	geo  Geometry
}

// NewRenderer constructs a Renderer with the given formatter and geometry.
func NewRenderer(f *Formatter, geo Geometry) *Renderer {
	return &Renderer{fmtr: f, geo: geo}
}

const (
	fontFamily = "Helvetica"

	rowH    = 5.2 // primary item line
	subRowH = 4.2 // secondary item line
	rowGap  = 1.2
	lineH   = 5.0 // generic text line
)

// builder owns the page/cursor state for one document build and is
// discarded on completion.
type builder struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
	f   *Formatter
	geo Geometry
}

func (r *Renderer) newBuilder(title string, generatedAt time.Time, header func(*builder)) *builder {
	pdf := gofpdf.New("P", "mm", "A4", "")
	b := &builder{
		pdf: pdf,
		tr:  pdf.UnicodeTranslatorFromDescriptor(""),
		f:   r.fmtr,
		geo: r.geo,
	}
	pdf.SetTitle(b.text(title), false)
	// Both are required for repeatable bytes: a fixed creation stamp and a
	// sorted resource catalog (gofpdf otherwise emits font dictionaries in
	// map iteration order).
	pdf.SetCreationDate(generatedAt)
	pdf.SetCatalogSort(true)
	pdf.SetMargins(r.geo.MarginLeft, r.geo.MarginTop, r.geo.MarginRight)
	pdf.SetAutoPageBreak(false, r.geo.MarginBottom)
	// The header phase re-runs at the top of every page.
	pdf.SetHeaderFunc(func() { header(b) })
	pdf.AddPage()
	return b
}

// text folds unsupported runes and translates UTF-8 to the core font codepage.
func (b *builder) text(s string) string {
	return b.tr(foldText(s))
}

// ensure starts a new page (re-running the header) before any atom that
// would cross the bottom margin.
func (b *builder) ensure(h float64) {
	if b.pdf.GetY()+h > b.geo.PageHeight-b.geo.MarginBottom {
		b.pdf.AddPage()
	}
}

// fit truncates already-translated text with an ellipsis, shrinking until
// it fits the column width.
func (b *builder) fit(s string, width float64) string {
	if b.pdf.GetStringWidth(s) <= width {
		return s
	}
	ellipsis := b.tr("…")
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		if b.pdf.GetStringWidth(string(runes)+ellipsis) <= width {
			break
		}
	}
	return string(runes) + ellipsis
}

func (b *builder) font(style string, size float64) {
	b.pdf.SetFont(fontFamily, style, size)
}

// label emits a "Key: value" line and advances the cursor.
func (b *builder) label(key, value string) {
	b.ensure(lineH)
	b.font("B", 9)
	b.pdf.Cell(38, lineH, b.text(key))
	b.font("", 9)
	b.pdf.Cell(0, lineH, b.text(value))
	b.pdf.Ln(lineH)
}

// rule draws a horizontal line across the content width.
func (b *builder) rule() {
	y := b.pdf.GetY()
	b.pdf.SetDrawColor(120, 120, 120)
	b.pdf.Line(b.geo.MarginLeft, y, b.geo.PageWidth-b.geo.MarginRight, y)
}

// paragraph emits wrapped text line by line so each line obeys the
// pagination rule.
func (b *builder) paragraph(s string, h float64) {
	lines := b.pdf.SplitLines([]byte(b.text(s)), b.geo.ContentWidth())
	for _, line := range lines {
		b.ensure(h)
		b.pdf.Cell(0, h, string(line))
		b.pdf.Ln(h)
	}
}

// clinicHeader is the shared header phase: identity block, document title,
// identifier and dates.
func (b *builder) clinicHeader(c Clinic, title, number string, meta [][2]string) {
	b.pdf.SetY(b.geo.MarginTop)
	b.font("B", 14)
	b.pdf.Cell(0, 7, b.text(c.Name))
	b.pdf.Ln(6)

	b.font("", 8.5)
	contact := c.Address
	if c.Phone != "" {
		contact += "  •  " + c.Phone
	}
	if c.Email != "" {
		contact += "  •  " + c.Email
	}
	b.pdf.Cell(0, 4.5, b.text(contact))
	b.pdf.Ln(4.5)
	if c.TaxID != "" {
		b.pdf.Cell(0, 4.5, b.text("Adószám: "+c.TaxID))
		b.pdf.Ln(4.5)
	}
	b.pdf.Ln(1.5)
	b.rule()
	b.pdf.Ln(3)

	b.font("B", 13)
	b.pdf.Cell(110, 7, b.text(title))
	b.font("", 10)
	b.pdf.CellFormat(0, 7, b.text(number), "", 0, "R", false, 0, "")
	b.pdf.Ln(7)

	b.font("", 8.5)
	for _, kv := range meta {
		b.pdf.Cell(30, 4.2, b.text(kv[0]))
		b.pdf.Cell(0, 4.2, b.text(kv[1]))
		b.pdf.Ln(4.2)
	}
	b.pdf.Ln(3)
}

// patientBlock prints the patient (or payer) identity.
func (b *builder) patientBlock(heading string, p Person) {
	b.ensure(5.6 + 4*lineH)
	b.font("B", 10)
	b.pdf.Cell(0, 5.6, b.text(heading))
	b.pdf.Ln(5.6)
	b.label("Név:", p.FullName())
	if p.BirthDate != nil && !p.BirthDate.IsZero() {
		b.label("Születési idő:", b.f.Date(*p.BirthDate))
	}
	if p.TAJ != "" {
		b.label("TAJ szám:", p.TAJ)
	}
	if p.Address != "" {
		b.label("Cím:", p.Address)
	}
	b.pdf.Ln(2)
}

// signatureBlock anchors the location/date line, two signature rules and the
// disclaimer to the bottom of the current page.
func (b *builder) signatureBlock(location string, date time.Time, leftName, rightName, disclaimer string) {
	const blockH = 38.0
	bottom := b.geo.PageHeight - b.geo.MarginBottom
	if b.pdf.GetY() > bottom-blockH {
		b.pdf.AddPage()
	}
	b.pdf.SetY(bottom - blockH)

	b.font("", 9)
	b.pdf.Cell(0, lineH, b.text(location+", "+b.f.Date(date)))
	b.pdf.Ln(14)

	sigWidth := 62.0
	leftX := b.geo.MarginLeft + 8
	rightX := b.geo.PageWidth - b.geo.MarginRight - 8 - sigWidth
	y := b.pdf.GetY()
	b.pdf.SetDrawColor(60, 60, 60)
	b.pdf.Line(leftX, y, leftX+sigWidth, y)
	b.pdf.Line(rightX, y, rightX+sigWidth, y)

	b.font("", 8)
	b.pdf.SetXY(leftX, y+1)
	b.pdf.CellFormat(sigWidth, 4, b.text(leftName), "", 0, "C", false, 0, "")
	b.pdf.SetXY(rightX, y+1)
	b.pdf.CellFormat(sigWidth, 4, b.text(rightName), "", 0, "C", false, 0, "")
	b.pdf.Ln(8)

	b.font("I", 7)
	b.pdf.SetX(b.geo.MarginLeft)
	for _, line := range b.pdf.SplitLines([]byte(b.text(disclaimer)), b.geo.ContentWidth()) {
		b.pdf.CellFormat(0, 3.4, string(line), "", 1, "C", false, 0, "")
	}
}

// output finalizes the build. Any accumulated layout error aborts the whole
// document; no partial bytes are returned.
func (b *builder) output() ([]byte, error) {
	if err := b.pdf.Error(); err != nil {
		return nil, fmt.Errorf("document: layout: %w", err)
	}
	var buf bytes.Buffer
	if err := b.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("document: output: %w", err)
	}
	return buf.Bytes(), nil
}
