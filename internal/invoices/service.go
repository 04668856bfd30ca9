package invoices

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/molaris/molaris/internal/billing"
	"github.com/molaris/molaris/internal/document"
	"github.com/molaris/molaris/internal/patients"
	"github.com/molaris/molaris/internal/platform/httpx"
	"github.com/molaris/molaris/internal/quotes"
	"github.com/molaris/molaris/internal/settings"
)

// PatientDirectory is what the invoice service needs from the patients module.
type PatientDirectory interface {
	Get(ctx context.Context, id int64) (patients.Patient, error)
}

// QuoteSource supplies accepted quotes for invoicing.
type QuoteSource interface {
	Get(ctx context.Context, id int64) (*quotes.QuoteResponse, error)
}

// SettingsProvider supplies the clinic configuration.
type SettingsProvider interface {
	Get(ctx context.Context) (settings.Settings, error)
}

type Service struct {
	repo     Repository
	patients PatientDirectory
	quotes   QuoteSource
	settings SettingsProvider
	log      *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, pd PatientDirectory, qs QuoteSource, sp SettingsProvider, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: pd,
		quotes:   qs,
		settings: sp,
		log:      log.With("component", "invoices"),
		now:      time.Now,
	}
}

func parseDiscount(typ string, value float64) (billing.Discount, error) {
	d := billing.Discount{Type: billing.DiscountType(typ), Value: value}
	if typ == "" || d.Type == billing.DiscountNone {
		return billing.Discount{Type: billing.DiscountNone}, nil
	}
	if d.Type == billing.DiscountPercent && d.Value > 100 {
		return billing.Discount{}, fmt.Errorf("%w: percent discount above 100", httpx.ErrValidation)
	}
	return d, nil
}

func (s *Service) respond(ctx context.Context, inv *Invoice) (*InvoiceResponse, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	totals, _ := billing.Compute(billing.Input{
		Items:             inv.BillingItems(),
		GlobalDiscount:    inv.GlobalDiscount,
		Currency:          inv.Currency,
		CapGlobalDiscount: st.CapGlobalDiscount,
	})
	return &InvoiceResponse{
		Invoice:      *inv,
		Totals:       totals,
		VATBreakdown: vatBreakdown(inv, totals),
	}, nil
}

func (s *Service) create(ctx context.Context, inv Invoice, items []InvoiceItem) (*Invoice, error) {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		number, err := tx.GenerateNumber(ctx, inv.IssueDate)
		if err != nil {
			return err
		}
		inv.Number = number

		id, err := tx.Create(ctx, inv)
		if err != nil {
			return err
		}
		inv.ID = id
		for i := range items {
			items[i].InvoiceID = id
			itemID, err := tx.InsertItem(ctx, items[i])
			if err != nil {
				return err
			}
			items[i].ID = itemID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return &inv, nil
}

// Create builds a standalone draft invoice.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*InvoiceResponse, error) {
	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		return nil, fmt.Errorf("patient %d: %w", req.PatientID, err)
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv := Invoice{
		PatientID:       req.PatientID,
		Clinician:       req.Clinician,
		IssueDate:       now,
		FulfillmentDate: now,
		DueDate:         now.AddDate(0, 0, st.InvoiceDueDays),
		PaymentMethod:   PaymentMethod(req.PaymentMethod),
		Status:          StatusDraft,
		Currency:        st.HomeCurrency,
		Comment:         req.Comment,
	}
	if req.Currency != "" {
		inv.Currency = billing.Currency(req.Currency)
	}
	if req.FulfillmentDate != nil {
		inv.FulfillmentDate = *req.FulfillmentDate
	}
	if inv.GlobalDiscount, err = parseDiscount(req.GlobalDiscountType, req.GlobalDiscountValue); err != nil {
		return nil, err
	}

	items := make([]InvoiceItem, 0, len(req.Items))
	for i, ir := range req.Items {
		disc, err := parseDiscount(ir.DiscountType, ir.DiscountValue)
		if err != nil {
			return nil, err
		}
		items = append(items, InvoiceItem{
			Name:           ir.Name,
			Quantity:       ir.Quantity,
			UnitPriceGross: ir.UnitPriceGross,
			Discount:       disc,
			VATRatePercent: ir.VATRatePercent,
			TreatedArea:    ir.TreatedArea,
			ToothCode:      ir.ToothCode,
			LineOrder:      i + 1,
		})
	}

	created, err := s.create(ctx, inv, items)
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "invoice created",
		"invoice_id", created.ID, "number", created.Number, "patient_id", created.PatientID)
	return s.respond(ctx, created)
}

// CreateFromQuote snapshots an accepted quote's lines into a draft invoice.
func (s *Service) CreateFromQuote(ctx context.Context, req FromQuoteRequest) (*InvoiceResponse, error) {
	q, err := s.quotes.Get(ctx, req.QuoteID)
	if err != nil {
		return nil, fmt.Errorf("quote %d: %w", req.QuoteID, err)
	}
	if q.Status != quotes.StatusAccepted {
		return nil, fmt.Errorf("%w: only accepted quotes can be invoiced", httpx.ErrConflict)
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	quoteID := q.ID
	inv := Invoice{
		PatientID:       q.PatientID,
		QuoteID:         &quoteID,
		Clinician:       q.Clinician,
		IssueDate:       now,
		FulfillmentDate: now,
		DueDate:         now.AddDate(0, 0, st.InvoiceDueDays),
		PaymentMethod:   PaymentMethod(req.PaymentMethod),
		Status:          StatusDraft,
		Currency:        q.Currency,
		GlobalDiscount:  q.GlobalDiscount,
		Comment:         q.Comment,
	}

	items := make([]InvoiceItem, 0, len(q.Items))
	for i, qi := range q.Items {
		items = append(items, InvoiceItem{
			Name:           qi.Name,
			Quantity:       qi.Quantity,
			UnitPriceGross: qi.UnitPriceGross,
			Discount:       qi.Discount,
			VATRatePercent: qi.VATRatePercent,
			TreatedArea:    qi.TreatedArea,
			ToothCode:      qi.ToothCode,
			LineOrder:      i + 1,
		})
	}

	created, err := s.create(ctx, inv, items)
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "invoice created from quote",
		"invoice_id", created.ID, "number", created.Number, "quote", q.Number)
	return s.respond(ctx, created)
}

func (s *Service) Get(ctx context.Context, id int64) (*InvoiceResponse, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, inv)
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]InvoiceListRow, int, error) {
	return s.repo.List(ctx, req)
}

// Update edits a draft header. Items are fixed once the draft exists.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*InvoiceResponse, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only draft invoices can be edited", httpx.ErrConflict)
	}

	if req.Clinician != nil {
		inv.Clinician = *req.Clinician
	}
	if req.PaymentMethod != nil {
		inv.PaymentMethod = PaymentMethod(*req.PaymentMethod)
	}
	if req.FulfillmentDate != nil {
		inv.FulfillmentDate = *req.FulfillmentDate
	}
	if req.Comment != nil {
		inv.Comment = *req.Comment
	}
	if req.GlobalDiscountType != nil || req.GlobalDiscountValue != nil {
		typ := string(inv.GlobalDiscount.Type)
		value := inv.GlobalDiscount.Value
		if req.GlobalDiscountType != nil {
			typ = *req.GlobalDiscountType
		}
		if req.GlobalDiscountValue != nil {
			value = *req.GlobalDiscountValue
		}
		if inv.GlobalDiscount, err = parseDiscount(typ, value); err != nil {
			return nil, err
		}
	}

	if err := s.repo.UpdateHeader(ctx, id, *inv); err != nil {
		return nil, err
	}
	return s.respond(ctx, inv)
}

func (s *Service) transition(ctx context.Context, id int64, from []InvoiceStatus, to InvoiceStatus) (*InvoiceResponse, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, st := range from {
		if inv.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: cannot move %s invoice to %s", httpx.ErrConflict, inv.Status, to)
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}
	inv.Status = to
	s.log.InfoContext(ctx, "invoice status changed", "invoice_id", id, "number", inv.Number, "status", to)
	return s.respond(ctx, inv)
}

// Issue finalizes a draft. The issue date is stamped now and the due date is
// recomputed from the configured payment window.
func (s *Service) Issue(ctx context.Context, id int64) (*InvoiceResponse, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only draft invoices can be issued", httpx.ErrConflict)
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	inv.IssueDate = s.now()
	inv.DueDate = inv.IssueDate.AddDate(0, 0, st.InvoiceDueDays)
	if err := s.repo.UpdateHeader(ctx, id, *inv); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, []InvoiceStatus{StatusDraft}, StatusIssued)
}

func (s *Service) MarkPaid(ctx context.Context, id int64) (*InvoiceResponse, error) {
	return s.transition(ctx, id, []InvoiceStatus{StatusIssued}, StatusPaid)
}

func (s *Service) Void(ctx context.Context, id int64) (*InvoiceResponse, error) {
	return s.transition(ctx, id, []InvoiceStatus{StatusDraft, StatusIssued}, StatusVoid)
}

// RenderPDF produces the printable artifact and its download filename.
func (s *Service) RenderPDF(ctx context.Context, id int64) ([]byte, string, error) {
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	p, err := s.patients.Get(ctx, inv.PatientID)
	if err != nil {
		return nil, "", err
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, "", err
	}

	totals, _ := billing.Compute(billing.Input{
		Items:             inv.BillingItems(),
		GlobalDiscount:    inv.GlobalDiscount,
		Currency:          inv.Currency,
		CapGlobalDiscount: st.CapGlobalDiscount,
	})

	lines := make([]document.Line, 0, len(inv.Items))
	for i, it := range inv.Items {
		li := billing.LineItem{
			Quantity:       it.Quantity,
			UnitPriceGross: it.UnitPriceGross,
			Discount:       it.Discount,
		}
		lines = append(lines, document.Line{
			Index:          i + 1,
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPriceGross,
			GrossTotal:     li.GrossTotal(),
			DiscountAmount: li.DiscountAmount(inv.Currency),
			TreatedArea:    it.TreatedArea,
			ToothCode:      it.ToothCode,
		})
	}

	doc := document.InvoiceDocument{
		Clinic:          st.Clinic(),
		Payer:           payerPerson(p),
		Clinician:       inv.Clinician,
		Number:          inv.Number,
		IssueDate:       inv.IssueDate,
		FulfillmentDate: inv.FulfillmentDate,
		DueDate:         inv.DueDate,
		PaymentMethod:   paymentLabel(inv.PaymentMethod),
		Currency:        inv.Currency,
		Lines:           lines,
		Totals:          totals,
		VATBreakdown:    vatBreakdown(inv, totals),
		Comment:         inv.Comment,
		GeneratedAt:     inv.UpdatedAt.UTC(),
	}

	r := document.NewRenderer(document.NewFormatter(st.Locale, st.DateLayout), document.A4())
	pdf, err := r.RenderInvoice(doc)
	if err != nil {
		return nil, "", fmt.Errorf("render invoice %s: %w", inv.Number, err)
	}
	return pdf, document.InvoiceFilename(doc), nil
}

func paymentLabel(m PaymentMethod) string {
	switch m {
	case PaymentCash:
		return "Készpénz"
	case PaymentCard:
		return "Bankkártya"
	case PaymentTransfer:
		return "Átutalás"
	default:
		return string(m)
	}
}

func payerPerson(p patients.Patient) document.Person {
	person := document.Person{
		LastName:  p.LastName,
		FirstName: p.FirstName,
		BirthDate: p.BirthDate,
		Address:   p.Address,
		Phone:     p.Phone,
		Email:     p.Email,
	}
	if p.TAJ != nil {
		person.TAJ = *p.TAJ
	}
	return person
}
