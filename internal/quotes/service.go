package quotes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/molaris/molaris/internal/billing"
	"github.com/molaris/molaris/internal/catalog"
	"github.com/molaris/molaris/internal/document"
	"github.com/molaris/molaris/internal/patients"
	"github.com/molaris/molaris/internal/platform/httpx"
	"github.com/molaris/molaris/internal/settings"
)

// PatientDirectory is what the quote service needs from the patients module.
type PatientDirectory interface {
	Get(ctx context.Context, id int64) (patients.Patient, error)
}

// ProcedureCatalog resolves catalog entries when quote items reference one.
type ProcedureCatalog interface {
	Get(ctx context.Context, id int64) (catalog.Procedure, error)
}

// SettingsProvider supplies the clinic configuration consumed during totals
// and rendering.
type SettingsProvider interface {
	Get(ctx context.Context) (settings.Settings, error)
}

type Service struct {
	repo     Repository
	patients PatientDirectory
	catalog  ProcedureCatalog
	settings SettingsProvider
	log      *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, pd PatientDirectory, pc ProcedureCatalog, sp SettingsProvider, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		patients: pd,
		catalog:  pc,
		settings: sp,
		log:      log.With("component", "quotes"),
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

// buildItems resolves item requests into persisted rows: catalog-backed
// items take the catalog's name, price and VAT rate unless the request
// overrides the price; free-form items must carry a name.
func (s *Service) buildItems(ctx context.Context, st settings.Settings, reqs []ItemRequest) ([]QuoteItem, error) {
	items := make([]QuoteItem, 0, len(reqs))
	for i, req := range reqs {
		item := QuoteItem{
			ProcedureID:      req.ProcedureID,
			Name:             req.Name,
			Quantity:         req.Quantity,
			TreatmentSession: req.TreatmentSession,
			TreatedArea:      req.TreatedArea,
			ToothCode:        req.ToothCode,
			VATRatePercent:   st.VATRatePercent,
			LineOrder:        i + 1,
		}

		disc, err := parseDiscount(req.DiscountType, req.DiscountValue)
		if err != nil {
			return nil, err
		}
		item.Discount = disc

		if req.ProcedureID != nil {
			proc, err := s.catalog.Get(ctx, *req.ProcedureID)
			if err != nil {
				return nil, fmt.Errorf("resolve procedure %d: %w", *req.ProcedureID, err)
			}
			if !proc.IsActive {
				return nil, fmt.Errorf("%w: procedure %d is inactive", httpx.ErrValidation, *req.ProcedureID)
			}
			if item.Name == "" {
				item.Name = proc.Name
			}
			item.UnitPriceGross = proc.PriceGross
			item.VATRatePercent = proc.VATRatePercent
		}
		if req.UnitPriceGross != nil {
			item.UnitPriceGross = *req.UnitPriceGross
		}
		if item.Name == "" {
			return nil, fmt.Errorf("%w: item %d needs a name or procedure reference", httpx.ErrValidation, i+1)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) respond(ctx context.Context, q *Quote) (*QuoteResponse, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	totals, sessions := billing.Compute(billing.Input{
		Items:             q.BillingItems(),
		GlobalDiscount:    q.GlobalDiscount,
		Currency:          q.Currency,
		CapGlobalDiscount: st.CapGlobalDiscount,
	})
	return &QuoteResponse{Quote: *q, Totals: totals, Sessions: sessions}, nil
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*QuoteResponse, error) {
	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		return nil, fmt.Errorf("patient %d: %w", req.PatientID, err)
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	q := Quote{
		PatientID: req.PatientID,
		Clinician: req.Clinician,
		Status:    StatusDraft,
		Currency:  st.HomeCurrency,
		Comment:   req.Comment,
	}
	if req.Currency != "" {
		q.Currency = billing.Currency(req.Currency)
	}
	q.QuoteDate = s.now()
	if req.QuoteDate != nil {
		q.QuoteDate = *req.QuoteDate
	}
	q.ValidUntil = q.QuoteDate.AddDate(0, 0, st.QuoteValidityDays)
	if req.ValidUntil != nil {
		q.ValidUntil = *req.ValidUntil
	}
	if q.GlobalDiscount, err = parseDiscount(req.GlobalDiscountType, req.GlobalDiscountValue); err != nil {
		return nil, err
	}

	items, err := s.buildItems(ctx, st, req.Items)
	if err != nil {
		return nil, err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		number, err := tx.GenerateNumber(ctx, q.QuoteDate)
		if err != nil {
			return err
		}
		q.Number = number

		id, err := tx.Create(ctx, q)
		if err != nil {
			return err
		}
		q.ID = id
		for i := range items {
			items[i].QuoteID = id
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
	q.Items = items

	s.log.InfoContext(ctx, "quote created",
		"quote_id", q.ID, "number", q.Number, "patient_id", q.PatientID, "items", len(items))
	return s.respond(ctx, &q)
}

func (s *Service) Get(ctx context.Context, id int64) (*QuoteResponse, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, q)
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]QuoteListRow, int, error) {
	return s.repo.List(ctx, req)
}

// Update replaces editable fields of a draft. Non-draft quotes are frozen.
func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (*QuoteResponse, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if q.Status != StatusDraft {
		return nil, fmt.Errorf("%w: only draft quotes can be edited", httpx.ErrConflict)
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	if req.Clinician != nil {
		q.Clinician = *req.Clinician
	}
	if req.ValidUntil != nil {
		q.ValidUntil = *req.ValidUntil
	}
	if req.Comment != nil {
		q.Comment = *req.Comment
	}
	if req.GlobalDiscountType != nil || req.GlobalDiscountValue != nil {
		typ := string(q.GlobalDiscount.Type)
		value := q.GlobalDiscount.Value
		if req.GlobalDiscountType != nil {
			typ = *req.GlobalDiscountType
		}
		if req.GlobalDiscountValue != nil {
			value = *req.GlobalDiscountValue
		}
		if q.GlobalDiscount, err = parseDiscount(typ, value); err != nil {
			return nil, err
		}
	}

	var items []QuoteItem
	if req.Items != nil {
		if items, err = s.buildItems(ctx, st, *req.Items); err != nil {
			return nil, err
		}
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx Repository) error {
		if err := tx.UpdateHeader(ctx, id, *q); err != nil {
			return err
		}
		if items == nil {
			return nil
		}
		if err := tx.DeleteItems(ctx, id); err != nil {
			return err
		}
		for i := range items {
			items[i].QuoteID = id
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
	if items != nil {
		q.Items = items
	}
	return s.respond(ctx, q)
}

func (s *Service) transition(ctx context.Context, id int64, from []QuoteStatus, to QuoteStatus) (*QuoteResponse, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, st := range from {
		if q.Status == st {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: cannot move %s quote to %s", httpx.ErrConflict, q.Status, to)
	}
	if err := s.repo.UpdateStatus(ctx, id, to); err != nil {
		return nil, err
	}
	q.Status = to
	s.log.InfoContext(ctx, "quote status changed", "quote_id", id, "number", q.Number, "status", to)
	return s.respond(ctx, q)
}

// Close freezes a draft for presentation to the patient.
func (s *Service) Close(ctx context.Context, id int64) (*QuoteResponse, error) {
	return s.transition(ctx, id, []QuoteStatus{StatusDraft}, StatusClosed)
}

func (s *Service) Accept(ctx context.Context, id int64) (*QuoteResponse, error) {
	return s.transition(ctx, id, []QuoteStatus{StatusClosed}, StatusAccepted)
}

func (s *Service) Decline(ctx context.Context, id int64) (*QuoteResponse, error) {
	return s.transition(ctx, id, []QuoteStatus{StatusClosed}, StatusDeclined)
}

// ExpireOverdue is invoked by the scheduler and marks quotes whose validity
// window has passed.
func (s *Service) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := s.repo.MarkExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.InfoContext(ctx, "quotes expired", "count", n)
	}
	return n, nil
}

// RenderPDF produces the printable artifact and its download filename.
// Repeated calls over an unchanged quote yield identical bytes.
func (s *Service) RenderPDF(ctx context.Context, id int64) ([]byte, string, error) {
	q, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	p, err := s.patients.Get(ctx, q.PatientID)
	if err != nil {
		return nil, "", err
	}
	st, err := s.settings.Get(ctx)
	if err != nil {
		return nil, "", err
	}

	totals, sessions := billing.Compute(billing.Input{
		Items:             q.BillingItems(),
		GlobalDiscount:    q.GlobalDiscount,
		Currency:          q.Currency,
		CapGlobalDiscount: st.CapGlobalDiscount,
	})

	lines := make([]document.Line, 0, len(q.Items))
	for i, it := range q.Items {
		li := billing.LineItem{
			Quantity:         it.Quantity,
			UnitPriceGross:   it.UnitPriceGross,
			Discount:         it.Discount,
			TreatmentSession: it.TreatmentSession,
		}
		lines = append(lines, document.Line{
			Index:          i + 1,
			Session:        li.Session(),
			Name:           it.Name,
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPriceGross,
			GrossTotal:     li.GrossTotal(),
			DiscountAmount: li.DiscountAmount(q.Currency),
			TreatedArea:    it.TreatedArea,
			ToothCode:      it.ToothCode,
		})
	}

	doc := document.QuoteDocument{
		Clinic:      st.Clinic(),
		Patient:     patientPerson(p),
		Clinician:   q.Clinician,
		Number:      q.Number,
		CreatedAt:   q.QuoteDate,
		ValidUntil:  q.ValidUntil,
		Currency:    q.Currency,
		Lines:       lines,
		Totals:      totals,
		Sessions:    sessions,
		Comment:     q.Comment,
		Terms:       st.QuoteTerms,
		GeneratedAt: q.UpdatedAt.UTC(),
	}

	r := document.NewRenderer(document.NewFormatter(st.Locale, st.DateLayout), document.A4())
	pdf, err := r.RenderQuote(doc)
	if err != nil {
		return nil, "", fmt.Errorf("render quote %s: %w", q.Number, err)
	}
	return pdf, document.QuoteFilename(doc), nil
}

func patientPerson(p patients.Patient) document.Person {
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
