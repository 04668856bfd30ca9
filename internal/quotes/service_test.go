package quotes

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molaris/molaris/internal/billing"
	"github.com/molaris/molaris/internal/catalog"
	"github.com/molaris/molaris/internal/patients"
	"github.com/molaris/molaris/internal/platform/httpx"
	"github.com/molaris/molaris/internal/settings"
)

type mockRepository struct {
	quotes map[int64]*Quote
	nextID int64
	seq    map[int]int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{quotes: make(map[int64]*Quote), nextID: 1, seq: make(map[int]int64)}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Quote, error) {
	q, ok := m.quotes[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	cp := *q
	cp.Items = append([]QuoteItem(nil), q.Items...)
	return &cp, nil
}

func (m *mockRepository) List(_ context.Context, req ListRequest) ([]QuoteListRow, int, error) {
	var out []QuoteListRow
	for _, q := range m.quotes {
		if req.Status != nil && q.Status != *req.Status {
			continue
		}
		out = append(out, QuoteListRow{Quote: *q, PatientName: "Teszt Elek"})
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(_ context.Context, q Quote) (int64, error) {
	id := m.nextID
	m.nextID++
	q.ID = id
	q.CreatedAt = time.Now()
	q.UpdatedAt = q.CreatedAt
	m.quotes[id] = &q
	return id, nil
}

func (m *mockRepository) UpdateHeader(_ context.Context, id int64, q Quote) error {
	stored, ok := m.quotes[id]
	if !ok {
		return httpx.ErrNotFound
	}
	stored.Clinician = q.Clinician
	stored.ValidUntil = q.ValidUntil
	stored.GlobalDiscount = q.GlobalDiscount
	stored.Comment = q.Comment
	return nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id int64, status QuoteStatus) error {
	stored, ok := m.quotes[id]
	if !ok {
		return httpx.ErrNotFound
	}
	stored.Status = status
	return nil
}

func (m *mockRepository) InsertItem(_ context.Context, item QuoteItem) (int64, error) {
	stored, ok := m.quotes[item.QuoteID]
	if !ok {
		return 0, httpx.ErrNotFound
	}
	item.ID = int64(len(stored.Items) + 1)
	stored.Items = append(stored.Items, item)
	return item.ID, nil
}

func (m *mockRepository) DeleteItems(_ context.Context, quoteID int64) error {
	if stored, ok := m.quotes[quoteID]; ok {
		stored.Items = nil
	}
	return nil
}

func (m *mockRepository) GenerateNumber(_ context.Context, date time.Time) (string, error) {
	m.seq[date.Year()]++
	return fmt.Sprintf("Q-%d-%04d", date.Year(), m.seq[date.Year()]), nil
}

func (m *mockRepository) MarkExpired(_ context.Context, asOf time.Time) (int64, error) {
	var n int64
	for _, q := range m.quotes {
		if (q.Status == StatusDraft || q.Status == StatusClosed) && q.ValidUntil.Before(asOf) {
			q.Status = StatusExpired
			n++
		}
	}
	return n, nil
}

type mockPatients struct{ byID map[int64]patients.Patient }

func (m *mockPatients) Get(_ context.Context, id int64) (patients.Patient, error) {
	p, ok := m.byID[id]
	if !ok {
		return patients.Patient{}, httpx.ErrNotFound
	}
	return p, nil
}

type mockCatalog struct{ byID map[int64]catalog.Procedure }

func (m *mockCatalog) Get(_ context.Context, id int64) (catalog.Procedure, error) {
	p, ok := m.byID[id]
	if !ok {
		return catalog.Procedure{}, httpx.ErrNotFound
	}
	return p, nil
}

type mockSettings struct{ st settings.Settings }

func (m *mockSettings) Get(_ context.Context) (settings.Settings, error) {
	return m.st, nil
}

func testSettings() settings.Settings {
	return settings.Settings{
		ClinicName:        "Molaris Fogászat",
		Location:          "Budapest",
		HomeCurrency:      billing.CurrencyHUF,
		AlternateCurrency: billing.CurrencyEUR,
		Locale:            "hu",
		DateLayout:        "2006.01.02.",
		QuoteValidityDays: 30,
		VATRatePercent:    27,
		QuoteTerms:        "A garancia a szájhigiénia fenntartásához kötött.",
		CapGlobalDiscount: true,
	}
}

func newTestService() (*Service, *mockRepository) {
	repo := newMockRepository()
	svc := NewService(repo,
		&mockPatients{byID: map[int64]patients.Patient{
			7: {ID: 7, LastName: "Kovács", FirstName: "Anna"},
		}},
		&mockCatalog{byID: map[int64]catalog.Procedure{
			1: {ID: 1, Code: "IMP-01", Name: "Implantátum", PriceGross: 250000,
				Currency: billing.CurrencyHUF, VATRatePercent: 5, IsActive: true},
			2: {ID: 2, Code: "OLD-99", Name: "Kivezetett kezelés", IsActive: false},
		}},
		&mockSettings{st: testSettings()},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }
	return svc, repo
}

func procID(id int64) *int64 { return &id }

func TestCreateDenormalizesCatalogData(t *testing.T) {
	svc, _ := newTestService()

	resp, err := svc.Create(context.Background(), CreateRequest{
		PatientID: 7,
		Clinician: "Dr. Vágó Péter",
		Items: []ItemRequest{
			{ProcedureID: procID(1), Quantity: 2, TreatmentSession: 1},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "Q-2026-0001", resp.Number)
	assert.Equal(t, StatusDraft, resp.Status)
	assert.Equal(t, billing.CurrencyHUF, resp.Currency)
	assert.Equal(t, time.Date(2026, 4, 9, 9, 0, 0, 0, time.UTC), resp.ValidUntil)

	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Implantátum", resp.Items[0].Name)
	assert.Equal(t, 250000.0, resp.Items[0].UnitPriceGross)
	assert.Equal(t, 5.0, resp.Items[0].VATRatePercent)
	assert.Equal(t, 500000.0, resp.Totals.Total)
}

func TestCreateSequenceAdvancesPerQuote(t *testing.T) {
	svc, _ := newTestService()

	req := CreateRequest{
		PatientID: 7,
		Clinician: "Dr. Vágó Péter",
		Items:     []ItemRequest{{Name: "Konzultáció", Quantity: 1, UnitPriceGross: float64Ptr(10000)}},
	}
	first, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "Q-2026-0001", first.Number)
	assert.Equal(t, "Q-2026-0002", second.Number)
}

func float64Ptr(v float64) *float64 { return &v }

func TestCreateRejectsInactiveProcedure(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateRequest{
		PatientID: 7,
		Clinician: "Dr. Vágó Péter",
		Items:     []ItemRequest{{ProcedureID: procID(2), Quantity: 1}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestCreateRejectsUnknownPatient(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateRequest{
		PatientID: 99,
		Clinician: "Dr. Vágó Péter",
		Items:     []ItemRequest{{Name: "Konzultáció", Quantity: 1, UnitPriceGross: float64Ptr(10000)}},
	})
	require.ErrorIs(t, err, httpx.ErrNotFound)
}

func TestCreateRejectsPercentAboveHundred(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateRequest{
		PatientID:           7,
		Clinician:           "Dr. Vágó Péter",
		GlobalDiscountType:  "PERCENT",
		GlobalDiscountValue: 120,
		Items:               []ItemRequest{{Name: "Konzultáció", Quantity: 1, UnitPriceGross: float64Ptr(10000)}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestTotalsMatchWorkedExample(t *testing.T) {
	svc, _ := newTestService()

	resp, err := svc.Create(context.Background(), CreateRequest{
		PatientID: 7,
		Clinician: "Dr. Vágó Péter",
		Items: []ItemRequest{
			{Name: "Tömés", Quantity: 2, UnitPriceGross: float64Ptr(10000),
				DiscountType: "PERCENT", DiscountValue: 10, TreatmentSession: 1},
			{Name: "Röntgen", Quantity: 1, UnitPriceGross: float64Ptr(5000), TreatmentSession: 2},
		},
		GlobalDiscountType:  "ABSOLUTE",
		GlobalDiscountValue: 500,
	})
	require.NoError(t, err)

	assert.Equal(t, 25000.0, resp.Totals.Subtotal)
	assert.Equal(t, 2000.0, resp.Totals.LineDiscounts)
	assert.Equal(t, 500.0, resp.Totals.GlobalDiscount)
	assert.Equal(t, 22500.0, resp.Totals.Total)

	require.Len(t, resp.Sessions, 2)
	assert.Equal(t, billing.SessionTotal{Session: 1, Amount: 20000}, resp.Sessions[0])
	assert.Equal(t, billing.SessionTotal{Session: 2, Amount: 5000}, resp.Sessions[1])
}

func TestUpdateOnlyDraft(t *testing.T) {
	svc, repo := newTestService()

	resp, err := svc.Create(context.Background(), CreateRequest{
		PatientID: 7,
		Clinician: "Dr. Vágó Péter",
		Items:     []ItemRequest{{Name: "Konzultáció", Quantity: 1, UnitPriceGross: float64Ptr(10000)}},
	})
	require.NoError(t, err)

	comment := "Módosított megjegyzés"
	updated, err := svc.Update(context.Background(), resp.ID, UpdateRequest{Comment: &comment})
	require.NoError(t, err)
	assert.Equal(t, comment, updated.Comment)

	repo.quotes[resp.ID].Status = StatusClosed
	_, err = svc.Update(context.Background(), resp.ID, UpdateRequest{Comment: &comment})
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestUpdateReplacesItems(t *testing.T) {
	svc, _ := newTestService()

	resp, err := svc.Create(context.Background(), CreateRequest{
		PatientID: 7,
		Clinician: "Dr. Vágó Péter",
		Items:     []ItemRequest{{Name: "Konzultáció", Quantity: 1, UnitPriceGross: float64Ptr(10000)}},
	})
	require.NoError(t, err)

	items := []ItemRequest{
		{ProcedureID: procID(1), Quantity: 1, TreatmentSession: 1},
		{Name: "Konzultáció", Quantity: 1, UnitPriceGross: float64Ptr(10000), TreatmentSession: 1},
	}
	updated, err := svc.Update(context.Background(), resp.ID, UpdateRequest{Items: &items})
	require.NoError(t, err)

	require.Len(t, updated.Items, 2)
	assert.Equal(t, "Implantátum", updated.Items[0].Name)
	assert.Equal(t, 260000.0, updated.Totals.Total)
}

func TestStatusTransitions(t *testing.T) {
	svc, _ := newTestService()

	resp, err := svc.Create(context.Background(), CreateRequest{
		PatientID: 7,
		Clinician: "Dr. Vágó Péter",
		Items:     []ItemRequest{{Name: "Konzultáció", Quantity: 1, UnitPriceGross: float64Ptr(10000)}},
	})
	require.NoError(t, err)

	// accepting a draft skips the mandatory close step
	_, err = svc.Accept(context.Background(), resp.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)

	closed, err := svc.Close(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusClosed, closed.Status)

	_, err = svc.Close(context.Background(), resp.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)

	accepted, err := svc.Accept(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, accepted.Status)

	_, err = svc.Decline(context.Background(), resp.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestExpireOverdue(t *testing.T) {
	svc, repo := newTestService()

	resp, err := svc.Create(context.Background(), CreateRequest{
		PatientID: 7,
		Clinician: "Dr. Vágó Péter",
		Items:     []ItemRequest{{Name: "Konzultáció", Quantity: 1, UnitPriceGross: float64Ptr(10000)}},
	})
	require.NoError(t, err)
	repo.quotes[resp.ID].ValidUntil = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	n, err := svc.ExpireOverdue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := svc.Get(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, got.Status)
}

func TestRenderPDFIsDeterministic(t *testing.T) {
	svc, _ := newTestService()

	resp, err := svc.Create(context.Background(), CreateRequest{
		PatientID: 7,
		Clinician: "Dr. Vágó Péter",
		Items: []ItemRequest{
			{ProcedureID: procID(1), Quantity: 1, TreatmentSession: 1},
			{Name: "Szájhigiéniai kezelés", Quantity: 1, UnitPriceGross: float64Ptr(18000), TreatmentSession: 2},
		},
	})
	require.NoError(t, err)

	first, name, err := svc.RenderPDF(context.Background(), resp.ID)
	require.NoError(t, err)
	second, _, err := svc.RenderPDF(context.Background(), resp.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "arajanlat_Q-2026-0001_Kovacs_Anna.pdf", name)
	assert.Equal(t, "%PDF", string(first[:4]))
}
