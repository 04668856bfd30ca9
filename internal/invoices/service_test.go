package invoices

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
	"github.com/molaris/molaris/internal/patients"
	"github.com/molaris/molaris/internal/platform/httpx"
	"github.com/molaris/molaris/internal/quotes"
	"github.com/molaris/molaris/internal/settings"
)

type mockRepository struct {
	invoices map[int64]*Invoice
	nextID   int64
	seq      map[int]int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{invoices: make(map[int64]*Invoice), nextID: 1, seq: make(map[int]int64)}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) Get(_ context.Context, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	cp := *inv
	cp.Items = append([]InvoiceItem(nil), inv.Items...)
	return &cp, nil
}

func (m *mockRepository) List(_ context.Context, req ListRequest) ([]InvoiceListRow, int, error) {
	var out []InvoiceListRow
	for _, inv := range m.invoices {
		if req.Status != nil && inv.Status != *req.Status {
			continue
		}
		out = append(out, InvoiceListRow{Invoice: *inv, PatientName: "Teszt Elek"})
	}
	return out, len(out), nil
}

func (m *mockRepository) Create(_ context.Context, inv Invoice) (int64, error) {
	id := m.nextID
	m.nextID++
	inv.ID = id
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	m.invoices[id] = &inv
	return id, nil
}

func (m *mockRepository) UpdateHeader(_ context.Context, id int64, inv Invoice) error {
	stored, ok := m.invoices[id]
	if !ok {
		return httpx.ErrNotFound
	}
	stored.Clinician = inv.Clinician
	stored.PaymentMethod = inv.PaymentMethod
	stored.IssueDate = inv.IssueDate
	stored.FulfillmentDate = inv.FulfillmentDate
	stored.DueDate = inv.DueDate
	stored.GlobalDiscount = inv.GlobalDiscount
	stored.Comment = inv.Comment
	return nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id int64, status InvoiceStatus) error {
	stored, ok := m.invoices[id]
	if !ok {
		return httpx.ErrNotFound
	}
	stored.Status = status
	return nil
}

func (m *mockRepository) InsertItem(_ context.Context, item InvoiceItem) (int64, error) {
	stored, ok := m.invoices[item.InvoiceID]
	if !ok {
		return 0, httpx.ErrNotFound
	}
	item.ID = int64(len(stored.Items) + 1)
	stored.Items = append(stored.Items, item)
	return item.ID, nil
}

func (m *mockRepository) GenerateNumber(_ context.Context, date time.Time) (string, error) {
	m.seq[date.Year()]++
	return fmt.Sprintf("INV-%d-%04d", date.Year(), m.seq[date.Year()]), nil
}

type mockPatients struct{ byID map[int64]patients.Patient }

func (m *mockPatients) Get(_ context.Context, id int64) (patients.Patient, error) {
	p, ok := m.byID[id]
	if !ok {
		return patients.Patient{}, httpx.ErrNotFound
	}
	return p, nil
}

type mockQuotes struct{ byID map[int64]*quotes.QuoteResponse }

func (m *mockQuotes) Get(_ context.Context, id int64) (*quotes.QuoteResponse, error) {
	q, ok := m.byID[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return q, nil
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
		Locale:            "hu",
		DateLayout:        "2006.01.02.",
		InvoiceDueDays:    8,
		VATRatePercent:    27,
		CapGlobalDiscount: true,
	}
}

func acceptedQuote() *quotes.QuoteResponse {
	return &quotes.QuoteResponse{
		Quote: quotes.Quote{
			ID:        11,
			Number:    "Q-2026-0005",
			PatientID: 7,
			Clinician: "Dr. Vágó Péter",
			Status:    quotes.StatusAccepted,
			Currency:  billing.CurrencyHUF,
			Items: []quotes.QuoteItem{
				{Name: "Implantátum", Quantity: 1, UnitPriceGross: 250000, VATRatePercent: 5, LineOrder: 1},
				{Name: "Szájhigiéniai kezelés", Quantity: 1, UnitPriceGross: 18000, VATRatePercent: 27, LineOrder: 2},
			},
		},
	}
}

func newTestService() (*Service, *mockRepository, *mockQuotes) {
	repo := newMockRepository()
	qs := &mockQuotes{byID: map[int64]*quotes.QuoteResponse{11: acceptedQuote()}}
	svc := NewService(repo,
		&mockPatients{byID: map[int64]patients.Patient{
			7: {ID: 7, LastName: "Kovács", FirstName: "Anna"},
		}},
		qs,
		&mockSettings{st: testSettings()},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2026, 3, 12, 10, 0, 0, 0, time.UTC) }
	return svc, repo, qs
}

func TestCreateFromQuoteSnapshotsLines(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.CreateFromQuote(context.Background(), FromQuoteRequest{
		QuoteID: 11, PaymentMethod: "CARD",
	})
	require.NoError(t, err)

	assert.Equal(t, "INV-2026-0001", resp.Number)
	assert.Equal(t, StatusDraft, resp.Status)
	require.NotNil(t, resp.QuoteID)
	assert.Equal(t, int64(11), *resp.QuoteID)
	assert.Equal(t, time.Date(2026, 3, 20, 10, 0, 0, 0, time.UTC), resp.DueDate)

	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Implantátum", resp.Items[0].Name)
	assert.Equal(t, 268000.0, resp.Totals.Total)
}

func TestCreateFromQuoteRequiresAccepted(t *testing.T) {
	svc, _, qs := newTestService()
	qs.byID[11].Status = quotes.StatusClosed

	_, err := svc.CreateFromQuote(context.Background(), FromQuoteRequest{
		QuoteID: 11, PaymentMethod: "CASH",
	})
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestVATBreakdownPerRate(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.CreateFromQuote(context.Background(), FromQuoteRequest{
		QuoteID: 11, PaymentMethod: "TRANSFER",
	})
	require.NoError(t, err)

	require.Len(t, resp.VATBreakdown, 2)

	low := resp.VATBreakdown[0]
	assert.Equal(t, 5.0, low.Rate)
	assert.Equal(t, 250000.0, low.Gross)
	assert.Equal(t, 238095.0, low.Net)
	assert.Equal(t, 11905.0, low.VAT)

	high := resp.VATBreakdown[1]
	assert.Equal(t, 27.0, high.Rate)
	assert.Equal(t, 18000.0, high.Gross)
	assert.Equal(t, 14173.0, high.Net)
	assert.Equal(t, 3827.0, high.VAT)
}

func TestVATBreakdownAllocatesGlobalDiscount(t *testing.T) {
	svc, _, qs := newTestService()
	qs.byID[11].GlobalDiscount = billing.Discount{Type: billing.DiscountAbsolute, Value: 26800}

	resp, err := svc.CreateFromQuote(context.Background(), FromQuoteRequest{
		QuoteID: 11, PaymentMethod: "CASH",
	})
	require.NoError(t, err)

	// 26800 split 250000:18000 across the two rate groups
	require.Len(t, resp.VATBreakdown, 2)
	assert.Equal(t, 225000.0, resp.VATBreakdown[0].Gross)
	assert.Equal(t, 16200.0, resp.VATBreakdown[1].Gross)

	var gross float64
	for _, line := range resp.VATBreakdown {
		gross += line.Gross
	}
	assert.Equal(t, resp.Totals.Total, gross)
}

func TestVATBreakdownReconcilesOnUnevenSplit(t *testing.T) {
	svc, _, _ := newTestService()

	// Three equal rate groups and a discount of 100: the proportional
	// shares each round to 33, so the residue forint must land in the
	// last group for the table to match the grand total.
	resp, err := svc.Create(context.Background(), CreateRequest{
		PatientID:           7,
		Clinician:           "Dr. Vágó Péter",
		PaymentMethod:       "CASH",
		GlobalDiscountType:  "ABSOLUTE",
		GlobalDiscountValue: 100,
		Items: []ItemRequest{
			{Name: "Konzultáció", Quantity: 1, UnitPriceGross: 10000, VATRatePercent: 5},
			{Name: "Röntgen", Quantity: 1, UnitPriceGross: 10000, VATRatePercent: 18},
			{Name: "Tömés", Quantity: 1, UnitPriceGross: 10000, VATRatePercent: 27},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 29900.0, resp.Totals.Total)

	require.Len(t, resp.VATBreakdown, 3)
	assert.Equal(t, 9967.0, resp.VATBreakdown[0].Gross)
	assert.Equal(t, 9967.0, resp.VATBreakdown[1].Gross)
	assert.Equal(t, 9966.0, resp.VATBreakdown[2].Gross)

	var gross float64
	for _, line := range resp.VATBreakdown {
		gross += line.Gross
	}
	assert.Equal(t, resp.Totals.Total, gross)
}

func TestStandaloneCreate(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.Create(context.Background(), CreateRequest{
		PatientID:     7,
		Clinician:     "Dr. Vágó Péter",
		PaymentMethod: "CASH",
		Items: []ItemRequest{
			{Name: "Konzultáció", Quantity: 1, UnitPriceGross: 10000, VATRatePercent: 27},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "INV-2026-0001", resp.Number)
	assert.Equal(t, 10000.0, resp.Totals.Total)
	assert.Equal(t, billing.CurrencyHUF, resp.Currency)
}

func TestIssuedInvoiceImmutable(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.CreateFromQuote(context.Background(), FromQuoteRequest{
		QuoteID: 11, PaymentMethod: "CARD",
	})
	require.NoError(t, err)

	issued, err := svc.Issue(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, issued.Status)

	comment := "utólagos módosítás"
	_, err = svc.Update(context.Background(), resp.ID, UpdateRequest{Comment: &comment})
	require.ErrorIs(t, err, httpx.ErrConflict)

	_, err = svc.Issue(context.Background(), resp.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestPaymentLifecycle(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.CreateFromQuote(context.Background(), FromQuoteRequest{
		QuoteID: 11, PaymentMethod: "TRANSFER",
	})
	require.NoError(t, err)

	// drafts cannot be paid
	_, err = svc.MarkPaid(context.Background(), resp.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)

	_, err = svc.Issue(context.Background(), resp.ID)
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)

	_, err = svc.Void(context.Background(), resp.ID)
	require.ErrorIs(t, err, httpx.ErrConflict)
}

func TestRenderPDF(t *testing.T) {
	svc, _, _ := newTestService()

	resp, err := svc.CreateFromQuote(context.Background(), FromQuoteRequest{
		QuoteID: 11, PaymentMethod: "CARD",
	})
	require.NoError(t, err)

	first, name, err := svc.RenderPDF(context.Background(), resp.ID)
	require.NoError(t, err)
	second, _, err := svc.RenderPDF(context.Background(), resp.ID)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "szamla_INV-2026-0001_Kovacs_Anna.pdf", name)
	assert.Equal(t, "%PDF", string(first[:4]))
}
