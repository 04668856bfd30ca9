package catalog

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/molaris/molaris/internal/billing"
	"github.com/molaris/molaris/internal/platform/httpx"
	"github.com/molaris/molaris/internal/shared"
)

type mockRepository struct {
	byID    map[int64]Procedure
	byCode  map[string]int64
	nextID  int64
	created time.Time
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		byID:    make(map[int64]Procedure),
		byCode:  make(map[string]int64),
		nextID:  1,
		created: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *mockRepository) List(_ context.Context, filters shared.ListFilters) ([]Procedure, int, error) {
	var items []Procedure
	for id := int64(1); id < m.nextID; id++ {
		if p, ok := m.byID[id]; ok {
			items = append(items, p)
		}
	}
	return items, len(items), nil
}

func (m *mockRepository) Get(_ context.Context, id int64) (Procedure, error) {
	p, ok := m.byID[id]
	if !ok {
		return Procedure{}, httpx.ErrNotFound
	}
	return p, nil
}

func (m *mockRepository) GetByCode(_ context.Context, code string) (Procedure, error) {
	id, ok := m.byCode[code]
	if !ok {
		return Procedure{}, httpx.ErrNotFound
	}
	return m.byID[id], nil
}

func (m *mockRepository) Create(_ context.Context, p Procedure) (Procedure, error) {
	if _, exists := m.byCode[p.Code]; exists {
		return Procedure{}, httpx.ErrDuplicate
	}
	p.ID = m.nextID
	p.CreatedAt = m.created
	p.UpdatedAt = m.created
	m.nextID++
	m.byID[p.ID] = p
	m.byCode[p.Code] = p.ID
	return p, nil
}

func (m *mockRepository) Update(_ context.Context, id int64, p Procedure) (Procedure, error) {
	existing, ok := m.byID[id]
	if !ok {
		return Procedure{}, httpx.ErrNotFound
	}
	p.ID = id
	p.Code = existing.Code
	p.CreatedAt = existing.CreatedAt
	m.byID[id] = p
	return p, nil
}

func (m *mockRepository) Deactivate(_ context.Context, id int64) error {
	p, ok := m.byID[id]
	if !ok {
		return httpx.ErrNotFound
	}
	p.IsActive = false
	m.byID[id] = p
	return nil
}

func seedService(t *testing.T) (*Service, *mockRepository) {
	t.Helper()
	repo := newMockRepository()
	svc := NewService(repo)

	for _, req := range []CreateRequest{
		{Code: "D001", Name: "Fogkő-eltávolítás", UnitType: "MOUTH", PriceGross: 18000, Currency: "HUF", VATRatePercent: 5},
		{Code: "D102", Name: "Esztétikus tömés", UnitType: "TOOTH", PriceGross: 24000, Currency: "HUF", VATRatePercent: 5},
		{Code: "D404", Name: "Implantátum felépítmény", UnitType: "TOOTH", PriceGross: 320, Currency: "EUR", VATRatePercent: 5},
	} {
		_, err := svc.Create(context.Background(), req)
		require.NoError(t, err)
	}
	return svc, repo
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, repo := seedService(t)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf))
	exported := buf.String()
	assert.True(t, strings.HasPrefix(exported, "code,name,unit_type,price_gross,currency,vat_rate_percent,is_active\n"))

	// Importing the export back is an identity operation on the catalog.
	result, err := svc.ImportCSV(context.Background(), strings.NewReader(exported))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 3, result.Updated)
	assert.Empty(t, result.Errors)

	var again bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &again))
	assert.Equal(t, exported, again.String())

	items, _, err := repo.List(context.Background(), shared.ListFilters{Limit: 100})
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestImportCreatesAndReportsRowErrors(t *testing.T) {
	svc, _ := seedService(t)

	payload := strings.Join([]string{
		"code,name,unit_type,price_gross,currency,vat_rate_percent,is_active",
		"D900,Gyökérkezelés,TOOTH,45000,HUF,5,true",
		"D901,,TOOTH,45000,HUF,5,true",            // empty name
		"D902,Hídpótlás,BRIDGE,120000,HUF,5,true", // bad unit type
		"D903,Fogfehérítés,ARCH,-5,HUF,5,true",    // negative price
		"D001,Fogkő-eltávolítás,MOUTH,19500,HUF,5,true",
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(payload))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	require.Len(t, result.Errors, 3)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, 4, result.Errors[1].Row)
	assert.Equal(t, 5, result.Errors[2].Row)

	updated, err := svc.repo.GetByCode(context.Background(), "D001")
	require.NoError(t, err)
	assert.Equal(t, 19500.0, updated.PriceGross)
	assert.Equal(t, billing.CurrencyHUF, updated.Currency)
}

func TestImportRejectsUnknownHeader(t *testing.T) {
	svc, _ := seedService(t)

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("id,name\n1,x"))
	require.Error(t, err)
}
