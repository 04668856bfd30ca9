package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/molaris/molaris/internal/billing"
	"github.com/molaris/molaris/internal/platform/httpx"
	"github.com/molaris/molaris/internal/shared"
)

var csvHeader = []string{"code", "name", "unit_type", "price_gross", "currency", "vat_rate_percent", "is_active"}

// ExportCSV writes the catalog in the import format, one procedure per row.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	items, _, err := s.repo.List(ctx, shared.ListFilters{Limit: 10000})
	if err != nil {
		return fmt.Errorf("export catalog: %w", err)
	}

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for _, p := range items {
		record := []string{
			p.Code,
			p.Name,
			string(p.UnitType),
			strconv.FormatFloat(p.PriceGross, 'f', -1, 64),
			string(p.Currency),
			strconv.FormatFloat(p.VATRatePercent, 'f', -1, 64),
			strconv.FormatBool(p.IsActive),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// RowError describes a rejected import row; the rest of the file still runs.
type RowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// ImportResult summarises an import run.
type ImportResult struct {
	Created int        `json:"created"`
	Updated int        `json:"updated"`
	Errors  []RowError `json:"errors,omitempty"`
}

// ImportCSV upserts procedures by code from the export format. Malformed
// rows are reported per row without aborting the whole file, so an
// export/import round-trip is stable.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(csvHeader)

	header, err := reader.Read()
	if err != nil {
		return ImportResult{}, fmt.Errorf("read csv header: %w", err)
	}
	for i, col := range csvHeader {
		if i >= len(header) || header[i] != col {
			return ImportResult{}, fmt.Errorf("unexpected csv header, want %v", csvHeader)
		}
	}

	var result ImportResult
	for row := 2; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Message: err.Error()})
			continue
		}

		p, err := parseCSVRecord(record)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Message: err.Error()})
			continue
		}

		created, err := s.upsertByCode(ctx, p)
		if err != nil {
			result.Errors = append(result.Errors, RowError{Row: row, Message: err.Error()})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}
	return result, nil
}

func parseCSVRecord(record []string) (Procedure, error) {
	p := Procedure{
		Code:     record[0],
		Name:     record[1],
		UnitType: UnitType(record[2]),
		Currency: billing.Currency(record[4]),
	}
	if p.Code == "" {
		return Procedure{}, errors.New("empty code")
	}
	if p.Name == "" {
		return Procedure{}, errors.New("empty name")
	}
	if !ValidUnitType(p.UnitType) {
		return Procedure{}, fmt.Errorf("unknown unit type %q", record[2])
	}
	if p.Currency != billing.CurrencyHUF && p.Currency != billing.CurrencyEUR {
		return Procedure{}, fmt.Errorf("unknown currency %q", record[4])
	}

	price, err := strconv.ParseFloat(record[3], 64)
	if err != nil || price < 0 {
		return Procedure{}, fmt.Errorf("invalid price %q", record[3])
	}
	p.PriceGross = price

	vat, err := strconv.ParseFloat(record[5], 64)
	if err != nil || vat < 0 || vat > 100 {
		return Procedure{}, fmt.Errorf("invalid vat rate %q", record[5])
	}
	p.VATRatePercent = vat

	active, err := strconv.ParseBool(record[6])
	if err != nil {
		return Procedure{}, fmt.Errorf("invalid is_active %q", record[6])
	}
	p.IsActive = active

	return p, nil
}

func (s *Service) upsertByCode(ctx context.Context, p Procedure) (created bool, err error) {
	existing, err := s.repo.GetByCode(ctx, p.Code)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			_, err = s.repo.Create(ctx, p)
			return true, err
		}
		return false, err
	}

	existing.Name = p.Name
	existing.UnitType = p.UnitType
	existing.PriceGross = p.PriceGross
	existing.Currency = p.Currency
	existing.VATRatePercent = p.VATRatePercent
	existing.IsActive = p.IsActive
	_, err = s.repo.Update(ctx, existing.ID, existing)
	return false, err
}
