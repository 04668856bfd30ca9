package settings

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/molaris/molaris/internal/platform/httpx"
)

type Repository interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, s Settings) (Settings, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const settingsColumns = `id, clinic_name, clinic_address, clinic_phone, clinic_email,
	tax_id, location, home_currency, alternate_currency, locale, date_layout,
	quote_validity_days, invoice_due_days, vat_rate_percent, quote_terms,
	cap_global_discount, neak_retention_days, updated_at`

func (r *repository) Get(ctx context.Context) (Settings, error) {
	query := `SELECT ` + settingsColumns + ` FROM clinic_settings ORDER BY id LIMIT 1`

	var s Settings
	err := r.db.QueryRow(ctx, query).Scan(
		&s.ID, &s.ClinicName, &s.ClinicAddress, &s.ClinicPhone, &s.ClinicEmail,
		&s.TaxID, &s.Location, &s.HomeCurrency, &s.AlternateCurrency, &s.Locale,
		&s.DateLayout, &s.QuoteValidityDays, &s.InvoiceDueDays, &s.VATRatePercent,
		&s.QuoteTerms, &s.CapGlobalDiscount, &s.NEAKRetentionDays, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, httpx.ErrNotFound
		}
		return Settings{}, err
	}
	return s, nil
}

func (r *repository) Update(ctx context.Context, s Settings) (Settings, error) {
	query := `UPDATE clinic_settings SET
		clinic_name = $1, clinic_address = $2, clinic_phone = $3, clinic_email = $4,
		tax_id = $5, location = $6, home_currency = $7, alternate_currency = $8,
		locale = $9, date_layout = $10, quote_validity_days = $11,
		invoice_due_days = $12, vat_rate_percent = $13, quote_terms = $14,
		cap_global_discount = $15, neak_retention_days = $16, updated_at = now()
		WHERE id = $17
		RETURNING ` + settingsColumns

	var out Settings
	err := r.db.QueryRow(ctx, query,
		s.ClinicName, s.ClinicAddress, s.ClinicPhone, s.ClinicEmail,
		s.TaxID, s.Location, s.HomeCurrency, s.AlternateCurrency,
		s.Locale, s.DateLayout, s.QuoteValidityDays,
		s.InvoiceDueDays, s.VATRatePercent, s.QuoteTerms,
		s.CapGlobalDiscount, s.NEAKRetentionDays, s.ID,
	).Scan(
		&out.ID, &out.ClinicName, &out.ClinicAddress, &out.ClinicPhone, &out.ClinicEmail,
		&out.TaxID, &out.Location, &out.HomeCurrency, &out.AlternateCurrency, &out.Locale,
		&out.DateLayout, &out.QuoteValidityDays, &out.InvoiceDueDays, &out.VATRatePercent,
		&out.QuoteTerms, &out.CapGlobalDiscount, &out.NEAKRetentionDays, &out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Settings{}, httpx.ErrNotFound
		}
		return Settings{}, err
	}
	return out, nil
}
