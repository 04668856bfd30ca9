package quotes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/molaris/molaris/internal/platform/db"
	"github.com/molaris/molaris/internal/platform/httpx"
)

type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Get(ctx context.Context, id int64) (*Quote, error)
	List(ctx context.Context, req ListRequest) ([]QuoteListRow, int, error)
	Create(ctx context.Context, q Quote) (int64, error)
	UpdateHeader(ctx context.Context, id int64, q Quote) error
	UpdateStatus(ctx context.Context, id int64, status QuoteStatus) error
	InsertItem(ctx context.Context, item QuoteItem) (int64, error)
	DeleteItems(ctx context.Context, quoteID int64) error
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
	MarkExpired(ctx context.Context, asOf time.Time) (int64, error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const quoteColumns = `id, number, patient_id, clinician, quote_date, valid_until,
	status, currency, global_discount_type, global_discount_value, comment,
	created_at, updated_at`

func scanQuote(row pgx.Row) (Quote, error) {
	var q Quote
	err := row.Scan(&q.ID, &q.Number, &q.PatientID, &q.Clinician, &q.QuoteDate,
		&q.ValidUntil, &q.Status, &q.Currency, &q.GlobalDiscount.Type,
		&q.GlobalDiscount.Value, &q.Comment, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Quote{}, httpx.ErrNotFound
		}
		return Quote{}, err
	}
	return q, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Quote, error) {
	q, err := scanQuote(r.db.QueryRow(ctx,
		`SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, quote_id, procedure_id, name, quantity,
		unit_price_gross, discount_type, discount_value, treatment_session,
		treated_area, tooth_code, vat_rate_percent, line_order
		FROM quote_items WHERE quote_id = $1 ORDER BY line_order`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it QuoteItem
		if err := rows.Scan(&it.ID, &it.QuoteID, &it.ProcedureID, &it.Name,
			&it.Quantity, &it.UnitPriceGross, &it.Discount.Type, &it.Discount.Value,
			&it.TreatmentSession, &it.TreatedArea, &it.ToothCode,
			&it.VATRatePercent, &it.LineOrder); err != nil {
			return nil, err
		}
		q.Items = append(q.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]QuoteListRow, int, error) {
	conditions := ` WHERE 1=1`
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if req.PatientID != nil {
		conditions += ` AND q.patient_id = ` + arg(*req.PatientID)
	}
	if req.Status != nil {
		conditions += ` AND q.status = ` + arg(*req.Status)
	}
	if req.DateFrom != nil {
		conditions += ` AND q.quote_date >= ` + arg(*req.DateFrom)
	}
	if req.DateTo != nil {
		conditions += ` AND q.quote_date <= ` + arg(*req.DateTo)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM quotes q` + conditions
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT q.id, q.number, q.patient_id, q.clinician, q.quote_date,
		q.valid_until, q.status, q.currency, q.global_discount_type,
		q.global_discount_value, q.comment, q.created_at, q.updated_at,
		p.last_name || ' ' || p.first_name AS patient_name
		FROM quotes q JOIN patients p ON p.id = q.patient_id` + conditions +
		` ORDER BY q.quote_date DESC, q.id DESC`
	if req.Limit > 0 {
		query += ` LIMIT ` + arg(req.Limit) + ` OFFSET ` + arg(req.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []QuoteListRow
	for rows.Next() {
		var row QuoteListRow
		if err := rows.Scan(&row.ID, &row.Number, &row.PatientID, &row.Clinician,
			&row.QuoteDate, &row.ValidUntil, &row.Status, &row.Currency,
			&row.GlobalDiscount.Type, &row.GlobalDiscount.Value, &row.Comment,
			&row.CreatedAt, &row.UpdatedAt, &row.PatientName); err != nil {
			return nil, 0, err
		}
		items = append(items, row)
	}
	return items, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, q Quote) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO quotes
		(number, patient_id, clinician, quote_date, valid_until, status, currency,
		 global_discount_type, global_discount_value, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		q.Number, q.PatientID, q.Clinician, q.QuoteDate, q.ValidUntil, q.Status,
		q.Currency, q.GlobalDiscount.Type, q.GlobalDiscount.Value, q.Comment,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, httpx.ErrDuplicate
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) UpdateHeader(ctx context.Context, id int64, q Quote) error {
	tag, err := r.db.Exec(ctx, `UPDATE quotes SET
		clinician = $1, valid_until = $2, global_discount_type = $3,
		global_discount_value = $4, comment = $5, updated_at = now()
		WHERE id = $6`,
		q.Clinician, q.ValidUntil, q.GlobalDiscount.Type, q.GlobalDiscount.Value,
		q.Comment, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status QuoteStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE quotes SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) InsertItem(ctx context.Context, item QuoteItem) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO quote_items
		(quote_id, procedure_id, name, quantity, unit_price_gross, discount_type,
		 discount_value, treatment_session, treated_area, tooth_code,
		 vat_rate_percent, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		item.QuoteID, item.ProcedureID, item.Name, item.Quantity, item.UnitPriceGross,
		item.Discount.Type, item.Discount.Value, item.TreatmentSession,
		item.TreatedArea, item.ToothCode, item.VATRatePercent, item.LineOrder,
	).Scan(&id)
	return id, err
}

func (r *repository) DeleteItems(ctx context.Context, quoteID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM quote_items WHERE quote_id = $1`, quoteID)
	return err
}

// GenerateNumber allocates the next Q-YYYY-NNNN document number for the
// quote date's year.
func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	var seq int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO document_sequences (doc_type, year, last_value)
		 VALUES ('QUOTE', $1, 1)
		 ON CONFLICT (doc_type, year) DO UPDATE SET last_value = document_sequences.last_value + 1
		 RETURNING last_value`,
		date.Year(),
	).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("next quote sequence: %w", err)
	}
	return fmt.Sprintf("Q-%d-%04d", date.Year(), seq), nil
}

// MarkExpired flips DRAFT and CLOSED quotes whose validity has passed.
func (r *repository) MarkExpired(ctx context.Context, asOf time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE quotes SET status = $1, updated_at = now()
		 WHERE status IN ($2, $3) AND valid_until < $4`,
		StatusExpired, StatusDraft, StatusClosed, asOf)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
