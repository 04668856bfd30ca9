package invoices

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
	Get(ctx context.Context, id int64) (*Invoice, error)
	List(ctx context.Context, req ListRequest) ([]InvoiceListRow, int, error)
	Create(ctx context.Context, inv Invoice) (int64, error)
	UpdateHeader(ctx context.Context, id int64, inv Invoice) error
	UpdateStatus(ctx context.Context, id int64, status InvoiceStatus) error
	InsertItem(ctx context.Context, item InvoiceItem) (int64, error)
	GenerateNumber(ctx context.Context, date time.Time) (string, error)
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

func (r *repository) Get(ctx context.Context, id int64) (*Invoice, error) {
	var inv Invoice
	err := r.db.QueryRow(ctx, `SELECT id, number, patient_id, quote_id, clinician,
		issue_date, fulfillment_date, due_date, payment_method, status, currency,
		global_discount_type, global_discount_value, comment, created_at, updated_at
		FROM invoices WHERE id = $1`, id,
	).Scan(&inv.ID, &inv.Number, &inv.PatientID, &inv.QuoteID, &inv.Clinician,
		&inv.IssueDate, &inv.FulfillmentDate, &inv.DueDate, &inv.PaymentMethod,
		&inv.Status, &inv.Currency, &inv.GlobalDiscount.Type,
		&inv.GlobalDiscount.Value, &inv.Comment, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, httpx.ErrNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx, `SELECT id, invoice_id, name, quantity,
		unit_price_gross, discount_type, discount_value, vat_rate_percent,
		treated_area, tooth_code, line_order
		FROM invoice_items WHERE invoice_id = $1 ORDER BY line_order`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.Name, &it.Quantity,
			&it.UnitPriceGross, &it.Discount.Type, &it.Discount.Value,
			&it.VATRatePercent, &it.TreatedArea, &it.ToothCode, &it.LineOrder); err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]InvoiceListRow, int, error) {
	conditions := ` WHERE 1=1`
	args := []interface{}{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if req.PatientID != nil {
		conditions += ` AND i.patient_id = ` + arg(*req.PatientID)
	}
	if req.Status != nil {
		conditions += ` AND i.status = ` + arg(*req.Status)
	}
	if req.DateFrom != nil {
		conditions += ` AND i.issue_date >= ` + arg(*req.DateFrom)
	}
	if req.DateTo != nil {
		conditions += ` AND i.issue_date <= ` + arg(*req.DateTo)
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM invoices i`+conditions, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT i.id, i.number, i.patient_id, i.quote_id, i.clinician,
		i.issue_date, i.fulfillment_date, i.due_date, i.payment_method, i.status,
		i.currency, i.global_discount_type, i.global_discount_value, i.comment,
		i.created_at, i.updated_at,
		p.last_name || ' ' || p.first_name AS patient_name
		FROM invoices i JOIN patients p ON p.id = i.patient_id` + conditions +
		` ORDER BY i.issue_date DESC, i.id DESC`
	if req.Limit > 0 {
		query += ` LIMIT ` + arg(req.Limit) + ` OFFSET ` + arg(req.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []InvoiceListRow
	for rows.Next() {
		var row InvoiceListRow
		if err := rows.Scan(&row.ID, &row.Number, &row.PatientID, &row.QuoteID,
			&row.Clinician, &row.IssueDate, &row.FulfillmentDate, &row.DueDate,
			&row.PaymentMethod, &row.Status, &row.Currency,
			&row.GlobalDiscount.Type, &row.GlobalDiscount.Value, &row.Comment,
			&row.CreatedAt, &row.UpdatedAt, &row.PatientName); err != nil {
			return nil, 0, err
		}
		items = append(items, row)
	}
	return items, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, inv Invoice) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO invoices
		(number, patient_id, quote_id, clinician, issue_date, fulfillment_date,
		 due_date, payment_method, status, currency, global_discount_type,
		 global_discount_value, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		inv.Number, inv.PatientID, inv.QuoteID, inv.Clinician, inv.IssueDate,
		inv.FulfillmentDate, inv.DueDate, inv.PaymentMethod, inv.Status,
		inv.Currency, inv.GlobalDiscount.Type, inv.GlobalDiscount.Value, inv.Comment,
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

func (r *repository) UpdateHeader(ctx context.Context, id int64, inv Invoice) error {
	tag, err := r.db.Exec(ctx, `UPDATE invoices SET
		clinician = $1, payment_method = $2, fulfillment_date = $3, due_date = $4,
		global_discount_type = $5, global_discount_value = $6, comment = $7,
		updated_at = now()
		WHERE id = $8`,
		inv.Clinician, inv.PaymentMethod, inv.FulfillmentDate, inv.DueDate,
		inv.GlobalDiscount.Type, inv.GlobalDiscount.Value, inv.Comment, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) UpdateStatus(ctx context.Context, id int64, status InvoiceStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE invoices SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *repository) InsertItem(ctx context.Context, item InvoiceItem) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO invoice_items
		(invoice_id, name, quantity, unit_price_gross, discount_type,
		 discount_value, vat_rate_percent, treated_area, tooth_code, line_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		item.InvoiceID, item.Name, item.Quantity, item.UnitPriceGross,
		item.Discount.Type, item.Discount.Value, item.VATRatePercent,
		item.TreatedArea, item.ToothCode, item.LineOrder,
	).Scan(&id)
	return id, err
}

// GenerateNumber allocates the next INV-YYYY-NNNN document number for the
// issue date's year.
func (r *repository) GenerateNumber(ctx context.Context, date time.Time) (string, error) {
	var seq int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO document_sequences (doc_type, year, last_value)
		 VALUES ('INVOICE', $1, 1)
		 ON CONFLICT (doc_type, year) DO UPDATE SET last_value = document_sequences.last_value + 1
		 RETURNING last_value`,
		date.Year(),
	).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("next invoice sequence: %w", err)
	}
	return fmt.Sprintf("INV-%d-%04d", date.Year(), seq), nil
}
