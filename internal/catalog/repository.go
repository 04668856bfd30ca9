package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/molaris/molaris/internal/platform/httpx"
	"github.com/molaris/molaris/internal/shared"
)

type Repository interface {
	List(ctx context.Context, filters shared.ListFilters) ([]Procedure, int, error)
	Get(ctx context.Context, id int64) (Procedure, error)
	GetByCode(ctx context.Context, code string) (Procedure, error)
	Create(ctx context.Context, p Procedure) (Procedure, error)
	Update(ctx context.Context, id int64, p Procedure) (Procedure, error)
	Deactivate(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const procedureColumns = `id, code, name, unit_type, price_gross, currency,
	vat_rate_percent, is_active, created_at, updated_at`

func scanProcedure(row pgx.Row) (Procedure, error) {
	var p Procedure
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.UnitType, &p.PriceGross,
		&p.Currency, &p.VATRatePercent, &p.IsActive, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Procedure{}, httpx.ErrNotFound
		}
		return Procedure{}, err
	}
	return p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Procedure, int, error) {
	query := `SELECT ` + procedureColumns + ` FROM procedures WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM procedures WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	appendCond := func(cond string, value interface{}) {
		argCount++
		clause := cond + `$` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, value)
	}

	if filters.Search != "" {
		appendCond(` AND (name ILIKE `, "%"+filters.Search+"%")
		query += ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
		countQuery += ` OR code ILIKE $` + strconv.Itoa(argCount) + `)`
	}
	if filters.IsActive != nil {
		appendCond(` AND is_active = `, *filters.IsActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY code`
	argCount++
	query += ` LIMIT $` + strconv.Itoa(argCount)
	args = append(args, filters.Limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, filters.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []Procedure
	for rows.Next() {
		p, err := scanProcedure(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Procedure, error) {
	query := `SELECT ` + procedureColumns + ` FROM procedures WHERE id = $1`
	return scanProcedure(r.db.QueryRow(ctx, query, id))
}

func (r *repository) GetByCode(ctx context.Context, code string) (Procedure, error) {
	query := `SELECT ` + procedureColumns + ` FROM procedures WHERE code = $1`
	return scanProcedure(r.db.QueryRow(ctx, query, code))
}

func (r *repository) Create(ctx context.Context, p Procedure) (Procedure, error) {
	query := `INSERT INTO procedures
		(code, name, unit_type, price_gross, currency, vat_rate_percent, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + procedureColumns

	created, err := scanProcedure(r.db.QueryRow(ctx, query,
		p.Code, p.Name, p.UnitType, p.PriceGross, p.Currency, p.VATRatePercent, p.IsActive))
	if err != nil {
		if isUniqueViolation(err) {
			return Procedure{}, httpx.ErrDuplicate
		}
		return Procedure{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, p Procedure) (Procedure, error) {
	query := `UPDATE procedures SET
		name = $1, unit_type = $2, price_gross = $3, currency = $4,
		vat_rate_percent = $5, is_active = $6, updated_at = now()
		WHERE id = $7
		RETURNING ` + procedureColumns

	return scanProcedure(r.db.QueryRow(ctx, query,
		p.Name, p.UnitType, p.PriceGross, p.Currency, p.VATRatePercent, p.IsActive, id))
}

func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE procedures SET is_active = false, updated_at = now() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
