package patients

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
	List(ctx context.Context, filters shared.ListFilters) ([]Patient, int, error)
	Get(ctx context.Context, id int64) (Patient, error)
	Create(ctx context.Context, p Patient) (Patient, error)
	Update(ctx context.Context, id int64, p Patient) (Patient, error)
	Delete(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const patientColumns = `id, last_name, first_name, birth_date, taj, phone,
	email, address, anamnesis, created_at, updated_at`

func scanPatient(row pgx.Row) (Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.LastName, &p.FirstName, &p.BirthDate, &p.TAJ,
		&p.Phone, &p.Email, &p.Address, &p.Anamnesis, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Patient{}, httpx.ErrNotFound
		}
		return Patient{}, err
	}
	return p, nil
}

func (r *repository) List(ctx context.Context, filters shared.ListFilters) ([]Patient, int, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM patients WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if filters.Search != "" {
		argCount++
		pos := strconv.Itoa(argCount)
		clause := ` AND (last_name ILIKE $` + pos + ` OR first_name ILIKE $` + pos + ` OR taj ILIKE $` + pos + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filters.Search+"%")
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY last_name, first_name`
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

	var items []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	return scanPatient(r.db.QueryRow(ctx, query, id))
}

func (r *repository) Create(ctx context.Context, p Patient) (Patient, error) {
	query := `INSERT INTO patients
		(last_name, first_name, birth_date, taj, phone, email, address, anamnesis)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + patientColumns

	created, err := scanPatient(r.db.QueryRow(ctx, query,
		p.LastName, p.FirstName, p.BirthDate, p.TAJ, p.Phone, p.Email, p.Address, p.Anamnesis))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Patient{}, httpx.ErrDuplicate
		}
		return Patient{}, err
	}
	return created, nil
}

func (r *repository) Update(ctx context.Context, id int64, p Patient) (Patient, error) {
	query := `UPDATE patients SET
		last_name = $1, first_name = $2, birth_date = $3, taj = $4, phone = $5,
		email = $6, address = $7, anamnesis = $8, updated_at = now()
		WHERE id = $9
		RETURNING ` + patientColumns

	updated, err := scanPatient(r.db.QueryRow(ctx, query,
		p.LastName, p.FirstName, p.BirthDate, p.TAJ, p.Phone, p.Email, p.Address, p.Anamnesis, id))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Patient{}, httpx.ErrDuplicate
		}
		return Patient{}, err
	}
	return updated, nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}
