package neak

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Insert(ctx context.Context, c Check) (Check, error)
	ListByPatient(ctx context.Context, patientID int64, limit int) ([]Check, error)
	PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Insert(ctx context.Context, c Check) (Check, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO neak_checks
		(check_id, patient_id, taj, result, status_code, checked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		c.CheckID, c.PatientID, c.TAJ, c.Result, c.StatusCode, c.CheckedAt,
	).Scan(&c.ID)
	return c, err
}

func (r *repository) ListByPatient(ctx context.Context, patientID int64, limit int) ([]Check, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, check_id, patient_id, taj, result,
		status_code, checked_at
		FROM neak_checks WHERE patient_id = $1
		ORDER BY checked_at DESC LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Check
	for rows.Next() {
		var c Check
		if err := rows.Scan(&c.ID, &c.CheckID, &c.PatientID, &c.TAJ, &c.Result,
			&c.StatusCode, &c.CheckedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *repository) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM neak_checks WHERE checked_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
