package odontogram

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/molaris/molaris/internal/platform/db"
)

type Repository interface {
	Chart(ctx context.Context, patientID int64) ([]Entry, error)
	Upsert(ctx context.Context, e Entry, changedBy string) (Entry, error)
	History(ctx context.Context, patientID int64, toothCode string) ([]HistoryEntry, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

func (r *repository) Chart(ctx context.Context, patientID int64) ([]Entry, error) {
	query := `SELECT id, patient_id, tooth_code, status, surfaces, note, updated_at
		FROM odontogram_entries WHERE patient_id = $1 ORDER BY tooth_code`

	rows, err := r.db.Query(ctx, query, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.PatientID, &e.ToothCode, &e.Status,
			&e.Surfaces, &e.Note, &e.UpdatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Upsert replaces the tooth's current state and appends a history row in the
// same transaction.
func (r *repository) Upsert(ctx context.Context, e Entry, changedBy string) (Entry, error) {
	var out Entry
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		query := `INSERT INTO odontogram_entries (patient_id, tooth_code, status, surfaces, note)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (patient_id, tooth_code) DO UPDATE SET
				status = EXCLUDED.status, surfaces = EXCLUDED.surfaces,
				note = EXCLUDED.note, updated_at = now()
			RETURNING id, patient_id, tooth_code, status, surfaces, note, updated_at`

		if err := tx.QueryRow(ctx, query,
			e.PatientID, e.ToothCode, e.Status, e.Surfaces, e.Note,
		).Scan(&out.ID, &out.PatientID, &out.ToothCode, &out.Status,
			&out.Surfaces, &out.Note, &out.UpdatedAt); err != nil {
			return err
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO odontogram_history (patient_id, tooth_code, status, surfaces, note, changed_by)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			e.PatientID, e.ToothCode, e.Status, e.Surfaces, e.Note, changedBy)
		return err
	})
	if err != nil {
		return Entry{}, err
	}
	return out, nil
}

func (r *repository) History(ctx context.Context, patientID int64, toothCode string) ([]HistoryEntry, error) {
	query := `SELECT id, patient_id, tooth_code, status, surfaces, note, changed_by, changed_at
		FROM odontogram_history WHERE patient_id = $1`
	args := []interface{}{patientID}
	if toothCode != "" {
		query += ` AND tooth_code = $2`
		args = append(args, toothCode)
	}
	query += ` ORDER BY changed_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.PatientID, &e.ToothCode, &e.Status,
			&e.Surfaces, &e.Note, &e.ChangedBy, &e.ChangedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
