package neak

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/molaris/molaris/internal/patients"
	"github.com/molaris/molaris/internal/platform/httpx"
	"github.com/molaris/molaris/internal/settings"
)

// PatientDirectory resolves the patient whose TAJ is being checked.
type PatientDirectory interface {
	Get(ctx context.Context, id int64) (patients.Patient, error)
}

// SettingsProvider supplies the retention window for pruning.
type SettingsProvider interface {
	Get(ctx context.Context) (settings.Settings, error)
}

type Service struct {
	client   *Client
	repo     Repository
	patients PatientDirectory
	settings SettingsProvider
	log      *slog.Logger
	now      func() time.Time
}

func NewService(client *Client, repo Repository, pd PatientDirectory, sp SettingsProvider, log *slog.Logger) *Service {
	return &Service{
		client:   client,
		repo:     repo,
		patients: pd,
		settings: sp,
		log:      log.With("component", "neak"),
		now:      time.Now,
	}
}

// Check runs an eligibility lookup for the patient and records the outcome.
func (s *Service) Check(ctx context.Context, req CheckRequest) (Check, error) {
	p, err := s.patients.Get(ctx, req.PatientID)
	if err != nil {
		return Check{}, fmt.Errorf("patient %d: %w", req.PatientID, err)
	}
	if p.TAJ == nil || *p.TAJ == "" {
		return Check{}, fmt.Errorf("%w: patient has no TAJ number", httpx.ErrValidation)
	}

	date := s.now()
	if req.Date != nil {
		date = *req.Date
	}

	outcome, err := s.client.Check(ctx, *p.TAJ, date)
	if err != nil {
		return Check{}, fmt.Errorf("eligibility check: %w", err)
	}

	check := Check{
		CheckID:    uuid.New(),
		PatientID:  p.ID,
		TAJ:        *p.TAJ,
		Result:     outcome.Result,
		StatusCode: outcome.StatusCode,
		CheckedAt:  outcome.CheckedAt,
	}
	saved, err := s.repo.Insert(ctx, check)
	if err != nil {
		return Check{}, fmt.Errorf("persist check: %w", err)
	}

	s.log.InfoContext(ctx, "eligibility checked",
		"patient_id", p.ID, "result", saved.Result, "status_code", saved.StatusCode)
	return saved, nil
}

// History lists the recorded checks of a patient, newest first.
func (s *Service) History(ctx context.Context, patientID int64, limit int) ([]Check, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListByPatient(ctx, patientID, limit)
}

// Prune removes history older than the configured retention. Invoked by the
// scheduler.
func (s *Service) Prune(ctx context.Context) (int64, error) {
	st, err := s.settings.Get(ctx)
	if err != nil {
		return 0, err
	}
	retention := st.NEAKRetentionDays
	if retention <= 0 {
		retention = 365
	}
	cutoff := s.now().AddDate(0, 0, -retention)
	n, err := s.repo.PruneOlderThan(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.log.InfoContext(ctx, "eligibility history pruned", "removed", n, "cutoff", cutoff)
	}
	return n, nil
}
