package odontogram

import (
	"context"
	"fmt"
	"strings"

	"github.com/molaris/molaris/internal/platform/httpx"
)

// Service wraps chart business rules.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Chart(ctx context.Context, patientID int64) ([]Entry, error) {
	return s.repo.Chart(ctx, patientID)
}

func (s *Service) Upsert(ctx context.Context, patientID int64, req UpsertRequest, changedBy string) (Entry, error) {
	if !ValidToothCode(req.ToothCode) {
		return Entry{}, fmt.Errorf("%w: invalid FDI tooth code %q", httpx.ErrValidation, req.ToothCode)
	}
	if err := validateSurfaces(req.Surfaces); err != nil {
		return Entry{}, err
	}

	entry := Entry{
		PatientID: patientID,
		ToothCode: req.ToothCode,
		Status:    ToothStatus(req.Status),
		Surfaces:  strings.ToUpper(req.Surfaces),
		Note:      req.Note,
	}
	saved, err := s.repo.Upsert(ctx, entry, changedBy)
	if err != nil {
		return Entry{}, fmt.Errorf("upsert tooth %s: %w", req.ToothCode, err)
	}
	return saved, nil
}

func (s *Service) History(ctx context.Context, patientID int64, toothCode string) ([]HistoryEntry, error) {
	if toothCode != "" && !ValidToothCode(toothCode) {
		return nil, fmt.Errorf("%w: invalid FDI tooth code %q", httpx.ErrValidation, toothCode)
	}
	return s.repo.History(ctx, patientID, toothCode)
}

// validateSurfaces accepts a subset of the MODBL surface letters, each at
// most once.
func validateSurfaces(surfaces string) error {
	seen := map[rune]bool{}
	for _, r := range strings.ToUpper(surfaces) {
		switch r {
		case 'M', 'O', 'D', 'B', 'L':
			if seen[r] {
				return fmt.Errorf("%w: repeated surface %q", httpx.ErrValidation, r)
			}
			seen[r] = true
		default:
			return fmt.Errorf("%w: unknown surface %q", httpx.ErrValidation, r)
		}
	}
	return nil
}
