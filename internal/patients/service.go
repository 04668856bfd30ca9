package patients

import (
	"context"
	"fmt"
	"strings"

	"github.com/molaris/molaris/internal/shared"
)

// Service wraps patient business rules.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Patient, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Patient, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Patient, error) {
	p := Patient{
		LastName:  strings.TrimSpace(req.LastName),
		FirstName: strings.TrimSpace(req.FirstName),
		BirthDate: req.BirthDate,
		TAJ:       normalizeTAJ(req.TAJ),
		Phone:     req.Phone,
		Email:     req.Email,
		Address:   req.Address,
		Anamnesis: req.Anamnesis,
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Patient{}, fmt.Errorf("create patient: %w", err)
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Patient, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Patient{}, fmt.Errorf("get patient: %w", err)
	}

	existing.LastName = strings.TrimSpace(req.LastName)
	existing.FirstName = strings.TrimSpace(req.FirstName)
	existing.BirthDate = req.BirthDate
	existing.TAJ = normalizeTAJ(req.TAJ)
	existing.Phone = req.Phone
	existing.Email = req.Email
	existing.Address = req.Address
	existing.Anamnesis = req.Anamnesis

	updated, err := s.repo.Update(ctx, id, existing)
	if err != nil {
		return Patient{}, fmt.Errorf("update patient: %w", err)
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// normalizeTAJ stores the spaced "123 456 789" presentation form.
func normalizeTAJ(taj *string) *string {
	if taj == nil {
		return nil
	}
	digits := strings.ReplaceAll(strings.TrimSpace(*taj), " ", "")
	if digits == "" {
		return nil
	}
	if len(digits) == 9 {
		spaced := digits[0:3] + " " + digits[3:6] + " " + digits[6:9]
		return &spaced
	}
	out := strings.TrimSpace(*taj)
	return &out
}
