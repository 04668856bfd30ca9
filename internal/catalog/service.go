package catalog

import (
	"context"
	"fmt"

	"github.com/molaris/molaris/internal/billing"
	"github.com/molaris/molaris/internal/shared"
)

// Service wraps catalog business rules.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Procedure, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Procedure, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (Procedure, error) {
	p := Procedure{
		Code:           req.Code,
		Name:           req.Name,
		UnitType:       UnitType(req.UnitType),
		PriceGross:     req.PriceGross,
		Currency:       billing.Currency(req.Currency),
		VATRatePercent: req.VATRatePercent,
		IsActive:       true,
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return Procedure{}, fmt.Errorf("create procedure: %w", err)
	}
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, req UpdateRequest) (Procedure, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Procedure{}, fmt.Errorf("get procedure: %w", err)
	}

	existing.Name = req.Name
	existing.UnitType = UnitType(req.UnitType)
	existing.PriceGross = req.PriceGross
	existing.Currency = billing.Currency(req.Currency)
	existing.VATRatePercent = req.VATRatePercent
	existing.IsActive = req.IsActive

	updated, err := s.repo.Update(ctx, id, existing)
	if err != nil {
		return Procedure{}, fmt.Errorf("update procedure: %w", err)
	}
	return updated, nil
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	return s.repo.Deactivate(ctx, id)
}
