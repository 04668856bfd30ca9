package settings

import (
	"context"
	"fmt"

	"github.com/molaris/molaris/internal/billing"
)

// Service wraps settings access with light business rules.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the clinic settings snapshot.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	return s.repo.Get(ctx)
}

// Update replaces the editable settings fields.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (Settings, error) {
	current, err := s.repo.Get(ctx)
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}

	current.ClinicName = req.ClinicName
	current.ClinicAddress = req.ClinicAddress
	current.ClinicPhone = req.ClinicPhone
	current.ClinicEmail = req.ClinicEmail
	current.TaxID = req.TaxID
	current.Location = req.Location
	current.HomeCurrency = billing.Currency(req.HomeCurrency)
	current.AlternateCurrency = billing.Currency(req.AlternateCurrency)
	current.Locale = req.Locale
	current.DateLayout = req.DateLayout
	current.QuoteValidityDays = req.QuoteValidityDays
	current.InvoiceDueDays = req.InvoiceDueDays
	current.VATRatePercent = req.VATRatePercent
	current.QuoteTerms = req.QuoteTerms
	current.CapGlobalDiscount = req.CapGlobalDiscount
	current.NEAKRetentionDays = req.NEAKRetentionDays

	return s.repo.Update(ctx, current)
}
