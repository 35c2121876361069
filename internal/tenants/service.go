package tenants

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ledgerly/ledgerly/internal/shared"
)

const trialPeriod = 14 * 24 * time.Hour

// Service orchestrates tenant provisioning and settings.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Provision creates a tenant workspace on the trial plan with onboarding
// still open. Returns the tenant pair recorded in sessions.
func (s *Service) Provision(ctx context.Context, companyName string) (string, string, error) {
	companyName = strings.TrimSpace(companyName)
	slug := Slugify(companyName)
	if slug == "" {
		return "", "", errors.New("tenants: company name yields empty slug")
	}

	tenant := Tenant{
		ID:          uuid.NewString(),
		Slug:        slug,
		Name:        companyName,
		Plan:        PlanTrial,
		TrialEndsAt: time.Now().Add(trialPeriod),
	}
	settings := Settings{
		TenantID:    tenant.ID,
		CompanyName: companyName,
		Currency:    "USD",
	}
	if err := s.repo.CreateTenant(ctx, tenant, settings); err != nil {
		return "", "", err
	}
	return tenant.ID, tenant.Slug, nil
}

// Deprovision removes a tenant workspace again, freeing its slug. Used when
// signup provisioned the tenant but could not complete.
func (s *Service) Deprovision(ctx context.Context, tenantID string) error {
	return s.repo.DeleteTenant(ctx, tenantID)
}

// GetSettings returns the settings for a tenant.
func (s *Service) GetSettings(ctx context.Context, tenantID string) (Settings, error) {
	return s.repo.GetSettings(ctx, tenantID)
}

// OnboardingCompleted resolves the onboarding flag for the route guard.
func (s *Service) OnboardingCompleted(ctx context.Context, tenantID string) (bool, error) {
	settings, err := s.repo.GetSettings(ctx, tenantID)
	if err != nil {
		return false, err
	}
	return settings.OnboardingCompleted, nil
}

// CompleteOnboarding flips the onboarding flag for a tenant.
func (s *Service) CompleteOnboarding(ctx context.Context, tenantID string) error {
	settings, err := s.repo.GetSettings(ctx, tenantID)
	if err != nil {
		return err
	}
	if settings.OnboardingCompleted {
		return nil
	}
	settings.OnboardingCompleted = true
	return s.repo.SaveSettings(ctx, settings)
}

// SettingsPatch carries the user-editable settings fields.
type SettingsPatch struct {
	CompanyName   string `json:"company_name" validate:"required"`
	Currency      string `json:"currency" validate:"required,len=3"`
	InvoicePrefix string `json:"invoice_prefix"`
}

// UpdateSettings applies a patch to tenant settings. The onboarding flag is
// not part of the patch; it only moves through CompleteOnboarding.
func (s *Service) UpdateSettings(ctx context.Context, tenantID string, patch SettingsPatch) (Settings, error) {
	settings, err := s.repo.GetSettings(ctx, tenantID)
	if err != nil {
		return Settings{}, err
	}
	settings.CompanyName = strings.TrimSpace(patch.CompanyName)
	settings.Currency = strings.ToUpper(strings.TrimSpace(patch.Currency))
	settings.InvoicePrefix = strings.TrimSpace(patch.InvoicePrefix)
	if err := s.repo.SaveSettings(ctx, settings); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// ListTenants returns a page of tenants for platform administration.
func (s *Service) ListTenants(ctx context.Context, page, perPage int) ([]Tenant, shared.Pagination, error) {
	total, err := s.repo.CountTenants(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	pagination := shared.NewPagination(page, perPage, total)
	list, err := s.repo.ListTenants(ctx, pagination.PerPage, pagination.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, pagination, nil
}
