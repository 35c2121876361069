// Package tenants manages tenant workspaces and their settings, including
// the onboarding flag consumed by the route guards.
package tenants

import "time"

// Plan identifiers for tenant billing.
const (
	PlanTrial    = "trial"
	PlanStandard = "standard"
	PlanPremium  = "premium"
)

// Tenant represents a customer workspace.
type Tenant struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Plan        string    `json:"plan"`
	TrialEndsAt time.Time `json:"trial_ends_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Settings holds tenant-level configuration. OnboardingCompleted drives the
// onboarding gate.
type Settings struct {
	TenantID            string    `json:"tenant_id"`
	CompanyName         string    `json:"company_name"`
	Currency            string    `json:"currency"`
	InvoicePrefix       string    `json:"invoice_prefix"`
	OnboardingCompleted bool      `json:"onboarding_completed"`
	UpdatedAt           time.Time `json:"updated_at"`
}
