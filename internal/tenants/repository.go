package tenants

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerly/ledgerly/internal/platform/db"
	"github.com/ledgerly/ledgerly/internal/shared"
)

// Repository defines persistence operations for tenants.
type Repository interface {
	CreateTenant(ctx context.Context, tenant Tenant, settings Settings) error
	GetTenant(ctx context.Context, id string) (Tenant, error)
	DeleteTenant(ctx context.Context, id string) error
	ListTenants(ctx context.Context, limit, offset int) ([]Tenant, error)
	CountTenants(ctx context.Context) (int, error)
	GetSettings(ctx context.Context, tenantID string) (Settings, error)
	SaveSettings(ctx context.Context, settings Settings) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// CreateTenant inserts the tenant and its initial settings atomically. A
// slug collision maps to shared.ErrDuplicateSlug.
func (r *PGRepository) CreateTenant(ctx context.Context, tenant Tenant, settings Settings) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO tenants (id, slug, name, plan, trial_ends_at, created_at)
			VALUES ($1,$2,$3,$4,$5,now())`,
			tenant.ID, tenant.Slug, tenant.Name, tenant.Plan, tenant.TrialEndsAt.UTC()); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO tenant_settings (tenant_id, company_name, currency, invoice_prefix, onboarding_completed, updated_at)
			VALUES ($1,$2,$3,$4,$5,now())`,
			settings.TenantID, settings.CompanyName, settings.Currency, settings.InvoicePrefix, settings.OnboardingCompleted)
		return err
	})
	if err != nil {
		if db.UniqueViolation(err) {
			return shared.ErrDuplicateSlug
		}
		return err
	}
	return nil
}

// GetTenant fetches a tenant by ID.
func (r *PGRepository) GetTenant(ctx context.Context, id string) (Tenant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, slug, name, plan, trial_ends_at, created_at FROM tenants WHERE id = $1`, id)
	var tenant Tenant
	if err := row.Scan(&tenant.ID, &tenant.Slug, &tenant.Name, &tenant.Plan, &tenant.TrialEndsAt, &tenant.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return Tenant{}, shared.ErrNotFound
		}
		return Tenant{}, err
	}
	return tenant, nil
}

// DeleteTenant removes the tenant and its settings atomically.
func (r *PGRepository) DeleteTenant(ctx context.Context, id string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM tenant_settings WHERE tenant_id = $1`, id); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `DELETE FROM tenants WHERE id = $1`, id)
		return err
	})
}

// ListTenants returns a page of tenants ordered by creation time.
func (r *PGRepository) ListTenants(ctx context.Context, limit, offset int) ([]Tenant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, slug, name, plan, trial_ends_at, created_at FROM tenants
		ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tenants []Tenant
	for rows.Next() {
		var tenant Tenant
		if err := rows.Scan(&tenant.ID, &tenant.Slug, &tenant.Name, &tenant.Plan, &tenant.TrialEndsAt, &tenant.CreatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tenants, nil
}

// CountTenants returns the total number of tenants.
func (r *PGRepository) CountTenants(ctx context.Context) (int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM tenants`).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// GetSettings fetches settings for a tenant.
func (r *PGRepository) GetSettings(ctx context.Context, tenantID string) (Settings, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT tenant_id, company_name, currency, invoice_prefix, onboarding_completed, updated_at
		FROM tenant_settings WHERE tenant_id = $1`, tenantID)
	var settings Settings
	if err := row.Scan(&settings.TenantID, &settings.CompanyName, &settings.Currency,
		&settings.InvoicePrefix, &settings.OnboardingCompleted, &settings.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return Settings{}, shared.ErrNotFound
		}
		return Settings{}, err
	}
	return settings, nil
}

// SaveSettings upserts tenant settings.
func (r *PGRepository) SaveSettings(ctx context.Context, settings Settings) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO tenant_settings (tenant_id, company_name, currency, invoice_prefix, onboarding_completed, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
		ON CONFLICT (tenant_id) DO UPDATE SET
			company_name = EXCLUDED.company_name,
			currency = EXCLUDED.currency,
			invoice_prefix = EXCLUDED.invoice_prefix,
			onboarding_completed = EXCLUDED.onboarding_completed,
			updated_at = now()`,
		settings.TenantID, settings.CompanyName, settings.Currency, settings.InvoicePrefix, settings.OnboardingCompleted)
	return err
}
