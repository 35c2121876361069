package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ledgerly/ledgerly/internal/authz"
	"github.com/ledgerly/ledgerly/internal/shared"
)

// TenantProvisioner creates the tenant workspace during signup and tears it
// down again when the signup cannot complete. Implemented by the tenants
// service; auth only needs the resulting pair.
type TenantProvisioner interface {
	Provision(ctx context.Context, companyName string) (id, slug string, err error)
	Deprovision(ctx context.Context, tenantID string) error
}

// Service wraps authentication business rules.
type Service struct {
	repo    Repository
	tenants TenantProvisioner
}

// NewService constructs a new Service.
func NewService(repo Repository, tenants TenantProvisioner) *Service {
	return &Service{repo: repo, tenants: tenants}
}

// Authenticate validates email/password credentials. Every failure mode
// reads as invalid credentials so callers cannot enumerate which emails exist.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// SignupInput carries the fields needed to open a tenant workspace.
type SignupInput struct {
	Name        string
	Email       string
	Password    string
	CompanyName string
}

// Signup provisions a tenant and creates its first user as TENANT_ADMIN.
// The email is checked up front, and a tenant provisioned for a signup that
// still fails is torn down again so its slug is not consumed.
func (s *Service) Signup(ctx context.Context, input SignupInput) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, shared.ErrDuplicateEmail
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	tenantID, tenantSlug, err := s.tenants.Provision(ctx, input.CompanyName)
	if err != nil {
		return nil, err
	}

	user := &User{
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: string(hash),
		Role:         authz.RoleTenantAdmin,
		TenantID:     tenantID,
		TenantSlug:   tenantSlug,
		IsActive:     true,
	}
	id, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		if depErr := s.tenants.Deprovision(ctx, tenantID); depErr != nil {
			return nil, errors.Join(err, depErr)
		}
		return nil, err
	}
	user.ID = id
	return user, nil
}

// NewAccessToken mints an opaque access token. The token is a simulated
// credential: it identifies the session, it proves nothing.
func NewAccessToken() string {
	return "lt_" + uuid.NewString()
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, userID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// SweepExpiredSessions deletes session records whose expiry has passed.
func (s *Service) SweepExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx, now)
}
