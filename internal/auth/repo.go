package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ledgerly/ledgerly/internal/authz"
	"github.com/ledgerly/ledgerly/internal/platform/db"
	"github.com/ledgerly/ledgerly/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateUser(ctx context.Context, user *User) (int64, error)
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, email, name, password_hash, role, tenant_id, tenant_slug, is_active, created_at, updated_at
		FROM users WHERE email = $1`, email)

	var user User
	var role string
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &role,
		&user.TenantID, &user.TenantSlug, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	parsed, err := authz.ParseRole(role)
	if err != nil {
		return nil, err
	}
	user.Role = parsed
	return &user, nil
}

// CreateUser inserts a new account. A duplicate email maps to
// shared.ErrDuplicateEmail.
func (r *PGRepository) CreateUser(ctx context.Context, user *User) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (email, name, password_hash, role, tenant_id, tenant_slug, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
		RETURNING id`,
		user.Email, user.Name, user.PasswordHash, string(user.Role),
		user.TenantID, user.TenantSlug, user.IsActive).Scan(&id)
	if err != nil {
		if db.UniqueViolation(err) {
			return 0, shared.ErrDuplicateEmail
		}
		return 0, err
	}
	return id, nil
}

// CreateSession persists a new login session for auditing and sweeping.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, created_at, expires_at, ip, user_agent)
		VALUES ($1,$2,now(),$3,$4,$5)`,
		id, userID, expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

// DeleteExpiredSessions removes session records that expired before the
// given instant and reports how many were swept.
func (r *PGRepository) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < $1`, before.UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
