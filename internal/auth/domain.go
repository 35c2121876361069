package auth

import (
	"time"

	"github.com/ledgerly/ledgerly/internal/authz"
)

// User represents an authenticated user account. Role is authoritative data
// on the account record; it is never derived from the login identifier.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	Role         authz.Role
	TenantID     string
	TenantSlug   string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
