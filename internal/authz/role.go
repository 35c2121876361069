// Package authz defines the closed role vocabulary and the static
// permission matrix for Ledgerly. All access decisions funnel through
// CanAccess so there is exactly one code path to audit.
package authz

import (
	"fmt"
	"strings"
)

// Role identifies what a session may access. The set is closed; roles are
// assigned at login and never re-derived mid-session.
type Role string

const (
	// RoleSuperAdmin operates across tenants and carries no tenant context.
	RoleSuperAdmin Role = "SUPER_ADMIN"
	// RoleTenantAdmin administers a single tenant workspace.
	RoleTenantAdmin Role = "TENANT_ADMIN"
	// RoleAccountant manages invoices, payments and reminders for a tenant.
	RoleAccountant Role = "ACCOUNTANT"
	// RoleViewer has read-only access to tenant data.
	RoleViewer Role = "VIEWER"
)

// Roles returns the closed set of valid roles.
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleTenantAdmin, RoleAccountant, RoleViewer}
}

// ParseRole validates an externally supplied role string.
func ParseRole(raw string) (Role, error) {
	candidate := Role(strings.TrimSpace(raw))
	for _, role := range Roles() {
		if candidate == role {
			return role, nil
		}
	}
	return "", fmt.Errorf("authz: unknown role %q", raw)
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

// Area partitions the protected application surface. Fixed at build time.
type Area string

const (
	// AreaSystem covers tenant-scoped operations.
	AreaSystem Area = "system"
	// AreaPlatformAdmin covers cross-tenant platform operations.
	AreaPlatformAdmin Area = "platform-admin"
)

// Areas returns the closed set of areas.
func Areas() []Area {
	return []Area{AreaSystem, AreaPlatformAdmin}
}
