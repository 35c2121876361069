package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, role := range Roles() {
		parsed, err := ParseRole(string(role))
		require.NoError(t, err)
		assert.Equal(t, role, parsed)
	}

	parsed, err := ParseRole("  VIEWER ")
	require.NoError(t, err)
	assert.Equal(t, RoleViewer, parsed)

	for _, raw := range []string{"", "viewer", "ADMIN", "SUPERADMIN", "root"} {
		_, err := ParseRole(raw)
		assert.Error(t, err, "raw=%q", raw)
	}
}

func TestRolesIsClosedSet(t *testing.T) {
	require.Len(t, Roles(), 4)
	assert.False(t, Role("OWNER").Valid())
	assert.True(t, RoleSuperAdmin.Valid())
}
