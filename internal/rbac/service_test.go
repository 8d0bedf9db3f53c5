package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryGrants(t *testing.T) {
	reg := NewRegistry()

	// Admin holds everything, including user administration.
	for _, p := range []Permission{
		PermUsersView, PermUsersEdit, PermUsersDelete,
		PermInventoryView, PermInventoryEdit, PermInventoryDelete,
	} {
		require.True(t, reg.Authorize(RoleAdmin, p), "admin should hold %s", p)
	}

	require.True(t, reg.Authorize(RoleManager, PermInventoryView))
	require.True(t, reg.Authorize(RoleManager, PermInventoryEdit))
	require.False(t, reg.Authorize(RoleManager, PermInventoryDelete))
	require.False(t, reg.Authorize(RoleManager, PermUsersView))

	require.True(t, reg.Authorize(RoleStaff, PermInventoryView))
	require.False(t, reg.Authorize(RoleStaff, PermInventoryEdit))

	require.Empty(t, reg.Permissions(RoleCustomer))
}

func TestParseRole(t *testing.T) {
	require.Equal(t, RoleAdmin, ParseRole("admin"))
	require.Equal(t, RoleStaff, ParseRole("staff"))
	// Unknown roles carry no permissions rather than failing open.
	require.Equal(t, RoleCustomer, ParseRole("superuser"))
	require.False(t, Valid("superuser"))
	require.True(t, Valid("manager"))
}
