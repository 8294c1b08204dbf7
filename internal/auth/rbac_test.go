package auth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleOrdering(t *testing.T) {
	ordered := []Role{RoleAnonymous, RoleAuthenticated, RoleModerator, RoleSuperuser}
	for i, lower := range ordered {
		for j, higher := range ordered {
			require.Equal(t, j >= i, higher.AtLeast(lower), "%s >= %s", higher, lower)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, role := range []Role{RoleAnonymous, RoleAuthenticated, RoleModerator, RoleSuperuser} {
		parsed, ok := ParseRole(role.String())
		require.True(t, ok)
		require.Equal(t, role, parsed)
	}

	parsed, ok := ParseRole(" USER ")
	require.True(t, ok)
	require.Equal(t, RoleAuthenticated, parsed)

	parsed, ok = ParseRole("root")
	require.False(t, ok)
	require.Equal(t, RoleAnonymous, parsed)
}

func TestRoleFor(t *testing.T) {
	require.Equal(t, RoleAuthenticated, RoleFor(UserInfo{ID: 1}))
	require.Equal(t, RoleModerator, RoleFor(UserInfo{ID: 1, IsModerator: true}))
	require.Equal(t, RoleSuperuser, RoleFor(UserInfo{ID: 1, IsSuperuser: true}))
	require.Equal(t, RoleSuperuser, RoleFor(UserInfo{ID: 1, IsModerator: true, IsSuperuser: true}))
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"":                     "",
		"Bearer":               "",
		"Bearer abc":           "abc",
		"bearer abc":           "abc",
		"Basic dXNlcjpwYXNz":   "",
		"Bearer abc def":       "",
		"  Bearer   moderator": "moderator",
	}
	for header, want := range tests {
		require.Equal(t, want, BearerToken(header), "header %q", header)
	}
}
