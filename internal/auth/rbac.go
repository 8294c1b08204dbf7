package auth

import "strings"

// Role is the caller's privilege level. Roles are totally ordered, so a
// permission check is a single comparison against the required minimum.
type Role int

const (
	RoleAnonymous Role = iota
	RoleAuthenticated
	RoleModerator
	RoleSuperuser
)

func (r Role) String() string {
	switch r {
	case RoleAnonymous:
		return "anonymous"
	case RoleAuthenticated:
		return "authenticated"
	case RoleModerator:
		return "moderator"
	case RoleSuperuser:
		return "superuser"
	default:
		return "unknown"
	}
}

// AtLeast reports whether r grants everything min grants.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}

// ParseRole maps a role name back to its Role. Unknown names resolve to
// RoleAnonymous with ok=false.
func ParseRole(name string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "anonymous":
		return RoleAnonymous, true
	case "authenticated", "user":
		return RoleAuthenticated, true
	case "moderator":
		return RoleModerator, true
	case "superuser":
		return RoleSuperuser, true
	default:
		return RoleAnonymous, false
	}
}

// RoleFor derives the role granted by an Auth service user record.
func RoleFor(info UserInfo) Role {
	switch {
	case info.IsSuperuser:
		return RoleSuperuser
	case info.IsModerator:
		return RoleModerator
	default:
		return RoleAuthenticated
	}
}
