package auth

import "context"

type contextKey string

const principalKey contextKey = "principal"

// UserInfo is the user record returned by the Auth service.
type UserInfo struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsModerator bool   `json:"is_moderator"`
	IsSuperuser bool   `json:"is_superuser"`
}

// Principal is the resolved identity of the caller for one request.
type Principal struct {
	Role     Role   `json:"role"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	// Token is the raw bearer token, forwarded to collaborators that need it.
	Token string `json:"-"`
}

func Anonymous() Principal {
	return Principal{Role: RoleAnonymous}
}

func (p Principal) IsAnonymous() bool {
	return p.Role == RoleAnonymous
}

func (p Principal) IsSuperuser() bool {
	return p.Role == RoleSuperuser
}

// WithPrincipal stores p on the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal attached by WithPrincipal, or
// an anonymous principal when none was attached.
func PrincipalFromContext(ctx context.Context) Principal {
	if p, ok := ctx.Value(principalKey).(Principal); ok {
		return p
	}
	return Anonymous()
}
