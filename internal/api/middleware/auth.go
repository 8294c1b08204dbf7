package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/Togather-Foundation/places/internal/api/problem"
	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/rs/zerolog"
)

const principalSlotKey contextKey = "principal_slot"

// withPrincipalSlot lets an outer middleware observe the principal that
// Authenticate resolves further down the chain.
func withPrincipalSlot(ctx context.Context, slot *auth.Principal) context.Context {
	return context.WithValue(ctx, principalSlotKey, slot)
}

// Resolver turns a bearer token into the caller's principal.
type Resolver interface {
	Resolve(ctx context.Context, token string) auth.Principal
}

// Authenticate resolves the Authorization header once per request and
// stores the principal on the context. It never rejects: callers without a
// usable token continue as anonymous and are stopped by Require.
func Authenticate(resolver Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			p := resolver.Resolve(ctx, auth.BearerToken(r.Header.Get("Authorization")))

			if slot, ok := ctx.Value(principalSlotKey).(*auth.Principal); ok {
				*slot = p
			}
			ctx = auth.WithPrincipal(ctx, p)
			if !p.IsAnonymous() {
				logger := zerolog.Ctx(ctx).With().Int64("user_id", p.UserID).Logger()
				ctx = logger.WithContext(ctx)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Require rejects callers whose role is below what entity/action needs.
func Require(entity auth.Entity, action auth.Action, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			err := auth.Authorize(auth.PrincipalFromContext(r.Context()), entity, action)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case errors.Is(err, auth.ErrUnauthenticated):
				w.Header().Set("WWW-Authenticate", `Bearer realm="places"`)
				problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Authentication required", err, env,
					problem.WithDetail("A valid bearer token is required"))
			default:
				problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Forbidden", err, env,
					problem.WithDetail("Your role does not permit this operation"))
			}
		})
	}
}
