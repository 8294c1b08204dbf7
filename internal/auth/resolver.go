package auth

import (
	"context"

	"github.com/Togather-Foundation/places/internal/metrics"
	"github.com/rs/zerolog"
)

// IdentityProvider is the Auth service as seen by the resolver.
type IdentityProvider interface {
	VerifyToken(ctx context.Context, token string) (bool, error)
	UserInfo(ctx context.Context, token string) (UserInfo, error)
}

// PrincipalCache remembers successfully resolved tokens. Implementations may
// drop entries at any time.
type PrincipalCache interface {
	Get(ctx context.Context, token string) (Principal, bool, error)
	Set(ctx context.Context, token string, p Principal) error
}

// Resolver turns a bearer token into a Principal. It never fails: any
// problem talking to the identity provider degrades the caller to anonymous.
type Resolver struct {
	provider IdentityProvider
	cache    PrincipalCache
}

func NewResolver(provider IdentityProvider, cache PrincipalCache) *Resolver {
	return &Resolver{provider: provider, cache: cache}
}

func (r *Resolver) Resolve(ctx context.Context, token string) Principal {
	logger := zerolog.Ctx(ctx)
	if token == "" || r == nil || r.provider == nil {
		metrics.RoleResolutionsTotal.WithLabelValues("no_token").Inc()
		return Anonymous()
	}

	if r.cache != nil {
		p, ok, err := r.cache.Get(ctx, token)
		if err != nil {
			logger.Debug().Err(err).Msg("principal cache read failed")
		} else if ok {
			metrics.RoleResolutionsTotal.WithLabelValues("cache_hit").Inc()
			p.Token = token
			return p
		}
	}

	valid, err := r.provider.VerifyToken(ctx, token)
	if err != nil {
		logger.Warn().Err(err).Msg("token verification failed, treating caller as anonymous")
		metrics.RoleResolutionsTotal.WithLabelValues("upstream_error").Inc()
		return Anonymous()
	}
	if !valid {
		metrics.RoleResolutionsTotal.WithLabelValues("invalid_token").Inc()
		return Anonymous()
	}

	info, err := r.provider.UserInfo(ctx, token)
	if err != nil {
		logger.Warn().Err(err).Msg("user info lookup failed, treating caller as anonymous")
		metrics.RoleResolutionsTotal.WithLabelValues("upstream_error").Inc()
		return Anonymous()
	}

	p := Principal{
		Role:     RoleFor(info),
		UserID:   info.ID,
		Username: info.Username,
		Token:    token,
	}
	if r.cache != nil {
		if err := r.cache.Set(ctx, token, p); err != nil {
			logger.Debug().Err(err).Msg("principal cache write failed")
		}
	}
	metrics.RoleResolutionsTotal.WithLabelValues("resolved").Inc()
	return p
}
