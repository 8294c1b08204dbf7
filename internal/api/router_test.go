package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Togather-Foundation/places/internal/api/handlers"
	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/Togather-Foundation/places/internal/config"
	"github.com/Togather-Foundation/places/internal/domain/places"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// stubService answers the calls the routing tests make; anything else
// panics through the nil embedded interfaces.
type stubService struct {
	handlers.PlaceService
	handlers.AcceptService
	handlers.RatingService
	handlers.ImageService

	listed int
}

func (s *stubService) ListPlaces(context.Context, auth.Principal, places.PlaceFilter, places.Page) (places.ListResult[places.Place], error) {
	s.listed++
	return places.ListResult[places.Place]{}, nil
}

func (s *stubService) DeleteImage(context.Context, auth.Principal, int64, bool) error {
	return nil
}

type tokenResolver map[string]auth.Principal

func (t tokenResolver) Resolve(_ context.Context, token string) auth.Principal {
	if p, ok := t[token]; ok {
		return p
	}
	return auth.Anonymous()
}

type pingOK struct{}

func (pingOK) Ping(context.Context) error { return nil }

func newTestRouter(t *testing.T, svc *stubService) http.Handler {
	t.Helper()
	cfg := config.Defaults()
	cfg.Environment = "test"
	cfg.RateLimit = config.RateLimitConfig{}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewRouter(ctx, Deps{
		Config:  cfg,
		Logger:  zerolog.Nop(),
		Service: svc,
		Resolver: tokenResolver{
			"user":      {Role: auth.RoleAuthenticated, UserID: 2},
			"moderator": {Role: auth.RoleModerator, UserID: 3},
			"superuser": {Role: auth.RoleSuperuser, UserID: 1},
		},
		Health: handlers.NewHealthChecker(pingOK{}, nil, "test", "test"),
	})
}

func TestRouterAuthorizationGate(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"anonymous list", http.MethodGet, "/api/v1/places", "", http.StatusUnauthorized},
		{"user list", http.MethodGet, "/api/v1/places", "user", http.StatusOK},
		{"user list trailing slash", http.MethodGet, "/api/v1/places/", "user", http.StatusOK},
		{"user update place", http.MethodPatch, "/api/v1/places/1", "user", http.StatusForbidden},
		{"moderator delete place", http.MethodDelete, "/api/v1/places/1", "moderator", http.StatusForbidden},
		{"user delete image", http.MethodDelete, "/api/v1/place_images/1", "user", http.StatusForbidden},
		{"moderator delete image", http.MethodDelete, "/api/v1/place_images/1/", "moderator", http.StatusNoContent},
		{"accept update is not routed", http.MethodPatch, "/api/v1/accepts/1", "superuser", http.StatusMethodNotAllowed},
		{"unknown collection", http.MethodGet, "/api/v1/events", "user", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(t, &stubService{})

			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			require.Equal(t, tt.want, rec.Code)
			require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestRouterOperationalEndpointsArePublic(t *testing.T) {
	router := newTestRouter(t, &stubService{})

	for _, path := range []string{"/healthz", "/readyz", "/health", "/version", "/metrics"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestRouterReachesService(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(t, svc)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/places?limit=5", nil)
	req.Header.Set("Authorization", "Bearer user")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, svc.listed)
	require.JSONEq(t, `{"count":0,"limit":5,"offset":0,"next":null,"previous":null,"results":[]}`, rec.Body.String())
}

func TestMethodMux(t *testing.T) {
	mux := methodMux(map[string]http.Handler{
		http.MethodGet:  http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }),
		http.MethodPost: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) }),
	})

	tests := []struct {
		method string
		status int
		allow  string
	}{
		{http.MethodGet, http.StatusOK, ""},
		{http.MethodPost, http.StatusCreated, ""},
		{http.MethodPut, http.StatusMethodNotAllowed, "GET, POST"},
		{http.MethodDelete, http.StatusMethodNotAllowed, "GET, POST"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, "/test", nil))
			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, tt.allow, rec.Header().Get("Allow"))
		})
	}
}

func TestAllowedMethods(t *testing.T) {
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	require.Equal(t, "GET", allowedMethods(map[string]http.Handler{http.MethodGet: noop}))
	require.Equal(t, "DELETE, GET, PATCH", allowedMethods(map[string]http.Handler{
		http.MethodPatch:  noop,
		http.MethodGet:    noop,
		http.MethodDelete: noop,
	}))
}
