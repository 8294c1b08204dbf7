package api

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/Togather-Foundation/places/internal/api/handlers"
	"github.com/Togather-Foundation/places/internal/api/middleware"
	"github.com/Togather-Foundation/places/internal/audit"
	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/Togather-Foundation/places/internal/config"
	"github.com/Togather-Foundation/places/internal/metrics"
	"github.com/rs/zerolog"
)

// Service is the domain surface the API exposes. *places.Service
// implements it.
type Service interface {
	handlers.PlaceService
	handlers.AcceptService
	handlers.RatingService
	handlers.ImageService
}

// BuildInfo is reported by /version.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
}

type Deps struct {
	Config   config.Config
	Logger   zerolog.Logger
	Service  Service
	Resolver middleware.Resolver
	Health   *handlers.HealthChecker
	Build    BuildInfo
}

// NewRouter assembles the HTTP surface. ctx bounds background work started
// by middleware, such as rate limiter cleanup.
func NewRouter(ctx context.Context, deps Deps) http.Handler {
	cfg := deps.Config
	env := cfg.Environment
	base := cfg.Server.BaseURL

	placesHandler := handlers.NewPlacesHandler(deps.Service, env, base)
	acceptsHandler := handlers.NewAcceptsHandler(deps.Service, env, base)
	ratingsHandler := handlers.NewRatingsHandler(deps.Service, env, base)
	imagesHandler := handlers.NewPlaceImagesHandler(deps.Service, env, base)

	guard := func(entity auth.Entity, action auth.Action, h http.HandlerFunc) http.Handler {
		return middleware.Require(entity, action, env)(h)
	}

	api := http.NewServeMux()
	handleCollection(api, "/api/v1/places", map[string]http.Handler{
		http.MethodGet:  guard(auth.EntityPlace, auth.ActionRead, placesHandler.List),
		http.MethodPost: guard(auth.EntityPlace, auth.ActionCreate, placesHandler.Create),
	})
	handleItem(api, "/api/v1/places", map[string]http.Handler{
		http.MethodGet:    guard(auth.EntityPlace, auth.ActionRead, placesHandler.Get),
		http.MethodPatch:  guard(auth.EntityPlace, auth.ActionUpdate, placesHandler.Update),
		http.MethodDelete: guard(auth.EntityPlace, auth.ActionDelete, placesHandler.Delete),
	})

	handleCollection(api, "/api/v1/accepts", map[string]http.Handler{
		http.MethodGet:  guard(auth.EntityAccept, auth.ActionRead, acceptsHandler.List),
		http.MethodPost: guard(auth.EntityAccept, auth.ActionCreate, acceptsHandler.Create),
	})
	handleItem(api, "/api/v1/accepts", map[string]http.Handler{
		http.MethodGet:    guard(auth.EntityAccept, auth.ActionRead, acceptsHandler.Get),
		http.MethodDelete: guard(auth.EntityAccept, auth.ActionDelete, acceptsHandler.Delete),
	})

	handleCollection(api, "/api/v1/ratings", map[string]http.Handler{
		http.MethodGet:  guard(auth.EntityRating, auth.ActionRead, ratingsHandler.List),
		http.MethodPost: guard(auth.EntityRating, auth.ActionCreate, ratingsHandler.Create),
	})
	handleItem(api, "/api/v1/ratings", map[string]http.Handler{
		http.MethodGet:    guard(auth.EntityRating, auth.ActionRead, ratingsHandler.Get),
		http.MethodDelete: guard(auth.EntityRating, auth.ActionDelete, ratingsHandler.Delete),
	})

	handleCollection(api, "/api/v1/place_images", map[string]http.Handler{
		http.MethodGet:  guard(auth.EntityPlaceImage, auth.ActionRead, imagesHandler.List),
		http.MethodPost: guard(auth.EntityPlaceImage, auth.ActionCreate, imagesHandler.Create),
	})
	handleItem(api, "/api/v1/place_images", map[string]http.Handler{
		http.MethodGet:    guard(auth.EntityPlaceImage, auth.ActionRead, imagesHandler.Get),
		http.MethodDelete: guard(auth.EntityPlaceImage, auth.ActionDelete, imagesHandler.Delete),
	})

	// Principal first, then the limiter keys on it, then the body cap.
	auditLog := audit.NewLogger(deps.Logger, auth.RoleModerator)
	apiChain := middleware.Authenticate(deps.Resolver)(
		middleware.RateLimit(ctx, cfg.RateLimit)(
			middleware.RequestSize(middleware.DefaultMaxBodySize)(
				auditLog.Middleware(api))))

	root := http.NewServeMux()
	root.Handle("/api/", apiChain)
	if deps.Health != nil {
		root.Handle("/health", deps.Health.Health())
		root.Handle("/healthz", deps.Health.Healthz())
		root.Handle("/readyz", deps.Health.Readyz())
	}
	root.Handle("/version", VersionHandler(deps.Build))
	root.Handle("/metrics", metrics.Handler())

	var handler http.Handler = root
	handler = middleware.CORS(cfg.CORS)(handler)
	handler = middleware.SecurityHeaders(env == "production")(handler)
	handler = middleware.RequestLogging()(handler)
	handler = metrics.HTTPMiddleware(handler)
	if cfg.Tracing.Enabled {
		handler = middleware.Tracing(handler)
	}
	handler = middleware.CorrelationID(deps.Logger)(handler)
	return handler
}

// handleCollection serves path with and without a trailing slash.
func handleCollection(mux *http.ServeMux, path string, handlers map[string]http.Handler) {
	h := methodMux(handlers)
	mux.Handle(path, h)
	mux.Handle(path+"/{$}", h)
}

func handleItem(mux *http.ServeMux, path string, handlers map[string]http.Handler) {
	h := methodMux(handlers)
	mux.Handle(path+"/{id}", h)
	mux.Handle(path+"/{id}/{$}", h)
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
