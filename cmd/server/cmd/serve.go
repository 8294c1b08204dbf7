package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Togather-Foundation/places/internal/api"
	"github.com/Togather-Foundation/places/internal/api/handlers"
	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/Togather-Foundation/places/internal/cache"
	"github.com/Togather-Foundation/places/internal/clients/authsvc"
	"github.com/Togather-Foundation/places/internal/clients/media"
	"github.com/Togather-Foundation/places/internal/clients/stats"
	"github.com/Togather-Foundation/places/internal/config"
	"github.com/Togather-Foundation/places/internal/domain/places"
	"github.com/Togather-Foundation/places/internal/metrics"
	"github.com/Togather-Foundation/places/internal/storage/postgres"
	"github.com/Togather-Foundation/places/internal/telemetry"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 10 * time.Second
	dbCollectInterval = 15 * time.Second
)

type serveOptions struct {
	host string
	port int
}

func newServeCommand(global *globalOptions) *cobra.Command {
	opts := serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the places HTTP server",
		Long: `Start the places HTTP server and begin accepting API requests.

The server will:
- Load configuration from environment variables (and --config if given)
- Connect to PostgreSQL and, when REDIS_URL is set, Redis
- Serve /api/v1 plus /healthz, /readyz and /metrics
- Shut down gracefully on SIGINT/SIGTERM

Examples:
  # Start with configuration from the environment
  server serve

  # Start on a specific host and port
  server serve --host 127.0.0.1 --port 9090

  # Start with a config file and debug logging
  server serve --config /etc/togather/places.yaml --log-level debug`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), global, opts)
		},
	}
	cmd.Flags().StringVar(&opts.host, "host", "", "server host address (default: 0.0.0.0)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "server port (default: 8080)")
	return cmd
}

func runServer(ctx context.Context, global *globalOptions, opts serveOptions) error {
	cfg, err := global.loadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if opts.host != "" {
		cfg.Server.Host = opts.host
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	logger := config.NewLogger(cfg.Logging)
	logger.Info().Str("version", Version).Str("environment", cfg.Environment).Msg("starting places server")
	ctx = logger.WithContext(ctx)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Init(Version, GitCommit, BuildDate)

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Tracing, Version)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error().Err(err).Msg("tracing shutdown error")
		}
	}()

	pool, err := postgres.OpenPool(ctx, cfg.Database.URL, cfg.Database.MaxConnections)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	repo, err := postgres.NewRepository(pool)
	if err != nil {
		return fmt.Errorf("init repository: %w", err)
	}

	principalCache, closeCache, err := openPrincipalCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	resolver := auth.NewResolver(identityProvider(cfg, logger), principalCache)
	service := places.NewService(repo, newMediaClient(cfg), eventReporter(cfg, logger))
	health := handlers.NewHealthChecker(pool, func(context.Context) (uint, bool, error) {
		return postgres.MigrationVersion(cfg.Database.URL)
	}, Version, GitCommit)

	server := &http.Server{
		Addr: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: api.NewRouter(ctx, api.Deps{
			Config:   cfg,
			Logger:   logger,
			Service:  service,
			Resolver: resolver,
			Health:   health,
			Build:    api.BuildInfo{Version: Version, GitCommit: GitCommit, BuildDate: BuildDate},
		}),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", server.Addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return metrics.NewDBCollector(pool).Run(gctx, dbCollectInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		logger.Info().Msg("server stopped")
		return nil
	})
	return g.Wait()
}

func identityProvider(cfg config.Config, logger zerolog.Logger) auth.IdentityProvider {
	if cfg.Auth.Mode == config.AuthModeFixture {
		logger.Warn().Msg("AUTH_MODE=fixture: tokens user, moderator and superuser are accepted as-is")
		return authsvc.Fixture{}
	}
	return authsvc.NewClient(cfg.Auth.BaseURL, authsvc.WithHTTPClient(&http.Client{Timeout: cfg.Auth.Timeout}))
}

// openPrincipalCache returns a nil cache when Redis is not configured. The
// nil is an untyped interface so the resolver's nil check holds.
func openPrincipalCache(ctx context.Context, cfg config.Config, logger zerolog.Logger) (auth.PrincipalCache, func(), error) {
	if cfg.Redis.URL == "" || cfg.Auth.CacheTTL <= 0 {
		return nil, func() {}, nil
	}
	client, err := cache.Connect(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	logger.Info().Dur("ttl", cfg.Auth.CacheTTL).Msg("principal cache enabled")
	return cache.NewPrincipals(client, cfg.Auth.CacheTTL), func() { _ = client.Close() }, nil
}

func newMediaClient(cfg config.Config) *media.Client {
	return media.NewClient(cfg.Media.BaseURL, media.WithHTTPClient(&http.Client{Timeout: cfg.Media.Timeout}))
}

func eventReporter(cfg config.Config, logger zerolog.Logger) places.EventReporter {
	if !cfg.Stats.Enabled {
		logger.Info().Msg("stats reporting disabled")
		return stats.Nop{}
	}
	return stats.NewReporter(cfg.Stats.BaseURL, stats.WithHTTPClient(&http.Client{Timeout: cfg.Stats.Timeout}))
}
