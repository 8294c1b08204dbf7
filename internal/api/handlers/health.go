package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HealthCheck represents the health status of the server
type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	GitCommit string                 `json:"git_commit"`
	Checks    map[string]CheckResult `json:"checks"`
	Timestamp string                 `json:"timestamp"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status    string         `json:"status"`
	Message   string         `json:"message,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}

// Pinger is satisfied by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// MigrationState reports the applied schema version and whether the last
// migration left it dirty.
type MigrationState func(ctx context.Context) (version uint, dirty bool, err error)

// HealthChecker backs /health, /healthz and /readyz.
type HealthChecker struct {
	db         Pinger
	migrations MigrationState
	version    string
	gitCommit  string
}

// NewHealthChecker creates a health checker. migrations may be nil.
func NewHealthChecker(db Pinger, migrations MigrationState, version, gitCommit string) *HealthChecker {
	return &HealthChecker{
		db:         db,
		migrations: migrations,
		version:    version,
		gitCommit:  gitCommit,
	}
}

// Health reports every check with details. Any failing check turns the
// response into a 503.
func (h *HealthChecker) Health() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		checks := map[string]CheckResult{
			"database": h.checkDatabase(ctx),
		}
		if h.migrations != nil {
			checks["migrations"] = h.checkMigrations(ctx)
		}

		status, code := "healthy", http.StatusOK
		for _, check := range checks {
			if check.Status == "fail" {
				status, code = "unhealthy", http.StatusServiceUnavailable
				break
			}
		}

		writeJSON(w, code, HealthCheck{
			Status:    status,
			Version:   h.version,
			GitCommit: h.gitCommit,
			Checks:    checks,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
	})
}

// Healthz is the liveness probe: the process is up and serving.
func (h *HealthChecker) Healthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondHealth(w, http.StatusOK, "ok")
	})
}

// Readyz is the readiness probe: the database answers a ping.
func (h *HealthChecker) Readyz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if check := h.checkDatabase(ctx); check.Status != "pass" {
			respondHealth(w, http.StatusServiceUnavailable, "unavailable")
			return
		}
		respondHealth(w, http.StatusOK, "ready")
	})
}

func (h *HealthChecker) checkDatabase(ctx context.Context) CheckResult {
	if h.db == nil {
		return CheckResult{Status: "fail", Message: "Database pool not initialized"}
	}

	start := time.Now()
	dbCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := h.db.Ping(dbCtx); err != nil {
		return CheckResult{
			Status:    "fail",
			Message:   "Database ping failed",
			LatencyMs: time.Since(start).Milliseconds(),
			Details:   map[string]any{"error": err.Error()},
		}
	}
	return CheckResult{
		Status:    "pass",
		Message:   "PostgreSQL connection successful",
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func (h *HealthChecker) checkMigrations(ctx context.Context) CheckResult {
	version, dirty, err := h.migrations(ctx)
	switch {
	case err != nil:
		return CheckResult{
			Status:  "fail",
			Message: "Failed to read migration version",
			Details: map[string]any{"error": err.Error()},
		}
	case dirty:
		return CheckResult{
			Status:  "fail",
			Message: fmt.Sprintf("Migration %d is dirty", version),
			Details: map[string]any{
				"version":     version,
				"dirty":       true,
				"remediation": "Fix the failed migration, then run: server migrate force <version>",
			},
		}
	}
	return CheckResult{
		Status:  "pass",
		Message: fmt.Sprintf("Migrations applied successfully (version %d)", version),
		Details: map[string]any{"version": version, "dirty": false},
	}
}

type healthResponse struct {
	Status string `json:"status"`
}

func respondHealth(w http.ResponseWriter, status int, value string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(healthResponse{Status: value})
}
