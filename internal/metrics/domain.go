package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Domain metrics
var (
	// SoftDeletesTotal counts rows tombstoned, by entity and trigger (direct|cascade)
	SoftDeletesTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soft_deletes_total",
			Help:      "Total number of rows soft-deleted",
		},
		[]string{"entity", "trigger"},
	)

	// CascadeRunsTotal counts place deletions that fanned out to children
	CascadeRunsTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cascade_runs_total",
			Help:      "Total number of place soft-delete cascades executed",
		},
	)

	// RatingSupersessionsTotal counts ratings replaced by a newer rating from the same user
	RatingSupersessionsTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rating_supersessions_total",
			Help:      "Total number of ratings superseded by a newer rating",
		},
	)

	// UniquenessConflictsTotal counts store-level unique violations, by entity
	UniquenessConflictsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uniqueness_conflicts_total",
			Help:      "Total number of one-active-per-user conflicts detected",
		},
		[]string{"entity"},
	)

	// RoleResolutionsTotal counts caller resolutions by outcome
	// (no_token|cache_hit|invalid_token|upstream_error|resolved)
	RoleResolutionsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "role_resolutions_total",
			Help:      "Total number of bearer token resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// UpstreamRequestsTotal counts calls to collaborating services
	UpstreamRequestsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_requests_total",
			Help:      "Total number of requests to collaborating services",
		},
		[]string{"service", "endpoint", "outcome"}, // service: auth|media|stats, outcome: success|error
	)

	// UpstreamLatency records collaborator request latency
	UpstreamLatency = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_latency_seconds",
			Help:      "Collaborating service request latency in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"service", "endpoint"},
	)
)

// RecordUpstream records one collaborator call. Call it with defer:
//
//	start := time.Now()
//	defer func() { metrics.RecordUpstream("auth", "verify_token", start, err) }()
func RecordUpstream(service, endpoint string, start time.Time, err error) {
	UpstreamLatency.WithLabelValues(service, endpoint).Observe(time.Since(start).Seconds())
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	UpstreamRequestsTotal.WithLabelValues(service, endpoint, outcome).Inc()
}
