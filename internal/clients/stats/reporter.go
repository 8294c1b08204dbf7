// Package stats forwards usage events to the Stats service.
package stats

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Togather-Foundation/places/internal/domain/places"
	"github.com/Togather-Foundation/places/internal/metrics"
	"github.com/Togather-Foundation/places/internal/telemetry"
	"github.com/oklog/ulid/v2"
)

const (
	DefaultTimeout = 2 * time.Second

	actionsPath = "/api/actions/"
)

var (
	ErrRequest            = errors.New("stats service request failed")
	ErrUnexpectedResponse = errors.New("unexpected stats service response")
)

// payload is the wire shape of one action.
type payload struct {
	EventID    string    `json:"event_id"`
	Action     string    `json:"action"`
	PlaceID    int64     `json:"place_id"`
	UserID     int64     `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Reporter posts each event once. It never retries; a lost event is logged
// by the caller and forgotten.
type Reporter struct {
	httpClient *http.Client
	baseURL    string
	now        func() time.Time
}

type Option func(*Reporter)

func WithHTTPClient(client *http.Client) Option {
	return func(r *Reporter) {
		r.httpClient = client
	}
}

func NewReporter(baseURL string, opts ...Option) *Reporter {
	r := &Reporter{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ places.EventReporter = (*Reporter)(nil)

func (r *Reporter) Report(ctx context.Context, e places.Event) (err error) {
	start := time.Now()
	ctx, span := telemetry.StartUpstream(ctx, "stats", "actions")
	defer func() {
		metrics.RecordUpstream("stats", "actions", start, err)
		telemetry.EndUpstream(span, err)
	}()

	now := r.now().UTC()
	id, err := ulid.New(ulid.Timestamp(now), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate event id: %w", err)
	}
	body, err := json.Marshal(payload{
		EventID:    id.String(),
		Action:     string(e.Action),
		PlaceID:    e.PlaceID,
		UserID:     e.UserID,
		OccurredAt: now,
	})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+actionsPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	telemetry.InjectHeaders(ctx, req.Header)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: actions returned %d", ErrUnexpectedResponse, resp.StatusCode)
	}
	return nil
}

// Nop discards events. It is used when STATS_ENABLED is false.
type Nop struct{}

func (Nop) Report(context.Context, places.Event) error { return nil }
