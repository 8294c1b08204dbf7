// Package media checks image references against the Media service.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Togather-Foundation/places/internal/domain/places"
	"github.com/Togather-Foundation/places/internal/metrics"
	"github.com/Togather-Foundation/places/internal/telemetry"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 5 * time.Second

	imagesPath = "/api/images/"
)

var (
	ErrRequest            = errors.New("media service request failed")
	ErrUnexpectedResponse = errors.New("unexpected media service response")
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

var _ places.MediaValidator = (*Client)(nil)

// ImageExists reports whether picID resolves in the Media service. A 404
// is a definite no; any other non-200 status is an error.
func (c *Client) ImageExists(ctx context.Context, picID int64, token string) (exists bool, err error) {
	start := time.Now()
	ctx, span := telemetry.StartUpstream(ctx, "media", "image")
	defer func() {
		metrics.RecordUpstream("media", "image", start, err)
		telemetry.EndUpstream(span, err)
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return false, fmt.Errorf("%w: rate limiter: %v", ErrRequest, err)
	}

	url := c.baseURL + imagesPath + strconv.FormatInt(picID, 10) + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	telemetry.InjectHeaders(ctx, req.Header)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		_ = resp.Body.Close()
	}()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("%w: image %d returned %d", ErrUnexpectedResponse, picID, resp.StatusCode)
	}
}
