// Package authsvc talks to the Auth service that owns user accounts and
// bearer tokens.
package authsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/Togather-Foundation/places/internal/metrics"
	"github.com/Togather-Foundation/places/internal/telemetry"
	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 5 * time.Second

	userInfoPath    = "/api/user_info/"
	verifyTokenPath = "/api/api-verify-token/"
)

var (
	// ErrRequest wraps transport failures (connection refused, timeouts).
	ErrRequest = errors.New("auth service request failed")
	// ErrUnexpectedResponse means the service answered with a status or
	// shape the client does not understand.
	ErrUnexpectedResponse = errors.New("unexpected auth service response")
	// ErrDecode means the response body was not valid JSON.
	ErrDecode = errors.New("decode auth service response")
)

// Client is the HTTP implementation of auth.IdentityProvider.
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

// WithRateLimit caps outgoing requests per second.
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

var _ auth.IdentityProvider = (*Client)(nil)

// VerifyToken asks the service whether token is currently valid. Any status
// other than 200 means invalid; only transport failures are errors.
func (c *Client) VerifyToken(ctx context.Context, token string) (valid bool, err error) {
	start := time.Now()
	ctx, span := telemetry.StartUpstream(ctx, "auth", "verify_token")
	defer func() {
		metrics.RecordUpstream("auth", "verify_token", start, err)
		telemetry.EndUpstream(span, err)
	}()

	body, err := json.Marshal(map[string]string{"token": token})
	if err != nil {
		return false, fmt.Errorf("encode verify request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, verifyTokenPath, "", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	defer drain(resp)

	return resp.StatusCode == http.StatusOK, nil
}

// userInfoPayload uses pointers so absent role flags can be told apart
// from false ones.
type userInfoPayload struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	IsModerator *bool  `json:"is_moderator"`
	IsSuperuser *bool  `json:"is_superuser"`
}

// UserInfo fetches the account behind token.
func (c *Client) UserInfo(ctx context.Context, token string) (info auth.UserInfo, err error) {
	start := time.Now()
	ctx, span := telemetry.StartUpstream(ctx, "auth", "user_info")
	defer func() {
		metrics.RecordUpstream("auth", "user_info", start, err)
		telemetry.EndUpstream(span, err)
	}()

	resp, err := c.do(ctx, http.MethodGet, userInfoPath, token, nil)
	if err != nil {
		return auth.UserInfo{}, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return auth.UserInfo{}, fmt.Errorf("%w: user_info returned %d", ErrUnexpectedResponse, resp.StatusCode)
	}

	var payload userInfoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return auth.UserInfo{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if payload.IsModerator == nil || payload.IsSuperuser == nil {
		return auth.UserInfo{}, fmt.Errorf("%w: user_info is missing role flags", ErrUnexpectedResponse)
	}

	return auth.UserInfo{
		ID:          payload.ID,
		Username:    payload.Username,
		Email:       payload.Email,
		IsModerator: *payload.IsModerator,
		IsSuperuser: *payload.IsSuperuser,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	telemetry.InjectHeaders(ctx, req.Header)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequest, err)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
