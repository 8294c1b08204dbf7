// Package cache keeps resolved principals in Redis so repeated requests
// with the same bearer token skip the Auth service round trip.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Togather-Foundation/places/internal/auth"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "places:principal:"

// kv is the subset of the Redis client the cache needs.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// Principals implements auth.PrincipalCache. Keys are token hashes; the raw
// token is never written to Redis.
type Principals struct {
	client kv
	ttl    time.Duration
}

var _ auth.PrincipalCache = (*Principals)(nil)

func NewPrincipals(client redis.Cmdable, ttl time.Duration) *Principals {
	return &Principals{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *Principals) Get(ctx context.Context, token string) (auth.Principal, bool, error) {
	raw, err := c.client.Get(ctx, key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return auth.Principal{}, false, nil
	}
	if err != nil {
		return auth.Principal{}, false, fmt.Errorf("get principal: %w", err)
	}

	var p auth.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return auth.Principal{}, false, fmt.Errorf("decode principal: %w", err)
	}
	return p, true, nil
}

func (c *Principals) Set(ctx context.Context, token string, p auth.Principal) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode principal: %w", err)
	}
	if err := c.client.Set(ctx, key(token), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("set principal: %w", err)
	}
	return nil
}

func key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return keyPrefix + hex.EncodeToString(sum[:])
}
