package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Togather-Foundation/places/internal/validation"
)

const (
	AuthModeHTTP    = "http"
	AuthModeFixture = "fixture"
)

type Config struct {
	Server      ServerConfig    `yaml:"server"`
	Database    DatabaseConfig  `yaml:"database"`
	Logging     LoggingConfig   `yaml:"logging"`
	Auth        AuthConfig      `yaml:"auth"`
	Media       MediaConfig     `yaml:"media"`
	Stats       StatsConfig     `yaml:"stats"`
	Redis       RedisConfig     `yaml:"redis"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	CORS        CORSConfig      `yaml:"cors"`
	Tracing     TracingConfig   `yaml:"tracing"`
	Environment string          `yaml:"environment"`
}

type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"`
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MaxConnections int    `yaml:"max_connections"`
	MaxIdle        int    `yaml:"max_idle"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AuthConfig selects and configures the identity provider.
type AuthConfig struct {
	Mode     string        `yaml:"mode"`
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type MediaConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type StatsConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// RedisConfig enables the principal cache when URL is set.
type RedisConfig struct {
	URL string `yaml:"url"`
}

type RateLimitConfig struct {
	AnonymousPerMinute     int      `yaml:"anonymous_per_minute"`
	AuthenticatedPerMinute int      `yaml:"authenticated_per_minute"`
	TrustedProxyCIDRs      []string `yaml:"trusted_proxy_cidrs"`
}

type CORSConfig struct {
	AllowAllOrigins bool     `yaml:"allow_all_origins"`
	AllowedOrigins  []string `yaml:"allowed_origins"`
}

type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter"`
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"`
	SampleRate   float64 `yaml:"sample_rate"`
}

// Defaults returns the built-in configuration before any file or
// environment overrides are applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8080,
			BaseURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{
			MaxConnections: 25,
			MaxIdle:        5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Auth: AuthConfig{
			Mode:     AuthModeHTTP,
			Timeout:  5 * time.Second,
			CacheTTL: time.Minute,
		},
		Media: MediaConfig{
			Timeout: 5 * time.Second,
		},
		Stats: StatsConfig{
			Enabled: true,
			Timeout: 2 * time.Second,
		},
		RateLimit: RateLimitConfig{
			AnonymousPerMinute:     60,
			AuthenticatedPerMinute: 300,
		},
		Tracing: TracingConfig{
			Exporter:     "stdout",
			ServiceName:  "places",
			OTLPEndpoint: "localhost:4317",
			SampleRate:   1.0,
		},
		Environment: "development",
	}
}

// Load reads configuration from environment variables only.
func Load() (Config, error) {
	return LoadFile("")
}

// LoadFile layers configuration as defaults, then the YAML file at path
// (when non-empty), then environment variables. The result is not validated.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := overlayFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	return applyEnv(cfg), nil
}

func applyEnv(base Config) Config {
	cfg := base
	cfg.Server.Host = getEnv("SERVER_HOST", base.Server.Host)
	cfg.Server.Port = getEnvInt("SERVER_PORT", base.Server.Port)
	cfg.Server.BaseURL = getEnv("SERVER_BASE_URL", base.Server.BaseURL)

	cfg.Database.URL = getEnv("DATABASE_URL", base.Database.URL)
	cfg.Database.MaxConnections = getEnvInt("DATABASE_MAX_CONNECTIONS", base.Database.MaxConnections)
	cfg.Database.MaxIdle = getEnvInt("DATABASE_MAX_IDLE_CONNECTIONS", base.Database.MaxIdle)

	cfg.Logging.Level = getEnv("LOG_LEVEL", base.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", base.Logging.Format)

	cfg.Auth.Mode = strings.ToLower(getEnv("AUTH_MODE", base.Auth.Mode))
	cfg.Auth.BaseURL = getEnv("AUTH_BASE_URL", base.Auth.BaseURL)
	cfg.Auth.Timeout = getEnvDuration("AUTH_TIMEOUT", base.Auth.Timeout)
	cfg.Auth.CacheTTL = getEnvDuration("AUTH_CACHE_TTL", base.Auth.CacheTTL)

	cfg.Media.BaseURL = getEnv("MEDIA_BASE_URL", base.Media.BaseURL)
	cfg.Media.Timeout = getEnvDuration("MEDIA_TIMEOUT", base.Media.Timeout)

	cfg.Stats.Enabled = getEnvBool("STATS_ENABLED", base.Stats.Enabled)
	cfg.Stats.BaseURL = getEnv("STATS_BASE_URL", base.Stats.BaseURL)
	cfg.Stats.Timeout = getEnvDuration("STATS_TIMEOUT", base.Stats.Timeout)

	cfg.Redis.URL = getEnv("REDIS_URL", base.Redis.URL)

	cfg.RateLimit.AnonymousPerMinute = getEnvInt("RATE_LIMIT_ANONYMOUS", base.RateLimit.AnonymousPerMinute)
	cfg.RateLimit.AuthenticatedPerMinute = getEnvInt("RATE_LIMIT_AUTHENTICATED", base.RateLimit.AuthenticatedPerMinute)
	cfg.RateLimit.TrustedProxyCIDRs = getEnvList("TRUSTED_PROXY_CIDRS", base.RateLimit.TrustedProxyCIDRs)

	cfg.CORS.AllowAllOrigins = getEnvBool("CORS_ALLOW_ALL", base.CORS.AllowAllOrigins)
	cfg.CORS.AllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", base.CORS.AllowedOrigins)

	cfg.Tracing.Enabled = getEnvBool("TRACING_ENABLED", base.Tracing.Enabled)
	cfg.Tracing.Exporter = getEnv("TRACING_EXPORTER", base.Tracing.Exporter)
	cfg.Tracing.ServiceName = getEnv("TRACING_SERVICE_NAME", base.Tracing.ServiceName)
	cfg.Tracing.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", base.Tracing.OTLPEndpoint)
	cfg.Tracing.SampleRate = getEnvFloat("TRACING_SAMPLE_RATE", base.Tracing.SampleRate)

	cfg.Environment = getEnv("ENVIRONMENT", base.Environment)
	return cfg
}

// Validate reports the first missing or inconsistent setting.
func (c Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch c.Auth.Mode {
	case AuthModeHTTP:
		if c.Auth.BaseURL == "" {
			return fmt.Errorf("AUTH_BASE_URL is required when AUTH_MODE=%s", AuthModeHTTP)
		}
	case AuthModeFixture:
	default:
		return fmt.Errorf("unsupported AUTH_MODE %q (must be %q or %q)", c.Auth.Mode, AuthModeHTTP, AuthModeFixture)
	}
	if c.Media.BaseURL == "" {
		return fmt.Errorf("MEDIA_BASE_URL is required")
	}
	if c.Stats.Enabled && c.Stats.BaseURL == "" {
		return fmt.Errorf("STATS_BASE_URL is required when STATS_ENABLED=true")
	}
	if c.Environment == "production" && !c.CORS.AllowAllOrigins && len(c.CORS.AllowedOrigins) == 0 {
		return fmt.Errorf("CORS_ALLOWED_ORIGINS is required in production")
	}
	if err := validation.PublicBaseURL("SERVER_BASE_URL", c.Server.BaseURL); err != nil {
		return err
	}
	upstreams := []struct{ setting, raw string }{
		{"MEDIA_BASE_URL", c.Media.BaseURL},
	}
	if c.Auth.Mode == AuthModeHTTP {
		upstreams = append(upstreams, struct{ setting, raw string }{"AUTH_BASE_URL", c.Auth.BaseURL})
	}
	if c.Stats.Enabled {
		upstreams = append(upstreams, struct{ setting, raw string }{"STATS_BASE_URL", c.Stats.BaseURL})
	}
	for _, u := range upstreams {
		if err := validation.ServiceURL(u.setting, u.raw); err != nil {
			return err
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
