package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	RedisURL           string
	CORSAllowedOrigins []string

	UpstreamBaseURL             string
	UpstreamTimeout             time.Duration
	UpstreamRetryAttempts       int
	UpstreamRetryBase           time.Duration
	UpstreamBreakerMinRequests  int
	UpstreamBreakerFailureRatio float64
	UpstreamBreakerOpenFor      time.Duration

	CheckoutSessionTTL time.Duration
	SubmissionGuardTTL time.Duration
	RefdataCacheTTL    time.Duration
	IdempotencyTTL     time.Duration
	PricingClampAtZero bool

	RateLimit             string
	SubmitRateLimitMax    int
	SubmitRateLimitWindow time.Duration
	BodyLimitBytes        int64
	SecurityHeaders       bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		UpstreamBaseURL:             strings.TrimSpace(k.String("UPSTREAM_BASE_URL")),
		UpstreamTimeout:             parseDuration(k.String("UPSTREAM_TIMEOUT"), "5s"),
		UpstreamRetryAttempts:       parseInt(k.String("UPSTREAM_RETRY_ATTEMPTS"), 3),
		UpstreamRetryBase:           parseDuration(k.String("UPSTREAM_RETRY_BASE"), "100ms"),
		UpstreamBreakerMinRequests:  parseInt(k.String("UPSTREAM_BREAKER_MIN_REQUESTS"), 10),
		UpstreamBreakerFailureRatio: parseFloat(k.String("UPSTREAM_BREAKER_FAILURE_RATIO"), 0.5),
		UpstreamBreakerOpenFor:      parseDuration(k.String("UPSTREAM_BREAKER_OPEN_FOR"), "30s"),

		CheckoutSessionTTL: parseDuration(k.String("CHECKOUT_SESSION_TTL"), "30m"),
		SubmissionGuardTTL: parseDuration(k.String("SUBMISSION_GUARD_TTL"), "2m"),
		RefdataCacheTTL:    parseDuration(k.String("REFDATA_CACHE_TTL"), "5m"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		PricingClampAtZero: parseBool(k.String("PRICING_CLAMP_AT_ZERO")),

		RateLimit:             valueOrDefault(k.String("RATE_LIMIT_RPS"), "100-M"),
		SubmitRateLimitMax:    parseInt(k.String("SUBMIT_RATE_LIMIT_MAX"), 5),
		SubmitRateLimitWindow: parseDuration(k.String("SUBMIT_RATE_LIMIT_WINDOW"), "1m"),
		BodyLimitBytes:        int64(parseInt(k.String("BODY_LIMIT_BYTES"), 1<<20)),
		SecurityHeaders:       parseBoolDefault(k.String("SECURITY_HEADERS"), true),
	}

	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.UpstreamBaseURL == "" {
		return nil, errors.New("UPSTREAM_BASE_URL is required")
	}
	if cfg.UpstreamBreakerFailureRatio <= 0 || cfg.UpstreamBreakerFailureRatio > 1 {
		return nil, fmt.Errorf("UPSTREAM_BREAKER_FAILURE_RATIO must be within (0, 1], got %v", cfg.UpstreamBreakerFailureRatio)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	return parseBoolDefault(value, false)
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
