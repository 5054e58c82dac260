package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"REDIS_URL":         "redis://localhost:6379/0",
		"UPSTREAM_BASE_URL": "http://orders.internal",
	})
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 30*time.Minute, cfg.CheckoutSessionTTL)
	require.Equal(t, 2*time.Minute, cfg.SubmissionGuardTTL)
	require.Equal(t, 3, cfg.UpstreamRetryAttempts)
	require.Equal(t, 0.5, cfg.UpstreamBreakerFailureRatio)
	require.Equal(t, "100-M", cfg.RateLimit)
	require.False(t, cfg.PricingClampAtZero)
	require.True(t, cfg.SecurityHeaders)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := LoadForTests(map[string]string{
		"REDIS_URL":                      "redis://localhost:6379/0",
		"UPSTREAM_BASE_URL":              "http://orders.internal",
		"PORT":                           ":9000",
		"CORS_ALLOWED_ORIGINS":           "https://shop.example, https://m.shop.example ,",
		"UPSTREAM_TIMEOUT":               "750ms",
		"UPSTREAM_BREAKER_FAILURE_RATIO": "0.25",
		"PRICING_CLAMP_AT_ZERO":          "true",
		"SECURITY_HEADERS":               "off",
		"SUBMIT_RATE_LIMIT_MAX":          "nope",
	})
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddr())
	require.Equal(t, []string{"https://shop.example", "https://m.shop.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 750*time.Millisecond, cfg.UpstreamTimeout)
	require.Equal(t, 0.25, cfg.UpstreamBreakerFailureRatio)
	require.True(t, cfg.PricingClampAtZero)
	require.False(t, cfg.SecurityHeaders)
	require.Equal(t, 5, cfg.SubmitRateLimitMax)
}

func TestLoadRequiresUpstreamAndRedis(t *testing.T) {
	_, err := LoadForTests(map[string]string{"REDIS_URL": "", "UPSTREAM_BASE_URL": "http://orders.internal"})
	require.ErrorContains(t, err, "REDIS_URL")

	_, err = LoadForTests(map[string]string{"REDIS_URL": "redis://localhost:6379/0", "UPSTREAM_BASE_URL": ""})
	require.ErrorContains(t, err, "UPSTREAM_BASE_URL")

	_, err = LoadForTests(map[string]string{
		"REDIS_URL":                      "redis://localhost:6379/0",
		"UPSTREAM_BASE_URL":              "http://orders.internal",
		"UPSTREAM_BREAKER_FAILURE_RATIO": "1.5",
	})
	require.ErrorContains(t, err, "UPSTREAM_BREAKER_FAILURE_RATIO")
}
