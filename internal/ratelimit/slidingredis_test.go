package ratelimit

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestLimiterAllowSlidingWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	limiter := Limiter{Client: client, Prefix: "test:", Now: func() time.Time { return now }}
	ctx := context.Background()
	window := 10 * time.Second

	for i := 0; i < 2; i++ {
		d, err := limiter.Allow(ctx, "session-1", window, 2)
		require.NoError(t, err)
		require.True(t, d.Allowed, "attempt %d", i)
		require.Equal(t, 1-i, d.Remaining)
		now = now.Add(time.Second)
	}

	d, err := limiter.Allow(ctx, "session-1", window, 2)
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.Zero(t, d.Remaining)
	require.Equal(t, time.Date(2024, 5, 1, 12, 0, 10, 0, time.UTC), d.ResetAt.UTC())

	other, err := limiter.Allow(ctx, "session-2", window, 2)
	require.NoError(t, err)
	require.True(t, other.Allowed, "keys are limited independently")

	// Only the first attempt has left the window; refused attempts were not recorded.
	now = time.Date(2024, 5, 1, 12, 0, 10, 500, time.UTC)
	d, err = limiter.Allow(ctx, "session-1", window, 2)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Zero(t, d.Remaining)
}

func TestLimiterWithoutClientAllows(t *testing.T) {
	d, err := Limiter{}.Allow(context.Background(), "k", time.Minute, 3)
	require.NoError(t, err)
	require.True(t, d.Allowed)
	require.Equal(t, 3, d.Remaining)
}
