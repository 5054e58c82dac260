package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindow trims entries older than the window and records the attempt
// only when it fits, so refused attempts do not extend a caller's lockout.
// Scores are unix milliseconds. Replies {allowed, remaining, oldest score}.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < limit then
  redis.call('ZADD', key, now, ARGV[4])
  redis.call('PEXPIRE', key, window)
  return {1, limit - count - 1, 0}
end
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
return {0, 0, tonumber(oldest[2])}
`)

// Decision is the outcome of one limiter check.
type Decision struct {
	Allowed   bool
	Remaining int
	// ResetAt is when the next attempt will fit for a refused caller, or when
	// the window of an allowed attempt ends.
	ResetAt time.Time
}

// Limiter is a sliding-window limiter over Redis sorted sets, one set per key.
type Limiter struct {
	Client *redis.Client
	Prefix string
	Now    func() time.Time
}

func (l Limiter) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

// Allow records an attempt for key when fewer than max attempts were recorded
// within window. A missing client or a non-positive limit lets everything through.
func (l Limiter) Allow(ctx context.Context, key string, window time.Duration, max int) (Decision, error) {
	now := l.now()
	if l.Client == nil || max <= 0 || window <= 0 {
		return Decision{Allowed: true, Remaining: max, ResetAt: now.Add(window)}, nil
	}
	windowMs := max64(window.Milliseconds(), 1)
	res, err := slidingWindow.Run(ctx, l.Client,
		[]string{l.Prefix + key},
		now.UnixMilli(), windowMs, max, uuid.NewString(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit: %s: %w", key, err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("ratelimit: %s: unexpected reply %v", key, res)
	}
	if res[0] == 1 {
		return Decision{Allowed: true, Remaining: int(res[1]), ResetAt: now.Add(window)}, nil
	}
	return Decision{ResetAt: time.UnixMilli(res[2] + windowMs)}, nil
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
