package ratelimit

import (
	"fmt"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// API applies a coarse fixed-window rate, e.g. "100-M", to every caller.
type API struct {
	Limiter *limiter.Limiter
	Key     func(*http.Request) string
	OnError func(error)
}

// NewAPI builds a Redis-backed fixed-window limiter from a formatted rate.
func NewAPI(rdb *redis.Client, formatted string) (*API, error) {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, fmt.Errorf("parse rate %q: %w", formatted, err)
	}
	store, err := limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "ratelimit:api"})
	if err != nil {
		return nil, fmt.Errorf("limiter store: %w", err)
	}
	return &API{Limiter: limiter.New(store, rate), Key: ByCaller}, nil
}

// Middleware enforces the rate. Store failures let the request through.
func (a *API) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if a == nil || a.Limiter == nil {
			next.ServeHTTP(w, r)
			return
		}
		key := ByCaller
		if a.Key != nil {
			key = a.Key
		}
		lctx, err := a.Limiter.Get(r.Context(), key(r))
		if err != nil {
			if a.OnError != nil {
				a.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}
		resetAt := time.Unix(lctx.Reset, 0)
		writeHeaders(w, lctx.Limit, lctx.Remaining, resetAt)
		if lctx.Reached {
			rejected(w, resetAt)
			return
		}
		next.ServeHTTP(w, r)
	})
}
