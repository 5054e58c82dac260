package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/checkout"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// CartSource refetches the authoritative cart before submission.
type CartSource interface {
	Refresh(ctx context.Context, userID string) (cart.Cart, error)
	Forget(userID string)
}

// SubmissionGuard suppresses concurrent submissions of one checkout across instances.
type SubmissionGuard interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error)
	Release(ctx context.Context, key, token string)
}

const defaultGuardTTL = 2 * time.Minute

// Dispatcher turns a submittable checkout session into a provider checkout session.
type Dispatcher struct {
	Sessions *checkout.Store
	Carts    CartSource
	Gateways map[Provider]Gateway
	Guard    SubmissionGuard
	GuardTTL time.Duration
	Engine   pricing.Engine
	Logger   zerolog.Logger
	Now      func() time.Time
}

// NewGateways builds the dispatch table from the enabled gateways.
func NewGateways(gateways ...Gateway) map[Provider]Gateway {
	out := make(map[Provider]Gateway, len(gateways))
	for _, g := range gateways {
		out[g.Provider()] = g
	}
	return out
}

func (d *Dispatcher) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Submit sends the session's order to the provider selected in its draft. The
// draft is discarded only after the provider returned a checkout URL; on any
// failure it stays intact and the submission may be retried.
func (d *Dispatcher) Submit(ctx context.Context, userID, sessionID string) (CheckoutSession, error) {
	if d == nil || d.Sessions == nil || d.Carts == nil {
		return CheckoutSession{}, errors.New("order dispatcher not configured")
	}
	sess, err := d.Sessions.Get(sessionID, userID)
	if err != nil {
		return CheckoutSession{}, err
	}
	if err := sess.BeginSubmit(); err != nil {
		return CheckoutSession{}, err
	}
	defer sess.EndSubmit()

	// The provider call must not be cancelled by the client going away.
	ctx = context.WithoutCancel(ctx)
	log := d.Logger.With().Str("session_id", sessionID).Str("user_id", userID).Logger()

	if d.Guard != nil {
		key := "checkout:submit:" + sessionID
		ttl := d.GuardTTL
		if ttl <= 0 {
			ttl = defaultGuardTTL
		}
		token, ok, err := d.Guard.TryAcquire(ctx, key, ttl)
		if err != nil {
			return CheckoutSession{}, fmt.Errorf("acquire submission guard: %w", err)
		}
		if !ok {
			return CheckoutSession{}, checkout.ErrSubmissionInFlight
		}
		defer d.Guard.Release(ctx, key, token)
	}

	snapshot, err := d.Carts.Refresh(ctx, userID)
	if err != nil {
		return CheckoutSession{}, err
	}
	draft, err := sess.Submittable(snapshot)
	if err != nil {
		return CheckoutSession{}, err
	}

	provider, err := ParseProvider(draft.ProviderName())
	if err != nil {
		log.Warn().Str("provider", draft.ProviderName()).Msg("checkout_unsupported_provider")
		recordSubmission("unsupported", "rejected", 0)
		return CheckoutSession{}, err
	}
	gateway, ok := d.Gateways[provider]
	if !ok {
		log.Warn().Str("provider", provider.String()).Msg("checkout_gateway_not_configured")
		recordSubmission(provider.String(), "rejected", 0)
		return CheckoutSession{}, fmt.Errorf("%s: %w", provider, ErrUnsupportedProvider)
	}

	priced := d.Engine.Price(snapshot)
	if priced.Negative() {
		log.Warn().Str("subtotal", priced.Subtotal.String()).Str("discount", priced.TotalDiscount.String()).Msg("checkout_negative_total")
	}
	req := BuildRequest(userID, d.now(), draft, snapshot, priced)

	start := time.Now()
	session, err := gateway.CreateCheckoutSession(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		log.Error().Err(err).Str("provider", provider.String()).Dur("elapsed", elapsed).Msg("checkout_submission_failed")
		recordSubmission(provider.String(), "error", elapsed)
		return CheckoutSession{}, &SubmissionError{Provider: provider, Err: err}
	}

	d.Sessions.Discard(sessionID)
	d.Carts.Forget(userID)
	log.Info().Str("provider", provider.String()).Dur("elapsed", elapsed).Msg("checkout_submitted")
	recordSubmission(provider.String(), "ok", elapsed)
	return session, nil
}

// SubmissionError wraps a failed provider call.
type SubmissionError struct {
	Provider Provider
	Err      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("%s checkout failed: %v", e.Provider, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func recordSubmission(provider, result string, elapsed time.Duration) {
	if obs.CheckoutSubmissionTotal != nil {
		obs.CheckoutSubmissionTotal.WithLabelValues(provider, result).Inc()
	}
	if obs.CheckoutSubmissionLatency != nil && elapsed > 0 {
		obs.CheckoutSubmissionLatency.WithLabelValues(provider, result).Observe(float64(elapsed.Milliseconds()))
	}
}
