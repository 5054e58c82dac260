package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Stripe opens hosted Stripe Checkout sessions through the order service.
type Stripe struct {
	Sessions SessionCreator
}

// Provider implements Gateway.
func (Stripe) Provider() Provider { return ProviderStripe }

// CreateCheckoutSession posts the order and returns the hosted checkout page.
func (s Stripe) CreateCheckoutSession(ctx context.Context, req OrderSubmissionRequest) (CheckoutSession, error) {
	if s.Sessions == nil {
		return CheckoutSession{}, errors.New("stripe: session creator not configured")
	}
	body, err := s.Sessions.CreateCheckoutSession(ctx, ProviderStripe.String(), req)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	var payload struct {
		CheckoutURL string `json:"checkoutUrl"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return CheckoutSession{}, fmt.Errorf("stripe: decode checkout session: %w", err)
	}
	url, err := checkoutURL(payload.CheckoutURL)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("stripe: %w", err)
	}
	return CheckoutSession{Provider: ProviderStripe, CheckoutURL: url}, nil
}
