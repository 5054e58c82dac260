package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidCheckoutURL is returned when a provider answers without a usable redirect target.
var ErrInvalidCheckoutURL = errors.New("invalid checkout url")

// PayU opens PayU hosted payment pages through the order service. PayU answers
// with checkoutUrl, or redirectUri when the order service relays the raw PayU order.
type PayU struct {
	Sessions SessionCreator
}

// Provider implements Gateway.
func (PayU) Provider() Provider { return ProviderPayU }

// CreateCheckoutSession posts the order and returns the PayU payment page.
func (p PayU) CreateCheckoutSession(ctx context.Context, req OrderSubmissionRequest) (CheckoutSession, error) {
	if p.Sessions == nil {
		return CheckoutSession{}, errors.New("payu: session creator not configured")
	}
	body, err := p.Sessions.CreateCheckoutSession(ctx, ProviderPayU.String(), req)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("payu: create checkout session: %w", err)
	}
	var payload struct {
		CheckoutURL string `json:"checkoutUrl"`
		RedirectURI string `json:"redirectUri"`
		Status      struct {
			StatusCode string `json:"statusCode"`
		} `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return CheckoutSession{}, fmt.Errorf("payu: decode checkout session: %w", err)
	}
	if code := strings.TrimSpace(payload.Status.StatusCode); code != "" && !strings.EqualFold(code, "SUCCESS") {
		return CheckoutSession{}, fmt.Errorf("payu: order rejected with status %s", code)
	}
	target := payload.CheckoutURL
	if strings.TrimSpace(target) == "" {
		target = payload.RedirectURI
	}
	u, err := checkoutURL(target)
	if err != nil {
		return CheckoutSession{}, fmt.Errorf("payu: %w", err)
	}
	return CheckoutSession{Provider: ProviderPayU, CheckoutURL: u}, nil
}

// checkoutURL accepts absolute http(s) URLs only.
func checkoutURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty: %w", ErrInvalidCheckoutURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%v: %w", err, ErrInvalidCheckoutURL)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return "", fmt.Errorf("%q is not absolute: %w", raw, ErrInvalidCheckoutURL)
	}
	return u.String(), nil
}
