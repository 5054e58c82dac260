package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedProvider is returned when a provider name matches no known gateway.
// Nothing is sent for such a submission.
var ErrUnsupportedProvider = errors.New("unsupported payment provider")

// Provider enumerates the payment backends orders can be dispatched to.
type Provider int

const (
	ProviderUnknown Provider = iota
	ProviderStripe
	ProviderPayU
)

// dispatch maps a lower-case name fragment to its provider. Entries are matched
// in order against the free-text provider name.
var dispatch = []struct {
	fragment string
	provider Provider
}{
	{fragment: "stripe", provider: ProviderStripe},
	{fragment: "payu", provider: ProviderPayU},
}

// String returns the provider's path segment.
func (p Provider) String() string {
	for _, entry := range dispatch {
		if entry.provider == p {
			return entry.fragment
		}
	}
	return "unknown"
}

// ParseProvider resolves a free-text provider name such as "Stripe Checkout"
// by case-insensitive substring match.
func ParseProvider(name string) (Provider, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower != "" {
		for _, entry := range dispatch {
			if strings.Contains(lower, entry.fragment) {
				return entry.provider, nil
			}
		}
	}
	return ProviderUnknown, fmt.Errorf("%q: %w", name, ErrUnsupportedProvider)
}

// CheckoutSession is the provider's answer to a submission.
type CheckoutSession struct {
	Provider    Provider `json:"-"`
	CheckoutURL string   `json:"checkoutUrl"`
}

// Gateway opens a checkout session with one provider.
type Gateway interface {
	Provider() Provider
	CreateCheckoutSession(ctx context.Context, req OrderSubmissionRequest) (CheckoutSession, error)
}

// SessionCreator posts a submission to the provider-specific endpoint
// /payment/{provider}/checkout and returns the raw response body.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, provider string, req OrderSubmissionRequest) ([]byte, error)
}
