package upstream

import (
	"context"
	"net/http"

	"github.com/noah-isme/toko-storefront/internal/payment"
)

// CreateCheckoutSession posts the order to /payment/{provider}/checkout and
// returns the provider's raw answer for the gateway to interpret.
func (c *Client) CreateCheckoutSession(ctx context.Context, provider string, req payment.OrderSubmissionRequest) ([]byte, error) {
	data, err := c.call(ctx, c.Checkout, http.MethodPost, "/payment/"+escape(provider)+"/checkout", req.UserID, req)
	if err != nil {
		return nil, err
	}
	return unwrap(data), nil
}
