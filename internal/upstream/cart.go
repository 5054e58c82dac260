package upstream

import (
	"context"
	"net/http"

	"github.com/noah-isme/toko-storefront/internal/cart"
)

// FetchCart returns the user's authoritative cart. A user without a cart gets an empty one.
func (c *Client) FetchCart(ctx context.Context, userID string) (cart.Cart, error) {
	var out cart.Cart
	if err := c.getJSON(ctx, "/cart", userID, &out); err != nil {
		return cart.Cart{}, err
	}
	return out, nil
}

// AddLine adds quantity units of a variant.
func (c *Client) AddLine(ctx context.Context, userID, variantID string, qty int) error {
	body := map[string]any{"variantId": variantID, "quantity": qty}
	return c.send(ctx, http.MethodPost, "/cart/lines", userID, body, nil)
}

// IncreaseLine adds one unit to a line.
func (c *Client) IncreaseLine(ctx context.Context, userID, variantID string) error {
	return c.send(ctx, http.MethodPost, "/cart/lines/"+escape(variantID)+"/increase", userID, nil, nil)
}

// DecreaseLine removes one unit from a line.
func (c *Client) DecreaseLine(ctx context.Context, userID, variantID string) error {
	return c.send(ctx, http.MethodPost, "/cart/lines/"+escape(variantID)+"/decrease", userID, nil, nil)
}

// DeleteLine removes a line.
func (c *Client) DeleteLine(ctx context.Context, userID, variantID string) error {
	return c.send(ctx, http.MethodDelete, "/cart/lines/"+escape(variantID), userID, nil, nil)
}

// ApplyDiscountCode attaches a discount code to the cart.
func (c *Client) ApplyDiscountCode(ctx context.Context, userID, code string) error {
	return c.send(ctx, http.MethodPost, "/cart/discount-codes", userID, map[string]string{"code": code}, nil)
}
