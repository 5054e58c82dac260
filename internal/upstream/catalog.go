package upstream

import (
	"context"

	"github.com/noah-isme/toko-storefront/internal/checkout"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// ShippingMethods lists the offered shipping methods.
func (c *Client) ShippingMethods(ctx context.Context) ([]checkout.ShippingMethod, error) {
	var out []checkout.ShippingMethod
	if err := c.getJSON(ctx, "/shipping-methods", "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PaymentTypes lists the generic payment types.
func (c *Client) PaymentTypes(ctx context.Context) ([]checkout.PaymentType, error) {
	var out []checkout.PaymentType
	if err := c.getJSON(ctx, "/payment-types", "", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UserPaymentMethods lists the payment methods saved on the user's account.
func (c *Client) UserPaymentMethods(ctx context.Context, userID string) ([]checkout.UserPaymentMethod, error) {
	var out []checkout.UserPaymentMethod
	if err := c.getJSON(ctx, "/users/me/payment-methods", userID, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ProductVariants returns the prices of every variant of a product.
func (c *Client) ProductVariants(ctx context.Context, productID string) ([]pricing.VariantPrice, error) {
	var out []pricing.VariantPrice
	if err := c.getJSON(ctx, "/products/"+escape(productID)+"/variants", "", &out); err != nil {
		return nil, err
	}
	return out, nil
}
