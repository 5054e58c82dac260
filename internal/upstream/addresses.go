package upstream

import (
	"context"
	"net/http"

	"github.com/noah-isme/toko-storefront/internal/address"
)

// ListAddresses returns the user's saved addresses.
func (c *Client) ListAddresses(ctx context.Context, userID string) ([]address.Address, error) {
	var out []address.Address
	if err := c.getJSON(ctx, "/addresses", userID, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateAddress stores a new address and returns it with its assigned id.
func (c *Client) CreateAddress(ctx context.Context, userID string, a address.Address) (address.Address, error) {
	var out address.Address
	if err := c.send(ctx, http.MethodPost, "/addresses", userID, a, &out); err != nil {
		return address.Address{}, err
	}
	return out, nil
}

// UpdateAddress overwrites a saved address.
func (c *Client) UpdateAddress(ctx context.Context, userID string, a address.Address) (address.Address, error) {
	var out address.Address
	if err := c.send(ctx, http.MethodPut, "/addresses/"+escape(a.ID), userID, a, &out); err != nil {
		return address.Address{}, err
	}
	if out.ID == "" {
		return a, nil
	}
	return out, nil
}
