package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/address"
	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/checkout"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// OrderDateLayout is the submission timestamp format: UTC, second precision, no offset.
const OrderDateLayout = "2006-01-02T15:04:05"

// OrderSubmissionRequest is the order payload sent to a provider's checkout endpoint.
type OrderSubmissionRequest struct {
	UserID               string          `json:"userId"`
	OrderDate            string          `json:"orderDate"`
	AddressRequest       address.Request `json:"addressRequest"`
	ShippingMethodID     string          `json:"shippingMethodId"`
	OrderTotal           decimal.Decimal `json:"orderTotal"`
	FinalOrderTotal      decimal.Decimal `json:"finalOrderTotal"`
	AppliedDiscountValue decimal.Decimal `json:"appliedDiscountValue"`
	ProviderID           string          `json:"providerId"`
	UserPaymentMethodID  *string         `json:"userPaymentMethodId,omitempty"`
	Cart                 cart.Cart       `json:"cart"`
}

// BuildRequest assembles the submission from a guarded draft and its priced
// snapshot. Monetary values are rounded to display precision here and nowhere earlier.
func BuildRequest(userID string, now time.Time, draft checkout.Draft, snapshot cart.Cart, priced pricing.Result) OrderSubmissionRequest {
	req := OrderSubmissionRequest{
		UserID:               userID,
		OrderDate:            now.UTC().Truncate(time.Second).Format(OrderDateLayout),
		AddressRequest:       draft.Address.SubmissionRequest(),
		OrderTotal:           pricing.Round(priced.Subtotal),
		AppliedDiscountValue: priced.AppliedPercent,
		Cart:                 snapshot,
	}
	shipping := decimal.Zero
	if draft.ShippingMethod != nil {
		req.ShippingMethodID = draft.ShippingMethod.ID
		shipping = draft.ShippingMethod.Price
	}
	req.FinalOrderTotal = pricing.Round(priced.WithShipping(shipping))
	switch {
	case draft.SavedPaymentMethod != nil:
		id := draft.SavedPaymentMethod.ID
		req.ProviderID = id
		req.UserPaymentMethodID = &id
	case draft.PaymentType != nil:
		req.ProviderID = draft.PaymentType.ID
	}
	return req
}
