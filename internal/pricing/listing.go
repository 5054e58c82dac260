package pricing

import (
	"github.com/shopspring/decimal"
)

// VariantPrice is the price information of one variant in a grouped product listing.
type VariantPrice struct {
	VariantID       string          `json:"variantId"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
}

// Listing drives the "from X, was Y" display of a grouped product.
type Listing struct {
	From decimal.Decimal
	// Was is set only when at least one variant carries a discount.
	Was *decimal.Decimal
}

// FromPrice returns the minimum effective unit price across variants paired with
// the maximum raw unit price across the discounted variants. The pairing is
// intentionally asymmetric. ok is false when variants is empty.
func FromPrice(variants []VariantPrice) (listing Listing, ok bool) {
	if len(variants) == 0 {
		return Listing{}, false
	}
	for i, v := range variants {
		effective := EffectiveUnitPrice(v.UnitPrice, v.DiscountPercent)
		if i == 0 || effective.LessThan(listing.From) {
			listing.From = effective
		}
		if !v.DiscountPercent.IsPositive() {
			continue
		}
		if listing.Was == nil || v.UnitPrice.GreaterThan(*listing.Was) {
			was := v.UnitPrice
			listing.Was = &was
		}
	}
	return listing, true
}

// ListingSummary is the display form of a Listing.
type ListingSummary struct {
	From string  `json:"from"`
	Was  *string `json:"was,omitempty"`
}

// Display rounds the listing prices.
func (l Listing) Display() ListingSummary {
	out := ListingSummary{From: Fixed(l.From)}
	if l.Was != nil {
		was := Fixed(*l.Was)
		out.Was = &was
	}
	return out
}
