package cart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrMalformedSnapshot is returned when an upstream snapshot violates the line invariants.
var ErrMalformedSnapshot = errors.New("cart: malformed snapshot")

// Line is one purchasable variant in the cart.
type Line struct {
	VariantID           string          `json:"variantId"`
	ProductName         string          `json:"productName,omitempty"`
	Quantity            int             `json:"quantity"`
	UnitPrice           decimal.Decimal `json:"unitPrice"`
	UnitDiscountPercent decimal.Decimal `json:"unitDiscountPercent"`
	AvailableStock      int             `json:"availableStock"`
}

// DiscountCode is a cart-level percentage reduction. Several codes may be attached at once.
type DiscountCode struct {
	Code    string          `json:"code"`
	Percent decimal.Decimal `json:"percent"`
}

// Cart is the server-authoritative snapshot as last fetched from the cart service.
type Cart struct {
	Lines         []Line         `json:"lines"`
	DiscountCodes []DiscountCode `json:"discountCodes"`
}

// Validate checks the snapshot invariants: every line references a variant and
// carries a positive quantity, percentages stay within 0..100.
func (c Cart) Validate() error {
	hundred := decimal.NewFromInt(100)
	for i, line := range c.Lines {
		if strings.TrimSpace(line.VariantID) == "" {
			return fmt.Errorf("line %d: missing variant id: %w", i, ErrMalformedSnapshot)
		}
		if line.Quantity < 1 {
			return fmt.Errorf("line %s: quantity %d: %w", line.VariantID, line.Quantity, ErrMalformedSnapshot)
		}
		if line.UnitPrice.IsNegative() {
			return fmt.Errorf("line %s: negative unit price: %w", line.VariantID, ErrMalformedSnapshot)
		}
		if line.UnitDiscountPercent.IsNegative() || line.UnitDiscountPercent.GreaterThan(hundred) {
			return fmt.Errorf("line %s: discount %s out of range: %w", line.VariantID, line.UnitDiscountPercent, ErrMalformedSnapshot)
		}
	}
	for _, code := range c.DiscountCodes {
		if code.Percent.IsNegative() || code.Percent.GreaterThan(hundred) {
			return fmt.Errorf("discount code %s: percent %s out of range: %w", code.Code, code.Percent, ErrMalformedSnapshot)
		}
	}
	return nil
}

// Line returns the line for the given variant.
func (c Cart) Line(variantID string) (Line, bool) {
	for _, line := range c.Lines {
		if line.VariantID == variantID {
			return line, true
		}
	}
	return Line{}, false
}

// IsEmpty reports whether the cart has no lines.
func (c Cart) IsEmpty() bool { return len(c.Lines) == 0 }

// Clone returns a deep copy so callers cannot mutate a stored snapshot.
func (c Cart) Clone() Cart {
	out := Cart{}
	if c.Lines != nil {
		out.Lines = append([]Line(nil), c.Lines...)
	}
	if c.DiscountCodes != nil {
		out.DiscountCodes = append([]DiscountCode(nil), c.DiscountCodes...)
	}
	return out
}
