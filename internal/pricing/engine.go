package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/cart"
)

// DisplayPlaces is the number of decimal places monetary values are rounded to for display and submission.
const DisplayPlaces = 2

// LinePrice holds the derived prices of one cart line.
type LinePrice struct {
	VariantID          string
	Quantity           int
	UnitPrice          decimal.Decimal
	EffectiveUnitPrice decimal.Decimal
	LineTotal          decimal.Decimal
}

// CodeDiscount is the amount one discount code takes off the subtotal.
type CodeDiscount struct {
	Code    string
	Percent decimal.Decimal
	Amount  decimal.Decimal
}

// Result aggregates computed pricing components. Values are unrounded.
type Result struct {
	Lines          []LinePrice
	Subtotal       decimal.Decimal
	Discounts      []CodeDiscount
	TotalDiscount  decimal.Decimal
	Total          decimal.Decimal
	AppliedPercent decimal.Decimal
	negative       bool
}

// Engine computes cart prices. The zero value reproduces the legacy stacking
// behaviour: stacked codes may push the total below zero.
type Engine struct {
	ClampAtZero bool
}

// EffectiveUnitPrice applies the per-variant promotional discount.
func EffectiveUnitPrice(unitPrice, discountPercent decimal.Decimal) decimal.Decimal {
	if !discountPercent.IsPositive() {
		return unitPrice
	}
	return unitPrice.Mul(decimal.NewFromInt(1).Sub(discountPercent.Shift(-2)))
}

// Price derives line prices, subtotal, stacked discounts and the cart total.
// Each code is applied to the pre-discount subtotal and the amounts are summed.
func (e Engine) Price(c cart.Cart) Result {
	res := Result{
		Lines:          make([]LinePrice, 0, len(c.Lines)),
		Subtotal:       decimal.Zero,
		TotalDiscount:  decimal.Zero,
		AppliedPercent: decimal.Zero,
	}
	for _, line := range c.Lines {
		if line.Quantity <= 0 {
			continue
		}
		effective := EffectiveUnitPrice(line.UnitPrice, line.UnitDiscountPercent)
		total := effective.Mul(decimal.NewFromInt(int64(line.Quantity)))
		res.Lines = append(res.Lines, LinePrice{
			VariantID:          line.VariantID,
			Quantity:           line.Quantity,
			UnitPrice:          line.UnitPrice,
			EffectiveUnitPrice: effective,
			LineTotal:          total,
		})
		res.Subtotal = res.Subtotal.Add(total)
	}
	for _, code := range c.DiscountCodes {
		amount := res.Subtotal.Mul(code.Percent.Shift(-2))
		res.Discounts = append(res.Discounts, CodeDiscount{Code: code.Code, Percent: code.Percent, Amount: amount})
		res.TotalDiscount = res.TotalDiscount.Add(amount)
		res.AppliedPercent = res.AppliedPercent.Add(code.Percent)
	}
	res.Total = res.Subtotal.Sub(res.TotalDiscount)
	if res.Total.IsNegative() {
		res.negative = true
		if e.ClampAtZero {
			res.Total = decimal.Zero
		}
	}
	return res
}

// Negative reports whether the stacked discounts exceeded the subtotal,
// regardless of whether the total was clamped.
func (r Result) Negative() bool { return r.negative }

// WithShipping returns the order-level total: cart total plus the flat shipping fee.
func (r Result) WithShipping(shipping decimal.Decimal) decimal.Decimal {
	return r.Total.Add(shipping)
}

// Round rounds a monetary value for display or submission.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(DisplayPlaces)
}

// Fixed renders a monetary value with exactly two decimal places.
func Fixed(v decimal.Decimal) string {
	return v.StringFixed(DisplayPlaces)
}
