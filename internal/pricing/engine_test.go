package pricing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func line(id string, price, discount string, qty int) cart.Line {
	return cart.Line{VariantID: id, UnitPrice: dec(price), UnitDiscountPercent: dec(discount), Quantity: qty, AvailableStock: 100}
}

func TestPriceSingleCode(t *testing.T) {
	c := cart.Cart{
		Lines:         []cart.Line{line("v1", "100", "0", 2)},
		DiscountCodes: []cart.DiscountCode{{Code: "TEN", Percent: dec("10")}},
	}
	res := pricing.Engine{}.Price(c)
	require.Equal(t, "200.00", pricing.Fixed(res.Subtotal))
	require.Equal(t, "20.00", pricing.Fixed(res.TotalDiscount))
	require.Equal(t, "180.00", pricing.Fixed(res.Total))
}

func TestPriceStackedCodesAreAdditive(t *testing.T) {
	c := cart.Cart{
		Lines: []cart.Line{line("v1", "100", "0", 2)},
		DiscountCodes: []cart.DiscountCode{
			{Code: "TEN", Percent: dec("10")},
			{Code: "FIFTEEN", Percent: dec("15")},
		},
	}
	res := pricing.Engine{}.Price(c)
	require.Equal(t, "50.00", pricing.Fixed(res.TotalDiscount))
	require.Equal(t, "150.00", pricing.Fixed(res.Total))
	require.Equal(t, "25", res.AppliedPercent.String())
	require.Len(t, res.Discounts, 2)
	require.Equal(t, "20.00", pricing.Fixed(res.Discounts[0].Amount))
	require.Equal(t, "30.00", pricing.Fixed(res.Discounts[1].Amount))
}

func TestPriceWithoutCodesTotalEqualsSubtotal(t *testing.T) {
	carts := []cart.Cart{
		{},
		{Lines: []cart.Line{line("v1", "19.99", "0", 3)}},
		{Lines: []cart.Line{line("v1", "10.10", "33", 7), line("v2", "0.01", "50", 1)}},
	}
	for _, c := range carts {
		res := pricing.Engine{}.Price(c)
		require.True(t, res.Total.Equal(res.Subtotal))
		require.True(t, res.TotalDiscount.IsZero())
	}
}

func TestStackingIsOrderIndependent(t *testing.T) {
	lines := []cart.Line{line("v1", "12.34", "5", 3), line("v2", "99.99", "0", 1)}
	codes := []cart.DiscountCode{
		{Code: "A", Percent: dec("7.5")},
		{Code: "B", Percent: dec("12")},
		{Code: "C", Percent: dec("3")},
	}
	reversed := []cart.DiscountCode{codes[2], codes[1], codes[0]}

	first := pricing.Engine{}.Price(cart.Cart{Lines: lines, DiscountCodes: codes})
	second := pricing.Engine{}.Price(cart.Cart{Lines: lines, DiscountCodes: reversed})
	require.True(t, first.TotalDiscount.Equal(second.TotalDiscount))

	expected := first.Subtotal.Mul(dec("22.5")).Div(decimal.NewFromInt(100))
	require.True(t, first.TotalDiscount.Equal(expected), "got %s want %s", first.TotalDiscount, expected)
}

func TestEffectiveUnitPriceInvariantUnderReordering(t *testing.T) {
	a := line("v1", "80", "25", 1)
	b := line("v2", "50", "0", 4)

	forward := pricing.Engine{}.Price(cart.Cart{Lines: []cart.Line{a, b}})
	backward := pricing.Engine{}.Price(cart.Cart{Lines: []cart.Line{b, a}})

	require.Equal(t, "60.00", pricing.Fixed(forward.Lines[0].EffectiveUnitPrice))
	require.Equal(t, "60.00", pricing.Fixed(backward.Lines[1].EffectiveUnitPrice))
	require.Equal(t, "50.00", pricing.Fixed(forward.Lines[1].EffectiveUnitPrice))
	require.True(t, forward.Subtotal.Equal(backward.Subtotal))
	require.Equal(t, "260.00", pricing.Fixed(forward.Subtotal))
}

func TestRoundingHappensOnlyAtDisplay(t *testing.T) {
	// 3 x 0.333 = 0.999; rounding per unit first would yield 0.99.
	c := cart.Cart{Lines: []cart.Line{line("v1", "0.333", "0", 3)}}
	res := pricing.Engine{}.Price(c)
	require.Equal(t, "1.00", pricing.Fixed(res.Subtotal))
	require.Equal(t, "0.999", res.Subtotal.String())
}

func TestStackedCodesCanGoNegativeUnlessClamped(t *testing.T) {
	c := cart.Cart{
		Lines: []cart.Line{line("v1", "100", "0", 1)},
		DiscountCodes: []cart.DiscountCode{
			{Code: "A", Percent: dec("60")},
			{Code: "B", Percent: dec("70")},
		},
	}
	legacy := pricing.Engine{}.Price(c)
	require.True(t, legacy.Negative())
	require.Equal(t, "-30.00", pricing.Fixed(legacy.Total))

	clamped := pricing.Engine{ClampAtZero: true}.Price(c)
	require.True(t, clamped.Negative())
	require.Equal(t, "0.00", pricing.Fixed(clamped.Total))
	require.Equal(t, "130.00", pricing.Fixed(clamped.TotalDiscount))
}

func TestDisplayWithShipping(t *testing.T) {
	c := cart.Cart{
		Lines:         []cart.Line{line("v1", "100", "0", 2)},
		DiscountCodes: []cart.DiscountCode{{Code: "TEN", Percent: dec("10")}},
	}
	res := pricing.Engine{}.Price(c)

	withoutShipping := res.Display(nil)
	require.Nil(t, withoutShipping.Shipping)
	require.Equal(t, "180.00", withoutShipping.Total)

	fee := dec("12.5")
	summary := res.Display(&fee)
	require.NotNil(t, summary.Shipping)
	require.Equal(t, "12.50", *summary.Shipping)
	require.Equal(t, "192.50", summary.Total)
	require.Equal(t, "200.00", summary.Subtotal)
	require.Len(t, summary.Lines, 1)
	require.Equal(t, "200.00", summary.Lines[0].LineTotal)
}
