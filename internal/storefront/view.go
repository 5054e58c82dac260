package storefront

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/pricing"
	"github.com/noah-isme/toko-storefront/internal/stock"
)

// CartView is the snapshot rendered together with its derived prices and stock flags.
type CartView struct {
	Lines         []cart.Line         `json:"lines"`
	DiscountCodes []cart.DiscountCode `json:"discountCodes"`
	Pricing       pricing.Summary     `json:"pricing"`
	Stock         stock.Report        `json:"stock"`
	// NegativeTotal is set when stacked codes exceed the subtotal and the engine does not clamp.
	NegativeTotal bool `json:"negativeTotal,omitempty"`
}

// NewCartView prices the snapshot and checks its stock. shipping may be nil.
func NewCartView(c cart.Cart, engine pricing.Engine, shipping *decimal.Decimal) CartView {
	result := engine.Price(c)
	lines := c.Lines
	if lines == nil {
		lines = []cart.Line{}
	}
	codes := c.DiscountCodes
	if codes == nil {
		codes = []cart.DiscountCode{}
	}
	return CartView{
		Lines:         lines,
		DiscountCodes: codes,
		Pricing:       result.Display(shipping),
		Stock:         stock.Check(c),
		NegativeTotal: result.Negative(),
	}
}
