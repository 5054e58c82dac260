package pricing

import (
	"github.com/shopspring/decimal"
)

// LineSummary is the display form of a priced line.
type LineSummary struct {
	VariantID          string `json:"variantId"`
	Quantity           int    `json:"quantity"`
	UnitPrice          string `json:"unitPrice"`
	EffectiveUnitPrice string `json:"effectiveUnitPrice"`
	LineTotal          string `json:"lineTotal"`
}

// DiscountSummary is the display form of one applied code.
type DiscountSummary struct {
	Code    string `json:"code"`
	Percent string `json:"percent"`
	Amount  string `json:"amount"`
}

// Summary is the rounded, display-ready pricing payload.
type Summary struct {
	Lines          []LineSummary     `json:"lines"`
	Subtotal       string            `json:"subtotal"`
	Discounts      []DiscountSummary `json:"discounts"`
	TotalDiscount  string            `json:"totalDiscount"`
	AppliedPercent string            `json:"appliedDiscountPercent"`
	Shipping       *string           `json:"shipping,omitempty"`
	Total          string            `json:"total"`
}

// Display rounds every monetary value of the result. When shipping is non-nil
// the total includes the shipping fee.
func (r Result) Display(shipping *decimal.Decimal) Summary {
	s := Summary{
		Lines:          make([]LineSummary, 0, len(r.Lines)),
		Discounts:      make([]DiscountSummary, 0, len(r.Discounts)),
		Subtotal:       Fixed(r.Subtotal),
		TotalDiscount:  Fixed(r.TotalDiscount),
		AppliedPercent: r.AppliedPercent.String(),
		Total:          Fixed(r.Total),
	}
	for _, l := range r.Lines {
		s.Lines = append(s.Lines, LineSummary{
			VariantID:          l.VariantID,
			Quantity:           l.Quantity,
			UnitPrice:          Fixed(l.UnitPrice),
			EffectiveUnitPrice: Fixed(l.EffectiveUnitPrice),
			LineTotal:          Fixed(l.LineTotal),
		})
	}
	for _, d := range r.Discounts {
		s.Discounts = append(s.Discounts, DiscountSummary{
			Code:    d.Code,
			Percent: d.Percent.String(),
			Amount:  Fixed(d.Amount),
		})
	}
	if shipping != nil {
		fee := Fixed(*shipping)
		s.Shipping = &fee
		s.Total = Fixed(r.WithShipping(*shipping))
	}
	return s
}
