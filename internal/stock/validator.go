package stock

import (
	"sort"

	"github.com/noah-isme/toko-storefront/internal/cart"
)

// Set holds the variant ids whose requested quantity exceeds available stock.
type Set map[string]struct{}

// Has reports whether the variant is flagged.
func (s Set) Has(variantID string) bool {
	_, ok := s[variantID]
	return ok
}

// IDs returns the flagged variant ids in a stable order.
func (s Set) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// IsInsufficient reports whether a line requests more than is in stock.
func IsInsufficient(line cart.Line) bool {
	return line.Quantity > line.AvailableStock
}

// Insufficient flags every line whose quantity exceeds its available stock.
func Insufficient(c cart.Cart) Set {
	out := Set{}
	for _, line := range c.Lines {
		if IsInsufficient(line) {
			out[line.VariantID] = struct{}{}
		}
	}
	return out
}

// HasAnyInsufficientStock reports whether order submission must be blocked.
func HasAnyInsufficientStock(c cart.Cart) bool {
	for _, line := range c.Lines {
		if IsInsufficient(line) {
			return true
		}
	}
	return false
}

// RemainingHeadroom is the number of units that could still be added to the line.
// It is negative when the line already exceeds stock.
func RemainingHeadroom(line cart.Line) int {
	return line.AvailableStock - line.Quantity
}

// CanIncrement reports whether the quantity increment control is enabled.
func CanIncrement(line cart.Line) bool {
	return line.Quantity < line.AvailableStock
}

// CanDecrement reports whether the quantity decrement control is enabled.
// Removing the last unit is a separate delete action.
func CanDecrement(line cart.Line) bool {
	return line.Quantity > 1
}

// LineStatus is the per-line stock view rendered next to the cart.
type LineStatus struct {
	VariantID         string `json:"variantId"`
	AvailableStock    int    `json:"availableStock"`
	RemainingHeadroom int    `json:"remainingHeadroom"`
	Insufficient      bool   `json:"insufficient"`
	CanIncrement      bool   `json:"canIncrement"`
	CanDecrement      bool   `json:"canDecrement"`
}

// Report is the cart-level stock view.
type Report struct {
	Lines                   []LineStatus `json:"lines"`
	InsufficientVariantIDs  []string     `json:"insufficientVariantIds"`
	HasAnyInsufficientStock bool         `json:"hasAnyInsufficientStock"`
}

// Check builds the stock report for a snapshot.
func Check(c cart.Cart) Report {
	flagged := Insufficient(c)
	report := Report{
		Lines:                   make([]LineStatus, 0, len(c.Lines)),
		InsufficientVariantIDs:  flagged.IDs(),
		HasAnyInsufficientStock: len(flagged) > 0,
	}
	for _, line := range c.Lines {
		report.Lines = append(report.Lines, LineStatus{
			VariantID:         line.VariantID,
			AvailableStock:    line.AvailableStock,
			RemainingHeadroom: RemainingHeadroom(line),
			Insufficient:      flagged.Has(line.VariantID),
			CanIncrement:      CanIncrement(line),
			CanDecrement:      CanDecrement(line),
		})
	}
	return report
}
