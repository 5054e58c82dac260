package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/toko-storefront/internal/address"
	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/stock"
)

// Step is the position of a checkout in its linear flow.
type Step int

const (
	StepAddress Step = iota
	StepShipping
	StepPayment
	StepSubmittable
)

var stepNames = map[Step]string{
	StepAddress:     "address",
	StepShipping:    "shipping",
	StepPayment:     "payment",
	StepSubmittable: "submittable",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// ParseStep resolves a step from its name.
func ParseStep(name string) (Step, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for step, n := range stepNames {
		if n == name {
			return step, true
		}
	}
	return StepAddress, false
}

// ErrInvalidTransition is returned when moving back to a step that is not behind the current one.
var ErrInvalidTransition = errors.New("invalid step transition")

// ErrInsufficientStock is wrapped by guard errors caused by lines exceeding stock.
var ErrInsufficientStock = errors.New("insufficient stock")

// GuardError reports why a forward transition was refused. It is a user-facing
// validation outcome, never a system failure.
type GuardError struct {
	Step                   Step
	Fields                 map[string]string
	InsufficientVariantIDs []string
}

func (e *GuardError) Error() string {
	if e == nil {
		return ""
	}
	if len(e.InsufficientVariantIDs) > 0 {
		return fmt.Sprintf("cannot leave %s step: insufficient stock for %s", e.Step, strings.Join(e.InsufficientVariantIDs, ", "))
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return fmt.Sprintf("cannot leave %s step: %s", e.Step, strings.Join(keys, ", "))
}

func (e *GuardError) Unwrap() error {
	if e != nil && len(e.InsufficientVariantIDs) > 0 {
		return ErrInsufficientStock
	}
	return nil
}

// ShippingMethod is a flat-fee delivery option.
type ShippingMethod struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// PaymentType is a generic payment option whose Provider names the gateway.
type PaymentType struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

// UserPaymentMethod is a tokenized payment method saved on the user's account.
type UserPaymentMethod struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Label    string `json:"label,omitempty"`
}

// Draft holds the selections of a checkout in progress. At most one of
// PaymentType and SavedPaymentMethod is set.
type Draft struct {
	Address            address.Draft      `json:"address"`
	ShippingMethod     *ShippingMethod    `json:"shippingMethod,omitempty"`
	PaymentType        *PaymentType       `json:"paymentType,omitempty"`
	SavedPaymentMethod *UserPaymentMethod `json:"savedPaymentMethod,omitempty"`
}

// HasPayment reports whether a payment option is selected.
func (d Draft) HasPayment() bool {
	return d.PaymentType != nil || d.SavedPaymentMethod != nil
}

// ProviderName returns the free-text provider of the active payment selection.
func (d Draft) ProviderName() string {
	switch {
	case d.SavedPaymentMethod != nil:
		return d.SavedPaymentMethod.Provider
	case d.PaymentType != nil:
		return d.PaymentType.Provider
	default:
		return ""
	}
}

// ShippingPrice returns the selected shipping fee, or nil when none is selected.
func (d Draft) ShippingPrice() *decimal.Decimal {
	if d.ShippingMethod == nil {
		return nil
	}
	p := d.ShippingMethod.Price
	return &p
}

// Controller drives the address, shipping, payment sequence. Selections made on
// later steps survive going back and editing earlier ones; every forward move
// re-checks all earlier guards instead.
type Controller struct {
	Step  Step
	Draft Draft
}

// SelectSavedAddress populates the address from the account's address book.
func (c *Controller) SelectSavedAddress(a address.Address) {
	c.Draft.Address.UseSaved(a)
	c.demote()
}

// EditAddress replaces the address fields, marking a saved address as dirty when they differ.
func (c *Controller) EditAddress(fields address.Address) {
	c.Draft.Address.Edit(fields)
	c.demote()
}

// SelectShipping records the shipping method.
func (c *Controller) SelectShipping(m ShippingMethod) {
	c.Draft.ShippingMethod = &m
	c.demote()
}

// SelectPaymentType picks a generic payment type and clears any saved method.
func (c *Controller) SelectPaymentType(p PaymentType) {
	c.Draft.PaymentType = &p
	c.Draft.SavedPaymentMethod = nil
	c.demote()
}

// SelectSavedPaymentMethod picks a saved method and clears any payment type.
func (c *Controller) SelectSavedPaymentMethod(m UserPaymentMethod) {
	c.Draft.SavedPaymentMethod = &m
	c.Draft.PaymentType = nil
	c.demote()
}

// demote drops a submittable checkout back to the payment step so that any
// change has to pass the final guard again.
func (c *Controller) demote() {
	if c.Step == StepSubmittable {
		c.Step = StepPayment
	}
}

// Next advances one step when the guard of the current step passes.
func (c *Controller) Next(snapshot cart.Cart) (Step, error) {
	target := c.Step + 1
	if target > StepSubmittable {
		target = StepSubmittable
	}
	if err := c.guard(target, snapshot); err != nil {
		return c.Step, err
	}
	c.Step = target
	return c.Step, nil
}

// Back moves to an earlier step. Moving back is always allowed and keeps every selection.
func (c *Controller) Back(to Step) (Step, error) {
	if to < StepAddress || to > c.Step {
		return c.Step, fmt.Errorf("cannot go back from %s to %s: %w", c.Step, to, ErrInvalidTransition)
	}
	c.Step = to
	return c.Step, nil
}

// Submittable reports whether an order can be submitted for the snapshot. The
// checkout must have been walked to StepSubmittable and every guard must still
// hold against the snapshot.
func (c *Controller) Submittable(snapshot cart.Cart) error {
	if err := c.guard(StepSubmittable, snapshot); err != nil {
		return err
	}
	if c.Step != StepSubmittable {
		return &GuardError{Step: c.Step, Fields: map[string]string{"step": "checkout has not reached the submittable step"}}
	}
	return nil
}

// CanEnter reports whether the guards up to the given step pass.
func (c *Controller) CanEnter(target Step, snapshot cart.Cart) bool {
	return c.guard(target, snapshot) == nil
}

// guard checks every condition required to stand on target.
func (c *Controller) guard(target Step, snapshot cart.Cart) error {
	if target >= StepShipping {
		if err := c.Draft.Address.Validate(); err != nil {
			var verr *common.ValidationError
			if errors.As(err, &verr) {
				return &GuardError{Step: StepAddress, Fields: prefixed("address.", verr.Fields)}
			}
			return &GuardError{Step: StepAddress, Fields: map[string]string{"address": err.Error()}}
		}
	}
	if target >= StepPayment && c.Draft.ShippingMethod == nil {
		return &GuardError{Step: StepShipping, Fields: map[string]string{"shippingMethod": "is required"}}
	}
	if target >= StepSubmittable {
		if !c.Draft.HasPayment() {
			return &GuardError{Step: StepPayment, Fields: map[string]string{"paymentMethod": "is required"}}
		}
		if snapshot.IsEmpty() {
			return &GuardError{Step: StepPayment, Fields: map[string]string{"cart": "is empty"}}
		}
		if flagged := stock.Insufficient(snapshot); len(flagged) > 0 {
			return &GuardError{Step: StepPayment, InsufficientVariantIDs: flagged.IDs()}
		}
	}
	return nil
}

func prefixed(prefix string, fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		if k == "address" {
			out[k] = v
			continue
		}
		out[prefix+k] = v
	}
	return out
}
