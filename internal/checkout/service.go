package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-storefront/internal/address"
	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/obs"
	"github.com/noah-isme/toko-storefront/internal/pricing"
	"github.com/noah-isme/toko-storefront/internal/storefront"
)

var (
	// ErrUnknownShippingMethod is returned when the selected shipping method is not offered.
	ErrUnknownShippingMethod = errors.New("unknown shipping method")
	// ErrUnknownPaymentMethod is returned when the selected payment option is not offered to the user.
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

// CartSource provides the latest cart snapshot for a user.
type CartSource interface {
	Snapshot(ctx context.Context, userID string) (cart.Cart, error)
	Refresh(ctx context.Context, userID string) (cart.Cart, error)
}

// AddressBook resolves saved addresses.
type AddressBook interface {
	Get(ctx context.Context, userID, id string) (address.Address, error)
}

// Catalog lists the shipping and payment options offered at checkout.
type Catalog interface {
	ShippingMethods(ctx context.Context) ([]ShippingMethod, error)
	PaymentTypes(ctx context.Context) ([]PaymentType, error)
	UserPaymentMethods(ctx context.Context, userID string) ([]UserPaymentMethod, error)
}

// Transitions lists the moves currently available from the session's step.
type Transitions struct {
	Next   bool `json:"next"`
	Back   bool `json:"back"`
	Submit bool `json:"submit"`
}

// View is the checkout page model.
type View struct {
	SessionID   string              `json:"sessionId"`
	Step        string              `json:"step"`
	Draft       Draft               `json:"draft"`
	Cart        storefront.CartView `json:"cart"`
	Transitions Transitions         `json:"transitions"`
	InFlight    bool                `json:"submissionInFlight"`
}

// Service exposes checkout session operations for a user.
type Service struct {
	Sessions  *Store
	Carts     CartSource
	Addresses AddressBook
	Catalog   Catalog
	Engine    pricing.Engine
	Logger    zerolog.Logger
}

// Start opens a new session with an empty draft and returns its view.
func (s *Service) Start(ctx context.Context, userID string) (View, error) {
	if err := s.ready(); err != nil {
		return View{}, err
	}
	snapshot, err := s.Carts.Refresh(ctx, userID)
	if err != nil {
		return View{}, err
	}
	sess := s.Sessions.Create(userID)
	s.Logger.Debug().Str("session_id", sess.ID).Str("user_id", userID).Msg("checkout_session_started")
	return s.view(sess, snapshot), nil
}

// View renders the session against the latest snapshot.
func (s *Service) View(ctx context.Context, userID, sessionID string) (View, error) {
	sess, snapshot, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return View{}, err
	}
	return s.view(sess, snapshot), nil
}

// UseSavedAddress populates the draft address from the address book.
func (s *Service) UseSavedAddress(ctx context.Context, userID, sessionID, addressID string) (View, error) {
	sess, snapshot, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return View{}, err
	}
	saved, err := s.Addresses.Get(ctx, userID, strings.TrimSpace(addressID))
	if err != nil {
		return View{}, err
	}
	sess.Update(func(c *Controller) {
		c.SelectSavedAddress(saved)
	})
	return s.view(sess, snapshot), nil
}

// EditAddress replaces the draft address fields. Invalid fields are accepted
// into the draft and reported by the guards.
func (s *Service) EditAddress(ctx context.Context, userID, sessionID string, fields address.Address) (View, error) {
	sess, snapshot, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return View{}, err
	}
	sess.Update(func(c *Controller) {
		c.EditAddress(fields)
	})
	return s.view(sess, snapshot), nil
}

// SelectShipping picks one of the offered shipping methods.
func (s *Service) SelectShipping(ctx context.Context, userID, sessionID, methodID string) (View, error) {
	sess, snapshot, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return View{}, err
	}
	methods, err := s.Catalog.ShippingMethods(ctx)
	if err != nil {
		return View{}, fmt.Errorf("list shipping methods: %w", err)
	}
	var picked *ShippingMethod
	for i := range methods {
		if methods[i].ID == methodID {
			picked = &methods[i]
			break
		}
	}
	if picked == nil {
		return View{}, ErrUnknownShippingMethod
	}
	sess.Update(func(c *Controller) {
		c.SelectShipping(*picked)
	})
	return s.view(sess, snapshot), nil
}

// SelectPaymentType picks a generic payment type, clearing any saved method.
func (s *Service) SelectPaymentType(ctx context.Context, userID, sessionID, paymentTypeID string) (View, error) {
	sess, snapshot, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return View{}, err
	}
	types, err := s.Catalog.PaymentTypes(ctx)
	if err != nil {
		return View{}, fmt.Errorf("list payment types: %w", err)
	}
	for _, pt := range types {
		if pt.ID == paymentTypeID {
			sess.Update(func(c *Controller) {
				c.SelectPaymentType(pt)
			})
			return s.view(sess, snapshot), nil
		}
	}
	return View{}, ErrUnknownPaymentMethod
}

// SelectSavedPaymentMethod picks a saved payment method, clearing any payment type.
func (s *Service) SelectSavedPaymentMethod(ctx context.Context, userID, sessionID, methodID string) (View, error) {
	sess, snapshot, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return View{}, err
	}
	methods, err := s.Catalog.UserPaymentMethods(ctx, userID)
	if err != nil {
		return View{}, fmt.Errorf("list saved payment methods: %w", err)
	}
	for _, m := range methods {
		if m.ID == methodID {
			sess.Update(func(c *Controller) {
				c.SelectSavedPaymentMethod(m)
			})
			return s.view(sess, snapshot), nil
		}
	}
	return View{}, ErrUnknownPaymentMethod
}

// Next advances the session one step.
func (s *Service) Next(ctx context.Context, userID, sessionID string) (View, error) {
	sess, snapshot, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return View{}, err
	}
	err = sess.Do(func(c *Controller) error {
		from := c.Step
		target := min(from+1, StepSubmittable)
		to, err := c.Next(snapshot)
		recordTransition(from, target, err)
		if err != nil {
			return err
		}
		s.Logger.Debug().Str("session_id", sessionID).Str("from", from.String()).Str("to", to.String()).Msg("checkout_step_advanced")
		return nil
	})
	if err != nil {
		return View{}, err
	}
	return s.view(sess, snapshot), nil
}

// Back moves the session to an earlier step.
func (s *Service) Back(ctx context.Context, userID, sessionID string, to Step) (View, error) {
	sess, snapshot, err := s.load(ctx, userID, sessionID)
	if err != nil {
		return View{}, err
	}
	err = sess.Do(func(c *Controller) error {
		from := c.Step
		_, err := c.Back(to)
		recordTransition(from, to, err)
		return err
	})
	if err != nil {
		return View{}, err
	}
	return s.view(sess, snapshot), nil
}

// Abandon discards the session and its draft.
func (s *Service) Abandon(_ context.Context, userID, sessionID string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.Sessions.Get(sessionID, userID); err != nil {
		return err
	}
	s.Sessions.Discard(sessionID)
	return nil
}

func (s *Service) ready() error {
	if s == nil || s.Sessions == nil || s.Carts == nil {
		return errors.New("checkout service not configured")
	}
	return nil
}

func (s *Service) load(ctx context.Context, userID, sessionID string) (*Session, cart.Cart, error) {
	if err := s.ready(); err != nil {
		return nil, cart.Cart{}, err
	}
	sess, err := s.Sessions.Get(sessionID, userID)
	if err != nil {
		return nil, cart.Cart{}, err
	}
	snapshot, err := s.Carts.Snapshot(ctx, userID)
	if err != nil {
		return nil, cart.Cart{}, err
	}
	return sess, snapshot, nil
}

func (s *Service) view(sess *Session, snapshot cart.Cart) View {
	state := sess.State()
	inFlight := sess.InFlight()
	return View{
		SessionID: sess.ID,
		Step:      state.Step.String(),
		Draft:     state.Draft,
		Cart:      storefront.NewCartView(snapshot, s.Engine, state.Draft.ShippingPrice()),
		Transitions: Transitions{
			Next:   state.Step < StepSubmittable && state.CanEnter(state.Step+1, snapshot),
			Back:   state.Step > StepAddress,
			Submit: !inFlight && state.Submittable(snapshot) == nil,
		},
		InFlight: inFlight,
	}
}

func recordTransition(from, to Step, err error) {
	if obs.CheckoutTransitionTotal == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	obs.CheckoutTransitionTotal.WithLabelValues(from.String(), to.String(), result).Inc()
}
