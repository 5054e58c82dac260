package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-storefront/internal/obs"
)

// ErrLineNotFound indicates the variant is not in the cart.
var ErrLineNotFound = errors.New("cart line not found")

// ErrInvalidInput is returned when the provided payload is invalid.
var ErrInvalidInput = errors.New("invalid input")

// ErrQuantityLimit is returned when a quantity control is disabled for the line:
// increment at available stock, decrement at a single unit.
var ErrQuantityLimit = errors.New("quantity limit reached")

// Remote is the authoritative cart held by the remote cart service.
type Remote interface {
	FetchCart(ctx context.Context, userID string) (Cart, error)
	AddLine(ctx context.Context, userID, variantID string, qty int) error
	IncreaseLine(ctx context.Context, userID, variantID string) error
	DecreaseLine(ctx context.Context, userID, variantID string) error
	DeleteLine(ctx context.Context, userID, variantID string) error
	ApplyDiscountCode(ctx context.Context, userID, code string) error
}

type entry struct {
	cart      Cart
	seq       uint64
	fetchedAt time.Time
}

// Service owns the latest fetched cart snapshot per user. Every mutation is
// sent upstream and followed by a full refetch; snapshots are never patched locally.
type Service struct {
	Remote Remote
	Logger zerolog.Logger
	Now    func() time.Time

	mu        sync.Mutex
	seq       uint64
	snapshots map[string]entry
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.Logger
}

// Snapshot returns the latest fetched snapshot, fetching it on first use.
func (s *Service) Snapshot(ctx context.Context, userID string) (Cart, error) {
	if s == nil || s.Remote == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	s.mu.Lock()
	e, ok := s.snapshots[userID]
	s.mu.Unlock()
	if ok {
		return e.cart.Clone(), nil
	}
	return s.Refresh(ctx, userID)
}

// Refresh fetches the cart from the remote service and replaces the stored snapshot.
func (s *Service) Refresh(ctx context.Context, userID string) (Cart, error) {
	if s == nil || s.Remote == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return Cart{}, fmt.Errorf("user id required: %w", ErrInvalidInput)
	}
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	fetched, err := s.Remote.FetchCart(ctx, userID)
	if err != nil {
		return Cart{}, fmt.Errorf("fetch cart: %w", err)
	}
	if err := fetched.Validate(); err != nil {
		return Cart{}, err
	}
	if obs.StockConflictTotal != nil {
		for _, line := range fetched.Lines {
			if line.Quantity > line.AvailableStock {
				obs.StockConflictTotal.Inc()
				break
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshots == nil {
		s.snapshots = make(map[string]entry)
	}
	// A slower fetch started earlier must not overwrite a newer snapshot.
	if current, ok := s.snapshots[userID]; !ok || current.seq < seq {
		s.snapshots[userID] = entry{cart: fetched, seq: seq, fetchedAt: s.now()}
		return fetched.Clone(), nil
	}
	return s.snapshots[userID].cart.Clone(), nil
}

// Forget drops the stored snapshot, e.g. after the cart was converted into an order.
func (s *Service) Forget(userID string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	delete(s.snapshots, userID)
	s.mu.Unlock()
}

// AddItem adds a variant to the cart, creating the remote cart on first use.
func (s *Service) AddItem(ctx context.Context, userID, variantID string, qty int) (Cart, error) {
	if qty <= 0 {
		return Cart{}, fmt.Errorf("qty must be positive: %w", ErrInvalidInput)
	}
	variantID = strings.TrimSpace(variantID)
	if variantID == "" {
		return Cart{}, fmt.Errorf("variant id required: %w", ErrInvalidInput)
	}
	return s.mutate(ctx, "add", userID, func(ctx context.Context) error {
		return s.Remote.AddLine(ctx, userID, variantID, qty)
	})
}

// Increase adds one unit to a line while stock allows it.
func (s *Service) Increase(ctx context.Context, userID, variantID string) (Cart, error) {
	line, err := s.line(ctx, userID, variantID)
	if err != nil {
		return Cart{}, err
	}
	if line.Quantity >= line.AvailableStock {
		return Cart{}, fmt.Errorf("variant %s has %d in stock: %w", variantID, line.AvailableStock, ErrQuantityLimit)
	}
	return s.mutate(ctx, "increase", userID, func(ctx context.Context) error {
		return s.Remote.IncreaseLine(ctx, userID, variantID)
	})
}

// Decrease removes one unit from a line. The last unit can only be removed with RemoveItem.
func (s *Service) Decrease(ctx context.Context, userID, variantID string) (Cart, error) {
	line, err := s.line(ctx, userID, variantID)
	if err != nil {
		return Cart{}, err
	}
	if line.Quantity <= 1 {
		return Cart{}, fmt.Errorf("variant %s is down to one unit: %w", variantID, ErrQuantityLimit)
	}
	return s.mutate(ctx, "decrease", userID, func(ctx context.Context) error {
		return s.Remote.DecreaseLine(ctx, userID, variantID)
	})
}

// RemoveItem deletes a line from the cart.
func (s *Service) RemoveItem(ctx context.Context, userID, variantID string) (Cart, error) {
	if _, err := s.line(ctx, userID, variantID); err != nil {
		return Cart{}, err
	}
	return s.mutate(ctx, "remove", userID, func(ctx context.Context) error {
		return s.Remote.DeleteLine(ctx, userID, variantID)
	})
}

// ApplyDiscountCode attaches a discount code. Codes stack; the remote service
// decides whether the code exists and is redeemable.
func (s *Service) ApplyDiscountCode(ctx context.Context, userID, code string) (Cart, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Cart{}, fmt.Errorf("discount code required: %w", ErrInvalidInput)
	}
	return s.mutate(ctx, "apply_discount", userID, func(ctx context.Context) error {
		return s.Remote.ApplyDiscountCode(ctx, userID, code)
	})
}

func (s *Service) line(ctx context.Context, userID, variantID string) (Line, error) {
	snapshot, err := s.Snapshot(ctx, userID)
	if err != nil {
		return Line{}, err
	}
	line, ok := snapshot.Line(variantID)
	if !ok {
		return Line{}, ErrLineNotFound
	}
	return line, nil
}

// mutate runs a remote mutation and refetches on success. A failed mutation is
// treated as not applied: it is logged and the previous snapshot stays current.
func (s *Service) mutate(ctx context.Context, op, userID string, fn func(context.Context) error) (Cart, error) {
	if s == nil || s.Remote == nil {
		return Cart{}, errors.New("cart service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return Cart{}, fmt.Errorf("user id required: %w", ErrInvalidInput)
	}
	if err := fn(ctx); err != nil {
		s.logger(ctx).Error().Err(err).Str("op", op).Str("user_id", userID).Msg("cart_mutation_failed")
		recordMutation(op, "error")
		return Cart{}, fmt.Errorf("cart %s: %w", op, err)
	}
	recordMutation(op, "ok")
	return s.Refresh(ctx, userID)
}

func recordMutation(op, result string) {
	if obs.CartMutationTotal != nil {
		obs.CartMutationTotal.WithLabelValues(op, result).Inc()
	}
}
