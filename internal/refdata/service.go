package refdata

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-storefront/internal/checkout"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// Source is the order service's reference data API.
type Source interface {
	ShippingMethods(ctx context.Context) ([]checkout.ShippingMethod, error)
	PaymentTypes(ctx context.Context) ([]checkout.PaymentType, error)
	UserPaymentMethods(ctx context.Context, userID string) ([]checkout.UserPaymentMethod, error)
	ProductVariants(ctx context.Context, productID string) ([]pricing.VariantPrice, error)
}

// Service serves reference data read-through from Redis. Cache failures are
// logged and the source is used directly.
type Service struct {
	Source Source
	Cache  *Cache
	Logger zerolog.Logger
}

// ShippingMethods lists the offered shipping methods.
func (s *Service) ShippingMethods(ctx context.Context) ([]checkout.ShippingMethod, error) {
	return readThrough(ctx, s, KeyShippingMethods(), s.Source.ShippingMethods)
}

// PaymentTypes lists the generic payment types.
func (s *Service) PaymentTypes(ctx context.Context) ([]checkout.PaymentType, error) {
	return readThrough(ctx, s, KeyPaymentTypes(), s.Source.PaymentTypes)
}

// UserPaymentMethods lists the user's saved payment methods.
func (s *Service) UserPaymentMethods(ctx context.Context, userID string) ([]checkout.UserPaymentMethod, error) {
	return readThrough(ctx, s, KeyUserPaymentMethods(userID), func(ctx context.Context) ([]checkout.UserPaymentMethod, error) {
		return s.Source.UserPaymentMethods(ctx, userID)
	})
}

// ProductVariants returns the variant prices of a product.
func (s *Service) ProductVariants(ctx context.Context, productID string) ([]pricing.VariantPrice, error) {
	return readThrough(ctx, s, KeyProductVariants(productID), func(ctx context.Context) ([]pricing.VariantPrice, error) {
		return s.Source.ProductVariants(ctx, productID)
	})
}

// ForgetUser drops the user's cached payment methods, e.g. after they changed upstream.
func (s *Service) ForgetUser(ctx context.Context, userID string) error {
	return s.Cache.Delete(ctx, KeyUserPaymentMethods(userID))
}

func readThrough[T any](ctx context.Context, s *Service, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	var cached []T
	hit, err := s.Cache.GetJSON(ctx, key, &cached)
	if err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("refdata_cache_read_failed")
	}
	if hit {
		return cached, nil
	}
	fresh, err := load(ctx)
	if err != nil {
		return nil, err
	}
	if fresh == nil {
		fresh = []T{}
	}
	if err := s.Cache.SetJSON(ctx, key, fresh); err != nil {
		s.Logger.Warn().Err(err).Str("key", key).Msg("refdata_cache_write_failed")
	}
	return fresh, nil
}
