package storefront

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// ErrProductNotFound is returned when a product has no purchasable variants.
var ErrProductNotFound = errors.New("product not found")

// VariantSource lists the variant prices of a product.
type VariantSource interface {
	ProductVariants(ctx context.Context, productID string) ([]pricing.VariantPrice, error)
}

// ProductHandler renders listing prices of grouped products.
type ProductHandler struct {
	Variants VariantSource
}

// Price returns the "from" price of a product and, when any variant is
// discounted, the "was" price shown struck through next to it.
func (h *ProductHandler) Price(w http.ResponseWriter, r *http.Request) {
	if h.Variants == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "product service not configured", nil)
		return
	}
	productID := strings.TrimSpace(chi.URLParam(r, "productId"))
	variants, err := h.Variants.ProductVariants(r.Context(), productID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			common.JSONError(w, http.StatusNotFound, "NOT_FOUND", ErrProductNotFound.Error(), nil)
			return
		}
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "catalog unavailable, please retry", nil)
		return
	}
	listing, ok := pricing.FromPrice(variants)
	if !ok {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", ErrProductNotFound.Error(), nil)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{
		"productId": productID,
		"price":     listing.Display(),
		"variants":  len(variants),
	})
}
