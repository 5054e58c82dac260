package storefront

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/pricing"
)

// CartHandler exposes the user's cart with its prices and stock flags.
type CartHandler struct {
	Carts  *cart.Service
	Engine pricing.Engine
}

// Routes mounts the cart endpoints.
func (h *CartHandler) Routes(r chi.Router) {
	r.Get("/", h.Get)
	r.Post("/lines", h.AddLine)
	r.Post("/lines/{variantId}/increase", h.Increase)
	r.Post("/lines/{variantId}/decrease", h.Decrease)
	r.Delete("/lines/{variantId}", h.Remove)
	r.Post("/discount-codes", h.ApplyDiscountCode)
}

// Get fetches the cart and renders it.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	snapshot, err := h.Carts.Refresh(r.Context(), userID)
	h.respond(w, snapshot, err)
}

// AddLine adds a variant to the cart.
func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload struct {
		VariantID string `json:"variantId" validate:"required"`
		Quantity  int    `json:"quantity" validate:"required,min=1"`
	}
	if err := common.DecodeAndValidate(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	snapshot, err := h.Carts.AddItem(r.Context(), userID, payload.VariantID, payload.Quantity)
	h.respond(w, snapshot, err)
}

// Increase adds one unit to a line.
func (h *CartHandler) Increase(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	snapshot, err := h.Carts.Increase(r.Context(), userID, chi.URLParam(r, "variantId"))
	h.respond(w, snapshot, err)
}

// Decrease removes one unit from a line.
func (h *CartHandler) Decrease(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	snapshot, err := h.Carts.Decrease(r.Context(), userID, chi.URLParam(r, "variantId"))
	h.respond(w, snapshot, err)
}

// Remove deletes a line.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	snapshot, err := h.Carts.RemoveItem(r.Context(), userID, chi.URLParam(r, "variantId"))
	h.respond(w, snapshot, err)
}

// ApplyDiscountCode attaches a discount code.
func (h *CartHandler) ApplyDiscountCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload struct {
		Code string `json:"code" validate:"required,max=64"`
	}
	if err := common.DecodeAndValidate(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	snapshot, err := h.Carts.ApplyDiscountCode(r.Context(), userID, strings.TrimSpace(payload.Code))
	h.respond(w, snapshot, err)
}

func (h *CartHandler) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.Carts == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "cart service not configured", nil)
		return "", false
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return "", false
	}
	return userID, true
}

func (h *CartHandler) respond(w http.ResponseWriter, snapshot cart.Cart, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, NewCartView(snapshot, h.Engine, nil))
}

func (h *CartHandler) writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		common.WriteValidationError(w, verr)
		return
	}
	switch {
	case errors.Is(err, cart.ErrInvalidInput):
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
	case errors.Is(err, cart.ErrLineNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, cart.ErrQuantityLimit):
		common.JSONError(w, http.StatusConflict, "QUANTITY_LIMIT", err.Error(), nil)
	case errors.Is(err, common.ErrUpstreamRejected):
		common.JSONError(w, http.StatusUnprocessableEntity, "REJECTED", err.Error(), nil)
	case errors.Is(err, cart.ErrMalformedSnapshot):
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "cart service returned an invalid cart", nil)
	default:
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "cart service unavailable, please retry", nil)
	}
}
