package checkout

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-storefront/internal/address"
	"github.com/noah-isme/toko-storefront/internal/cart"
	"github.com/noah-isme/toko-storefront/internal/common"
)

// Handler exposes checkout sessions over HTTP.
type Handler struct {
	Svc *Service
	// Submit serves POST /{sessionId}/submit when set.
	Submit http.Handler
}

// Routes mounts the session endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.Create)
	r.Route("/{sessionId}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Abandon)
		r.Put("/address", h.SetAddress)
		r.Put("/shipping-method", h.SelectShipping)
		r.Put("/payment-method", h.SelectPayment)
		r.Post("/next", h.Next)
		r.Post("/back", h.Back)
		if h.Submit != nil {
			r.Method(http.MethodPost, "/submit", h.Submit)
		}
	})
}

// Create starts a checkout session with a fresh draft.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	view, err := h.Svc.Start(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, view)
}

// Get renders the checkout page model.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	view, err := h.Svc.View(r.Context(), userID, chi.URLParam(r, "sessionId"))
	h.respond(w, view, err)
}

// SetAddress selects a saved address by id or replaces the address fields.
func (h *Handler) SetAddress(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload struct {
		SavedAddressID string           `json:"savedAddressId"`
		Address        *address.Address `json:"address" validate:"-"`
	}
	if err := common.DecodeAndValidate(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	sessionID := chi.URLParam(r, "sessionId")
	var (
		view View
		err  error
	)
	switch {
	case strings.TrimSpace(payload.SavedAddressID) != "":
		view, err = h.Svc.UseSavedAddress(r.Context(), userID, sessionID, payload.SavedAddressID)
	case payload.Address != nil:
		view, err = h.Svc.EditAddress(r.Context(), userID, sessionID, *payload.Address)
	default:
		err = &common.ValidationError{Fields: map[string]string{"address": "is required"}}
	}
	h.respond(w, view, err)
}

// SelectShipping records the shipping method.
func (h *Handler) SelectShipping(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload struct {
		ShippingMethodID string `json:"shippingMethodId" validate:"required"`
	}
	if err := common.DecodeAndValidate(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	view, err := h.Svc.SelectShipping(r.Context(), userID, chi.URLParam(r, "sessionId"), payload.ShippingMethodID)
	h.respond(w, view, err)
}

// SelectPayment records either a payment type or a saved payment method.
func (h *Handler) SelectPayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload struct {
		PaymentTypeID       string `json:"paymentTypeId" validate:"required_without=UserPaymentMethodID,excluded_with=UserPaymentMethodID"`
		UserPaymentMethodID string `json:"userPaymentMethodId"`
	}
	if err := common.DecodeAndValidate(r, &payload); err != nil {
		h.writeError(w, err)
		return
	}
	sessionID := chi.URLParam(r, "sessionId")
	var (
		view View
		err  error
	)
	if payload.UserPaymentMethodID != "" {
		view, err = h.Svc.SelectSavedPaymentMethod(r.Context(), userID, sessionID, payload.UserPaymentMethodID)
	} else {
		view, err = h.Svc.SelectPaymentType(r.Context(), userID, sessionID, payload.PaymentTypeID)
	}
	h.respond(w, view, err)
}

// Next advances one step.
func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	view, err := h.Svc.Next(r.Context(), userID, chi.URLParam(r, "sessionId"))
	h.respond(w, view, err)
}

// Back returns to an earlier step, by default the previous one.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	sessionID := chi.URLParam(r, "sessionId")
	var payload struct {
		Step string `json:"step"`
	}
	if r.ContentLength > 0 {
		if err := common.DecodeAndValidate(r, &payload); err != nil {
			h.writeError(w, err)
			return
		}
	}
	var target Step
	if payload.Step == "" {
		current, err := h.Svc.View(r.Context(), userID, sessionID)
		if err != nil {
			h.writeError(w, err)
			return
		}
		step, _ := ParseStep(current.Step)
		target = max(step-1, StepAddress)
	} else {
		step, ok := ParseStep(payload.Step)
		if !ok {
			common.WriteValidationError(w, &common.ValidationError{Fields: map[string]string{"step": "is unknown"}})
			return
		}
		target = step
	}
	view, err := h.Svc.Back(r.Context(), userID, sessionID, target)
	h.respond(w, view, err)
}

// Abandon discards the session.
func (h *Handler) Abandon(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	if err := h.Svc.Abandon(r.Context(), userID, chi.URLParam(r, "sessionId")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "checkout service not configured", nil)
		return "", false
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return "", false
	}
	return userID, true
}

func (h *Handler) respond(w http.ResponseWriter, view View, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, view)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	WriteError(w, err)
}

// WriteError maps checkout errors onto the API error shape.
func WriteError(w http.ResponseWriter, err error) {
	if err == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "unknown error", nil)
		return
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusBadRequest
		}
		code := appErr.Code
		if code == "" {
			code = "BAD_REQUEST"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		common.WriteValidationError(w, verr)
		return
	}
	var guard *GuardError
	if errors.As(err, &guard) {
		if len(guard.InsufficientVariantIDs) > 0 {
			common.JSONError(w, http.StatusConflict, "INSUFFICIENT_STOCK", "some items exceed available stock", map[string]any{
				"variantIds": guard.InsufficientVariantIDs,
			})
			return
		}
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", guard.Error(), map[string]any{
			"step":   guard.Step.String(),
			"fields": guard.Fields,
		})
		return
	}
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, address.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrUnknownShippingMethod), errors.Is(err, ErrUnknownPaymentMethod), errors.Is(err, ErrInvalidTransition):
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, ErrSubmissionInFlight):
		common.JSONError(w, http.StatusConflict, "SUBMISSION_IN_FLIGHT", err.Error(), nil)
	case errors.Is(err, cart.ErrMalformedSnapshot):
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "cart service returned an invalid cart", nil)
	default:
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM_ERROR", err.Error(), nil)
	}
}
