package address

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-storefront/internal/common"
)

// Handler exposes the user's address book.
type Handler struct {
	Svc *Service
}

// Routes mounts the address book endpoints.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{addressId}", h.Update)
}

// List returns the saved addresses.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	list, err := h.Svc.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if list == nil {
		list = []Address{}
	}
	common.Data(w, http.StatusOK, list)
}

// Create saves a new address.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	// Validation runs in the service after normalisation.
	var payload Address
	if err := common.DecodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	created, err := h.Svc.Create(r.Context(), userID, payload)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, created)
}

// Update overwrites a saved address.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.user(w, r)
	if !ok {
		return
	}
	var payload Address
	if err := common.DecodeJSON(r, &payload); err != nil {
		writeError(w, err)
		return
	}
	updated, err := h.Svc.Update(r.Context(), userID, chi.URLParam(r, "addressId"), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, updated)
}

func (h *Handler) user(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "address service not configured", nil)
		return "", false
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return "", false
	}
	return userID, true
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		common.JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	var verr *common.ValidationError
	if errors.As(err, &verr) {
		common.WriteValidationError(w, verr)
		return
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, common.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "address not found", nil)
	case errors.Is(err, common.ErrUpstreamRejected):
		common.JSONError(w, http.StatusUnprocessableEntity, "REJECTED", err.Error(), nil)
	default:
		common.JSONError(w, http.StatusBadGateway, "UPSTREAM_ERROR", "address book unavailable, please retry", nil)
	}
}
