package payment

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-storefront/internal/checkout"
	"github.com/noah-isme/toko-storefront/internal/common"
)

// Handler exposes order submission over HTTP.
type Handler struct {
	Dispatcher *Dispatcher
}

// Submit dispatches the checkout session's order and returns the provider
// checkout URL. Browsers asking for HTML, or callers passing ?redirect=1, get a
// 303 redirect to it instead.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	if h.Dispatcher == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order dispatcher not configured", nil)
		return
	}
	userID, ok := common.UserID(r.Context())
	if !ok || userID == "" {
		common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}
	session, err := h.Dispatcher.Submit(r.Context(), userID, chi.URLParam(r, "sessionId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if wantsRedirect(r) {
		http.Redirect(w, r, session.CheckoutURL, http.StatusSeeOther)
		return
	}
	common.Data(w, http.StatusOK, map[string]any{
		"provider":    session.Provider.String(),
		"checkoutUrl": session.CheckoutURL,
	})
}

func wantsRedirect(r *http.Request) bool {
	switch strings.ToLower(r.URL.Query().Get("redirect")) {
	case "1", "true", "yes":
		return true
	}
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") && !strings.Contains(accept, "application/json")
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var subErr *SubmissionError
	switch {
	case errors.Is(err, ErrUnsupportedProvider):
		common.JSONError(w, http.StatusUnprocessableEntity, "UNSUPPORTED_PROVIDER", "selected payment provider is not supported", nil)
	case errors.As(err, &subErr):
		common.JSONError(w, http.StatusBadGateway, "PAYMENT_PROVIDER_ERROR", "payment provider could not start checkout, please retry", map[string]any{
			"provider": subErr.Provider.String(),
		})
	default:
		checkout.WriteError(w, err)
	}
}
