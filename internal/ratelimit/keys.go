package ratelimit

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-storefront/internal/common"
)

// ByCaller keys requests by the forwarded user id, falling back to the client IP
// for anonymous traffic.
func ByCaller(r *http.Request) string {
	if id, ok := common.UserID(r.Context()); ok && id != "" {
		return "user:" + id
	}
	return "ip:" + common.ClientIP(r)
}

// BySession keys requests by the caller and the checkout session in the path.
func BySession(r *http.Request) string {
	return ByCaller(r) + ":session:" + chi.URLParam(r, "sessionId")
}
