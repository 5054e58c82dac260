package upstream_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/address"
	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/payment"
	"github.com/noah-isme/toko-storefront/internal/resilience"
	"github.com/noah-isme/toko-storefront/internal/upstream"
)

type seen struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
}

func (s *seen) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	s.mu.Lock()
	s.requests = append(s.requests, r)
	s.bodies = append(s.bodies, string(body))
	s.mu.Unlock()
}

func (s *seen) last() (*http.Request, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[len(s.requests)-1], s.bodies[len(s.bodies)-1]
}

func newClient(t *testing.T, h http.Handler) *upstream.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	reads := resilience.HTTPClient{Client: srv.Client(), MaxAttempts: 2, BaseBackoff: time.Millisecond, Timeout: time.Second}
	cl, err := upstream.New(srv.URL+"/api/", reads, resilience.HTTPClient{Client: srv.Client()}, zerolog.Nop())
	require.NoError(t, err)
	return cl
}

func TestFetchCartForwardsUserAndDecodesDecimals(t *testing.T) {
	rec := &seen{}
	r := chi.NewRouter()
	r.Get("/api/cart", func(w http.ResponseWriter, req *http.Request) {
		rec.record(req)
		_, _ = io.WriteString(w, `{"lines":[{"variantId":"v1","quantity":2,"unitPrice":19.99,"unitDiscountPercent":"10","availableStock":4}],"discountCodes":[{"code":"SPRING","percent":5}]}`)
	})
	cl := newClient(t, r)

	got, err := cl.FetchCart(context.Background(), "user-42")
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	require.True(t, got.Lines[0].UnitPrice.Equal(decimal.RequireFromString("19.99")))
	require.True(t, got.Lines[0].UnitDiscountPercent.Equal(decimal.NewFromInt(10)))
	require.Equal(t, "SPRING", got.DiscountCodes[0].Code)

	req, _ := rec.last()
	require.Equal(t, "user-42", req.Header.Get(upstream.UserHeader))
}

func TestCartMutationsHitExpectedEndpoints(t *testing.T) {
	rec := &seen{}
	r := chi.NewRouter()
	r.HandleFunc("/api/*", func(w http.ResponseWriter, req *http.Request) {
		rec.record(req)
		w.WriteHeader(http.StatusNoContent)
	})
	cl := newClient(t, r)
	ctx := context.Background()

	require.NoError(t, cl.AddLine(ctx, "u1", "v1", 3))
	req, body := rec.last()
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "/api/cart/lines", req.URL.Path)
	require.JSONEq(t, `{"variantId":"v1","quantity":3}`, body)

	require.NoError(t, cl.IncreaseLine(ctx, "u1", "v 1"))
	req, _ = rec.last()
	require.Equal(t, "/api/cart/lines/v 1/increase", req.URL.Path)

	require.NoError(t, cl.DecreaseLine(ctx, "u1", "v1"))
	req, _ = rec.last()
	require.Equal(t, "/api/cart/lines/v1/decrease", req.URL.Path)

	require.NoError(t, cl.DeleteLine(ctx, "u1", "v1"))
	req, _ = rec.last()
	require.Equal(t, http.MethodDelete, req.Method)

	require.NoError(t, cl.ApplyDiscountCode(ctx, "u1", "TEN"))
	req, body = rec.last()
	require.Equal(t, "/api/cart/discount-codes", req.URL.Path)
	require.JSONEq(t, `{"code":"TEN"}`, body)
}

func TestErrorsAreTyped(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/cart/discount-codes", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"error":{"code":"CODE_EXPIRED","message":"code expired"}}`)
	})
	cl := newClient(t, r)

	err := cl.ApplyDiscountCode(context.Background(), "u1", "OLD")
	var upErr *upstream.Error
	require.True(t, errors.As(err, &upErr))
	require.Equal(t, http.StatusUnprocessableEntity, upErr.StatusCode)
	require.Equal(t, "CODE_EXPIRED", upErr.Code)

	_, err = cl.ListAddresses(context.Background(), "u1")
	require.ErrorIs(t, err, upstream.ErrNotFound)
}

func TestReferenceDataAcceptsEnvelope(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/api/shipping-methods", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"data":[{"id":"dhl","name":"DHL","price":9.99}]}`)
	})
	r.Get("/api/payment-types", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"pt-1","provider":"Stripe Checkout"}]`)
	})
	r.Get("/api/products/{id}/variants", func(w http.ResponseWriter, req *http.Request) {
		require.Equal(t, "p1", chi.URLParam(req, "id"))
		_, _ = io.WriteString(w, `[{"variantId":"a","unitPrice":"10","discountPercent":"0"}]`)
	})
	cl := newClient(t, r)
	ctx := context.Background()

	methods, err := cl.ShippingMethods(ctx)
	require.NoError(t, err)
	require.Equal(t, "DHL", methods[0].Name)
	require.True(t, methods[0].Price.Equal(decimal.RequireFromString("9.99")))

	types, err := cl.PaymentTypes(ctx)
	require.NoError(t, err)
	require.Equal(t, "Stripe Checkout", types[0].Provider)

	variants, err := cl.ProductVariants(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, variants, 1)
}

func TestAddressWrites(t *testing.T) {
	rec := &seen{}
	r := chi.NewRouter()
	r.Post("/api/addresses", func(w http.ResponseWriter, req *http.Request) {
		rec.record(req)
		_, _ = io.WriteString(w, `{"id":"new-1","country":"PL","city":"Łódź"}`)
	})
	r.Put("/api/addresses/{id}", func(w http.ResponseWriter, req *http.Request) {
		rec.record(req)
		w.WriteHeader(http.StatusNoContent)
	})
	cl := newClient(t, r)

	created, err := cl.CreateAddress(context.Background(), "u1", address.Address{Country: "PL", City: "Łódź"})
	require.NoError(t, err)
	require.Equal(t, "new-1", created.ID)

	updated, err := cl.UpdateAddress(context.Background(), "u1", address.Address{ID: "a-9", City: "Poznań"})
	require.NoError(t, err)
	require.Equal(t, "a-9", updated.ID)
	req, _ := rec.last()
	require.Equal(t, "/api/addresses/a-9", req.URL.Path)
}

func TestCheckoutSessionIsSentOnce(t *testing.T) {
	var mu sync.Mutex
	hits := 0
	var body map[string]any
	r := chi.NewRouter()
	r.Post("/api/payment/{provider}/checkout", func(w http.ResponseWriter, req *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		if chi.URLParam(req, "provider") == "payu" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		_, _ = io.WriteString(w, `{"data":{"checkoutUrl":"https://checkout.stripe.com/c/pay/cs_test"}}`)
	})
	cl := newClient(t, r)

	raw, err := cl.CreateCheckoutSession(context.Background(), "stripe", payment.OrderSubmissionRequest{UserID: "u1", ProviderID: "pt-1"})
	require.NoError(t, err)
	require.JSONEq(t, `{"checkoutUrl":"https://checkout.stripe.com/c/pay/cs_test"}`, string(raw))
	require.Equal(t, "u1", body["userId"])

	_, err = cl.CreateCheckoutSession(context.Background(), "payu", payment.OrderSubmissionRequest{UserID: "u1"})
	var statusErr *resilience.StatusError
	require.True(t, errors.As(err, &statusErr))
	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 2, hits)
}

func TestNewRejectsRelativeBase(t *testing.T) {
	_, err := upstream.New("/relative", resilience.HTTPClient{}, resilience.HTTPClient{}, zerolog.Nop())
	require.Error(t, err)
}

func TestClientErrorsAreRejections(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/cart/lines", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"code":"OUT_OF_STOCK","message":"variant sold out"}`)
	})
	cl := newClient(t, r)
	err := cl.AddLine(context.Background(), "u1", "v1", 1)
	require.ErrorIs(t, err, common.ErrUpstreamRejected)
	require.Contains(t, err.Error(), "variant sold out")
}
