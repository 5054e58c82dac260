package address_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-storefront/internal/address"
	"github.com/noah-isme/toko-storefront/internal/common"
)

type memoryBook struct {
	mu    sync.Mutex
	seq   int
	saved []address.Address
}

func (m *memoryBook) ListAddresses(context.Context, string) ([]address.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]address.Address(nil), m.saved...), nil
}

func (m *memoryBook) CreateAddress(_ context.Context, _ string, a address.Address) (address.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	a.ID = fmt.Sprintf("addr-%d", m.seq)
	m.saved = append(m.saved, a)
	return a, nil
}

func (m *memoryBook) UpdateAddress(_ context.Context, _ string, a address.Address) (address.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.saved {
		if m.saved[i].ID == a.ID {
			m.saved[i] = a
			return a, nil
		}
	}
	return address.Address{}, fmt.Errorf("PUT /addresses/%s: %w", a.ID, common.ErrNotFound)
}

type addressResponse struct {
	Data  json.RawMessage `json:"data"`
	Error struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func newAddressServer(t *testing.T, userID string) *httptest.Server {
	t.Helper()
	h := &address.Handler{Svc: &address.Service{Remote: &memoryBook{}}}
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if userID != "" {
				req = req.WithContext(common.WithUserID(req.Context(), userID))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Route("/addresses", h.Routes)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func send(t *testing.T, method, url string, body any) (int, addressResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	var out addressResponse
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func TestAddressBookOverHTTP(t *testing.T) {
	srv := newAddressServer(t, "u1")
	base := srv.URL + "/addresses"

	status, body := send(t, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, status)
	require.JSONEq(t, `[]`, string(body.Data))

	input := validAddress()
	input.ID = "ignored"
	input.Country = "pl"
	status, body = send(t, http.MethodPost, base, input)
	require.Equal(t, http.StatusCreated, status)
	var created address.Address
	require.NoError(t, json.Unmarshal(body.Data, &created))
	require.Equal(t, "addr-1", created.ID)
	require.Equal(t, "PL", created.Country)

	input.City = "Gdańsk"
	status, body = send(t, http.MethodPut, base+"/addr-1", input)
	require.Equal(t, http.StatusOK, status)
	var updated address.Address
	require.NoError(t, json.Unmarshal(body.Data, &updated))
	require.Equal(t, "addr-1", updated.ID)
	require.Equal(t, "Gdańsk", updated.City)

	status, body = send(t, http.MethodPut, base+"/addr-9", input)
	require.Equal(t, http.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", body.Error.Code)
}

func TestAddressBookRejectsInvalidInput(t *testing.T) {
	srv := newAddressServer(t, "u1")
	bad := validAddress()
	bad.PhoneNumber = "12"
	status, body := send(t, http.MethodPost, srv.URL+"/addresses", bad)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	require.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	require.Contains(t, body.Error.Details, "phoneNumber")

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/addresses", bytes.NewBufferString("{"))
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestAddressBookRequiresUser(t *testing.T) {
	srv := newAddressServer(t, "")
	status, body := send(t, http.MethodGet, srv.URL+"/addresses", nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHORIZED", body.Error.Code)
}
