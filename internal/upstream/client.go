package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-storefront/internal/common"
	"github.com/noah-isme/toko-storefront/internal/resilience"
)

// UserHeader carries the acting user's id to the order service.
const UserHeader = "X-User-ID"

const maxErrorBody = 16 << 10

// ErrNotFound is returned when the order service answers 404.
var ErrNotFound = fmt.Errorf("upstream: %w", common.ErrNotFound)

// Error is a non-2xx answer from the order service.
type Error struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Code != "" {
		return fmt.Sprintf("upstream: %d %s: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("upstream: %d: %s", e.StatusCode, msg)
}

// Unwrap exposes client errors as common.ErrUpstreamRejected.
func (e *Error) Unwrap() error {
	if e.StatusCode >= 400 && e.StatusCode < 500 {
		return common.ErrUpstreamRejected
	}
	return nil
}

// Client talks JSON to the remote catalog and order service.
type Client struct {
	base *url.URL
	// HTTP serves reads and cart mutations.
	HTTP resilience.HTTPClient
	// Checkout serves checkout session creation. It is sent once and waits for
	// the provider without a client-side deadline.
	Checkout resilience.HTTPClient
	Logger   zerolog.Logger
}

// New returns a client for the service rooted at baseURL.
func New(baseURL string, reads, checkout resilience.HTTPClient, logger zerolog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("upstream: parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream: base url %q must be absolute", baseURL)
	}
	checkout.MaxAttempts = 1
	checkout.Timeout = -1
	return &Client{base: u, HTTP: reads, Checkout: checkout, Logger: logger}, nil
}

// Ping reports whether the order service is currently considered reachable.
func (c *Client) Ping(context.Context) error {
	if c.HTTP.Breaker.State() == resilience.Open {
		return resilience.ErrOpenCircuit
	}
	return nil
}

// endpoint joins an already escaped path onto the base URL.
func (c *Client) endpoint(path string) string {
	return strings.TrimRight(c.base.String(), "/") + path
}

func (c *Client) newRequest(ctx context.Context, method, path, userID string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("upstream: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set(UserHeader, userID)
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		req.Header.Set(middleware.RequestIDHeader, reqID)
	}
	return req, nil
}

// call sends the request and returns the body of a 2xx answer.
func (c *Client) call(ctx context.Context, via resilience.HTTPClient, method, path, userID string, body any) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, userID, body)
	if err != nil {
		return nil, err
	}
	resp, err := via.Do(ctx, req)
	if err != nil {
		c.log(ctx).Warn().Err(err).Str("method", method).Str("path", path).Msg("upstream_request_failed")
		return nil, fmt.Errorf("upstream: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("upstream: read %s %s: %w", method, path, err)
		}
		return data, nil
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	}
	return nil, decodeError(resp.StatusCode, raw)
}

func (c *Client) getJSON(ctx context.Context, path, userID string, dst any) error {
	data, err := c.call(ctx, c.HTTP, http.MethodGet, path, userID, nil)
	if err != nil {
		return err
	}
	return decode(path, data, dst)
}

func (c *Client) send(ctx context.Context, method, path, userID string, body, dst any) error {
	data, err := c.call(ctx, c.HTTP, method, path, userID, body)
	if err != nil {
		return err
	}
	if dst == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return decode(path, data, dst)
}

func (c *Client) log(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil && l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &c.Logger
}

// decode accepts both bare payloads and payloads wrapped in {"data": ...}.
func decode(path string, data []byte, dst any) error {
	if err := json.Unmarshal(unwrap(data), dst); err != nil {
		return fmt.Errorf("upstream: decode %s: %w", path, err)
	}
	return nil
}

func unwrap(data []byte) []byte {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return trimmed
	}
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err == nil && len(envelope.Data) > 0 && !bytes.Equal(envelope.Data, []byte("null")) {
		return envelope.Data
	}
	return trimmed
}

func decodeError(status int, raw []byte) error {
	out := &Error{StatusCode: status}
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Error   *struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		out.Code, out.Message = body.Code, body.Message
		if body.Error != nil {
			out.Code, out.Message = body.Error.Code, body.Error.Message
		}
	} else {
		out.Message = strings.TrimSpace(string(raw))
	}
	return out
}

func escape(segment string) string {
	return url.PathEscape(strings.TrimSpace(segment))
}
