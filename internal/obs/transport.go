package obs

import (
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// UpstreamTransport instruments calls to the order service: a client span per
// request with W3C trace context injected, plus request metrics when m is set.
func UpstreamTransport(base http.RoundTripper, m *UpstreamMetrics) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	if m != nil {
		base = meteredTransport{next: base, metrics: m}
	}
	return otelhttp.NewTransport(base,
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "upstream " + r.Method + " " + r.URL.Path
		}),
	)
}

type meteredTransport struct {
	next    http.RoundTripper
	metrics *UpstreamMetrics
}

func (t meteredTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.next.RoundTrip(r)
	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode)
	}
	t.metrics.ReqTotal.WithLabelValues(r.Method, status).Inc()
	t.metrics.ReqDur.WithLabelValues(r.Method).Observe(DurationMillis(time.Since(start)))
	return resp, err
}
