package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CheckoutSubmissionTotal counts order submission outcomes per payment provider.
	CheckoutSubmissionTotal *prometheus.CounterVec
	// CheckoutSubmissionLatency records checkout-session creation latency in milliseconds.
	CheckoutSubmissionLatency *prometheus.HistogramVec
	// CheckoutTransitionTotal counts checkout step transitions by outcome.
	CheckoutTransitionTotal *prometheus.CounterVec
	// CartMutationTotal counts cart mutation outcomes.
	CartMutationTotal *prometheus.CounterVec
	// StockConflictTotal counts cart snapshots observed with insufficient stock.
	StockConflictTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CheckoutSubmissionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_submission_total",
			Help:      "Count of order submission outcomes by payment provider.",
		}, []string{"provider", "result"})
		CheckoutSubmissionLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_submission_duration_ms",
			Help:      "Latency of provider checkout-session creation in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		}, []string{"provider", "result"})
		CheckoutTransitionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_transition_total",
			Help:      "Count of checkout step transitions by outcome.",
		}, []string{"from", "to", "result"})
		CartMutationTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutation_total",
			Help:      "Count of cart mutation outcomes.",
		}, []string{"op", "result"})
		StockConflictTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_conflict_total",
			Help:      "Number of fetched cart snapshots with at least one line over available stock.",
		})

		CheckoutSubmissionTotal = register(reg, CheckoutSubmissionTotal)
		CheckoutSubmissionLatency = register(reg, CheckoutSubmissionLatency)
		CheckoutTransitionTotal = register(reg, CheckoutTransitionTotal)
		CartMutationTotal = register(reg, CartMutationTotal)
		StockConflictTotal = register(reg, StockConflictTotal)
	})
}
