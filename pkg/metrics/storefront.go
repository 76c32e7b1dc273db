package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StorefrontMetrics records checkout and address-lookup outcomes.
type StorefrontMetrics struct {
	checkoutDuration *prometheus.HistogramVec
	checkoutOutcome  *prometheus.CounterVec
	lookupOutcome    *prometheus.CounterVec
	cartCorruption   prometheus.Counter
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of checkout session creation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	checkoutOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by terminal outcome.",
	}, []string{"outcome"})
	lookupOutcome := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "address_lookups_total",
		Help: "Postal-code lookups by outcome.",
	}, []string{"outcome"})
	cartCorruption := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "guest_cart_corruption_total",
		Help: "Guest cart snapshots that required repair on load.",
	})
	reg.MustRegister(checkoutDuration, checkoutOutcome, lookupOutcome, cartCorruption)
	return &StorefrontMetrics{
		checkoutDuration: checkoutDuration,
		checkoutOutcome:  checkoutOutcome,
		lookupOutcome:    lookupOutcome,
		cartCorruption:   cartCorruption,
	}
}

// ObserveCheckout records one checkout attempt with its outcome and duration.
func (m *StorefrontMetrics) ObserveCheckout(outcome string, duration time.Duration) {
	if m == nil || m.checkoutDuration == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.checkoutDuration.WithLabelValues(label).Observe(duration.Seconds())
	m.checkoutOutcome.WithLabelValues(label).Inc()
}

// IncLookup counts one postal-code lookup by outcome.
func (m *StorefrontMetrics) IncLookup(outcome string) {
	if m == nil || m.lookupOutcome == nil {
		return
	}
	m.lookupOutcome.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCartCorruption counts one repaired guest cart.
func (m *StorefrontMetrics) IncCartCorruption() {
	if m == nil || m.cartCorruption == nil {
		return
	}
	m.cartCorruption.Inc()
}

func normalizeLabel(outcome string) string {
	if outcome == "" {
		return "unknown"
	}
	return outcome
}
