// Package metrics holds the Prometheus collectors shared by the API and the
// classifier.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Classification outcomes.
const (
	OutcomeMatched  = "matched"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Metrics groups the application collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	classifications        *prometheus.CounterVec
	classificationDuration prometheus.Histogram
	httpRequests           *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		classifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tally",
			Name:      "classifications_total",
			Help:      "Expense classifications by outcome.",
		}, []string{"outcome"}),
		classificationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tally",
			Name:      "classification_duration_seconds",
			Help:      "Latency of the outbound classification call.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tally",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.classifications, m.classificationDuration, m.httpRequests)
	return m
}

// ObserveClassification records one classification attempt.
func (m *Metrics) ObserveClassification(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.classifications.WithLabelValues(outcome).Inc()
	m.classificationDuration.Observe(elapsed.Seconds())
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
