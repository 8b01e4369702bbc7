package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mockbird/mockbird/pkg/journal"
)

// Metrics holds the dispatch instrumentation for one server instance. Each
// instance owns its own registry so pooled servers never collide.
type Metrics struct {
	registry      *prometheus.Registry
	requestsTotal *prometheus.CounterVec
	matchDuration prometheus.Histogram
}

func newMetrics(activeMocks func() float64) *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mockbird",
			Name:      "requests_total",
			Help:      "Number of dispatched requests by outcome.",
		}, []string{"outcome"}),
		matchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mockbird",
			Name:      "match_duration_seconds",
			Help:      "Time spent selecting a mock for a request.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	activeGauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "mockbird",
		Name:      "active_mocks",
		Help:      "Number of active mocks in the registry.",
	}, activeMocks)

	m.registry.MustRegister(m.requestsTotal, m.matchDuration, activeGauge)

	// Touch both outcomes so the series exist before the first request.
	m.requestsTotal.WithLabelValues(journal.OutcomeMatched)
	m.requestsTotal.WithLabelValues(journal.OutcomeNoMatch)
	return m
}

// CountRequest increments the dispatch counter for an outcome.
func (m *Metrics) CountRequest(outcome string) {
	m.requestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveMatchDuration records how long mock selection took.
func (m *Metrics) ObserveMatchDuration(d time.Duration) {
	m.matchDuration.Observe(d.Seconds())
}

// Handler serves the Prometheus exposition format for this instance.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
