// Package metrics exposes Prometheus instrumentation for the inventory
// engine and its HTTP surface:
//
//   - inventory_phase_duration_seconds{phase}: generate, reduce, index, total (histogram)
//   - inventory_generated_items_total{mode}: show records produced (counter)
//   - inventory_datasets: datasets currently registered (gauge)
//   - inventory_generation_errors_total{code}: failed generations (counter)
//   - inventory_queries_total{kind}: registry getter calls (counter)
//   - http_requests_total{method,route,status}, http_request_duration_seconds{method,route}
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles the collectors registered on one registry. Tests create
// their own with New(prometheus.NewRegistry()).
type Metrics struct {
	PhaseDuration    *prometheus.HistogramVec
	GeneratedItems   *prometheus.CounterVec
	Datasets         prometheus.Gauge
	GenerationErrors *prometheus.CounterVec
	Queries          *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "inventory_phase_duration_seconds",
			Help:    "Duration of generation phases.",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"phase"}),
		GeneratedItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_generated_items_total",
			Help: "Show records produced by generation runs.",
		}, []string{"mode"}),
		Datasets: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inventory_datasets",
			Help: "Datasets currently held in the registry.",
		}),
		GenerationErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_generation_errors_total",
			Help: "Generation requests that failed, by error code.",
		}, []string{"code"}),
		Queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_queries_total",
			Help: "Registry getter calls by kind.",
		}, []string{"kind"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10},
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.PhaseDuration, m.GeneratedItems, m.Datasets, m.GenerationErrors,
		m.Queries, m.HTTPRequests, m.HTTPDuration)
	return m
}

// ObservePhase records d under phase. A nil receiver is a no-op so callers
// can run without metrics.
func (m *Metrics) ObservePhase(phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.PhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// AddItems counts generated show records.
func (m *Metrics) AddItems(mode string, n int) {
	if m == nil {
		return
	}
	m.GeneratedItems.WithLabelValues(mode).Add(float64(n))
}

// SetDatasets sets the registry size gauge.
func (m *Metrics) SetDatasets(n int) {
	if m == nil {
		return
	}
	m.Datasets.Set(float64(n))
}

// GenerationFailed counts a failed generation.
func (m *Metrics) GenerationFailed(code string) {
	if m == nil {
		return
	}
	m.GenerationErrors.WithLabelValues(code).Inc()
}

// Query counts a registry getter call.
func (m *Metrics) Query(kind string) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(kind).Inc()
}
