// Package metrics exposes Prometheus instrumentation for the verification
// engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	Verifications   *prometheus.CounterVec
	CacheOutcomes   *prometheus.CounterVec
	RegistryCalls   *prometheus.CounterVec
	RegistryLatency prometheus.Histogram
}

// New creates and registers all engine metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritel_verifications_total",
			Help: "Verification operations by operation and outcome",
		}, []string{"operation", "outcome"}),
		CacheOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritel_org_cache_total",
			Help: "Organization lookups served from cache vs refreshed live",
		}, []string{"source"}),
		RegistryCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritel_registry_calls_total",
			Help: "External registry lookups by outcome",
		}, []string{"outcome"}),
		RegistryLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veritel_registry_call_duration_seconds",
			Help:    "Latency of external registry lookups",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

// ObserveVerification records one verification outcome.
func (m *Metrics) ObserveVerification(operation, outcome string) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(operation, outcome).Inc()
}

// ObserveCacheSource records whether an organization lookup hit the cache.
func (m *Metrics) ObserveCacheSource(source string) {
	if m == nil {
		return
	}
	m.CacheOutcomes.WithLabelValues(source).Inc()
}

// ObserveRegistryCall records a registry call outcome and duration.
func (m *Metrics) ObserveRegistryCall(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RegistryCalls.WithLabelValues(outcome).Inc()
	m.RegistryLatency.Observe(d.Seconds())
}
