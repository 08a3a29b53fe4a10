package hitkit

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusMetrics implements MetricsRecorder on a private Prometheus
// registry, one labeled counter series per event name. The private registry
// keeps scrapes limited to hitbadge series and keeps tests isolated from the
// process-global default registry.
type PrometheusMetrics struct {
	registry *prometheus.Registry
	events   *prometheus.CounterVec
}

// NewPrometheusMetrics constructs the recorder and its backing registry.
func NewPrometheusMetrics() *PrometheusMetrics {
	registry := prometheus.NewRegistry()
	events := promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "hitbadge",
		Subsystem: "core",
		Name:      "events_total",
		Help:      "Hit recording, broadcast, and badge events by name.",
	}, []string{"event"})
	return &PrometheusMetrics{registry: registry, events: events}
}

// Increment increases the counter for the given event.
func (recorder *PrometheusMetrics) Increment(event string) {
	recorder.events.WithLabelValues(event).Inc()
}

// Handler returns the scrape endpoint for the backing registry.
func (recorder *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(recorder.registry, promhttp.HandlerOpts{})
}
