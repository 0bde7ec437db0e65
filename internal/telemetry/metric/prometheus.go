package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every dashlink metric.
const Namespace = "dashlink"

// Request outcomes used as the "outcome" label.
const (
	OutcomeOK             = "ok"
	OutcomeSessionExpired = "session_expired"
	OutcomeForbidden      = "forbidden"
	OutcomeNotFound       = "not_found"
	OutcomeServerError    = "server_error"
	OutcomeTransportError = "transport_error"
)

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	EpisodesTotal   prometheus.Counter
	SuppressedTotal prometheus.Counter
}

// NewRegistry creates a registry with the client and expiry metrics and the
// standard Go and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Requests sent to the dashboard API by method and outcome",
		}, []string{"method", "outcome"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Round-trip time of dashboard API requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		EpisodesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "expiry",
			Name:      "episodes_total",
			Help:      "Session expiry episodes started",
		}),
		SuppressedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "expiry",
			Name:      "suppressed_total",
			Help:      "401 responses observed while an episode was already being handled",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.RequestsTotal,
		r.RequestDuration,
		r.EpisodesTotal,
		r.SuppressedTotal,
	)
	return r
}

// Prometheus returns the underlying registry so other packages can register
// their own collectors.
func (r *Registry) Prometheus() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler returns the /metrics handler for this registry.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// ObserveRequest records one completed request.
func (r *Registry) ObserveRequest(method, outcome string, seconds float64) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(method, outcome).Inc()
	r.RequestDuration.WithLabelValues(method).Observe(seconds)
}

// ExpiryEpisode counts a started episode.
func (r *Registry) ExpiryEpisode() {
	if r == nil {
		return
	}
	r.EpisodesTotal.Inc()
}

// ExpirySuppressed counts a 401 absorbed by an episode in progress.
func (r *Registry) ExpirySuppressed() {
	if r == nil {
		return
	}
	r.SuppressedTotal.Inc()
}
