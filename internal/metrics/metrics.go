package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus counters and gauges for the service.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   prometheus.Counter
	errorsTotal     prometheus.Counter
	videoSavesTotal prometheus.Counter
	exportsTotal    prometheus.Counter
	activeSessions  prometheus.Gauge
}

// New creates and registers the service metrics on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cuetube_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cuetube_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	videoSavesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cuetube_video_saves_total",
		Help: "Total number of hotcue sets saved",
	})
	exportsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cuetube_exports_total",
		Help: "Total number of library snapshots exported to object storage",
	})
	activeSessions := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cuetube_active_sessions",
		Help: "Number of open realtime editing sessions",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		videoSavesTotal,
		exportsTotal,
		activeSessions,
	)

	return &Metrics{
		registry:        registry,
		requestsTotal:   requestsTotal,
		errorsTotal:     errorsTotal,
		videoSavesTotal: videoSavesTotal,
		exportsTotal:    exportsTotal,
		activeSessions:  activeSessions,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the error response counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncVideoSaves increments the saved hotcue set counter.
func (m *Metrics) IncVideoSaves() {
	m.videoSavesTotal.Inc()
}

// IncExports increments the exported snapshot counter.
func (m *Metrics) IncExports() {
	m.exportsTotal.Inc()
}

// SetActiveSessions sets the open realtime session gauge.
func (m *Metrics) SetActiveSessions(n int) {
	m.activeSessions.Set(float64(n))
}

// Handler returns an http.Handler that serves the registry. updateGauges is
// called before each scrape to refresh gauge values (e.g. active sessions).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
