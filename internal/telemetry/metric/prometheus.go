package metric

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gatekeep"

// Registry holds all application metrics.
type Registry struct {
	registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	GateLogins        *prometheus.CounterVec
	GateVerifications *prometheus.CounterVec

	ContactMessages *prometheus.CounterVec

	BuildInfo *prometheus.GaugeVec
}

// NewRegistry creates a registry with every gatekeep metric registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .3, .5, 1, 2.5, 5},
		}, []string{"route", "method"}),
		GateLogins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "logins_total",
			Help:      "Password checks by surface and result.",
		}, []string{"surface", "result"}),
		GateVerifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "verifications_total",
			Help:      "Session cookie verifications by surface and result.",
		}, []string{"surface", "result"}),
		ContactMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contact",
			Name:      "messages_total",
			Help:      "Contact form submissions by result.",
		}, []string{"result"}),
		BuildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Build information, always 1.",
		}, []string{"version", "commit", "go_version"}),
	}

	reg.MustRegister(
		r.RequestsTotal,
		r.RequestDuration,
		r.GateLogins,
		r.GateVerifications,
		r.ContactMessages,
		r.BuildInfo,
	)
	return r
}

var (
	globalOnce     sync.Once
	globalRegistry *Registry
)

// Global returns the process-wide registry.
func Global() *Registry {
	globalOnce.Do(func() {
		globalRegistry = NewRegistry()
	})
	return globalRegistry
}

// Handler serves the global registry.
func Handler() http.Handler {
	return Global().Handler()
}

// Handler serves r in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registerer exposes the underlying registry to components that publish
// their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.registry
}

// Gatherer exposes the underlying registry for inspection.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

// RecordRequest counts one HTTP request.
func (r *Registry) RecordRequest(route, method, code string) {
	r.RequestsTotal.WithLabelValues(route, method, code).Inc()
}

// ObserveRequestDuration records the latency of one HTTP request.
func (r *Registry) ObserveRequestDuration(route, method string, seconds float64) {
	r.RequestDuration.WithLabelValues(route, method).Observe(seconds)
}

// ObserveLogin implements service.GateObserver.
func (r *Registry) ObserveLogin(surface, result string) {
	r.GateLogins.WithLabelValues(surface, result).Inc()
}

// ObserveVerification implements service.GateObserver.
func (r *Registry) ObserveVerification(surface, result string) {
	r.GateVerifications.WithLabelValues(surface, result).Inc()
}

// ObserveContact implements service.ContactObserver.
func (r *Registry) ObserveContact(result string) {
	r.ContactMessages.WithLabelValues(result).Inc()
}

// SetBuildInfo publishes the running build.
func (r *Registry) SetBuildInfo(version, commit, goVersion string) {
	r.BuildInfo.Reset()
	r.BuildInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
