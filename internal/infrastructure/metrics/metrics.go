package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and the server never share
// collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	auditEvents       *prometheus.CounterVec
	sideEffectFailure *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "obiwork",
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"route", "method", "code"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "obiwork",
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"route", "method"},
		),
		auditEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "obiwork",
				Name:      "audit_events_total",
				Help:      "Audit records written, by service, event and status.",
			},
			[]string{"service", "event", "status"},
		),
		sideEffectFailure: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "obiwork",
				Name:      "side_effect_failures_total",
				Help:      "Best-effort side effects that failed, by channel.",
			},
			[]string{"channel"},
		),
	}

	m.registry.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.auditEvents,
		m.sideEffectFailure,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(route string, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveAudit(service string, event string, status string) {
	if m == nil {
		return
	}
	m.auditEvents.WithLabelValues(service, event, status).Inc()
}

func (m *Metrics) SideEffectFailed(channel string) {
	if m == nil {
		return
	}
	m.sideEffectFailure.WithLabelValues(channel).Inc()
}
