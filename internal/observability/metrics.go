package observability

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth outcomes recorded by the gate and the edge gatekeeper.
const (
	AuthOutcomeOK        = "ok"
	AuthOutcomeNoToken   = "no_token"
	AuthOutcomeInvalid   = "invalid_token"
	AuthOutcomeRevoked   = "revoked"
	AuthOutcomeForbidden = "forbidden"
)

// Metrics wraps a private prometheus registry. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errorsTotal     *prometheus.CounterVec
	authTotal       *prometheus.CounterVec
	edgeDecisions   *prometheus.CounterVec
}

// NewMetrics registers collectors under the given namespace.
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_errors_total",
			Help:      "Total HTTP error responses by code",
		}, []string{"route", "method", "code"}),
		authTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_checks_total",
			Help:      "Authentication and role checks by outcome",
		}, []string{"outcome"}),
		edgeDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edge_decisions_total",
			Help:      "Edge gatekeeper decisions by action",
		}, []string{"action"}),
	}
	reg.MustRegister(m.requestsTotal, m.requestDuration, m.errorsTotal, m.authTotal, m.edgeDecisions)
	return m
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(route, method, code).Inc()
}

// RecordAuth counts a gate outcome.
func (m *Metrics) RecordAuth(outcome string) {
	if m == nil {
		return
	}
	m.authTotal.WithLabelValues(outcome).Inc()
}

// RecordEdgeDecision counts an edge gatekeeper action.
func (m *Metrics) RecordEdgeDecision(action string) {
	if m == nil {
		return
	}
	m.edgeDecisions.WithLabelValues(action).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
