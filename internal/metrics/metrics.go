// Package metrics holds the Prometheus collectors of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/neuro21/neuro21/internal/gate"
	"github.com/neuro21/neuro21/internal/session"
)

// Metrics groups the collectors registered for one server.
type Metrics struct {
	reg *prometheus.Registry

	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	authRejections  *prometheus.CounterVec
	gateDecisions   *prometheus.CounterVec
	sessionChanges  *prometheus.CounterVec
	sessionsCreated prometheus.Counter
}

// New registers the collectors with a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
		authRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_rejections_total",
				Help: "Total number of unauthorized or forbidden responses",
			},
			[]string{"reason"},
		),
		gateDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gate_decisions_total",
				Help: "Access gate decisions by page and outcome",
			},
			[]string{"page", "outcome"},
		),
		sessionChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "session_state_changes_total",
				Help: "Session store state changes by resulting status",
			},
			[]string{"status"},
		),
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "session_stores_created_total",
			Help: "Session stores created in memory",
		}),
	}
	reg.MustRegister(
		m.httpRequests,
		m.httpDuration,
		m.authRejections,
		m.gateDecisions,
		m.sessionChanges,
		m.sessionsCreated,
		collectors.NewGoCollector(),
	)
	return m
}

// Gatherer exposes the registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.reg
}

// TrackActiveSessions exports the number of in-memory stores reported by count.
func (m *Metrics) TrackActiveSessions(count func() int) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "session_stores_active",
		Help: "Session stores currently held in memory",
	}, func() float64 { return float64(count()) }))
}

// Middleware records request counts and latencies by route template.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		path := c.Route().Path
		m.httpRequests.WithLabelValues(path, c.Method(), strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(path, c.Method()).Observe(time.Since(start).Seconds())

		switch status {
		case fiber.StatusUnauthorized:
			m.authRejections.WithLabelValues("401_unauthorized").Inc()
		case fiber.StatusForbidden:
			m.authRejections.WithLabelValues("403_forbidden").Inc()
		}
		return err
	}
}

// ObserveGate counts a gate decision. It satisfies gate.Observer.
func (m *Metrics) ObserveGate(page string, outcome gate.Outcome) {
	m.gateDecisions.WithLabelValues(page, string(outcome)).Inc()
}

// ObserveStore counts the store and every state change it goes through.
func (m *Metrics) ObserveStore(store *session.Store) {
	m.sessionsCreated.Inc()
	store.Subscribe(func(st session.State) {
		m.sessionChanges.WithLabelValues(statusOf(st)).Inc()
	})
}

func statusOf(st session.State) string {
	switch {
	case st.IsLoading:
		return "loading"
	case st.Error != "":
		return "error"
	case st.Authenticated():
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{}))
}
