// Package observability holds the Prometheus metrics for the EcoQuest API.
package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the service's collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequests    *prometheus.CounterVec
	HTTPDurations   *prometheus.HistogramVec
	UpstreamCalls   *prometheus.CounterVec
	Classifications *prometheus.CounterVec
	Missions        *prometheus.CounterVec
}

// NewMetrics registers the collectors against reg, defaulting to the global
// Prometheus registry when nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ecoquest_http_requests_total",
		Help: "Handled HTTP requests, labeled by method, route and status code.",
	}, []string{"method", "route", "code"}), "ecoquest_http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ecoquest_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method", "route"}), "ecoquest_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	upstream, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ecoquest_upstream_calls_total",
		Help: "Calls to external services, labeled by service, operation and outcome.",
	}, []string{"service", "operation", "outcome"}), "ecoquest_upstream_calls_total")
	if err != nil {
		return nil, err
	}

	classifications, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ecoquest_classifications_total",
		Help: "Keyword classifications, labeled by winning category.",
	}, []string{"category"}), "ecoquest_classifications_total")
	if err != nil {
		return nil, err
	}

	missions, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ecoquest_missions_total",
		Help: "Gamification events applied, labeled by event kind.",
	}, []string{"kind"}), "ecoquest_missions_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:        gatherer,
		HTTPRequests:    requests,
		HTTPDurations:   durations,
		UpstreamCalls:   upstream,
		Classifications: classifications,
		Missions:        missions,
	}, nil
}

// Middleware records request counts and durations per matched route.
func (m *Metrics) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if m == nil {
			return err
		}

		code := c.Response().StatusCode()
		if err != nil {
			code = fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
		}
		route := c.Route().Path
		m.HTTPRequests.WithLabelValues(c.Method(), route, strconv.Itoa(code)).Inc()
		m.HTTPDurations.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler exposes a ready-to-use /metrics handler.
func (m *Metrics) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if m != nil && m.gatherer != nil {
		gatherer = m.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// ObserveUpstream counts one call to an external service.
func (m *Metrics) ObserveUpstream(service, operation, outcome string) {
	if m == nil {
		return
	}
	m.UpstreamCalls.WithLabelValues(service, operation, outcome).Inc()
}

// ObserveClassification counts one scorer verdict.
func (m *Metrics) ObserveClassification(category string) {
	if m == nil {
		return
	}
	m.Classifications.WithLabelValues(category).Inc()
}

// ObserveMission counts one applied gamification event.
func (m *Metrics) ObserveMission(kind string) {
	if m == nil {
		return
	}
	m.Missions.WithLabelValues(kind).Inc()
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("observability: collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("observability: collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
