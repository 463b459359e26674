package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "internd"

// Metrics holds the collectors recorded by internd.
type Metrics struct {
	RequestDuration     *prometheus.HistogramVec
	RequestsTotal       *prometheus.CounterVec
	InFlight            prometheus.Gauge
	TransitionsTotal    *prometheus.CounterVec
	ApplicationsCreated prometheus.Counter
	RateLimitRejections prometheus.Counter
	EventsPublished     *prometheus.CounterVec
}

// NewRegistry creates a registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// New creates and registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status_code"}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status_code"}),
		InFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of HTTP requests currently being processed.",
		}),
		TransitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "transitions_total",
			Help:      "Application status transitions by target status and outcome.",
		}, []string{"status", "outcome"}),
		ApplicationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "applications",
			Name:      "created_total",
			Help:      "Applications submitted.",
		}),
		RateLimitRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "rejections_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Application events handed to the publisher by outcome.",
		}, []string{"event_type", "outcome"}),
	}

	reg.MustRegister(
		m.RequestDuration,
		m.RequestsTotal,
		m.InFlight,
		m.TransitionsTotal,
		m.ApplicationsCreated,
		m.RateLimitRejections,
		m.EventsPublished,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// Middleware records request metrics labelled by the matched gin route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.InFlight.Inc()
		defer m.InFlight.Dec()

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.RequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}

// ObserveTransition counts one status change attempt.
func (m *Metrics) ObserveTransition(status string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.TransitionsTotal.WithLabelValues(status, outcome).Inc()
}

// ObservePublish counts one event handed to the publisher.
func (m *Metrics) ObservePublish(eventType string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.EventsPublished.WithLabelValues(eventType, outcome).Inc()
}
