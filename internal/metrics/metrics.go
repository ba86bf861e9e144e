// Package metrics provides Prometheus metrics for the portfolio service.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonathan/portfolio/internal/analytics"
)

const namespace = "portfolio"

// Manager owns every collector the service exports.
type Manager struct {
	registry *prometheus.Registry

	telemetryEvents *prometheus.CounterVec
	scrollDepth     *prometheus.CounterVec
	linkClicks      *prometheus.CounterVec
	openPageViews   prometheus.Gauge

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// NewManager registers the collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewManager() *Manager {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Manager{
		registry: registry,
		telemetryEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telemetry_events_total",
			Help:      "Telemetry events recorded, by event name.",
		}, []string{"event"}),
		scrollDepth: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scroll_depth_total",
			Help:      "Scroll depth milestones reached, by milestone percentage.",
		}, []string{"depth"}),
		linkClicks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_clicks_total",
			Help:      "External link clicks, by link name.",
		}, []string{"name"}),
		openPageViews: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_page_views",
			Help:      "Page views currently being tracked.",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by route, method and status.",
		}, []string{"route", "method", "status"}),
		httpRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency, by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// Record implements analytics.Sink by counting the event.
func (m *Manager) Record(_ context.Context, name string, payload analytics.Payload) {
	m.telemetryEvents.WithLabelValues(name).Inc()

	switch name {
	case analytics.EventScrollDepth:
		m.scrollDepth.WithLabelValues(fmt.Sprint(payload["depth"])).Inc()
	case analytics.EventLinkClick:
		m.linkClicks.WithLabelValues(fmt.Sprint(payload["name"])).Inc()
	}
}

// SetOpenPageViews reports the number of tracked page views.
func (m *Manager) SetOpenPageViews(n int) {
	m.openPageViews.Set(float64(n))
}

// ObserveHTTPRequest records one served request.
func (m *Manager) ObserveHTTPRequest(route, method string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
