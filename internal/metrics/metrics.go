// Package metrics exposes Prometheus instruments for the map screens.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for one server.
type Metrics struct {
	registry *prometheus.Registry

	ScreensOpen     prometheus.Gauge
	ScreensOpened   prometheus.Counter
	CenterOps       prometheus.Counter
	Selections      *prometheus.CounterVec
	EventStreams    prometheus.Gauge
	EventsDelivered prometheus.Counter
}

// New creates the collectors on a private registry so several servers can
// coexist in one process (tests).
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ScreensOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scenes",
			Subsystem: "screens",
			Name:      "open",
			Help:      "Current number of open map screens",
		}),
		ScreensOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scenes",
			Subsystem: "screens",
			Name:      "opened_total",
			Help:      "Total map screens opened",
		}),
		CenterOps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scenes",
			Subsystem: "camera",
			Name:      "center_total",
			Help:      "Total center-on-city operations",
		}),
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scenes",
			Subsystem: "selection",
			Name:      "changes_total",
			Help:      "Total selection changes by action",
		}, []string{"action"}),
		EventStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "scenes",
			Subsystem: "sse",
			Name:      "active_streams",
			Help:      "Current number of screen event streams",
		}),
		EventsDelivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scenes",
			Subsystem: "sse",
			Name:      "events_total",
			Help:      "Total view-model events pushed to screens",
		}),
	}
	m.registry.MustRegister(
		m.ScreensOpen,
		m.ScreensOpened,
		m.CenterOps,
		m.Selections,
		m.EventStreams,
		m.EventsDelivered,
	)
	return m
}

// ScreenOpened records a new screen.
func (m *Metrics) ScreenOpened() {
	m.ScreensOpen.Inc()
	m.ScreensOpened.Inc()
}

// ScreenClosed records a closed or evicted screen.
func (m *Metrics) ScreenClosed() {
	m.ScreensOpen.Dec()
}

// Selected records a select ("select") or dismiss ("clear").
func (m *Metrics) Selected(action string) {
	m.Selections.WithLabelValues(action).Inc()
}

// Registry returns the registry backing the handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
