// Package metrics provides Prometheus metrics for the Synergy desktop shell.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the shell.
type Metrics struct {
	// Update client metrics
	UpdateEvents   *prometheus.CounterVec
	UpdateProgress prometheus.Gauge

	// Window metrics
	PopupsOpen   prometheus.Gauge
	PopupsTotal  prometheus.Counter
	MainWindows  prometheus.Counter
	WindowsAlive prometheus.Gauge

	// System metrics
	Uptime     prometheus.Gauge
	GoRoutines prometheus.Gauge

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}

	m.UpdateEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "synergy_update_events_total",
			Help: "Total number of update client events by kind",
		},
		[]string{"kind"},
	)

	m.UpdateProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "synergy_update_download_percent",
			Help: "Progress of the current update download",
		},
	)

	m.PopupsOpen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "synergy_popups_open",
			Help: "Number of status popups currently open",
		},
	)

	m.PopupsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "synergy_popups_total",
			Help: "Total number of status popups shown",
		},
	)

	m.MainWindows = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "synergy_main_windows_created_total",
			Help: "Total number of main windows created",
		},
	)

	m.WindowsAlive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "synergy_windows_alive",
			Help: "Number of windows owned by the toolkit",
		},
	)

	m.Uptime = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "synergy_uptime_seconds",
			Help: "Application uptime in seconds",
		},
	)

	m.GoRoutines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "synergy_goroutines",
			Help: "Number of goroutines",
		},
	)

	m.registry.MustRegister(
		m.UpdateEvents,
		m.UpdateProgress,
		m.PopupsOpen,
		m.PopupsTotal,
		m.MainWindows,
		m.WindowsAlive,
		m.Uptime,
		m.GoRoutines,
	)

	m.registry.MustRegister(collectors.NewGoCollector())
	m.registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	return m
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
