// Package metrics records board engine activity as Prometheus metrics.
//
// Metrics is an app.Observer; pass it to app.WithObserver and mount Handler
// at the configured metrics endpoint.
package metrics

import (
	"net/http"

	"github.com/evanschultz/lanes/internal/app"
	"github.com/evanschultz/lanes/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsNamespace = "lanes"
	boardSubsystem   = "board"
	httpSubsystem    = "http"
)

// Metrics holds the collectors for one board.
type Metrics struct {
	// DropsTotal counts drops by outcome (moved, unchanged, cancelled, invalid_target, vanished).
	DropsTotal *prometheus.CounterVec
	// AppendsTotal counts appended tasks by lane.
	AppendsTotal *prometheus.CounterVec
	// ViewBuildsTotal counts derived view refreshes by view and mode (full, incremental).
	ViewBuildsTotal *prometheus.CounterVec
	// LaneSize is the last derived size of each lane under the active filter.
	LaneSize *prometheus.GaugeVec
	// RequestsTotal counts HTTP requests by status code and method.
	RequestsTotal *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the board collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the board collectors on reg and serves from gatherer.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		DropsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: boardSubsystem,
				Name:      "drops_total",
				Help:      "Total drag-end drops by outcome",
			},
			[]string{"outcome"},
		),
		AppendsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: boardSubsystem,
				Name:      "appends_total",
				Help:      "Total tasks appended by lane",
			},
			[]string{"lane"},
		),
		ViewBuildsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: boardSubsystem,
				Name:      "view_builds_total",
				Help:      "Total derived view refreshes by view and mode",
			},
			[]string{"view", "mode"},
		),
		LaneSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: boardSubsystem,
				Name:      "lane_size",
				Help:      "Items in each lane under the active filter",
			},
			[]string{"lane"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: httpSubsystem,
				Name:      "requests_total",
				Help:      "Total HTTP requests by status code and method",
			},
			[]string{"code", "method"},
		),
		gatherer: gatherer,
	}
}

func (m *Metrics) ObserveDrop(outcome app.DropOutcome) {
	m.DropsTotal.WithLabelValues(string(outcome)).Inc()
}

func (m *Metrics) ObserveAppend(lane domain.LaneID) {
	m.AppendsTotal.WithLabelValues(string(lane)).Inc()
}

func (m *Metrics) ObserveViewBuild(view string, mode app.BuildMode) {
	m.ViewBuildsTotal.WithLabelValues(view, string(mode)).Inc()
}

func (m *Metrics) ObserveLaneSize(lane domain.LaneID, size int) {
	m.LaneSize.WithLabelValues(string(lane)).Set(float64(size))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Instrument counts requests served by next.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(m.RequestsTotal, next)
}
