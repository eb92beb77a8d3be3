// Package metrics holds the Prometheus collectors of the dashboard service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aqdash/internal/engine"
)

const namespace = "airq"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	Computations   *prometheus.CounterVec
	ComputeSeconds prometheus.Histogram
	RecordsLoaded  prometheus.Gauge
	RecordsDropped prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Computations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_computations_total",
			Help:      "Dashboard recomputations, by segmentation status.",
		}, []string{"status"}),
		ComputeSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_computation_seconds",
			Help:      "Time to filter the store and derive every view.",
			Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_loaded",
			Help:      "Records kept after cleaning the dataset.",
		}),
		RecordsDropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_dropped",
			Help:      "Rows dropped while cleaning the dataset.",
		}),
	}
	m.registry.MustRegister(
		m.Computations,
		m.ComputeSeconds,
		m.RecordsLoaded,
		m.RecordsDropped,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveLoad records the outcome of a dataset load.
func (m *Metrics) ObserveLoad(stats engine.LoadStats) {
	m.RecordsLoaded.Set(float64(stats.RowsKept))
	m.RecordsDropped.Set(float64(stats.RowsDropped))
}

// ObserveCompute records one pipeline run.
func (m *Metrics) ObserveCompute(status string, elapsed time.Duration) {
	m.Computations.WithLabelValues(status).Inc()
	m.ComputeSeconds.Observe(elapsed.Seconds())
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
