package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "city_weather"

// Metrics holds the Prometheus collectors for the reconcile and refresh paths.
type Metrics struct {
	Operations     *prometheus.CounterVec   // labels: op={reconcile,refresh,remove,clear}, outcome
	LookupDuration *prometheus.HistogramVec // labels: provider, result={success,error}
	TrackedCities  prometheus.Gauge

	RefreshTicks        prometheus.Counter
	RefreshTickDuration prometheus.Histogram
	SchedulerActive     prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "City store operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		LookupDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lookup_duration_seconds",
			Help:      "Remote weather lookup duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider", "result"}),
		TrackedCities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "tracked_cities",
			Help:      "Number of cities currently in the store.",
		}),
		RefreshTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_ticks_total",
			Help:      "Auto-refresh ticks executed.",
		}),
		RefreshTickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_tick_duration_seconds",
			Help:      "Duration of a complete auto-refresh tick.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		SchedulerActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_active",
			Help:      "1 when an auto-refresh timer is armed, 0 otherwise.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Operations,
		m.LookupDuration,
		m.TrackedCities,
		m.RefreshTicks,
		m.RefreshTickDuration,
		m.SchedulerActive,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics so tests can build as many
// as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
