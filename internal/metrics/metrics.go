package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for spread computation.
type Metrics struct {
	RunsTotal     *prometheus.CounterVec // labels: strategy, granularity, outcome
	RunDuration   *prometheus.HistogramVec
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	RowsReturned  prometheus.Histogram
	Notifications *prometheus.CounterVec // labels: outcome
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spreadscope_runs_total",
			Help: "Spread computations by outcome (ok, data_unavailable, schema, configuration)",
		}, []string{"strategy", "granularity", "outcome"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "spreadscope_run_duration_seconds",
			Help:    "End-to-end spread computation latency, cache lookups included",
			Buckets: prometheus.DefBuckets,
		}, []string{"granularity"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spreadscope_cache_hits_total",
			Help: "Results served from cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "spreadscope_cache_misses_total",
			Help: "Results computed because no cache entry existed",
		}),
		RowsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "spreadscope_rows_returned",
			Help:    "Rows in a successful result after windowing",
			Buckets: []float64{10, 50, 100, 500, 1000, 2000, 5000},
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "spreadscope_notifications_total",
			Help: "Telegram summaries sent by outcome",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.CacheHits,
		m.CacheMisses,
		m.RowsReturned,
		m.Notifications,
	)
	return m
}
