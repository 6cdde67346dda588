// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics of the comparison server.
type Metrics struct {
	registry *prometheus.Registry

	// Comparison metrics
	ComparisonRuns     *prometheus.CounterVec
	ComparisonDuration prometheus.Histogram
	EligibleItems      *prometheus.GaugeVec
	RejectedRecords    *prometheus.CounterVec

	// Cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Upstream metrics
	FetchErrors *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a Metrics instance on its own registry, so several
// instances can live in one process.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "ah_arbitrage"
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ComparisonRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comparison",
			Name:      "runs_total",
			Help:      "Total number of comparison runs by status",
		}, []string{"status"}),
		ComparisonDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "comparison",
			Name:      "duration_seconds",
			Help:      "Time to fetch, compare and rank one market pair",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
		}),
		EligibleItems: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "comparison",
			Name:      "eligible_items",
			Help:      "Number of ranked items in the latest run of a market pair",
		}, []string{"pair"}),
		RejectedRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comparison",
			Name:      "rejected_records_total",
			Help:      "Malformed input records dropped before comparing",
		}, []string{"kind"}),

		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Requests served from the comparison cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Requests that had to recompute the comparison",
		}),

		FetchErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tsm",
			Name:      "fetch_errors_total",
			Help:      "Failed pricing API fetches by stage",
		}, []string{"stage"}),

		LastSuccessfulRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful comparison run",
		}),
	}
}

// RecordRun records the outcome of one comparison run.
func (m *Metrics) RecordRun(pair string, items int, took time.Duration, err error) {
	if err != nil {
		m.ComparisonRuns.WithLabelValues("error").Inc()
		return
	}
	m.ComparisonRuns.WithLabelValues("ok").Inc()
	m.ComparisonDuration.Observe(took.Seconds())
	m.EligibleItems.WithLabelValues(pair).Set(float64(items))
	m.LastSuccessfulRun.SetToCurrentTime()
}

// Handler returns the HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
