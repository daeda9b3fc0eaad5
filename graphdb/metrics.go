package graphdb

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Query status label values
const (
	statusOK         = "ok"
	statusParseError = "parse_error"
	statusBuildError = "build_error"
	statusRunError   = "run_error"
)

// Metrics holds the query engine's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	// queriesTotal counts executed queries.
	// Labels: status (ok, parse_error, build_error, run_error)
	queriesTotal *prometheus.CounterVec

	// queryDuration measures end-to-end query latency in seconds.
	queryDuration prometheus.Histogram

	// resultSize tracks how many values each successful query returned.
	resultSize prometheus.Histogram

	// stageCalls tracks stage invocations per run, a proxy for work done.
	stageCalls prometheus.Histogram

	// cacheLookups counts parsed-query cache lookups.
	// Labels: result (hit, miss)
	cacheLookups *prometheus.CounterVec
}

// NewMetrics registers the collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		queriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gremlindb",
			Subsystem: "query",
			Name:      "total",
			Help:      "Total queries executed by status",
		}, []string{"status"}),
		queryDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gremlindb",
			Subsystem: "query",
			Name:      "duration_seconds",
			Help:      "Query latency in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		resultSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gremlindb",
			Subsystem: "query",
			Name:      "results",
			Help:      "Number of values returned per query",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		stageCalls: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gremlindb",
			Subsystem: "query",
			Name:      "stage_calls",
			Help:      "Stage invocations per pipeline run",
			Buckets:   prometheus.ExponentialBuckets(1, 8, 8),
		}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gremlindb",
			Subsystem: "query_cache",
			Name:      "lookups_total",
			Help:      "Parsed-query cache lookups by result",
		}, []string{"result"}),
	}
}

// observeQuery records one finished query
func (m *Metrics) observeQuery(status string, elapsed time.Duration, results, calls int) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(status).Inc()
	m.queryDuration.Observe(elapsed.Seconds())
	if status == statusOK {
		m.resultSize.Observe(float64(results))
		m.stageCalls.Observe(float64(calls))
	}
}

// observeCache records a cache lookup
func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}
