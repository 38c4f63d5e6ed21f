package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QueryMetrics records per-query engine activity.
type QueryMetrics struct {
	duration   *prometheus.HistogramVec
	queries    *prometheus.CounterVec
	factsRead  prometheus.Counter
	rowsServed prometheus.Counter
}

// NewQueryMetrics registers the query metrics on the provided registerer.
// A nil registerer yields a no-op instance, which keeps tests quiet.
func NewQueryMetrics(reg prometheus.Registerer) *QueryMetrics {
	if reg == nil {
		return &QueryMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "economics_query_duration_seconds",
		Help:    "Duration of economics queries in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"date_granularity", "product_granularity"})
	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "economics_queries_total",
		Help: "Economics queries by outcome.",
	}, []string{"outcome"})
	factsRead := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "economics_facts_read_total",
		Help: "Facts materialized from the store for queries.",
	})
	rowsServed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "economics_rows_served_total",
		Help: "Aggregated rows returned to callers.",
	})
	reg.MustRegister(duration, queries, factsRead, rowsServed)
	return &QueryMetrics{
		duration:   duration,
		queries:    queries,
		factsRead:  factsRead,
		rowsServed: rowsServed,
	}
}

// ObserveQuery records one finished query.
func (m *QueryMetrics) ObserveQuery(dateGranularity, productGranularity string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(dateGranularity, productGranularity).Observe(d.Seconds())
}

// IncOutcome counts a query by outcome ("ok", "invalid", "error").
func (m *QueryMetrics) IncOutcome(outcome string) {
	if m == nil || m.queries == nil {
		return
	}
	m.queries.WithLabelValues(outcome).Inc()
}

// AddFactsRead counts facts materialized for a query.
func (m *QueryMetrics) AddFactsRead(n int) {
	if m == nil || m.factsRead == nil {
		return
	}
	m.factsRead.Add(float64(n))
}

// AddRowsServed counts rows returned to the caller.
func (m *QueryMetrics) AddRowsServed(n int) {
	if m == nil || m.rowsServed == nil {
		return
	}
	m.rowsServed.Add(float64(n))
}
