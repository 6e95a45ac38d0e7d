package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the reverse k-MIPS engine.
type Metrics struct {
	// Query metrics
	QueriesTotal   *prometheus.CounterVec
	QueryDuration  *prometheus.HistogramVec
	QueryErrors    *prometheus.CounterVec
	ResultSetSize  prometheus.Histogram

	// Pruning lemma metrics, labelled by which lemma fired: l1, l1prime, l2, l3.
	LemmaHits *prometheus.CounterVec

	// Verification metrics (the §4.11 per-item-block routine)
	VerificationsTotal  prometheus.Counter
	VerificationAccepts prometheus.Counter
	CandidatesVerified  prometheus.Counter
	InnerProductsTotal  prometheus.Counter

	// Build metrics, labelled by engine variant.
	BuildDuration *prometheus.HistogramVec
	IndexMemoryBytes *prometheus.GaugeVec

	// Cache metrics (repeated (q,k) query cache)
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	CacheSize   prometheus.Gauge

	// System metrics
	GoroutinesCount prometheus.Gauge
	MemoryUsage     prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		QueriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reversekmips_queries_total",
				Help: "Total number of reverse k-MIPS queries by variant and status",
			},
			[]string{"variant", "status"},
		),
		QueryDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reversekmips_query_duration_seconds",
				Help:    "Query latency in seconds by variant",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"variant"},
		),
		QueryErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reversekmips_query_errors_total",
				Help: "Total number of query errors by variant and error type",
			},
			[]string{"variant", "error_type"},
		),
		ResultSetSize: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "reversekmips_result_set_size",
				Help:    "Number of users returned per query",
				Buckets: []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
			},
		),

		LemmaHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reversekmips_lemma_hits_total",
				Help: "Total number of prunes/accepts by pruning lemma (l1, l1prime, l2, l3)",
			},
			[]string{"lemma"},
		),

		VerificationsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "reversekmips_verifications_total",
				Help: "Total number of users that fell through to item-block verification",
			},
		),
		VerificationAccepts: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "reversekmips_verification_accepts_total",
				Help: "Total number of verifications that accepted their user",
			},
		),
		CandidatesVerified: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "reversekmips_candidates_verified_total",
				Help: "Total number of item candidates checked with an exact inner product during verification",
			},
		),
		InnerProductsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "reversekmips_inner_products_total",
				Help: "Total number of exact inner products computed",
			},
		),

		BuildDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reversekmips_build_duration_seconds",
				Help:    "Engine build duration in seconds by variant",
				Buckets: []float64{.01, .1, .5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"variant"},
		),
		IndexMemoryBytes: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "reversekmips_index_memory_bytes",
				Help: "Built index memory footprint in bytes by variant",
			},
			[]string{"variant"},
		),

		CacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "reversekmips_cache_hits_total",
				Help: "Total number of (query,k) result cache hits",
			},
		),
		CacheMisses: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "reversekmips_cache_misses_total",
				Help: "Total number of (query,k) result cache misses",
			},
		),
		CacheSize: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "reversekmips_cache_size",
				Help: "Current number of entries in the query result cache",
			},
		),

		GoroutinesCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "reversekmips_goroutines",
				Help: "Current number of goroutines",
			},
		),
		MemoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "reversekmips_memory_bytes",
				Help: "Process memory usage in bytes",
			},
		),
	}
}

// RecordQuery records a completed query's duration and status.
func (m *Metrics) RecordQuery(variant, status string, duration time.Duration) {
	m.QueriesTotal.WithLabelValues(variant, status).Inc()
	m.QueryDuration.WithLabelValues(variant).Observe(duration.Seconds())
}

// RecordQueryError records a query error.
func (m *Metrics) RecordQueryError(variant, errorType string) {
	m.QueryErrors.WithLabelValues(variant, errorType).Inc()
}

// RecordResult records the size of a query's result set.
func (m *Metrics) RecordResult(size int) {
	m.ResultSetSize.Observe(float64(size))
}

// RecordLemmaHit records one firing of a pruning lemma ("l1", "l1prime", "l2", "l3").
func (m *Metrics) RecordLemmaHit(lemma string) {
	m.LemmaHits.WithLabelValues(lemma).Inc()
}

// RecordVerification records one user falling through to verification
// and whether it was accepted.
func (m *Metrics) RecordVerification(accepted bool) {
	m.VerificationsTotal.Inc()
	if accepted {
		m.VerificationAccepts.Inc()
	}
}

// RecordCandidatesVerified adds to the exact-inner-product candidate count.
func (m *Metrics) RecordCandidatesVerified(n int) {
	m.CandidatesVerified.Add(float64(n))
	m.InnerProductsTotal.Add(float64(n))
}

// RecordBuild records an engine build's duration and resulting memory footprint.
func (m *Metrics) RecordBuild(variant string, duration time.Duration, memoryBytes uint64) {
	m.BuildDuration.WithLabelValues(variant).Observe(duration.Seconds())
	m.IndexMemoryBytes.WithLabelValues(variant).Set(float64(memoryBytes))
}

// RecordCacheHit records a query cache hit.
func (m *Metrics) RecordCacheHit() {
	m.CacheHits.Inc()
}

// RecordCacheMiss records a query cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.CacheMisses.Inc()
}

// UpdateCacheSize updates the cache size gauge.
func (m *Metrics) UpdateCacheSize(size int) {
	m.CacheSize.Set(float64(size))
}

// UpdateGoroutineCount updates the goroutine count gauge.
func (m *Metrics) UpdateGoroutineCount(count int) {
	m.GoroutinesCount.Set(float64(count))
}

// UpdateMemoryUsage updates the process memory usage gauge.
func (m *Metrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}
