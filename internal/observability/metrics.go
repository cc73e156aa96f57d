package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// total requests per endpoint, method and status code
	RequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_requests_total",
			Help: "Total API requests received",
		},
		[]string{"endpoint", "method", "status"},
	)

	// request latency in seconds per endpoint/method
	RequestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketpulse_request_duration_seconds",
			Help:    "Histogram of request latencies",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method"},
	)

	// rows accepted into the dataset, per source file
	SourceRowsLoaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_source_rows_loaded_total",
			Help: "Total CSV rows accepted per source",
		},
		[]string{"source"},
	)

	// rows excluded during load, per source file and diagnostic code
	SourceRowsDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_source_rows_dropped_total",
			Help: "Total CSV rows excluded per source and reason",
		},
		[]string{"source", "reason"},
	)

	// source-fatal load failures (missing file, missing column)
	SourceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_source_errors_total",
			Help: "Total source-level load failures",
		},
		[]string{"source"},
	)

	// full load-and-aggregate render passes
	RenderPasses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketpulse_render_passes_total",
			Help: "Total full recomputation passes",
		},
	)

	// duration of a full render pass in seconds
	RenderLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marketpulse_render_duration_seconds",
			Help:    "Histogram of full recomputation pass durations",
			Buckets: prometheus.DefBuckets,
		},
	)

	// data-quality diagnostics emitted, per code
	DiagnosticCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_diagnostics_total",
			Help: "Total data-quality diagnostics emitted",
		},
		[]string{"code"},
	)

	// memoization cache outcomes
	CacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketpulse_cache_hits_total",
			Help: "Total memoization cache hits",
		},
	)

	CacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketpulse_cache_misses_total",
			Help: "Total memoization cache misses",
		},
	)

	// alerts fired by rule evaluation, per rule and severity
	AlertCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketpulse_alerts_total",
			Help: "Total alerts produced by rule evaluation",
		},
		[]string{"rule", "severity"},
	)
)

func init() {
	// register all metrics
	prometheus.MustRegister(
		RequestCount,
		RequestLatency,
		SourceRowsLoaded,
		SourceRowsDropped,
		SourceErrors,
		RenderPasses,
		RenderLatency,
		DiagnosticCount,
		CacheHits,
		CacheMisses,
		AlertCount,
	)
}
