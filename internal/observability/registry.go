package observability

import "time"

// MetricsRegistry provides an interface for recording application metrics
// This replaces direct access to global Prometheus metrics with dependency injection
type MetricsRegistry interface {
	// HTTP Request metrics
	IncrementRequests(endpoint, method, status string)
	RecordRequestLatency(endpoint, method string, duration time.Duration)

	// Source load metrics
	AddRowsLoaded(source string, n int)
	IncrementRowsDropped(source, reason string)
	IncrementSourceErrors(source string)

	// Render pass metrics
	IncrementRenderPasses()
	RecordRenderLatency(duration time.Duration)

	// Data-quality metrics
	IncrementDiagnostics(code string)

	// Memoization cache metrics
	IncrementCacheHits()
	IncrementCacheMisses()

	// Alerting metrics
	IncrementAlerts(rule, severity string)
}

// PrometheusRegistry implements MetricsRegistry using the existing global Prometheus metrics
type PrometheusRegistry struct{}

// NewPrometheusRegistry creates a new PrometheusRegistry
func NewPrometheusRegistry() *PrometheusRegistry {
	return &PrometheusRegistry{}
}

// HTTP Request metrics
func (r *PrometheusRegistry) IncrementRequests(endpoint, method, status string) {
	RequestCount.WithLabelValues(endpoint, method, status).Inc()
}

func (r *PrometheusRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {
	RequestLatency.WithLabelValues(endpoint, method).Observe(duration.Seconds())
}

// Source load metrics
func (r *PrometheusRegistry) AddRowsLoaded(source string, n int) {
	SourceRowsLoaded.WithLabelValues(source).Add(float64(n))
}

func (r *PrometheusRegistry) IncrementRowsDropped(source, reason string) {
	SourceRowsDropped.WithLabelValues(source, reason).Inc()
}

func (r *PrometheusRegistry) IncrementSourceErrors(source string) {
	SourceErrors.WithLabelValues(source).Inc()
}

// Render pass metrics
func (r *PrometheusRegistry) IncrementRenderPasses() {
	RenderPasses.Inc()
}

func (r *PrometheusRegistry) RecordRenderLatency(duration time.Duration) {
	RenderLatency.Observe(duration.Seconds())
}

// Data-quality metrics
func (r *PrometheusRegistry) IncrementDiagnostics(code string) {
	DiagnosticCount.WithLabelValues(code).Inc()
}

// Memoization cache metrics
func (r *PrometheusRegistry) IncrementCacheHits() {
	CacheHits.Inc()
}

func (r *PrometheusRegistry) IncrementCacheMisses() {
	CacheMisses.Inc()
}

// Alerting metrics
func (r *PrometheusRegistry) IncrementAlerts(rule, severity string) {
	AlertCount.WithLabelValues(rule, severity).Inc()
}

// NoOpRegistry implements MetricsRegistry with no-op methods for testing
type NoOpRegistry struct{}

// NewNoOpRegistry creates a new NoOpRegistry
func NewNoOpRegistry() *NoOpRegistry {
	return &NoOpRegistry{}
}

// HTTP Request metrics
func (r *NoOpRegistry) IncrementRequests(endpoint, method, status string)                    {}
func (r *NoOpRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}

// Source load metrics
func (r *NoOpRegistry) AddRowsLoaded(source string, n int)         {}
func (r *NoOpRegistry) IncrementRowsDropped(source, reason string) {}
func (r *NoOpRegistry) IncrementSourceErrors(source string)        {}

// Render pass metrics
func (r *NoOpRegistry) IncrementRenderPasses()                     {}
func (r *NoOpRegistry) RecordRenderLatency(duration time.Duration) {}

// Data-quality metrics
func (r *NoOpRegistry) IncrementDiagnostics(code string) {}

// Memoization cache metrics
func (r *NoOpRegistry) IncrementCacheHits()   {}
func (r *NoOpRegistry) IncrementCacheMisses() {}

// Alerting metrics
func (r *NoOpRegistry) IncrementAlerts(rule, severity string) {}
