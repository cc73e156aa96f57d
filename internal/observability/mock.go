package observability

import "time"

// MockMetricsRegistry implements MetricsRegistry and counts every call so
// tests can assert which metrics a code path produced. Labelled counters are
// keyed by their label values joined with "|". Not safe for concurrent use.
type MockMetricsRegistry struct {
	Requests     map[string]int
	RowsLoaded   map[string]int
	RowsDropped  map[string]int
	SourceErrors map[string]int
	RenderPasses int
	Diagnostics  map[string]int
	CacheHits    int
	CacheMisses  int
	Alerts       map[string]int
}

// NewMockMetricsRegistry creates a MockMetricsRegistry with empty counters.
func NewMockMetricsRegistry() *MockMetricsRegistry {
	return &MockMetricsRegistry{
		Requests:     make(map[string]int),
		RowsLoaded:   make(map[string]int),
		RowsDropped:  make(map[string]int),
		SourceErrors: make(map[string]int),
		Diagnostics:  make(map[string]int),
		Alerts:       make(map[string]int),
	}
}

// HTTP Request metrics
func (m *MockMetricsRegistry) IncrementRequests(endpoint, method, status string) {
	m.Requests[endpoint+"|"+method+"|"+status]++
}

func (m *MockMetricsRegistry) RecordRequestLatency(endpoint, method string, duration time.Duration) {}

// Source load metrics
func (m *MockMetricsRegistry) AddRowsLoaded(source string, n int) { m.RowsLoaded[source] += n }

func (m *MockMetricsRegistry) IncrementRowsDropped(source, reason string) {
	m.RowsDropped[source+"|"+reason]++
}

func (m *MockMetricsRegistry) IncrementSourceErrors(source string) { m.SourceErrors[source]++ }

// Render pass metrics
func (m *MockMetricsRegistry) IncrementRenderPasses() { m.RenderPasses++ }

func (m *MockMetricsRegistry) RecordRenderLatency(duration time.Duration) {}

// Data-quality metrics
func (m *MockMetricsRegistry) IncrementDiagnostics(code string) { m.Diagnostics[code]++ }

// Memoization cache metrics
func (m *MockMetricsRegistry) IncrementCacheHits()   { m.CacheHits++ }
func (m *MockMetricsRegistry) IncrementCacheMisses() { m.CacheMisses++ }

// Alerting metrics
func (m *MockMetricsRegistry) IncrementAlerts(rule, severity string) {
	m.Alerts[rule+"|"+severity]++
}
