package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/marketpulse/internal/insights"
	"github.com/patrickwarner/marketpulse/internal/middleware"
	"github.com/patrickwarner/marketpulse/internal/models"
	"github.com/patrickwarner/marketpulse/internal/reporting"
)

type summaryResponse struct {
	RenderID    string                    `json:"render_id"`
	Fingerprint string                    `json:"fingerprint"`
	Summary     reporting.BusinessSummary `json:"summary"`
	Channels    []models.MetricRow        `json:"channels"`
	Scorecard   []insights.ChannelScore   `json:"scorecard"`
	Sources     []models.SourceReport     `json:"sources"`
}

// SummaryHandler handles GET /api/summary requests: the headline business
// numbers, the per-channel totals for the whole window and the benchmark
// scorecard.
func (s *Server) SummaryHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "/api/summary"
	method := r.Method

	if r.Method != http.MethodGet {
		s.Metrics.IncrementRequests(endpoint, method, "405")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger := middleware.LoggerFromRequest(r, s.Logger)

	pass, err := s.render(r, reporting.GroupByChannel)
	if err != nil {
		logger.Error("render pass failed", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "failed to load sources", http.StatusInternalServerError)
		return
	}

	resp := summaryResponse{
		RenderID:    middleware.RenderIDFromRequest(r),
		Fingerprint: pass.dataset.Fingerprint,
		Summary:     reporting.Summarize(pass.dataset),
		Channels:    pass.rows,
		Scorecard:   insights.Scorecard(pass.rows, s.Benchmarks),
		Sources:     pass.dataset.Sources,
	}
	if resp.Channels == nil {
		resp.Channels = []models.MetricRow{}
	}
	if resp.Scorecard == nil {
		resp.Scorecard = []insights.ChannelScore{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode summary response", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		return
	}

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
