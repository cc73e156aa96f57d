package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/marketpulse/internal/insights"
	"github.com/patrickwarner/marketpulse/internal/middleware"
	"github.com/patrickwarner/marketpulse/internal/reporting"
)

type insightsResponse struct {
	RenderID        string                    `json:"render_id"`
	Fingerprint     string                    `json:"fingerprint"`
	Recommendations []insights.Recommendation `json:"recommendations"`
	Executive       insights.ExecutiveSummary `json:"executive_summary"`
}

// InsightsHandler handles GET /api/insights requests. Recommendations come
// from the per-channel totals; the alert followup input uses the default
// grouping's time series.
func (s *Server) InsightsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "/api/insights"
	method := r.Method

	if r.Method != http.MethodGet {
		s.Metrics.IncrementRequests(endpoint, method, "405")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger := middleware.LoggerFromRequest(r, s.Logger)

	channelPass, err := s.render(r, reporting.GroupByChannel)
	if err != nil {
		logger.Error("render pass failed", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "failed to load sources", http.StatusInternalServerError)
		return
	}

	// Alerts need a time series, so evaluate them under the default grouping;
	// the aggregate is memoized, not recomputed from the files.
	seriesGrouping, err := reporting.ParseGrouping(s.Config.DefaultGrouping)
	if err != nil {
		seriesGrouping = reporting.GroupByDay
	}
	seriesRows, _ := s.cachedAggregate(r.Context(), logger, channelPass.dataset, seriesGrouping)
	alerts := s.evaluator.Evaluate(seriesRows, s.Rules)

	summary := reporting.Summarize(channelPass.dataset)
	recs := insights.Recommendations(channelPass.rows, summary, alerts)

	resp := insightsResponse{
		RenderID:        middleware.RenderIDFromRequest(r),
		Fingerprint:     channelPass.dataset.Fingerprint,
		Recommendations: recs,
		Executive:       insights.BuildExecutiveSummary(summary, channelPass.rows, recs),
	}
	if resp.Recommendations == nil {
		resp.Recommendations = []insights.Recommendation{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode insights response", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		return
	}

	logger.Debug("insights generated", zap.Int("recommendations", len(recs)))

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
