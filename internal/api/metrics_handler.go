package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/marketpulse/internal/middleware"
	"github.com/patrickwarner/marketpulse/internal/models"
)

type metricsResponse struct {
	RenderID    string                `json:"render_id"`
	Fingerprint string                `json:"fingerprint"`
	Grouping    string                `json:"grouping"`
	Rows        []models.MetricRow    `json:"rows"`
	Diagnostics []models.Diagnostic   `json:"diagnostics"`
	Sources     []models.SourceReport `json:"sources"`
}

// MetricsHandler handles GET /api/metrics requests. It runs a full render
// pass and returns the aggregated rows for the requested grouping.
//
// Query Parameters:
//   - grouping: day | week | month | channel | channel_day (default from config)
func (s *Server) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "/api/metrics"
	method := r.Method

	if r.Method != http.MethodGet {
		s.Metrics.IncrementRequests(endpoint, method, "405")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger := middleware.LoggerFromRequest(r, s.Logger)

	g, err := s.grouping(r)
	if err != nil {
		s.Metrics.IncrementRequests(endpoint, method, "400")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	pass, err := s.render(r, g)
	if err != nil {
		logger.Error("render pass failed", zap.String("grouping", string(g)), zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "failed to load sources", http.StatusInternalServerError)
		return
	}

	resp := metricsResponse{
		RenderID:    middleware.RenderIDFromRequest(r),
		Fingerprint: pass.dataset.Fingerprint,
		Grouping:    string(g),
		Rows:        pass.rows,
		Diagnostics: pass.diags,
		Sources:     pass.dataset.Sources,
	}
	if resp.Rows == nil {
		resp.Rows = []models.MetricRow{}
	}
	if resp.Diagnostics == nil {
		resp.Diagnostics = []models.Diagnostic{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode metrics response", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		return
	}

	logger.Debug("metrics rendered",
		zap.String("grouping", string(g)),
		zap.Int("rows", len(resp.Rows)),
		zap.Int("diagnostics", len(resp.Diagnostics)))

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
