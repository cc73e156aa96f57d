package api

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/marketpulse/internal/middleware"
	"github.com/patrickwarner/marketpulse/internal/models"
)

type alertsResponse struct {
	RenderID    string         `json:"render_id"`
	Fingerprint string         `json:"fingerprint"`
	Grouping    string         `json:"grouping"`
	Alerts      []models.Alert `json:"alerts"`
}

// AlertsHandler handles GET /api/alerts requests. It aggregates under the
// requested grouping and runs the threshold rules over the result.
//
// Query Parameters:
//   - grouping: day | week | month | channel | channel_day (default from config)
func (s *Server) AlertsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "/api/alerts"
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

	alerts := s.evaluator.Evaluate(pass.rows, s.Rules)

	resp := alertsResponse{
		RenderID:    middleware.RenderIDFromRequest(r),
		Fingerprint: pass.dataset.Fingerprint,
		Grouping:    string(g),
		Alerts:      alerts,
	}
	if resp.Alerts == nil {
		resp.Alerts = []models.Alert{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode alerts response", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		return
	}

	logger.Debug("alerts evaluated",
		zap.String("grouping", string(g)),
		zap.Int("alerts", len(alerts)))

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
