package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/marketpulse/internal/middleware"
	"github.com/patrickwarner/marketpulse/internal/models"
	"github.com/patrickwarner/marketpulse/internal/reporting"
)

type compareResponse struct {
	RenderID    string                 `json:"render_id"`
	Fingerprint string                 `json:"fingerprint"`
	Grouping    string                 `json:"grouping"`
	Periods     int                    `json:"periods"`
	Rows        []models.ComparisonRow `json:"rows"`
}

// CompareHandler handles GET /api/compare requests. It splits the aggregated
// rows into the trailing N periods and the N before those, and returns the
// current window decorated with movement against the previous one.
//
// Query Parameters:
//   - grouping: day | week | month | channel | channel_day (default from config)
//   - periods: window length in periods (default: 1, max: 365)
func (s *Server) CompareHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "/api/compare"
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

	periods := 1
	if raw := r.URL.Query().Get("periods"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.Metrics.IncrementRequests(endpoint, method, "400")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "invalid periods parameter", http.StatusBadRequest)
			return
		}
		if parsed > 365 {
			parsed = 365
		}
		periods = parsed
	}

	pass, err := s.render(r, g)
	if err != nil {
		logger.Error("render pass failed", zap.String("grouping", string(g)), zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "failed to load sources", http.StatusInternalServerError)
		return
	}

	current, previous := reporting.LastWindows(pass.rows, periods)

	resp := compareResponse{
		RenderID:    middleware.RenderIDFromRequest(r),
		Fingerprint: pass.dataset.Fingerprint,
		Grouping:    string(g),
		Periods:     periods,
		Rows:        reporting.Compare(current, previous),
	}
	if resp.Rows == nil {
		resp.Rows = []models.ComparisonRow{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode compare response", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		return
	}

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
