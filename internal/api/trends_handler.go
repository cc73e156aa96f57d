package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/patrickwarner/marketpulse/internal/middleware"
	"github.com/patrickwarner/marketpulse/internal/reporting"
)

// weekdayPatternMinDays is the smallest window that makes a day-of-week
// breakdown meaningful.
const weekdayPatternMinDays = 30

type trendsResponse struct {
	RenderID        string                     `json:"render_id"`
	Fingerprint     string                     `json:"fingerprint"`
	Window          int                        `json:"window"`
	Points          []reporting.TrendPoint     `json:"points"`
	WeekdayPatterns []reporting.WeekdayPattern `json:"weekday_patterns"`
}

// TrendsHandler handles GET /api/trends requests: by-day rows decorated with
// trailing means, plus the day-of-week breakdown once the dataset covers at
// least a month.
//
// Query Parameters:
//   - window: trailing mean window in days (default: 7, max: 90)
func (s *Server) TrendsHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	const endpoint = "/api/trends"
	method := r.Method

	if r.Method != http.MethodGet {
		s.Metrics.IncrementRequests(endpoint, method, "405")
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	logger := middleware.LoggerFromRequest(r, s.Logger)

	window := 7
	if raw := r.URL.Query().Get("window"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.Metrics.IncrementRequests(endpoint, method, "400")
			s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
			http.Error(w, "invalid window parameter", http.StatusBadRequest)
			return
		}
		if parsed > 90 {
			parsed = 90
		}
		window = parsed
	}

	pass, err := s.render(r, reporting.GroupByDay)
	if err != nil {
		logger.Error("render pass failed", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		http.Error(w, "failed to load sources", http.StatusInternalServerError)
		return
	}

	resp := trendsResponse{
		RenderID:        middleware.RenderIDFromRequest(r),
		Fingerprint:     pass.dataset.Fingerprint,
		Window:          window,
		Points:          reporting.Trends(pass.rows, window),
		WeekdayPatterns: reporting.WeekdayPatterns(pass.rows, weekdayPatternMinDays),
	}
	if resp.Points == nil {
		resp.Points = []reporting.TrendPoint{}
	}
	if resp.WeekdayPatterns == nil {
		resp.WeekdayPatterns = []reporting.WeekdayPattern{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.Error("failed to encode trends response", zap.Error(err))
		s.Metrics.IncrementRequests(endpoint, method, "500")
		s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
		return
	}

	s.Metrics.IncrementRequests(endpoint, method, "200")
	s.Metrics.RecordRequestLatency(endpoint, method, time.Since(start))
}
