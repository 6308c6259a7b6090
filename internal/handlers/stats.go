package handlers

import (
	"net/http"
	"time"

	"studylog-backend/internal/middleware"
	"studylog-backend/internal/services"
)

type StatsHandler struct {
	stats *services.StatsService
}

func NewStatsHandler(stats *services.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Summary aggregates all sessions, optionally bounded by start_date and
// end_date query params. Either bound may be supplied alone.
func (h *StatsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	from, ok := parseDateParam(w, r, "start_date", false)
	if !ok {
		return
	}
	to, ok := parseDateParam(w, r, "end_date", false)
	if !ok {
		return
	}

	summary, err := h.stats.UserStats(r.Context(), userID, from, to)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Daily returns per-date rollups over a required inclusive range.
func (h *StatsHandler) Daily(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	from, ok := parseDateParam(w, r, "start_date", true)
	if !ok {
		return
	}
	to, ok := parseDateParam(w, r, "end_date", true)
	if !ok {
		return
	}

	stats, err := h.stats.DailyStats(r.Context(), userID, *from, *to)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"daily": stats,
	})
}

func (h *StatsHandler) Streak(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	streak, err := h.stats.Streak(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, streak)
}

// parseDateParam reads a YYYY-MM-DD query param in the local day boundary.
// Writes the error response itself and reports ok=false on failure.
func parseDateParam(w http.ResponseWriter, r *http.Request, name string, required bool) (*time.Time, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if required {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", name+" is required", r))
			return nil, false
		}
		return nil, true
	}

	parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", name+" must be YYYY-MM-DD", r))
		return nil, false
	}
	return &parsed, true
}
