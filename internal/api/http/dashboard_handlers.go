package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exams/internal/engine"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

// GET /dashboard/stats
func DashboardStatsHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := eng.DashboardStats(r.Context(), rbac.ActorFromContext(r.Context()))
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// GET /dashboard/recent-exams?limit=3
func RecentExamsHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 0)
		list, err := eng.RecentExams(r.Context(), rbac.ActorFromContext(r.Context()), limit)
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// GET /dashboard/recent-results?limit=4
func RecentResultsHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 0)
		list, err := eng.RecentResults(r.Context(), rbac.ActorFromContext(r.Context()), limit)
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
