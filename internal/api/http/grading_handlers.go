package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exams/internal/engine"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

// PUT /answers/{answerID}
//
//	student:    {"reviewRequested": true}
//	instructor: {"reviewed": true, "isCorrect": bool, "reviewComment": "..."}
func UpdateAnswerHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p engine.AnswerPatch
		if !decodeJSON(w, r, &p) {
			return
		}
		ans, err := eng.UpdateAnswer(r.Context(), chi.URLParam(r, "answerID"), p, rbac.ActorFromContext(r.Context()))
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, ans)
	}
}

// GET /dashboard/review-requests?limit=5
func ReviewRequestsHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntDefault(r.URL.Query().Get("limit"), 0)
		items, err := eng.ListReviewRequests(r.Context(), rbac.ActorFromContext(r.Context()), limit)
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}
