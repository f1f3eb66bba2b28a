package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exams/internal/engine"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

// GET /exams/{examID}/attempts
// Instructor only; the engine checks ownership of the exam.
func ListExamAttemptsHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := eng.ListExamAttempts(r.Context(), chi.URLParam(r, "examID"), rbac.ActorFromContext(r.Context()))
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}
