package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exams/internal/engine"
	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

// POST /exams/{examID}/attempts
func StartAttemptHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := eng.StartAttempt(r.Context(), chi.URLParam(r, "examID"), rbac.ActorFromContext(r.Context()))
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

// GET /attempts/{attemptID}
func GetAttemptHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := eng.GetAttempt(r.Context(), chi.URLParam(r, "attemptID"), rbac.ActorFromContext(r.Context()))
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

type updateAttemptReq struct {
	Status exam.AttemptStatus `json:"status" validate:"required"`
}

// PUT /attempts/{attemptID}
// The only supported change is {"status":"completed"}; score and maxScore
// are never client-writable.
func UpdateAttemptHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req updateAttemptReq
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Status != exam.AttemptCompleted {
			writeError(w, log, r, exam.Invalid(exam.UnsupportedUpdate, "attempt status can only become %s", exam.AttemptCompleted))
			return
		}
		completeAttempt(eng, log, w, r)
	}
}

// POST /attempts/{attemptID}/complete
func CompleteAttemptHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		completeAttempt(eng, log, w, r)
	}
}

func completeAttempt(eng *engine.Engine, log *zap.Logger, w http.ResponseWriter, r *http.Request) {
	a, err := eng.CompleteAttempt(r.Context(), chi.URLParam(r, "attemptID"), rbac.ActorFromContext(r.Context()))
	if err != nil {
		writeError(w, log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

type submitAnswerReq struct {
	QuestionID string      `json:"questionId" validate:"required"`
	Answer     interface{} `json:"answer"`
}

// POST /attempts/{attemptID}/answers
func SubmitAnswerHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req submitAnswerReq
		if !decodeJSON(w, r, &req) {
			return
		}
		ans, err := eng.SubmitAnswer(r.Context(), chi.URLParam(r, "attemptID"), req.QuestionID, req.Answer,
			rbac.ActorFromContext(r.Context()))
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, ans)
	}
}
