package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exams/internal/engine"
	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

type createExamReq struct {
	Title              string          `json:"title" validate:"required,max=200"`
	Description        string          `json:"description" validate:"max=4000"`
	Subject            string          `json:"subject" validate:"max=100"`
	Grade              string          `json:"grade" validate:"max=50"`
	Duration           int             `json:"duration" validate:"required,min=1,max=1440"`
	Status             exam.ExamStatus `json:"status" validate:"omitempty,oneof=draft active"`
	ShuffleQuestions   bool            `json:"shuffleQuestions"`
	ShowResults        *bool           `json:"showResults"`
	ShowCorrectAnswers bool            `json:"showCorrectAnswers"`
	AllowReview        *bool           `json:"allowReview"`
	ExamDate           *time.Time      `json:"examDate"`
}

func (req createExamReq) exam() exam.Exam {
	e := exam.Exam{
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		Subject:            req.Subject,
		Grade:              req.Grade,
		Duration:           req.Duration,
		Status:             req.Status,
		ShuffleQuestions:   req.ShuffleQuestions,
		ShowResults:        true,
		ShowCorrectAnswers: req.ShowCorrectAnswers,
		AllowReview:        true,
		ExamDate:           req.ExamDate,
	}
	if req.ShowResults != nil {
		e.ShowResults = *req.ShowResults
	}
	if req.AllowReview != nil {
		e.AllowReview = *req.AllowReview
	}
	return e
}

type questionReq struct {
	Type            exam.QuestionType `json:"type" validate:"required,oneof=multiple-choice true-false essay"`
	Content         string            `json:"content" validate:"required"`
	Points          int               `json:"points" validate:"required,min=1"`
	Order           int               `json:"order" validate:"min=0"`
	Options         []string          `json:"options" validate:"omitempty,min=2,max=6,dive,required"`
	CorrectAnswer   exam.Value        `json:"correctAnswer"`
	AcceptedAnswers []string          `json:"acceptedAnswers" validate:"omitempty,dive,required"`
}

func (req questionReq) question() exam.Question {
	return exam.Question{
		Type:            req.Type,
		Content:         req.Content,
		Points:          req.Points,
		Order:           req.Order,
		Options:         req.Options,
		CorrectAnswer:   req.CorrectAnswer,
		AcceptedAnswers: req.AcceptedAnswers,
	}
}

// GET /exams
func ListMyExamsHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := eng.ListMyExams(r.Context(), rbac.ActorFromContext(r.Context()))
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// POST /exams
func CreateExamHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createExamReq
		if !decodeJSON(w, r, &req) {
			return
		}
		e, err := eng.CreateExam(r.Context(), req.exam(), rbac.ActorFromContext(r.Context()))
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, e)
	}
}

// GET /exams/{examID}
func GetExamHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := eng.GetExamForOwner(r.Context(), chi.URLParam(r, "examID"), rbac.ActorFromContext(r.Context()))
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

// PUT /exams/{examID}
func UpdateExamHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p engine.ExamPatch
		if !decodeJSON(w, r, &p) {
			return
		}
		e, err := eng.UpdateExam(r.Context(), chi.URLParam(r, "examID"), p, rbac.ActorFromContext(r.Context()))
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, e)
	}
}

// DELETE /exams/{examID}
func DeleteExamHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := eng.DeleteExam(r.Context(), chi.URLParam(r, "examID"), rbac.ActorFromContext(r.Context())); err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// POST /exams/{examID}/questions
func AddQuestionHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req questionReq
		if !decodeJSON(w, r, &req) {
			return
		}
		q, err := eng.AddQuestion(r.Context(), chi.URLParam(r, "examID"), req.question(), rbac.ActorFromContext(r.Context()))
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, q)
	}
}

// PUT /questions/{questionID}
func UpdateQuestionHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req questionReq
		if !decodeJSON(w, r, &req) {
			return
		}
		q, err := eng.UpdateQuestion(r.Context(), chi.URLParam(r, "questionID"), req.question(), rbac.ActorFromContext(r.Context()))
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, q)
	}
}

// DELETE /questions/{questionID}
func DeleteQuestionHandler(eng *engine.Engine, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := eng.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID"), rbac.ActorFromContext(r.Context())); err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}
