package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

const accessCodeAttempts = 5

// ExamDetail is an exam with its questions, answer keys included. Only the
// exam's creator gets one.
type ExamDetail struct {
	exam.Exam
	Questions []exam.Question `json:"questions"`
}

// ExamPatch is a partial update of exam settings. The access code is not
// patchable.
type ExamPatch struct {
	Title              *string          `json:"title,omitempty"`
	Description        *string          `json:"description,omitempty"`
	Subject            *string          `json:"subject,omitempty"`
	Grade              *string          `json:"grade,omitempty"`
	Duration           *int             `json:"duration,omitempty"`
	Status             *exam.ExamStatus `json:"status,omitempty"`
	ShuffleQuestions   *bool            `json:"shuffleQuestions,omitempty"`
	ShowResults        *bool            `json:"showResults,omitempty"`
	ShowCorrectAnswers *bool            `json:"showCorrectAnswers,omitempty"`
	AllowReview        *bool            `json:"allowReview,omitempty"`
	ExamDate           *time.Time       `json:"examDate,omitempty"`
}

func (p ExamPatch) apply(e exam.Exam) exam.Exam {
	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.Subject != nil {
		e.Subject = *p.Subject
	}
	if p.Grade != nil {
		e.Grade = *p.Grade
	}
	if p.Duration != nil {
		e.Duration = *p.Duration
	}
	if p.Status != nil {
		e.Status = *p.Status
	}
	if p.ShuffleQuestions != nil {
		e.ShuffleQuestions = *p.ShuffleQuestions
	}
	if p.ShowResults != nil {
		e.ShowResults = *p.ShowResults
	}
	if p.ShowCorrectAnswers != nil {
		e.ShowCorrectAnswers = *p.ShowCorrectAnswers
	}
	if p.AllowReview != nil {
		e.AllowReview = *p.AllowReview
	}
	if p.ExamDate != nil {
		d := p.ExamDate.UTC().Truncate(time.Second)
		e.ExamDate = &d
	}
	return e
}

// CreateExam stores a new exam owned by actor with a fresh access code.
// New exams start as draft or active.
func (e *Engine) CreateExam(ctx context.Context, in exam.Exam, actor rbac.Actor) (exam.Exam, error) {
	if err := e.requireRole(actor, "exam:create"); err != nil {
		return exam.Exam{}, err
	}
	if in.Status == "" {
		in.Status = exam.ExamDraft
	}
	if in.Status != exam.ExamDraft && in.Status != exam.ExamActive {
		return exam.Exam{}, exam.Invalid(exam.InvalidExam, "new exams must be draft or active, not %s", in.Status)
	}
	if err := in.Validate(); err != nil {
		return exam.Exam{}, err
	}

	now := e.clock()
	in.ID = e.newID()
	in.CreatedBy = actor.ID
	in.CreatedAt, in.UpdatedAt = now, now
	if in.ExamDate != nil {
		d := in.ExamDate.UTC().Truncate(time.Second)
		in.ExamDate = &d
	}

	for i := 0; ; i++ {
		code, err := exam.NewAccessCode()
		if err != nil {
			return exam.Exam{}, err
		}
		in.AccessCode = code
		out, err := e.store.CreateExam(ctx, in)
		if errors.Is(err, exam.ErrConflict) && i < accessCodeAttempts-1 {
			continue
		}
		if err != nil {
			return exam.Exam{}, err
		}
		e.log.Info("exam created", zap.String("exam", out.ID), zap.String("owner", actor.ID))
		return out, nil
	}
}

func (e *Engine) ownedExam(ctx context.Context, examID string, actor rbac.Actor) (exam.Exam, error) {
	ex, err := e.store.GetExam(ctx, examID)
	if err != nil {
		return exam.Exam{}, err
	}
	if err := e.authorize(actor, rbac.ExamMutate, rbac.Resource{Exam: &ex}); err != nil {
		return exam.Exam{}, err
	}
	return ex, nil
}

func (e *Engine) GetExamForOwner(ctx context.Context, examID string, actor rbac.Actor) (ExamDetail, error) {
	ex, err := e.ownedExam(ctx, examID, actor)
	if err != nil {
		return ExamDetail{}, err
	}
	qs, err := e.store.ListQuestions(ctx, examID)
	if err != nil {
		return ExamDetail{}, err
	}
	return ExamDetail{Exam: ex, Questions: qs}, nil
}

// UpdateExam applies a settings patch. The access code never changes.
func (e *Engine) UpdateExam(ctx context.Context, examID string, p ExamPatch, actor rbac.Actor) (exam.Exam, error) {
	ex, err := e.ownedExam(ctx, examID, actor)
	if err != nil {
		return exam.Exam{}, err
	}
	next := p.apply(ex)
	if err := next.Validate(); err != nil {
		return exam.Exam{}, err
	}
	next.UpdatedAt = e.clock()
	return e.store.UpdateExam(ctx, next)
}

// DeleteExam removes an exam with its questions, attempts and answers.
func (e *Engine) DeleteExam(ctx context.Context, examID string, actor rbac.Actor) error {
	if _, err := e.ownedExam(ctx, examID, actor); err != nil {
		return err
	}
	if err := e.store.DeleteExam(ctx, examID); err != nil {
		return err
	}
	e.log.Info("exam deleted", zap.String("exam", examID), zap.String("owner", actor.ID))
	return nil
}

func (e *Engine) ListMyExams(ctx context.Context, actor rbac.Actor) ([]exam.Exam, error) {
	if actor.Anonymous() {
		return nil, rbac.Decision{Reason: "authentication required"}.Err()
	}
	return e.store.ListExamsByOwner(ctx, actor.ID)
}

// AddQuestion appends a question. A zero Order places it after the last one.
func (e *Engine) AddQuestion(ctx context.Context, examID string, q exam.Question, actor rbac.Actor) (exam.Question, error) {
	if _, err := e.ownedExam(ctx, examID, actor); err != nil {
		return exam.Question{}, err
	}
	q.ID = e.newID()
	q.ExamID = examID
	if q.Order == 0 {
		qs, err := e.store.ListQuestions(ctx, examID)
		if err != nil {
			return exam.Question{}, err
		}
		q.Order = 1
		if n := len(qs); n > 0 {
			q.Order = qs[n-1].Order + 1
		}
	}
	if err := q.Validate(); err != nil {
		return exam.Question{}, err
	}
	return e.store.CreateQuestion(ctx, q)
}

// UpdateQuestion replaces a question's content. Once a question has answers
// its type is fixed and its points may only grow: recorded scores stay as
// graded and must still fit under the attempt's maxScore.
func (e *Engine) UpdateQuestion(ctx context.Context, questionID string, q exam.Question, actor rbac.Actor) (exam.Question, error) {
	cur, err := e.store.GetQuestion(ctx, questionID)
	if err != nil {
		return exam.Question{}, err
	}
	if _, err := e.ownedExam(ctx, cur.ExamID, actor); err != nil {
		return exam.Question{}, err
	}
	q.ID, q.ExamID = cur.ID, cur.ExamID
	if q.Order == 0 {
		q.Order = cur.Order
	}
	if err := q.Validate(); err != nil {
		return exam.Question{}, err
	}
	if q.Type != cur.Type || q.Points < cur.Points {
		n, err := e.store.CountAnswersForQuestion(ctx, questionID)
		if err != nil {
			return exam.Question{}, err
		}
		if n > 0 {
			return exam.Question{}, fmt.Errorf("%w: question %s has %d answers; type and lower points are locked",
				exam.ErrConflict, questionID, n)
		}
	}
	return e.store.UpdateQuestion(ctx, q)
}

// DeleteQuestion refuses questions that already have answers.
func (e *Engine) DeleteQuestion(ctx context.Context, questionID string, actor rbac.Actor) error {
	cur, err := e.store.GetQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if _, err := e.ownedExam(ctx, cur.ExamID, actor); err != nil {
		return err
	}
	n, err := e.store.CountAnswersForQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	if n > 0 {
		return fmt.Errorf("%w: question %s has %d answers", exam.ErrConflict, questionID, n)
	}
	return e.store.DeleteQuestion(ctx, questionID)
}

// GetExamByAccessCode is the public lookup. It returns metadata only, and
// only for active exams.
func (e *Engine) GetExamByAccessCode(ctx context.Context, code string) (exam.PublicExamInfo, error) {
	if err := e.authorize(rbac.Actor{}, rbac.PublicLookup, rbac.Resource{}); err != nil {
		return exam.PublicExamInfo{}, err
	}
	ex, err := e.store.GetExamByAccessCode(ctx, exam.NormalizeAccessCode(code))
	if err != nil {
		return exam.PublicExamInfo{}, err
	}
	if ex.Status != exam.ExamActive {
		return exam.PublicExamInfo{}, exam.ErrExamNotActive
	}
	return ex.Public(), nil
}
