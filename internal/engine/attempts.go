package engine

import (
	"context"
	"hash/fnv"
	"math/rand"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
	"github.com/mind-engage/mindengage-exams/internal/scoring"
)

// StartAttempt opens a new attempt for actor. Only active exams accept one.
func (e *Engine) StartAttempt(ctx context.Context, examID string, actor rbac.Actor) (exam.Attempt, error) {
	if err := e.requireRole(actor, "attempt:create"); err != nil {
		return exam.Attempt{}, err
	}
	ex, err := e.store.GetExam(ctx, examID)
	if err != nil {
		return exam.Attempt{}, err
	}
	if ex.Status != exam.ExamActive {
		return exam.Attempt{}, exam.ErrExamNotActive
	}
	att, err := e.store.CreateAttempt(ctx, exam.Attempt{
		ID:        e.newID(),
		ExamID:    ex.ID,
		UserID:    actor.ID,
		Status:    exam.AttemptInProgress,
		StartTime: e.clock(),
	})
	if err != nil {
		return exam.Attempt{}, err
	}
	e.metrics.Attempt("started")
	e.log.Debug("attempt started", zap.String("attempt", att.ID), zap.String("exam", ex.ID), zap.String("user", actor.ID))
	return att, nil
}

// CompleteAttempt closes an attempt and fixes maxScore from the exam's
// questions as they are now.
func (e *Engine) CompleteAttempt(ctx context.Context, attemptID string, actor rbac.Actor) (exam.Attempt, error) {
	att, ex, err := e.attemptScope(ctx, attemptID)
	if err != nil {
		return exam.Attempt{}, err
	}
	if err := e.authorize(actor, rbac.AttemptUpdate, rbac.Resource{Exam: &ex, Attempt: &att}); err != nil {
		return exam.Attempt{}, err
	}

	var out exam.Attempt
	err = e.withAttempt(ctx, attemptID, func() error {
		cur, err := e.store.GetAttempt(ctx, attemptID)
		if err != nil {
			return err
		}
		qs, err := e.store.ListQuestions(ctx, ex.ID)
		if err != nil {
			return err
		}
		next, err := scoring.Complete(cur, qs, e.clock())
		if err != nil {
			return e.checkInvariant("complete", err)
		}
		out, err = e.store.CompleteAttempt(ctx, next)
		return err
	})
	if err != nil {
		return exam.Attempt{}, err
	}

	e.metrics.Attempt("completed")
	e.log.Info("attempt completed",
		zap.String("attempt", out.ID), zap.Int("score", out.ScoreValue()), zap.Intp("maxScore", out.MaxScore))
	return out, nil
}

// GetAttempt returns an attempt with its answers and the exam's questions.
// The exam's instructor sees everything. The student sees questions without
// answer keys, plus keys once the attempt is completed and the exam shows
// correct answers; scores are hidden when the exam does not show results.
func (e *Engine) GetAttempt(ctx context.Context, attemptID string, actor rbac.Actor) (exam.AttemptResult, error) {
	att, ex, err := e.attemptScope(ctx, attemptID)
	if err != nil {
		return exam.AttemptResult{}, err
	}
	if err := e.authorize(actor, rbac.AttemptRead, rbac.Resource{Exam: &ex, Attempt: &att}); err != nil {
		return exam.AttemptResult{}, err
	}
	answers, err := e.store.ListAnswers(ctx, attemptID)
	if err != nil {
		return exam.AttemptResult{}, err
	}
	qs, err := e.store.ListQuestions(ctx, ex.ID)
	if err != nil {
		return exam.AttemptResult{}, err
	}
	res := exam.AttemptResult{Exam: ex.Public(), Attempt: att, Answers: answers, Questions: qs}
	if actor.ID == ex.CreatedBy {
		return res, nil
	}
	return studentView(res, ex), nil
}

func studentView(res exam.AttemptResult, ex exam.Exam) exam.AttemptResult {
	done := res.Attempt.Status == exam.AttemptCompleted

	qs := make([]exam.Question, len(res.Questions))
	copy(qs, res.Questions)
	if !(done && ex.ShowCorrectAnswers) {
		for i := range qs {
			qs[i].CorrectAnswer = exam.Null()
			qs[i].AcceptedAnswers = nil
		}
	}
	if ex.ShuffleQuestions {
		shuffle(qs, res.Attempt.ID)
	}
	res.Questions = qs

	if !ex.ShowResults {
		res.Attempt.Score = nil
		answers := make([]exam.UserAnswer, len(res.Answers))
		for i, a := range res.Answers {
			a.IsCorrect, a.Score = nil, nil
			answers[i] = a
		}
		res.Answers = answers
	}
	return res
}

// shuffle orders questions the same way every time for one attempt.
func shuffle(qs []exam.Question, attemptID string) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(attemptID))
	r := rand.New(rand.NewSource(int64(h.Sum64())))
	r.Shuffle(len(qs), func(i, j int) { qs[i], qs[j] = qs[j], qs[i] })
}

// ListExamAttempts lists every attempt at an exam for its instructor.
func (e *Engine) ListExamAttempts(ctx context.Context, examID string, actor rbac.Actor) ([]exam.Attempt, error) {
	if _, err := e.ownedExam(ctx, examID, actor); err != nil {
		return nil, err
	}
	return e.store.ListAttemptsByExam(ctx, examID)
}
