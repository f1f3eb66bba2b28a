package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/grading"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
	"github.com/mind-engage/mindengage-exams/internal/review"
	"github.com/mind-engage/mindengage-exams/internal/scoring"
)

// SubmitAnswer validates, grades and records one answer. Either the answer
// and the attempt's new score are both stored, or nothing is.
func (e *Engine) SubmitAnswer(ctx context.Context, attemptID, questionID string, raw interface{}, actor rbac.Actor) (exam.UserAnswer, error) {
	att, ex, err := e.attemptScope(ctx, attemptID)
	if err != nil {
		return exam.UserAnswer{}, err
	}
	if err := e.authorize(actor, rbac.AnswerSubmit, rbac.Resource{Exam: &ex, Attempt: &att}); err != nil {
		return exam.UserAnswer{}, err
	}

	q, err := e.store.GetQuestion(ctx, questionID)
	if err != nil {
		return exam.UserAnswer{}, err
	}
	if q.ExamID != att.ExamID {
		return exam.UserAnswer{}, exam.Invalid(exam.QuestionMismatch, "question %s is not part of exam %s", q.ID, att.ExamID)
	}
	valid, err := grading.Validate(q, raw)
	if err != nil {
		return exam.UserAnswer{}, err
	}
	res := e.grader.Grade(q, valid)

	var saved exam.UserAnswer
	err = e.withAttempt(ctx, attemptID, func() error {
		cur, err := e.store.GetAttempt(ctx, attemptID)
		if err != nil {
			return err
		}
		if e.enforceTime && cur.Status == exam.AttemptInProgress && cur.Expired(e.clock(), ex.Duration) {
			return exam.ErrAttemptExpired
		}
		next, err := scoring.RecordAnswer(cur, res)
		if err != nil {
			return e.checkInvariant("submit", err)
		}

		ans := exam.UserAnswer{
			ID:         e.newID(),
			AttemptID:  attemptID,
			QuestionID: q.ID,
			Answer:     valid,
			IsCorrect:  res.IsCorrect,
			Score:      exam.IntPtr(res.Score),
		}
		saved, _, err = e.store.InsertAnswer(ctx, ans, scoring.Delta(cur, next))
		return err
	})
	if err != nil {
		return exam.UserAnswer{}, err
	}

	e.metrics.AnswerGraded(string(q.Type), saved.IsCorrect)
	e.log.Debug("answer recorded",
		zap.String("attempt", attemptID), zap.String("question", q.ID), zap.Int("score", saved.ScoreValue()))
	return saved, nil
}

// RequestReview moves an essay answer from Unreviewed to ReviewRequested.
func (e *Engine) RequestReview(ctx context.Context, answerID string, actor rbac.Actor) (exam.UserAnswer, error) {
	ans, att, ex, err := e.answerScope(ctx, answerID)
	if err != nil {
		return exam.UserAnswer{}, err
	}
	if err := e.authorize(actor, rbac.ReviewRequest, rbac.Resource{Exam: &ex, Attempt: &att}); err != nil {
		return exam.UserAnswer{}, err
	}
	q, err := e.store.GetQuestion(ctx, ans.QuestionID)
	if err != nil {
		return exam.UserAnswer{}, err
	}

	var saved exam.UserAnswer
	err = e.withAttempt(ctx, att.ID, func() error {
		cur, err := e.store.GetAnswer(ctx, answerID)
		if err != nil {
			return err
		}
		curAtt, err := e.store.GetAttempt(ctx, att.ID)
		if err != nil {
			return err
		}
		next, err := review.Transition(review.StateOf(cur), review.Request{Question: q, Exam: ex, Attempt: curAtt, Answer: cur})
		if err != nil {
			return err
		}
		saved, err = e.store.SaveReviewRequest(ctx, review.Apply(cur, q, next))
		return err
	})
	if err != nil {
		return exam.UserAnswer{}, err
	}

	e.metrics.ReviewTransition(review.ReviewRequested.String())
	e.log.Debug("review requested", zap.String("answer", answerID), zap.String("attempt", att.ID))
	return saved, nil
}

// CompleteReview records the instructor's verdict on a requested review and
// moves the attempt's score by the essay's new score.
func (e *Engine) CompleteReview(ctx context.Context, answerID string, accepted bool, comment string, actor rbac.Actor) (exam.UserAnswer, error) {
	ans, att, ex, err := e.answerScope(ctx, answerID)
	if err != nil {
		return exam.UserAnswer{}, err
	}
	if err := e.authorize(actor, rbac.ReviewComplete, rbac.Resource{Exam: &ex, Attempt: &att}); err != nil {
		return exam.UserAnswer{}, err
	}
	q, err := e.store.GetQuestion(ctx, ans.QuestionID)
	if err != nil {
		return exam.UserAnswer{}, err
	}

	var saved exam.UserAnswer
	err = e.withAttempt(ctx, att.ID, func() error {
		cur, err := e.store.GetAnswer(ctx, answerID)
		if err != nil {
			return err
		}
		next, err := review.Transition(review.StateOf(cur), review.Complete{Accepted: accepted, Comment: comment})
		if err != nil {
			return err
		}
		updated := review.Apply(cur, q, next)

		curAtt, err := e.store.GetAttempt(ctx, att.ID)
		if err != nil {
			return err
		}
		projected, err := scoring.RecomputeOnReview(curAtt, cur.ScoreValue(), updated.ScoreValue())
		if err != nil {
			return e.checkInvariant("review", err)
		}
		saved, _, err = e.store.SaveReview(ctx, updated, scoring.Delta(curAtt, projected))
		return err
	})
	if err != nil {
		return exam.UserAnswer{}, err
	}

	e.metrics.ReviewTransition(review.Reviewed.String())
	e.log.Debug("review completed",
		zap.String("answer", answerID), zap.String("attempt", att.ID), zap.Bool("accepted", accepted))
	return saved, nil
}

// AnswerPatch is a partial update of an answer. Nil fields are absent.
type AnswerPatch struct {
	ReviewRequested *bool   `json:"reviewRequested,omitempty"`
	Reviewed        *bool   `json:"reviewed,omitempty"`
	IsCorrect       *bool   `json:"isCorrect,omitempty"`
	Score           *int    `json:"score,omitempty"`
	ReviewComment   *string `json:"reviewComment,omitempty"`
}

// Fields names the fields present in the patch.
func (p AnswerPatch) Fields() []string {
	var out []string
	if p.ReviewRequested != nil {
		out = append(out, rbac.FieldReviewRequested)
	}
	if p.Reviewed != nil {
		out = append(out, rbac.FieldReviewed)
	}
	if p.IsCorrect != nil {
		out = append(out, rbac.FieldIsCorrect)
	}
	if p.Score != nil {
		out = append(out, rbac.FieldScore)
	}
	if p.ReviewComment != nil {
		out = append(out, rbac.FieldReviewComment)
	}
	return out
}

// UpdateAnswer maps a patch onto a review transition. Field-level access is
// checked before anything else: a student sending any field other than
// reviewRequested is Forbidden even if the patch would be invalid anyway.
func (e *Engine) UpdateAnswer(ctx context.Context, answerID string, p AnswerPatch, actor rbac.Actor) (exam.UserAnswer, error) {
	_, att, ex, err := e.answerScope(ctx, answerID)
	if err != nil {
		return exam.UserAnswer{}, err
	}
	if err := e.authorize(actor, rbac.AnswerUpdate, rbac.Resource{Exam: &ex, Attempt: &att, Fields: p.Fields()}); err != nil {
		return exam.UserAnswer{}, err
	}

	switch {
	case p.Reviewed != nil:
		if !*p.Reviewed || p.IsCorrect == nil {
			return exam.UserAnswer{}, exam.Invalid(exam.UnsupportedUpdate, "a review needs reviewed=true and isCorrect")
		}
		if p.ReviewRequested != nil && !*p.ReviewRequested {
			return exam.UserAnswer{}, exam.Invalid(exam.UnsupportedUpdate, "cannot withdraw a review request while reviewing")
		}
		if p.Score != nil {
			q, err := e.answerQuestion(ctx, answerID)
			if err != nil {
				return exam.UserAnswer{}, err
			}
			if want := grading.ReviewScore(q, *p.IsCorrect); *p.Score != want {
				return exam.UserAnswer{}, exam.Invalid(exam.UnsupportedUpdate, "score is %d for this verdict, not %d", want, *p.Score)
			}
		}
		comment := ""
		if p.ReviewComment != nil {
			comment = *p.ReviewComment
		}
		return e.CompleteReview(ctx, answerID, *p.IsCorrect, comment, actor)

	case p.ReviewRequested != nil && *p.ReviewRequested && len(p.Fields()) == 1:
		return e.RequestReview(ctx, answerID, actor)
	}
	return exam.UserAnswer{}, exam.Invalid(exam.UnsupportedUpdate, "patch %v does not describe a review transition", p.Fields())
}

func (e *Engine) answerQuestion(ctx context.Context, answerID string) (exam.Question, error) {
	ans, err := e.store.GetAnswer(ctx, answerID)
	if err != nil {
		return exam.Question{}, err
	}
	return e.store.GetQuestion(ctx, ans.QuestionID)
}
