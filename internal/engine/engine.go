// Package engine is the attempt scoring and review engine. Every operation
// authorizes first, then validates, grades and aggregates, and finally
// persists through exam.Store. Score-changing operations on one attempt run
// one at a time under attemptlock.
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exams/internal/attemptlock"
	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/grading"
	"github.com/mind-engage/mindengage-exams/internal/metrics"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

type Engine struct {
	store   exam.Store
	grader  grading.Grader
	locks   attemptlock.Locker
	roles   *rbac.Checker
	log     *zap.Logger
	metrics *metrics.Metrics

	now         func() time.Time
	newID       func() string
	enforceTime bool
}

type Option func(*Engine)

func WithGrader(g grading.Grader) Option        { return func(e *Engine) { e.grader = g } }
func WithLocker(l attemptlock.Locker) Option    { return func(e *Engine) { e.locks = l } }
func WithLogger(l *zap.Logger) Option           { return func(e *Engine) { e.log = l } }
func WithMetrics(m *metrics.Metrics) Option     { return func(e *Engine) { e.metrics = m } }
func WithClock(now func() time.Time) Option     { return func(e *Engine) { e.now = now } }
func WithIDGenerator(next func() string) Option { return func(e *Engine) { e.newID = next } }

// WithTimeLimit makes SubmitAnswer refuse answers once an attempt has run
// past the exam's duration.
func WithTimeLimit(on bool) Option { return func(e *Engine) { e.enforceTime = on } }

func New(store exam.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		grader: grading.NewDefaultGrader(),
		locks:  attemptlock.NewLocal(),
		roles:  rbac.NewChecker(nil),
		log:    zap.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// clock returns now truncated to the second, which is what the stores keep.
func (e *Engine) clock() time.Time {
	return e.now().UTC().Truncate(time.Second)
}

func (e *Engine) authorize(actor rbac.Actor, action rbac.Action, res rbac.Resource) error {
	d := rbac.Authorize(actor, action, res)
	if !d.Allowed {
		e.log.Debug("access denied",
			zap.String("actor", actor.ID), zap.String("action", string(action)), zap.String("reason", d.Reason))
	}
	return d.Err()
}

func (e *Engine) requireRole(actor rbac.Actor, perm string) error {
	if actor.Anonymous() || !e.roles.Has(actor.Role, perm) {
		return rbac.Decision{Reason: "role " + actor.Role + " lacks " + perm}.Err()
	}
	return nil
}

// withAttempt runs fn while holding the attempt's exclusive scope.
func (e *Engine) withAttempt(ctx context.Context, attemptID string, fn func() error) error {
	unlock, err := e.locks.Lock(ctx, attemptID)
	if err != nil {
		return err
	}
	defer unlock()
	return fn()
}

// checkInvariant logs and counts a broken score invariant and passes err on.
func (e *Engine) checkInvariant(op string, err error) error {
	var ie *exam.InvariantError
	if errors.As(err, &ie) {
		fields := []zap.Field{
			zap.String("op", op),
			zap.String("attempt", ie.AttemptID),
			zap.Int("score", ie.Score),
			zap.String("detail", ie.Detail),
		}
		if ie.MaxScore != nil {
			fields = append(fields, zap.Int("maxScore", *ie.MaxScore))
		}
		e.log.Error("score invariant violated", fields...)
		e.metrics.InvariantViolation()
	}
	return err
}

// attemptScope loads an attempt and the exam it belongs to.
func (e *Engine) attemptScope(ctx context.Context, attemptID string) (exam.Attempt, exam.Exam, error) {
	att, err := e.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return exam.Attempt{}, exam.Exam{}, err
	}
	ex, err := e.store.GetExam(ctx, att.ExamID)
	if err != nil {
		return exam.Attempt{}, exam.Exam{}, err
	}
	return att, ex, nil
}

// answerScope loads an answer with its attempt and exam.
func (e *Engine) answerScope(ctx context.Context, answerID string) (exam.UserAnswer, exam.Attempt, exam.Exam, error) {
	ans, err := e.store.GetAnswer(ctx, answerID)
	if err != nil {
		return exam.UserAnswer{}, exam.Attempt{}, exam.Exam{}, err
	}
	att, ex, err := e.attemptScope(ctx, ans.AttemptID)
	if err != nil {
		return exam.UserAnswer{}, exam.Attempt{}, exam.Exam{}, err
	}
	return ans, att, ex, nil
}
