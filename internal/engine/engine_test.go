package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/metrics"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var (
	teacher      = rbac.Actor{ID: "teacher-1", Role: rbac.RoleTeacher}
	otherTeacher = rbac.Actor{ID: "teacher-2", Role: rbac.RoleTeacher}
	student      = rbac.Actor{ID: "student-1", Role: rbac.RoleStudent}
	otherStudent = rbac.Actor{ID: "student-2", Role: rbac.RoleStudent}
)

type fixture struct {
	t       *testing.T
	ctx     context.Context
	eng     *Engine
	store   exam.Store
	clock   *fakeClock
	metrics *metrics.Metrics

	exam          exam.Exam
	mc, tf, essay exam.Question
	attempt       exam.Attempt
}

// newFixture builds an active exam worth 2+1+5 points with review allowed,
// and an in-progress attempt by student.
func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	return newFixtureWithStore(t, exam.NewInMemoryStore(), opts...)
}

func newFixtureWithStore(t *testing.T, store exam.Store, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		store:   store,
		clock:   &fakeClock{t: time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)},
		metrics: metrics.New(),
	}
	base := []Option{WithClock(f.clock.Now), WithMetrics(f.metrics)}
	f.eng = New(store, append(base, opts...)...)

	f.exam = f.mustCreateExam(exam.Exam{
		Title: "Biology midterm", Subject: "biology", Duration: 60,
		Status: exam.ExamActive, ShowResults: true, AllowReview: true,
	})
	f.mc = f.mustAddQuestion(f.exam.ID, exam.Question{
		Type: exam.TypeMultipleChoice, Content: "Which organelle makes ATP?", Points: 2,
		Options: []string{"A", "B", "C", "D"}, CorrectAnswer: exam.Text("B"),
	})
	f.tf = f.mustAddQuestion(f.exam.ID, exam.Question{
		Type: exam.TypeTrueFalse, Content: "Plants photosynthesize.", Points: 1, CorrectAnswer: exam.Bool(true),
	})
	f.essay = f.mustAddQuestion(f.exam.ID, exam.Question{
		Type: exam.TypeEssay, Content: "How do plants make sugar?", Points: 5,
		AcceptedAnswers: []string{"photosynthesis"},
	})
	f.attempt = f.mustStart(f.exam.ID, student)
	return f
}

func (f *fixture) mustCreateExam(in exam.Exam) exam.Exam {
	f.t.Helper()
	ex, err := f.eng.CreateExam(f.ctx, in, teacher)
	if err != nil {
		f.t.Fatalf("create exam: %v", err)
	}
	return ex
}

func (f *fixture) mustAddQuestion(examID string, q exam.Question) exam.Question {
	f.t.Helper()
	out, err := f.eng.AddQuestion(f.ctx, examID, q, teacher)
	if err != nil {
		f.t.Fatalf("add question: %v", err)
	}
	return out
}

func (f *fixture) mustStart(examID string, actor rbac.Actor) exam.Attempt {
	f.t.Helper()
	att, err := f.eng.StartAttempt(f.ctx, examID, actor)
	if err != nil {
		f.t.Fatalf("start attempt: %v", err)
	}
	return att
}

func (f *fixture) mustSubmit(attemptID, questionID string, raw interface{}) exam.UserAnswer {
	f.t.Helper()
	ans, err := f.eng.SubmitAnswer(f.ctx, attemptID, questionID, raw, student)
	if err != nil {
		f.t.Fatalf("submit %v: %v", raw, err)
	}
	return ans
}

func (f *fixture) mustComplete(attemptID string) exam.Attempt {
	f.t.Helper()
	att, err := f.eng.CompleteAttempt(f.ctx, attemptID, student)
	if err != nil {
		f.t.Fatalf("complete: %v", err)
	}
	return att
}

func (f *fixture) score(attemptID string) int {
	f.t.Helper()
	att, err := f.store.GetAttempt(f.ctx, attemptID)
	if err != nil {
		f.t.Fatal(err)
	}
	return att.ScoreValue()
}

func assertGraded(t *testing.T, ans exam.UserAnswer, isCorrect *bool, score int) {
	t.Helper()
	switch {
	case isCorrect == nil && ans.IsCorrect != nil:
		t.Fatalf("isCorrect = %v, want null", *ans.IsCorrect)
	case isCorrect != nil && (ans.IsCorrect == nil || *ans.IsCorrect != *isCorrect):
		t.Fatalf("isCorrect = %v, want %v", ans.IsCorrect, *isCorrect)
	}
	if ans.ScoreValue() != score {
		t.Fatalf("score = %d, want %d", ans.ScoreValue(), score)
	}
}

func assertReviewReason(t *testing.T, err error, want exam.ReviewReason) {
	t.Helper()
	var rn *exam.ReviewNotAllowedError
	if !errors.As(err, &rn) {
		t.Fatalf("want ReviewNotAllowed(%s), got %v", want, err)
	}
	if rn.Reason != want {
		t.Fatalf("reason = %q, want %q", rn.Reason, want)
	}
}

func assertValidation(t *testing.T, err error, want exam.ValidationReason) {
	t.Helper()
	var ve *exam.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("want ValidationError(%s), got %v", want, err)
	}
	if ve.Reason != want {
		t.Fatalf("reason = %s, want %s", ve.Reason, want)
	}
}
