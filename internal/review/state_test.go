package review

import (
	"errors"
	"testing"

	"github.com/mind-engage/mindengage-exams/internal/exam"
)

func essayQ() exam.Question {
	return exam.Question{ID: "q1", Type: exam.TypeEssay, Content: "why?", Points: 5}
}

func reviewable() Request {
	return Request{
		Question: essayQ(),
		Exam:     exam.Exam{ID: "e1", AllowReview: true},
		Attempt:  exam.Attempt{ID: "a1", Status: exam.AttemptCompleted},
	}
}

func TestRequestPreconditions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Request)
		reason exam.ReviewReason
	}{
		{name: "not essay", mutate: func(r *Request) { r.Question.Type = exam.TypeTrueFalse }, reason: exam.ReviewNotEssay},
		{name: "review disabled", mutate: func(r *Request) { r.Exam.AllowReview = false }, reason: exam.ReviewDisabled},
		{name: "graded on submit", mutate: func(r *Request) { r.Answer.IsCorrect = exam.BoolPtr(false) }, reason: exam.ReviewAutoGraded},
		{name: "attempt open", mutate: func(r *Request) { r.Attempt.Status = exam.AttemptInProgress }, reason: exam.ReviewAttemptOpen},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := reviewable()
			tc.mutate(&req)
			s, err := Transition(State{Phase: Unreviewed}, req)
			var rn *exam.ReviewNotAllowedError
			if !errors.As(err, &rn) || rn.Reason != tc.reason {
				t.Fatalf("want ReviewNotAllowed(%s), got %v", tc.reason, err)
			}
			if s.Phase != Unreviewed {
				t.Fatalf("state moved to %s on failure", s.Phase)
			}
		})
	}
}

func TestHappyPath(t *testing.T) {
	s, err := Transition(State{}, reviewable())
	if err != nil || s.Phase != ReviewRequested {
		t.Fatalf("request: %v %v", s.Phase, err)
	}
	if _, err := Transition(s, reviewable()); !errors.Is(err, exam.ErrReviewNotAllowed) {
		t.Fatalf("repeat request: want ReviewNotAllowed, got %v", err)
	}
	s, err = Transition(s, Complete{Accepted: true, Comment: "good"})
	if err != nil || s.Phase != Reviewed || !s.Accepted || s.Comment != "good" {
		t.Fatalf("complete: %+v %v", s, err)
	}

	u := Apply(exam.UserAnswer{ID: "ans", Answer: exam.Text("x")}, essayQ(), s)
	if !u.Reviewed || !u.ReviewRequested || u.IsCorrect == nil || !*u.IsCorrect || u.ScoreValue() != 5 {
		t.Fatalf("apply: %+v", u)
	}
	if u.ReviewComment == nil || *u.ReviewComment != "good" {
		t.Fatalf("comment not applied")
	}
	if got := StateOf(u); got != s {
		t.Fatalf("StateOf(Apply(s)) = %+v, want %+v", got, s)
	}
}

func TestCompleteRequiresRequest(t *testing.T) {
	_, err := Transition(State{Phase: Unreviewed}, Complete{Accepted: true})
	var rn *exam.ReviewNotAllowedError
	if !errors.As(err, &rn) || rn.Reason != exam.ReviewNotRequested {
		t.Fatalf("want ReviewNotRequested, got %v", err)
	}
}

func TestReviewedIsTerminal(t *testing.T) {
	done := State{Phase: Reviewed, Accepted: false, Comment: "no"}
	for _, ev := range []Event{reviewable(), Complete{Accepted: true}} {
		s, err := Transition(done, ev)
		var rn *exam.ReviewNotAllowedError
		if !errors.As(err, &rn) || rn.Reason != exam.ReviewAlreadyFinished {
			t.Fatalf("%T: want ReviewAlreadyFinished, got %v", ev, err)
		}
		if s != done {
			t.Fatalf("%T: terminal state changed to %+v", ev, s)
		}
	}
}

func TestRejectedEssayScoresZero(t *testing.T) {
	u := Apply(exam.UserAnswer{}, essayQ(), State{Phase: Reviewed, Accepted: false})
	if u.IsCorrect == nil || *u.IsCorrect || u.ScoreValue() != 0 {
		t.Fatalf("rejected essay: %+v", u)
	}
}
