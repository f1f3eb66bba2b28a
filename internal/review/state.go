// Package review models the essay review lifecycle as an explicit state:
//
//	Unreviewed -> ReviewRequested -> Reviewed{Accepted, Comment}
//
// Reviewed is terminal. All moves go through Transition.
package review

import (
	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/grading"
)

type Phase int

const (
	Unreviewed Phase = iota
	ReviewRequested
	Reviewed
)

func (p Phase) String() string {
	switch p {
	case Unreviewed:
		return "unreviewed"
	case ReviewRequested:
		return "review-requested"
	case Reviewed:
		return "reviewed"
	}
	return "unknown"
}

// State is the review state of one answer. Accepted and Comment are only
// meaningful in the Reviewed phase.
type State struct {
	Phase    Phase
	Accepted bool
	Comment  string
}

// StateOf reads the persisted flags of an answer.
func StateOf(u exam.UserAnswer) State {
	switch {
	case u.Reviewed:
		s := State{Phase: Reviewed}
		if u.IsCorrect != nil {
			s.Accepted = *u.IsCorrect
		}
		if u.ReviewComment != nil {
			s.Comment = *u.ReviewComment
		}
		return s
	case u.ReviewRequested:
		return State{Phase: ReviewRequested}
	default:
		return State{Phase: Unreviewed}
	}
}

// Event is either Request or Complete.
type Event interface {
	event()
}

// Request is the student asking for an essay to be reviewed. It carries the
// context the preconditions are checked against.
type Request struct {
	Question exam.Question
	Exam     exam.Exam
	Attempt  exam.Attempt
	Answer   exam.UserAnswer
}

// Complete is the instructor's verdict.
type Complete struct {
	Accepted bool
	Comment  string
}

func (Request) event()  {}
func (Complete) event() {}

// Transition returns the next state or a *exam.ReviewNotAllowedError naming
// the precondition that failed.
func Transition(s State, ev Event) (State, error) {
	if s.Phase == Reviewed {
		return s, exam.ReviewNotAllowed(exam.ReviewAlreadyFinished)
	}
	switch e := ev.(type) {
	case Request:
		switch {
		case e.Question.Type != exam.TypeEssay:
			return s, exam.ReviewNotAllowed(exam.ReviewNotEssay)
		case e.Answer.IsCorrect != nil:
			// a verdict before any review means it was auto-graded
			return s, exam.ReviewNotAllowed(exam.ReviewAutoGraded)
		case !e.Exam.AllowReview:
			return s, exam.ReviewNotAllowed(exam.ReviewDisabled)
		case e.Attempt.Status != exam.AttemptCompleted:
			return s, exam.ReviewNotAllowed(exam.ReviewAttemptOpen)
		case s.Phase == ReviewRequested:
			return s, exam.ReviewNotAllowed(exam.ReviewAlreadyPending)
		}
		return State{Phase: ReviewRequested}, nil

	case Complete:
		if s.Phase != ReviewRequested {
			return s, exam.ReviewNotAllowed(exam.ReviewNotRequested)
		}
		return State{Phase: Reviewed, Accepted: e.Accepted, Comment: e.Comment}, nil
	}
	return s, exam.ReviewNotAllowed(exam.ReviewNotRequested)
}

// Apply writes a state back onto an answer. Entering Reviewed sets the
// verdict and the essay's score; earlier phases leave grading fields alone.
func Apply(u exam.UserAnswer, q exam.Question, s State) exam.UserAnswer {
	out := u
	switch s.Phase {
	case Unreviewed:
		out.ReviewRequested = false
	case ReviewRequested:
		out.ReviewRequested = true
	case Reviewed:
		out.ReviewRequested = true
		out.Reviewed = true
		out.IsCorrect = exam.BoolPtr(s.Accepted)
		out.Score = exam.IntPtr(grading.ReviewScore(q, s.Accepted))
		c := s.Comment
		out.ReviewComment = &c
	}
	return out
}
