package rbac

import (
	"fmt"

	"github.com/mind-engage/mindengage-exams/internal/exam"
)

type Action string

const (
	ExamMutate     Action = "exam:mutate" // update, delete, question edits, list attempts
	AttemptRead    Action = "attempt:read"
	AttemptUpdate  Action = "attempt:update"
	AnswerSubmit   Action = "answer:submit"
	AnswerUpdate   Action = "answer:update"
	ReviewRequest  Action = "review:request"
	ReviewComplete Action = "review:complete"
	PublicLookup   Action = "exam:public-lookup"
)

// Answer fields a patch may touch.
const (
	FieldReviewRequested = "reviewRequested"
	FieldReviewed        = "reviewed"
	FieldIsCorrect       = "isCorrect"
	FieldScore           = "score"
	FieldReviewComment   = "reviewComment"
)

// Resource is what an action targets. Exam is required for every action
// except PublicLookup; Attempt for attempt and answer actions. Fields lists
// the answer fields an AnswerUpdate sets.
type Resource struct {
	Exam    *exam.Exam
	Attempt *exam.Attempt
	Fields  []string
}

type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision { return Decision{Allowed: true} }

func deny(format string, args ...interface{}) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// Err is nil for Allow and wraps exam.ErrForbidden otherwise.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: %s", exam.ErrForbidden, d.Reason)
}

// Authorize decides whether actor may perform action on res. Decisions are
// ownership-based: the exam's creator is its instructor and the attempt's
// user is its owner.
func Authorize(actor Actor, action Action, res Resource) Decision {
	if action == PublicLookup {
		return allow()
	}
	if actor.Anonymous() {
		return deny("authentication required")
	}
	if res.Exam == nil {
		return deny("no exam in scope")
	}
	instructor := actor.ID == res.Exam.CreatedBy

	switch action {
	case ExamMutate:
		if instructor {
			return allow()
		}
		return deny("only the exam's creator may change it")

	case ReviewComplete:
		if instructor {
			return allow()
		}
		return deny("only the exam's instructor may review answers")
	}

	if res.Attempt == nil {
		return deny("no attempt in scope")
	}
	if res.Attempt.ExamID != res.Exam.ID {
		return deny("attempt does not belong to exam")
	}
	owner := actor.ID == res.Attempt.UserID

	switch action {
	case AttemptRead, AttemptUpdate:
		if owner || instructor {
			return allow()
		}
		return deny("not the attempt's owner or instructor")

	case AnswerSubmit:
		if owner {
			return allow()
		}
		return deny("only the attempt's owner may answer")

	case ReviewRequest:
		if owner {
			return allow()
		}
		return deny("only the attempt's owner may request a review")

	case AnswerUpdate:
		if instructor {
			return allow()
		}
		if !owner {
			return deny("not the attempt's owner or instructor")
		}
		for _, f := range res.Fields {
			if f != FieldReviewRequested {
				return deny("students may only set %s, not %s", FieldReviewRequested, f)
			}
		}
		return allow()
	}
	return deny("unknown action %q", action)
}
