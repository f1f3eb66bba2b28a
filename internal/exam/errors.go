package exam

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrValidation       = errors.New("validation failed")
	ErrReviewNotAllowed = errors.New("review not allowed")
	ErrInvariant        = errors.New("invariant violation")

	ErrAttemptClosed   = errors.New("attempt already completed")
	ErrAttemptExpired  = errors.New("attempt time limit exceeded")
	ErrAlreadyAnswered = errors.New("question already answered in this attempt")
	ErrExamNotActive   = errors.New("exam is not active")
	ErrConflict        = errors.New("conflict")
)

type ValidationReason string

const (
	InvalidOption     ValidationReason = "invalid_option"
	InvalidBoolean    ValidationReason = "invalid_boolean"
	EmptyAnswer       ValidationReason = "empty_answer"
	QuestionMismatch  ValidationReason = "question_not_in_exam"
	UnknownType       ValidationReason = "unknown_question_type"
	InvalidQuestion   ValidationReason = "invalid_question"
	InvalidExam       ValidationReason = "invalid_exam"
	UnsupportedUpdate ValidationReason = "unsupported_update"
)

type ValidationError struct {
	Reason ValidationReason
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Reason, e.Detail)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func Invalid(reason ValidationReason, format string, args ...interface{}) error {
	return &ValidationError{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

type ReviewReason string

const (
	ReviewNotEssay        ReviewReason = "question is not an essay"
	ReviewDisabled        ReviewReason = "exam does not allow review"
	ReviewAttemptOpen     ReviewReason = "attempt not completed"
	ReviewAlreadyPending  ReviewReason = "review already requested"
	ReviewNotRequested    ReviewReason = "review was not requested"
	ReviewAlreadyFinished ReviewReason = "answer already reviewed"
	ReviewAutoGraded      ReviewReason = "answer was graded on submission"
)

type ReviewNotAllowedError struct {
	Reason ReviewReason
}

func (e *ReviewNotAllowedError) Error() string {
	return "review not allowed: " + string(e.Reason)
}

func (e *ReviewNotAllowedError) Is(target error) bool { return target == ErrReviewNotAllowed }

func ReviewNotAllowed(reason ReviewReason) error {
	return &ReviewNotAllowedError{Reason: reason}
}

// InvariantError records a broken score invariant on an attempt.
type InvariantError struct {
	AttemptID string
	Score     int
	MaxScore  *int
	Detail    string
}

func (e *InvariantError) Error() string {
	if e.MaxScore != nil {
		return fmt.Sprintf("invariant violation on attempt %s: score=%d maxScore=%d: %s", e.AttemptID, e.Score, *e.MaxScore, e.Detail)
	}
	return fmt.Sprintf("invariant violation on attempt %s: score=%d: %s", e.AttemptID, e.Score, e.Detail)
}

func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}
