package exam

import (
	"strings"
)

const (
	MinOptions = 2
	MaxOptions = 6
)

// Validate checks the type-keyed shape of a question: multiple-choice carries
// a string key that is one of its options, true-false a boolean key, essay
// no key at all.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Content) == "" {
		return Invalid(InvalidQuestion, "content required")
	}
	if q.Points < 1 {
		return Invalid(InvalidQuestion, "points must be >= 1, got %d", q.Points)
	}
	switch q.Type {
	case TypeMultipleChoice:
		if n := len(q.Options); n < MinOptions || n > MaxOptions {
			return Invalid(InvalidQuestion, "multiple-choice needs %d-%d options, got %d", MinOptions, MaxOptions, n)
		}
		key, ok := q.CorrectAnswer.AsText()
		if !ok {
			return Invalid(InvalidQuestion, "multiple-choice correctAnswer must be a string")
		}
		found := false
		for _, o := range q.Options {
			if o == key {
				found = true
				break
			}
		}
		if !found {
			return Invalid(InvalidQuestion, "correctAnswer %q is not one of the options", key)
		}
		if len(q.AcceptedAnswers) > 0 {
			return Invalid(InvalidQuestion, "acceptedAnswers is only valid for essay questions")
		}
	case TypeTrueFalse:
		if _, ok := q.CorrectAnswer.AsBool(); !ok {
			return Invalid(InvalidQuestion, "true-false correctAnswer must be a boolean")
		}
		if len(q.Options) > 0 || len(q.AcceptedAnswers) > 0 {
			return Invalid(InvalidQuestion, "true-false questions take no options or acceptedAnswers")
		}
	case TypeEssay:
		if !q.CorrectAnswer.IsNull() {
			return Invalid(InvalidQuestion, "essay questions have no correctAnswer")
		}
		if len(q.Options) > 0 {
			return Invalid(InvalidQuestion, "essay questions take no options")
		}
	default:
		return Invalid(UnknownType, "%q", q.Type)
	}
	return nil
}

func (e Exam) Validate() error {
	if strings.TrimSpace(e.Title) == "" {
		return Invalid(InvalidExam, "title required")
	}
	if e.Duration <= 0 {
		return Invalid(InvalidExam, "duration must be > 0 minutes")
	}
	switch e.Status {
	case ExamDraft, ExamActive, ExamCompleted:
	default:
		return Invalid(InvalidExam, "unknown status %q", e.Status)
	}
	return nil
}

// TotalPoints sums points over questions.
func TotalPoints(qs []Question) int {
	total := 0
	for _, q := range qs {
		total += q.Points
	}
	return total
}
