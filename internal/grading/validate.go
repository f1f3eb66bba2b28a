package grading

import (
	"strings"

	"github.com/mind-engage/mindengage-exams/internal/exam"
)

// Validate checks a raw answer against its question's shape and returns the
// normalized value to grade. raw is whatever the JSON decoder produced:
// string, bool, nil, or an exam.Value.
//
// Essay answers have no length cap.
func Validate(q exam.Question, raw interface{}) (exam.Value, error) {
	v, ok := exam.FromRaw(raw)
	switch q.Type {
	case exam.TypeMultipleChoice:
		s, isText := v.AsText()
		if !ok || !isText {
			return exam.Value{}, exam.Invalid(exam.InvalidOption, "answer must be one of the options")
		}
		for _, o := range q.Options {
			if s == o {
				return exam.Text(s), nil
			}
		}
		return exam.Value{}, exam.Invalid(exam.InvalidOption, "%q is not one of the options", s)

	case exam.TypeTrueFalse:
		if b, isBool := v.AsBool(); ok && isBool {
			return exam.Bool(b), nil
		}
		if s, isText := v.AsText(); ok && isText {
			switch s {
			case "true":
				return exam.Bool(true), nil
			case "false":
				return exam.Bool(false), nil
			}
		}
		return exam.Value{}, exam.Invalid(exam.InvalidBoolean, "answer must be true or false")

	case exam.TypeEssay:
		s, isText := v.AsText()
		if !ok || !isText || strings.TrimSpace(s) == "" {
			return exam.Value{}, exam.Invalid(exam.EmptyAnswer, "essay answer must not be empty")
		}
		return exam.Text(s), nil

	default:
		return exam.Value{}, exam.Invalid(exam.UnknownType, "%q", q.Type)
	}
}
