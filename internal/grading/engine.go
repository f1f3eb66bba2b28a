package grading

import (
	"github.com/mind-engage/mindengage-exams/internal/exam"
)

// Result is the outcome of grading a single validated answer.
type Result struct {
	IsCorrect   *bool // nil while an essay is ungraded
	Score       int
	NeedsReview bool
}

// Strategy grades a single question type.
type Strategy interface {
	Grade(q exam.Question, answer exam.Value) Result
}

// Grader routes by question type to the correct Strategy. Grading is pure:
// the same question and answer always produce the same Result.
type Grader interface {
	Grade(q exam.Question, answer exam.Value) Result
}

type defaultGrader struct {
	strategies map[exam.QuestionType]Strategy
}

func (g *defaultGrader) Grade(q exam.Question, answer exam.Value) Result {
	s, ok := g.strategies[q.Type]
	if !ok {
		return failClosed()
	}
	return s.Grade(q, answer)
}

// Option configures the default grader.
type Option func(*config)

type config struct {
	strategies map[exam.QuestionType]Strategy
}

// WithStrategy installs or replaces the strategy for a question type.
func WithStrategy(t exam.QuestionType, s Strategy) Option {
	return func(c *config) { c.strategies[t] = s }
}

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) Grader {
	cfg := &config{
		strategies: map[exam.QuestionType]Strategy{
			exam.TypeMultipleChoice: exactMatchStrategy{},
			exam.TypeTrueFalse:      exactMatchStrategy{},
			exam.TypeEssay:          essayStrategy{},
		},
	}
	for _, o := range opts {
		o(cfg)
	}
	return &defaultGrader{strategies: cfg.strategies}
}

// --- Strategies ---

// exactMatchStrategy compares string to string and bool to bool. A missing
// answer key awards nothing.
type exactMatchStrategy struct{}

func (exactMatchStrategy) Grade(q exam.Question, answer exam.Value) Result {
	if q.CorrectAnswer.IsNull() {
		return failClosed()
	}
	correct := answer.Equal(q.CorrectAnswer)
	res := Result{IsCorrect: exam.BoolPtr(correct)}
	if correct {
		res.Score = q.Points
	}
	return res
}

// essayStrategy defers: score stays 0 until an instructor completes a review.
type essayStrategy struct{}

func (essayStrategy) Grade(exam.Question, exam.Value) Result {
	return Result{IsCorrect: nil, Score: 0, NeedsReview: false}
}

func failClosed() Result {
	return Result{IsCorrect: exam.BoolPtr(false), Score: 0}
}

// ReviewScore is the score an accepted or rejected essay earns.
func ReviewScore(q exam.Question, accepted bool) int {
	if accepted {
		return q.Points
	}
	return 0
}
