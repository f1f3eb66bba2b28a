package grading

import (
	"errors"
	"testing"

	"github.com/mind-engage/mindengage-exams/internal/exam"
)

func mcq() exam.Question {
	return exam.Question{
		ID: "q-mc", Type: exam.TypeMultipleChoice, Content: "pick", Points: 2,
		Options: []string{"A", "B", "C", "D"}, CorrectAnswer: exam.Text("B"),
	}
}

func tf() exam.Question {
	return exam.Question{ID: "q-tf", Type: exam.TypeTrueFalse, Content: "yes?", Points: 1, CorrectAnswer: exam.Bool(true)}
}

func essay() exam.Question {
	return exam.Question{ID: "q-es", Type: exam.TypeEssay, Content: "explain", Points: 5, AcceptedAnswers: []string{"photosynthesis"}}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		q      exam.Question
		raw    interface{}
		want   exam.Value
		reason exam.ValidationReason
	}{
		{name: "mc option", q: mcq(), raw: "B", want: exam.Text("B")},
		{name: "mc not an option", q: mcq(), raw: "E", reason: exam.InvalidOption},
		{name: "mc case differs", q: mcq(), raw: "b", reason: exam.InvalidOption},
		{name: "mc bool", q: mcq(), raw: true, reason: exam.InvalidOption},
		{name: "mc nil", q: mcq(), raw: nil, reason: exam.InvalidOption},
		{name: "tf bool", q: tf(), raw: false, want: exam.Bool(false)},
		{name: "tf literal true", q: tf(), raw: "true", want: exam.Bool(true)},
		{name: "tf literal false", q: tf(), raw: "false", want: exam.Bool(false)},
		{name: "tf other string", q: tf(), raw: "yes", reason: exam.InvalidBoolean},
		{name: "tf number", q: tf(), raw: float64(1), reason: exam.InvalidBoolean},
		{name: "essay text", q: essay(), raw: "  light to sugar ", want: exam.Text("  light to sugar ")},
		{name: "essay blank", q: essay(), raw: "   ", reason: exam.EmptyAnswer},
		{name: "essay bool", q: essay(), raw: true, reason: exam.EmptyAnswer},
		{name: "unknown type", q: exam.Question{Type: "matching"}, raw: "x", reason: exam.UnknownType},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Validate(tc.q, tc.raw)
			if tc.reason != "" {
				var ve *exam.ValidationError
				if !errors.As(err, &ve) {
					t.Fatalf("want ValidationError(%s), got %v", tc.reason, err)
				}
				if ve.Reason != tc.reason {
					t.Fatalf("reason = %s, want %s", ve.Reason, tc.reason)
				}
				if !errors.Is(err, exam.ErrValidation) {
					t.Fatalf("errors.Is(err, ErrValidation) = false")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGrade(t *testing.T) {
	g := NewDefaultGrader()
	noKey := mcq()
	noKey.CorrectAnswer = exam.Null()

	tests := []struct {
		name      string
		q         exam.Question
		answer    exam.Value
		isCorrect *bool
		score     int
	}{
		{name: "mc correct", q: mcq(), answer: exam.Text("B"), isCorrect: exam.BoolPtr(true), score: 2},
		{name: "mc wrong", q: mcq(), answer: exam.Text("C"), isCorrect: exam.BoolPtr(false), score: 0},
		{name: "tf wrong", q: tf(), answer: exam.Bool(false), isCorrect: exam.BoolPtr(false), score: 0},
		{name: "tf correct", q: tf(), answer: exam.Bool(true), isCorrect: exam.BoolPtr(true), score: 1},
		{name: "tf string never equals bool", q: tf(), answer: exam.Text("true"), isCorrect: exam.BoolPtr(false), score: 0},
		{name: "essay deferred", q: essay(), answer: exam.Text("anything"), isCorrect: nil, score: 0},
		{name: "missing key fails closed", q: noKey, answer: exam.Text("B"), isCorrect: exam.BoolPtr(false), score: 0},
		{name: "unknown type fails closed", q: exam.Question{Type: "matching", Points: 3}, answer: exam.Text("x"), isCorrect: exam.BoolPtr(false), score: 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := g.Grade(tc.q, tc.answer)
			if got.NeedsReview {
				t.Fatalf("NeedsReview = true, want false")
			}
			if got.Score != tc.score {
				t.Fatalf("score = %d, want %d", got.Score, tc.score)
			}
			switch {
			case tc.isCorrect == nil && got.IsCorrect != nil:
				t.Fatalf("isCorrect = %v, want nil", *got.IsCorrect)
			case tc.isCorrect != nil && (got.IsCorrect == nil || *got.IsCorrect != *tc.isCorrect):
				t.Fatalf("isCorrect = %v, want %v", got.IsCorrect, *tc.isCorrect)
			}

			again := g.Grade(tc.q, tc.answer)
			if again.Score != got.Score || again.NeedsReview != got.NeedsReview ||
				(again.IsCorrect == nil) != (got.IsCorrect == nil) ||
				(again.IsCorrect != nil && *again.IsCorrect != *got.IsCorrect) {
				t.Fatalf("grading is not idempotent: %+v vs %+v", got, again)
			}
		})
	}
}

type fixedStrategy struct{ score int }

func (f fixedStrategy) Grade(exam.Question, exam.Value) Result { return Result{Score: f.score} }

func TestWithStrategyOverrides(t *testing.T) {
	g := NewDefaultGrader(WithStrategy(exam.TypeEssay, fixedStrategy{score: 7}))
	if got := g.Grade(essay(), exam.Text("x")); got.Score != 7 {
		t.Fatalf("score = %d, want 7", got.Score)
	}
}

func TestNearestReference(t *testing.T) {
	best, d, ok := NearestReference("Photo-synthesis!", []string{"respiration", "photosynthesis"})
	if !ok || best != "photosynthesis" || d != 0 {
		t.Fatalf("got %q/%d/%v", best, d, ok)
	}
	best, d, ok = NearestReference("fotosynthesis", []string{"photosynthesis"})
	if !ok || best != "photosynthesis" || d != 2 {
		t.Fatalf("got %q/%d/%v", best, d, ok)
	}
	if _, _, ok := NearestReference("anything", nil); ok {
		t.Fatalf("expected no reference")
	}
	if _, _, ok := NearestReference("  ...  ", []string{"x"}); ok {
		t.Fatalf("expected no reference for punctuation-only response")
	}
}
