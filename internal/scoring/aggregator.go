// Package scoring owns every change to an attempt's score and maxScore.
//
// The functions here are pure: they return the attempt as it must look after
// the change, and the caller persists the difference atomically. A result
// that would break 0 <= score <= maxScore is returned as *exam.InvariantError
// and must not be written.
package scoring

import (
	"fmt"
	"time"

	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/grading"
)

// RecordAnswer adds a freshly graded answer to an in-progress attempt.
// maxScore is left alone; it is fixed at completion.
func RecordAnswer(a exam.Attempt, graded grading.Result) (exam.Attempt, error) {
	if a.Status != exam.AttemptInProgress {
		return exam.Attempt{}, exam.ErrAttemptClosed
	}
	if graded.Score < 0 {
		return exam.Attempt{}, violation(a, a.ScoreValue()+graded.Score, "negative answer score %d", graded.Score)
	}
	out := a
	out.Score = exam.IntPtr(a.ScoreValue() + graded.Score)
	return out, Check(out)
}

// Complete closes an attempt. maxScore is the sum of points over every
// question of the exam at this moment, answered or not.
func Complete(a exam.Attempt, questions []exam.Question, now time.Time) (exam.Attempt, error) {
	if a.Status != exam.AttemptInProgress {
		return exam.Attempt{}, exam.ErrAttemptClosed
	}
	end := now
	out := a
	out.Status = exam.AttemptCompleted
	out.EndTime = &end
	out.Score = exam.IntPtr(a.ScoreValue())
	out.MaxScore = exam.IntPtr(exam.TotalPoints(questions))
	return out, Check(out)
}

// RecomputeOnReview applies newScore-oldScore for a reviewed essay.
func RecomputeOnReview(a exam.Attempt, oldScore, newScore int) (exam.Attempt, error) {
	out := a
	out.Score = exam.IntPtr(a.ScoreValue() + newScore - oldScore)
	return out, Check(out)
}

// Delta is the score difference between two versions of one attempt.
func Delta(before, after exam.Attempt) int {
	return after.ScoreValue() - before.ScoreValue()
}

// Check verifies the score bounds. The upper bound only applies once
// maxScore has been fixed.
func Check(a exam.Attempt) error {
	score := a.ScoreValue()
	if score < 0 {
		return violation(a, score, "score below zero")
	}
	if a.MaxScore != nil && score > *a.MaxScore {
		return violation(a, score, "score above maxScore")
	}
	return nil
}

func violation(a exam.Attempt, score int, format string, args ...interface{}) error {
	return &exam.InvariantError{
		AttemptID: a.ID,
		Score:     score,
		MaxScore:  a.MaxScore,
		Detail:    fmt.Sprintf(format, args...),
	}
}
