package engine

import (
	"context"
	"sort"

	"github.com/mind-engage/mindengage-exams/internal/exam"
	"github.com/mind-engage/mindengage-exams/internal/grading"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

const (
	defaultReviewLimit = 5
	defaultRecentExams = 3
	defaultRecentRes   = 4
)

// ListReviewRequests returns pending essay reviews on actor's exams, newest
// first. Each item carries the closest accepted answer as a hint.
func (e *Engine) ListReviewRequests(ctx context.Context, actor rbac.Actor, limit int) ([]exam.ReviewRequest, error) {
	if err := e.requireRole(actor, "answer:review"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultReviewLimit
	}
	items, err := e.store.ListReviewRequests(ctx, actor.ID, limit)
	if err != nil {
		return nil, err
	}
	for i := range items {
		text, _ := items[i].Answer.Answer.AsText()
		if ref, d, ok := grading.NearestReference(text, items[i].Question.AcceptedAnswers); ok {
			items[i].ReferenceAnswer, items[i].ReferenceDistance = ref, d
		}
	}
	return items, nil
}

func (e *Engine) DashboardStats(ctx context.Context, actor rbac.Actor) (exam.Stats, error) {
	if err := e.requireRole(actor, "dashboard:view"); err != nil {
		return exam.Stats{}, err
	}
	return e.store.Stats(ctx, actor.ID)
}

// RecentExams is the newest few of actor's exams.
func (e *Engine) RecentExams(ctx context.Context, actor rbac.Actor, limit int) ([]exam.Exam, error) {
	if err := e.requireRole(actor, "dashboard:view"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRecentExams
	}
	exams, err := e.store.ListExamsByOwner(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if len(exams) > limit {
		exams = exams[:limit]
	}
	return exams, nil
}

// RecentResult is one attempt on the instructor's exams.
type RecentResult struct {
	Attempt exam.Attempt `json:"attempt"`
	Exam    exam.Exam    `json:"exam"`
}

// RecentResults lists the latest attempts on actor's exams, newest start
// first.
func (e *Engine) RecentResults(ctx context.Context, actor rbac.Actor, limit int) ([]RecentResult, error) {
	if err := e.requireRole(actor, "dashboard:view"); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultRecentRes
	}
	exams, err := e.store.ListExamsByOwner(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	var out []RecentResult
	for _, ex := range exams {
		atts, err := e.store.ListAttemptsByExam(ctx, ex.ID)
		if err != nil {
			return nil, err
		}
		for _, a := range atts {
			out = append(out, RecentResult{Attempt: a, Exam: ex})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Attempt.StartTime.Equal(out[j].Attempt.StartTime) {
			return out[i].Attempt.StartTime.After(out[j].Attempt.StartTime)
		}
		return out[i].Attempt.ID > out[j].Attempt.ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
