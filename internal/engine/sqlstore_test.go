package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"

	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindengage-exams/internal/db"
	"github.com/mind-engage/mindengage-exams/internal/exam"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", name)
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSQLStoreEssayReviewFlow(t *testing.T) {
	f := newFixtureWithStore(t, exam.NewSQLStore(openSQLite(t), string(db.DriverSQLite)))

	f.mustSubmit(f.attempt.ID, f.mc.ID, "B")
	ans := f.mustSubmit(f.attempt.ID, f.essay.ID, "Photosynthesis turns light into sugar.")
	done := f.mustComplete(f.attempt.ID)
	if done.ScoreValue() != 2 || *done.MaxScore != 8 {
		t.Fatalf("score/max = %d/%d, want 2/8", done.ScoreValue(), *done.MaxScore)
	}

	if _, err := f.eng.RequestReview(f.ctx, ans.ID, student); err != nil {
		t.Fatal(err)
	}
	items, err := f.eng.ListReviewRequests(f.ctx, teacher, 0)
	if err != nil || len(items) != 1 {
		t.Fatalf("review queue: %d %v", len(items), err)
	}
	if _, err := f.eng.CompleteReview(f.ctx, ans.ID, true, "good", teacher); err != nil {
		t.Fatal(err)
	}
	if got := f.score(f.attempt.ID); got != 7 {
		t.Fatalf("score after review = %d, want 7", got)
	}

	res, err := f.eng.GetAttempt(f.ctx, f.attempt.ID, student)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Answers) != 2 || res.Attempt.Status != exam.AttemptCompleted {
		t.Fatalf("result: %+v", res)
	}
}

func TestSQLStoreConcurrentSubmits(t *testing.T) {
	f := newFixtureWithStore(t, exam.NewSQLStore(openSQLite(t), string(db.DriverSQLite)))

	var g errgroup.Group
	for _, sub := range []struct {
		q   exam.Question
		raw interface{}
	}{
		{f.mc, "B"},
		{f.tf, true},
		{f.essay, "chlorophyll"},
	} {
		sub := sub
		g.Go(func() error {
			_, err := f.eng.SubmitAnswer(f.ctx, f.attempt.ID, sub.q.ID, sub.raw, student)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if got := f.score(f.attempt.ID); got != 3 {
		t.Fatalf("score = %d, want 3", got)
	}
}
