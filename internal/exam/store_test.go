package exam

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mind-engage/mindengage-exams/internal/db"
)

func openSQLStore(t *testing.T) Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", name)
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return NewSQLStore(conn, string(db.DriverSQLite))
}

// Both stores must behave the same; every case runs against each.
func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewInMemoryStore()) })
	t.Run("sqlite", func(t *testing.T) { fn(t, openSQLStore(t)) })
}

var t0 = time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)

type seed struct {
	exam    Exam
	mc, ess Question
	attempt Attempt
}

func seedStore(t *testing.T, s Store) seed {
	t.Helper()
	ctx := context.Background()
	ex, err := s.CreateExam(ctx, Exam{
		ID: "exam-1", Title: "Algebra", Subject: "math", Duration: 45, CreatedBy: "t1",
		Status: ExamActive, ShowResults: true, AllowReview: true, AccessCode: "ABC234",
		CreatedAt: t0, UpdatedAt: t0,
	})
	if err != nil {
		t.Fatalf("create exam: %v", err)
	}
	mc, err := s.CreateQuestion(ctx, Question{
		ID: "q-mc", ExamID: ex.ID, Type: TypeMultipleChoice, Content: "2+2?", Points: 2, Order: 1,
		Options: []string{"3", "4"}, CorrectAnswer: Text("4"),
	})
	if err != nil {
		t.Fatalf("create mc: %v", err)
	}
	ess, err := s.CreateQuestion(ctx, Question{
		ID: "q-essay", ExamID: ex.ID, Type: TypeEssay, Content: "Explain.", Points: 4, Order: 2,
		AcceptedAnswers: []string{"distributive law"},
	})
	if err != nil {
		t.Fatalf("create essay: %v", err)
	}
	att, err := s.CreateAttempt(ctx, Attempt{
		ID: "att-1", ExamID: ex.ID, UserID: "s1", Status: AttemptInProgress, StartTime: t0,
	})
	if err != nil {
		t.Fatalf("create attempt: %v", err)
	}
	return seed{exam: ex, mc: mc, ess: ess, attempt: att}
}

func TestStoreExamRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sd := seedStore(t, s)

		got, err := s.GetExamByAccessCode(ctx, "ABC234")
		if err != nil {
			t.Fatal(err)
		}
		if got.ID != sd.exam.ID || !got.CreatedAt.Equal(t0) || got.Status != ExamActive || !got.AllowReview {
			t.Fatalf("by code: %+v", got)
		}
		if _, err := s.GetExamByAccessCode(ctx, "NOPE22"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("unknown code: %v", err)
		}

		_, err = s.CreateExam(ctx, Exam{ID: "exam-2", Title: "x", Duration: 1, CreatedBy: "t1", Status: ExamDraft,
			AccessCode: "ABC234", CreatedAt: t0, UpdatedAt: t0})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("duplicate code: want ErrConflict, got %v", err)
		}

		upd := got
		upd.Title = "Algebra II"
		upd.AccessCode = "ZZZZZZ"
		upd.UpdatedAt = t0.Add(time.Hour)
		out, err := s.UpdateExam(ctx, upd)
		if err != nil {
			t.Fatal(err)
		}
		if out.Title != "Algebra II" || out.AccessCode != "ABC234" {
			t.Fatalf("update: %+v", out)
		}
	})
}

func TestStoreQuestionsKeepShape(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sd := seedStore(t, s)

		qs, err := s.ListQuestions(ctx, sd.exam.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(qs) != 2 || qs[0].ID != "q-mc" || qs[1].ID != "q-essay" {
			t.Fatalf("order: %+v", qs)
		}
		if !qs[0].CorrectAnswer.Equal(Text("4")) || len(qs[0].Options) != 2 {
			t.Fatalf("mc: %+v", qs[0])
		}
		if !qs[1].CorrectAnswer.IsNull() || qs[1].AcceptedAnswers[0] != "distributive law" {
			t.Fatalf("essay: %+v", qs[1])
		}

		_, err = s.CreateQuestion(ctx, Question{ID: "q-dup", ExamID: sd.exam.ID, Type: TypeTrueFalse,
			Content: "dup", Points: 1, Order: 1, CorrectAnswer: Bool(false)})
		if !errors.Is(err, ErrConflict) {
			t.Fatalf("duplicate order: %v", err)
		}
	})
}

func TestStoreInsertAnswerAddsScore(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sd := seedStore(t, s)

		ans, att, err := s.InsertAnswer(ctx, UserAnswer{
			ID: "a1", AttemptID: sd.attempt.ID, QuestionID: sd.mc.ID, Answer: Text("4"),
			IsCorrect: BoolPtr(true), Score: IntPtr(2),
		}, 2)
		if err != nil {
			t.Fatal(err)
		}
		if att.ScoreValue() != 2 || !ans.Answer.Equal(Text("4")) || *ans.IsCorrect != true {
			t.Fatalf("insert: %+v %+v", ans, att)
		}

		_, _, err = s.InsertAnswer(ctx, UserAnswer{
			ID: "a1b", AttemptID: sd.attempt.ID, QuestionID: sd.mc.ID, Answer: Text("3"),
			IsCorrect: BoolPtr(false), Score: IntPtr(0),
		}, 0)
		if !errors.Is(err, ErrAlreadyAnswered) {
			t.Fatalf("second answer: want ErrAlreadyAnswered, got %v", err)
		}
		if cur, _ := s.GetAttempt(ctx, sd.attempt.ID); cur.ScoreValue() != 2 {
			t.Fatalf("failed insert changed score to %d", cur.ScoreValue())
		}

		essay, _, err := s.InsertAnswer(ctx, UserAnswer{
			ID: "a2", AttemptID: sd.attempt.ID, QuestionID: sd.ess.ID, Answer: Text("by expanding"), Score: IntPtr(0),
		}, 0)
		if err != nil {
			t.Fatal(err)
		}
		if essay.IsCorrect != nil || essay.ReviewComment != nil {
			t.Fatalf("essay nulls lost: %+v", essay)
		}
	})
}

func TestStoreCountAnswersForQuestion(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sd := seedStore(t, s)

		if n, err := s.CountAnswersForQuestion(ctx, sd.mc.ID); err != nil || n != 0 {
			t.Fatalf("before insert: n=%d err=%v", n, err)
		}
		if _, _, err := s.InsertAnswer(ctx, UserAnswer{
			ID: "a1", AttemptID: sd.attempt.ID, QuestionID: sd.mc.ID, Answer: Text("4"),
			IsCorrect: BoolPtr(true), Score: IntPtr(2),
		}, 2); err != nil {
			t.Fatal(err)
		}
		if n, _ := s.CountAnswersForQuestion(ctx, sd.mc.ID); n != 1 {
			t.Fatalf("mc answers = %d, want 1", n)
		}
		if n, _ := s.CountAnswersForQuestion(ctx, sd.ess.ID); n != 0 {
			t.Fatalf("essay answers = %d, want 0", n)
		}
	})
}

func TestStoreCompleteAttempt(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sd := seedStore(t, s)

		end := t0.Add(20 * time.Minute)
		done := sd.attempt
		done.Status = AttemptCompleted
		done.EndTime = &end
		done.MaxScore = IntPtr(6)
		out, err := s.CompleteAttempt(ctx, done)
		if err != nil {
			t.Fatal(err)
		}
		if out.Status != AttemptCompleted || out.Score == nil || *out.Score != 0 || *out.MaxScore != 6 || !out.EndTime.Equal(end) {
			t.Fatalf("complete: %+v", out)
		}
		if _, err := s.CompleteAttempt(ctx, done); !errors.Is(err, ErrAttemptClosed) {
			t.Fatalf("second complete: want ErrAttemptClosed, got %v", err)
		}
		_, _, err = s.InsertAnswer(ctx, UserAnswer{ID: "late", AttemptID: sd.attempt.ID, QuestionID: sd.mc.ID,
			Answer: Text("4"), IsCorrect: BoolPtr(true), Score: IntPtr(2)}, 2)
		if !errors.Is(err, ErrAttemptClosed) {
			t.Fatalf("answer after completion: want ErrAttemptClosed, got %v", err)
		}
	})
}

func TestStoreReviewLifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sd := seedStore(t, s)
		ans, _, err := s.InsertAnswer(ctx, UserAnswer{
			ID: "a2", AttemptID: sd.attempt.ID, QuestionID: sd.ess.ID, Answer: Text("distributive"), Score: IntPtr(0),
		}, 0)
		if err != nil {
			t.Fatal(err)
		}

		ans.ReviewRequested = true
		if ans, err = s.SaveReviewRequest(ctx, ans); err != nil || !ans.ReviewRequested {
			t.Fatalf("request: %+v %v", ans, err)
		}
		items, err := s.ListReviewRequests(ctx, "t1", 10)
		if err != nil || len(items) != 1 || items[0].UserID != "s1" || items[0].Question.ID != sd.ess.ID {
			t.Fatalf("queue: %+v %v", items, err)
		}
		if other, _ := s.ListReviewRequests(ctx, "t2", 10); len(other) != 0 {
			t.Fatalf("foreign queue: %+v", other)
		}

		comment := "fine"
		ans.Reviewed, ans.IsCorrect, ans.Score, ans.ReviewComment = true, BoolPtr(true), IntPtr(4), &comment
		saved, att, err := s.SaveReview(ctx, ans, 4)
		if err != nil {
			t.Fatal(err)
		}
		if !saved.Reviewed || *saved.ReviewComment != "fine" || att.ScoreValue() != 4 {
			t.Fatalf("review: %+v %+v", saved, att)
		}
		if _, _, err := s.SaveReview(ctx, ans, 4); !errors.Is(err, ErrReviewNotAllowed) {
			t.Fatalf("second review: want ErrReviewNotAllowed, got %v", err)
		}
		if cur, _ := s.GetAttempt(ctx, sd.attempt.ID); cur.ScoreValue() != 4 {
			t.Fatalf("score after rejected review = %d", cur.ScoreValue())
		}
		if items, _ := s.ListReviewRequests(ctx, "t1", 10); len(items) != 0 {
			t.Fatalf("reviewed answer still queued")
		}
	})
}

func TestStoreStatsAndDelete(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sd := seedStore(t, s)
		if _, err := s.CreateAttempt(ctx, Attempt{ID: "att-2", ExamID: sd.exam.ID, UserID: "s2",
			Status: AttemptInProgress, StartTime: t0}); err != nil {
			t.Fatal(err)
		}
		end := t0.Add(time.Minute)
		if _, err := s.CompleteAttempt(ctx, Attempt{ID: "att-2", Status: AttemptCompleted, EndTime: &end, MaxScore: IntPtr(6)}); err != nil {
			t.Fatal(err)
		}

		st, err := s.Stats(ctx, "t1")
		if err != nil {
			t.Fatal(err)
		}
		if st != (Stats{ExamCount: 1, StudentCount: 2, CompletedCount: 1, PendingCount: 1}) {
			t.Fatalf("stats: %+v", st)
		}

		if err := s.DeleteExam(ctx, sd.exam.ID); err != nil {
			t.Fatal(err)
		}
		if _, err := s.GetAttempt(ctx, "att-2"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("attempt survived: %v", err)
		}
		if qs, _ := s.ListQuestions(ctx, sd.exam.ID); len(qs) != 0 {
			t.Fatalf("questions survived: %d", len(qs))
		}
		if err := s.DeleteExam(ctx, sd.exam.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("second delete: %v", err)
		}
	})
}

func TestStoreConcurrentInsertsSumScores(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		sd := seedStore(t, s)
		const n = 12
		for i := 0; i < n; i++ {
			if _, err := s.CreateQuestion(ctx, Question{ID: fmt.Sprintf("tf-%d", i), ExamID: sd.exam.ID,
				Type: TypeTrueFalse, Content: "s", Points: 1, Order: 10 + i, CorrectAnswer: Bool(true)}); err != nil {
				t.Fatal(err)
			}
		}
		var g errgroup.Group
		for i := 0; i < n; i++ {
			i := i
			g.Go(func() error {
				_, _, err := s.InsertAnswer(ctx, UserAnswer{ID: fmt.Sprintf("ans-%d", i), AttemptID: sd.attempt.ID,
					QuestionID: fmt.Sprintf("tf-%d", i), Answer: Bool(true), IsCorrect: BoolPtr(true), Score: IntPtr(1)}, 1)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			t.Fatal(err)
		}
		if cur, _ := s.GetAttempt(ctx, sd.attempt.ID); cur.ScoreValue() != n {
			t.Fatalf("score = %d, want %d", cur.ScoreValue(), n)
		}
	})
}
