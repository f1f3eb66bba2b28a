package exam

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
)

type SQLStore struct {
	db     *sql.DB
	driver string // "sqlite" or "postgres"
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

type rowScanner interface {
	Scan(dest ...any) error
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const (
	examCols = `e.id,e.title,e.description,e.subject,e.grade,e.duration,e.created_by,e.status,
		e.shuffle_questions,e.show_results,e.show_correct_answers,e.allow_review,e.exam_date,e.access_code,e.created_at,e.updated_at`
	questionCols = `q.id,q.exam_id,q.type,q.content,q.points,q.ord,q.options_json,q.correct_answer,q.accepted_answers_json`
	attemptCols  = `a.id,a.exam_id,a.user_id,a.status,a.start_time,a.end_time,a.score,a.max_score`
	answerCols   = `ua.id,ua.attempt_id,ua.question_id,ua.answer,ua.is_correct,ua.score,ua.reviewed,ua.review_requested,ua.review_comment`
)

// ---- exams ----

func (s *SQLStore) CreateExam(ctx context.Context, e Exam) (Exam, error) {
	_, err := s.db.ExecContext(ctx, `INSERT INTO exams
		(id,title,description,subject,grade,duration,created_by,status,shuffle_questions,show_results,show_correct_answers,allow_review,exam_date,access_code,created_at,updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		e.ID, e.Title, e.Description, e.Subject, e.Grade, e.Duration, e.CreatedBy, string(e.Status),
		e.ShuffleQuestions, e.ShowResults, e.ShowCorrectAnswers, e.AllowReview, unixOrNull(e.ExamDate),
		e.AccessCode, e.CreatedAt.Unix(), e.UpdatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return Exam{}, fmt.Errorf("create exam: %w", ErrConflict)
		}
		return Exam{}, err
	}
	return s.GetExam(ctx, e.ID)
}

func (s *SQLStore) GetExam(ctx context.Context, id string) (Exam, error) {
	return getExam(ctx, s.db, `SELECT `+examCols+` FROM exams e WHERE e.id=$1`, id)
}

func (s *SQLStore) GetExamByAccessCode(ctx context.Context, code string) (Exam, error) {
	e, err := getExam(ctx, s.db, `SELECT `+examCols+` FROM exams e WHERE e.access_code=$1`, code)
	if errors.Is(err, ErrNotFound) {
		return Exam{}, notFound("exam with access code", code)
	}
	return e, err
}

func getExam(ctx context.Context, q queryer, query string, arg string) (Exam, error) {
	e, err := scanExam(q.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Exam{}, notFound("exam", arg)
		}
		return Exam{}, err
	}
	return e, nil
}

func (s *SQLStore) UpdateExam(ctx context.Context, e Exam) (Exam, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE exams SET
		title=$1, description=$2, subject=$3, grade=$4, duration=$5, status=$6,
		shuffle_questions=$7, show_results=$8, show_correct_answers=$9, allow_review=$10,
		exam_date=$11, updated_at=$12
		WHERE id=$13`,
		e.Title, e.Description, e.Subject, e.Grade, e.Duration, string(e.Status),
		e.ShuffleQuestions, e.ShowResults, e.ShowCorrectAnswers, e.AllowReview,
		unixOrNull(e.ExamDate), e.UpdatedAt.Unix(), e.ID)
	if err != nil {
		return Exam{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Exam{}, notFound("exam", e.ID)
	}
	return s.GetExam(ctx, e.ID)
}

func (s *SQLStore) DeleteExam(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	stmts := []string{
		`DELETE FROM user_answers WHERE attempt_id IN (SELECT id FROM exam_attempts WHERE exam_id=$1)`,
		`DELETE FROM exam_attempts WHERE exam_id=$1`,
		`DELETE FROM questions WHERE exam_id=$1`,
	}
	for _, q := range stmts {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM exams WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("exam", id)
	}
	return tx.Commit()
}

func (s *SQLStore) ListExamsByOwner(ctx context.Context, ownerID string) ([]Exam, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+examCols+` FROM exams e WHERE e.created_by=$1 ORDER BY e.created_at DESC, e.id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Exam, 0, 8)
	for rows.Next() {
		e, err := scanExam(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ---- questions ----

func (s *SQLStore) CreateQuestion(ctx context.Context, q Question) (Question, error) {
	opts, correct, accepted, err := encodeQuestion(q)
	if err != nil {
		return Question{}, err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO questions
		(id,exam_id,type,content,points,ord,options_json,correct_answer,accepted_answers_json)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		q.ID, q.ExamID, string(q.Type), q.Content, q.Points, q.Order, opts, correct, accepted)
	if err != nil {
		if isUniqueViolation(err) {
			return Question{}, fmt.Errorf("create question: order %d: %w", q.Order, ErrConflict)
		}
		return Question{}, err
	}
	return s.GetQuestion(ctx, q.ID)
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	q, err := scanQuestion(s.db.QueryRowContext(ctx, `SELECT `+questionCols+` FROM questions q WHERE q.id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, notFound("question", id)
		}
		return Question{}, err
	}
	return q, nil
}

func (s *SQLStore) UpdateQuestion(ctx context.Context, q Question) (Question, error) {
	opts, correct, accepted, err := encodeQuestion(q)
	if err != nil {
		return Question{}, err
	}
	res, err := s.db.ExecContext(ctx, `UPDATE questions SET
		type=$1, content=$2, points=$3, ord=$4, options_json=$5, correct_answer=$6, accepted_answers_json=$7
		WHERE id=$8`,
		string(q.Type), q.Content, q.Points, q.Order, opts, correct, accepted, q.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return Question{}, fmt.Errorf("update question: order %d: %w", q.Order, ErrConflict)
		}
		return Question{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return Question{}, notFound("question", q.ID)
	}
	return s.GetQuestion(ctx, q.ID)
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound("question", id)
	}
	return nil
}

func (s *SQLStore) ListQuestions(ctx context.Context, examID string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+questionCols+` FROM questions q WHERE q.exam_id=$1 ORDER BY q.ord`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Question, 0, 16)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// ---- attempts ----

func (s *SQLStore) CreateAttempt(ctx context.Context, a Attempt) (Attempt, error) {
	_, err := s.db.ExecContext(ctx, `INSERT INTO exam_attempts
		(id,exam_id,user_id,status,start_time,end_time,score,max_score)
		VALUES ($1,$2,$3,$4,$5,NULL,NULL,NULL)`,
		a.ID, a.ExamID, a.UserID, string(a.Status), a.StartTime.Unix())
	if err != nil {
		return Attempt{}, err
	}
	return s.GetAttempt(ctx, a.ID)
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	return getAttempt(ctx, s.db, id)
}

func getAttempt(ctx context.Context, q queryer, id string) (Attempt, error) {
	a, err := scanAttempt(q.QueryRowContext(ctx, `SELECT `+attemptCols+` FROM exam_attempts a WHERE a.id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, notFound("attempt", id)
		}
		return Attempt{}, err
	}
	return a, nil
}

func (s *SQLStore) ListAttemptsByExam(ctx context.Context, examID string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+attemptCols+` FROM exam_attempts a WHERE a.exam_id=$1 ORDER BY a.start_time DESC, a.id`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Attempt, 0, 16)
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) CompleteAttempt(ctx context.Context, a Attempt) (Attempt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Attempt{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `UPDATE exam_attempts
		SET status=$1, end_time=$2, max_score=$3, score=COALESCE(score,0)
		WHERE id=$4 AND status=$5`,
		string(AttemptCompleted), unixOrNull(a.EndTime), intOrNull(a.MaxScore), a.ID, string(AttemptInProgress))
	if err != nil {
		return Attempt{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := getAttempt(ctx, tx, a.ID); err != nil {
			return Attempt{}, err
		}
		return Attempt{}, ErrAttemptClosed
	}
	out, err := getAttempt(ctx, tx, a.ID)
	if err != nil {
		return Attempt{}, err
	}
	return out, tx.Commit()
}

// ---- answers ----

func (s *SQLStore) GetAnswer(ctx context.Context, id string) (UserAnswer, error) {
	return getAnswer(ctx, s.db, id)
}

func getAnswer(ctx context.Context, q queryer, id string) (UserAnswer, error) {
	ans, err := scanAnswer(q.QueryRowContext(ctx, `SELECT `+answerCols+` FROM user_answers ua WHERE ua.id=$1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return UserAnswer{}, notFound("answer", id)
		}
		return UserAnswer{}, err
	}
	return ans, nil
}

func (s *SQLStore) ListAnswers(ctx context.Context, attemptID string) ([]UserAnswer, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+answerCols+` FROM user_answers ua WHERE ua.attempt_id=$1 ORDER BY ua.created_at, ua.id`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]UserAnswer, 0, 16)
	for rows.Next() {
		ans, err := scanAnswer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ans)
	}
	return out, rows.Err()
}

func (s *SQLStore) CountAnswersForQuestion(ctx context.Context, questionID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_answers WHERE question_id=$1`, questionID).Scan(&n)
	return n, err
}

func (s *SQLStore) InsertAnswer(ctx context.Context, ans UserAnswer, scoreDelta int) (UserAnswer, Attempt, error) {
	answerJSON, err := json.Marshal(ans.Answer)
	if err != nil {
		return UserAnswer{}, Attempt{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UserAnswer{}, Attempt{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `UPDATE exam_attempts SET score=COALESCE(score,0)+$1 WHERE id=$2 AND status=$3`,
		scoreDelta, ans.AttemptID, string(AttemptInProgress))
	if err != nil {
		return UserAnswer{}, Attempt{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := getAttempt(ctx, tx, ans.AttemptID); err != nil {
			return UserAnswer{}, Attempt{}, err
		}
		return UserAnswer{}, Attempt{}, ErrAttemptClosed
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO user_answers
		(id,attempt_id,question_id,answer,is_correct,score,reviewed,review_requested,review_comment,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		ans.ID, ans.AttemptID, ans.QuestionID, string(answerJSON), boolOrNull(ans.IsCorrect), intOrNull(ans.Score),
		ans.Reviewed, ans.ReviewRequested, stringOrNull(ans.ReviewComment), time.Now().UnixNano())
	if err != nil {
		if isUniqueViolation(err) {
			return UserAnswer{}, Attempt{}, ErrAlreadyAnswered
		}
		return UserAnswer{}, Attempt{}, err
	}
	saved, err := getAnswer(ctx, tx, ans.ID)
	if err != nil {
		return UserAnswer{}, Attempt{}, err
	}
	a, err := getAttempt(ctx, tx, ans.AttemptID)
	if err != nil {
		return UserAnswer{}, Attempt{}, err
	}
	if err := tx.Commit(); err != nil {
		return UserAnswer{}, Attempt{}, err
	}
	return saved, a, nil
}

func (s *SQLStore) SaveReviewRequest(ctx context.Context, ans UserAnswer) (UserAnswer, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE user_answers SET review_requested=$1 WHERE id=$2`, ans.ReviewRequested, ans.ID)
	if err != nil {
		return UserAnswer{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return UserAnswer{}, notFound("answer", ans.ID)
	}
	return s.GetAnswer(ctx, ans.ID)
}

func (s *SQLStore) SaveReview(ctx context.Context, ans UserAnswer, scoreDelta int) (UserAnswer, Attempt, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return UserAnswer{}, Attempt{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `UPDATE user_answers
		SET reviewed=$1, is_correct=$2, score=$3, review_comment=$4
		WHERE id=$5 AND reviewed=$6`,
		ans.Reviewed, boolOrNull(ans.IsCorrect), intOrNull(ans.Score), stringOrNull(ans.ReviewComment), ans.ID, false)
	if err != nil {
		return UserAnswer{}, Attempt{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := getAnswer(ctx, tx, ans.ID); err != nil {
			return UserAnswer{}, Attempt{}, err
		}
		return UserAnswer{}, Attempt{}, ReviewNotAllowed(ReviewAlreadyFinished)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE exam_attempts SET score=COALESCE(score,0)+$1 WHERE id=$2`,
		scoreDelta, ans.AttemptID); err != nil {
		return UserAnswer{}, Attempt{}, err
	}
	saved, err := getAnswer(ctx, tx, ans.ID)
	if err != nil {
		return UserAnswer{}, Attempt{}, err
	}
	a, err := getAttempt(ctx, tx, saved.AttemptID)
	if err != nil {
		return UserAnswer{}, Attempt{}, err
	}
	if err := tx.Commit(); err != nil {
		return UserAnswer{}, Attempt{}, err
	}
	return saved, a, nil
}

// ---- dashboards ----

func (s *SQLStore) ListReviewRequests(ctx context.Context, ownerID string, limit int) ([]ReviewRequest, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+answerCols+`,`+questionCols+`,`+examCols+`, a.user_id
		FROM user_answers ua
		JOIN questions q ON ua.question_id = q.id
		JOIN exam_attempts a ON ua.attempt_id = a.id
		JOIN exams e ON q.exam_id = e.id
		WHERE e.created_by=$1 AND ua.review_requested=$2 AND ua.reviewed=$3
		ORDER BY ua.created_at DESC, ua.id DESC
		LIMIT $4`, ownerID, true, false, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]ReviewRequest, 0, limit)
	for rows.Next() {
		var (
			rr   ReviewRequest
			ar   answerRow
			qr   questionRow
			er   examRow
			user string
		)
		dest := append(append(append(ar.dest(), qr.dest()...), er.dest()...), &user)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		if rr.Answer, err = ar.answer(); err != nil {
			return nil, err
		}
		if rr.Question, err = qr.question(); err != nil {
			return nil, err
		}
		rr.Exam = er.exam()
		rr.UserID = user
		out = append(out, rr)
	}
	return out, rows.Err()
}

func (s *SQLStore) Stats(ctx context.Context, ownerID string) (Stats, error) {
	var st Stats
	queries := []struct {
		q    string
		args []any
		dst  *int
	}{
		{`SELECT COUNT(*) FROM exams WHERE created_by=$1`, []any{ownerID}, &st.ExamCount},
		{`SELECT COUNT(DISTINCT a.user_id) FROM exam_attempts a JOIN exams e ON a.exam_id=e.id WHERE e.created_by=$1`, []any{ownerID}, &st.StudentCount},
		{`SELECT COUNT(*) FROM exam_attempts a JOIN exams e ON a.exam_id=e.id WHERE e.created_by=$1 AND a.status=$2`, []any{ownerID, string(AttemptCompleted)}, &st.CompletedCount},
		{`SELECT COUNT(*) FROM exam_attempts a JOIN exams e ON a.exam_id=e.id WHERE e.created_by=$1 AND a.status=$2`, []any{ownerID, string(AttemptInProgress)}, &st.PendingCount},
	}
	for _, x := range queries {
		if err := s.db.QueryRowContext(ctx, x.q, x.args...).Scan(x.dst); err != nil {
			return Stats{}, err
		}
	}
	return st, nil
}

// ---- row mapping ----

type examRow struct {
	e                        Exam
	status                   string
	examDate                 sql.NullInt64
	createdAt, updatedAt     int64
	description, subj, grade sql.NullString
}

func (r *examRow) dest() []any {
	return []any{&r.e.ID, &r.e.Title, &r.description, &r.subj, &r.grade, &r.e.Duration, &r.e.CreatedBy, &r.status,
		&r.e.ShuffleQuestions, &r.e.ShowResults, &r.e.ShowCorrectAnswers, &r.e.AllowReview, &r.examDate,
		&r.e.AccessCode, &r.createdAt, &r.updatedAt}
}

func (r *examRow) exam() Exam {
	e := r.e
	e.Status = ExamStatus(r.status)
	e.Description, e.Subject, e.Grade = r.description.String, r.subj.String, r.grade.String
	if r.examDate.Valid {
		t := time.Unix(r.examDate.Int64, 0).UTC()
		e.ExamDate = &t
	}
	e.CreatedAt = time.Unix(r.createdAt, 0).UTC()
	e.UpdatedAt = time.Unix(r.updatedAt, 0).UTC()
	return e
}

func scanExam(sc rowScanner) (Exam, error) {
	var r examRow
	if err := sc.Scan(r.dest()...); err != nil {
		return Exam{}, err
	}
	return r.exam(), nil
}

type questionRow struct {
	q                       Question
	typ                     string
	opts, correct, accepted sql.NullString
}

func (r *questionRow) dest() []any {
	return []any{&r.q.ID, &r.q.ExamID, &r.typ, &r.q.Content, &r.q.Points, &r.q.Order, &r.opts, &r.correct, &r.accepted}
}

func (r *questionRow) question() (Question, error) {
	q := r.q
	q.Type = QuestionType(r.typ)
	if r.opts.Valid && r.opts.String != "" {
		if err := json.Unmarshal([]byte(r.opts.String), &q.Options); err != nil {
			return Question{}, fmt.Errorf("question %s options: %w", q.ID, err)
		}
	}
	if r.correct.Valid && r.correct.String != "" {
		if err := json.Unmarshal([]byte(r.correct.String), &q.CorrectAnswer); err != nil {
			return Question{}, fmt.Errorf("question %s correct answer: %w", q.ID, err)
		}
	}
	if r.accepted.Valid && r.accepted.String != "" {
		if err := json.Unmarshal([]byte(r.accepted.String), &q.AcceptedAnswers); err != nil {
			return Question{}, fmt.Errorf("question %s accepted answers: %w", q.ID, err)
		}
	}
	return q, nil
}

func scanQuestion(sc rowScanner) (Question, error) {
	var r questionRow
	if err := sc.Scan(r.dest()...); err != nil {
		return Question{}, err
	}
	return r.question()
}

func encodeQuestion(q Question) (opts, correct, accepted any, err error) {
	if len(q.Options) > 0 {
		b, err := json.Marshal(q.Options)
		if err != nil {
			return nil, nil, nil, err
		}
		opts = string(b)
	}
	b, err := json.Marshal(q.CorrectAnswer)
	if err != nil {
		return nil, nil, nil, err
	}
	correct = string(b)
	if len(q.AcceptedAnswers) > 0 {
		b, err := json.Marshal(q.AcceptedAnswers)
		if err != nil {
			return nil, nil, nil, err
		}
		accepted = string(b)
	}
	return opts, correct, accepted, nil
}

func scanAttempt(sc rowScanner) (Attempt, error) {
	var (
		a               Attempt
		status          string
		start           int64
		end             sql.NullInt64
		score, maxScore sql.NullInt64
	)
	if err := sc.Scan(&a.ID, &a.ExamID, &a.UserID, &status, &start, &end, &score, &maxScore); err != nil {
		return Attempt{}, err
	}
	a.Status = AttemptStatus(status)
	a.StartTime = time.Unix(start, 0).UTC()
	if end.Valid {
		t := time.Unix(end.Int64, 0).UTC()
		a.EndTime = &t
	}
	if score.Valid {
		a.Score = IntPtr(int(score.Int64))
	}
	if maxScore.Valid {
		a.MaxScore = IntPtr(int(maxScore.Int64))
	}
	return a, nil
}

type answerRow struct {
	u         UserAnswer
	raw       sql.NullString
	isCorrect sql.NullBool
	score     sql.NullInt64
	comment   sql.NullString
}

func (r *answerRow) dest() []any {
	return []any{&r.u.ID, &r.u.AttemptID, &r.u.QuestionID, &r.raw, &r.isCorrect, &r.score,
		&r.u.Reviewed, &r.u.ReviewRequested, &r.comment}
}

func (r *answerRow) answer() (UserAnswer, error) {
	u := r.u
	if r.raw.Valid && r.raw.String != "" {
		if err := json.Unmarshal([]byte(r.raw.String), &u.Answer); err != nil {
			return UserAnswer{}, fmt.Errorf("answer %s: %w", u.ID, err)
		}
	}
	if r.isCorrect.Valid {
		u.IsCorrect = BoolPtr(r.isCorrect.Bool)
	}
	if r.score.Valid {
		u.Score = IntPtr(int(r.score.Int64))
	}
	if r.comment.Valid {
		c := r.comment.String
		u.ReviewComment = &c
	}
	return u, nil
}

func scanAnswer(sc rowScanner) (UserAnswer, error) {
	var r answerRow
	if err := sc.Scan(r.dest()...); err != nil {
		return UserAnswer{}, err
	}
	return r.answer()
}

// ---- helpers ----

func unixOrNull(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Unix()
}

func intOrNull(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func boolOrNull(v *bool) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringOrNull(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") || // sqlite
		strings.Contains(msg, "constraint failed: unique")
}
