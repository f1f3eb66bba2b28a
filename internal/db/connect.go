package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:mindengage-exams.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/mindengage_exams?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// one writer at a time; transactions must not wait on each other's connections
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	if err := EnsureSchema(ctx, db, driver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	default:
		return fmt.Errorf("unsupported driver: %s", driver)
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'teacher',
  created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS exams (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT,
  subject TEXT,
  grade TEXT,
  duration INTEGER NOT NULL CHECK (duration > 0),
  created_by TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  shuffle_questions BOOLEAN NOT NULL DEFAULT 0,
  show_results BOOLEAN NOT NULL DEFAULT 1,
  show_correct_answers BOOLEAN NOT NULL DEFAULT 0,
  allow_review BOOLEAN NOT NULL DEFAULT 1,
  exam_date INTEGER,
  access_code TEXT NOT NULL UNIQUE,
  created_at INTEGER NOT NULL,
  updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exams_created_by ON exams(created_by);

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  exam_id TEXT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  type TEXT NOT NULL,
  content TEXT NOT NULL,
  points INTEGER NOT NULL DEFAULT 1 CHECK (points >= 1),
  ord INTEGER NOT NULL,
  options_json TEXT,
  correct_answer TEXT,
  accepted_answers_json TEXT,
  UNIQUE (exam_id, ord)
);

CREATE TABLE IF NOT EXISTS exam_attempts (
  id TEXT PRIMARY KEY,
  exam_id TEXT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'in-progress',
  start_time INTEGER NOT NULL,
  end_time INTEGER,
  score INTEGER,
  max_score INTEGER
);
CREATE INDEX IF NOT EXISTS idx_attempts_exam ON exam_attempts(exam_id);

CREATE TABLE IF NOT EXISTS user_answers (
  id TEXT PRIMARY KEY,
  attempt_id TEXT NOT NULL REFERENCES exam_attempts(id) ON DELETE CASCADE,
  question_id TEXT NOT NULL,
  answer TEXT,
  is_correct BOOLEAN,
  score INTEGER,
  reviewed BOOLEAN NOT NULL DEFAULT 0,
  review_requested BOOLEAN NOT NULL DEFAULT 0,
  review_comment TEXT,
  created_at INTEGER NOT NULL,
  UNIQUE (attempt_id, question_id)
);
CREATE INDEX IF NOT EXISTS idx_answers_question ON user_answers(question_id);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  role TEXT NOT NULL DEFAULT 'teacher',
  created_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS exams (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT,
  subject TEXT,
  grade TEXT,
  duration INTEGER NOT NULL CHECK (duration > 0),
  created_by TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'draft',
  shuffle_questions BOOLEAN NOT NULL DEFAULT FALSE,
  show_results BOOLEAN NOT NULL DEFAULT TRUE,
  show_correct_answers BOOLEAN NOT NULL DEFAULT FALSE,
  allow_review BOOLEAN NOT NULL DEFAULT TRUE,
  exam_date BIGINT,
  access_code TEXT NOT NULL UNIQUE,
  created_at BIGINT NOT NULL,
  updated_at BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_exams_created_by ON exams(created_by);

CREATE TABLE IF NOT EXISTS questions (
  id TEXT PRIMARY KEY,
  exam_id TEXT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  type TEXT NOT NULL,
  content TEXT NOT NULL,
  points INTEGER NOT NULL DEFAULT 1 CHECK (points >= 1),
  ord INTEGER NOT NULL,
  options_json TEXT,
  correct_answer TEXT,
  accepted_answers_json TEXT,
  UNIQUE (exam_id, ord)
);

CREATE TABLE IF NOT EXISTS exam_attempts (
  id TEXT PRIMARY KEY,
  exam_id TEXT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'in-progress',
  start_time BIGINT NOT NULL,
  end_time BIGINT,
  score INTEGER,
  max_score INTEGER
);
CREATE INDEX IF NOT EXISTS idx_attempts_exam ON exam_attempts(exam_id);

CREATE TABLE IF NOT EXISTS user_answers (
  id TEXT PRIMARY KEY,
  attempt_id TEXT NOT NULL REFERENCES exam_attempts(id) ON DELETE CASCADE,
  question_id TEXT NOT NULL,
  answer TEXT,
  is_correct BOOLEAN,
  score INTEGER,
  reviewed BOOLEAN NOT NULL DEFAULT FALSE,
  review_requested BOOLEAN NOT NULL DEFAULT FALSE,
  review_comment TEXT,
  created_at BIGINT NOT NULL,
  UNIQUE (attempt_id, question_id)
);
CREATE INDEX IF NOT EXISTS idx_answers_question ON user_answers(question_id);
`
