// Package auth keeps local user accounts: bcrypt password hashes in the
// users table, looked up by username at login.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

var (
	ErrUsernameTaken  = errors.New("username already exists")
	ErrEmailTaken     = errors.New("email already exists")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrUserNotFound   = errors.New("user not found")
	ErrInvalidRole    = errors.New("invalid role")
)

const bcryptCost = 12

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type Users struct {
	db   *sql.DB
	cost int
}

func NewUsers(db *sql.DB) *Users { return &Users{db: db, cost: bcryptCost} }

// Register creates a user with a hashed password. Role defaults to teacher.
func (u *Users) Register(ctx context.Context, in User, password string) (User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Role == "" {
		in.Role = rbac.RoleTeacher
	}
	if in.Role != rbac.RoleTeacher && in.Role != rbac.RoleStudent {
		return User{}, ErrInvalidRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), u.cost)
	if err != nil {
		return User{}, err
	}

	tx, err := u.db.BeginTx(ctx, nil)
	if err != nil {
		return User{}, err
	}
	defer tx.Rollback() //nolint:errcheck

	var one int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username=$1`, in.Username).Scan(&one)
	if err == nil {
		return User{}, ErrUsernameTaken
	} else if !errors.Is(err, sql.ErrNoRows) {
		return User{}, err
	}
	if in.Email != "" {
		err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email=$1`, in.Email).Scan(&one)
		if err == nil {
			return User{}, ErrEmailTaken
		} else if !errors.Is(err, sql.ErrNoRows) {
			return User{}, err
		}
	}

	in.ID = uuid.NewString()
	in.CreatedAt = time.Now().UTC().Truncate(time.Second)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, name, email, role, created_at) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		in.ID, in.Username, string(hash), in.Name, in.Email, in.Role, in.CreatedAt.Unix()); err != nil {
		return User{}, err
	}
	return in, tx.Commit()
}

// Authenticate checks a username/password pair. Unknown users and wrong
// passwords give the same error.
func (u *Users) Authenticate(ctx context.Context, username, password string) (User, error) {
	var (
		usr  User
		hash string
		ts   int64
	)
	err := u.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, name, email, role, created_at FROM users WHERE username=$1`,
		strings.TrimSpace(username)).Scan(&usr.ID, &usr.Username, &hash, &usr.Name, &usr.Email, &usr.Role, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrBadCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrBadCredentials
	}
	usr.CreatedAt = time.Unix(ts, 0).UTC()
	return usr, nil
}

func (u *Users) Get(ctx context.Context, id string) (User, error) {
	var (
		usr User
		ts  int64
	)
	err := u.db.QueryRowContext(ctx,
		`SELECT id, username, name, email, role, created_at FROM users WHERE id=$1`, id).
		Scan(&usr.ID, &usr.Username, &usr.Name, &usr.Email, &usr.Role, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	usr.CreatedAt = time.Unix(ts, 0).UTC()
	return usr, nil
}

// ChangePassword replaces the hash after checking the old password.
func (u *Users) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	var stored string
	err := u.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id=$1`, id).Scan(&stored)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(stored), []byte(oldPassword)) != nil {
		return ErrBadCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), u.cost)
	if err != nil {
		return err
	}
	_, err = u.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, string(hash), id)
	return err
}
