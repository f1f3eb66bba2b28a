package http

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exams/internal/auth"
	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

type tokenResp struct {
	AccessToken string    `json:"access_token"`
	User        auth.User `json:"user"`
}

type registerReq struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"omitempty,email"`
	Role     string `json:"role" validate:"omitempty,oneof=teacher student"`
}

// POST /auth/register
func RegisterHandler(a *authmw.AuthService, users *auth.Users, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := users.Register(r.Context(), auth.User{
			Username: req.Username, Name: req.Name, Email: req.Email, Role: req.Role,
		}, req.Password)
		switch {
		case errors.Is(err, auth.ErrUsernameTaken), errors.Is(err, auth.ErrEmailTaken), errors.Is(err, auth.ErrInvalidRole):
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		case err != nil:
			writeError(w, log, r, err)
			return
		}
		tok, err := a.IssueJWT(u.ID, u.Role)
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, tokenResp{AccessToken: tok, User: u})
	}
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// POST /auth/login
func LoginHandler(a *authmw.AuthService, users *auth.Users, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginReq
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := users.Authenticate(r.Context(), req.Username, req.Password)
		if errors.Is(err, auth.ErrBadCredentials) {
			writeMessage(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		tok, err := a.IssueJWT(u.ID, u.Role)
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, tokenResp{AccessToken: tok, User: u})
	}
}

// POST /auth/logout
// Tokens are stateless; the client drops its copy.
func LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	}
}

// GET /auth/current-user
func CurrentUserHandler(users *auth.Users, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := users.Get(r.Context(), rbac.SubjectFromContext(r.Context()))
		if errors.Is(err, auth.ErrUserNotFound) {
			writeMessage(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if err != nil {
			writeError(w, log, r, err)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

type changePasswordReq struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6,max=128"`
}

// POST /auth/change-password
func ChangePasswordHandler(users *auth.Users, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req changePasswordReq
		if !decodeJSON(w, r, &req) {
			return
		}
		err := users.ChangePassword(r.Context(), rbac.SubjectFromContext(r.Context()), req.OldPassword, req.NewPassword)
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			writeMessage(w, http.StatusNotFound, "user not found")
		case errors.Is(err, auth.ErrBadCredentials):
			writeMessage(w, http.StatusForbidden, "incorrect old password")
		case err != nil:
			writeError(w, log, r, err)
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}
}
