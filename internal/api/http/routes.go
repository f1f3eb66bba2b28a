package http

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/mind-engage/mindengage-exams/internal/auth"
	authmw "github.com/mind-engage/mindengage-exams/internal/auth/middleware"
	"github.com/mind-engage/mindengage-exams/internal/engine"
	"github.com/mind-engage/mindengage-exams/internal/metrics"
	"github.com/mind-engage/mindengage-exams/internal/rbac"
)

type Deps struct {
	Engine  *engine.Engine
	Users   *auth.Users
	Auth    *authmw.AuthService
	DB      *sql.DB
	Log     *zap.Logger
	Metrics *metrics.Metrics
	Limiter *IPRateLimiter

	// EnableLocalAuth mounts register and login.
	EnableLocalAuth bool
	// RoleFromToken keeps the token's role when the user row is missing.
	RoleFromToken bool
}

// Mount registers every API route on r.
func Mount(r chi.Router, d Deps) {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Limiter == nil {
		d.Limiter = NewIPRateLimiter(0)
	}
	eng, log := d.Engine, d.Log

	r.Use(RequestLogger(log), d.Metrics.Middleware)

	if d.EnableLocalAuth {
		r.Post("/auth/register", RegisterHandler(d.Auth, d.Users, log))
		r.Post("/auth/login", LoginHandler(d.Auth, d.Users, log))
	}
	r.Post("/auth/logout", LogoutHandler())

	r.With(d.Limiter.Middleware).Get("/public/exams/{code}", PublicExamHandler(eng, log))

	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(d.Auth))
		if d.DB != nil {
			pr.Use(authmw.AttachRoleFromDB(d.DB, d.RoleFromToken))
		}

		pr.Get("/auth/current-user", CurrentUserHandler(d.Users, log))
		pr.Post("/auth/change-password", ChangePasswordHandler(d.Users, log))

		// Instructor
		pr.Group(func(tr chi.Router) {
			tr.Use(rbac.Require("exam:create"))
			tr.Get("/exams", ListMyExamsHandler(eng, log))
			tr.Post("/exams", CreateExamHandler(eng, log))
			tr.Get("/exams/{examID}", GetExamHandler(eng, log))
			tr.Put("/exams/{examID}", UpdateExamHandler(eng, log))
			tr.Delete("/exams/{examID}", DeleteExamHandler(eng, log))
			tr.Post("/exams/{examID}/questions", AddQuestionHandler(eng, log))
			tr.Put("/questions/{questionID}", UpdateQuestionHandler(eng, log))
			tr.Delete("/questions/{questionID}", DeleteQuestionHandler(eng, log))
		})
		pr.With(rbac.Require("attempt:view-all")).
			Get("/exams/{examID}/attempts", ListExamAttemptsHandler(eng, log))

		pr.Route("/dashboard", func(dr chi.Router) {
			dr.Use(rbac.Require("dashboard:view"))
			dr.Get("/stats", DashboardStatsHandler(eng, log))
			dr.Get("/recent-exams", RecentExamsHandler(eng, log))
			dr.Get("/recent-results", RecentResultsHandler(eng, log))
			dr.With(rbac.Require("answer:review")).
				Get("/review-requests", ReviewRequestsHandler(eng, log))
		})

		// Student
		pr.With(rbac.Require("attempt:create")).
			Post("/exams/{examID}/attempts", StartAttemptHandler(eng, log))
		pr.With(rbac.Require("attempt:submit")).
			Post("/attempts/{attemptID}/answers", SubmitAnswerHandler(eng, log))

		// Either role; ownership is decided per attempt.
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", GetAttemptHandler(eng, log))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Put("/attempts/{attemptID}", UpdateAttemptHandler(eng, log))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Post("/attempts/{attemptID}/complete", CompleteAttemptHandler(eng, log))
		pr.With(rbac.RequireAny("answer:request-review", "answer:review")).
			Put("/answers/{answerID}", UpdateAnswerHandler(eng, log))
	})
}

// NewRouter is Mount on a fresh chi router with request ids and panic
// recovery.
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	Mount(r, d)
	return r
}

// RequestLogger writes one zap line per request.
func RequestLogger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("latency", time.Since(start)),
				zap.String("remote", r.RemoteAddr),
			}
			if id := middleware.GetReqID(r.Context()); id != "" {
				fields = append(fields, zap.String("request_id", id))
			}
			switch {
			case status >= 500:
				log.Error("request", fields...)
			case status >= 400:
				log.Warn("request", fields...)
			default:
				log.Debug("request", fields...)
			}
		})
	}
}
