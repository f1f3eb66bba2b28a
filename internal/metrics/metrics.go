package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	RequestCounter  *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	AnswersGraded       *prometheus.CounterVec
	ReviewTransitions   *prometheus.CounterVec
	AttemptsTotal       *prometheus.CounterVec
	InvariantViolations prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
			},
			[]string{"method", "endpoint"},
		),
		AnswersGraded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exams_answers_graded_total",
				Help: "Answers accepted for grading, by question type and outcome",
			},
			[]string{"type", "outcome"},
		),
		ReviewTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exams_review_transitions_total",
				Help: "Essay review state changes",
			},
			[]string{"to"},
		),
		AttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "exams_attempts_total",
				Help: "Attempts started and completed",
			},
			[]string{"event"},
		),
		InvariantViolations: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "exams_score_invariant_violations_total",
				Help: "Score changes rejected for breaking 0 <= score <= maxScore",
			},
		),
	}
	m.reg.MustRegister(
		m.RequestCounter, m.RequestDuration,
		m.AnswersGraded, m.ReviewTransitions, m.AttemptsTotal, m.InvariantViolations,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) AnswerGraded(qType string, isCorrect *bool) {
	if m == nil {
		return
	}
	outcome := "pending"
	if isCorrect != nil {
		outcome = "incorrect"
		if *isCorrect {
			outcome = "correct"
		}
	}
	m.AnswersGraded.WithLabelValues(qType, outcome).Inc()
}

func (m *Metrics) ReviewTransition(to string) {
	if m == nil {
		return
	}
	m.ReviewTransitions.WithLabelValues(to).Inc()
}

func (m *Metrics) Attempt(event string) {
	if m == nil {
		return
	}
	m.AttemptsTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) InvariantViolation() {
	if m == nil {
		return
	}
	m.InvariantViolations.Inc()
}

// Middleware counts requests by chi route pattern, so ids in the path do
// not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		endpoint := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			endpoint = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestCounter.WithLabelValues(r.Method, endpoint, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, endpoint).Observe(time.Since(start).Seconds())
	})
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
