package exam

import "context"

// Store persists exams, questions, attempts and answers.
//
// InsertAnswer and SaveReview write the answer and add scoreDelta to the
// owning attempt's score in one unit: either both land or neither does.
type Store interface {
	CreateExam(ctx context.Context, e Exam) (Exam, error) // ErrConflict on a duplicate access code
	GetExam(ctx context.Context, id string) (Exam, error)
	GetExamByAccessCode(ctx context.Context, code string) (Exam, error)
	UpdateExam(ctx context.Context, e Exam) (Exam, error) // never rewrites access_code
	DeleteExam(ctx context.Context, id string) error      // cascades to questions, attempts, answers
	ListExamsByOwner(ctx context.Context, ownerID string) ([]Exam, error)

	CreateQuestion(ctx context.Context, q Question) (Question, error) // ErrConflict on a duplicate order
	GetQuestion(ctx context.Context, id string) (Question, error)
	UpdateQuestion(ctx context.Context, q Question) (Question, error)
	DeleteQuestion(ctx context.Context, id string) error
	ListQuestions(ctx context.Context, examID string) ([]Question, error) // sorted by Order

	CreateAttempt(ctx context.Context, a Attempt) (Attempt, error)
	GetAttempt(ctx context.Context, id string) (Attempt, error)
	ListAttemptsByExam(ctx context.Context, examID string) ([]Attempt, error)
	// CompleteAttempt persists status, end time and max score of an
	// in-progress attempt; ErrAttemptClosed if it was already completed.
	CompleteAttempt(ctx context.Context, a Attempt) (Attempt, error)

	GetAnswer(ctx context.Context, id string) (UserAnswer, error)
	ListAnswers(ctx context.Context, attemptID string) ([]UserAnswer, error)
	CountAnswersForQuestion(ctx context.Context, questionID string) (int, error)
	// InsertAnswer fails with ErrAttemptClosed when the attempt is no longer
	// in progress and ErrAlreadyAnswered on a second answer to one question.
	InsertAnswer(ctx context.Context, ans UserAnswer, scoreDelta int) (UserAnswer, Attempt, error)
	SaveReviewRequest(ctx context.Context, ans UserAnswer) (UserAnswer, error)
	SaveReview(ctx context.Context, ans UserAnswer, scoreDelta int) (UserAnswer, Attempt, error)

	ListReviewRequests(ctx context.Context, ownerID string, limit int) ([]ReviewRequest, error)
	Stats(ctx context.Context, ownerID string) (Stats, error)
}
