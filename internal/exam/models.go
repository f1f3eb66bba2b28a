package exam

import (
	"time"
)

type ExamStatus string

const (
	ExamDraft     ExamStatus = "draft"
	ExamActive    ExamStatus = "active"
	ExamCompleted ExamStatus = "completed"
)

type QuestionType string

const (
	TypeMultipleChoice QuestionType = "multiple-choice"
	TypeTrueFalse      QuestionType = "true-false"
	TypeEssay          QuestionType = "essay"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in-progress"
	AttemptCompleted  AttemptStatus = "completed"
)

type Exam struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	Subject            string     `json:"subject,omitempty"`
	Grade              string     `json:"grade,omitempty"`
	Duration           int        `json:"duration"` // minutes
	CreatedBy          string     `json:"createdBy"`
	Status             ExamStatus `json:"status"`
	ShuffleQuestions   bool       `json:"shuffleQuestions"`
	ShowResults        bool       `json:"showResults"`
	ShowCorrectAnswers bool       `json:"showCorrectAnswers"`
	AllowReview        bool       `json:"allowReview"`
	ExamDate           *time.Time `json:"examDate,omitempty"`
	AccessCode         string     `json:"accessCode"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// PublicExamInfo is what an anonymous caller holding an access code may see.
type PublicExamInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Grade       string `json:"grade,omitempty"`
	Duration    int    `json:"duration"`
}

func (e Exam) Public() PublicExamInfo {
	return PublicExamInfo{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Subject:     e.Subject,
		Grade:       e.Grade,
		Duration:    e.Duration,
	}
}

type Question struct {
	ID              string       `json:"id"`
	ExamID          string       `json:"examId"`
	Type            QuestionType `json:"type"`
	Content         string       `json:"content"`
	Points          int          `json:"points"`
	Order           int          `json:"order"`
	Options         []string     `json:"options,omitempty"`         // multiple-choice only
	CorrectAnswer   Value        `json:"correctAnswer"`             // text for MC, bool for TF, null for essay
	AcceptedAnswers []string     `json:"acceptedAnswers,omitempty"` // essay only; reviewer reference
}

type Attempt struct {
	ID        string        `json:"id"`
	ExamID    string        `json:"examId"`
	UserID    string        `json:"userId"`
	Status    AttemptStatus `json:"status"`
	StartTime time.Time     `json:"startTime"`
	EndTime   *time.Time    `json:"endTime"`
	Score     *int          `json:"score"`
	MaxScore  *int          `json:"maxScore"`
}

// Expired reports whether the attempt ran past the exam's duration.
// Enforcement is up to the caller.
func (a Attempt) Expired(now time.Time, durationMin int) bool {
	if durationMin <= 0 {
		return false
	}
	return now.After(a.StartTime.Add(time.Duration(durationMin) * time.Minute))
}

func (a Attempt) ScoreValue() int {
	if a.Score == nil {
		return 0
	}
	return *a.Score
}

type UserAnswer struct {
	ID              string  `json:"id"`
	AttemptID       string  `json:"attemptId"`
	QuestionID      string  `json:"questionId"`
	Answer          Value   `json:"answer"`
	IsCorrect       *bool   `json:"isCorrect"`
	Score           *int    `json:"score"`
	Reviewed        bool    `json:"reviewed"`
	ReviewRequested bool    `json:"reviewRequested"`
	ReviewComment   *string `json:"reviewComment"`
}

func (u UserAnswer) ScoreValue() int {
	if u.Score == nil {
		return 0
	}
	return *u.Score
}

// ReviewRequest is one pending essay review on an instructor's queue.
type ReviewRequest struct {
	Exam     Exam       `json:"exam"`
	Question Question   `json:"question"`
	Answer   UserAnswer `json:"answer"`
	UserID   string     `json:"userId"`

	// Nearest accepted answer for the reviewer; never used for scoring.
	ReferenceAnswer   string `json:"referenceAnswer,omitempty"`
	ReferenceDistance int    `json:"referenceDistance,omitempty"`
}

type Stats struct {
	ExamCount      int `json:"examCount"`
	StudentCount   int `json:"studentCount"`
	CompletedCount int `json:"completedCount"`
	PendingCount   int `json:"pendingCount"`
}

// AttemptResult is an attempt with its answers and the exam's questions, as
// shown to its owner or instructor.
type AttemptResult struct {
	Exam      PublicExamInfo `json:"exam"`
	Attempt   Attempt        `json:"attempt"`
	Answers   []UserAnswer   `json:"answers"`
	Questions []Question     `json:"questions"`
}

func IntPtr(v int) *int    { return &v }
func BoolPtr(v bool) *bool { return &v }
