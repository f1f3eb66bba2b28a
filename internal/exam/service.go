package exam

import (
	"context"
	"sort"
	"sync"
)

type memoryStore struct {
	mu        sync.RWMutex
	exams     map[string]Exam
	questions map[string]Question
	attempts  map[string]Attempt
	answers   map[string]UserAnswer
	answerSeq []string // insertion order, newest last
}

// NewInMemoryStore is a process-local Store used by tests and offline demos.
func NewInMemoryStore() Store {
	return &memoryStore{
		exams:     map[string]Exam{},
		questions: map[string]Question{},
		attempts:  map[string]Attempt{},
		answers:   map[string]UserAnswer{},
	}
}

func (m *memoryStore) CreateExam(_ context.Context, e Exam) (Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[e.ID]; ok {
		return Exam{}, ErrConflict
	}
	for _, x := range m.exams {
		if x.AccessCode == e.AccessCode {
			return Exam{}, ErrConflict
		}
	}
	m.exams[e.ID] = e
	return e, nil
}

func (m *memoryStore) GetExam(_ context.Context, id string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.exams[id]
	if !ok {
		return Exam{}, notFound("exam", id)
	}
	return e, nil
}

func (m *memoryStore) GetExamByAccessCode(_ context.Context, code string) (Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.exams {
		if e.AccessCode == code {
			return e, nil
		}
	}
	return Exam{}, notFound("exam with access code", code)
}

func (m *memoryStore) UpdateExam(_ context.Context, e Exam) (Exam, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.exams[e.ID]
	if !ok {
		return Exam{}, notFound("exam", e.ID)
	}
	e.AccessCode = cur.AccessCode
	e.CreatedBy = cur.CreatedBy
	e.CreatedAt = cur.CreatedAt
	m.exams[e.ID] = e
	return e, nil
}

func (m *memoryStore) DeleteExam(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[id]; !ok {
		return notFound("exam", id)
	}
	delete(m.exams, id)
	for qid, q := range m.questions {
		if q.ExamID == id {
			delete(m.questions, qid)
		}
	}
	for aid, a := range m.attempts {
		if a.ExamID == id {
			m.dropAnswersLocked(aid)
			delete(m.attempts, aid)
		}
	}
	return nil
}

func (m *memoryStore) dropAnswersLocked(attemptID string) {
	kept := m.answerSeq[:0]
	for _, id := range m.answerSeq {
		if m.answers[id].AttemptID == attemptID {
			delete(m.answers, id)
			continue
		}
		kept = append(kept, id)
	}
	m.answerSeq = kept
}

func (m *memoryStore) ListExamsByOwner(_ context.Context, ownerID string) ([]Exam, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Exam, 0, 8)
	for _, e := range m.exams {
		if e.CreatedBy == ownerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *memoryStore) CreateQuestion(_ context.Context, q Question) (Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[q.ExamID]; !ok {
		return Question{}, notFound("exam", q.ExamID)
	}
	for _, x := range m.questions {
		if x.ExamID == q.ExamID && x.Order == q.Order {
			return Question{}, ErrConflict
		}
	}
	q = cloneQuestion(q)
	m.questions[q.ID] = q
	return cloneQuestion(q), nil
}

func (m *memoryStore) GetQuestion(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, notFound("question", id)
	}
	return cloneQuestion(q), nil
}

func (m *memoryStore) UpdateQuestion(_ context.Context, q Question) (Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.questions[q.ID]
	if !ok {
		return Question{}, notFound("question", q.ID)
	}
	q.ExamID = cur.ExamID
	for _, x := range m.questions {
		if x.ID != q.ID && x.ExamID == q.ExamID && x.Order == q.Order {
			return Question{}, ErrConflict
		}
	}
	q = cloneQuestion(q)
	m.questions[q.ID] = q
	return cloneQuestion(q), nil
}

func (m *memoryStore) DeleteQuestion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return notFound("question", id)
	}
	delete(m.questions, id)
	return nil
}

func (m *memoryStore) ListQuestions(_ context.Context, examID string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Question, 0, 16)
	for _, q := range m.questions {
		if q.ExamID == examID {
			out = append(out, cloneQuestion(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (m *memoryStore) CreateAttempt(_ context.Context, a Attempt) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.exams[a.ExamID]; !ok {
		return Attempt{}, notFound("exam", a.ExamID)
	}
	m.attempts[a.ID] = a
	return cloneAttempt(a), nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, notFound("attempt", id)
	}
	return cloneAttempt(a), nil
}

func (m *memoryStore) ListAttemptsByExam(_ context.Context, examID string) ([]Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Attempt, 0, 16)
	for _, a := range m.attempts {
		if a.ExamID == examID {
			out = append(out, cloneAttempt(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out, nil
}

func (m *memoryStore) CompleteAttempt(_ context.Context, a Attempt) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.attempts[a.ID]
	if !ok {
		return Attempt{}, notFound("attempt", a.ID)
	}
	if cur.Status == AttemptCompleted {
		return Attempt{}, ErrAttemptClosed
	}
	cur.Status = AttemptCompleted
	cur.EndTime = a.EndTime
	cur.MaxScore = a.MaxScore
	cur.Score = IntPtr(cur.ScoreValue())
	m.attempts[a.ID] = cur
	return cloneAttempt(cur), nil
}

func (m *memoryStore) GetAnswer(_ context.Context, id string) (UserAnswer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ans, ok := m.answers[id]
	if !ok {
		return UserAnswer{}, notFound("answer", id)
	}
	return cloneAnswer(ans), nil
}

func (m *memoryStore) ListAnswers(_ context.Context, attemptID string) ([]UserAnswer, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]UserAnswer, 0, 16)
	for _, id := range m.answerSeq {
		if ans := m.answers[id]; ans.AttemptID == attemptID {
			out = append(out, cloneAnswer(ans))
		}
	}
	return out, nil
}

func (m *memoryStore) CountAnswersForQuestion(_ context.Context, questionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, ans := range m.answers {
		if ans.QuestionID == questionID {
			n++
		}
	}
	return n, nil
}

func (m *memoryStore) InsertAnswer(_ context.Context, ans UserAnswer, scoreDelta int) (UserAnswer, Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[ans.AttemptID]
	if !ok {
		return UserAnswer{}, Attempt{}, notFound("attempt", ans.AttemptID)
	}
	if a.Status != AttemptInProgress {
		return UserAnswer{}, Attempt{}, ErrAttemptClosed
	}
	for _, id := range m.answerSeq {
		x := m.answers[id]
		if x.AttemptID == ans.AttemptID && x.QuestionID == ans.QuestionID {
			return UserAnswer{}, Attempt{}, ErrAlreadyAnswered
		}
	}
	a.Score = IntPtr(a.ScoreValue() + scoreDelta)
	m.attempts[a.ID] = a
	ans = cloneAnswer(ans)
	m.answers[ans.ID] = ans
	m.answerSeq = append(m.answerSeq, ans.ID)
	return cloneAnswer(ans), cloneAttempt(a), nil
}

func (m *memoryStore) SaveReviewRequest(_ context.Context, ans UserAnswer) (UserAnswer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.answers[ans.ID]
	if !ok {
		return UserAnswer{}, notFound("answer", ans.ID)
	}
	cur.ReviewRequested = ans.ReviewRequested
	m.answers[ans.ID] = cur
	return cloneAnswer(cur), nil
}

func (m *memoryStore) SaveReview(_ context.Context, ans UserAnswer, scoreDelta int) (UserAnswer, Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.answers[ans.ID]
	if !ok {
		return UserAnswer{}, Attempt{}, notFound("answer", ans.ID)
	}
	a, ok := m.attempts[cur.AttemptID]
	if !ok {
		return UserAnswer{}, Attempt{}, notFound("attempt", cur.AttemptID)
	}
	if cur.Reviewed {
		return UserAnswer{}, Attempt{}, ReviewNotAllowed(ReviewAlreadyFinished)
	}
	cur.Reviewed = ans.Reviewed
	cur.IsCorrect = ans.IsCorrect
	cur.Score = ans.Score
	cur.ReviewComment = ans.ReviewComment
	a.Score = IntPtr(a.ScoreValue() + scoreDelta)
	m.answers[cur.ID] = cur
	m.attempts[a.ID] = a
	return cloneAnswer(cur), cloneAttempt(a), nil
}

func (m *memoryStore) ListReviewRequests(_ context.Context, ownerID string, limit int) ([]ReviewRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]ReviewRequest, 0, 8)
	for i := len(m.answerSeq) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		ans := m.answers[m.answerSeq[i]]
		if !ans.ReviewRequested || ans.Reviewed {
			continue
		}
		q, ok := m.questions[ans.QuestionID]
		if !ok {
			continue
		}
		e, ok := m.exams[q.ExamID]
		if !ok || e.CreatedBy != ownerID {
			continue
		}
		out = append(out, ReviewRequest{
			Exam:     e,
			Question: cloneQuestion(q),
			Answer:   cloneAnswer(ans),
			UserID:   m.attempts[ans.AttemptID].UserID,
		})
	}
	return out, nil
}

func (m *memoryStore) Stats(_ context.Context, ownerID string) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var st Stats
	owned := map[string]bool{}
	for _, e := range m.exams {
		if e.CreatedBy == ownerID {
			owned[e.ID] = true
			st.ExamCount++
		}
	}
	students := map[string]struct{}{}
	for _, a := range m.attempts {
		if !owned[a.ExamID] {
			continue
		}
		students[a.UserID] = struct{}{}
		switch a.Status {
		case AttemptCompleted:
			st.CompletedCount++
		case AttemptInProgress:
			st.PendingCount++
		}
	}
	st.StudentCount = len(students)
	return st, nil
}

// helpers

func cloneQuestion(q Question) Question {
	if q.Options != nil {
		q.Options = append([]string(nil), q.Options...)
	}
	if q.AcceptedAnswers != nil {
		q.AcceptedAnswers = append([]string(nil), q.AcceptedAnswers...)
	}
	return q
}

func cloneAttempt(a Attempt) Attempt {
	if a.EndTime != nil {
		t := *a.EndTime
		a.EndTime = &t
	}
	if a.Score != nil {
		a.Score = IntPtr(*a.Score)
	}
	if a.MaxScore != nil {
		a.MaxScore = IntPtr(*a.MaxScore)
	}
	return a
}

func cloneAnswer(u UserAnswer) UserAnswer {
	if u.IsCorrect != nil {
		u.IsCorrect = BoolPtr(*u.IsCorrect)
	}
	if u.Score != nil {
		u.Score = IntPtr(*u.Score)
	}
	if u.ReviewComment != nil {
		c := *u.ReviewComment
		u.ReviewComment = &c
	}
	return u
}
