package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// MemoryStore is an in-memory Store for development and tests. Values are copied on the way
// in and out, so callers never share state with the store.
type MemoryStore struct {
	mu sync.RWMutex

	users     map[string]quiz.User
	byEmail   map[string]string
	teacherOf map[string]string // student id -> teacher id
	curricula map[string]quiz.Curriculum
	quizzes   map[string]quiz.Quiz
	assigned  map[string][]string // student id -> quiz ids in assignment order
	results   map[resultKey]quiz.QuizResult
}

type resultKey struct {
	quizID, studentID string
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]quiz.User),
		byEmail:   make(map[string]string),
		teacherOf: make(map[string]string),
		curricula: make(map[string]quiz.Curriculum),
		quizzes:   make(map[string]quiz.Quiz),
		assigned:  make(map[string][]string),
		results:   make(map[resultKey]quiz.QuizResult),
	}
}

func (s *MemoryStore) CreateUser(_ context.Context, u quiz.User, teacherID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[u.ID]; ok {
		return errors.AlreadyExists("user %s already exists", u.ID)
	}
	if _, ok := s.byEmail[u.Email]; ok {
		return errors.AlreadyExists("email %s is already registered", u.Email)
	}
	if u.Role == quiz.RoleStudent {
		t, ok := s.users[teacherID]
		if !ok || t.Role != quiz.RoleTeacher {
			return errors.NotFound("teacher %s not found", teacherID)
		}
		s.teacherOf[u.ID] = teacherID
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}

	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (quiz.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return quiz.User{}, errors.NotFound("user %s not found", id)
	}
	return u, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (quiz.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return quiz.User{}, errors.NotFound("user %s not found", email)
	}
	return s.users[id], nil
}

func (s *MemoryStore) GetTeacher(_ context.Context, id string) (quiz.Teacher, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || u.Role != quiz.RoleTeacher {
		return quiz.Teacher{}, errors.NotFound("teacher %s not found", id)
	}

	t := quiz.Teacher{User: u, StudentIDs: []string{}, CurriculumIDs: []string{}}
	for _, st := range s.studentsOf(id) {
		t.StudentIDs = append(t.StudentIDs, st.ID)
	}
	for _, c := range s.curriculaOf(id) {
		t.CurriculumIDs = append(t.CurriculumIDs, c.ID)
	}
	return t, nil
}

func (s *MemoryStore) GetStudent(_ context.Context, id string) (quiz.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || u.Role != quiz.RoleStudent {
		return quiz.Student{}, errors.NotFound("student %s not found", id)
	}
	return s.student(u), nil
}

func (s *MemoryStore) ListStudentsByTeacher(_ context.Context, teacherID string) ([]quiz.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := s.studentsOf(teacherID)
	students := make([]quiz.Student, 0, len(users))
	for _, u := range users {
		students = append(students, s.student(u))
	}
	return students, nil
}

// student assembles the aggregate. Callers must hold s.mu.
func (s *MemoryStore) student(u quiz.User) quiz.Student {
	st := quiz.Student{
		User:             u,
		TeacherID:        s.teacherOf[u.ID],
		AssignedQuizIDs:  append([]string{}, s.assigned[u.ID]...),
		CompletedQuizzes: make(map[string]quiz.QuizResult),
	}
	for k, r := range s.results {
		if k.studentID == u.ID {
			st.CompletedQuizzes[k.quizID] = copyResult(r)
		}
	}
	return st
}

// studentsOf returns the teacher's students by registration order. Callers must hold s.mu.
func (s *MemoryStore) studentsOf(teacherID string) []quiz.User {
	var users []quiz.User
	for sid, tid := range s.teacherOf {
		if tid == teacherID {
			users = append(users, s.users[sid])
		}
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users
}

func (s *MemoryStore) CreateCurriculum(_ context.Context, c quiz.Curriculum) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.curricula[c.ID]; ok {
		return errors.AlreadyExists("curriculum %s already exists", c.ID)
	}
	if t, ok := s.users[c.TeacherID]; !ok || t.Role != quiz.RoleTeacher {
		return errors.NotFound("teacher %s not found", c.TeacherID)
	}
	s.curricula[c.ID] = copyCurriculum(c)
	return nil
}

func (s *MemoryStore) GetCurriculum(_ context.Context, id string) (quiz.Curriculum, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.curricula[id]
	if !ok {
		return quiz.Curriculum{}, errors.NotFound("curriculum %s not found", id)
	}
	return copyCurriculum(c), nil
}

func (s *MemoryStore) ListCurriculaByTeacher(_ context.Context, teacherID string) ([]quiz.Curriculum, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.curriculaOf(teacherID), nil
}

// curriculaOf returns copies ordered by creation time. Callers must hold s.mu.
func (s *MemoryStore) curriculaOf(teacherID string) []quiz.Curriculum {
	out := []quiz.Curriculum{}
	for _, c := range s.curricula {
		if c.TeacherID == teacherID {
			out = append(out, copyCurriculum(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MemoryStore) UpdateCurriculum(_ context.Context, c quiz.Curriculum) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.curricula[c.ID]
	if !ok {
		return errors.NotFound("curriculum %s not found", c.ID)
	}
	c.TeacherID = old.TeacherID
	c.CreatedAt = old.CreatedAt
	s.curricula[c.ID] = copyCurriculum(c)
	return nil
}

func (s *MemoryStore) CreateQuiz(_ context.Context, q quiz.Quiz) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything before touching state so a failure leaves nothing behind.
	if _, ok := s.quizzes[q.ID]; ok {
		return errors.AlreadyExists("quiz %s already exists", q.ID)
	}
	if t, ok := s.users[q.CreatedBy]; !ok || t.Role != quiz.RoleTeacher {
		return errors.NotFound("teacher %s not found", q.CreatedBy)
	}
	for _, sid := range q.AssignedTo {
		if u, ok := s.users[sid]; !ok || u.Role != quiz.RoleStudent {
			return errors.NotFound("student %s not found", sid)
		}
	}

	s.quizzes[q.ID] = copyQuiz(q)
	for _, sid := range q.AssignedTo {
		if !contains(s.assigned[sid], q.ID) {
			s.assigned[sid] = append(s.assigned[sid], q.ID)
		}
	}
	return nil
}

func (s *MemoryStore) GetQuiz(_ context.Context, id string) (quiz.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, ok := s.quizzes[id]
	if !ok {
		return quiz.Quiz{}, errors.NotFound("quiz %s not found", id)
	}
	return copyQuiz(q), nil
}

func (s *MemoryStore) ListQuizzesByTeacher(_ context.Context, teacherID string) ([]quiz.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []quiz.Quiz{}
	for _, q := range s.quizzes {
		if q.CreatedBy == teacherID {
			out = append(out, copyQuiz(q))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) UpsertResult(_ context.Context, r quiz.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.quizzes[r.QuizID]; !ok {
		return errors.NotFound("quiz %s not found", r.QuizID)
	}
	if u, ok := s.users[r.StudentID]; !ok || u.Role != quiz.RoleStudent {
		return errors.NotFound("student %s not found", r.StudentID)
	}
	s.results[resultKey{r.QuizID, r.StudentID}] = copyResult(r)
	return nil
}

func (s *MemoryStore) GetResult(_ context.Context, quizID, studentID string) (quiz.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.results[resultKey{quizID, studentID}]
	if !ok {
		return quiz.QuizResult{}, errors.NotFound("no result for quiz %s", quizID)
	}
	return copyResult(r), nil
}

func (s *MemoryStore) ListResultsByStudent(_ context.Context, studentID string) ([]quiz.QuizResult, error) {
	return s.listResults(func(k resultKey) bool { return k.studentID == studentID }), nil
}

func (s *MemoryStore) ListResultsByQuiz(_ context.Context, quizID string) ([]quiz.QuizResult, error) {
	return s.listResults(func(k resultKey) bool { return k.quizID == quizID }), nil
}

func (s *MemoryStore) listResults(match func(resultKey) bool) []quiz.QuizResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []quiz.QuizResult{}
	for k, r := range s.results {
		if match(k) {
			out = append(out, copyResult(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].QuizID+out[i].StudentID < out[j].QuizID+out[j].StudentID
		}
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	return out
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func copyCurriculum(c quiz.Curriculum) quiz.Curriculum {
	modules := make([]quiz.Module, len(c.Modules))
	for i, m := range c.Modules {
		m.Topics = append([]quiz.Topic{}, m.Topics...)
		modules[i] = m
	}
	c.Modules = modules
	return c
}

func copyQuiz(q quiz.Quiz) quiz.Quiz {
	q.Topics = append([]quiz.TopicRef{}, q.Topics...)
	q.AssignedTo = append([]string{}, q.AssignedTo...)
	questions := make([]quiz.QuizQuestion, len(q.Questions))
	for i, qq := range q.Questions {
		qq.Options = append([]string{}, qq.Options...)
		questions[i] = qq
	}
	q.Questions = questions
	return q
}

func copyResult(r quiz.QuizResult) quiz.QuizResult {
	answers := make(map[string]int, len(r.Answers))
	for k, v := range r.Answers {
		answers[k] = v
	}
	r.Answers = answers
	return r
}
