package quiz

import "time"

// Role distinguishes teachers from students.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleTeacher || r == RoleStudent
}

// User is the account shared by both roles.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	ProfileImage string    `json:"profileImage,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Teacher is a teacher account with its roster and curricula.
type Teacher struct {
	User
	StudentIDs    []string `json:"students"`
	CurriculumIDs []string `json:"curricula"`
}

// Student is a student account with its assignments and completed results.
type Student struct {
	User
	TeacherID        string                `json:"teacherId"`
	AssignedQuizIDs  []string              `json:"assignedQuizzes"`
	CompletedQuizzes map[string]QuizResult `json:"completedQuizzes"`
}

// HasCompleted reports whether the student has a result for the quiz.
func (s Student) HasCompleted(quizID string) bool {
	_, ok := s.CompletedQuizzes[quizID]
	return ok
}

// IsAssigned reports whether the quiz is on the student's assignment list.
func (s Student) IsAssigned(quizID string) bool {
	for _, id := range s.AssignedQuizIDs {
		if id == quizID {
			return true
		}
	}
	return false
}
