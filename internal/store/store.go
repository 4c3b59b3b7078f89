// Package store persists users, curricula, quizzes and results.
//
// Missing records are reported as errors.CodeNotFound and duplicates as errors.CodeAlreadyExists,
// so callers can branch on the code without knowing the backend.
package store

import (
	"context"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// Store is the persistence collaborator for every service.
type Store interface {
	// CreateUser inserts a user. A student must name an existing teacher, whose roster gains
	// the student.
	CreateUser(ctx context.Context, u quiz.User, teacherID string) error
	GetUser(ctx context.Context, id string) (quiz.User, error)
	GetUserByEmail(ctx context.Context, email string) (quiz.User, error)
	GetTeacher(ctx context.Context, id string) (quiz.Teacher, error)
	GetStudent(ctx context.Context, id string) (quiz.Student, error)
	ListStudentsByTeacher(ctx context.Context, teacherID string) ([]quiz.Student, error)

	CreateCurriculum(ctx context.Context, c quiz.Curriculum) error
	GetCurriculum(ctx context.Context, id string) (quiz.Curriculum, error)
	ListCurriculaByTeacher(ctx context.Context, teacherID string) ([]quiz.Curriculum, error)
	UpdateCurriculum(ctx context.Context, c quiz.Curriculum) error

	// CreateQuiz inserts the quiz and assigns it to every student in q.AssignedTo.
	// Either all of it is applied or none of it is.
	CreateQuiz(ctx context.Context, q quiz.Quiz) error
	GetQuiz(ctx context.Context, id string) (quiz.Quiz, error)
	ListQuizzesByTeacher(ctx context.Context, teacherID string) ([]quiz.Quiz, error)

	// UpsertResult stores a result keyed by (QuizID, StudentID), replacing any earlier one.
	UpsertResult(ctx context.Context, r quiz.QuizResult) error
	GetResult(ctx context.Context, quizID, studentID string) (quiz.QuizResult, error)
	ListResultsByStudent(ctx context.Context, studentID string) ([]quiz.QuizResult, error)
	ListResultsByQuiz(ctx context.Context, quizID string) ([]quiz.QuizResult, error)
}
