// Package seed loads a demo dataset of accounts, curricula and quizzes from YAML files and
// applies it through the regular services.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/p-n-ai/pai-quiz/internal/auth"
	"github.com/p-n-ai/pai-quiz/internal/classroom"
	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// Dataset is the merged content of every seed file. Keys tie records together inside the
// dataset; stored records get generated ids.
type Dataset struct {
	Users     []User       `yaml:"users"`
	Curricula []Curriculum `yaml:"curricula"`
	Quizzes   []Quiz       `yaml:"quizzes"`
}

type User struct {
	Key          string    `yaml:"key"`
	Name         string    `yaml:"name"`
	Email        string    `yaml:"email"`
	Password     string    `yaml:"password"`
	Role         quiz.Role `yaml:"role"`
	Teacher      string    `yaml:"teacher"`
	ProfileImage string    `yaml:"profileImage"`
}

type Curriculum struct {
	Key         string        `yaml:"key"`
	Teacher     string        `yaml:"teacher"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Modules     []quiz.Module `yaml:"modules"`
}

type Quiz struct {
	Teacher     string     `yaml:"teacher"`
	Curriculum  string     `yaml:"curriculum"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Language    string     `yaml:"language"`
	Questions   []Question `yaml:"questions"`
	AssignedTo  []string   `yaml:"assignedTo"`
}

type Question struct {
	ID                 string   `yaml:"id"`
	Question           string   `yaml:"question"`
	Options            []string `yaml:"options"`
	CorrectOptionIndex *int     `yaml:"correctOptionIndex"`
	CorrectAnswer      *int     `yaml:"correctAnswer"`
	Explanation        string   `yaml:"explanation"`
}

// Load reads every .yaml/.yml file under root and merges them in walk order.
func Load(root string) (Dataset, error) {
	var ds Dataset
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !(strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var part Dataset
		if err := yaml.Unmarshal(data, &part); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		ds.Users = append(ds.Users, part.Users...)
		ds.Curricula = append(ds.Curricula, part.Curricula...)
		ds.Quizzes = append(ds.Quizzes, part.Quizzes...)
		return nil
	})
	if err != nil {
		return Dataset{}, fmt.Errorf("loading seed data: %w", err)
	}
	return ds, nil
}

// Accounts is the part of auth.Service the seeder needs.
type Accounts interface {
	Register(ctx context.Context, req auth.RegisterRequest) (quiz.User, error)
}

// Users looks up existing accounts.
type Users interface {
	GetUserByEmail(ctx context.Context, email string) (quiz.User, error)
}

// Classroom is the part of classroom.Service the seeder needs.
type Classroom interface {
	ListCurricula(ctx context.Context, teacherID string) ([]quiz.Curriculum, error)
	CreateCurriculum(ctx context.Context, teacherID string, in classroom.CurriculumInput) (quiz.Curriculum, error)
	ListQuizzes(ctx context.Context, teacherID string) ([]classroom.QuizSummary, error)
	CreateQuiz(ctx context.Context, teacherID string, req classroom.CreateQuizRequest) (quiz.Quiz, error)
}

type Seeder struct {
	accounts  Accounts
	users     Users
	classroom Classroom
}

func NewSeeder(accounts Accounts, users Users, cr Classroom) *Seeder {
	return &Seeder{accounts: accounts, users: users, classroom: cr}
}

// Report counts what Apply created and skipped.
type Report struct {
	UsersCreated     int
	UsersSkipped     int
	CurriculaCreated int
	CurriculaSkipped int
	QuizzesCreated   int
	QuizzesSkipped   int
}

// Apply stores the dataset. It is idempotent: users whose email exists, curricula whose title
// the teacher already uses and quizzes whose title the teacher already uses are skipped.
// Teachers are created before students so roster references resolve.
func (s *Seeder) Apply(ctx context.Context, ds Dataset) (Report, error) {
	var rep Report
	ids := make(map[string]string, len(ds.Users))

	for _, role := range []quiz.Role{quiz.RoleTeacher, quiz.RoleStudent} {
		for _, u := range ds.Users {
			if u.Role != role {
				continue
			}
			id, created, err := s.ensureUser(ctx, u, ids)
			if err != nil {
				return rep, fmt.Errorf("seed user %s: %w", u.Email, err)
			}
			if u.Key != "" {
				ids[u.Key] = id
			}
			if created {
				rep.UsersCreated++
			} else {
				rep.UsersSkipped++
			}
		}
	}

	curricula := make(map[string]string, len(ds.Curricula))
	for _, c := range ds.Curricula {
		teacherID, ok := ids[c.Teacher]
		if !ok {
			return rep, fmt.Errorf("seed curriculum %q: unknown teacher %q", c.Title, c.Teacher)
		}
		id, created, err := s.ensureCurriculum(ctx, teacherID, c)
		if err != nil {
			return rep, fmt.Errorf("seed curriculum %q: %w", c.Title, err)
		}
		if c.Key != "" {
			curricula[c.Key] = id
		}
		if created {
			rep.CurriculaCreated++
		} else {
			rep.CurriculaSkipped++
		}
	}

	for _, q := range ds.Quizzes {
		created, err := s.ensureQuiz(ctx, q, ids, curricula)
		if err != nil {
			return rep, fmt.Errorf("seed quiz %q: %w", q.Title, err)
		}
		if created {
			rep.QuizzesCreated++
		} else {
			rep.QuizzesSkipped++
		}
	}

	slog.Info("seed applied",
		"users_created", rep.UsersCreated, "users_skipped", rep.UsersSkipped,
		"curricula_created", rep.CurriculaCreated, "quizzes_created", rep.QuizzesCreated)
	return rep, nil
}

func (s *Seeder) ensureUser(ctx context.Context, u User, ids map[string]string) (string, bool, error) {
	existing, err := s.users.GetUserByEmail(ctx, auth.NormalizeEmail(u.Email))
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, errors.CodeNotFound) {
		return "", false, err
	}

	req := auth.RegisterRequest{
		Name:         u.Name,
		Email:        u.Email,
		Password:     u.Password,
		Role:         u.Role,
		ProfileImage: u.ProfileImage,
	}
	if u.Role == quiz.RoleStudent {
		teacherID, ok := ids[u.Teacher]
		if !ok {
			return "", false, fmt.Errorf("unknown teacher %q", u.Teacher)
		}
		req.TeacherID = teacherID
	}
	created, err := s.accounts.Register(ctx, req)
	if err != nil {
		return "", false, err
	}
	return created.ID, true, nil
}

func (s *Seeder) ensureCurriculum(ctx context.Context, teacherID string, c Curriculum) (string, bool, error) {
	existing, err := s.classroom.ListCurricula(ctx, teacherID)
	if err != nil {
		return "", false, err
	}
	for _, e := range existing {
		if strings.EqualFold(e.Title, strings.TrimSpace(c.Title)) {
			return e.ID, false, nil
		}
	}

	created, err := s.classroom.CreateCurriculum(ctx, teacherID, classroom.CurriculumInput{
		Title:       c.Title,
		Description: c.Description,
		Modules:     c.Modules,
	})
	if err != nil {
		return "", false, err
	}
	return created.ID, true, nil
}

func (s *Seeder) ensureQuiz(ctx context.Context, q Quiz, ids, curricula map[string]string) (bool, error) {
	teacherID, ok := ids[q.Teacher]
	if !ok {
		return false, fmt.Errorf("unknown teacher %q", q.Teacher)
	}
	existing, err := s.classroom.ListQuizzes(ctx, teacherID)
	if err != nil {
		return false, err
	}
	for _, e := range existing {
		if strings.EqualFold(e.Title, strings.TrimSpace(q.Title)) {
			return false, nil
		}
	}

	req := classroom.CreateQuizRequest{
		Title:       q.Title,
		Description: q.Description,
		Language:    q.Language,
		Questions:   make([]classroom.QuestionInput, len(q.Questions)),
		StudentIDs:  make([]string, 0, len(q.AssignedTo)),
	}
	if q.Curriculum != "" {
		if req.CurriculumID, ok = curricula[q.Curriculum]; !ok {
			return false, fmt.Errorf("unknown curriculum %q", q.Curriculum)
		}
	}
	for i, qq := range q.Questions {
		req.Questions[i] = classroom.QuestionInput{
			ID:                 qq.ID,
			Question:           qq.Question,
			Options:            qq.Options,
			CorrectOptionIndex: qq.CorrectOptionIndex,
			CorrectAnswer:      qq.CorrectAnswer,
			Explanation:        qq.Explanation,
		}
	}
	for _, key := range q.AssignedTo {
		id, ok := ids[key]
		if !ok {
			return false, fmt.Errorf("unknown student %q", key)
		}
		req.StudentIDs = append(req.StudentIDs, id)
	}

	if _, err := s.classroom.CreateQuiz(ctx, teacherID, req); err != nil {
		return false, err
	}
	return true, nil
}
