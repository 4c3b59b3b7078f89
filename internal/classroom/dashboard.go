package classroom

import (
	"context"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/scoring"
)

const recentLimit = 5

// TeacherDashboard is the teacher's landing page data.
type TeacherDashboard struct {
	Teacher       quiz.Teacher        `json:"teacher"`
	Roster        scoring.RosterStats `json:"roster"`
	Curricula     int                 `json:"curricula"`
	Quizzes       int                 `json:"quizzes"`
	RecentQuizzes []QuizSummary       `json:"recentQuizzes"`
}

func (s *Service) TeacherDashboard(ctx context.Context, teacherID string) (TeacherDashboard, error) {
	t, err := s.store.GetTeacher(ctx, teacherID)
	if err != nil {
		return TeacherDashboard{}, err
	}
	roster, err := s.Students(ctx, teacherID)
	if err != nil {
		return TeacherDashboard{}, err
	}
	quizzes, err := s.ListQuizzes(ctx, teacherID)
	if err != nil {
		return TeacherDashboard{}, err
	}

	recent := quizzes
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	return TeacherDashboard{
		Teacher:       t,
		Roster:        roster,
		Curricula:     len(t.CurriculumIDs),
		Quizzes:       len(quizzes),
		RecentQuizzes: recent,
	}, nil
}

// Students returns the teacher's roster with per-student and class figures.
func (s *Service) Students(ctx context.Context, teacherID string) (scoring.RosterStats, error) {
	students, err := s.store.ListStudentsByTeacher(ctx, teacherID)
	if err != nil {
		return scoring.RosterStats{}, err
	}
	return scoring.Roster(students), nil
}

// StudentDashboard is the student's landing page data.
type StudentDashboard struct {
	Student       quiz.Student    `json:"student"`
	TeacherName   string          `json:"teacherName"`
	OverallScore  int             `json:"overallScore"`
	Band          string          `json:"band"`
	Assigned      int             `json:"assigned"`
	Completed     int             `json:"completed"`
	Pending       int             `json:"pending"`
	RecentResults []ResultSummary `json:"recentResults"`
}

func (s *Service) StudentDashboard(ctx context.Context, studentID string) (StudentDashboard, error) {
	st, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return StudentDashboard{}, err
	}
	results, err := s.StudentResults(ctx, studentID)
	if err != nil {
		return StudentDashboard{}, err
	}

	d := StudentDashboard{
		Student:       st,
		OverallScore:  scoring.OverallScore(st.CompletedQuizzes),
		Assigned:      len(st.AssignedQuizIDs),
		Completed:     len(st.CompletedQuizzes),
		RecentResults: results,
	}
	d.Band = scoring.PerformanceBand(d.OverallScore)
	d.Pending = d.Assigned - d.Completed
	if len(d.RecentResults) > recentLimit {
		d.RecentResults = d.RecentResults[:recentLimit]
	}
	if st.TeacherID != "" {
		if t, err := s.store.GetUser(ctx, st.TeacherID); err == nil {
			d.TeacherName = t.Name
		}
	}
	return d, nil
}
