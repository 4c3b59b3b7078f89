package scoring_test

import (
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/scoring"
)

func TestClassAggregate(t *testing.T) {
	tests := []struct {
		name       string
		perStudent []int
		completed  int
		total      int
		want       scoring.ClassStats
	}{
		{"empty class", nil, 0, 0, scoring.ClassStats{}},
		{"no completions", []int{0, 0}, 0, 2, scoring.ClassStats{}},
		{"mixed", []int{80, 0, 55}, 2, 3, scoring.ClassStats{Average: 45, Max: 80, CompletionRate: 67}},
		{"average rounds half up", []int{50, 51}, 2, 2, scoring.ClassStats{Average: 51, Max: 51, CompletionRate: 100}},
		{"single", []int{33}, 1, 4, scoring.ClassStats{Average: 33, Max: 33, CompletionRate: 25}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scoring.ClassAggregate(tt.perStudent, tt.completed, tt.total)
			if got != tt.want {
				t.Errorf("ClassAggregate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRoster(t *testing.T) {
	students := []quiz.Student{
		{
			User:            quiz.User{ID: "s1", Name: "Aisyah"},
			AssignedQuizIDs: []string{"a", "b"},
			CompletedQuizzes: map[string]quiz.QuizResult{
				"a": {Score: 4, TotalQuestions: 5},
				"b": {Score: 5, TotalQuestions: 5},
			},
		},
		{
			User:            quiz.User{ID: "s2", Name: "Ben"},
			AssignedQuizIDs: []string{"a"},
			CompletedQuizzes: map[string]quiz.QuizResult{
				"a": {Score: 1, TotalQuestions: 5},
			},
		},
		{
			User:            quiz.User{ID: "s3", Name: "Chen"},
			AssignedQuizIDs: []string{"a"},
		},
	}

	r := scoring.Roster(students)

	rows := r.ByStudent()
	if rows["s1"].Percentage != 90 || rows["s1"].Band != scoring.BandGood {
		t.Errorf("s1 = %+v", rows["s1"])
	}
	if rows["s2"].Percentage != 20 || rows["s2"].Band != scoring.BandPoor {
		t.Errorf("s2 = %+v", rows["s2"])
	}
	if rows["s3"].Percentage != 0 || rows["s3"].Completed != 0 {
		t.Errorf("s3 = %+v", rows["s3"])
	}

	want := scoring.ClassStats{Average: 37, Max: 90, CompletionRate: 67}
	if r.Class != want {
		t.Errorf("Class = %+v, want %+v", r.Class, want)
	}
	if r.TotalAssignedQuizzes != 4 || r.TotalCompletedQuizzes != 3 {
		t.Errorf("totals = %d assigned, %d completed", r.TotalAssignedQuizzes, r.TotalCompletedQuizzes)
	}
}

func TestPerformanceBand(t *testing.T) {
	tests := []struct {
		pct  int
		want string
	}{
		{100, scoring.BandGood},
		{70, scoring.BandGood},
		{69, scoring.BandFair},
		{40, scoring.BandFair},
		{39, scoring.BandPoor},
		{0, scoring.BandPoor},
	}
	for _, tt := range tests {
		if got := scoring.PerformanceBand(tt.pct); got != tt.want {
			t.Errorf("PerformanceBand(%d) = %q, want %q", tt.pct, got, tt.want)
		}
	}
}
