package quiz_test

import (
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

func validQuestion() quiz.QuizQuestion {
	return quiz.QuizQuestion{
		ID:                 "q1",
		Question:           "2 + 2 = ?",
		Options:            []string{"3", "4", "5", "22"},
		CorrectOptionIndex: 1,
		Explanation:        "Basic addition.",
	}
}

func TestQuizQuestion_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(q *quiz.QuizQuestion)
		wantErr bool
	}{
		{"valid", func(q *quiz.QuizQuestion) {}, false},
		{"blank question", func(q *quiz.QuizQuestion) { q.Question = "  " }, true},
		{"three options", func(q *quiz.QuizQuestion) { q.Options = q.Options[:3] }, true},
		{"blank option", func(q *quiz.QuizQuestion) { q.Options[2] = " " }, true},
		{"negative index", func(q *quiz.QuizQuestion) { q.CorrectOptionIndex = -1 }, true},
		{"index too large", func(q *quiz.QuizQuestion) { q.CorrectOptionIndex = 4 }, true},
		{"last index", func(q *quiz.QuizQuestion) { q.CorrectOptionIndex = 3 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validQuestion()
			tt.mutate(&q)
			err := q.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuiz_WithoutAnswers(t *testing.T) {
	q := quiz.Quiz{
		ID:         "quiz-1",
		Questions:  []quiz.QuizQuestion{validQuestion()},
		AssignedTo: []string{"s1", "s2"},
	}

	hidden := q.WithoutAnswers()

	if got := hidden.Questions[0].CorrectOptionIndex; got != quiz.Unanswered {
		t.Errorf("CorrectOptionIndex = %d, want %d", got, quiz.Unanswered)
	}
	if hidden.Questions[0].Explanation != "" {
		t.Error("explanation should be blanked")
	}
	if hidden.AssignedTo != nil {
		t.Error("assignment list should not be exposed")
	}
	if q.Questions[0].CorrectOptionIndex != 1 {
		t.Error("input quiz should be untouched")
	}

	hidden.Questions[0].Options[0] = "changed"
	if q.Questions[0].Options[0] != "3" {
		t.Error("options should be copied, not shared")
	}
}

func TestQuiz_AnswerKeyAndAssignment(t *testing.T) {
	q := quiz.Quiz{
		Questions:  []quiz.QuizQuestion{validQuestion()},
		AssignedTo: []string{"s1"},
	}

	if key := q.AnswerKey(); key["q1"] != 1 || len(key) != 1 {
		t.Errorf("AnswerKey() = %v", key)
	}
	if !q.IsAssignedTo("s1") {
		t.Error("s1 should be assigned")
	}
	if q.IsAssignedTo("s2") {
		t.Error("s2 should not be assigned")
	}
}

func TestQuizResult_Percentage(t *testing.T) {
	tests := []struct {
		score, total, want int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{5, 5, 100},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds up
	}
	for _, tt := range tests {
		r := quiz.QuizResult{Score: tt.score, TotalQuestions: tt.total}
		if got := r.Percentage(); got != tt.want {
			t.Errorf("Percentage(%d/%d) = %d, want %d", tt.score, tt.total, got, tt.want)
		}
	}
}

func TestCurriculum_Topics(t *testing.T) {
	c := quiz.Curriculum{
		Modules: []quiz.Module{
			{Title: "Algebra", Topics: []quiz.Topic{{ID: "t1", Title: "Linear Equations"}, {ID: "t2", Title: "Quadratics"}}},
			{Title: "Geometry", Topics: []quiz.Topic{{Title: "Triangles"}}},
		},
	}

	if got := c.TopicCount(); got != 3 {
		t.Errorf("TopicCount() = %d, want 3", got)
	}

	c.EnsureIDs()
	for _, m := range c.Modules {
		if m.ID == "" {
			t.Errorf("module %q has no id", m.Title)
		}
	}
	all := c.AllTopics()
	if all[0].ID != "t1" {
		t.Errorf("existing topic id changed to %q", all[0].ID)
	}
	if all[2].ID == "" {
		t.Error("missing topic id was not assigned")
	}

	got := c.TopicsByID([]string{"t2", "unknown", "t1"})
	if len(got) != 2 || got[0].ID != "t1" || got[1].ID != "t2" {
		t.Errorf("TopicsByID() = %+v, want t1,t2 in curriculum order", got)
	}
}

func TestStudent_HasCompleted(t *testing.T) {
	s := quiz.Student{
		AssignedQuizIDs:  []string{"a", "b"},
		CompletedQuizzes: map[string]quiz.QuizResult{"a": {QuizID: "a"}},
	}
	if !s.HasCompleted("a") || s.HasCompleted("b") {
		t.Error("HasCompleted mismatch")
	}
	if !s.IsAssigned("b") || s.IsAssigned("c") {
		t.Error("IsAssigned mismatch")
	}
	if !quiz.RoleTeacher.Valid() || quiz.Role("admin").Valid() {
		t.Error("Role.Valid mismatch")
	}
}
