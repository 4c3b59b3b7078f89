package classroom

import (
	"context"
	"testing"

	"github.com/p-n-ai/pai-quiz/internal/analytics"
	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/live"
)

func TestCreateQuiz(t *testing.T) {
	f := newFixture(t)
	q := f.createQuiz(t, "s1", "s2", "s1")

	if q.Language != "Malay" {
		t.Errorf("Language = %q, want Malay", q.Language)
	}
	if len(q.AssignedTo) != 2 {
		t.Errorf("AssignedTo = %v, want deduplicated [s1 s2]", q.AssignedTo)
	}
	if q.Questions[1].CorrectOptionIndex != 2 {
		t.Errorf("correctAnswer was not adapted: %+v", q.Questions[1])
	}
	if len(q.Topics) != 2 || q.Topics[0].ID != "tp1" {
		t.Errorf("Topics = %+v, want curriculum order", q.Topics)
	}

	for _, sid := range []string{"s1", "s2"} {
		st, err := f.store.GetStudent(context.Background(), sid)
		if err != nil || !st.IsAssigned(q.ID) {
			t.Errorf("student %s not assigned: %v", sid, err)
		}
		msgs := f.live.on(sid)
		if len(msgs) != 1 || msgs[0].Type != live.TypeQuizAssigned {
			t.Errorf("live messages for %s = %+v", sid, msgs)
		}
	}
	if len(f.events.OfType(analytics.QuizCreated)) != 1 {
		t.Error("expected a quiz_created event")
	}
}

func TestCreateQuiz_Invalid(t *testing.T) {
	valid := func() CreateQuizRequest {
		return CreateQuizRequest{Title: "Quiz", Questions: twoQuestions(), StudentIDs: []string{"s1"}}
	}

	tests := []struct {
		name     string
		mutate   func(*CreateQuizRequest)
		wantCode errors.Code
	}{
		{"no title", func(r *CreateQuizRequest) { r.Title = "  " }, errors.CodeInvalidArgument},
		{"no questions", func(r *CreateQuizRequest) { r.Questions = nil }, errors.CodeInvalidArgument},
		{"no students", func(r *CreateQuizRequest) { r.StudentIDs = []string{" "} }, errors.CodeInvalidArgument},
		{"other teacher's student", func(r *CreateQuizRequest) { r.StudentIDs = []string{"s1", "s3"} }, errors.CodeInvalidArgument},
		{"three options", func(r *CreateQuizRequest) { r.Questions[0].Options = []string{"a", "b", "c"} }, errors.CodeInvalidArgument},
		{"blank option", func(r *CreateQuizRequest) { r.Questions[0].Options[3] = " " }, errors.CodeInvalidArgument},
		{"index out of range", func(r *CreateQuizRequest) { r.Questions[0].CorrectOptionIndex = intp(4) }, errors.CodeInvalidArgument},
		{"missing answer key", func(r *CreateQuizRequest) { r.Questions[0].CorrectOptionIndex = nil }, errors.CodeInvalidArgument},
		{"duplicate question id", func(r *CreateQuizRequest) { r.Questions[1].ID = "q1" }, errors.CodeInvalidArgument},
		{"foreign curriculum", func(r *CreateQuizRequest) { r.CurriculumID = "c1" }, errors.CodePermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := valid()
			tt.mutate(&req)

			teacher := "t1"
			if tt.name == "foreign curriculum" {
				teacher = "t2"
				req.StudentIDs = []string{"s3"}
			}
			_, err := f.svc.CreateQuiz(context.Background(), teacher, req)
			wantCode(t, err, tt.wantCode)

			quizzes, _ := f.store.ListQuizzesByTeacher(context.Background(), teacher)
			if len(quizzes) != 0 {
				t.Errorf("quiz stored despite error: %+v", quizzes)
			}
		})
	}
}

func TestQuizResults(t *testing.T) {
	f := newFixture(t)
	q := f.createQuiz(t, "s1", "s2")

	if _, err := f.svc.Submit(context.Background(), "s2", q.ID, map[string]int{"q1": 0, "q2": 2}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	report, err := f.svc.QuizResults(context.Background(), "t1", q.ID)
	if err != nil {
		t.Fatalf("QuizResults() error = %v", err)
	}
	if len(report.Students) != 2 || report.Students[0].StudentID != "s2" || !report.Students[0].Completed {
		t.Fatalf("Students = %+v", report.Students)
	}
	if report.Students[0].Percentage != 100 || report.Students[1].Completed {
		t.Errorf("Students = %+v", report.Students)
	}
	if report.Class.Average != 100 || report.Class.CompletionRate != 50 {
		t.Errorf("Class = %+v, want average 100 and completion 50", report.Class)
	}

	_, err = f.svc.QuizResults(context.Background(), "t2", q.ID)
	wantCode(t, err, errors.CodePermissionDenied)

	summaries, err := f.svc.ListQuizzes(context.Background(), "t1")
	if err != nil {
		t.Fatalf("ListQuizzes() error = %v", err)
	}
	if len(summaries) != 1 || summaries[0].Completed != 1 || summaries[0].Average != 100 {
		t.Errorf("ListQuizzes() = %+v", summaries)
	}
}
