package store

import (
	"context"
	"testing"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

// seedClassroom creates one teacher with two students and a curriculum.
func seedClassroom(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	users := []struct {
		user    quiz.User
		teacher string
	}{
		{quiz.User{ID: "t1", Name: "Cikgu Aminah", Email: "aminah@school.my", Role: quiz.RoleTeacher, PasswordHash: "x", CreatedAt: base}, ""},
		{quiz.User{ID: "s1", Name: "Ali", Email: "ali@school.my", Role: quiz.RoleStudent, PasswordHash: "x", CreatedAt: base.Add(time.Minute)}, "t1"},
		{quiz.User{ID: "s2", Name: "Mei", Email: "mei@school.my", Role: quiz.RoleStudent, PasswordHash: "x", CreatedAt: base.Add(2 * time.Minute)}, "t1"},
	}
	for _, u := range users {
		if err := s.CreateUser(ctx, u.user, u.teacher); err != nil {
			t.Fatalf("CreateUser(%s) error = %v", u.user.ID, err)
		}
	}

	c := quiz.Curriculum{
		ID:        "c1",
		TeacherID: "t1",
		Title:     "Form 1 Science",
		Modules: []quiz.Module{{
			ID:     "m1",
			Title:  "Matter",
			Topics: []quiz.Topic{{ID: "tp1", Title: "States of matter"}},
		}},
		CreatedAt: base,
		UpdatedAt: base,
	}
	if err := s.CreateCurriculum(ctx, c); err != nil {
		t.Fatalf("CreateCurriculum() error = %v", err)
	}
}

func sampleQuiz(id string, createdAt time.Time, assigned ...string) quiz.Quiz {
	return quiz.Quiz{
		ID:           id,
		CurriculumID: "c1",
		Topics:       []quiz.TopicRef{{ID: "tp1", Title: "States of matter"}},
		Title:        "Matter check",
		Language:     "English",
		Questions: []quiz.QuizQuestion{
			{ID: "q1", Question: "Ice is?", Options: []string{"Solid", "Liquid", "Gas", "Plasma"}, CorrectOptionIndex: 0},
			{ID: "q2", Question: "Steam is?", Options: []string{"Solid", "Liquid", "Gas", "Plasma"}, CorrectOptionIndex: 2, Explanation: "Water vapour"},
		},
		CreatedBy:  "t1",
		AssignedTo: assigned,
		CreatedAt:  createdAt,
	}
}

func wantCode(t *testing.T, err error, code errors.Code) {
	t.Helper()
	if !errors.Is(err, code) {
		t.Fatalf("error = %v, want code %s", err, code)
	}
}

// testStore runs the behaviour every Store implementation must share.
func testStore(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("users", func(t *testing.T) {
		s := newStore(t)
		seedClassroom(t, s)
		ctx := context.Background()

		u, err := s.GetUserByEmail(ctx, "ali@school.my")
		if err != nil {
			t.Fatalf("GetUserByEmail() error = %v", err)
		}
		if u.ID != "s1" || u.Role != quiz.RoleStudent {
			t.Errorf("GetUserByEmail() = %+v", u)
		}

		err = s.CreateUser(ctx, quiz.User{ID: "s9", Email: "ali@school.my", Role: quiz.RoleStudent, PasswordHash: "x"}, "t1")
		wantCode(t, err, errors.CodeAlreadyExists)

		err = s.CreateUser(ctx, quiz.User{ID: "s8", Email: "new@school.my", Role: quiz.RoleStudent, PasswordHash: "x"}, "nobody")
		wantCode(t, err, errors.CodeNotFound)

		_, err = s.GetUser(ctx, "missing")
		wantCode(t, err, errors.CodeNotFound)

		teacher, err := s.GetTeacher(ctx, "t1")
		if err != nil {
			t.Fatalf("GetTeacher() error = %v", err)
		}
		if len(teacher.StudentIDs) != 2 || teacher.StudentIDs[0] != "s1" || teacher.StudentIDs[1] != "s2" {
			t.Errorf("StudentIDs = %v, want [s1 s2]", teacher.StudentIDs)
		}
		if len(teacher.CurriculumIDs) != 1 || teacher.CurriculumIDs[0] != "c1" {
			t.Errorf("CurriculumIDs = %v, want [c1]", teacher.CurriculumIDs)
		}

		_, err = s.GetTeacher(ctx, "s1")
		wantCode(t, err, errors.CodeNotFound)
		_, err = s.GetStudent(ctx, "t1")
		wantCode(t, err, errors.CodeNotFound)
	})

	t.Run("curricula", func(t *testing.T) {
		s := newStore(t)
		seedClassroom(t, s)
		ctx := context.Background()

		c, err := s.GetCurriculum(ctx, "c1")
		if err != nil {
			t.Fatalf("GetCurriculum() error = %v", err)
		}
		if c.TopicCount() != 1 || c.Modules[0].Topics[0].Title != "States of matter" {
			t.Errorf("GetCurriculum() modules = %+v", c.Modules)
		}

		c.Title = "Form 1 Science (revised)"
		c.Modules[0].Topics = append(c.Modules[0].Topics, quiz.Topic{ID: "tp2", Title: "Density"})
		c.UpdatedAt = base.Add(time.Hour)
		if err := s.UpdateCurriculum(ctx, c); err != nil {
			t.Fatalf("UpdateCurriculum() error = %v", err)
		}

		list, err := s.ListCurriculaByTeacher(ctx, "t1")
		if err != nil {
			t.Fatalf("ListCurriculaByTeacher() error = %v", err)
		}
		if len(list) != 1 || list[0].Title != "Form 1 Science (revised)" || list[0].TopicCount() != 2 {
			t.Errorf("ListCurriculaByTeacher() = %+v", list)
		}

		err = s.UpdateCurriculum(ctx, quiz.Curriculum{ID: "missing", UpdatedAt: base})
		wantCode(t, err, errors.CodeNotFound)

		err = s.CreateCurriculum(ctx, quiz.Curriculum{ID: "c2", TeacherID: "nobody", Title: "x", CreatedAt: base, UpdatedAt: base})
		wantCode(t, err, errors.CodeNotFound)

		empty, err := s.ListCurriculaByTeacher(ctx, "s1")
		if err != nil || empty == nil || len(empty) != 0 {
			t.Errorf("ListCurriculaByTeacher(student) = %v, %v; want empty slice", empty, err)
		}
	})

	t.Run("quiz assignment is atomic", func(t *testing.T) {
		s := newStore(t)
		seedClassroom(t, s)
		ctx := context.Background()

		err := s.CreateQuiz(ctx, sampleQuiz("qz1", base, "s1", "ghost"))
		wantCode(t, err, errors.CodeNotFound)

		_, err = s.GetQuiz(ctx, "qz1")
		wantCode(t, err, errors.CodeNotFound)
		st, err := s.GetStudent(ctx, "s1")
		if err != nil {
			t.Fatalf("GetStudent() error = %v", err)
		}
		if len(st.AssignedQuizIDs) != 0 {
			t.Errorf("AssignedQuizIDs = %v after failed create, want none", st.AssignedQuizIDs)
		}

		err = s.CreateQuiz(ctx, sampleQuiz("qz1", base, "s1", "t1"))
		wantCode(t, err, errors.CodeNotFound)
	})

	t.Run("quizzes and results", func(t *testing.T) {
		s := newStore(t)
		seedClassroom(t, s)
		ctx := context.Background()

		if err := s.CreateQuiz(ctx, sampleQuiz("qz1", base, "s1", "s2")); err != nil {
			t.Fatalf("CreateQuiz(qz1) error = %v", err)
		}
		if err := s.CreateQuiz(ctx, sampleQuiz("qz2", base.Add(time.Hour), "s1")); err != nil {
			t.Fatalf("CreateQuiz(qz2) error = %v", err)
		}
		wantCode(t, s.CreateQuiz(ctx, sampleQuiz("qz1", base)), errors.CodeAlreadyExists)

		q, err := s.GetQuiz(ctx, "qz1")
		if err != nil {
			t.Fatalf("GetQuiz() error = %v", err)
		}
		if len(q.Questions) != 2 || q.Questions[1].CorrectOptionIndex != 2 || q.Questions[1].Explanation != "Water vapour" {
			t.Errorf("GetQuiz() questions = %+v", q.Questions)
		}
		if len(q.AssignedTo) != 2 || !q.IsAssignedTo("s2") {
			t.Errorf("AssignedTo = %v, want [s1 s2]", q.AssignedTo)
		}

		quizzes, err := s.ListQuizzesByTeacher(ctx, "t1")
		if err != nil {
			t.Fatalf("ListQuizzesByTeacher() error = %v", err)
		}
		if len(quizzes) != 2 || quizzes[0].ID != "qz2" {
			t.Errorf("ListQuizzesByTeacher() order = %v, want newest first", quizIDs(quizzes))
		}

		first := quiz.QuizResult{QuizID: "qz1", StudentID: "s1", Score: 1, TotalQuestions: 2,
			Answers: map[string]int{"q1": 0, "q2": 1}, CompletedAt: base.Add(2 * time.Hour)}
		if err := s.UpsertResult(ctx, first); err != nil {
			t.Fatalf("UpsertResult() error = %v", err)
		}
		retake := first
		retake.Score = 2
		retake.Answers = map[string]int{"q1": 0, "q2": 2}
		retake.CompletedAt = base.Add(3 * time.Hour)
		if err := s.UpsertResult(ctx, retake); err != nil {
			t.Fatalf("UpsertResult(retake) error = %v", err)
		}

		r, err := s.GetResult(ctx, "qz1", "s1")
		if err != nil {
			t.Fatalf("GetResult() error = %v", err)
		}
		if r.Score != 2 || r.Answers["q2"] != 2 || !r.CompletedAt.Equal(retake.CompletedAt) {
			t.Errorf("GetResult() = %+v, want the retake", r)
		}

		byQuiz, err := s.ListResultsByQuiz(ctx, "qz1")
		if err != nil || len(byQuiz) != 1 {
			t.Errorf("ListResultsByQuiz() = %v, %v; want one result", byQuiz, err)
		}

		_, err = s.GetResult(ctx, "qz2", "s1")
		wantCode(t, err, errors.CodeNotFound)
		wantCode(t, s.UpsertResult(ctx, quiz.QuizResult{QuizID: "ghost", StudentID: "s1", Answers: map[string]int{}, CompletedAt: base}), errors.CodeNotFound)

		st, err := s.GetStudent(ctx, "s1")
		if err != nil {
			t.Fatalf("GetStudent() error = %v", err)
		}
		if len(st.AssignedQuizIDs) != 2 || !st.IsAssigned("qz2") {
			t.Errorf("AssignedQuizIDs = %v, want [qz1 qz2]", st.AssignedQuizIDs)
		}
		if !st.HasCompleted("qz1") || st.HasCompleted("qz2") {
			t.Errorf("CompletedQuizzes = %v", st.CompletedQuizzes)
		}

		roster, err := s.ListStudentsByTeacher(ctx, "t1")
		if err != nil {
			t.Fatalf("ListStudentsByTeacher() error = %v", err)
		}
		if len(roster) != 2 || roster[0].ID != "s1" || len(roster[1].AssignedQuizIDs) != 1 || len(roster[1].CompletedQuizzes) != 0 {
			t.Errorf("ListStudentsByTeacher() = %+v", roster)
		}
	})
}

func quizIDs(qs []quiz.Quiz) []string {
	ids := make([]string, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}
