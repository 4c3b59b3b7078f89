package classroom

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/analytics"
	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/generator"
	"github.com/p-n-ai/pai-quiz/internal/live"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

var base = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu       sync.Mutex
	messages map[string][]live.Message
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, msg live.Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.messages == nil {
		p.messages = make(map[string][]live.Message)
	}
	p.messages[channel] = append(p.messages[channel], msg)
}

func (p *recordingPublisher) on(channel string) []live.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]live.Message{}, p.messages[channel]...)
}

type fakeGenerator struct {
	got       generator.QuestionRequest
	questions []quiz.QuizQuestion
	err       error
}

func (g *fakeGenerator) GenerateQuestions(_ context.Context, _ string, req generator.QuestionRequest) ([]quiz.QuizQuestion, error) {
	g.got = req
	return g.questions, g.err
}

type fixture struct {
	svc    *Service
	store  *store.MemoryStore
	events *analytics.MemoryEventLogger
	live   *recordingPublisher
	gen    *fakeGenerator
	clock  time.Time
}

// newFixture creates teacher t1 with students s1 and s2, teacher t2 with student s3, and a
// curriculum c1 owned by t1.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()

	users := []struct {
		u       quiz.User
		teacher string
	}{
		{quiz.User{ID: "t1", Name: "Cikgu Aminah", Email: "t1@school.my", Role: quiz.RoleTeacher, CreatedAt: base}, ""},
		{quiz.User{ID: "t2", Name: "Mr Tan", Email: "t2@school.my", Role: quiz.RoleTeacher, CreatedAt: base}, ""},
		{quiz.User{ID: "s1", Name: "Ali", Email: "s1@school.my", Role: quiz.RoleStudent, CreatedAt: base.Add(time.Minute)}, "t1"},
		{quiz.User{ID: "s2", Name: "Mei", Email: "s2@school.my", Role: quiz.RoleStudent, CreatedAt: base.Add(2 * time.Minute)}, "t1"},
		{quiz.User{ID: "s3", Name: "Raj", Email: "s3@school.my", Role: quiz.RoleStudent, CreatedAt: base.Add(3 * time.Minute)}, "t2"},
	}
	for _, u := range users {
		if err := st.CreateUser(ctx, u.u, u.teacher); err != nil {
			t.Fatalf("CreateUser(%s) error = %v", u.u.ID, err)
		}
	}

	f := &fixture{
		store:  st,
		events: analytics.NewMemoryEventLogger(),
		live:   &recordingPublisher{},
		gen:    &fakeGenerator{},
		clock:  base.Add(time.Hour),
	}
	f.svc = New(Config{Store: st, Generator: f.gen, Events: f.events, Live: f.live})
	f.svc.now = func() time.Time { return f.clock }

	c := quiz.Curriculum{
		ID: "c1", TeacherID: "t1", Title: "Form 1 Science", CreatedAt: base, UpdatedAt: base,
		Modules: []quiz.Module{{ID: "m1", Title: "Matter", Topics: []quiz.Topic{
			{ID: "tp1", Title: "States of matter"},
			{ID: "tp2", Title: "Density"},
		}}},
	}
	if err := st.CreateCurriculum(ctx, c); err != nil {
		t.Fatalf("CreateCurriculum() error = %v", err)
	}
	return f
}

func intp(v int) *int { return &v }

func twoQuestions() []QuestionInput {
	return []QuestionInput{
		{ID: "q1", Question: "Ice is?", Options: []string{"Solid", "Liquid", "Gas", "Plasma"}, CorrectOptionIndex: intp(0)},
		{ID: "q2", Question: "Steam is?", Options: []string{"Solid", "Liquid", "Gas", "Plasma"}, CorrectAnswer: intp(2)},
	}
}

func (f *fixture) createQuiz(t *testing.T, students ...string) quiz.Quiz {
	t.Helper()
	q, err := f.svc.CreateQuiz(context.Background(), "t1", CreateQuizRequest{
		CurriculumID: "c1",
		TopicIDs:     []string{"tp2", "tp1"},
		Title:        "Matter check",
		Language:     "ms",
		Questions:    twoQuestions(),
		StudentIDs:   students,
	})
	if err != nil {
		t.Fatalf("CreateQuiz() error = %v", err)
	}
	return q
}

func wantCode(t *testing.T, err error, code errors.Code) {
	t.Helper()
	if !errors.Is(err, code) {
		t.Fatalf("error = %v, want %s", err, code)
	}
}
