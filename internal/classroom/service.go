// Package classroom implements the teacher and student use cases: curricula, quiz authoring and
// assignment, quiz taking and the dashboards built on top of the results.
package classroom

import (
	"context"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/analytics"
	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/generator"
	"github.com/p-n-ai/pai-quiz/internal/live"
	"github.com/p-n-ai/pai-quiz/internal/platform/metrics"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/store"
)

// fetchConcurrency bounds parallel quiz loads for one student.
const fetchConcurrency = 8

// QuestionGenerator produces questions for a set of topics.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, teacherID string, req generator.QuestionRequest) ([]quiz.QuizQuestion, error)
}

// Config wires the service. Store is required; the rest default to no-ops.
type Config struct {
	Store     store.Store
	Generator QuestionGenerator
	Events    analytics.EventLogger
	Live      live.Publisher
	Metrics   *metrics.Metrics
}

type Service struct {
	store     store.Store
	generator QuestionGenerator
	events    analytics.EventLogger
	live      live.Publisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

func New(c Config) *Service {
	s := &Service{
		store:     c.Store,
		generator: c.Generator,
		events:    c.Events,
		live:      c.Live,
		metrics:   c.Metrics,
		now:       time.Now,
	}
	if s.events == nil {
		s.events = analytics.NopEventLogger{}
	}
	if s.live == nil {
		s.live = live.NopPublisher{}
	}
	return s
}

// ownedCurriculum loads a curriculum and checks the teacher owns it.
func (s *Service) ownedCurriculum(ctx context.Context, teacherID, id string) (quiz.Curriculum, error) {
	c, err := s.store.GetCurriculum(ctx, id)
	if err != nil {
		return quiz.Curriculum{}, err
	}
	if c.TeacherID != teacherID {
		return quiz.Curriculum{}, errors.PermissionDenied("curriculum %s belongs to another teacher", id)
	}
	return c, nil
}

// ownedQuiz loads a quiz and checks the teacher created it.
func (s *Service) ownedQuiz(ctx context.Context, teacherID, id string) (quiz.Quiz, error) {
	q, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return quiz.Quiz{}, err
	}
	if q.CreatedBy != teacherID {
		return quiz.Quiz{}, errors.PermissionDenied("quiz %s belongs to another teacher", id)
	}
	return q, nil
}
