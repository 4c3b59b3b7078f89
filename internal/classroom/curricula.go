package classroom

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/generator"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// CurriculumInput is the editable part of a curriculum.
type CurriculumInput struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Modules     []quiz.Module `json:"modules"`
}

func (in CurriculumInput) clean() (CurriculumInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return in, errors.InvalidArgument("curriculum title is required")
	}

	modules := make([]quiz.Module, 0, len(in.Modules))
	for i, m := range in.Modules {
		m.Title = strings.TrimSpace(m.Title)
		if m.Title == "" {
			return in, errors.InvalidArgument("module %d has no title", i+1)
		}
		topics := make([]quiz.Topic, 0, len(m.Topics))
		for _, t := range m.Topics {
			t.Title = strings.TrimSpace(t.Title)
			if t.Title == "" {
				continue
			}
			topics = append(topics, t)
		}
		m.Topics = topics
		modules = append(modules, m)
	}
	in.Modules = modules
	return in, nil
}

func (s *Service) ListCurricula(ctx context.Context, teacherID string) ([]quiz.Curriculum, error) {
	return s.store.ListCurriculaByTeacher(ctx, teacherID)
}

func (s *Service) GetCurriculum(ctx context.Context, teacherID, id string) (quiz.Curriculum, error) {
	return s.ownedCurriculum(ctx, teacherID, id)
}

// CreateCurriculum stores a new curriculum owned by the teacher. Modules and topics without an
// id get one.
func (s *Service) CreateCurriculum(ctx context.Context, teacherID string, in CurriculumInput) (quiz.Curriculum, error) {
	in, err := in.clean()
	if err != nil {
		return quiz.Curriculum{}, err
	}

	now := s.now()
	c := quiz.Curriculum{
		ID:          uuid.NewString(),
		TeacherID:   teacherID,
		Title:       in.Title,
		Description: in.Description,
		Modules:     in.Modules,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.EnsureIDs()
	if err := s.store.CreateCurriculum(ctx, c); err != nil {
		return quiz.Curriculum{}, err
	}
	return c, nil
}

// UpdateCurriculum replaces the title, description and modules of a teacher's curriculum.
func (s *Service) UpdateCurriculum(ctx context.Context, teacherID, id string, in CurriculumInput) (quiz.Curriculum, error) {
	c, err := s.ownedCurriculum(ctx, teacherID, id)
	if err != nil {
		return quiz.Curriculum{}, err
	}
	in, err = in.clean()
	if err != nil {
		return quiz.Curriculum{}, err
	}

	c.Title = in.Title
	c.Description = in.Description
	c.Modules = in.Modules
	c.UpdatedAt = s.now()
	c.EnsureIDs()
	if err := s.store.UpdateCurriculum(ctx, c); err != nil {
		return quiz.Curriculum{}, err
	}
	return c, nil
}

// GenerateRequest asks for questions on selected topics of a curriculum.
type GenerateRequest struct {
	CurriculumID string   `json:"curriculumId"`
	TopicIDs     []string `json:"topicIds"`
	NumQuestions int      `json:"numQuestions"`
	Language     string   `json:"language"`
}

// GenerateQuestions resolves the selected topics in the teacher's curriculum and generates
// questions for them. Nothing is stored; the teacher reviews the draft before creating a quiz.
func (s *Service) GenerateQuestions(ctx context.Context, teacherID string, req GenerateRequest) ([]quiz.QuizQuestion, error) {
	if s.generator == nil {
		return nil, errors.Unavailable("question generation is not configured")
	}
	c, err := s.ownedCurriculum(ctx, teacherID, req.CurriculumID)
	if err != nil {
		return nil, err
	}
	topics := c.TopicsByID(req.TopicIDs)
	if len(topics) == 0 {
		return nil, errors.InvalidArgument("select at least one topic of curriculum %s", c.ID)
	}
	return s.generator.GenerateQuestions(ctx, teacherID, generator.QuestionRequest{
		Topics:       topics,
		NumQuestions: req.NumQuestions,
		Language:     req.Language,
	})
}
