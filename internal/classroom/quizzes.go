package classroom

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-quiz/internal/analytics"
	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/generator"
	"github.com/p-n-ai/pai-quiz/internal/live"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/scoring"
)

// QuestionInput is a question as sent by the client. Older clients name the answer key
// correctAnswer; CorrectOptionIndex wins when both are present.
type QuestionInput struct {
	ID                 string   `json:"id"`
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectOptionIndex *int     `json:"correctOptionIndex"`
	CorrectAnswer      *int     `json:"correctAnswer"`
	Explanation        string   `json:"explanation"`
}

func (in QuestionInput) toQuestion() (quiz.QuizQuestion, error) {
	idx := in.CorrectOptionIndex
	if idx == nil {
		idx = in.CorrectAnswer
	}
	if idx == nil {
		return quiz.QuizQuestion{}, fmt.Errorf("correct option is missing")
	}

	q := quiz.QuizQuestion{
		ID:                 in.ID,
		Question:           strings.TrimSpace(in.Question),
		Options:            make([]string, len(in.Options)),
		CorrectOptionIndex: *idx,
		Explanation:        strings.TrimSpace(in.Explanation),
	}
	for i, o := range in.Options {
		q.Options[i] = strings.TrimSpace(o)
	}
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return q, q.Validate()
}

// CreateQuizRequest describes a quiz to store and assign.
type CreateQuizRequest struct {
	CurriculumID string          `json:"curriculumId"`
	TopicIDs     []string        `json:"topicIds"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Language     string          `json:"language"`
	Questions    []QuestionInput `json:"questions"`
	StudentIDs   []string        `json:"studentIds"`
}

// CreateQuiz validates the quiz, stores it and assigns it to every listed student in one step.
// Students must be on the teacher's roster.
func (s *Service) CreateQuiz(ctx context.Context, teacherID string, req CreateQuizRequest) (quiz.Quiz, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return quiz.Quiz{}, errors.InvalidArgument("quiz title is required")
	}
	if len(req.Questions) == 0 {
		return quiz.Quiz{}, errors.InvalidArgument("a quiz needs at least one question")
	}
	studentIDs := dedupe(req.StudentIDs)
	if len(studentIDs) == 0 {
		return quiz.Quiz{}, errors.InvalidArgument("assign the quiz to at least one student")
	}

	questions := make([]quiz.QuizQuestion, 0, len(req.Questions))
	seen := make(map[string]bool, len(req.Questions))
	for i, in := range req.Questions {
		q, err := in.toQuestion()
		if err != nil {
			return quiz.Quiz{}, errors.InvalidArgument("question %d: %v", i+1, err)
		}
		if seen[q.ID] {
			return quiz.Quiz{}, errors.InvalidArgument("question %d: duplicate id %s", i+1, q.ID)
		}
		seen[q.ID] = true
		questions = append(questions, q)
	}

	roster, err := s.store.ListStudentsByTeacher(ctx, teacherID)
	if err != nil {
		return quiz.Quiz{}, err
	}
	mine := make(map[string]bool, len(roster))
	for _, st := range roster {
		mine[st.ID] = true
	}
	for _, id := range studentIDs {
		if !mine[id] {
			return quiz.Quiz{}, errors.InvalidArgument("student %s is not in your class", id)
		}
	}

	var topics []quiz.TopicRef
	if req.CurriculumID != "" {
		c, err := s.ownedCurriculum(ctx, teacherID, req.CurriculumID)
		if err != nil {
			return quiz.Quiz{}, err
		}
		for _, t := range c.TopicsByID(req.TopicIDs) {
			topics = append(topics, quiz.TopicRef{ID: t.ID, Title: t.Title})
		}
	}
	if topics == nil {
		topics = []quiz.TopicRef{}
	}

	q := quiz.Quiz{
		ID:           uuid.NewString(),
		CurriculumID: req.CurriculumID,
		Topics:       topics,
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		Language:     generator.NormalizeLanguage(req.Language),
		Questions:    questions,
		CreatedBy:    teacherID,
		AssignedTo:   studentIDs,
		CreatedAt:    s.now(),
	}
	if err := s.store.CreateQuiz(ctx, q); err != nil {
		return quiz.Quiz{}, err
	}

	slog.Info("quiz created", "quiz_id", q.ID, "teacher_id", teacherID, "questions", len(q.Questions), "students", len(studentIDs))
	analytics.Log(ctx, s.events, analytics.Event{
		UserID:    teacherID,
		EventType: analytics.QuizCreated,
		Data:      map[string]any{"quiz_id": q.ID, "questions": len(q.Questions), "students": len(studentIDs)},
	})
	for _, id := range studentIDs {
		s.live.Publish(ctx, id, live.Message{
			Type: live.TypeQuizAssigned,
			Data: map[string]any{"quizId": q.ID, "title": q.Title},
		})
	}
	return q, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// QuizSummary is a teacher's quiz with completion figures.
type QuizSummary struct {
	quiz.Quiz
	Completed int `json:"completed"`
	Average   int `json:"average"`
}

// ListQuizzes returns the teacher's quizzes, newest first, with completion counts.
func (s *Service) ListQuizzes(ctx context.Context, teacherID string) ([]QuizSummary, error) {
	quizzes, err := s.store.ListQuizzesByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}
	roster, err := s.store.ListStudentsByTeacher(ctx, teacherID)
	if err != nil {
		return nil, err
	}

	out := make([]QuizSummary, 0, len(quizzes))
	for _, q := range quizzes {
		results := make(map[string]quiz.QuizResult)
		for _, st := range roster {
			if r, ok := st.CompletedQuizzes[q.ID]; ok {
				results[st.ID] = r
			}
		}
		out = append(out, QuizSummary{Quiz: q, Completed: len(results), Average: scoring.OverallScore(results)})
	}
	return out, nil
}

func (s *Service) GetQuiz(ctx context.Context, teacherID, quizID string) (quiz.Quiz, error) {
	return s.ownedQuiz(ctx, teacherID, quizID)
}

// StudentResult is one student's row in a quiz report.
type StudentResult struct {
	StudentID  string           `json:"studentId"`
	Name       string           `json:"name"`
	Completed  bool             `json:"completed"`
	Result     *quiz.QuizResult `json:"result,omitempty"`
	Percentage int              `json:"percentage"`
	Band       string           `json:"band,omitempty"`
}

// QuizReport summarises how a class did on one quiz.
type QuizReport struct {
	Quiz     quiz.Quiz          `json:"quiz"`
	Students []StudentResult    `json:"students"`
	Class    scoring.ClassStats `json:"class"`
}

// QuizResults reports every assigned student's result for a teacher's quiz. Class figures
// count only students who completed it.
func (s *Service) QuizResults(ctx context.Context, teacherID, quizID string) (QuizReport, error) {
	q, err := s.ownedQuiz(ctx, teacherID, quizID)
	if err != nil {
		return QuizReport{}, err
	}
	results, err := s.store.ListResultsByQuiz(ctx, quizID)
	if err != nil {
		return QuizReport{}, err
	}
	byStudent := make(map[string]quiz.QuizResult, len(results))
	for _, r := range results {
		byStudent[r.StudentID] = r
	}

	roster, err := s.store.ListStudentsByTeacher(ctx, teacherID)
	if err != nil {
		return QuizReport{}, err
	}
	names := make(map[string]string, len(roster))
	for _, st := range roster {
		names[st.ID] = st.Name
	}

	report := QuizReport{Quiz: q, Students: make([]StudentResult, 0, len(q.AssignedTo))}
	var percentages []int
	for _, id := range q.AssignedTo {
		row := StudentResult{StudentID: id, Name: names[id]}
		if r, ok := byStudent[id]; ok {
			row.Completed = true
			row.Result = &r
			row.Percentage = r.Percentage()
			row.Band = scoring.PerformanceBand(row.Percentage)
			percentages = append(percentages, row.Percentage)
		}
		report.Students = append(report.Students, row)
	}
	sort.SliceStable(report.Students, func(i, j int) bool {
		return report.Students[i].Percentage > report.Students[j].Percentage
	})

	report.Class = scoring.ClassAggregate(percentages, len(percentages), len(q.AssignedTo))
	return report, nil
}
