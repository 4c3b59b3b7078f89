// Package generator turns curriculum content into topics and topics into quiz questions
// through the AI gateway.
package generator

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	stderrors "errors"
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/p-n-ai/pai-quiz/internal/ai"
	"github.com/p-n-ai/pai-quiz/internal/analytics"
	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/normalize"
	"github.com/p-n-ai/pai-quiz/internal/platform/cache"
	"github.com/p-n-ai/pai-quiz/internal/platform/metrics"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

const (
	DefaultQuestions   = 5
	MinContentLength   = 10
	defaultTimeout     = 60 * time.Second
	defaultMaxQuestion = 20
	defaultImageMIME   = "image/jpeg"
)

var dataURLPrefix = regexp.MustCompile(`^data:(image/[\w.+-]+);base64,`)

// Config wires the generator's collaborators. Only AI is required.
type Config struct {
	AI           ai.Completer
	Cache        cache.Store
	CacheTTL     time.Duration
	Budget       ai.BudgetChecker
	Events       analytics.EventLogger
	Metrics      *metrics.Metrics
	Model        string
	Timeout      time.Duration
	MaxQuestions int
}

// Service generates topics and questions.
type Service struct {
	ai           ai.Completer
	cache        cache.Store
	cacheTTL     time.Duration
	budget       ai.BudgetChecker
	events       analytics.EventLogger
	metrics      *metrics.Metrics
	model        string
	timeout      time.Duration
	maxQuestions int
}

func New(c Config) *Service {
	s := &Service{
		ai:           c.AI,
		cache:        c.Cache,
		cacheTTL:     c.CacheTTL,
		budget:       c.Budget,
		events:       c.Events,
		metrics:      c.Metrics,
		model:        c.Model,
		timeout:      c.Timeout,
		maxQuestions: c.MaxQuestions,
	}
	if s.timeout <= 0 {
		s.timeout = defaultTimeout
	}
	if s.maxQuestions <= 0 {
		s.maxQuestions = defaultMaxQuestion
	}
	if s.budget == nil {
		s.budget = ai.NewWindowBudget(0, 24*time.Hour, nil)
	}
	if s.events == nil {
		s.events = analytics.NopEventLogger{}
	}
	return s
}

// MaxQuestions is the upper bound accepted by GenerateQuestions.
func (s *Service) MaxQuestions() int {
	return s.maxQuestions
}

// TopicRequest carries curriculum text to extract topics from.
type TopicRequest struct {
	CurriculumTitle string `json:"curriculumTitle"`
	ModuleTitle     string `json:"moduleTitle"`
	Content         string `json:"content"`
}

// ExtractTopics asks the model for the main topics of a module description. An answer with no
// usable topics is not an error; the caller gets an empty list.
func (s *Service) ExtractTopics(ctx context.Context, teacherID string, req TopicRequest) ([]string, error) {
	content := strings.TrimSpace(req.Content)
	if utf8.RuneCountInString(content) < MinContentLength {
		return nil, errors.InvalidArgument("content must be at least %d characters", MinContentLength)
	}

	prompt := topicPrompt(strings.TrimSpace(req.CurriculumTitle), strings.TrimSpace(req.ModuleTitle), content)
	raw, cached, err := s.complete(ctx, teacherID, ai.TaskTopicExtraction, prompt, nil, func(raw string) bool {
		return len(normalize.Topics(raw)) > 0
	})
	if err != nil {
		return nil, err
	}
	return s.finishTopics(ctx, teacherID, ai.TaskTopicExtraction, raw, cached), nil
}

// ExtractTopicsFromImage sends a photographed curriculum page to a vision model. image is a
// data URL or bare base64; a bare payload is assumed to be JPEG.
func (s *Service) ExtractTopicsFromImage(ctx context.Context, teacherID, image string) ([]string, error) {
	img, err := parseImage(image)
	if err != nil {
		return nil, err
	}

	raw, cached, err := s.complete(ctx, teacherID, ai.TaskImageTopicExtraction, imageTopicPrompt(), &img, func(raw string) bool {
		return len(normalize.Topics(raw)) > 0
	})
	if err != nil {
		return nil, err
	}
	return s.finishTopics(ctx, teacherID, ai.TaskImageTopicExtraction, raw, cached), nil
}

func (s *Service) finishTopics(ctx context.Context, teacherID string, task ai.TaskType, raw string, cached bool) []string {
	topics := normalize.Topics(raw)
	switch {
	case len(topics) == 0:
		s.metrics.Generation(task.String(), metrics.OutcomeEmpty)
		s.failed(ctx, teacherID, task, "no topics found")
	case cached:
		s.metrics.Generation(task.String(), metrics.OutcomeCached)
	default:
		s.metrics.Generation(task.String(), metrics.OutcomeOK)
	}
	if len(topics) > 0 {
		analytics.Log(ctx, s.events, analytics.Event{
			UserID:    teacherID,
			EventType: analytics.TopicsExtracted,
			Data:      map[string]any{"task": task.String(), "count": len(topics), "cached": cached},
		})
	}
	return topics
}

// QuestionRequest selects the topics and shape of a generated question set.
type QuestionRequest struct {
	Topics       []quiz.Topic
	NumQuestions int
	Language     string
}

// GenerateQuestions asks the model for multiple-choice questions. Zero usable questions is
// reported as a failed precondition so the caller can ask the teacher to retry.
func (s *Service) GenerateQuestions(ctx context.Context, teacherID string, req QuestionRequest) ([]quiz.QuizQuestion, error) {
	if len(req.Topics) == 0 {
		return nil, errors.InvalidArgument("select at least one topic")
	}
	n := req.NumQuestions
	if n == 0 {
		n = DefaultQuestions
	}
	if n < 1 || n > s.maxQuestions {
		return nil, errors.InvalidArgument("numQuestions must be between 1 and %d", s.maxQuestions)
	}
	lang := NormalizeLanguage(req.Language)

	task := ai.TaskQuizGeneration
	raw, cached, err := s.complete(ctx, teacherID, task, questionPrompt(req.Topics, n, lang), nil, func(raw string) bool {
		return len(normalize.Questions(raw)) > 0
	})
	if err != nil {
		return nil, err
	}

	questions := normalize.Questions(raw)
	if len(questions) == 0 {
		s.metrics.Generation(task.String(), metrics.OutcomeEmpty)
		s.failed(ctx, teacherID, task, "no valid questions")
		return nil, errors.FailedPrecondition("generation failed: no valid questions were produced, try again or edit manually")
	}
	if len(questions) > n {
		questions = questions[:n]
	}

	outcome := metrics.OutcomeOK
	if cached {
		outcome = metrics.OutcomeCached
	}
	s.metrics.Generation(task.String(), outcome)
	analytics.Log(ctx, s.events, analytics.Event{
		UserID:    teacherID,
		EventType: analytics.QuestionsGenerated,
		Data: map[string]any{
			"requested": n,
			"count":     len(questions),
			"language":  lang,
			"topics":    len(req.Topics),
			"cached":    cached,
		},
	})
	return questions, nil
}

// complete returns the raw model output for a prompt, serving it from the cache when an
// identical request has produced a usable answer before. usable decides what gets cached.
func (s *Service) complete(ctx context.Context, teacherID string, task ai.TaskType, prompt string, img *ai.Image,
	usable func(string) bool) (string, bool, error) {
	key := cacheKey(task, s.model, prompt, img)
	if s.cache != nil {
		if v, ok, err := s.cache.Get(ctx, key); err != nil {
			slog.Warn("generation cache read failed", "task", task.String(), "error", err)
		} else if ok {
			return v, true, nil
		}
	}

	ok, err := s.budget.Check(teacherID)
	if err != nil {
		return "", false, err
	}
	if !ok {
		s.metrics.Generation(task.String(), metrics.OutcomeRejected)
		return "", false, errors.FailedPrecondition("AI usage limit reached, try again later")
	}

	msg := ai.Message{Role: "user", Content: prompt}
	if img != nil {
		msg.Images = []ai.Image{*img}
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	resp, err := s.ai.Complete(callCtx, ai.CompletionRequest{
		Messages:    []ai.Message{msg},
		Model:       s.model,
		Temperature: 0.4,
		Task:        task,
	})
	if err != nil {
		s.metrics.Generation(task.String(), metrics.OutcomeError)
		s.failed(ctx, teacherID, task, err.Error())
		if stderrors.Is(err, ai.ErrNoProvider) {
			return "", false, errors.Unavailable("generation failed: no AI provider is configured")
		}
		return "", false, errors.New(errors.CodeUnavailable,
			errors.WithMessagef("generation failed: the AI service did not answer, try again"),
			errors.WithCause(err))
	}

	if err := s.budget.Record(teacherID, resp.TotalTokens()); err != nil {
		slog.Warn("failed to record token usage", "user_id", teacherID, "error", err)
	}
	s.metrics.Tokens(resp.Model, resp.TotalTokens())

	if s.cache != nil && usable(resp.Content) {
		if err := s.cache.Set(ctx, key, resp.Content, s.cacheTTL); err != nil {
			slog.Warn("generation cache write failed", "task", task.String(), "error", err)
		}
	}
	return resp.Content, false, nil
}

func (s *Service) failed(ctx context.Context, teacherID string, task ai.TaskType, reason string) {
	slog.Warn("generation failed", "task", task.String(), "user_id", teacherID, "reason", reason)
	analytics.Log(ctx, s.events, analytics.Event{
		UserID:    teacherID,
		EventType: analytics.GenerationFailed,
		Data:      map[string]any{"task": task.String(), "reason": reason},
	})
}

func cacheKey(task ai.TaskType, model, prompt string, img *ai.Image) string {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	if img != nil {
		h.Write([]byte{0})
		h.Write([]byte(img.MIMEType))
		h.Write([]byte(img.Data))
	}
	return "gen:" + task.String() + ":" + hex.EncodeToString(h.Sum(nil))
}

func parseImage(image string) (ai.Image, error) {
	image = strings.TrimSpace(image)
	if image == "" {
		return ai.Image{}, errors.InvalidArgument("image is required")
	}

	mime := defaultImageMIME
	if m := dataURLPrefix.FindStringSubmatch(image); m != nil {
		mime = m[1]
		image = image[len(m[0]):]
	}
	if _, err := base64.StdEncoding.DecodeString(image); err != nil {
		return ai.Image{}, errors.InvalidArgument("image must be base64 encoded")
	}
	return ai.Image{MIMEType: mime, Data: image}, nil
}
