package classroom

import (
	"context"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/pai-quiz/internal/analytics"
	"github.com/p-n-ai/pai-quiz/internal/errors"
	"github.com/p-n-ai/pai-quiz/internal/live"
	"github.com/p-n-ai/pai-quiz/internal/quiz"
	"github.com/p-n-ai/pai-quiz/internal/scoring"
)

// StudentQuiz is an assigned quiz as a student sees it. The answer key is hidden until the
// student has a result.
type StudentQuiz struct {
	Quiz      quiz.Quiz        `json:"quiz"`
	Completed bool             `json:"completed"`
	Result    *quiz.QuizResult `json:"result,omitempty"`
}

func studentView(q quiz.Quiz, st quiz.Student) StudentQuiz {
	r, ok := st.CompletedQuizzes[q.ID]
	if !ok {
		return StudentQuiz{Quiz: q.WithoutAnswers()}
	}
	q.AssignedTo = nil
	return StudentQuiz{Quiz: q, Completed: true, Result: &r}
}

// StudentQuizzes loads every quiz assigned to the student, in assignment order.
func (s *Service) StudentQuizzes(ctx context.Context, studentID string) ([]StudentQuiz, error) {
	st, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	out := make([]StudentQuiz, len(st.AssignedQuizIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, id := range st.AssignedQuizIDs {
		g.Go(func() error {
			q, err := s.store.GetQuiz(gctx, id)
			if err != nil {
				return err
			}
			out[i] = studentView(q, st)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// StudentQuiz returns one assigned quiz.
func (s *Service) StudentQuiz(ctx context.Context, studentID, quizID string) (StudentQuiz, error) {
	st, q, err := s.assignedQuiz(ctx, studentID, quizID)
	if err != nil {
		return StudentQuiz{}, err
	}
	return studentView(q, st), nil
}

func (s *Service) assignedQuiz(ctx context.Context, studentID, quizID string) (quiz.Student, quiz.Quiz, error) {
	st, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return quiz.Student{}, quiz.Quiz{}, err
	}
	if !st.IsAssigned(quizID) {
		return quiz.Student{}, quiz.Quiz{}, errors.PermissionDenied("quiz %s is not assigned to you", quizID)
	}
	q, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return quiz.Student{}, quiz.Quiz{}, err
	}
	return st, q, nil
}

// Submit grades a complete answer sheet and stores the result, replacing any earlier attempt.
// Every question needs an answer; unknown question ids and out-of-range options are rejected.
func (s *Service) Submit(ctx context.Context, studentID, quizID string, answers map[string]int) (quiz.QuizResult, error) {
	st, q, err := s.assignedQuiz(ctx, studentID, quizID)
	if err != nil {
		return quiz.QuizResult{}, err
	}

	questions := make(map[string]quiz.QuizQuestion, len(q.Questions))
	for _, question := range q.Questions {
		questions[question.ID] = question
	}
	for id, answer := range answers {
		question, ok := questions[id]
		if !ok {
			return quiz.QuizResult{}, errors.InvalidArgument("question %s is not part of quiz %s", id, quizID)
		}
		if answer != quiz.Unanswered && (answer < 0 || answer >= len(question.Options)) {
			return quiz.QuizResult{}, errors.InvalidArgument("answer %d to question %s is out of range", answer, id)
		}
	}
	if n := scoring.Unanswered(q, answers); n > 0 {
		return quiz.QuizResult{}, errors.InvalidArgument("%d unanswered questions", n)
	}

	result := scoring.Score(q, studentID, answers, s.now())
	if err := s.store.UpsertResult(ctx, result); err != nil {
		return quiz.QuizResult{}, err
	}

	s.metrics.Submission()
	slog.Info("quiz submitted", "quiz_id", quizID, "student_id", studentID,
		"score", result.Score, "total", result.TotalQuestions, "retake", st.HasCompleted(quizID))
	analytics.Log(ctx, s.events, analytics.Event{
		UserID:    studentID,
		EventType: analytics.QuizSubmitted,
		Data: map[string]any{
			"quiz_id": quizID,
			"score":   result.Score,
			"total":   result.TotalQuestions,
			"retake":  st.HasCompleted(quizID),
		},
	})
	s.live.Publish(ctx, q.CreatedBy, live.Message{
		Type: live.TypeSubmission,
		Data: map[string]any{
			"quizId":      quizID,
			"quizTitle":   q.Title,
			"studentId":   studentID,
			"studentName": st.Name,
			"score":       result.Score,
			"total":       result.TotalQuestions,
			"percentage":  result.Percentage(),
		},
	})
	return result, nil
}

// ResultSummary is a completed quiz in a student's history.
type ResultSummary struct {
	QuizID     string          `json:"quizId"`
	QuizTitle  string          `json:"quizTitle"`
	Result     quiz.QuizResult `json:"result"`
	Percentage int             `json:"percentage"`
	Band       string          `json:"band"`
}

// StudentResults lists the student's results, most recent first.
func (s *Service) StudentResults(ctx context.Context, studentID string) ([]ResultSummary, error) {
	results, err := s.store.ListResultsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(results))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, r := range results {
		g.Go(func() error {
			q, err := s.store.GetQuiz(gctx, r.QuizID)
			if err != nil {
				return err
			}
			titles[i] = q.Title
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]ResultSummary, len(results))
	for i, r := range results {
		pct := r.Percentage()
		out[i] = ResultSummary{QuizID: r.QuizID, QuizTitle: titles[i], Result: r, Percentage: pct, Band: scoring.PerformanceBand(pct)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Result.CompletedAt.After(out[j].Result.CompletedAt)
	})
	return out, nil
}

// ResultDetail is a completed quiz with its answer key and the student's answers.
type ResultDetail struct {
	Quiz   quiz.Quiz       `json:"quiz"`
	Result quiz.QuizResult `json:"result"`
}

// StudentResult returns the graded quiz for review.
func (s *Service) StudentResult(ctx context.Context, studentID, quizID string) (ResultDetail, error) {
	_, q, err := s.assignedQuiz(ctx, studentID, quizID)
	if err != nil {
		return ResultDetail{}, err
	}
	r, err := s.store.GetResult(ctx, quizID, studentID)
	if err != nil {
		return ResultDetail{}, err
	}
	q.AssignedTo = nil
	return ResultDetail{Quiz: q, Result: r}, nil
}
