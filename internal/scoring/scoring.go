// Package scoring grades quiz submissions and rolls results up into student and class figures.
// Everything here is pure: no I/O and no clock reads.
package scoring

import (
	"math"
	"time"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// Score grades a submission. A question earns credit only when the recorded answer equals its
// correct option index; missing, unanswered and out-of-range answers earn nothing.
// The returned Answers holds exactly one entry per question, with quiz.Unanswered for gaps.
func Score(q quiz.Quiz, studentID string, answers map[string]int, now time.Time) quiz.QuizResult {
	result := quiz.QuizResult{
		QuizID:         q.ID,
		StudentID:      studentID,
		TotalQuestions: len(q.Questions),
		Answers:        make(map[string]int, len(q.Questions)),
		CompletedAt:    now,
	}

	for _, question := range q.Questions {
		answer, ok := answers[question.ID]
		if !ok || answer < 0 || answer >= len(question.Options) {
			answer = quiz.Unanswered
		}
		result.Answers[question.ID] = answer
		if answer == question.CorrectOptionIndex {
			result.Score++
		}
	}
	return result
}

// Unanswered counts the questions of q that have no valid answer in answers.
func Unanswered(q quiz.Quiz, answers map[string]int) int {
	n := 0
	for _, question := range q.Questions {
		answer, ok := answers[question.ID]
		if !ok || answer == quiz.Unanswered {
			n++
		}
	}
	return n
}

// OverallScore is the rounded percentage of correct answers across every completed quiz,
// weighted by question count. It is 0 when nothing has been answered.
func OverallScore(completed map[string]quiz.QuizResult) int {
	var score, total int
	for _, r := range completed {
		score += r.Score
		total += r.TotalQuestions
	}
	return percent(score, total)
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}
