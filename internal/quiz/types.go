// Package quiz holds the curriculum, quiz and result entities shared by every layer.
package quiz

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OptionCount is the number of options every multiple-choice question carries.
const OptionCount = 4

// Unanswered marks a question the student has not answered yet. It never counts as correct.
const Unanswered = -1

// Topic is the smallest curriculum unit and the basis for quiz generation.
type Topic struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
}

// Module groups topics inside a curriculum.
type Module struct {
	ID          string  `json:"id" yaml:"id"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	Topics      []Topic `json:"topics" yaml:"topics"`
}

// Curriculum is a teacher-authored hierarchy of modules and topics.
type Curriculum struct {
	ID          string    `json:"id"`
	TeacherID   string    `json:"teacherId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Modules     []Module  `json:"modules"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// AllTopics returns every topic of every module, in curriculum order.
func (c Curriculum) AllTopics() []Topic {
	var topics []Topic
	for _, m := range c.Modules {
		topics = append(topics, m.Topics...)
	}
	return topics
}

// TopicCount returns the number of topics across all modules.
func (c Curriculum) TopicCount() int {
	n := 0
	for _, m := range c.Modules {
		n += len(m.Topics)
	}
	return n
}

// TopicsByID returns the topics whose ids are listed, in curriculum order.
// Unknown ids are ignored.
func (c Curriculum) TopicsByID(ids []string) []Topic {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var topics []Topic
	for _, t := range c.AllTopics() {
		if want[t.ID] {
			topics = append(topics, t)
		}
	}
	return topics
}

// EnsureIDs assigns fresh ids to modules and topics that have none.
func (c *Curriculum) EnsureIDs() {
	for i := range c.Modules {
		if c.Modules[i].ID == "" {
			c.Modules[i].ID = uuid.NewString()
		}
		for j := range c.Modules[i].Topics {
			if c.Modules[i].Topics[j].ID == "" {
				c.Modules[i].Topics[j].ID = uuid.NewString()
			}
		}
	}
}

// QuizQuestion is a multiple-choice question with exactly four options.
type QuizQuestion struct {
	ID                 string   `json:"id"`
	Question           string   `json:"question"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Explanation        string   `json:"explanation,omitempty"`
}

// Validate checks the option count, that no option is blank and that the answer key
// indexes into the options.
func (q QuizQuestion) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("question text is empty")
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("question has %d options, want %d", len(q.Options), OptionCount)
	}
	for i, o := range q.Options {
		if strings.TrimSpace(o) == "" {
			return fmt.Errorf("option %d is empty", i)
		}
	}
	if q.CorrectOptionIndex < 0 || q.CorrectOptionIndex >= len(q.Options) {
		return fmt.Errorf("correct option index %d out of range", q.CorrectOptionIndex)
	}
	return nil
}

// TopicRef is the denormalized topic reference stored on a quiz.
type TopicRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Quiz is an immutable set of questions generated from one or more topics.
type Quiz struct {
	ID           string         `json:"id"`
	CurriculumID string         `json:"curriculumId,omitempty"`
	Topics       []TopicRef     `json:"topics"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Language     string         `json:"language"`
	Questions    []QuizQuestion `json:"questions"`
	CreatedBy    string         `json:"createdBy"`
	AssignedTo   []string       `json:"assignedTo"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// IsAssignedTo reports whether the student is on the quiz's assignment list.
func (q Quiz) IsAssignedTo(studentID string) bool {
	for _, id := range q.AssignedTo {
		if id == studentID {
			return true
		}
	}
	return false
}

// AnswerKey maps question ids to their correct option index.
func (q Quiz) AnswerKey() map[string]int {
	key := make(map[string]int, len(q.Questions))
	for _, qq := range q.Questions {
		key[qq.ID] = qq.CorrectOptionIndex
	}
	return key
}

// WithoutAnswers returns a copy safe to show a student who has not completed the quiz.
func (q Quiz) WithoutAnswers() Quiz {
	out := q
	out.AssignedTo = nil
	out.Questions = make([]QuizQuestion, len(q.Questions))
	for i, qq := range q.Questions {
		qq.Options = append([]string(nil), qq.Options...)
		qq.CorrectOptionIndex = Unanswered
		qq.Explanation = ""
		out.Questions[i] = qq
	}
	return out
}

// QuizResult is the scored outcome of one student's attempt at one quiz.
// It is keyed by (QuizID, StudentID).
type QuizResult struct {
	QuizID         string         `json:"quizId"`
	StudentID      string         `json:"studentId"`
	Score          int            `json:"score"`
	TotalQuestions int            `json:"totalQuestions"`
	Answers        map[string]int `json:"answers"`
	CompletedAt    time.Time      `json:"completedAt"`
}

// Percentage returns the rounded score percentage, 0 for an empty quiz.
func (r QuizResult) Percentage() int {
	if r.TotalQuestions == 0 {
		return 0
	}
	return (200*r.Score + r.TotalQuestions) / (2 * r.TotalQuestions)
}
