// Package normalize turns free-form model output into clean topic and question lists.
// Nothing in here returns an error: unusable output yields an empty, non-nil slice.
package normalize

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

// MaxTopics caps the number of topics kept from a single extraction.
const MaxTopics = 10

// maxTopicRunes is the exclusive upper bound on a line-based topic's length.
const maxTopicRunes = 50

var (
	arrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
	quotedPattern = regexp.MustCompile(`"([^"]+)"`)
	bulletPattern = regexp.MustCompile(`^\s*(?:\d+[.)]\s+|[-*•]\s*)`)
)

// Topics extracts up to MaxTopics topic titles from raw model output.
//
// A JSON array anywhere in the text wins. If the bracketed span is not valid JSON every quoted
// string in the text is used. Without brackets only list items are kept: lines starting with
// a number, dash, asterisk or bullet.
func Topics(raw string) []string {
	text := stripCodeFence(raw)
	topics := []string{}

	if span := arrayPattern.FindString(text); span != "" {
		var items []any
		if err := json.Unmarshal([]byte(span), &items); err == nil {
			for _, item := range items {
				s, ok := item.(string)
				if !ok {
					continue
				}
				if s = strings.TrimSpace(s); s != "" {
					topics = append(topics, s)
				}
			}
		} else {
			for _, m := range quotedPattern.FindAllStringSubmatch(text, -1) {
				if s := strings.TrimSpace(m[1]); s != "" {
					topics = append(topics, s)
				}
			}
		}
		return truncate(topics)
	}

	for _, line := range strings.Split(text, "\n") {
		marker := bulletPattern.FindString(line)
		if marker == "" {
			continue
		}
		line = strings.TrimSpace(line[len(marker):])
		if n := utf8.RuneCountInString(line); n > 0 && n < maxTopicRunes {
			topics = append(topics, line)
		}
	}
	return truncate(topics)
}

func truncate(topics []string) []string {
	if len(topics) > MaxTopics {
		return topics[:MaxTopics]
	}
	return topics
}

// candidate is a question as the model wrote it. Either answer key spelling may appear.
type candidate struct {
	Question           string          `json:"question"`
	Options            []string        `json:"options"`
	CorrectOptionIndex *float64        `json:"correctOptionIndex"`
	CorrectAnswer      json.RawMessage `json:"correctAnswer"`
	Explanation        string          `json:"explanation"`
}

// Questions extracts the valid multiple-choice questions from raw model output. Each element
// of the first JSON array is checked on its own, so one malformed question does not discard
// its siblings. Every kept question gets a fresh id.
func Questions(raw string) []quiz.QuizQuestion {
	questions := []quiz.QuizQuestion{}

	span := arrayPattern.FindString(stripCodeFence(raw))
	if span == "" {
		return questions
	}
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(span), &elems); err != nil {
		return questions
	}

	for _, elem := range elems {
		if !validElement(elem) {
			continue
		}
		var c candidate
		if err := json.Unmarshal(elem, &c); err != nil {
			continue
		}
		q, ok := c.toQuestion()
		if !ok {
			continue
		}
		questions = append(questions, q)
	}
	return questions
}

func (c candidate) toQuestion() (quiz.QuizQuestion, bool) {
	key := c.CorrectOptionIndex
	if key == nil {
		var fallback float64
		if err := json.Unmarshal(c.CorrectAnswer, &fallback); err != nil {
			return quiz.QuizQuestion{}, false
		}
		key = &fallback
	}

	q := quiz.QuizQuestion{
		ID:                 uuid.NewString(),
		Question:           strings.TrimSpace(c.Question),
		Options:            make([]string, len(c.Options)),
		CorrectOptionIndex: int(*key),
		Explanation:        strings.TrimSpace(c.Explanation),
	}
	for i, o := range c.Options {
		q.Options[i] = strings.TrimSpace(o)
	}
	if err := q.Validate(); err != nil {
		return quiz.QuizQuestion{}, false
	}
	return q, true
}

// stripCodeFence removes a surrounding markdown code fence, if any.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if nl := strings.IndexByte(s, '\n'); nl >= 0 && !strings.ContainsAny(s[:nl], "[{") {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
