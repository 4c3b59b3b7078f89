package generator

import (
	"fmt"
	"strings"

	"github.com/p-n-ai/pai-quiz/internal/quiz"
)

const topicInstructions = `Return ONLY a list of 5-10 distinct topics, with each topic being 2-5 words long.
Format your response as a JSON array of strings, for example: ["Topic one", "Topic two"].
Do not include any explanation or text outside the JSON array.`

func topicPrompt(curriculumTitle, moduleTitle, content string) string {
	var b strings.Builder
	b.WriteString("You are an educational content analyzer. Extract the main topics from the following curriculum content.\n")
	b.WriteString(topicInstructions)
	b.WriteString("\n\n")
	if curriculumTitle != "" {
		fmt.Fprintf(&b, "Curriculum: %s\n", curriculumTitle)
	}
	if moduleTitle != "" {
		fmt.Fprintf(&b, "Module: %s\n", moduleTitle)
	}
	fmt.Fprintf(&b, "Content:\n%s\n", content)
	return b.String()
}

func imageTopicPrompt() string {
	return "You are an educational content analyzer. Extract the main topics from the image of curriculum content.\n" +
		topicInstructions
}

func questionPrompt(topics []quiz.Topic, n int, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an educational quiz generator. Create %d multiple-choice questions based on the following topics.\n", n)
	b.WriteString("Each question must have exactly 4 options with exactly one correct answer.\n")
	fmt.Fprintf(&b, "Language: %s\n\nTopics:\n", language)
	for _, t := range topics {
		if t.Description != "" {
			fmt.Fprintf(&b, "- %s: %s\n", t.Title, t.Description)
		} else {
			fmt.Fprintf(&b, "- %s\n", t.Title)
		}
	}
	b.WriteString(`
Format your response as a JSON array of objects with this structure:
[{"question": "...", "options": ["...", "...", "...", "..."], "correctOptionIndex": 0, "explanation": "..."}]
correctOptionIndex is the zero-based index of the correct option.
Do not include any explanation or text outside the JSON array.`)
	return b.String()
}
