// Package ai provides a provider-agnostic AI gateway with ordered provider fallback.
package ai

import "context"

// TaskType defines the kind of AI task, used for caching and metrics.
type TaskType int

const (
	TaskTopicExtraction TaskType = iota
	TaskImageTopicExtraction
	TaskQuizGeneration
)

func (t TaskType) String() string {
	switch t {
	case TaskTopicExtraction:
		return "topics"
	case TaskImageTopicExtraction:
		return "image_topics"
	case TaskQuizGeneration:
		return "questions"
	default:
		return "unknown"
	}
}

// Image is an inline image attached to a message. Data is base64 without a data-URL prefix.
type Image struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

// Message represents a chat message.
type Message struct {
	Role    string  `json:"role"`
	Content string  `json:"content"`
	Images  []Image `json:"images,omitempty"`
}

// CompletionRequest is the input to an AI completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Task        TaskType  `json:"task,omitempty"`
}

// CompletionResponse is the output from an AI completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// ModelInfo describes an available model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MaxTokens   int    `json:"max_tokens"`
	Vision      bool   `json:"vision"`
	Description string `json:"description"`
}

// Provider is the interface all AI providers must implement.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Models() []ModelInfo
	HealthCheck(ctx context.Context) error
}

// Completer is the narrow view of the gateway that services depend on.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}
