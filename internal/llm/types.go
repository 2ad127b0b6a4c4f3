package llm

import "context"

// Message is a single chat turn sent to the generation service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes one generation call.
type CompletionRequest struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Usage reports token consumption for a completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionResponse is the text produced by the generation service.
type CompletionResponse struct {
	Content string
	Usage   Usage
}

// Client is the generation-service contract consumed by the agents.
//
// Errors are classified by the implementation: *errors.TransientError for
// retryable service faults, *errors.PermanentError for non-retryable request
// failures, and *errors.ContentFilteredError for policy refusals.
type Client interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	Model() string
}

// Config holds connection settings for an HTTP-based client.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout int // seconds per call; 0 uses the default
	Headers map[string]string
}
