package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	finqaerrors "finqa/internal/errors"
	"finqa/internal/logging"
)

// openaiClient speaks the OpenAI-compatible chat completions API.
type openaiClient struct {
	model      string
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
	headers    map[string]string
}

// NewOpenAIClient constructs a generation client that speaks the
// OpenAI-compatible chat completions API using the provided configuration.
func NewOpenAIClient(model string, config Config) (Client, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}

	timeout := 120 * time.Second
	if config.Timeout > 0 {
		timeout = time.Duration(config.Timeout) * time.Second
	}

	return &openaiClient{
		model:      model,
		apiKey:     config.APIKey,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logging.NewComponentLogger("llm-openai"),
		headers:    config.Headers,
	}, nil
}

func (c *openaiClient) Model() string {
	return c.model
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

func (c *openaiClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	body, err := json.Marshal(chatCompletionRequest{
		Model:       c.model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	c.logger.Debug("POST %s model=%s temperature=%.2f", endpoint, c.model, req.Temperature)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		// Timeouts and connection faults are transient transport errors.
		return nil, finqaerrors.NewTransientError(err, fmt.Sprintf("generation request failed: %v", err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, finqaerrors.NewTransientError(err, "read generation response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.classifyHTTPError(resp.StatusCode, respBody)
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode generation response: %w", err)
	}
	if parsed.Error != nil {
		return nil, finqaerrors.NewPermanentError(fmt.Errorf("%s", parsed.Error.Message), parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, finqaerrors.NewTransientError(nil, "generation response has no choices")
	}

	choice := parsed.Choices[0]
	if choice.FinishReason == "content_filter" {
		return nil, &finqaerrors.ContentFilteredError{Detail: "finish_reason=content_filter"}
	}

	return &CompletionResponse{
		Content: choice.Message.Content,
		Usage:   parsed.Usage,
	}, nil
}

// classifyHTTPError maps non-200 responses onto the error taxonomy. A 400 with
// a content-policy code is a refusal rather than a malformed request.
func (c *openaiClient) classifyHTTPError(statusCode int, body []byte) error {
	var parsed chatCompletionResponse
	detail := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		detail = parsed.Error.Message
		if parsed.Error.Code == "content_filter" || parsed.Error.Code == "content_policy_violation" {
			return &finqaerrors.ContentFilteredError{Detail: detail}
		}
	}

	summary := fmt.Sprintf("generation service returned %d: %s", statusCode, truncate(detail, 200))
	if finqaerrors.IsTransientHTTPStatus(statusCode) {
		return &finqaerrors.TransientError{StatusCode: statusCode, Message: summary}
	}
	return &finqaerrors.PermanentError{StatusCode: statusCode, Message: summary}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
