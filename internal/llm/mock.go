package llm

import (
	"context"
	"fmt"
	"sync"
)

// ScriptedStep is one canned outcome for a ScriptedClient call.
type ScriptedStep struct {
	Content string
	Err     error
}

// ScriptedClient implements Client for testing. Each Complete call consumes
// the next scripted step in order; calls past the script fail loudly so tests
// notice unexpected extra turns. All received requests are recorded.
type ScriptedClient struct {
	mu       sync.Mutex
	model    string
	steps    []ScriptedStep
	next     int
	Requests []CompletionRequest
}

// NewScriptedClient creates a mock client that replays the given steps.
func NewScriptedClient(model string, steps ...ScriptedStep) *ScriptedClient {
	return &ScriptedClient{model: model, steps: steps}
}

func (m *ScriptedClient) Model() string {
	return m.model
}

// Complete returns the next scripted step.
func (m *ScriptedClient) Complete(_ context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Requests = append(m.Requests, req)
	if m.next >= len(m.steps) {
		return nil, fmt.Errorf("scripted client exhausted after %d calls", len(m.steps))
	}

	step := m.steps[m.next]
	m.next++
	if step.Err != nil {
		return nil, step.Err
	}
	return &CompletionResponse{
		Content: step.Content,
		Usage:   Usage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150},
	}, nil
}

// Calls reports how many Complete calls were made.
func (m *ScriptedClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// LastRequest returns the most recent request, or nil when none were made.
func (m *ScriptedClient) LastRequest() *CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	req := m.Requests[len(m.Requests)-1]
	return &req
}
