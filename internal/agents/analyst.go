// Package agents implements the two cooperating agents of the refinement
// loop: an analyst that proposes a structured numeric answer and a critic
// that approves it or returns actionable feedback.
package agents

import (
	"context"
	"fmt"

	"finqa/internal/dataset"
	"finqa/internal/llm"
	"finqa/internal/logging"
)

// defaultParseRetries is the extra generation attempts the structured output
// parser is allowed when the model's reply does not fit the required shape.
const defaultParseRetries = 2

// Analyst proposes candidate answers for financial questions.
type Analyst struct {
	client       llm.Client
	temperature  float64
	parseRetries int
	logger       logging.Logger
}

// NewAnalyst creates an analysis agent on top of a generation client.
func NewAnalyst(client llm.Client, temperature float64) *Analyst {
	return &Analyst{
		client:       client,
		temperature:  temperature,
		parseRetries: defaultParseRetries,
		logger:       logging.NewComponentLogger("analyst"),
	}
}

// Analyze produces a candidate answer for the question over the document
// context. When priorCritique is non-empty it is embedded in the prompt so the
// model can correct its previous attempt. Sampling uses the configured
// temperature; callers must not assume determinism for temperature > 0.
func (a *Analyst) Analyze(ctx context.Context, question string, docCtx dataset.Context, priorCritique string) (*CandidateAnswer, error) {
	userPrompt, err := renderUserPrompt(question, docCtx)
	if err != nil {
		return nil, err
	}

	messages := []llm.Message{
		{Role: "system", Content: analystSystemPrompt},
		{Role: "user", Content: userPrompt},
	}
	if priorCritique != "" {
		messages = append(messages, llm.Message{
			Role:    "user",
			Content: fmt.Sprintf("A reviewer critiqued your previous answer:\n%s\n\nAddress every point and answer again.", priorCritique),
		})
	}

	return generateCandidate(ctx, a.client, a.temperature, messages, a.parseRetries, a.logger)
}
