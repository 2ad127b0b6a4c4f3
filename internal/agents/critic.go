package agents

import (
	"context"
	"fmt"
	"strings"

	"finqa/internal/dataset"
	"finqa/internal/llm"
	"finqa/internal/logging"
)

// ApprovalSentinel is the exact token the critic must emit to approve a
// candidate. Matched as a literal substring: a missed detection runs the loop
// to its iteration cap, a false positive terminates on a possibly wrong
// answer, so the critic prompt forbids the token in critical replies.
const ApprovalSentinel = "ALL_OK"

// Verdict is the critic's binary classification of a candidate.
type Verdict int

const (
	// VerdictApproved means the candidate passed every check.
	VerdictApproved Verdict = iota
	// VerdictFeedback means the critic returned actionable critique text.
	VerdictFeedback
)

// Critique is the critic's verdict. Feedback is non-empty exactly when the
// verdict is VerdictFeedback; use the constructors to preserve that invariant.
type Critique struct {
	Verdict  Verdict
	Feedback string
}

// Approved constructs an approval critique.
func Approved() Critique {
	return Critique{Verdict: VerdictApproved}
}

// WithFeedback constructs a feedback critique.
func WithFeedback(text string) Critique {
	return Critique{Verdict: VerdictFeedback, Feedback: text}
}

// Critic validates candidate answers against the document context.
type Critic struct {
	client      llm.Client
	temperature float64
	logger      logging.Logger
}

// NewCritic creates a critic agent on top of a generation client.
func NewCritic(client llm.Client, temperature float64) *Critic {
	return &Critic{
		client:      client,
		temperature: temperature,
		logger:      logging.NewComponentLogger("critic"),
	}
}

// Critique reviews a candidate answer. The response is classified into exactly
// two outcomes: approval when the sentinel token appears, otherwise the whole
// response is treated as actionable feedback for the next analysis turn.
func (c *Critic) Critique(ctx context.Context, question string, docCtx dataset.Context, candidate *CandidateAnswer) (Critique, error) {
	userPrompt, err := renderUserPrompt(question, docCtx)
	if err != nil {
		return Critique{}, err
	}

	messages := []llm.Message{
		{Role: "system", Content: criticSystemPrompt},
		{Role: "user", Content: userPrompt},
		{Role: "user", Content: formatCandidate(candidate)},
	}

	resp, err := c.client.Complete(ctx, llm.CompletionRequest{
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return Critique{}, err
	}

	critique := ClassifyCriticResponse(resp.Content)
	if critique.Verdict == VerdictApproved {
		c.logger.Debug("candidate approved")
	} else {
		c.logger.Debug("candidate critiqued: %s", truncateFeedback(critique.Feedback))
	}
	return critique, nil
}

func truncateFeedback(s string) string {
	const max = 120
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

// ClassifyCriticResponse maps a raw critic reply onto the binary verdict.
func ClassifyCriticResponse(response string) Critique {
	if strings.Contains(response, ApprovalSentinel) {
		return Approved()
	}
	return WithFeedback(strings.TrimSpace(response))
}

func formatCandidate(candidate *CandidateAnswer) string {
	var b strings.Builder
	b.WriteString("Candidate answer to review:\n")
	for i, step := range candidate.Steps {
		fmt.Fprintf(&b, "Step %d: %s\n", i+1, step)
	}
	fmt.Fprintf(&b, "Final answer: %s", candidate.Answer)
	return b.String()
}
