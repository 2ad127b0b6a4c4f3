package refine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"finqa/internal/agents"
	"finqa/internal/dataset"
	finqaerrors "finqa/internal/errors"
)

var testItem = dataset.Item{
	ID:          "r1",
	Question:    "what was the growth?",
	GroundTruth: "50",
	Context:     dataset.Context{PreText: "ctx"},
}

// scriptedAnalyst replays canned candidates/errors and records critiques.
type scriptedAnalyst struct {
	candidates []*agents.CandidateAnswer
	errs       []error
	calls      int
	critiques  []string
}

func (a *scriptedAnalyst) Analyze(_ context.Context, _ string, _ dataset.Context, priorCritique string) (*agents.CandidateAnswer, error) {
	i := a.calls
	a.calls++
	a.critiques = append(a.critiques, priorCritique)
	if i < len(a.errs) && a.errs[i] != nil {
		return nil, a.errs[i]
	}
	if i < len(a.candidates) {
		return a.candidates[i], nil
	}
	return nil, fmt.Errorf("analyst script exhausted at call %d", i+1)
}

// scriptedCritic replays canned critiques/errors.
type scriptedCritic struct {
	critiques []agents.Critique
	errs      []error
	calls     int
}

func (c *scriptedCritic) Critique(_ context.Context, _ string, _ dataset.Context, _ *agents.CandidateAnswer) (agents.Critique, error) {
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return agents.Critique{}, c.errs[i]
	}
	if i < len(c.critiques) {
		return c.critiques[i], nil
	}
	return agents.Critique{}, fmt.Errorf("critic script exhausted at call %d", i+1)
}

func candidate(answer string) *agents.CandidateAnswer {
	return &agents.CandidateAnswer{Steps: []string{"step"}, Answer: answer}
}

func TestLoopApprovedFirstTurn(t *testing.T) {
	analyst := &scriptedAnalyst{candidates: []*agents.CandidateAnswer{candidate("50")}}
	critic := &scriptedCritic{critiques: []agents.Critique{agents.Approved()}}

	outcome := NewLoop(analyst, critic, 3).Run(context.Background(), testItem)

	require.Equal(t, ReasonApproved, outcome.Reason)
	require.Equal(t, "50", outcome.Final.Answer)
	require.Equal(t, 1, outcome.Iterations)
	require.Equal(t, 1, analyst.calls)
	require.Equal(t, 1, critic.calls)
	require.Equal(t, "", analyst.critiques[0])
}

func TestLoopFeedbackThenApproval(t *testing.T) {
	analyst := &scriptedAnalyst{candidates: []*agents.CandidateAnswer{
		candidate("10"),
		candidate("50"),
	}}
	critic := &scriptedCritic{critiques: []agents.Critique{
		agents.WithFeedback("wrong year extracted"),
		agents.Approved(),
	}}

	outcome := NewLoop(analyst, critic, 3).Run(context.Background(), testItem)

	require.Equal(t, ReasonApproved, outcome.Reason)
	require.Equal(t, "50", outcome.Final.Answer, "final answer must be the approved turn's candidate")
	require.Equal(t, 2, outcome.Iterations)
	require.Equal(t, "wrong year extracted", analyst.critiques[1], "feedback feeds the next analysis turn")
}

func TestLoopMaxIterationsKeepsLastCandidate(t *testing.T) {
	analyst := &scriptedAnalyst{candidates: []*agents.CandidateAnswer{
		candidate("1"), candidate("2"),
	}}
	critic := &scriptedCritic{critiques: []agents.Critique{
		agents.WithFeedback("f1"), agents.WithFeedback("f2"),
	}}

	outcome := NewLoop(analyst, critic, 2).Run(context.Background(), testItem)

	require.Equal(t, ReasonMaxIterations, outcome.Reason)
	require.Equal(t, "2", outcome.Final.Answer, "last candidate is preserved, not discarded")
	require.Equal(t, 2, outcome.Iterations)
	require.Equal(t, 2, analyst.calls)
	require.Equal(t, 2, critic.calls)
}

func TestLoopBoundedForAllCaps(t *testing.T) {
	for n := 1; n <= 5; n++ {
		candidates := make([]*agents.CandidateAnswer, n)
		critiques := make([]agents.Critique, n)
		for i := range candidates {
			candidates[i] = candidate(fmt.Sprintf("%d", i))
			critiques[i] = agents.WithFeedback("never good enough")
		}
		analyst := &scriptedAnalyst{candidates: candidates}
		critic := &scriptedCritic{critiques: critiques}

		outcome := NewLoop(analyst, critic, n).Run(context.Background(), testItem)

		require.Equal(t, ReasonMaxIterations, outcome.Reason, "cap %d", n)
		require.Equal(t, n, analyst.calls, "cap %d: analysis turns", n)
		require.Equal(t, n, critic.calls, "cap %d: critic turns", n)
	}
}

func TestLoopFailsOnContentFilter(t *testing.T) {
	analyst := &scriptedAnalyst{errs: []error{&finqaerrors.ContentFilteredError{Detail: "policy"}}}
	critic := &scriptedCritic{}

	outcome := NewLoop(analyst, critic, 3).Run(context.Background(), testItem)

	require.Equal(t, ReasonFailed, outcome.Reason)
	require.Equal(t, FailureContentFiltered, outcome.FailureKind)
	require.Nil(t, outcome.Final)
	require.Zero(t, critic.calls)
}

func TestLoopFailsOnMalformedOutput(t *testing.T) {
	analyst := &scriptedAnalyst{errs: []error{&finqaerrors.MalformedOutputError{Reason: "missing answer"}}}

	outcome := NewLoop(analyst, &scriptedCritic{}, 3).Run(context.Background(), testItem)

	require.Equal(t, ReasonFailed, outcome.Reason)
	require.Equal(t, FailureMalformedOutput, outcome.FailureKind)
}

func TestLoopFailsOnCriticServiceError(t *testing.T) {
	analyst := &scriptedAnalyst{candidates: []*agents.CandidateAnswer{candidate("1")}}
	critic := &scriptedCritic{errs: []error{errors.New("connection reset")}}

	outcome := NewLoop(analyst, critic, 3).Run(context.Background(), testItem)

	require.Equal(t, ReasonFailed, outcome.Reason)
	require.Equal(t, FailureServiceError, outcome.FailureKind)
	require.Error(t, outcome.Err)
}

func TestNewLoopClampsCap(t *testing.T) {
	analyst := &scriptedAnalyst{candidates: []*agents.CandidateAnswer{candidate("1")}}
	critic := &scriptedCritic{critiques: []agents.Critique{agents.Approved()}}

	loop := NewLoop(analyst, critic, 0)
	require.Equal(t, DefaultMaxIterations, loop.maxIterations)

	outcome := loop.Run(context.Background(), testItem)
	require.Equal(t, ReasonApproved, outcome.Reason)
}
