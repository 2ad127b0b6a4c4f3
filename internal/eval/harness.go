package eval

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"finqa/internal/dataset"
	"finqa/internal/logging"
	"finqa/internal/refine"
)

// Result is the evaluation record for one item. Exactly one Result is
// produced per input item, including items whose loop run failed.
type Result struct {
	ID             string                   `json:"id"`
	Question       string                   `json:"question"`
	Predicted      string                   `json:"predicted_answer"`
	GroundTruth    string                   `json:"ground_truth"`
	ExactMatch     bool                     `json:"exact_match"`
	NumericalMatch bool                     `json:"numerical_match"`
	Termination    refine.TerminationReason `json:"termination"`
	FailureReason  string                   `json:"failure_reason,omitempty"`
	Iterations     int                      `json:"iterations"`
	Latency        time.Duration            `json:"latency"`
}

// Summary aggregates a full evaluation run. Match rates use the full item
// count as denominator, so failed items count as non-matches rather than
// being dropped.
type Summary struct {
	Total              int          `json:"total"`
	ExactMatches       int          `json:"exact_matches"`
	NumericalMatches   int          `json:"numerical_matches"`
	ExactMatchRate     float64      `json:"exact_match_rate"`
	NumericalMatchRate float64      `json:"numerical_match_rate"`
	Approved           int          `json:"approved"`
	MaxIterations      int          `json:"max_iterations"`
	Failed             int          `json:"failed"`
	Latency            LatencyStats `json:"latency"`
}

// Runner executes the refinement loop for one item. *refine.Loop satisfies it.
type Runner interface {
	Run(ctx context.Context, item dataset.Item) refine.Outcome
}

// Harness fans items out over a bounded worker count and scores the outcomes.
type Harness struct {
	runner  Runner
	workers int
	logger  logging.Logger

	// OnResult, when set, is invoked once per finished item, serialized by an
	// internal mutex. Used for progress reporting.
	OnResult func(Result)
}

// NewHarness creates an evaluation harness. workers is the global concurrency
// cap across all items, clamped to at least 1; within one item the agent
// turns remain strictly sequential.
func NewHarness(runner Runner, workers int) *Harness {
	if workers < 1 {
		workers = 1
	}
	return &Harness{
		runner:  runner,
		workers: workers,
		logger:  logging.NewComponentLogger("harness"),
	}
}

// Evaluate runs the loop over every item and scores the final answers.
// Per-item failures are recorded in that item's Result; they never abort the
// batch. Results come back in input order.
func (h *Harness) Evaluate(ctx context.Context, items []dataset.Item) ([]Result, Summary) {
	results := make([]Result, len(items))
	h.logger.Info("evaluating %d items with %d workers", len(items), h.workers)

	var callbackMu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(h.workers)

	for i, item := range items {
		i, item := i, item
		group.Go(func() error {
			outcome := h.runner.Run(groupCtx, item)
			result := scoreOutcome(item, outcome)
			results[i] = result

			if h.OnResult != nil {
				callbackMu.Lock()
				h.OnResult(result)
				callbackMu.Unlock()
			}
			return nil
		})
	}

	// Workers never return errors; failures live in their Result rows.
	_ = group.Wait()

	return results, summarize(results)
}

// scoreOutcome converts a loop outcome into an evaluation record.
func scoreOutcome(item dataset.Item, outcome refine.Outcome) Result {
	result := Result{
		ID:          item.ID,
		Question:    item.Question,
		GroundTruth: item.GroundTruth,
		Termination: outcome.Reason,
		Iterations:  outcome.Iterations,
		Latency:     outcome.Latency,
	}

	if outcome.Reason == refine.ReasonFailed {
		result.FailureReason = outcome.FailureKind
		if outcome.Err != nil {
			result.FailureReason = outcome.FailureKind + ": " + outcome.Err.Error()
		}
		return result
	}

	result.Predicted = outcome.Final.Answer
	result.ExactMatch = ExactMatch(item.GroundTruth, result.Predicted)
	result.NumericalMatch = NumericalMatch(item.GroundTruth, result.Predicted)
	return result
}

func summarize(results []Result) Summary {
	summary := Summary{Total: len(results)}
	latencies := make([]time.Duration, 0, len(results))

	for _, r := range results {
		latencies = append(latencies, r.Latency)
		if r.ExactMatch {
			summary.ExactMatches++
		}
		if r.NumericalMatch {
			summary.NumericalMatches++
		}
		switch r.Termination {
		case refine.ReasonApproved:
			summary.Approved++
		case refine.ReasonMaxIterations:
			summary.MaxIterations++
		case refine.ReasonFailed:
			summary.Failed++
		}
	}

	if summary.Total > 0 {
		summary.ExactMatchRate = float64(summary.ExactMatches) / float64(summary.Total)
		summary.NumericalMatchRate = float64(summary.NumericalMatches) / float64(summary.Total)
	}
	summary.Latency = ComputeLatencyStats(latencies)
	return summary
}
