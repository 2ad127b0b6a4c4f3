// Package refine drives the bounded analyst/critic refinement loop for a
// single dataset item.
package refine

import (
	"context"
	"time"

	"finqa/internal/agents"
	"finqa/internal/dataset"
	finqaerrors "finqa/internal/errors"
	"finqa/internal/logging"
)

// state is the loop's position in the refinement state machine.
type state int

const (
	stateAnalyzing state = iota
	stateCritiquing
)

// TerminationReason records how a loop run ended.
type TerminationReason string

const (
	// ReasonApproved: the critic accepted the current candidate.
	ReasonApproved TerminationReason = "approved"
	// ReasonMaxIterations: the iteration cap was reached; the last candidate
	// is kept as the final answer, tagged unapproved.
	ReasonMaxIterations TerminationReason = "max_iterations"
	// ReasonFailed: an unrecoverable per-item error (malformed output after
	// parse retries, content filter, or exhausted service retries).
	ReasonFailed TerminationReason = "failed"
)

// Failure kinds recorded on ReasonFailed outcomes.
const (
	FailureMalformedOutput = "malformed_output"
	FailureContentFiltered = "content_filtered"
	FailureServiceError    = "service_error"
)

// Outcome is the result of one loop run over one item.
type Outcome struct {
	Final       *agents.CandidateAnswer // nil when Reason == ReasonFailed
	Reason      TerminationReason
	FailureKind string // set only when Reason == ReasonFailed
	Err         error  // underlying error for failed runs
	Iterations  int    // analysis turns consumed
	Latency     time.Duration
}

// Analyst is the analysis-agent contract the loop depends on.
type Analyst interface {
	Analyze(ctx context.Context, question string, docCtx dataset.Context, priorCritique string) (*agents.CandidateAnswer, error)
}

// Critic is the critic-agent contract the loop depends on.
type Critic interface {
	Critique(ctx context.Context, question string, docCtx dataset.Context, candidate *agents.CandidateAnswer) (agents.Critique, error)
}

// Loop is the refinement orchestrator. A Loop is stateless across runs and
// safe for concurrent use; all per-item state lives in the Run call.
type Loop struct {
	analyst       Analyst
	critic        Critic
	maxIterations int
	logger        logging.Logger
}

// DefaultMaxIterations matches the original pipeline's cap of three full
// analyst/critic exchanges per item.
const DefaultMaxIterations = 3

// NewLoop creates a refinement loop. maxIterations bounds analysis turns and
// is clamped to at least 1.
func NewLoop(analyst Analyst, critic Critic, maxIterations int) *Loop {
	if maxIterations < 1 {
		maxIterations = DefaultMaxIterations
	}
	return &Loop{
		analyst:       analyst,
		critic:        critic,
		maxIterations: maxIterations,
		logger:        logging.NewComponentLogger("refine"),
	}
}

// Run executes the refinement state machine over one item:
//
//	ANALYZING -> CRITIQUING -> (APPROVED | ANALYZING | MAX_ITERATIONS | FAILED)
//
// The loop always terminates: either the critic approves, the iteration cap
// is reached (keeping the last candidate), or an unrecoverable error ends the
// run. Failures are scoped to this item; Run never panics the batch.
func (l *Loop) Run(ctx context.Context, item dataset.Item) Outcome {
	start := time.Now()

	var candidate *agents.CandidateAnswer
	var priorCritique string
	iterations := 0
	current := stateAnalyzing

	for {
		switch current {
		case stateAnalyzing:
			iterations++
			next, err := l.analyst.Analyze(ctx, item.Question, item.Context, priorCritique)
			if err != nil {
				l.logger.Warn("item %s: analysis failed on turn %d: %v", item.ID, iterations, err)
				return l.failed(start, iterations, err)
			}
			candidate = next
			current = stateCritiquing

		case stateCritiquing:
			critique, err := l.critic.Critique(ctx, item.Question, item.Context, candidate)
			if err != nil {
				l.logger.Warn("item %s: critique failed on turn %d: %v", item.ID, iterations, err)
				return l.failed(start, iterations, err)
			}

			if critique.Verdict == agents.VerdictApproved {
				l.logger.Debug("item %s: approved on turn %d", item.ID, iterations)
				return Outcome{
					Final:      candidate,
					Reason:     ReasonApproved,
					Iterations: iterations,
					Latency:    time.Since(start),
				}
			}

			if iterations >= l.maxIterations {
				l.logger.Debug("item %s: iteration cap %d reached, keeping last candidate", item.ID, l.maxIterations)
				return Outcome{
					Final:      candidate,
					Reason:     ReasonMaxIterations,
					Iterations: iterations,
					Latency:    time.Since(start),
				}
			}

			priorCritique = critique.Feedback
			current = stateAnalyzing
		}
	}
}

func (l *Loop) failed(start time.Time, iterations int, err error) Outcome {
	return Outcome{
		Reason:      ReasonFailed,
		FailureKind: classifyFailure(err),
		Err:         err,
		Iterations:  iterations,
		Latency:     time.Since(start),
	}
}

func classifyFailure(err error) string {
	switch {
	case finqaerrors.IsContentFiltered(err):
		return FailureContentFiltered
	case finqaerrors.IsMalformed(err):
		return FailureMalformedOutput
	default:
		return FailureServiceError
	}
}
