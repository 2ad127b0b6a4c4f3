package llm

import (
	"context"
	"time"

	finqaerrors "finqa/internal/errors"
	"finqa/internal/logging"
)

// retryClient wraps a generation client with bounded retry on transient faults.
// Content-filter refusals and permanent request errors pass through untouched.
type retryClient struct {
	underlying  Client
	retryConfig finqaerrors.RetryConfig
	callTimeout time.Duration
	logger      logging.Logger
}

// NewRetryClient wraps a client with retry logic and a per-call timeout. The
// timeout applies to each individual attempt, not the whole retry sequence.
func NewRetryClient(client Client, retryConfig finqaerrors.RetryConfig, callTimeout time.Duration) Client {
	return &retryClient{
		underlying:  client,
		retryConfig: retryConfig,
		callTimeout: callTimeout,
		logger:      logging.NewComponentLogger("llm-retry"),
	}
}

func (c *retryClient) Model() string {
	return c.underlying.Model()
}

func (c *retryClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	startTime := time.Now()

	resp, err := finqaerrors.RetryWithResultAndLog(ctx, c.retryConfig, func(ctx context.Context) (*CompletionResponse, error) {
		callCtx := ctx
		if c.callTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, c.callTimeout)
			defer cancel()
		}
		return c.underlying.Complete(callCtx, req)
	}, c.logger)

	duration := time.Since(startTime)
	if err != nil {
		c.logger.Warn("generation failed after retries (took %v): %v", duration, err)
		return nil, err
	}

	if duration > 5*time.Second {
		c.logger.Debug("generation succeeded after %v", duration)
	}
	return resp, nil
}
