package errors

import (
	"errors"
	"fmt"
	"net"
)

// TransientError represents a service fault that can be retried, such as a
// timeout, a connection reset, or a 429/5xx from the generation service.
type TransientError struct {
	Err        error
	StatusCode int    // HTTP status code if applicable
	Message    string // human-readable summary
}

func (e *TransientError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("transient error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError represents an error that should not be retried.
type PermanentError struct {
	Err        error
	StatusCode int
	Message    string
}

func (e *PermanentError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("permanent error: %v", e.Err)
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// MalformedOutputError indicates generation output that could not be mapped to
// the required steps+answer shape, after the parser's own retry budget.
type MalformedOutputError struct {
	Raw    string // offending raw output, possibly truncated
	Reason string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed output: %s", e.Reason)
}

// ContentFilteredError indicates a policy-level refusal from the generation
// service. Retrying cannot change the outcome.
type ContentFilteredError struct {
	Detail string
}

func (e *ContentFilteredError) Error() string {
	if e.Detail == "" {
		return "content filtered by generation service"
	}
	return fmt.Sprintf("content filtered: %s", e.Detail)
}

// NewTransientError creates a transient error with a summary message.
func NewTransientError(err error, message string) *TransientError {
	return &TransientError{Err: err, Message: message}
}

// NewPermanentError creates a permanent error with a summary message.
func NewPermanentError(err error, message string) *PermanentError {
	return &PermanentError{Err: err, Message: message}
}

// IsTransient reports whether an error is retry-able.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var transientErr *TransientError
	if errors.As(err, &transientErr) {
		return true
	}
	var permanentErr *PermanentError
	if errors.As(err, &permanentErr) {
		return false
	}
	if IsContentFiltered(err) || IsMalformed(err) {
		return false
	}

	// Network timeouts without explicit classification.
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return false
}

// IsContentFiltered reports whether an error is a policy refusal.
func IsContentFiltered(err error) bool {
	var filtered *ContentFilteredError
	return errors.As(err, &filtered)
}

// IsMalformed reports whether an error is a malformed-output failure.
func IsMalformed(err error) bool {
	var malformed *MalformedOutputError
	return errors.As(err, &malformed)
}

// IsTransientHTTPStatus reports whether an HTTP status code warrants a retry.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
