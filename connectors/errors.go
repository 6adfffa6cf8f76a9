package connectors

import (
	"errors"
)

// SinkError wraps errors from sink writers and indicates if they're retryable
type SinkError struct {
	Err       error
	Retryable bool
}

func (e *SinkError) Error() string {
	return e.Err.Error()
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// NewRetryableError wraps an error as retryable
func NewRetryableError(err error) *SinkError {
	return &SinkError{
		Err:       err,
		Retryable: true,
	}
}

// NewTerminalError wraps an error as non-retryable
func NewTerminalError(err error) *SinkError {
	return &SinkError{
		Err:       err,
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var sinkErr *SinkError
	if errors.As(err, &sinkErr) {
		return sinkErr.Retryable
	}

	// Retry if not explicitly marked as non-retryable
	return true
}
