// Package errors provides structured error types for the devteam agent.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrValidation       = errors.New("invalid or missing arguments")
	ErrNotFound         = errors.New("resource not found")
	ErrAuth             = errors.New("authentication failed")
	ErrTransient        = errors.New("transient upstream failure")
	ErrRateLimit        = errors.New("rate limit exceeded")
	ErrWorkflowSequence = errors.New("workflow step out of order")
)

// APIError represents an error from an external API call.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s API error (status %d): %s: %v", e.Service, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// NewAPIError creates a new API error.
func NewAPIError(service string, statusCode int, message string) *APIError {
	return &APIError{Service: service, StatusCode: statusCode, Message: message}
}

// FromStatus classifies an HTTP status code from an upstream service into
// the error taxonomy, wrapping the matching sentinel.
func FromStatus(service string, statusCode int, message string) error {
	apiErr := NewAPIError(service, statusCode, message)
	switch {
	case statusCode == 404:
		apiErr.Err = ErrNotFound
	case statusCode == 401 || statusCode == 403:
		apiErr.Err = ErrAuth
	case statusCode == 429:
		apiErr.Err = ErrRateLimit
	case statusCode >= 500:
		apiErr.Err = ErrTransient
	}
	return apiErr
}

// SequenceError builds a workflow-sequence error with actionable guidance,
// e.g. which capability the caller must invoke first.
func SequenceError(attempted, required string) error {
	return fmt.Errorf("%w: call %s before %s", ErrWorkflowSequence, required, attempted)
}

// IsRetryable returns true if the error is likely transient and worth retrying.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
	}
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimit)
}
