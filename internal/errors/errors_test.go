package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromStatus_Classification(t *testing.T) {
	cases := []struct {
		status   int
		sentinel error
	}{
		{404, ErrNotFound},
		{401, ErrAuth},
		{403, ErrAuth},
		{429, ErrRateLimit},
		{500, ErrTransient},
		{503, ErrTransient},
	}
	for _, tc := range cases {
		err := FromStatus("github", tc.status, "boom")
		assert.ErrorIs(t, err, tc.sentinel, "status %d", tc.status)
	}

	// 4xx codes outside the table stay unclassified.
	err := FromStatus("github", 422, "unprocessable")
	assert.NotErrorIs(t, err, ErrValidation)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestAPIError_Message(t *testing.T) {
	err := FromStatus("slack", 404, "channel missing")
	assert.Contains(t, err.Error(), "slack API error (status 404)")
	assert.Contains(t, err.Error(), "channel missing")

	var apiErr *APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 404, apiErr.StatusCode)
}

func TestSequenceError(t *testing.T) {
	err := SequenceError("createCommit", "createBranch")
	assert.ErrorIs(t, err, ErrWorkflowSequence)
	assert.Contains(t, err.Error(), "call createBranch before createCommit")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(FromStatus("github", 429, "slow down")))
	assert.True(t, IsRetryable(FromStatus("github", 502, "bad gateway")))
	assert.True(t, IsRetryable(fmt.Errorf("wrapped: %w", ErrTransient)))
	assert.True(t, IsRetryable(ErrRateLimit))

	assert.False(t, IsRetryable(FromStatus("github", 404, "gone")))
	assert.False(t, IsRetryable(ErrValidation))
	assert.False(t, IsRetryable(errors.New("plain")))
}
