package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPilotError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *PilotError
		expected string
	}{
		{
			name:     "without cause",
			err:      NewError(PLAN_PARSE_FAILED, "response was not valid JSON"),
			expected: "[PLAN_PARSE_FAILED] response was not valid JSON",
		},
		{
			name:     "with cause",
			err:      WrapError(AUTO_ACTION_FAILED, "click failed", errors.New("element not found")),
			expected: "[AUTO_ACTION_FAILED] click failed: element not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestPilotError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := WrapError(HISTORY_QUERY_FAILED, "insert failed", cause)

	assert.ErrorIs(t, err, cause)
}

func TestPilotError_Is(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewError(PLAN_DEPENDENCY_CYCLE, "cycle at g1"))

	assert.True(t, IsCode(err, PLAN_DEPENDENCY_CYCLE))
	assert.False(t, IsCode(err, PLAN_DUPLICATE_GOAL))
	assert.False(t, IsCode(errors.New("plain"), PLAN_DEPENDENCY_CYCLE))
}

func TestNewRetryableError(t *testing.T) {
	err := NewRetryableError(AUTO_SNAPSHOT_FAILED, "transient capture failure")
	assert.True(t, err.Retryable)

	err = NewError(AUTO_SNAPSHOT_FAILED, "capture failure")
	assert.False(t, err.Retryable)
}

func TestID_RoundTrip(t *testing.T) {
	id := NewID()
	require.NoError(t, id.Validate())
	assert.False(t, id.IsZero())

	parsed, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseID_Invalid(t *testing.T) {
	_, err := ParseID("")
	assert.Error(t, err)

	_, err = ParseID("not-a-uuid")
	assert.Error(t, err)
}
