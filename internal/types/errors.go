package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a namespaced error code for GridPilot errors.
type ErrorCode string

// Configuration error codes
const (
	CONFIG_LOAD_FAILED       ErrorCode = "CONFIG_LOAD_FAILED"
	CONFIG_PARSE_FAILED      ErrorCode = "CONFIG_PARSE_FAILED"
	CONFIG_VALIDATION_FAILED ErrorCode = "CONFIG_VALIDATION_FAILED"
)

// Plan and goal error codes
const (
	PLAN_GENERATION_FAILED ErrorCode = "PLAN_GENERATION_FAILED"
	PLAN_PARSE_FAILED      ErrorCode = "PLAN_PARSE_FAILED"
	PLAN_MISSING_FIELD     ErrorCode = "PLAN_MISSING_FIELD"
	PLAN_DUPLICATE_GOAL    ErrorCode = "PLAN_DUPLICATE_GOAL"
	PLAN_DANGLING_DEP      ErrorCode = "PLAN_DANGLING_DEP"
	PLAN_DEPENDENCY_CYCLE  ErrorCode = "PLAN_DEPENDENCY_CYCLE"
	PLAN_UNKNOWN_ACTION    ErrorCode = "PLAN_UNKNOWN_ACTION"
)

// Engine error codes
const (
	ENGINE_STEP_FAILED       ErrorCode = "ENGINE_STEP_FAILED"
	ENGINE_VALIDATION_FAILED ErrorCode = "ENGINE_VALIDATION_FAILED"
	ENGINE_RUN_ABORTED       ErrorCode = "ENGINE_RUN_ABORTED"
)

// Automation error codes
const (
	AUTO_ACTION_FAILED     ErrorCode = "AUTO_ACTION_FAILED"
	AUTO_MISSING_PARAM     ErrorCode = "AUTO_MISSING_PARAM"
	AUTO_INVALID_PARAM     ErrorCode = "AUTO_INVALID_PARAM"
	AUTO_SNAPSHOT_FAILED   ErrorCode = "AUTO_SNAPSHOT_FAILED"
	AUTO_FOREGROUND_FAILED ErrorCode = "AUTO_FOREGROUND_FAILED"
)

// Lifecycle state machine error codes
const (
	STATE_INVALID_EVENT ErrorCode = "STATE_INVALID_EVENT"
	STATE_HANDLER_PANIC ErrorCode = "STATE_HANDLER_PANIC"
)

// History store error codes
const (
	HISTORY_OPEN_FAILED      ErrorCode = "HISTORY_OPEN_FAILED"
	HISTORY_MIGRATION_FAILED ErrorCode = "HISTORY_MIGRATION_FAILED"
	HISTORY_QUERY_FAILED     ErrorCode = "HISTORY_QUERY_FAILED"
)

// PilotError represents a structured error with error code, message, and
// optional cause. It supports error wrapping and retryability hints.
type PilotError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
// Format: "[CODE] message" or "[CODE] message: cause" if cause exists.
func (e *PilotError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for error unwrapping chains.
func (e *PilotError) Unwrap() error {
	return e.Cause
}

// Is checks if the target error matches this error by error code.
func (e *PilotError) Is(target error) bool {
	var pilotErr *PilotError
	if errors.As(target, &pilotErr) {
		return e.Code == pilotErr.Code
	}
	return false
}

// NewError creates a new non-retryable PilotError with the given code and message.
func NewError(code ErrorCode, message string) *PilotError {
	return &PilotError{
		Code:    code,
		Message: message,
	}
}

// NewRetryableError creates a new retryable PilotError.
// Use this for transient errors that may succeed on retry.
func NewRetryableError(code ErrorCode, message string) *PilotError {
	return &PilotError{
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// WrapError creates a new non-retryable PilotError that wraps an existing error.
func WrapError(code ErrorCode, message string, cause error) *PilotError {
	return &PilotError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsCode reports whether err carries the given error code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	var pilotErr *PilotError
	if errors.As(err, &pilotErr) {
		return pilotErr.Code == code
	}
	return false
}
