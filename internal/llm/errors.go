package llm

import (
	"context"
	"errors"
	"strings"

	"github.com/gridpilot-ai/gridpilot/internal/types"
)

// LLM error codes follow the GridPilot error pattern.
const (
	ErrProviderNotFound     types.ErrorCode = "LLM_PROVIDER_NOT_FOUND"
	ErrProviderInitFailed   types.ErrorCode = "LLM_PROVIDER_INIT_FAILED"
	ErrProviderUnauthorized types.ErrorCode = "LLM_PROVIDER_UNAUTHORIZED"
	ErrProviderRateLimited  types.ErrorCode = "LLM_PROVIDER_RATE_LIMITED"
	ErrCompletionFailed     types.ErrorCode = "LLM_COMPLETION_FAILED"
	ErrResponseParseFailed  types.ErrorCode = "LLM_RESPONSE_PARSE_FAILED"
	ErrInvalidRequest       types.ErrorCode = "LLM_INVALID_REQUEST"
	ErrNetworkFailed        types.ErrorCode = "LLM_NETWORK_FAILED"
	ErrContextCanceled      types.ErrorCode = "LLM_CONTEXT_CANCELED"
)

// NewAuthError creates an authentication error for the given provider.
func NewAuthError(provider string, cause error) *types.PilotError {
	return types.WrapError(ErrProviderUnauthorized,
		"missing or invalid credentials for provider "+provider, cause)
}

// TranslateError converts raw provider/transport errors into structured
// PilotErrors with appropriate codes and retryability hints.
func TranslateError(provider string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return types.WrapError(ErrContextCanceled, provider+" call canceled", err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "rate limit") || strings.Contains(msg, "429"):
		return types.NewRetryableError(ErrProviderRateLimited, provider+" rate limited")
	case strings.Contains(msg, "unauthorized") || strings.Contains(msg, "401") ||
		strings.Contains(msg, "api key"):
		return NewAuthError(provider, err)
	case strings.Contains(msg, "connection") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "network"):
		e := types.WrapError(ErrNetworkFailed, provider+" network failure", err)
		e.Retryable = true
		return e
	default:
		return types.WrapError(ErrCompletionFailed, provider+" completion failed", err)
	}
}

// IsRetryable determines if an error is transient and may succeed on retry.
func IsRetryable(err error) bool {
	var pilotErr *types.PilotError
	if !errors.As(err, &pilotErr) {
		return false
	}
	return pilotErr.Retryable
}
