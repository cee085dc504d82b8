package llm

import (
	"context"
	"fmt"
)

// Provider defines the interface that all LLM providers must implement.
// It provides a unified abstraction for interacting with different LLM
// services (Anthropic Claude, OpenAI GPT, local models, etc.). The
// orchestration engine only ever issues blocking completion calls.
type Provider interface {
	// Name returns the provider name (e.g., "anthropic", "openai", "mock").
	Name() string

	// Complete sends a completion request and returns the full response.
	// This is a blocking call that waits for the entire response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// CompletionRequest describes a single completion call.
type CompletionRequest struct {
	// Model is the model identifier. Empty means the provider default.
	Model string `json:"model,omitempty"`

	// Messages is the ordered conversation to complete.
	Messages []Message `json:"messages"`

	// Temperature controls sampling randomness. Nil means provider default.
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxTokens bounds the completion length. Zero means provider default.
	MaxTokens int `json:"max_tokens,omitempty"`
}

// Validate checks that the request is well-formed.
func (r *CompletionRequest) Validate() error {
	if len(r.Messages) == 0 {
		return fmt.Errorf("completion request requires at least one message")
	}
	for i, m := range r.Messages {
		if !m.Role.IsValid() {
			return fmt.Errorf("message %d has invalid role %q", i, m.Role)
		}
	}
	if r.Temperature != nil && (*r.Temperature < 0 || *r.Temperature > 2) {
		return fmt.Errorf("temperature must be in [0, 2], got %v", *r.Temperature)
	}
	return nil
}

// CompletionResponse is the result of a completion call.
type CompletionResponse struct {
	// Message is the assistant message produced by the model.
	Message Message `json:"message"`

	// Model is the model that produced the response.
	Model string `json:"model"`

	// Usage reports token counts when the provider surfaces them.
	Usage Usage `json:"usage"`
}

// Temp is a convenience helper for building a *float64 temperature.
func Temp(t float64) *float64 {
	return &t
}
