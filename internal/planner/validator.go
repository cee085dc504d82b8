package planner

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gridpilot-ai/gridpilot/internal/automation"
	"github.com/gridpilot-ai/gridpilot/internal/llm"
	"github.com/gridpilot-ai/gridpilot/internal/plan"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

// StepValidator judges whether an executed step produced its expected state.
// A false verdict with an empty reason is legal; the reason only enriches the
// step's failure message.
type StepValidator interface {
	// ValidateStep compares the step's validation criteria against a fresh
	// application snapshot. The bool is the verdict; the string explains a
	// false verdict. The error reports the validator's own failures, not
	// the step's.
	ValidateStep(ctx context.Context, step *plan.Step, snap automation.Snapshot) (bool, string, error)
}

// NoopValidator accepts every step without inspecting state.
type NoopValidator struct{}

func (NoopValidator) ValidateStep(ctx context.Context, step *plan.Step, snap automation.Snapshot) (bool, string, error) {
	return true, "", nil
}

// LLMValidator asks the model to compare a step's validation criteria with
// the post-execution application state.
type LLMValidator struct {
	provider llm.Provider
	model    string
	logger   *slog.Logger
}

// LLMValidatorOption is a functional option for configuring an LLMValidator.
type LLMValidatorOption func(*LLMValidator)

// WithValidatorModel overrides the provider's default model for validation.
func WithValidatorModel(model string) LLMValidatorOption {
	return func(v *LLMValidator) {
		v.model = model
	}
}

// WithValidatorLogger sets the logger for the validator.
func WithValidatorLogger(l *slog.Logger) LLMValidatorOption {
	return func(v *LLMValidator) {
		v.logger = l
	}
}

// NewLLMValidator creates an LLMValidator backed by the given provider.
func NewLLMValidator(provider llm.Provider, opts ...LLMValidatorOption) *LLMValidator {
	v := &LLMValidator{
		provider: provider,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

type validationVerdict struct {
	Valid bool   `json:"valid"`
	Error string `json:"error"`
}

func (v *LLMValidator) ValidateStep(ctx context.Context, step *plan.Step, snap automation.Snapshot) (bool, string, error) {
	resp, err := v.provider.Complete(ctx, llm.CompletionRequest{
		Model: v.model,
		Messages: []llm.Message{
			llm.NewSystemMessage(validationSystemPrompt),
			llm.NewUserMessage(buildValidationUserPrompt(step, snap)),
		},
		Temperature: llm.Temp(0),
	})
	if err != nil {
		return false, "", types.WrapError(types.ENGINE_VALIDATION_FAILED,
			"step validation request failed", err)
	}

	jsonStr, err := llm.ExtractJSON(resp.Message.Content)
	if err != nil {
		return false, "", types.WrapError(types.ENGINE_VALIDATION_FAILED,
			"failed to locate validation JSON in response", err)
	}

	var verdict validationVerdict
	if err := json.Unmarshal([]byte(jsonStr), &verdict); err != nil {
		return false, "", types.WrapError(types.ENGINE_VALIDATION_FAILED,
			"failed to parse validation response", err)
	}

	if !verdict.Valid {
		v.logger.Info("step validation rejected",
			"action", step.Action,
			"reason", verdict.Error,
		)
	}

	return verdict.Valid, verdict.Error, nil
}

var (
	_ StepValidator = NoopValidator{}
	_ StepValidator = (*LLMValidator)(nil)
)
