package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gridpilot-ai/gridpilot/internal/automation"
	"github.com/gridpilot-ai/gridpilot/internal/llm"
	"github.com/gridpilot-ai/gridpilot/internal/plan"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

// StepPlanner decomposes a single goal into concrete UI action steps.
type StepPlanner struct {
	provider    llm.Provider
	model       string
	temperature float64
	logger      *slog.Logger
}

// StepPlannerOption is a functional option for configuring a StepPlanner.
type StepPlannerOption func(*StepPlanner)

// WithStepModel overrides the provider's default model for step planning.
func WithStepModel(model string) StepPlannerOption {
	return func(p *StepPlanner) {
		p.model = model
	}
}

// WithStepTemperature sets the sampling temperature for step planning.
func WithStepTemperature(t float64) StepPlannerOption {
	return func(p *StepPlanner) {
		p.temperature = t
	}
}

// WithStepLogger sets the logger for the planner.
func WithStepLogger(l *slog.Logger) StepPlannerOption {
	return func(p *StepPlanner) {
		p.logger = l
	}
}

// NewStepPlanner creates a StepPlanner backed by the given provider.
func NewStepPlanner(provider llm.Provider, opts ...StepPlannerOption) *StepPlanner {
	p := &StepPlanner{
		provider:    provider,
		temperature: defaultPlannerTemperature,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// rawStep is the wire shape of one step in the model's response.
type rawStep struct {
	Description        string         `json:"description"`
	Action             string         `json:"action"`
	Parameters         map[string]any `json:"parameters"`
	ValidationCriteria map[string]any `json:"validation_criteria"`
}

// PlanSteps generates the step list for one goal. The prompt includes the
// completed goals so the model knows what state the plan has already reached,
// plus a fresh snapshot of the application. Steps using actions outside the
// supported vocabulary are rejected here, before anything executes.
func (p *StepPlanner) PlanSteps(ctx context.Context, goal *plan.Goal, completed []*plan.Goal, snap automation.Snapshot) ([]*plan.Step, error) {
	p.logger.Info("planning steps", "goal", goal.ID)

	resp, err := p.provider.Complete(ctx, llm.CompletionRequest{
		Model: p.model,
		Messages: []llm.Message{
			llm.NewSystemMessage(stepSystemPrompt),
			llm.NewUserMessage(buildStepUserPrompt(goal, completed, snap)),
		},
		Temperature: llm.Temp(p.temperature),
	})
	if err != nil {
		return nil, types.WrapError(types.PLAN_GENERATION_FAILED,
			fmt.Sprintf("step planning failed for goal %q", goal.ID), err)
	}

	steps, err := parseSteps(resp.Message.Content)
	if err != nil {
		return nil, err
	}

	p.logger.Info("steps planned",
		"goal", goal.ID,
		"steps", len(steps),
		"tokens", resp.Usage.TotalTokens,
	)

	return steps, nil
}

// parseSteps extracts and decodes the step array from raw model output.
func parseSteps(content string) ([]*plan.Step, error) {
	jsonStr, err := llm.ExtractJSON(content)
	if err != nil {
		return nil, types.WrapError(types.PLAN_PARSE_FAILED,
			"failed to locate step plan JSON in response", err)
	}

	var raw []rawStep
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, types.WrapError(types.PLAN_PARSE_FAILED,
			"failed to parse step plan response", err)
	}

	if len(raw) == 0 {
		return nil, types.NewError(types.PLAN_PARSE_FAILED,
			"step plan response contained no steps")
	}

	steps := make([]*plan.Step, 0, len(raw))
	for i, rs := range raw {
		if rs.Description == "" {
			return nil, types.NewError(types.PLAN_MISSING_FIELD,
				fmt.Sprintf("step at index %d is missing a description", i))
		}

		action, err := plan.ParseAction(rs.Action)
		if err != nil {
			return nil, err
		}

		step := &plan.Step{
			Description:        rs.Description,
			Action:             action,
			Parameters:         rs.Parameters,
			ValidationCriteria: rs.ValidationCriteria,
			Status:             plan.StepStatusPending,
		}

		// Element keywords ride along in the parameters; keep a typed copy
		// on the step for traceability. Malformed keywords are debugging
		// metadata, not grounds to reject the plan.
		if kws, err := step.StringSliceParam("element_keywords"); err == nil {
			step.ElementKeywords = kws
		}

		steps = append(steps, step)
	}

	return steps, nil
}
