// Package planner turns natural-language requests into executable plans using
// an LLM provider. The goal planner produces the high-level goal list for a
// request; the step planner decomposes one goal at a time into concrete UI
// actions against the current application state.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gridpilot-ai/gridpilot/internal/llm"
	"github.com/gridpilot-ai/gridpilot/internal/plan"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

const defaultPlannerTemperature = 0.2

// GoalPlanner generates and validates high-level goal plans.
type GoalPlanner struct {
	provider    llm.Provider
	model       string
	temperature float64
	logger      *slog.Logger
}

// GoalPlannerOption is a functional option for configuring a GoalPlanner.
type GoalPlannerOption func(*GoalPlanner)

// WithGoalModel overrides the provider's default model for goal planning.
func WithGoalModel(model string) GoalPlannerOption {
	return func(p *GoalPlanner) {
		p.model = model
	}
}

// WithGoalTemperature sets the sampling temperature for goal planning.
func WithGoalTemperature(t float64) GoalPlannerOption {
	return func(p *GoalPlanner) {
		p.temperature = t
	}
}

// WithGoalLogger sets the logger for the planner.
func WithGoalLogger(l *slog.Logger) GoalPlannerOption {
	return func(p *GoalPlanner) {
		p.logger = l
	}
}

// NewGoalPlanner creates a GoalPlanner backed by the given provider.
func NewGoalPlanner(provider llm.Provider, opts ...GoalPlannerOption) *GoalPlanner {
	p := &GoalPlanner{
		provider:    provider,
		temperature: defaultPlannerTemperature,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// rawGoal is the wire shape of one goal in the model's response.
type rawGoal struct {
	ID                 string         `json:"id"`
	Description        string         `json:"description"`
	ValidationCriteria map[string]any `json:"validation_criteria"`
	Dependencies       []string       `json:"dependencies"`
}

// Generate produces a validated goal plan for the request against the given
// application state. Malformed model output and structural plan defects
// (duplicate ids, dangling or cyclic dependencies) are returned as errors;
// they are never retried here, the caller decides how to recover.
func (p *GoalPlanner) Generate(ctx context.Context, request, appState string) ([]*plan.Goal, error) {
	p.logger.Info("generating goal plan", "request", request)

	resp, err := p.provider.Complete(ctx, llm.CompletionRequest{
		Model: p.model,
		Messages: []llm.Message{
			llm.NewSystemMessage(goalSystemPrompt),
			llm.NewUserMessage(buildGoalUserPrompt(request, appState)),
		},
		Temperature: llm.Temp(p.temperature),
	})
	if err != nil {
		return nil, types.WrapError(types.PLAN_GENERATION_FAILED,
			"goal plan generation failed", err)
	}

	goals, err := parseGoals(resp.Message.Content)
	if err != nil {
		return nil, err
	}

	if err := plan.ValidateGoals(goals); err != nil {
		return nil, err
	}

	p.logger.Info("goal plan generated",
		"goals", len(goals),
		"tokens", resp.Usage.TotalTokens,
	)

	return goals, nil
}

// parseGoals extracts and decodes the goal array from raw model output.
func parseGoals(content string) ([]*plan.Goal, error) {
	jsonStr, err := llm.ExtractJSON(content)
	if err != nil {
		return nil, types.WrapError(types.PLAN_PARSE_FAILED,
			"failed to locate goal plan JSON in response", err)
	}

	var raw []rawGoal
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, types.WrapError(types.PLAN_PARSE_FAILED,
			"failed to parse goal plan response", err)
	}

	if len(raw) == 0 {
		return nil, types.NewError(types.PLAN_PARSE_FAILED,
			"goal plan response contained no goals")
	}

	goals := make([]*plan.Goal, 0, len(raw))
	for i, rg := range raw {
		if rg.ID == "" {
			return nil, types.NewError(types.PLAN_MISSING_FIELD,
				fmt.Sprintf("goal at index %d is missing an id", i))
		}
		if rg.Description == "" {
			return nil, types.NewError(types.PLAN_MISSING_FIELD,
				fmt.Sprintf("goal %q is missing a description", rg.ID))
		}

		g := plan.NewGoal(rg.ID, rg.Description)
		g.ValidationCriteria = rg.ValidationCriteria
		g.Dependencies = rg.Dependencies
		goals = append(goals, g)
	}

	return goals, nil
}
