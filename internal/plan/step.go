package plan

import (
	"fmt"
	"time"

	"github.com/gridpilot-ai/gridpilot/internal/types"
)

// StepStatus represents the current status of a step.
type StepStatus string

const (
	// StepStatusPending indicates the step has not started.
	StepStatusPending StepStatus = "pending"

	// StepStatusInProgress indicates the step is executing.
	StepStatusInProgress StepStatus = "in_progress"

	// StepStatusCompleted indicates the step executed and validated.
	StepStatusCompleted StepStatus = "completed"

	// StepStatusFailed indicates the step's action failed to execute.
	StepStatusFailed StepStatus = "failed"

	// StepStatusValidationFailed indicates the action executed but the
	// post-action application state did not match the declared criteria.
	StepStatusValidationFailed StepStatus = "validation_failed"
)

// String returns the string representation of the step status.
func (s StepStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status represents a terminal state for
// this execution attempt. Failed steps are never retried in place; the
// engine replans the whole goal instead.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepStatusCompleted, StepStatusFailed, StepStatusValidationFailed:
		return true
	default:
		return false
	}
}

// Action identifies one of the closed vocabulary of automation actions.
// Unknown action names are rejected when a step is parsed, not at dispatch.
type Action string

const (
	ActionMoveToElement   Action = "move_to_element"
	ActionLeftClick       Action = "left_click"
	ActionRightClick      Action = "right_click"
	ActionDoubleLeftClick Action = "double_left_click"
	ActionTypeText        Action = "type_text"
	ActionPressKeyCombo   Action = "press_key_combo"
	ActionScrollUp        Action = "scroll_up"
	ActionScrollDown      Action = "scroll_down"
	ActionDragToElement   Action = "drag_to_element"
)

// String returns the string representation of the action.
func (a Action) String() string {
	return string(a)
}

// IsValid checks if the action is part of the closed vocabulary.
func (a Action) IsValid() bool {
	switch a {
	case ActionMoveToElement, ActionLeftClick, ActionRightClick,
		ActionDoubleLeftClick, ActionTypeText, ActionPressKeyCombo,
		ActionScrollUp, ActionScrollDown, ActionDragToElement:
		return true
	default:
		return false
	}
}

// ParseAction validates a raw action name against the closed vocabulary.
func ParseAction(name string) (Action, error) {
	a := Action(name)
	if !a.IsValid() {
		return "", types.NewError(types.PLAN_UNKNOWN_ACTION,
			fmt.Sprintf("unknown action: %q", name))
	}
	return a, nil
}

// Step represents a single atomic automation action within a goal.
type Step struct {
	// Description states what the step does in human-readable form.
	Description string `json:"description"`

	// Action names the automation primitive to invoke.
	Action Action `json:"action"`

	// Parameters carries the action's arguments; keys depend on the action.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Status is the current lifecycle status for this execution attempt.
	Status StepStatus `json:"status"`

	// ValidationCriteria describes the expected state after the step.
	ValidationCriteria map[string]any `json:"validation_criteria,omitempty"`

	// ErrorMessage holds the failure reason for failed steps.
	ErrorMessage string `json:"error_message,omitempty"`

	// StartedAt is stamped when the step enters in_progress.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is stamped when the step reaches a terminal status.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// ElementKeywords are identifying attribute values of the target UI
	// element, kept for traceability and debugging.
	ElementKeywords []string `json:"element_keywords,omitempty"`
}

// Start marks the step as in progress and stamps the start time.
func (s *Step) Start() {
	s.Status = StepStatusInProgress
	now := time.Now()
	s.StartedAt = &now
}

// Complete marks the step as completed and stamps the completion time.
func (s *Step) Complete() {
	s.Status = StepStatusCompleted
	now := time.Now()
	s.CompletedAt = &now
}

// Fail marks the step as failed with an error message.
func (s *Step) Fail(message string) {
	s.Status = StepStatusFailed
	s.ErrorMessage = message
	now := time.Now()
	s.CompletedAt = &now
}

// FailValidation marks the step as having failed post-action validation.
func (s *Step) FailValidation(message string) {
	s.Status = StepStatusValidationFailed
	s.ErrorMessage = message
	now := time.Now()
	s.CompletedAt = &now
}

// StringParam returns the named string parameter, or an error when it is
// absent or not a string.
func (s *Step) StringParam(key string) (string, error) {
	raw, ok := s.Parameters[key]
	if !ok {
		return "", types.NewError(types.AUTO_MISSING_PARAM,
			fmt.Sprintf("%s requires parameter %q", s.Action, key))
	}
	v, ok := raw.(string)
	if !ok {
		return "", types.NewError(types.AUTO_INVALID_PARAM,
			fmt.Sprintf("%s parameter %q must be a string", s.Action, key))
	}
	return v, nil
}

// IntParam returns the named integer parameter. JSON numbers arrive as
// float64; integral strings are also accepted because models frequently
// quote element ids.
func (s *Step) IntParam(key string) (int, error) {
	raw, ok := s.Parameters[key]
	if !ok {
		return 0, types.NewError(types.AUTO_MISSING_PARAM,
			fmt.Sprintf("%s requires parameter %q", s.Action, key))
	}

	switch v := raw.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		var n int
		if _, err := fmt.Sscanf(v, "%d", &n); err != nil {
			return 0, types.NewError(types.AUTO_INVALID_PARAM,
				fmt.Sprintf("%s parameter %q must be an integer", s.Action, key))
		}
		return n, nil
	default:
		return 0, types.NewError(types.AUTO_INVALID_PARAM,
			fmt.Sprintf("%s parameter %q must be an integer", s.Action, key))
	}
}

// IntParamDefault returns the named integer parameter, or def when absent.
func (s *Step) IntParamDefault(key string, def int) (int, error) {
	if _, ok := s.Parameters[key]; !ok {
		return def, nil
	}
	return s.IntParam(key)
}

// StringSliceParam returns the named parameter as a string slice. Absent
// parameters yield nil without error.
func (s *Step) StringSliceParam(key string) ([]string, error) {
	raw, ok := s.Parameters[key]
	if !ok {
		return nil, nil
	}

	switch v := raw.(type) {
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, types.NewError(types.AUTO_INVALID_PARAM,
					fmt.Sprintf("%s parameter %q must be a list of strings", s.Action, key))
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, types.NewError(types.AUTO_INVALID_PARAM,
			fmt.Sprintf("%s parameter %q must be a list of strings", s.Action, key))
	}
}
