package plan

import (
	"time"
)

// GoalStatus represents the current status of a goal.
type GoalStatus string

const (
	// GoalStatusPending indicates the goal has not started executing.
	GoalStatusPending GoalStatus = "pending"

	// GoalStatusInProgress indicates the goal is currently executing.
	GoalStatusInProgress GoalStatus = "in_progress"

	// GoalStatusCompleted indicates every step of the goal completed.
	GoalStatusCompleted GoalStatus = "completed"

	// GoalStatusFailed indicates the goal was aborted after a failure.
	GoalStatusFailed GoalStatus = "failed"

	// GoalStatusNeedsReview indicates the goal requires human attention
	// before execution can continue.
	GoalStatusNeedsReview GoalStatus = "needs_review"
)

// String returns the string representation of the goal status.
func (s GoalStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the status represents a terminal state.
func (s GoalStatus) IsTerminal() bool {
	return s == GoalStatusCompleted || s == GoalStatusFailed
}

// Goal represents a high-level, independently verifiable unit of user-intended
// progress. Goals are created empty by the goal planner; their step lists are
// populated by the execution engine when the goal is actually planned.
type Goal struct {
	// ID is the caller-assigned identifier for this goal. Uniqueness within
	// a plan is enforced by ValidateGoals, not at construction time.
	ID string `json:"id"`

	// Description states what the goal accomplishes.
	Description string `json:"description"`

	// Steps is the ordered list of steps for the current execution attempt.
	// Empty until the engine plans the goal; replaced wholesale on replan.
	Steps []*Step `json:"steps,omitempty"`

	// Status is the current lifecycle status.
	Status GoalStatus `json:"status"`

	// ValidationCriteria is opaque structured data describing the expected
	// application state once the goal completes.
	ValidationCriteria map[string]any `json:"validation_criteria,omitempty"`

	// ErrorMessage holds the failure reason for failed or needs-review goals.
	ErrorMessage string `json:"error_message,omitempty"`

	// StartedAt is stamped when the goal enters in_progress.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is stamped when the goal reaches a terminal status.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Dependencies lists goal IDs that must be completed before this goal
	// may start. They must reference goals present in the same plan.
	Dependencies []string `json:"dependencies,omitempty"`
}

// NewGoal creates a pending goal with no steps.
func NewGoal(id, description string) *Goal {
	return &Goal{
		ID:          id,
		Description: description,
		Status:      GoalStatusPending,
	}
}

// Start marks the goal as in progress and stamps the start time.
func (g *Goal) Start() {
	g.Status = GoalStatusInProgress
	now := time.Now()
	g.StartedAt = &now
}

// Complete marks the goal as completed and stamps the completion time.
func (g *Goal) Complete() {
	g.Status = GoalStatusCompleted
	now := time.Now()
	g.CompletedAt = &now
}

// Fail marks the goal as failed with an error message.
func (g *Goal) Fail(message string) {
	g.Status = GoalStatusFailed
	g.ErrorMessage = message
	now := time.Now()
	g.CompletedAt = &now
}

// NeedsReview marks the goal as needing human review.
func (g *Goal) NeedsReview(message string) {
	g.Status = GoalStatusNeedsReview
	g.ErrorMessage = message
}

// ReplaceSteps discards the current step list and installs a fresh one.
// Used when the engine replans a goal after a failure.
func (g *Goal) ReplaceSteps(steps []*Step) {
	g.Steps = steps
}

// AllStepsCompleted reports whether every step of the goal completed.
func (g *Goal) AllStepsCompleted() bool {
	for _, s := range g.Steps {
		if s.Status != StepStatusCompleted {
			return false
		}
	}
	return true
}

// AnyStepFailed reports whether any step failed execution or validation.
func (g *Goal) AnyStepFailed() bool {
	for _, s := range g.Steps {
		if s.Status == StepStatusFailed || s.Status == StepStatusValidationFailed {
			return true
		}
	}
	return false
}

// Progress returns the completed fraction of the goal's steps in percent.
func (g *Goal) Progress() float64 {
	if len(g.Steps) == 0 {
		return 0
	}
	completed := 0
	for _, s := range g.Steps {
		if s.Status == StepStatusCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(g.Steps)) * 100
}
