package events

import (
	"time"

	"github.com/gridpilot-ai/gridpilot/internal/types"
)

// EventType identifies the category and nature of an event.
type EventType string

// Run lifecycle events track one automation run end to end.
const (
	EventRunStarted   EventType = "run.started"
	EventRunCompleted EventType = "run.completed"
	EventRunFailed    EventType = "run.failed"
)

// Plan lifecycle events track goal plan generation and review.
const (
	EventPlanGenerated EventType = "plan.generated"
	EventPlanAccepted  EventType = "plan.accepted"
	EventPlanRejected  EventType = "plan.rejected"
	EventPlanFeedback  EventType = "plan.feedback"
)

// Goal execution events track individual goals within a run.
const (
	EventGoalStarted   EventType = "goal.started"
	EventGoalCompleted EventType = "goal.completed"
	EventGoalFailed    EventType = "goal.failed"
	EventGoalReplanned EventType = "goal.replanned"
)

// Step execution events track individual UI actions.
const (
	EventStepStarted   EventType = "step.started"
	EventStepCompleted EventType = "step.completed"
	EventStepFailed    EventType = "step.failed"
)

// LLM request events track provider interactions.
const (
	EventLLMRequestCompleted EventType = "llm.request.completed"
	EventLLMRequestFailed    EventType = "llm.request.failed"
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	return string(t)
}

// Event is a single observability event. Events are JSON-serializable and
// carry enough context for filtering and run correlation.
type Event struct {
	// Type identifies the category and nature of the event
	Type EventType `json:"type"`

	// Timestamp records when the event occurred
	Timestamp time.Time `json:"timestamp"`

	// RunID associates the event with an automation run
	RunID types.ID `json:"run_id,omitempty"`

	// GoalID identifies the goal the event concerns, if any
	GoalID string `json:"goal_id,omitempty"`

	// Payload contains event-specific typed data (use type assertion to access)
	Payload any `json:"payload,omitempty"`

	// Attrs contains additional key-value attributes
	Attrs map[string]any `json:"attrs,omitempty"`
}

// Filter defines criteria for filtering events in subscriptions.
// All fields use AND logic; empty fields act as wildcards.
type Filter struct {
	// Types filters by event types (empty = all types)
	Types []EventType `json:"types,omitempty"`

	// RunID filters by run (empty = all runs)
	RunID types.ID `json:"run_id,omitempty"`

	// GoalID filters by goal (empty = all goals)
	GoalID string `json:"goal_id,omitempty"`
}

// Matches determines if the given event matches this filter's criteria.
func (f *Filter) Matches(event Event) bool {
	if len(f.Types) > 0 {
		matched := false
		for _, t := range f.Types {
			if event.Type == t {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	if f.RunID != "" && event.RunID != f.RunID {
		return false
	}

	if f.GoalID != "" && event.GoalID != f.GoalID {
		return false
	}

	return true
}

// RunStartedPayload contains data for run.started events.
type RunStartedPayload struct {
	RunID   types.ID `json:"run_id"`
	Request string   `json:"request"`
}

// RunCompletedPayload contains data for run.completed events.
type RunCompletedPayload struct {
	RunID          types.ID      `json:"run_id"`
	Duration       time.Duration `json:"duration"`
	GoalsCompleted int           `json:"goals_completed"`
	GoalsTotal     int           `json:"goals_total"`
	Success        bool          `json:"success"`
}

// RunFailedPayload contains data for run.failed events.
type RunFailedPayload struct {
	RunID    types.ID      `json:"run_id"`
	Error    string        `json:"error"`
	Duration time.Duration `json:"duration"`
}

// PlanGeneratedPayload contains data for plan.generated events.
type PlanGeneratedPayload struct {
	RunID     types.ID `json:"run_id"`
	GoalCount int      `json:"goal_count"`
	Revision  int      `json:"revision"`
}

// PlanFeedbackPayload contains data for plan.feedback events.
type PlanFeedbackPayload struct {
	RunID    types.ID `json:"run_id"`
	Feedback string   `json:"feedback"`
	Round    int      `json:"round"`
}

// GoalStartedPayload contains data for goal.started events.
type GoalStartedPayload struct {
	GoalID      string `json:"goal_id"`
	Description string `json:"description"`
	StepCount   int    `json:"step_count"`
}

// GoalCompletedPayload contains data for goal.completed events.
type GoalCompletedPayload struct {
	GoalID   string        `json:"goal_id"`
	Duration time.Duration `json:"duration"`
	Steps    int           `json:"steps"`
}

// GoalFailedPayload contains data for goal.failed events.
type GoalFailedPayload struct {
	GoalID string `json:"goal_id"`
	Error  string `json:"error"`
}

// GoalReplannedPayload contains data for goal.replanned events.
type GoalReplannedPayload struct {
	GoalID     string `json:"goal_id"`
	FailedStep string `json:"failed_step"`
	Reason     string `json:"reason"`
}

// StepPayload contains data for step.* events.
type StepPayload struct {
	GoalID      string        `json:"goal_id"`
	Description string        `json:"description"`
	Action      string        `json:"action"`
	Index       int           `json:"index"`
	Total       int           `json:"total"`
	Duration    time.Duration `json:"duration,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// LLMRequestPayload contains data for llm.request.* events.
type LLMRequestPayload struct {
	Provider     string        `json:"provider"`
	Model        string        `json:"model"`
	Duration     time.Duration `json:"duration"`
	InputTokens  int           `json:"input_tokens,omitempty"`
	OutputTokens int           `json:"output_tokens,omitempty"`
	Error        string        `json:"error,omitempty"`
}
