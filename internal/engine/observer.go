package engine

import "github.com/gridpilot-ai/gridpilot/internal/plan"

// Observer receives fire-and-forget progress notifications during a run.
// Implementations must not block; the engine calls them inline and a slow
// observer stalls execution. Observer verdicts never influence control
// flow, that is the FailurePolicy's job.
type Observer interface {
	// GoalUpdated reports that a goal changed status.
	GoalUpdated(goal *plan.Goal)

	// StepsUpdated reports the current step list for the active goal and
	// the index of the step about to run (or just finished). current is -1
	// when no step is active.
	StepsUpdated(steps []*plan.Step, current int)

	// Log carries a human-readable progress message.
	Log(level string, message string)
}

// NopObserver ignores all notifications.
type NopObserver struct{}

func (NopObserver) GoalUpdated(goal *plan.Goal)                 {}
func (NopObserver) StepsUpdated(steps []*plan.Step, current int) {}
func (NopObserver) Log(level string, message string)             {}

var _ Observer = NopObserver{}
