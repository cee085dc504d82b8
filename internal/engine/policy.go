package engine

import "github.com/gridpilot-ai/gridpilot/internal/plan"

// FailurePolicy decides how the engine reacts when a step fails, either in
// execution or in validation. Decide is consulted exactly once per failure;
// returning true replans the current goal from scratch, returning false
// aborts the run.
type FailurePolicy interface {
	Decide(step *plan.Step, cause error) bool
}

// FailurePolicyFunc adapts a function to the FailurePolicy interface.
type FailurePolicyFunc func(step *plan.Step, cause error) bool

func (f FailurePolicyFunc) Decide(step *plan.Step, cause error) bool {
	return f(step, cause)
}

// AbortOnFailure always aborts the run on the first step failure.
func AbortOnFailure() FailurePolicy {
	return FailurePolicyFunc(func(*plan.Step, error) bool { return false })
}

// ReplanUpTo replans a bounded number of times across the run, then aborts.
func ReplanUpTo(max int) FailurePolicy {
	remaining := max
	return FailurePolicyFunc(func(*plan.Step, error) bool {
		if remaining <= 0 {
			return false
		}
		remaining--
		return true
	})
}
