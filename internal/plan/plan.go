// Package plan holds the goal/step data model shared by the planner, the
// execution engine, and the lifecycle state machine. A Plan is the full
// ordered list of goals currently proposed or accepted; it is replaced
// wholesale on regeneration, never patched incrementally.
package plan

import (
	"time"
)

// Plan is the ordered sequence of goals currently under consideration.
type Plan struct {
	// Request is the user request (possibly feedback-enhanced) that
	// produced this plan.
	Request string `json:"request"`

	// Goals is the ordered goal list. List order is execution order.
	Goals []*Goal `json:"goals"`

	// CreatedAt is when the plan was generated.
	CreatedAt time.Time `json:"created_at"`
}

// NewPlan creates a plan for the given request and goal list.
func NewPlan(request string, goals []*Goal) *Plan {
	return &Plan{
		Request:   request,
		Goals:     goals,
		CreatedAt: time.Now(),
	}
}

// Completed reports whether every goal in the plan has completed.
func (p *Plan) Completed() bool {
	for _, g := range p.Goals {
		if g.Status != GoalStatusCompleted {
			return false
		}
	}
	return true
}

// CompletedGoals returns the goals that have already completed, in order.
func (p *Plan) CompletedGoals() []*Goal {
	out := make([]*Goal, 0, len(p.Goals))
	for _, g := range p.Goals {
		if g.Status == GoalStatusCompleted {
			out = append(out, g)
		}
	}
	return out
}

// Goal returns the goal with the given ID, or nil when absent.
func (p *Plan) Goal(id string) *Goal {
	for _, g := range p.Goals {
		if g.ID == id {
			return g
		}
	}
	return nil
}
