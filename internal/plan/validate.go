package plan

import (
	"fmt"

	"github.com/gridpilot-ai/gridpilot/internal/types"
)

// ValidateGoals checks the structural validity of a generated goal list:
// goal IDs must be pairwise distinct, every dependency must reference a goal
// present in the list, and the dependency graph must be acyclic. A plan
// violating any of these is rejected before it reaches human review.
func ValidateGoals(goals []*Goal) error {
	byID := make(map[string]*Goal, len(goals))
	for _, g := range goals {
		if g.ID == "" {
			return types.NewError(types.PLAN_MISSING_FIELD, "goal is missing an id")
		}
		if _, dup := byID[g.ID]; dup {
			return types.NewError(types.PLAN_DUPLICATE_GOAL,
				fmt.Sprintf("duplicate goal id %q", g.ID))
		}
		byID[g.ID] = g
	}

	for _, g := range goals {
		for _, dep := range g.Dependencies {
			if _, ok := byID[dep]; !ok {
				return types.NewError(types.PLAN_DANGLING_DEP,
					fmt.Sprintf("goal %q depends on unknown goal %q", g.ID, dep))
			}
		}
	}

	// Depth-first traversal with a per-path visited set: a dependency id
	// seen twice on the same path is a cycle.
	for _, g := range goals {
		if err := checkCycle(g, byID, map[string]bool{}); err != nil {
			return err
		}
	}

	return nil
}

func checkCycle(g *Goal, byID map[string]*Goal, onPath map[string]bool) error {
	if onPath[g.ID] {
		return types.NewError(types.PLAN_DEPENDENCY_CYCLE,
			fmt.Sprintf("dependency cycle through goal %q", g.ID))
	}

	onPath[g.ID] = true
	defer delete(onPath, g.ID)

	for _, dep := range g.Dependencies {
		if err := checkCycle(byID[dep], byID, onPath); err != nil {
			return err
		}
	}

	return nil
}

// NextReadyGoal returns the first pending goal whose dependencies have all
// completed, or nil when no goal is ready. Used only when the engine is
// configured for dependency-respecting order; the default engine follows
// list order and trusts the planner's sequencing.
func NextReadyGoal(goals []*Goal) *Goal {
	byID := make(map[string]*Goal, len(goals))
	for _, g := range goals {
		byID[g.ID] = g
	}

	for _, g := range goals {
		if g.Status != GoalStatusPending {
			continue
		}

		ready := true
		for _, dep := range g.Dependencies {
			if d, ok := byID[dep]; !ok || d.Status != GoalStatusCompleted {
				ready = false
				break
			}
		}

		if ready {
			return g
		}
	}

	return nil
}
