package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpilot-ai/gridpilot/internal/types"
)

func goalWithDeps(id string, deps ...string) *Goal {
	g := NewGoal(id, "goal "+id)
	g.Dependencies = deps
	return g
}

func TestValidateGoals(t *testing.T) {
	tests := []struct {
		name     string
		goals    []*Goal
		wantCode types.ErrorCode
	}{
		{
			name:  "empty plan is valid",
			goals: nil,
		},
		{
			name: "linear dependencies are valid",
			goals: []*Goal{
				goalWithDeps("g1"),
				goalWithDeps("g2", "g1"),
				goalWithDeps("g3", "g2"),
			},
		},
		{
			name: "diamond dependencies are valid",
			goals: []*Goal{
				goalWithDeps("g1"),
				goalWithDeps("g2", "g1"),
				goalWithDeps("g3", "g1"),
				goalWithDeps("g4", "g2", "g3"),
			},
		},
		{
			name: "duplicate ids rejected",
			goals: []*Goal{
				goalWithDeps("g1"),
				goalWithDeps("g1"),
			},
			wantCode: types.PLAN_DUPLICATE_GOAL,
		},
		{
			name: "dangling dependency rejected",
			goals: []*Goal{
				goalWithDeps("g1", "missing"),
			},
			wantCode: types.PLAN_DANGLING_DEP,
		},
		{
			name: "self dependency rejected",
			goals: []*Goal{
				goalWithDeps("g1", "g1"),
			},
			wantCode: types.PLAN_DEPENDENCY_CYCLE,
		},
		{
			name: "two-node cycle rejected",
			goals: []*Goal{
				goalWithDeps("g1", "g2"),
				goalWithDeps("g2", "g1"),
			},
			wantCode: types.PLAN_DEPENDENCY_CYCLE,
		},
		{
			name: "missing id rejected",
			goals: []*Goal{
				goalWithDeps(""),
			},
			wantCode: types.PLAN_MISSING_FIELD,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGoals(tt.goals)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, types.IsCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestNextReadyGoal(t *testing.T) {
	g1 := goalWithDeps("g1")
	g2 := goalWithDeps("g2", "g1")
	g3 := goalWithDeps("g3", "g2")
	goals := []*Goal{g1, g2, g3}

	assert.Same(t, g1, NextReadyGoal(goals))

	g1.Complete()
	assert.Same(t, g2, NextReadyGoal(goals))

	g2.Start()
	// g2 is in progress, g3's dependency not completed: nothing ready.
	assert.Nil(t, NextReadyGoal(goals))

	g2.Complete()
	assert.Same(t, g3, NextReadyGoal(goals))

	g3.Complete()
	assert.Nil(t, NextReadyGoal(goals))
}

func TestGoal_Lifecycle(t *testing.T) {
	g := NewGoal("g1", "enter headers")
	assert.Equal(t, GoalStatusPending, g.Status)
	assert.Nil(t, g.StartedAt)
	assert.Empty(t, g.Steps)

	g.Start()
	assert.Equal(t, GoalStatusInProgress, g.Status)
	require.NotNil(t, g.StartedAt)

	g.Fail("planner unavailable")
	assert.Equal(t, GoalStatusFailed, g.Status)
	assert.Equal(t, "planner unavailable", g.ErrorMessage)
	require.NotNil(t, g.CompletedAt)
	assert.True(t, g.Status.IsTerminal())
}

func TestGoal_Progress(t *testing.T) {
	g := NewGoal("g1", "enter data")
	assert.Equal(t, 0.0, g.Progress())

	s1 := &Step{Description: "move", Action: ActionMoveToElement, Status: StepStatusPending}
	s2 := &Step{Description: "click", Action: ActionLeftClick, Status: StepStatusPending}
	g.ReplaceSteps([]*Step{s1, s2})

	assert.False(t, g.AllStepsCompleted())
	assert.False(t, g.AnyStepFailed())

	s1.Complete()
	assert.Equal(t, 50.0, g.Progress())

	s2.Fail("element not found")
	assert.True(t, g.AnyStepFailed())
	assert.False(t, g.AllStepsCompleted())
}

func TestParseAction_KnownActions(t *testing.T) {
	for _, name := range []string{
		"move_to_element", "left_click", "right_click", "double_left_click",
		"type_text", "press_key_combo", "scroll_up", "scroll_down", "drag_to_element",
	} {
		a, err := ParseAction(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, a.String())
	}

	_, err := ParseAction("open_terminal")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.PLAN_UNKNOWN_ACTION))
}

func TestStep_Params(t *testing.T) {
	s := &Step{
		Action: ActionMoveToElement,
		Parameters: map[string]any{
			"element_id":       float64(42),
			"element_keywords": []any{"Sheet1", "A1"},
			"text":             "Month\n",
		},
	}

	id, err := s.IntParam("element_id")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	kw, err := s.StringSliceParam("element_keywords")
	require.NoError(t, err)
	assert.Equal(t, []string{"Sheet1", "A1"}, kw)

	text, err := s.StringParam("text")
	require.NoError(t, err)
	assert.Equal(t, "Month\n", text)

	_, err = s.IntParam("missing")
	assert.True(t, types.IsCode(err, types.AUTO_MISSING_PARAM))

	dist, err := s.IntParamDefault("distance", 800)
	require.NoError(t, err)
	assert.Equal(t, 800, dist)

	// Models frequently quote numeric ids.
	s.Parameters["element_id"] = "17"
	id, err = s.IntParam("element_id")
	require.NoError(t, err)
	assert.Equal(t, 17, id)
}
