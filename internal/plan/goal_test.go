package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpilot-ai/gridpilot/internal/types"
)

func TestGoalLifecycle(t *testing.T) {
	g := NewGoal("g1", "add a header row")
	assert.Equal(t, GoalStatusPending, g.Status)
	assert.Empty(t, g.Steps)
	assert.Nil(t, g.StartedAt)

	g.Start()
	assert.Equal(t, GoalStatusInProgress, g.Status)
	require.NotNil(t, g.StartedAt)
	assert.Nil(t, g.CompletedAt)

	g.Complete()
	assert.Equal(t, GoalStatusCompleted, g.Status)
	require.NotNil(t, g.CompletedAt)
	assert.True(t, g.Status.IsTerminal())
}

func TestGoalFail(t *testing.T) {
	g := NewGoal("g1", "add a header row")
	g.Start()
	g.Fail("element not found")

	assert.Equal(t, GoalStatusFailed, g.Status)
	assert.Equal(t, "element not found", g.ErrorMessage)
	require.NotNil(t, g.CompletedAt)
}

func TestGoalNeedsReview(t *testing.T) {
	g := NewGoal("g1", "add a header row")
	g.NeedsReview("ambiguous target sheet")

	assert.Equal(t, GoalStatusNeedsReview, g.Status)
	assert.False(t, g.Status.IsTerminal())
}

func TestGoalReplaceSteps(t *testing.T) {
	g := NewGoal("g1", "add a header row")
	first := []*Step{{Description: "old", Action: ActionLeftClick}}
	first[0].Fail("boom")
	g.ReplaceSteps(first)

	fresh := []*Step{
		{Description: "move", Action: ActionMoveToElement},
		{Description: "type", Action: ActionTypeText},
	}
	g.ReplaceSteps(fresh)

	require.Len(t, g.Steps, 2)
	assert.Equal(t, "move", g.Steps[0].Description)
	assert.False(t, g.AnyStepFailed())
}

func TestGoalProgress(t *testing.T) {
	g := NewGoal("g1", "add a header row")
	assert.Equal(t, 0.0, g.Progress())

	g.ReplaceSteps([]*Step{
		{Action: ActionMoveToElement},
		{Action: ActionLeftClick},
		{Action: ActionTypeText},
		{Action: ActionPressKeyCombo},
	})
	g.Steps[0].Complete()
	g.Steps[1].Complete()

	assert.Equal(t, 50.0, g.Progress())
	assert.False(t, g.AllStepsCompleted())

	g.Steps[2].Complete()
	g.Steps[3].Complete()
	assert.Equal(t, 100.0, g.Progress())
	assert.True(t, g.AllStepsCompleted())
}

func TestStepTransitions(t *testing.T) {
	s := &Step{Description: "type the header", Action: ActionTypeText}
	assert.False(t, s.Status.IsTerminal())

	s.Start()
	assert.Equal(t, StepStatusInProgress, s.Status)

	s.FailValidation("cell A1 still empty")
	assert.Equal(t, StepStatusValidationFailed, s.Status)
	assert.Equal(t, "cell A1 still empty", s.ErrorMessage)
	assert.True(t, s.Status.IsTerminal())
}

func TestParseAction(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Action
		wantErr bool
	}{
		{name: "known action", input: "move_to_element", want: ActionMoveToElement},
		{name: "click", input: "left_click", want: ActionLeftClick},
		{name: "unknown action", input: "teleport", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAction(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, types.IsCode(err, types.PLAN_UNKNOWN_ACTION))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStepParams(t *testing.T) {
	s := &Step{
		Action: ActionMoveToElement,
		Parameters: map[string]any{
			"element_id": float64(42),
			"text":       "Month\n",
			"keywords":   []any{"A1", "header"},
		},
	}

	id, err := s.IntParam("element_id")
	require.NoError(t, err)
	assert.Equal(t, 42, id)

	text, err := s.StringParam("text")
	require.NoError(t, err)
	assert.Equal(t, "Month\n", text)

	kws, err := s.StringSliceParam("keywords")
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "header"}, kws)

	_, err = s.StringParam("missing")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.AUTO_MISSING_PARAM))

	dist, err := s.IntParamDefault("distance", 120)
	require.NoError(t, err)
	assert.Equal(t, 120, dist)
}

func TestPlanHelpers(t *testing.T) {
	g1 := NewGoal("g1", "first")
	g2 := NewGoal("g2", "second")
	p := NewPlan("build a budget", []*Goal{g1, g2})

	assert.False(t, p.Completed())
	assert.Empty(t, p.CompletedGoals())
	assert.Same(t, g2, p.Goal("g2"))
	assert.Nil(t, p.Goal("g3"))

	g1.Complete()
	assert.Equal(t, []*Goal{g1}, p.CompletedGoals())

	g2.Complete()
	assert.True(t, p.Completed())
}
