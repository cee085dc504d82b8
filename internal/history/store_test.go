package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpilot-ai/gridpilot/internal/plan"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndCompleteRun(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := types.NewID()
	require.NoError(t, s.RecordRun(ctx, id, "build a budget sheet"))

	run, err := s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, RunStatusRunning, run.Status)
	assert.Equal(t, "build a budget sheet", run.Request)
	assert.Nil(t, run.CompletedAt)

	require.NoError(t, s.CompleteRun(ctx, id, RunStatusCompleted, 3, 3, ""))

	run, err = s.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, RunStatusCompleted, run.Status)
	assert.Equal(t, 3, run.GoalsCompleted)
	assert.Equal(t, 3, run.GoalsTotal)
	assert.NotNil(t, run.CompletedAt)
}

func TestStore_CompleteRun_Unknown(t *testing.T) {
	s := openTestStore(t)

	err := s.CompleteRun(context.Background(), types.NewID(), RunStatusFailed, 0, 1, "boom")
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.HISTORY_QUERY_FAILED))
}

func TestStore_SaveAndListGoals(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id := types.NewID()
	require.NoError(t, s.RecordRun(ctx, id, "request"))

	g1 := plan.NewGoal("g1", "first")
	g1.Complete()
	g2 := plan.NewGoal("g2", "second")
	g2.Fail("element not found")

	require.NoError(t, s.SaveGoals(ctx, id, []*plan.Goal{g1, g2}))

	goals, err := s.ListGoals(ctx, id)
	require.NoError(t, err)
	require.Len(t, goals, 2)
	assert.Equal(t, "g1", goals[0].GoalID)
	assert.Equal(t, string(plan.GoalStatusCompleted), goals[0].Status)
	assert.Equal(t, "element not found", goals[1].Error)

	// Saving again replaces, not appends.
	require.NoError(t, s.SaveGoals(ctx, id, []*plan.Goal{g1}))
	goals, err = s.ListGoals(ctx, id)
	require.NoError(t, err)
	assert.Len(t, goals, 1)
}

func TestStore_ListRuns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var ids []types.ID
	for i := 0; i < 3; i++ {
		id := types.NewID()
		ids = append(ids, id)
		require.NoError(t, s.RecordRun(ctx, id, "request"))
	}

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, runs, 3)

	runs, err = s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestStore_GetRun_NotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetRun(context.Background(), types.NewID())
	require.Error(t, err)
	assert.True(t, types.IsCode(err, types.HISTORY_QUERY_FAILED))
}
