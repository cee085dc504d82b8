package events

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpilot-ai/gridpilot/internal/types"
)

func TestEventBus_PublishSubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch, cleanup := bus.Subscribe(context.Background(), Filter{}, 10)
	defer cleanup()

	runID := types.NewID()
	err := bus.Publish(context.Background(), Event{
		Type:      EventGoalStarted,
		Timestamp: time.Now(),
		RunID:     runID,
		GoalID:    "g1",
	})
	require.NoError(t, err)

	select {
	case got := <-ch:
		assert.Equal(t, EventGoalStarted, got.Type)
		assert.Equal(t, runID, got.RunID)
		assert.Equal(t, "g1", got.GoalID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestEventBus_FilterByType(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	ch, cleanup := bus.Subscribe(context.Background(), Filter{
		Types: []EventType{EventStepFailed},
	}, 10)
	defer cleanup()

	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventStepCompleted}))
	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventStepFailed}))

	select {
	case got := <-ch:
		assert.Equal(t, EventStepFailed, got.Type)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case got := <-ch:
		t.Fatalf("unexpected extra event: %v", got.Type)
	default:
	}
}

func TestEventBus_FilterByRun(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	want := types.NewID()
	other := types.NewID()

	ch, cleanup := bus.Subscribe(context.Background(), Filter{RunID: want}, 10)
	defer cleanup()

	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventRunStarted, RunID: other}))
	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventRunStarted, RunID: want}))

	got := <-ch
	assert.Equal(t, want, got.RunID)
}

func TestEventBus_SlowSubscriberDoesNotBlock(t *testing.T) {
	var droppedCount int
	bus := NewEventBus(WithErrorHandler(func(err error, ctx map[string]any) {
		droppedCount++
	}))
	defer bus.Close()

	// Buffer of 1 and no reader: the second publish must drop, not block.
	_, cleanup := bus.Subscribe(context.Background(), Filter{}, 1)
	defer cleanup()

	require.NoError(t, bus.Publish(context.Background(), Event{Type: EventStepStarted}))

	done := make(chan struct{})
	go func() {
		_ = bus.Publish(context.Background(), Event{Type: EventStepCompleted})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	assert.Equal(t, 1, droppedCount)
}

func TestEventBus_Close(t *testing.T) {
	bus := NewEventBus()

	ch, cleanup := bus.Subscribe(context.Background(), Filter{}, 10)
	defer cleanup()

	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close(), "close is idempotent")

	_, open := <-ch
	assert.False(t, open, "subscriber channel should be closed")

	err := bus.Publish(context.Background(), Event{Type: EventRunStarted})
	assert.Error(t, err)
	assert.Equal(t, 0, bus.SubscriberCount())
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	defer bus.Close()

	_, cleanup := bus.Subscribe(context.Background(), Filter{}, 10)
	assert.Equal(t, 1, bus.SubscriberCount())

	cleanup()
	assert.Equal(t, 0, bus.SubscriberCount())
}
