package console

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridpilot-ai/gridpilot/internal/lifecycle"
	"github.com/gridpilot-ai/gridpilot/internal/llm/providers"
	"github.com/gridpilot-ai/gridpilot/internal/plan"
	"github.com/gridpilot-ai/gridpilot/internal/planner"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

func TestGate_OneInFlight(t *testing.T) {
	var g Gate

	require.True(t, g.TryAcquire())
	assert.False(t, g.TryAcquire(), "second acquire is rejected, not queued")
	assert.True(t, g.Busy())

	g.Release()
	assert.False(t, g.Busy())
	assert.True(t, g.TryAcquire())
}

func TestGate_ConcurrentAcquire(t *testing.T) {
	var g Gate
	var wg sync.WaitGroup
	var mu sync.Mutex
	acquired := 0

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.TryAcquire() {
				mu.Lock()
				acquired++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, acquired, "exactly one goroutine wins the gate")
}

// blockingRunner blocks until released, standing in for a long run.
type blockingRunner struct {
	started chan struct{}
	release chan struct{}
}

func (r *blockingRunner) Run(ctx context.Context, runID types.ID, p *plan.Plan) (bool, error) {
	close(r.started)
	<-r.release
	return true, nil
}

func TestConsole_SubmitRejectsWhileRunning(t *testing.T) {
	goalJSON := `[{"id": "g1", "description": "only goal"}]`
	gen := planner.NewGoalPlanner(providers.NewMockProvider(goalJSON))
	machine := lifecycle.NewMachine(gen, func(ctx context.Context) (string, error) {
		return "window: Book1", nil
	})

	runner := &blockingRunner{started: make(chan struct{}), release: make(chan struct{})}

	var out bytes.Buffer
	c := NewConsole(machine, runner, WithIO(strings.NewReader("a\n"), &out))

	done, accepted := c.Submit(context.Background(), "do the thing")
	require.True(t, accepted)

	select {
	case <-runner.started:
	case <-time.After(2 * time.Second):
		t.Fatal("runner never started")
	}

	// A second submission while the first is in flight is rejected.
	_, accepted = c.Submit(context.Background(), "another thing")
	assert.False(t, accepted)

	close(runner.release)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session never finished")
	}

	// Gate released on worker exit: a new submission is accepted again.
	done2, accepted := c.Submit(context.Background(), "third thing")
	require.True(t, accepted)
	<-done2
}

// staticRunner completes every goal immediately.
type staticRunner struct {
	calls   int
	runID   types.ID
	request string
}

func (r *staticRunner) Run(ctx context.Context, runID types.ID, p *plan.Plan) (bool, error) {
	r.calls++
	r.runID = runID
	r.request = p.Request
	for _, g := range p.Goals {
		g.Start()
		g.Complete()
	}
	return true, nil
}

func newScriptedConsole(t *testing.T, goalJSON, input string) (*Console, *staticRunner, *bytes.Buffer) {
	t.Helper()
	gen := planner.NewGoalPlanner(providers.NewMockProvider(goalJSON))
	machine := lifecycle.NewMachine(gen, func(ctx context.Context) (string, error) {
		return "window: Book1", nil
	})
	runner := &staticRunner{}
	var out bytes.Buffer
	c := NewConsole(machine, runner, WithIO(strings.NewReader(input), &out))
	return c, runner, &out
}

func TestConsole_AcceptedPlanRuns(t *testing.T) {
	goalJSON := `[{"id": "g1", "description": "Add header"}]`
	c, runner, out := newScriptedConsole(t, goalJSON, "a\n")

	done, accepted := c.Submit(context.Background(), "Add header Month to A1")
	require.True(t, accepted)
	<-done

	assert.Equal(t, 1, runner.calls)
	assert.Contains(t, out.String(), "Add header")
	assert.Contains(t, out.String(), "run completed: 1/1 goals")
	assert.Equal(t, lifecycle.StateCreatingGoals, c.machine.State(),
		"machine is ready for the next request after a completed run")
}

func TestConsole_RunnerReceivesReviewedPlan(t *testing.T) {
	goalJSON := `[{"id": "g1", "description": "Add header"}]`
	// Modify with feedback, then accept the regenerated plan.
	c, runner, _ := newScriptedConsole(t, goalJSON, "m\nuse column B instead\na\n")

	done, accepted := c.Submit(context.Background(), "Add header Month")
	require.True(t, accepted)
	<-done

	require.Equal(t, 1, runner.calls)
	// The executed plan carries the request the accepted revision was
	// generated from, feedback included.
	assert.Equal(t, "Add header Month\nFeedback 1: use column B instead", runner.request)
}

func TestConsole_RejectedPlanDoesNotRun(t *testing.T) {
	goalJSON := `[{"id": "g1", "description": "Add header"}]`
	// reject, then confirm.
	c, runner, _ := newScriptedConsole(t, goalJSON, "r\ny\n")

	done, accepted := c.Submit(context.Background(), "Add header")
	require.True(t, accepted)
	<-done

	assert.Equal(t, 0, runner.calls)
	assert.Equal(t, lifecycle.StateCreatingGoals, c.machine.State())
}

func TestConsole_UnrecognizedChoiceReprompts(t *testing.T) {
	goalJSON := `[{"id": "g1", "description": "Add header"}]`
	// Garbage first, then accept.
	c, runner, _ := newScriptedConsole(t, goalJSON, "whatever\na\n")

	done, accepted := c.Submit(context.Background(), "Add header")
	require.True(t, accepted)
	<-done

	assert.Equal(t, 1, runner.calls)
}

func TestConsole_GenerationFailureReported(t *testing.T) {
	c, runner, out := newScriptedConsole(t, "not json at all", "")

	done, accepted := c.Submit(context.Background(), "Add header")
	require.True(t, accepted)
	<-done

	assert.Equal(t, 0, runner.calls)
	assert.Contains(t, out.String(), "error:")
	assert.Equal(t, lifecycle.StateCreatingGoals, c.machine.State(),
		"console resets the machine after a failure")
}

func TestConsole_RunBanner(t *testing.T) {
	goalJSON := `[{"id": "g1", "description": "x"}]`
	c, _, out := newScriptedConsole(t, goalJSON, "quit\n")

	require.NoError(t, c.Run(context.Background()))
	assert.Contains(t, out.String(), "gridpilot: spreadsheet automation")
}

func TestConsole_DecideParsesAnswer(t *testing.T) {
	goalJSON := `[{"id": "g1", "description": "x"}]`

	c, _, _ := newScriptedConsole(t, goalJSON, "y\n")
	assert.True(t, c.Decide(&plan.Step{Description: "move"}, assert.AnError))

	c, _, _ = newScriptedConsole(t, goalJSON, "garbage\nn\n")
	assert.False(t, c.Decide(&plan.Step{Description: "move"}, assert.AnError))

	// Exhausted input means abort.
	c, _, _ = newScriptedConsole(t, goalJSON, "")
	assert.False(t, c.Decide(&plan.Step{Description: "move"}, assert.AnError))
}
