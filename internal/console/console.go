// Package console is the interactive surface: it reads user requests,
// walks them through the plan review protocol, and drives accepted plans
// through the execution engine on a worker goroutine guarded by a
// one-operation-in-flight gate.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"

	"github.com/gridpilot-ai/gridpilot/internal/engine"
	"github.com/gridpilot-ai/gridpilot/internal/history"
	"github.com/gridpilot-ai/gridpilot/internal/lifecycle"
	"github.com/gridpilot-ai/gridpilot/internal/plan"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

// Runner executes an accepted plan. Satisfied by *engine.Engine.
type Runner interface {
	Run(ctx context.Context, runID types.ID, p *plan.Plan) (bool, error)
}

// Console owns the interactive session. Its view state (goal list, step
// list, current step) is guarded by a mutex held only for the duration of
// an update or render, never across a blocking call, so display stays
// responsive during long LLM round trips.
type Console struct {
	machine *lifecycle.Machine
	runner  Runner
	store   *history.Store
	gate    Gate
	scanner *bufio.Scanner
	out     io.Writer
	logger  *slog.Logger
	st      styles
	width   int

	mu      sync.Mutex
	goals   []*plan.Goal
	steps   []*plan.Step
	current int
}

// ConsoleOption is a functional option for configuring a Console.
type ConsoleOption func(*Console)

// WithIO overrides the input and output streams, used by tests to script
// a session.
func WithIO(in io.Reader, out io.Writer) ConsoleOption {
	return func(c *Console) {
		c.scanner = bufio.NewScanner(in)
		c.out = out
	}
}

// WithHistory enables run persistence.
func WithHistory(store *history.Store) ConsoleOption {
	return func(c *Console) {
		c.store = store
	}
}

// WithConsoleLogger sets the logger for the console.
func WithConsoleLogger(l *slog.Logger) ConsoleOption {
	return func(c *Console) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewConsole creates a Console over the given state machine and runner,
// reading from stdin and writing to stdout by default.
func NewConsole(machine *lifecycle.Machine, runner Runner, opts ...ConsoleOption) *Console {
	c := &Console{
		machine: machine,
		runner:  runner,
		scanner: bufio.NewScanner(os.Stdin),
		out:     os.Stdout,
		logger:  slog.Default(),
		st:      defaultStyles(),
		width:   80,
		current: -1,
	}

	for _, opt := range opts {
		opt(c)
	}

	if f, ok := c.out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			c.width = w
		}
	}

	return c
}

// Run is the interactive loop: prompt for a request, submit it, wait for
// the session to finish, repeat. It returns when input is exhausted or
// the user quits.
func (c *Console) Run(ctx context.Context) error {
	fmt.Fprintln(c.out, c.st.title.Render("gridpilot: spreadsheet automation"))
	fmt.Fprintln(c.out, c.st.dim.Render(`type a request, or "quit" to exit`))

	for {
		line, ok := c.prompt("request> ")
		if !ok {
			return nil
		}
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return nil
		}

		done, accepted := c.Submit(ctx, line)
		if !accepted {
			fmt.Fprintln(c.out, c.st.errText.Render("an operation is already running"))
			continue
		}

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Submit starts a session for the request on a worker goroutine. It
// returns a channel closed when the session ends, and false when another
// session is already in flight (the request is rejected, not queued).
func (c *Console) Submit(ctx context.Context, request string) (<-chan struct{}, bool) {
	if !c.gate.TryAcquire() {
		return nil, false
	}

	done := make(chan struct{})
	go func() {
		// The gate is released however the worker exits.
		defer c.gate.Release()
		defer close(done)
		c.runSession(ctx, request)
	}()

	return done, true
}

// runSession walks one request through plan review and, on acceptance,
// execution.
func (c *Console) runSession(ctx context.Context, request string) {
	res := c.machine.HandleEvent(ctx, lifecycle.Event{
		Type:        lifecycle.EventPlanCreated,
		UserRequest: request,
	})

	for {
		switch res.State {
		case lifecycle.StateReviewingGoals:
			c.setGoals(res.Goals)
			c.renderGoals(res.Goals)
			choice, ok := c.prompt("[a]ccept, [m]odify, or [r]eject plan? ")
			if !ok {
				return
			}
			res = c.machine.HandleEvent(ctx, lifecycle.Event{
				Type:   lifecycle.EventReviewChoiceMade,
				Choice: parseReviewChoice(choice),
			})

		case lifecycle.StateAwaitingFeedback:
			feedback, ok := c.prompt("feedback> ")
			if !ok {
				return
			}
			res = c.machine.HandleEvent(ctx, lifecycle.Event{
				Type:     lifecycle.EventFeedbackProvided,
				Feedback: feedback,
			})

		case lifecycle.StateConfirmingRejection:
			answer, ok := c.prompt("discard this plan? (y/n) ")
			if !ok {
				return
			}
			res = c.machine.HandleEvent(ctx, lifecycle.Event{
				Type:    lifecycle.EventConfirmRejection,
				Confirm: parseConfirmChoice(answer),
			})

		case lifecycle.StateGoalsAccepted:
			completed := c.executeAccepted(ctx, c.machine.Plan())
			eventType := lifecycle.EventGoalsFailed
			if completed {
				eventType = lifecycle.EventGoalsCompleted
			}
			c.machine.HandleEvent(ctx, lifecycle.Event{Type: eventType})
			return

		case lifecycle.StateCreatingGoals:
			// Plan rejected; back to the request prompt.
			return

		case lifecycle.StateFailed:
			fmt.Fprintln(c.out, c.st.errText.Render("error: "+res.Err))
			c.machine.Reset()
			return

		default:
			fmt.Fprintln(c.out, c.st.errText.Render(fmt.Sprintf("unexpected state %s", res.State)))
			return
		}
	}
}

// executeAccepted runs the accepted plan and records the run outcome.
func (c *Console) executeAccepted(ctx context.Context, p *plan.Plan) bool {
	runID := c.machine.RunID()
	c.recordRunStart(ctx, runID, p.Request)

	ok, err := c.runner.Run(ctx, runID, p)

	goals := p.Goals
	completedCount := len(p.CompletedGoals())

	switch {
	case err != nil:
		fmt.Fprintln(c.out, c.st.errText.Render("run failed: "+err.Error()))
		c.recordRunEnd(ctx, runID, history.RunStatusFailed, completedCount, len(goals), err.Error(), goals)
	case !ok:
		fmt.Fprintln(c.out, c.st.failed.Render("run aborted"))
		c.recordRunEnd(ctx, runID, history.RunStatusAborted, completedCount, len(goals), "", goals)
	default:
		fmt.Fprintln(c.out, c.st.done.Render(
			fmt.Sprintf("run completed: %d/%d goals", completedCount, len(goals))))
		c.recordRunEnd(ctx, runID, history.RunStatusCompleted, completedCount, len(goals), "", goals)
	}

	return ok && err == nil
}

func (c *Console) recordRunStart(ctx context.Context, runID types.ID, request string) {
	if c.store == nil {
		return
	}
	if err := c.store.RecordRun(ctx, runID, request); err != nil {
		c.logger.Warn("failed to record run", "run", runID, "error", err)
	}
}

func (c *Console) recordRunEnd(ctx context.Context, runID types.ID, status history.RunStatus, completed, total int, errMsg string, goals []*plan.Goal) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveGoals(ctx, runID, goals); err != nil {
		c.logger.Warn("failed to save run goals", "run", runID, "error", err)
	}
	if err := c.store.CompleteRun(ctx, runID, status, completed, total, errMsg); err != nil {
		c.logger.Warn("failed to complete run record", "run", runID, "error", err)
	}
}

// GoalUpdated implements engine.Observer.
func (c *Console) GoalUpdated(goal *plan.Goal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s %s\n",
		c.statusGlyph(string(goal.Status)),
		c.st.goalID.Render(goal.ID),
		goal.Description)
}

// StepsUpdated implements engine.Observer.
func (c *Console) StepsUpdated(steps []*plan.Step, current int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.steps = steps
	c.current = current

	if current < 0 || current >= len(steps) {
		fmt.Fprintln(c.out, c.st.dim.Render(fmt.Sprintf("  planned %d steps", len(steps))))
		return
	}

	step := steps[current]
	fmt.Fprintf(c.out, "  %s [%d/%d] %s\n",
		c.statusGlyph(string(step.Status)), current+1, len(steps), step.Description)
}

// Log implements engine.Observer.
func (c *Console) Log(level, message string) {
	fmt.Fprintln(c.out, c.st.dim.Render(message))
}

// Decide implements engine.FailurePolicy: the human at the console chooses
// between replanning the goal and aborting the run.
func (c *Console) Decide(step *plan.Step, cause error) bool {
	fmt.Fprintln(c.out, c.st.failed.Render(
		fmt.Sprintf("step failed: %s (%v)", step.Description, cause)))

	for {
		answer, ok := c.prompt("replan this goal? (y/n) ")
		if !ok {
			return false
		}
		switch strings.ToLower(answer) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
	}
}

func (c *Console) setGoals(goals []*plan.Goal) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.goals = goals
}

func (c *Console) renderGoals(goals []*plan.Goal) {
	fmt.Fprintln(c.out, c.st.title.Render("proposed plan"))
	for i, g := range goals {
		deps := ""
		if len(g.Dependencies) > 0 {
			deps = c.st.dim.Render(" (after " + strings.Join(g.Dependencies, ", ") + ")")
		}
		fmt.Fprintf(c.out, "  %d. %s %s%s\n", i+1, c.st.goalID.Render(g.ID), g.Description, deps)
	}
}

func (c *Console) statusGlyph(status string) string {
	switch status {
	case string(plan.GoalStatusCompleted):
		return c.st.done.Render("✓")
	case string(plan.GoalStatusInProgress):
		return c.st.active.Render("▸")
	case string(plan.GoalStatusFailed), string(plan.StepStatusValidationFailed):
		return c.st.failed.Render("✗")
	default:
		return c.st.pending.Render("·")
	}
}

// prompt prints a prompt and reads one trimmed line. ok is false when
// input is exhausted.
func (c *Console) prompt(text string) (string, bool) {
	fmt.Fprint(c.out, c.st.prompt.Render(text))
	if !c.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.scanner.Text()), true
}

func parseReviewChoice(s string) lifecycle.ReviewChoice {
	switch strings.ToLower(s) {
	case "a", "accept":
		return lifecycle.ChoiceAccept
	case "m", "modify":
		return lifecycle.ChoiceModify
	case "r", "reject":
		return lifecycle.ChoiceReject
	default:
		return lifecycle.ReviewChoice("")
	}
}

func parseConfirmChoice(s string) lifecycle.ConfirmChoice {
	switch strings.ToLower(s) {
	case "y", "yes":
		return lifecycle.ConfirmYes
	case "n", "no":
		return lifecycle.ConfirmNo
	default:
		return lifecycle.ConfirmChoice("")
	}
}

var (
	_ engine.Observer      = (*Console)(nil)
	_ engine.FailurePolicy = (*Console)(nil)
)
