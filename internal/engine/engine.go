// Package engine drives accepted goal plans to completion. The execution
// loop walks the goal list, plans steps for one goal at a time against a
// fresh application snapshot, executes and validates each step, and routes
// every failure through the configured failure policy: replan the goal or
// abort the run.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/gridpilot-ai/gridpilot/internal/automation"
	"github.com/gridpilot-ai/gridpilot/internal/events"
	"github.com/gridpilot-ai/gridpilot/internal/plan"
	"github.com/gridpilot-ai/gridpilot/internal/trail"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

// StepPlanner produces the step list for one goal.
type StepPlanner interface {
	PlanSteps(ctx context.Context, goal *plan.Goal, completed []*plan.Goal, snap automation.Snapshot) ([]*plan.Step, error)
}

// StepPlannerFunc adapts a function to the StepPlanner interface.
type StepPlannerFunc func(ctx context.Context, goal *plan.Goal, completed []*plan.Goal, snap automation.Snapshot) ([]*plan.Step, error)

func (f StepPlannerFunc) PlanSteps(ctx context.Context, goal *plan.Goal, completed []*plan.Goal, snap automation.Snapshot) ([]*plan.Step, error) {
	return f(ctx, goal, completed, snap)
}

// StepExecutor runs one step against the live application and captures
// application snapshots.
type StepExecutor interface {
	Execute(ctx context.Context, step *plan.Step) (bool, error)
	CaptureSnapshot(ctx context.Context) (automation.Snapshot, error)
}

// StepValidator judges an executed step against its validation criteria.
type StepValidator interface {
	ValidateStep(ctx context.Context, step *plan.Step, snap automation.Snapshot) (bool, string, error)
}

// acceptAllValidator preserves the short-circuit behavior where steps
// always validate; real validation is opt-in.
type acceptAllValidator struct{}

func (acceptAllValidator) ValidateStep(context.Context, *plan.Step, automation.Snapshot) (bool, string, error) {
	return true, "", nil
}

// Engine is the goal execution loop. It is single-threaded: every LLM
// round trip, snapshot capture, and input action blocks until it completes
// or fails, and there is no overlap between steps or goals.
type Engine struct {
	planner   StepPlanner
	runner    StepExecutor
	validator StepValidator
	policy    FailurePolicy
	observer  Observer
	trail     *trail.Recorder
	bus       events.EventBus
	tracer    trace.Tracer
	logger    *slog.Logger

	// topological selects dependency-respecting goal order instead of
	// plain list order.
	topological bool
}

// EngineOption is a functional option for configuring an Engine.
type EngineOption func(*Engine)

// WithObserver sets the progress observer.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithPolicy sets the failure policy consulted on step failures.
func WithPolicy(p FailurePolicy) EngineOption {
	return func(e *Engine) {
		if p != nil {
			e.policy = p
		}
	}
}

// WithValidator sets the post-step validator. Default accepts every step.
func WithValidator(v StepValidator) EngineOption {
	return func(e *Engine) {
		if v != nil {
			e.validator = v
		}
	}
}

// WithTrail sets the audit trail recorder. A nil recorder records nothing.
func WithTrail(r *trail.Recorder) EngineOption {
	return func(e *Engine) {
		e.trail = r
	}
}

// WithEventBus sets the bus goal and step events are published to.
func WithEventBus(bus events.EventBus) EngineOption {
	return func(e *Engine) {
		e.bus = bus
	}
}

// WithTracer enables OpenTelemetry spans around runs and goals.
func WithTracer(t trace.Tracer) EngineOption {
	return func(e *Engine) {
		e.tracer = t
	}
}

// WithEngineLogger sets the logger for the engine.
func WithEngineLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTopologicalOrder makes the engine pick the next goal by dependency
// readiness instead of list position.
func WithTopologicalOrder(enabled bool) EngineOption {
	return func(e *Engine) {
		e.topological = enabled
	}
}

// NewEngine creates an Engine over the given step planner and executor.
// Defaults: abort on first failure, no observer, no validation, no trail.
func NewEngine(planner StepPlanner, runner StepExecutor, opts ...EngineOption) *Engine {
	e := &Engine{
		planner:   planner,
		runner:    runner,
		validator: acceptAllValidator{},
		policy:    AbortOnFailure(),
		observer:  NopObserver{},
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Run executes the accepted plan to completion. It returns true only when
// every goal reaches COMPLETED. A false return with a nil error means the
// failure policy aborted the run; the failed step and goal retain their
// statuses for inspection. A non-nil error reports a fault the policy
// never saw: step planning or snapshot capture failed, and the affected
// goal is marked FAILED.
//
// Goals already COMPLETED are skipped, so re-invoking Run on a finished
// plan performs no actions and returns true.
func (e *Engine) Run(ctx context.Context, runID types.ID, p *plan.Plan) (bool, error) {
	if e.tracer != nil {
		var span trace.Span
		ctx, span = e.tracer.Start(ctx, "engine.run",
			trace.WithAttributes(
				attribute.String("run.id", runID.String()),
				attribute.Int("run.goals", len(p.Goals)),
			))
		defer span.End()
	}

	for {
		goal := e.nextGoal(p.Goals)
		if goal == nil {
			if p.Completed() {
				return true, nil
			}
			// In dependency order a stalled plan (non-completed goals with
			// no ready candidate) must not read as success.
			for _, g := range p.Goals {
				if g.Status != plan.GoalStatusCompleted {
					return false, types.NewError(types.ENGINE_RUN_ABORTED,
						fmt.Sprintf("no executable goal remains; goal %q is %s", g.ID, g.Status))
				}
			}
			return true, nil
		}

		ok, err := e.executeGoal(ctx, runID, goal, p)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
}

// nextGoal returns the next goal to execute, or nil when all are done.
func (e *Engine) nextGoal(goals []*plan.Goal) *plan.Goal {
	if e.topological {
		return plan.NextReadyGoal(goals)
	}

	for _, g := range goals {
		if g.Status != plan.GoalStatusCompleted {
			return g
		}
	}
	return nil
}

// executeGoal runs one goal: plan steps, execute and validate them in
// order, replanning the whole goal whenever the failure policy authorizes
// it. The replan loop discards the previous attempt's steps entirely.
func (e *Engine) executeGoal(ctx context.Context, runID types.ID, goal *plan.Goal, p *plan.Plan) (bool, error) {
	if e.tracer != nil {
		var span trace.Span
		ctx, span = e.tracer.Start(ctx, "engine.goal",
			trace.WithAttributes(attribute.String("goal.id", goal.ID)))
		defer span.End()
	}

	for {
		goal.Start()
		e.observer.GoalUpdated(goal)
		e.logger.Info("executing goal", "goal", goal.ID, "description", goal.Description)

		snap, err := e.runner.CaptureSnapshot(ctx)
		if err != nil {
			return false, e.failGoal(runID, goal, err)
		}
		e.trail.CapturePlanning(trail.MomentPrePlanning, goal, snap)

		steps, err := e.planner.PlanSteps(ctx, goal, p.CompletedGoals(), snap)
		if err != nil {
			// Planning faults are fatal for the run; the policy only
			// arbitrates step failures.
			return false, e.failGoal(runID, goal, err)
		}

		goal.ReplaceSteps(steps)
		e.trail.CapturePlanning(trail.MomentPostPlanning, goal, snap)
		e.observer.StepsUpdated(steps, -1)
		e.publish(ctx, events.Event{
			Type:    events.EventGoalStarted,
			RunID:   runID,
			GoalID:  goal.ID,
			Payload: events.GoalStartedPayload{GoalID: goal.ID, Description: goal.Description, StepCount: len(steps)},
		})

		replan, abort, err := e.executeSteps(ctx, runID, goal, steps)
		if err != nil {
			return false, e.failGoal(runID, goal, err)
		}
		if abort {
			return false, nil
		}
		if replan {
			e.publish(ctx, events.Event{
				Type:   events.EventGoalReplanned,
				RunID:  runID,
				GoalID: goal.ID,
			})
			continue
		}

		goal.Complete()
		e.observer.GoalUpdated(goal)
		if finalSnap, snapErr := e.runner.CaptureSnapshot(ctx); snapErr == nil {
			e.trail.CapturePlanning(trail.MomentGoalCompleted, goal, finalSnap)
		}
		e.publish(ctx, events.Event{
			Type:    events.EventGoalCompleted,
			RunID:   runID,
			GoalID:  goal.ID,
			Payload: events.GoalCompletedPayload{GoalID: goal.ID, Steps: len(steps)},
		})
		e.logger.Info("goal completed", "goal", goal.ID)
		return true, nil
	}
}

// executeSteps runs one attempt's step list in order. It returns
// (replan, abort, err): replan restarts the goal with a new plan, abort
// ends the run by policy decision, err reports an infrastructure fault.
func (e *Engine) executeSteps(ctx context.Context, runID types.ID, goal *plan.Goal, steps []*plan.Step) (bool, bool, error) {
	for i, step := range steps {
		preSnap, err := e.runner.CaptureSnapshot(ctx)
		if err != nil {
			return false, false, err
		}
		e.trail.CaptureStep(trail.MomentPreStep, goal.ID, step, preSnap)
		e.observer.StepsUpdated(steps, i)
		e.publish(ctx, events.Event{
			Type:    events.EventStepStarted,
			RunID:   runID,
			GoalID:  goal.ID,
			Payload: events.StepPayload{GoalID: goal.ID, Description: step.Description, Action: string(step.Action), Index: i, Total: len(steps)},
		})

		started := time.Now()
		ok, execErr := e.runner.Execute(ctx, step)
		if !ok {
			// The runner already marked the step FAILED.
			e.observer.StepsUpdated(steps, i)
			e.publish(ctx, events.Event{
				Type:    events.EventStepFailed,
				RunID:   runID,
				GoalID:  goal.ID,
				Payload: events.StepPayload{GoalID: goal.ID, Description: step.Description, Action: string(step.Action), Index: i, Total: len(steps), Error: step.ErrorMessage},
			})
			if e.policy.Decide(step, execErr) {
				e.logger.Info("replanning goal after step failure", "goal", goal.ID, "step", step.Description)
				return true, false, nil
			}
			e.logger.Error("aborting run after step failure", "goal", goal.ID, "step", step.Description, "error", execErr)
			return false, true, nil
		}

		postSnap, err := e.runner.CaptureSnapshot(ctx)
		if err != nil {
			return false, false, err
		}
		e.trail.CaptureStep(trail.MomentPostStep, goal.ID, step, postSnap)

		valid, reason, valErr := e.validator.ValidateStep(ctx, step, postSnap)
		if valErr != nil {
			valid = false
			reason = fmt.Sprintf("validation could not complete: %v", valErr)
		}
		if !valid {
			step.FailValidation(reason)
			e.observer.StepsUpdated(steps, i)
			e.publish(ctx, events.Event{
				Type:    events.EventStepFailed,
				RunID:   runID,
				GoalID:  goal.ID,
				Payload: events.StepPayload{GoalID: goal.ID, Description: step.Description, Action: string(step.Action), Index: i, Total: len(steps), Error: reason},
			})
			if e.policy.Decide(step, types.NewError(types.ENGINE_VALIDATION_FAILED, reason)) {
				return true, false, nil
			}
			return false, true, nil
		}

		step.Complete()
		e.observer.StepsUpdated(steps, i)
		// The completion record gets its own snapshot; the UI may have
		// settled further since the validation capture.
		if doneSnap, snapErr := e.runner.CaptureSnapshot(ctx); snapErr == nil {
			e.trail.CaptureStep(trail.MomentPostStep, goal.ID, step, doneSnap)
		}
		e.publish(ctx, events.Event{
			Type:    events.EventStepCompleted,
			RunID:   runID,
			GoalID:  goal.ID,
			Payload: events.StepPayload{GoalID: goal.ID, Description: step.Description, Action: string(step.Action), Index: i, Total: len(steps), Duration: time.Since(started)},
		})
	}

	return false, false, nil
}

// failGoal marks a goal FAILED for an infrastructure fault and returns the
// wrapped error for propagation.
func (e *Engine) failGoal(runID types.ID, goal *plan.Goal, err error) error {
	goal.Fail(err.Error())
	e.observer.GoalUpdated(goal)
	e.publish(context.Background(), events.Event{
		Type:    events.EventGoalFailed,
		RunID:   runID,
		GoalID:  goal.ID,
		Payload: events.GoalFailedPayload{GoalID: goal.ID, Error: err.Error()},
	})
	e.logger.Error("goal failed", "goal", goal.ID, "error", err)
	return err
}

func (e *Engine) publish(ctx context.Context, event events.Event) {
	if e.bus == nil {
		return
	}
	event.Timestamp = time.Now()
	_ = e.bus.Publish(ctx, event)
}
