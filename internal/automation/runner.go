package automation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gridpilot-ai/gridpilot/internal/plan"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

const (
	defaultSettleDelay     = 500 * time.Millisecond
	defaultScrollDistance  = 800
	defaultApplicationName = "Microsoft Excel"
)

// StepRunner executes single plan steps against the live application through
// the automation driver. It forgrounds the application best-effort before
// each action, validates action parameters, and settles briefly after a
// successful action because UI state changes lag the triggering input.
type StepRunner struct {
	driver      Driver
	appName     string
	settleDelay time.Duration
	logger      *slog.Logger
}

// RunnerOption is a functional option for configuring a StepRunner.
type RunnerOption func(*StepRunner)

// WithAppName sets the target application name used for foregrounding.
func WithAppName(name string) RunnerOption {
	return func(r *StepRunner) {
		r.appName = name
	}
}

// WithSettleDelay sets the pause after each successful action.
func WithSettleDelay(d time.Duration) RunnerOption {
	return func(r *StepRunner) {
		r.settleDelay = d
	}
}

// WithRunnerLogger sets the logger for the runner.
func WithRunnerLogger(l *slog.Logger) RunnerOption {
	return func(r *StepRunner) {
		r.logger = l
	}
}

// NewStepRunner creates a StepRunner over the given driver.
// Defaults: app "Microsoft Excel", 500ms settle delay, slog.Default().
func NewStepRunner(driver Driver, opts ...RunnerOption) *StepRunner {
	r := &StepRunner{
		driver:      driver,
		appName:     defaultApplicationName,
		settleDelay: defaultSettleDelay,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Execute runs a single step. It marks the step in progress, dispatches on
// the action, and marks the step failed with a descriptive message when the
// driver reports an error. The returned bool mirrors the step outcome; the
// error carries detail for the failure policy. Execute never panics on
// collaborator failures.
func (r *StepRunner) Execute(ctx context.Context, step *plan.Step) (bool, error) {
	// Foregrounding is best-effort: the driver may have its own resilience,
	// so a failure here is logged but the action is still attempted.
	if err := r.driver.RaiseApplication(ctx, r.appName); err != nil {
		r.logger.Warn("failed to raise application, attempting action anyway",
			"app", r.appName,
			"error", err,
		)
	}

	step.Start()

	r.logger.Info("executing step",
		"action", step.Action,
		"description", step.Description,
	)

	if err := r.dispatch(ctx, step); err != nil {
		msg := fmt.Sprintf("action %s failed: %v", step.Action, err)
		step.Fail(msg)
		return false, types.WrapError(types.AUTO_ACTION_FAILED, "step execution failed", err)
	}

	// UI state changes are not synchronous with the triggering input.
	r.settle(ctx)

	return true, nil
}

// dispatch routes the step to the driver primitive for its action, after
// validating the action's required parameters.
func (r *StepRunner) dispatch(ctx context.Context, step *plan.Step) error {
	switch step.Action {
	case plan.ActionMoveToElement:
		id, err := step.IntParam("element_id")
		if err != nil {
			return err
		}
		keywords, err := step.StringSliceParam("element_keywords")
		if err != nil {
			return err
		}
		return r.driver.MoveToElement(ctx, id, keywords)

	case plan.ActionLeftClick:
		return r.driver.LeftClick(ctx)

	case plan.ActionRightClick:
		return r.driver.RightClick(ctx)

	case plan.ActionDoubleLeftClick:
		return r.driver.DoubleLeftClick(ctx)

	case plan.ActionTypeText:
		text, err := step.StringParam("text")
		if err != nil {
			return err
		}
		return r.driver.TypeText(ctx, text)

	case plan.ActionPressKeyCombo:
		key, err := step.StringParam("key")
		if err != nil {
			return err
		}
		modifiers, err := step.StringSliceParam("modifiers")
		if err != nil {
			return err
		}
		return r.driver.PressKeyCombo(ctx, key, modifiers)

	case plan.ActionScrollUp:
		distance, err := step.IntParamDefault("distance", defaultScrollDistance)
		if err != nil {
			return err
		}
		return r.driver.ScrollUp(ctx, distance)

	case plan.ActionScrollDown:
		distance, err := step.IntParamDefault("distance", defaultScrollDistance)
		if err != nil {
			return err
		}
		return r.driver.ScrollDown(ctx, distance)

	case plan.ActionDragToElement:
		id, err := step.IntParam("element_id")
		if err != nil {
			return err
		}
		keywords, err := step.StringSliceParam("element_keywords")
		if err != nil {
			return err
		}
		return r.driver.DragToElement(ctx, id, keywords)

	default:
		// Unrecognized names are normally rejected at parse time; a step
		// constructed by hand can still reach here.
		return types.NewError(types.PLAN_UNKNOWN_ACTION,
			fmt.Sprintf("no handler for action %q", step.Action))
	}
}

// CaptureSnapshot captures the application UI tree and the element under
// the pointer at this moment.
func (r *StepRunner) CaptureSnapshot(ctx context.Context) (Snapshot, error) {
	app, err := r.driver.CaptureState(ctx)
	if err != nil {
		return Snapshot{}, types.WrapError(types.AUTO_SNAPSHOT_FAILED,
			"failed to capture application state", err)
	}

	pointer, err := r.driver.PointerState(ctx)
	if err != nil || pointer == "" {
		pointer = "pointer: outside application window"
	}

	return Snapshot{App: app, Pointer: pointer}, nil
}

func (r *StepRunner) settle(ctx context.Context) {
	if r.settleDelay <= 0 {
		return
	}
	select {
	case <-time.After(r.settleDelay):
	case <-ctx.Done():
	}
}
