package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/gridpilot-ai/gridpilot/internal/automation"
	"github.com/gridpilot-ai/gridpilot/internal/config"
	"github.com/gridpilot-ai/gridpilot/internal/console"
	"github.com/gridpilot-ai/gridpilot/internal/engine"
	"github.com/gridpilot-ai/gridpilot/internal/events"
	"github.com/gridpilot-ai/gridpilot/internal/history"
	"github.com/gridpilot-ai/gridpilot/internal/lifecycle"
	"github.com/gridpilot-ai/gridpilot/internal/llm/providers"
	"github.com/gridpilot-ai/gridpilot/internal/plan"
	"github.com/gridpilot-ai/gridpilot/internal/planner"
	"github.com/gridpilot-ai/gridpilot/internal/trail"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

var (
	dryRun  bool
	approve bool
)

var runCmd = &cobra.Command{
	Use:   "run [request]",
	Short: "Plan and execute a spreadsheet automation request",
	Long: `Without arguments, run starts an interactive session: type requests,
review the generated plans, and watch them execute. With a request
argument the session handles that single request and exits.

--approve skips the interactive review (the first generated plan is
accepted) and replans failed goals automatically up to the configured
limit instead of asking.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		request := strings.Join(args, " ")

		if approve {
			if request == "" {
				return fmt.Errorf("--approve requires a request argument")
			}
			rt, cleanup, err := buildRuntime(cfg, false)
			if err != nil {
				return err
			}
			defer cleanup()
			return runUnattended(ctx, rt, request)
		}

		rt, cleanup, err := buildRuntime(cfg, true)
		if err != nil {
			return err
		}
		defer cleanup()

		if request != "" {
			done, ok := rt.console.Submit(ctx, request)
			if !ok {
				return fmt.Errorf("an operation is already running")
			}
			<-done
			return nil
		}
		return rt.console.Run(ctx)
	},
}

// runtime bundles the wired components for one invocation. console is nil
// in unattended mode.
type runtime struct {
	machine *lifecycle.Machine
	engine  *engine.Engine
	console *console.Console
	store   *history.Store
}

// consoleRunner defers the engine reference so the console (the engine's
// observer and failure policy) can be constructed first.
type consoleRunner struct {
	eng *engine.Engine
}

func (r *consoleRunner) Run(ctx context.Context, runID types.ID, p *plan.Plan) (bool, error) {
	return r.eng.Run(ctx, runID, p)
}

var _ console.Runner = (*consoleRunner)(nil)

// buildRuntime wires config into the full component graph.
func buildRuntime(cfg *config.Config, interactive bool) (*runtime, func(), error) {
	provider, err := providers.NewProvider(cfg.LLM.Provider)
	if err != nil {
		return nil, nil, err
	}

	goalPlanner := planner.NewGoalPlanner(provider,
		planner.WithGoalTemperature(cfg.LLM.Temperature))
	stepPlanner := planner.NewStepPlanner(provider,
		planner.WithStepTemperature(cfg.LLM.Temperature))

	driver, err := buildDriver()
	if err != nil {
		return nil, nil, err
	}
	runner := automation.NewStepRunner(driver,
		automation.WithAppName(cfg.Engine.AppName),
		automation.WithSettleDelay(cfg.Engine.SettleDelay))

	bus := events.NewEventBus()
	startEventLogger(bus)

	var recorder *trail.Recorder
	if cfg.Debug.Enabled {
		recorder, err = trail.NewRecorder(cfg.Debug.Dir, slog.Default())
		if err != nil {
			return nil, nil, err
		}
	}

	var store *history.Store
	if cfg.History.Path != "" {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return nil, nil, err
		}
	}

	machine := lifecycle.NewMachine(goalPlanner,
		func(ctx context.Context) (string, error) {
			snap, err := runner.CaptureSnapshot(ctx)
			return snap.App, err
		},
		lifecycle.WithMachineEventBus(bus))

	engineOpts := []engine.EngineOption{
		engine.WithEventBus(bus),
		engine.WithTrail(recorder),
		engine.WithTracer(otel.Tracer("gridpilot")),
		engine.WithTopologicalOrder(cfg.Engine.Topological()),
	}
	if cfg.Engine.LLMValidation() {
		engineOpts = append(engineOpts, engine.WithValidator(planner.NewLLMValidator(provider)))
	}

	cleanup := func() {
		bus.Close()
		if store != nil {
			store.Close()
		}
	}

	if !interactive {
		engineOpts = append(engineOpts, engine.WithPolicy(engine.ReplanUpTo(cfg.Engine.MaxReplans)))
		eng := engine.NewEngine(stepPlanner, runner, engineOpts...)
		return &runtime{machine: machine, engine: eng, store: store}, cleanup, nil
	}

	// The console observes the engine and arbitrates its failures, while
	// the engine runs the console's accepted plans. Break the cycle with a
	// late-bound runner.
	lr := &consoleRunner{}
	cons := console.NewConsole(machine, lr, console.WithHistory(store))

	engineOpts = append(engineOpts, engine.WithObserver(cons), engine.WithPolicy(cons))
	eng := engine.NewEngine(stepPlanner, runner, engineOpts...)
	lr.eng = eng

	return &runtime{machine: machine, engine: eng, console: cons, store: store}, cleanup, nil
}

// buildDriver returns the automation driver. Live OS drivers are supplied
// by platform bindings; the built-in driver records actions without
// touching the desktop.
func buildDriver() (automation.Driver, error) {
	if !dryRun {
		return nil, fmt.Errorf("no live automation driver is available in this build; run with --dry-run")
	}
	return automation.NewMockDriver(), nil
}

// startEventLogger drains bus events into the debug log.
func startEventLogger(bus events.EventBus) {
	ch, _ := bus.Subscribe(context.Background(), events.Filter{}, 256)
	go func() {
		for event := range ch {
			slog.Debug("event",
				"type", event.Type,
				"run", event.RunID,
				"goal", event.GoalID,
			)
		}
	}()
}

// runUnattended accepts the first generated plan and executes it with the
// bounded replan policy.
func runUnattended(ctx context.Context, rt *runtime, request string) error {
	res := rt.machine.HandleEvent(ctx, lifecycle.Event{
		Type:        lifecycle.EventPlanCreated,
		UserRequest: request,
	})
	if res.State == lifecycle.StateFailed {
		return fmt.Errorf("plan generation failed: %s", res.Err)
	}

	for _, g := range res.Goals {
		fmt.Printf("  %s: %s\n", g.ID, g.Description)
	}

	res = rt.machine.HandleEvent(ctx, lifecycle.Event{
		Type:   lifecycle.EventReviewChoiceMade,
		Choice: lifecycle.ChoiceAccept,
	})
	if res.State != lifecycle.StateGoalsAccepted {
		return fmt.Errorf("plan was not accepted (state %s)", res.State)
	}

	accepted := rt.machine.Plan()
	runID := rt.machine.RunID()
	if rt.store != nil {
		if err := rt.store.RecordRun(ctx, runID, accepted.Request); err != nil {
			slog.Warn("failed to record run", "error", err)
		}
	}

	ok, err := rt.engine.Run(ctx, runID, accepted)

	completed := len(accepted.CompletedGoals())
	if rt.store != nil {
		status := history.RunStatusCompleted
		errMsg := ""
		switch {
		case err != nil:
			status = history.RunStatusFailed
			errMsg = err.Error()
		case !ok:
			status = history.RunStatusAborted
		}
		if herr := rt.store.CompleteRun(ctx, runID, status, completed, len(res.Goals), errMsg); herr != nil {
			slog.Warn("failed to record run outcome", "error", herr)
		}
	}

	event := lifecycle.EventGoalsFailed
	if ok && err == nil {
		event = lifecycle.EventGoalsCompleted
	}
	rt.machine.HandleEvent(ctx, lifecycle.Event{Type: event})

	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run aborted after exhausting replan budget")
	}

	fmt.Printf("run completed: %d/%d goals\n", completed, len(res.Goals))
	return nil
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", true, "record actions without driving the desktop")
	runCmd.Flags().BoolVar(&approve, "approve", false, "accept the first generated plan without review")
	rootCmd.AddCommand(runCmd)
}
