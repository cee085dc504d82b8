// Package lifecycle implements the plan review state machine: the protocol
// that gates whether a generated goal list is handed to the execution
// engine. It owns plan generation, the accept/modify/reject review loop,
// feedback accumulation, and rejection confirmation.
package lifecycle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gridpilot-ai/gridpilot/internal/events"
	"github.com/gridpilot-ai/gridpilot/internal/plan"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

// State identifies where the machine is in the plan review protocol.
type State string

const (
	StateCreatingGoals       State = "creating_goals"
	StateReviewingGoals      State = "reviewing_goals"
	StateAwaitingFeedback    State = "awaiting_feedback"
	StateConfirmingRejection State = "confirming_rejection"
	StateGoalsAccepted       State = "goals_accepted"
	StateFailed              State = "goals_failed"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// EventType identifies an event fed into the machine.
type EventType string

const (
	EventPlanCreated      EventType = "plan_created"
	EventReviewChoiceMade EventType = "review_choice_made"
	EventFeedbackProvided EventType = "feedback_provided"
	EventConfirmRejection EventType = "confirm_rejection"
	EventGoalsCompleted   EventType = "goals_completed"
	EventGoalsFailed      EventType = "goals_failed"
	EventErrorOccurred    EventType = "error_occurred"
)

// ReviewChoice is the user's verdict on a proposed plan.
type ReviewChoice string

const (
	ChoiceAccept ReviewChoice = "accept"
	ChoiceModify ReviewChoice = "modify"
	ChoiceReject ReviewChoice = "reject"
)

// ConfirmChoice is the user's answer to the rejection confirmation prompt.
type ConfirmChoice string

const (
	ConfirmYes ConfirmChoice = "yes"
	ConfirmNo  ConfirmChoice = "no"
)

// Event is one input to the machine. Only the fields relevant to the event
// type are read.
type Event struct {
	Type        EventType
	UserRequest string
	Choice      ReviewChoice
	Feedback    string
	Confirm     ConfirmChoice
	Error       string
}

// Result describes the machine after handling one event.
type Result struct {
	// State is the state after the transition.
	State State

	// Goals is the current goal list.
	Goals []*plan.Goal

	// Err carries the error message for transitions into StateFailed.
	Err string

	// NeedsInput tells the caller it must prompt the user before sending
	// the next event.
	NeedsInput bool
}

// GoalGenerator produces a validated goal plan for a request.
type GoalGenerator interface {
	Generate(ctx context.Context, request, appState string) ([]*plan.Goal, error)
}

// SnapshotFunc captures the serialized application state used as planning
// context.
type SnapshotFunc func(ctx context.Context) (string, error)

// Machine is the plan review state machine. It is not safe for concurrent
// use; the surrounding surface serializes event delivery through its
// one-operation-in-flight gate.
//
// Any panic while handling an event is converted into the error transition
// instead of propagating, so the machine never ends up in an undefined
// state.
type Machine struct {
	state    State
	current  *plan.Plan
	planner  GoalGenerator
	snapshot SnapshotFunc
	logger   *slog.Logger
	bus      events.EventBus
	runID    types.ID

	lastError       string
	originalRequest string
	feedback        []string
}

// MachineOption is a functional option for configuring a Machine.
type MachineOption func(*Machine)

// WithMachineLogger sets the logger for the machine.
func WithMachineLogger(l *slog.Logger) MachineOption {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithMachineEventBus sets the bus plan lifecycle events are published to.
func WithMachineEventBus(bus events.EventBus) MachineOption {
	return func(m *Machine) {
		m.bus = bus
	}
}

// NewMachine creates a Machine in StateCreatingGoals.
func NewMachine(planner GoalGenerator, snapshot SnapshotFunc, opts ...MachineOption) *Machine {
	m := &Machine{
		state:    StateCreatingGoals,
		planner:  planner,
		snapshot: snapshot,
		logger:   slog.Default(),
		runID:    types.NewID(),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// transitionKey pairs a state with an event type for table dispatch.
type transitionKey struct {
	state State
	event EventType
}

// HandleEvent feeds one event into the machine and returns the resulting
// state. Unknown (state, event) pairs transition to StateFailed with a
// descriptive error, as does any panic raised while handling the event.
func (m *Machine) HandleEvent(ctx context.Context, event Event) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = m.fail(fmt.Sprintf("panic while handling %s: %v", event.Type, r))
		}
	}()

	// The error event is legal in every state.
	if event.Type == EventErrorOccurred {
		msg := event.Error
		if msg == "" {
			msg = "unknown error occurred"
		}
		return m.fail(msg)
	}

	handlers := map[transitionKey]func(context.Context, Event) Result{
		{StateCreatingGoals, EventPlanCreated}:            m.handlePlanCreated,
		{StateReviewingGoals, EventReviewChoiceMade}:      m.handleReviewChoice,
		{StateAwaitingFeedback, EventFeedbackProvided}:    m.handleFeedback,
		{StateConfirmingRejection, EventConfirmRejection}: m.handleRejectionConfirm,
		{StateGoalsAccepted, EventGoalsCompleted}:         m.handleRunFinished,
		{StateGoalsAccepted, EventGoalsFailed}:            m.handleRunFinished,
	}

	handler, ok := handlers[transitionKey{m.state, event.Type}]
	if !ok {
		return m.fail(fmt.Sprintf("invalid event %s for state %s", event.Type, m.state))
	}

	return handler(ctx, event)
}

// handlePlanCreated stores the request, clears prior feedback, and runs
// plan generation.
func (m *Machine) handlePlanCreated(ctx context.Context, event Event) Result {
	m.originalRequest = event.UserRequest
	m.feedback = nil
	return m.generatePlan(ctx, event.UserRequest)
}

// generatePlan invokes the goal planner against a fresh application
// snapshot and, on success, enters the review state. Shared by the initial
// request path and the feedback regeneration path.
func (m *Machine) generatePlan(ctx context.Context, request string) Result {
	appState, err := m.snapshot(ctx)
	if err != nil {
		return m.fail(fmt.Sprintf("error capturing application state: %v", err))
	}

	goals, err := m.planner.Generate(ctx, request, appState)
	if err != nil {
		return m.fail(fmt.Sprintf("error generating plan: %v", err))
	}

	m.current = plan.NewPlan(request, goals)
	m.state = StateReviewingGoals
	m.publish(ctx, events.Event{
		Type:    events.EventPlanGenerated,
		RunID:   m.runID,
		Payload: events.PlanGeneratedPayload{RunID: m.runID, GoalCount: len(goals), Revision: len(m.feedback)},
	})
	m.logger.Info("plan generated", "goals", len(goals), "revision", len(m.feedback))

	return Result{State: m.state, Goals: goals}
}

// handleReviewChoice routes the user's verdict on the proposed plan. An
// unrecognized or empty choice keeps the machine reviewing and asks the
// caller to re-prompt.
func (m *Machine) handleReviewChoice(ctx context.Context, event Event) Result {
	switch event.Choice {
	case ChoiceAccept:
		m.state = StateGoalsAccepted
		m.publish(ctx, events.Event{Type: events.EventPlanAccepted, RunID: m.runID})
		return Result{State: m.state, Goals: m.Goals()}

	case ChoiceModify:
		m.state = StateAwaitingFeedback
		return Result{State: m.state, Goals: m.Goals(), NeedsInput: true}

	case ChoiceReject:
		m.state = StateConfirmingRejection
		return Result{State: m.state, Goals: m.Goals(), NeedsInput: true}

	default:
		return Result{State: m.state, Goals: m.Goals(), NeedsInput: true}
	}
}

// handleFeedback appends the feedback to the history and regenerates the
// plan from the original request plus every feedback entry, numbered in
// order. The original request is preserved across rounds.
func (m *Machine) handleFeedback(ctx context.Context, event Event) Result {
	m.feedback = append(m.feedback, event.Feedback)
	m.publish(ctx, events.Event{
		Type:    events.EventPlanFeedback,
		RunID:   m.runID,
		Payload: events.PlanFeedbackPayload{RunID: m.runID, Feedback: event.Feedback, Round: len(m.feedback)},
	})
	return m.generatePlan(ctx, m.enhancedRequest())
}

// enhancedRequest rebuilds the planning request from the original request
// and the accumulated feedback.
func (m *Machine) enhancedRequest() string {
	var sb strings.Builder
	sb.WriteString(m.originalRequest)
	for i, fb := range m.feedback {
		fmt.Fprintf(&sb, "\nFeedback %d: %s", i+1, fb)
	}
	return sb.String()
}

// handleRejectionConfirm finalizes or cancels a plan rejection. An empty
// or unrecognized answer re-prompts.
func (m *Machine) handleRejectionConfirm(ctx context.Context, event Event) Result {
	switch event.Confirm {
	case ConfirmYes:
		m.feedback = nil
		m.originalRequest = ""
		m.current = nil
		m.state = StateCreatingGoals
		m.publish(ctx, events.Event{Type: events.EventPlanRejected, RunID: m.runID})
		return Result{State: m.state, NeedsInput: true}

	case ConfirmNo:
		m.state = StateReviewingGoals
		return Result{State: m.state, Goals: m.Goals(), NeedsInput: true}

	default:
		return Result{State: m.state, Goals: m.Goals(), NeedsInput: true}
	}
}

// handleRunFinished returns the machine to StateCreatingGoals once the
// execution engine reports the accepted plan completed or failed.
func (m *Machine) handleRunFinished(ctx context.Context, event Event) Result {
	m.state = StateCreatingGoals
	m.current = nil
	m.runID = types.NewID()
	return Result{State: m.state}
}

// fail transitions to StateFailed and retains the error for the caller.
func (m *Machine) fail(msg string) Result {
	m.state = StateFailed
	m.lastError = msg
	m.logger.Error("plan lifecycle failed", "error", msg)
	return Result{State: m.state, Goals: m.Goals(), Err: msg}
}

// Reset returns a failed machine to StateCreatingGoals for a fresh
// request. The plan, feedback, and the stored request are discarded.
func (m *Machine) Reset() {
	m.state = StateCreatingGoals
	m.current = nil
	m.feedback = nil
	m.originalRequest = ""
	m.lastError = ""
	m.runID = types.NewID()
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Plan returns the plan currently under review or execution, or nil when
// none exists. The plan's Request field carries the (possibly
// feedback-enhanced) request it was generated from.
func (m *Machine) Plan() *plan.Plan {
	return m.current
}

// Goals returns the current goal list.
func (m *Machine) Goals() []*plan.Goal {
	if m.current == nil {
		return nil
	}
	return m.current.Goals
}

// LastError returns the most recent failure message, if any.
func (m *Machine) LastError() string {
	return m.lastError
}

// RunID identifies the current plan attempt for event correlation.
func (m *Machine) RunID() types.ID {
	return m.runID
}

func (m *Machine) publish(ctx context.Context, event events.Event) {
	if m.bus == nil {
		return
	}
	event.Timestamp = time.Now()
	_ = m.bus.Publish(ctx, event)
}
