// Package trail writes timestamped YAML records of planning and execution
// moments to disk. The records are the raw material for debugging a run
// after the fact: what the planner saw, what it produced, and what each
// step did to the application state.
package trail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gridpilot-ai/gridpilot/internal/automation"
	"github.com/gridpilot-ai/gridpilot/internal/plan"
)

// Moment names the point in the run a record was captured at.
type Moment string

const (
	MomentPrePlanning   Moment = "pre_planning"
	MomentPostPlanning  Moment = "post_planning"
	MomentPreStep       Moment = "pre_step"
	MomentPostStep      Moment = "post_step"
	MomentGoalCompleted Moment = "goal_completed"
)

// Record is one audit trail entry, serialized as a YAML document.
type Record struct {
	Moment    Moment    `yaml:"moment"`
	Timestamp time.Time `yaml:"timestamp"`
	GoalID    string    `yaml:"goal_id,omitempty"`
	Goal      any       `yaml:"goal,omitempty"`
	Step      any       `yaml:"step,omitempty"`
	AppState  any       `yaml:"app_state,omitempty"`
	Pointer   string    `yaml:"pointer,omitempty"`
	Extra     any       `yaml:"extra,omitempty"`
}

// Recorder persists Records as individual YAML files in a directory.
// A nil *Recorder is valid and records nothing, so callers never need to
// guard their trail calls.
type Recorder struct {
	mu     sync.Mutex
	dir    string
	seq    int
	logger *slog.Logger
}

// NewRecorder creates a Recorder writing into dir, creating it if needed.
func NewRecorder(dir string, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create trail directory %s: %w", dir, err)
	}

	return &Recorder{dir: dir, logger: logger}, nil
}

// Capture writes one record to disk. Failures are logged, never returned:
// a broken audit trail must not interrupt a run in progress.
func (r *Recorder) Capture(rec Record) {
	if r == nil {
		return
	}

	r.mu.Lock()
	r.seq++
	seq := r.seq
	r.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	name := fmt.Sprintf("debug_%s_%03d_%s.yaml",
		rec.Timestamp.Format("20060102_150405"), seq, rec.Moment)

	data, err := yaml.Marshal(rec)
	if err != nil {
		r.logger.Warn("failed to marshal trail record", "moment", rec.Moment, "error", err)
		return
	}

	path := filepath.Join(r.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		r.logger.Warn("failed to write trail record", "path", path, "error", err)
	}
}

// CapturePlanning records a planning moment with the snapshot the planner
// saw and, post-planning, the steps it produced.
func (r *Recorder) CapturePlanning(moment Moment, goal *plan.Goal, snap automation.Snapshot) {
	if r == nil {
		return
	}

	rec := Record{
		Moment:   moment,
		GoalID:   goal.ID,
		Goal:     goal,
		AppState: parseStateYAML(snap.App),
		Pointer:  snap.Pointer,
	}
	r.Capture(rec)
}

// CaptureStep records a step execution moment.
func (r *Recorder) CaptureStep(moment Moment, goalID string, step *plan.Step, snap automation.Snapshot) {
	if r == nil {
		return
	}

	r.Capture(Record{
		Moment:   moment,
		GoalID:   goalID,
		Step:     step,
		AppState: parseStateYAML(snap.App),
		Pointer:  snap.Pointer,
	})
}

// Dir returns the directory records are written to.
func (r *Recorder) Dir() string {
	if r == nil {
		return ""
	}
	return r.dir
}

// parseStateYAML decodes a serialized UI state so it nests naturally in the
// record instead of being embedded as one long string. Unparseable state is
// kept raw.
func parseStateYAML(state string) any {
	var parsed any
	if err := yaml.Unmarshal([]byte(state), &parsed); err != nil {
		return state
	}
	if parsed == nil {
		return state
	}
	return parsed
}
