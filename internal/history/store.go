// Package history persists automation runs to SQLite so past requests,
// their goal plans, and their outcomes can be inspected after the fact.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gridpilot-ai/gridpilot/internal/plan"
	"github.com/gridpilot-ai/gridpilot/internal/types"
)

// RunStatus is the terminal disposition of a recorded run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusAborted   RunStatus = "aborted"
)

// Run is one recorded automation run.
type Run struct {
	ID             types.ID
	Request        string
	Status         RunStatus
	GoalsTotal     int
	GoalsCompleted int
	Error          string
	StartedAt      time.Time
	CompletedAt    *time.Time
}

// GoalRecord is the persisted summary of one goal within a run.
type GoalRecord struct {
	RunID       types.ID
	GoalID      string
	Description string
	Status      string
	Error       string
	Position    int
}

// Store persists runs and their goals in SQLite.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates a Store at the given path with WAL mode and foreign keys
// enabled, applying migrations as needed. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d",
		path, int((5 * time.Second).Milliseconds()))

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(types.HISTORY_OPEN_FAILED, "failed to open history database", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, types.WrapError(types.HISTORY_OPEN_FAILED, "failed to ping history database", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id              TEXT PRIMARY KEY,
	request         TEXT NOT NULL,
	status          TEXT NOT NULL,
	goals_total     INTEGER NOT NULL DEFAULT 0,
	goals_completed INTEGER NOT NULL DEFAULT 0,
	error           TEXT NOT NULL DEFAULT '',
	started_at      TIMESTAMP NOT NULL,
	completed_at    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS run_goals (
	run_id      TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	goal_id     TEXT NOT NULL,
	description TEXT NOT NULL,
	status      TEXT NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	position    INTEGER NOT NULL,
	PRIMARY KEY (run_id, goal_id)
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
`
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return types.WrapError(types.HISTORY_MIGRATION_FAILED, "failed to apply history schema", err)
	}
	return nil
}

// RecordRun inserts a new run in the running state.
func (s *Store) RecordRun(ctx context.Context, id types.ID, request string) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO runs (id, request, status, started_at) VALUES (?, ?, ?, ?)`,
		id.String(), request, string(RunStatusRunning), time.Now().UTC())
	if err != nil {
		return types.WrapError(types.HISTORY_QUERY_FAILED, "failed to record run", err)
	}
	return nil
}

// CompleteRun finalizes a run with its terminal status and goal counts.
func (s *Store) CompleteRun(ctx context.Context, id types.ID, status RunStatus, goalsCompleted, goalsTotal int, errMsg string) error {
	res, err := s.conn.ExecContext(ctx,
		`UPDATE runs SET status = ?, goals_completed = ?, goals_total = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(status), goalsCompleted, goalsTotal, errMsg, time.Now().UTC(), id.String())
	if err != nil {
		return types.WrapError(types.HISTORY_QUERY_FAILED, "failed to complete run", err)
	}

	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return types.NewError(types.HISTORY_QUERY_FAILED, fmt.Sprintf("run %s not found", id))
	}
	return nil
}

// SaveGoals replaces the recorded goal summaries for a run.
func (s *Store) SaveGoals(ctx context.Context, runID types.ID, goals []*plan.Goal) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return types.WrapError(types.HISTORY_QUERY_FAILED, "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM run_goals WHERE run_id = ?`, runID.String()); err != nil {
		return types.WrapError(types.HISTORY_QUERY_FAILED, "failed to clear run goals", err)
	}

	for i, g := range goals {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO run_goals (run_id, goal_id, description, status, error, position) VALUES (?, ?, ?, ?, ?, ?)`,
			runID.String(), g.ID, g.Description, string(g.Status), g.ErrorMessage, i)
		if err != nil {
			return types.WrapError(types.HISTORY_QUERY_FAILED, "failed to save run goal", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return types.WrapError(types.HISTORY_QUERY_FAILED, "failed to commit run goals", err)
	}
	return nil
}

// GetRun fetches one run by id.
func (s *Store) GetRun(ctx context.Context, id types.ID) (*Run, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT id, request, status, goals_total, goals_completed, error, started_at, completed_at
		 FROM runs WHERE id = ?`, id.String())

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, types.NewError(types.HISTORY_QUERY_FAILED, fmt.Sprintf("run %s not found", id))
	}
	if err != nil {
		return nil, types.WrapError(types.HISTORY_QUERY_FAILED, "failed to get run", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, request, status, goals_total, goals_completed, error, started_at, completed_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, types.WrapError(types.HISTORY_QUERY_FAILED, "failed to list runs", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, types.WrapError(types.HISTORY_QUERY_FAILED, "failed to scan run", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.HISTORY_QUERY_FAILED, "failed to iterate runs", err)
	}
	return runs, nil
}

// ListGoals returns the recorded goal summaries for a run in plan order.
func (s *Store) ListGoals(ctx context.Context, runID types.ID) ([]*GoalRecord, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT run_id, goal_id, description, status, error, position
		 FROM run_goals WHERE run_id = ? ORDER BY position`, runID.String())
	if err != nil {
		return nil, types.WrapError(types.HISTORY_QUERY_FAILED, "failed to list run goals", err)
	}
	defer rows.Close()

	var goals []*GoalRecord
	for rows.Next() {
		var g GoalRecord
		var rid string
		if err := rows.Scan(&rid, &g.GoalID, &g.Description, &g.Status, &g.Error, &g.Position); err != nil {
			return nil, types.WrapError(types.HISTORY_QUERY_FAILED, "failed to scan run goal", err)
		}
		g.RunID = types.ID(rid)
		goals = append(goals, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, types.WrapError(types.HISTORY_QUERY_FAILED, "failed to iterate run goals", err)
	}
	return goals, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var id string
	var completedAt sql.NullTime

	err := row.Scan(&id, &run.Request, (*string)(&run.Status), &run.GoalsTotal,
		&run.GoalsCompleted, &run.Error, &run.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	run.ID = types.ID(id)
	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	return &run, nil
}
