package db

import (
	"database/sql"
	"fmt"
	"time"
)

// Pipeline stage names recorded in run history.
const (
	StageSeed      = "seed"
	StageIngest    = "ingest"
	StageTransform = "transform"
	StageScore     = "score"
	StageRecommend = "recommend"
)

// Stage run statuses.
const (
	RunStatusRunning = "running"
	RunStatusOK      = "ok"
	RunStatusFailed  = "failed"
)

// StageRun represents one pipeline stage execution.
type StageRun struct {
	RunID      string
	Stage      string
	StartedAt  time.Time
	FinishedAt sql.NullTime
	RowsIn     int64
	RowsOut    int64
	Status     string
	Error      sql.NullString
}

// Runs manages pipeline run history.
type Runs struct {
	conn *Connection
}

// NewRuns creates a new Runs instance.
func NewRuns(conn *Connection) *Runs {
	return &Runs{conn: conn}
}

// RecordStart records the start of a pipeline stage.
func (r *Runs) RecordStart(runID, stage string, startedAt time.Time) error {
	query := `
		INSERT INTO etl_runs (run_id, stage, started_at, status)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(run_id, stage) DO UPDATE SET
			started_at = excluded.started_at,
			status = excluded.status
	`

	if _, err := r.conn.Exec(query, runID, stage, startedAt, RunStatusRunning); err != nil {
		return fmt.Errorf("failed to record stage start: %w", err)
	}

	return nil
}

// RecordFinish records the outcome of a pipeline stage.
func (r *Runs) RecordFinish(run StageRun) error {
	query := `
		UPDATE etl_runs SET
			finished_at = ?,
			rows_in = ?,
			rows_out = ?,
			status = ?,
			error = ?
		WHERE run_id = ? AND stage = ?
	`

	result, err := r.conn.Exec(query,
		run.FinishedAt,
		run.RowsIn,
		run.RowsOut,
		run.Status,
		run.Error,
		run.RunID,
		run.Stage,
	)
	if err != nil {
		return fmt.Errorf("failed to record stage finish: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("no started stage %s for run %s", run.Stage, run.RunID)
	}

	return nil
}

// GetLastRuns retrieves the most recent run of every stage.
func (r *Runs) GetLastRuns() ([]StageRun, error) {
	query := `
		SELECT run_id, stage, started_at, finished_at, rows_in, rows_out, status, error
		FROM etl_runs r1
		WHERE started_at = (
			SELECT MAX(started_at) FROM etl_runs r2 WHERE r2.stage = r1.stage
		)
		ORDER BY started_at, stage
	`

	rows, err := r.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get last runs: %w", err)
	}
	defer rows.Close()

	var runs []StageRun
	for rows.Next() {
		var run StageRun

		if err := rows.Scan(
			&run.RunID,
			&run.Stage,
			&run.StartedAt,
			&run.FinishedAt,
			&run.RowsIn,
			&run.RowsOut,
			&run.Status,
			&run.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stage run: %w", err)
		}

		runs = append(runs, run)
	}

	return runs, nil
}

// GetRun retrieves all stage rows of one run, oldest first.
func (r *Runs) GetRun(runID string) ([]StageRun, error) {
	query := `
		SELECT run_id, stage, started_at, finished_at, rows_in, rows_out, status, error
		FROM etl_runs
		WHERE run_id = ?
		ORDER BY started_at
	`

	rows, err := r.conn.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	defer rows.Close()

	var runs []StageRun
	for rows.Next() {
		var run StageRun

		if err := rows.Scan(
			&run.RunID,
			&run.Stage,
			&run.StartedAt,
			&run.FinishedAt,
			&run.RowsIn,
			&run.RowsOut,
			&run.Status,
			&run.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan stage run: %w", err)
		}

		runs = append(runs, run)
	}

	return runs, nil
}

// Stats represents pipeline statistics.
type Stats struct {
	TotalExpenses        int
	LabeledExpenses      int
	ScoredExpenses       int
	UnmappedCategories   int
	TotalRecommendations int
	LastRunStarted       sql.NullString
}

// GetStats retrieves pipeline statistics.
func (r *Runs) GetStats() (*Stats, error) {
	var stats Stats

	// Get expense count
	err := r.conn.QueryRow(`SELECT COUNT(*) FROM expenses`).Scan(&stats.TotalExpenses)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense count: %w", err)
	}

	// Get labeled expense count
	err = r.conn.QueryRow(`SELECT COUNT(DISTINCT expense_id) FROM expense_labels`).Scan(&stats.LabeledExpenses)
	if err != nil {
		return nil, fmt.Errorf("failed to get labeled expense count: %w", err)
	}

	// Get scored expense count
	err = r.conn.QueryRow(`SELECT COUNT(*) FROM expense_scores`).Scan(&stats.ScoredExpenses)
	if err != nil {
		return nil, fmt.Errorf("failed to get scored expense count: %w", err)
	}

	// Get unmapped category count
	err = r.conn.QueryRow(`SELECT COUNT(*) FROM unmapped_categories`).Scan(&stats.UnmappedCategories)
	if err != nil {
		return nil, fmt.Errorf("failed to get unmapped category count: %w", err)
	}

	// Get recommendation count
	err = r.conn.QueryRow(`SELECT COUNT(*) FROM recommendations`).Scan(&stats.TotalRecommendations)
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendation count: %w", err)
	}

	// Get last run start time
	err = r.conn.QueryRow(`SELECT MAX(started_at) FROM etl_runs`).Scan(&stats.LastRunStarted)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to get last run time: %w", err)
	}

	return &stats, nil
}
