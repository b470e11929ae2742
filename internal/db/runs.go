package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run statuses
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("not found")

// Run is one invocation of a tool.
type Run struct {
	ID              string     `json:"id"`
	Tool            string     `json:"tool"`
	Status          string     `json:"status"`
	Parameters      *string    `json:"parameters,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      *time.Time `json:"finished_at,omitempty"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
	Succeeded       int        `json:"succeeded"`
	Failed          int        `json:"failed"`
	Skipped         int        `json:"skipped"`
	ErrorMessage    *string    `json:"error_message,omitempty"`
}

// Counts are the per-item totals a run reports when it finishes.
type Counts struct {
	Succeeded int
	Failed    int
	Skipped   int
}

// StartRun records a new running run for tool.
func (db *DB) StartRun(ctx context.Context, tool, parameters string) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Tool:      tool,
		Status:    StatusRunning,
		StartedAt: time.Now().UTC(),
	}
	if parameters != "" {
		run.Parameters = &parameters
	}

	query := `
		INSERT INTO runs (id, tool, status, parameters, started_at)
		VALUES (?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, query, run.ID, run.Tool, run.Status, nullString(run.Parameters), run.StartedAt); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run completed with its counts.
func (db *DB) CompleteRun(ctx context.Context, id string, counts Counts) error {
	return db.finishRun(ctx, id, StatusCompleted, counts, nil)
}

// FailRun marks a run failed with an error message.
func (db *DB) FailRun(ctx context.Context, id string, counts Counts, errorMessage string) error {
	return db.finishRun(ctx, id, StatusFailed, counts, &errorMessage)
}

func (db *DB) finishRun(ctx context.Context, id, status string, counts Counts, errorMessage *string) error {
	var startedAt time.Time
	if err := db.QueryRowContext(ctx, "SELECT started_at FROM runs WHERE id = ?", id).Scan(&startedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to get start time: %w", err)
	}

	finishedAt := time.Now().UTC()
	duration := finishedAt.Sub(startedAt).Seconds()

	query := `
		UPDATE runs SET
			status = ?, finished_at = ?, duration_seconds = ?,
			succeeded = ?, failed = ?, skipped = ?, error_message = ?
		WHERE id = ?`
	_, err := db.ExecContext(ctx, query,
		status, finishedAt, duration,
		counts.Succeeded, counts.Failed, counts.Skipped,
		nullString(errorMessage), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update run: %w", err)
	}
	return nil
}

const runColumns = `id, tool, status, parameters, started_at, finished_at,
	duration_seconds, succeeded, failed, skipped, error_message`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*Run, error) {
	var run Run
	var parameters, errorMessage sql.NullString
	var finishedAt sql.NullTime
	var duration sql.NullFloat64

	err := s.Scan(
		&run.ID, &run.Tool, &run.Status, &parameters, &run.StartedAt, &finishedAt,
		&duration, &run.Succeeded, &run.Failed, &run.Skipped, &errorMessage,
	)
	if err != nil {
		return nil, err
	}
	run.Parameters = stringPtr(parameters)
	run.FinishedAt = timePtr(finishedAt)
	run.DurationSeconds = float64Ptr(duration)
	run.ErrorMessage = stringPtr(errorMessage)
	return &run, nil
}

// GetRun retrieves a run by ID.
func (db *DB) GetRun(ctx context.Context, id string) (*Run, error) {
	row := db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first, optionally for one tool.
func (db *DB) ListRuns(ctx context.Context, limit int, tool string) ([]*Run, error) {
	query := "SELECT " + runColumns + " FROM runs WHERE 1=1"
	var args []any
	if tool != "" {
		query += " AND tool = ?"
		args = append(args, tool)
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}
	return runs, nil
}

// RunStats aggregates runs per tool and status.
type RunStats struct {
	Tool        string   `json:"tool"`
	Status      string   `json:"status"`
	Count       int      `json:"count"`
	AvgDuration *float64 `json:"avg_duration,omitempty"`
	Succeeded   int      `json:"succeeded"`
	Failed      int      `json:"failed"`
}

// GetRunStats returns run statistics grouped by tool and status.
func (db *DB) GetRunStats(ctx context.Context) ([]RunStats, error) {
	query := `
		SELECT tool, status, COUNT(*), AVG(duration_seconds),
		       COALESCE(SUM(succeeded), 0), COALESCE(SUM(failed), 0)
		FROM runs
		GROUP BY tool, status
		ORDER BY tool, status`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get run stats: %w", err)
	}
	defer rows.Close()

	var stats []RunStats
	for rows.Next() {
		var s RunStats
		var avg sql.NullFloat64
		if err := rows.Scan(&s.Tool, &s.Status, &s.Count, &avg, &s.Succeeded, &s.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run stats: %w", err)
		}
		s.AvgDuration = float64Ptr(avg)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}
