package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	apperrors "github.com/gorendir/gorendir/internal/errors"
	"github.com/gorendir/gorendir/internal/model"
)

// Pool interface for abstracting pgx connection pool
type Pool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// runRepository implements RunRepository using PostgreSQL
type runRepository struct {
	pool Pool
}

// NewRunRepository creates a new instance of RunRepository
func NewRunRepository(pool Pool) RunRepository {
	return &runRepository{
		pool: pool,
	}
}

// CreateRun inserts the run header when a batch starts
func (r *runRepository) CreateRun(ctx context.Context, run *model.BatchResult) error {
	sql := "INSERT INTO batch_runs (id, started_at) VALUES ($1, $2)"
	_, err := r.pool.Exec(ctx, sql, run.RunID, run.StartedAt)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to create batch run")
	}
	return nil
}

// RecordVideo inserts the outcome of one task under a run
func (r *runRepository) RecordVideo(ctx context.Context, runID string, task *model.VideoTask) error {
	var title string
	if task.Info != nil {
		title = task.Info.Title
	}
	var note string
	switch {
	case task.Err != nil:
		note = task.Err.Error()
	case task.SkipNote != "":
		note = task.SkipNote
	}

	sql := `INSERT INTO video_results (run_id, video_id, url, title, sequence, state, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, sql,
		runID, task.CanonicalID, task.CanonicalURL, title, task.AssignedSequence, string(task.State), note)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to record video result")
	}
	return nil
}

// FinishRun stamps the run with its end time and final counts
func (r *runRepository) FinishRun(ctx context.Context, run *model.BatchResult) error {
	sql := `UPDATE batch_runs SET finished_at = $2, success_count = $3, failed_count = $4, skipped_count = $5
		WHERE id = $1`
	_, err := r.pool.Exec(ctx, sql,
		run.RunID, run.FinishedAt, len(run.Success), len(run.Failed), len(run.Skipped))
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "failed to finish batch run")
	}
	return nil
}

// ListRuns retrieves recent runs, newest first
func (r *runRepository) ListRuns(ctx context.Context, limit int) ([]*model.BatchResult, error) {
	sql := `SELECT id, started_at, finished_at FROM batch_runs ORDER BY started_at DESC LIMIT $1`
	rows, err := r.pool.Query(ctx, sql, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to list batch runs")
	}
	defer rows.Close()

	runs := []*model.BatchResult{}
	for rows.Next() {
		var run model.BatchResult
		var finished *time.Time // NULL while a run is still in flight
		err := rows.Scan(&run.RunID, &run.StartedAt, &finished)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to scan batch run row")
		}
		if finished != nil {
			run.FinishedAt = *finished
		}
		runs = append(runs, &run)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "failed to iterate batch run rows")
	}

	return runs, nil
}
