// Package repository persists batch run history to PostgreSQL. The
// archive is optional: when no database is configured the driver simply
// runs without it, and _urls.txt stays the source of truth for dedup.
package repository

import (
	"context"

	"github.com/gorendir/gorendir/internal/model"
)

// RunRepository defines operations for batch run persistence
type RunRepository interface {
	// CreateRun inserts the run header when a batch starts
	CreateRun(ctx context.Context, run *model.BatchResult) error

	// RecordVideo inserts the outcome of one task under a run
	RecordVideo(ctx context.Context, runID string, task *model.VideoTask) error

	// FinishRun stamps the run with its end time and final counts
	FinishRun(ctx context.Context, run *model.BatchResult) error

	// ListRuns retrieves recent runs, newest first
	ListRuns(ctx context.Context, limit int) ([]*model.BatchResult, error)
}
