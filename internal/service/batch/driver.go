package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/gorendir/gorendir/internal/errors"
	"github.com/gorendir/gorendir/internal/model"
	"github.com/gorendir/gorendir/internal/naming"
	"github.com/gorendir/gorendir/internal/repository"
	"github.com/gorendir/gorendir/internal/retry"
	"github.com/gorendir/gorendir/internal/service/extractor"
	"github.com/gorendir/gorendir/internal/service/subtitle"
	"github.com/gorendir/gorendir/internal/storage"
)

// Options are the per-run knobs the download command exposes.
type Options struct {
	// Languages is the target subtitle language list.
	Languages []string
	// MaxResolution caps the downloaded video height.
	MaxResolution int
	// SkipDownload reconciles subtitles without fetching media.
	SkipDownload bool
	// Force reprocesses URLs already present in the dedup log.
	Force bool
}

// Driver runs a batch sequentially. One video failing never stops the
// batch; each task ends in exactly one of success, failed or skipped.
type Driver struct {
	extractor  extractor.Service
	reconciler subtitle.Reconciler
	workspace  *storage.Workspace
	urlLog     *storage.URLLog
	archive    repository.RunRepository // nil disables the archive
	logger     *logrus.Logger
	retryCfg   retry.Config
}

// NewDriver wires the batch driver. Pass a nil archive when no database
// is configured.
func NewDriver(
	ex extractor.Service,
	rec subtitle.Reconciler,
	ws *storage.Workspace,
	urlLog *storage.URLLog,
	archive repository.RunRepository,
	logger *logrus.Logger,
	retryCfg retry.Config,
) *Driver {
	return &Driver{
		extractor:  ex,
		reconciler: rec,
		workspace:  ws,
		urlLog:     urlLog,
		archive:    archive,
		logger:     logger,
		retryCfg:   retryCfg,
	}
}

// Run processes the tasks in order and returns the aggregated result.
// Only context cancellation aborts the batch early; the partial result
// is still returned alongside the context error.
func (d *Driver) Run(ctx context.Context, tasks []*model.VideoTask, opts Options) (*model.BatchResult, error) {
	result := &model.BatchResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	d.archiveCreate(ctx, result)

	for _, task := range tasks {
		if err := ctx.Err(); err != nil {
			result.FinishedAt = time.Now().UTC()
			return result, err
		}

		d.logger.WithFields(logrus.Fields{
			"url": task.CanonicalURL,
			"seq": task.AssignedSequence,
		}).Info("processing video")

		d.runTask(ctx, task, opts, result)
		d.archiveVideo(ctx, result.RunID, task)
	}

	result.FinishedAt = time.Now().UTC()
	d.archiveFinish(ctx, result)
	d.summarize(result)
	return result, nil
}

func (d *Driver) runTask(ctx context.Context, task *model.VideoTask, opts Options, result *model.BatchResult) {
	// Tasks that already failed during reference resolution are reported,
	// not re-probed.
	if task.Err != nil {
		result.RecordFailure(task, task.Err)
		return
	}
	if !opts.Force && d.urlLog.Contains(task.CanonicalURL) {
		result.RecordSkip(task, "already downloaded")
		return
	}

	var info *model.VideoInfo
	err := retry.Do(ctx, d.retryCfg, transient, func(ctx context.Context) error {
		var err error
		info, err = d.extractor.ExtractInfo(ctx, task.CanonicalURL, false)
		return err
	})
	if err != nil {
		result.RecordFailure(task, err)
		return
	}
	task.Info = info
	task.State = model.TaskInfoFetched

	if info.LiveStatus == model.LiveStatusUpcoming {
		result.RecordSkip(task, "upcoming premiere, not yet live")
		return
	}

	folder, err := d.workspace.CreateVideoFolder(info, task.CanonicalURL, task.AssignedSequence)
	if err != nil {
		result.RecordFailure(task, err)
		return
	}
	task.TargetFolder = folder
	task.State = model.TaskFolderReady

	err = retry.Do(ctx, d.retryCfg, transient, func(ctx context.Context) error {
		return d.extractor.Download(ctx, task.CanonicalURL, extractor.DownloadOptions{
			Folder:          folder,
			MaxResolution:   opts.MaxResolution,
			AutonumberStart: task.AssignedSequence,
			Simulate:        opts.SkipDownload,
		})
	})
	if err != nil {
		result.RecordFailure(task, err)
		return
	}
	task.State = model.TaskDownloaded

	base := fmt.Sprintf("%02d_%s", task.AssignedSequence, naming.SanitizeFilename(info.Title))
	subs, err := d.reconciler.Reconcile(ctx, info.ID, folder, base, opts.Languages)
	if err != nil {
		result.RecordFailure(task, err)
		return
	}
	task.Subtitles = subs
	task.State = model.TaskSubtitlesReconciled

	// Missing subtitle languages degrade the task, they do not fail it.
	for lang, reason := range subs.Failed {
		d.logger.WithFields(logrus.Fields{
			"url":    task.CanonicalURL,
			"lang":   lang,
			"reason": reason,
		}).Warn("subtitle language not saved")
	}

	if err := d.urlLog.Append(task.CanonicalURL); err != nil {
		d.logger.WithError(err).Warn("failed to record URL in dedup log")
	}
	result.RecordSuccess(task)
}

// transient retries throttling and flaky external failures, but not bad
// input or dead videos.
func transient(err error) bool {
	if errors.IsRateLimited(err) {
		return true
	}
	return errors.HasCode(err, errors.CodeExternal)
}

func (d *Driver) summarize(result *model.BatchResult) {
	d.logger.WithFields(logrus.Fields{
		"run_id":   result.RunID,
		"success":  len(result.Success),
		"failed":   len(result.Failed),
		"skipped":  len(result.Skipped),
		"duration": result.FinishedAt.Sub(result.StartedAt).Round(time.Second).String(),
	}).Info("batch finished")

	for _, f := range result.Failed {
		d.logger.WithField("url", f.Task.CanonicalURL).Warnf("failed: %s", f.Reason)
	}
	for _, s := range result.Skipped {
		d.logger.WithField("url", s.Task.CanonicalURL).Infof("skipped: %s", s.Reason)
	}
}

// The archive is best-effort: a database hiccup must never interfere
// with downloads already in progress.

func (d *Driver) archiveCreate(ctx context.Context, result *model.BatchResult) {
	if d.archive == nil {
		return
	}
	if err := d.archive.CreateRun(ctx, result); err != nil {
		d.logger.WithError(err).Warn("failed to archive batch run, continuing without archive")
		d.archive = nil
	}
}

func (d *Driver) archiveVideo(ctx context.Context, runID string, task *model.VideoTask) {
	if d.archive == nil {
		return
	}
	if err := d.archive.RecordVideo(ctx, runID, task); err != nil {
		d.logger.WithError(err).Warn("failed to archive video result")
	}
}

func (d *Driver) archiveFinish(ctx context.Context, result *model.BatchResult) {
	if d.archive == nil {
		return
	}
	if err := d.archive.FinishRun(ctx, result); err != nil {
		d.logger.WithError(err).Warn("failed to finalize archived batch run")
	}
}
