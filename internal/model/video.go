package model

import "time"

// VideoInfo is the metadata slice of a yt-dlp info dump the orchestrator
// cares about. Entries is non-empty only for playlist references.
type VideoInfo struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	Uploader   string      `json:"uploader"`
	URL        string      `json:"webpage_url"`
	LiveStatus string      `json:"live_status"`
	Duration   float64     `json:"duration"`
	Entries    []VideoInfo `json:"entries"`
}

// LiveStatusUpcoming marks a premiere that has not gone live; such videos
// are skipped, not failed.
const LiveStatusUpcoming = "is_upcoming"

// TaskState is the lifecycle position of a VideoTask.
type TaskState string

const (
	TaskPending             TaskState = "pending"
	TaskInfoFetched         TaskState = "info_fetched"
	TaskFolderReady         TaskState = "folder_ready"
	TaskDownloaded          TaskState = "downloaded"
	TaskSubtitlesReconciled TaskState = "subtitles_reconciled"
	TaskSuccess             TaskState = "success"
	TaskFailed              TaskState = "failed"
	TaskSkipped             TaskState = "skipped"
)

// VideoTask is one unit of work in a batch: a single video reference plus
// the output sequence number assigned to it.
type VideoTask struct {
	Reference        string    `json:"reference"`
	CanonicalID      string    `json:"canonical_id"`
	CanonicalURL     string    `json:"canonical_url"`
	AssignedSequence int       `json:"assigned_sequence"`
	TargetFolder     string    `json:"target_folder"`
	State            TaskState `json:"state"`

	// Populated as the task advances.
	Info      *VideoInfo            `json:"info,omitempty"`
	Subtitles *ReconciliationResult `json:"subtitles,omitempty"`
	Err       error                 `json:"-"`
	SkipNote  string                `json:"skip_note,omitempty"`
}

// TaskFailure pairs a task with the error that stopped it.
type TaskFailure struct {
	Task   *VideoTask
	Reason string
}

// TaskSkip pairs a task with the reason it was bypassed.
type TaskSkip struct {
	Task   *VideoTask
	Reason string
}

// BatchResult aggregates the outcomes of one batch run. It is built
// incrementally by the driver and immutable once summarized.
type BatchResult struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Success    []*VideoTask
	Failed     []TaskFailure
	Skipped    []TaskSkip
}

// RecordSuccess appends a completed task.
func (r *BatchResult) RecordSuccess(t *VideoTask) {
	t.State = TaskSuccess
	r.Success = append(r.Success, t)
}

// RecordFailure appends a failed task with its cause.
func (r *BatchResult) RecordFailure(t *VideoTask, err error) {
	t.State = TaskFailed
	t.Err = err
	r.Failed = append(r.Failed, TaskFailure{Task: t, Reason: err.Error()})
}

// RecordSkip appends a skipped task with its reason.
func (r *BatchResult) RecordSkip(t *VideoTask, reason string) {
	t.State = TaskSkipped
	t.SkipNote = reason
	r.Skipped = append(r.Skipped, TaskSkip{Task: t, Reason: reason})
}
