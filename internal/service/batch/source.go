// Package batch turns a list of video references into downloaded folders
// with reconciled subtitles, one video at a time.
package batch

import (
	"context"
	"strconv"
	"strings"

	"github.com/gorendir/gorendir/internal/errors"
	"github.com/gorendir/gorendir/internal/model"
	"github.com/gorendir/gorendir/internal/naming"
	"github.com/gorendir/gorendir/internal/service/extractor"
)

// Request is one reference from the command line, with an optional
// starting sequence number given as "URL=N".
type Request struct {
	Reference  string
	StartIndex int // 1-based; 0 means start at 1
}

// ParseRequest splits the "URL=N" syntax. The trailing "=N" is only
// treated as a start index when it parses as a number and what precedes
// it is still a usable reference, so an all-digit video ID in a v=
// parameter is never eaten.
func ParseRequest(arg string) (Request, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Request{}, errors.New(errors.CodeInvalidArg, "empty video reference")
	}

	if i := strings.LastIndexByte(arg, '='); i > 0 {
		prefix := arg[:i]
		if n, err := strconv.Atoi(arg[i+1:]); err == nil && usableReference(prefix) {
			if n < 1 {
				return Request{}, errors.New(errors.CodeInvalidArg, "start index must be at least 1")
			}
			return Request{Reference: prefix, StartIndex: n}, nil
		}
	}
	return Request{Reference: arg}, nil
}

func usableReference(ref string) bool {
	return naming.IsPlaylist(ref) || naming.VideoID(ref) != ""
}

// ParseRequests parses every argument, failing fast on the first bad one.
func ParseRequests(args []string) ([]Request, error) {
	if len(args) == 0 {
		return nil, errors.New(errors.CodeInvalidArg, "at least one video reference is required")
	}

	requests := make([]Request, 0, len(args))
	for _, arg := range args {
		req, err := ParseRequest(arg)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	return requests, nil
}

// ResolveTasks expands the requests into per-video tasks. Playlist
// references are flattened through one metadata probe; single videos
// become one task each without touching the network. Sequence numbers
// start at the request's StartIndex and run in playlist order, or in
// reverse when asked.
//
// A reference with an extractable video ID is always a single video,
// even when the URL also carries a list= parameter. A playlist whose
// probe fails or comes back empty yields one pre-failed task so the
// remaining references still resolve; only context cancellation aborts
// resolution.
func ResolveTasks(ctx context.Context, ex extractor.Service, requests []Request, reverse bool) ([]*model.VideoTask, error) {
	var tasks []*model.VideoTask

	for _, req := range requests {
		start := req.StartIndex
		if start < 1 {
			start = 1
		}

		if !naming.IsPlaylist(req.Reference) || naming.VideoID(req.Reference) != "" {
			tasks = append(tasks, newTask(req.Reference, start))
			continue
		}

		info, err := ex.ExtractInfo(ctx, req.Reference, true)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			tasks = append(tasks, failedTask(req.Reference, start, err))
			continue
		}
		if len(info.Entries) == 0 {
			tasks = append(tasks, failedTask(req.Reference, start,
				errors.New(errors.CodeExternal, "playlist has no entries")))
			continue
		}

		entries := info.Entries
		if reverse {
			entries = reversed(entries)
		}
		for i, entry := range entries {
			tasks = append(tasks, newTask(entry.ID, start+i))
		}
	}
	return tasks, nil
}

func newTask(reference string, sequence int) *model.VideoTask {
	return &model.VideoTask{
		Reference:        reference,
		CanonicalID:      naming.VideoID(reference),
		CanonicalURL:     naming.CanonicalWatchURL(reference),
		AssignedSequence: sequence,
		State:            model.TaskPending,
	}
}

// failedTask carries a resolution error into the batch so the driver
// reports it like any other per-video failure.
func failedTask(reference string, sequence int, err error) *model.VideoTask {
	t := newTask(reference, sequence)
	t.Err = err
	return t
}

func reversed(entries []model.VideoInfo) []model.VideoInfo {
	out := make([]model.VideoInfo, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
