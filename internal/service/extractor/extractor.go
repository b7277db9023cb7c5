// Package extractor wraps yt-dlp behind a narrow contract: metadata
// extraction and media download. The orchestrator never parses yt-dlp
// output anywhere else.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gorendir/gorendir/internal/errors"
	"github.com/gorendir/gorendir/internal/model"
	"github.com/gorendir/gorendir/internal/service/common"
)

// Service defines the video extraction/download operations the batch
// driver consumes.
type Service interface {
	// ExtractInfo fetches metadata for a video or playlist reference.
	// With flat set, playlist entries are listed without per-entry probing.
	ExtractInfo(ctx context.Context, url string, flat bool) (*model.VideoInfo, error)

	// Download fetches the media itself into opts.Folder.
	Download(ctx context.Context, url string, opts DownloadOptions) error
}

// DownloadOptions mirror the yt-dlp knobs the batch driver drives.
// Playlist windowing happens during reference resolution, so downloads
// always target a single canonical video URL.
type DownloadOptions struct {
	Folder          string
	MaxResolution   int
	AutonumberStart int
	Simulate        bool
}

// service implements Service using yt-dlp via CmdRunner
type service struct {
	cmdRunner common.CmdRunner
}

// NewService creates a Service with the default CmdRunner.
func NewService() Service {
	return &service{cmdRunner: common.NewCmdRunner()}
}

// NewServiceWithCmdRunner creates a Service with a custom CmdRunner (for testing).
func NewServiceWithCmdRunner(cmdRunner common.CmdRunner) Service {
	return &service{cmdRunner: cmdRunner}
}

// ExtractInfo fetches metadata for a reference without downloading anything.
func (s *service) ExtractInfo(ctx context.Context, url string, flat bool) (*model.VideoInfo, error) {
	if url == "" {
		return nil, errors.New(errors.CodeInvalidArg, "video URL is required")
	}

	args := []string{"-J", "--no-warnings", "--ignore-errors"}
	if flat {
		args = append(args, "--flat-playlist")
	}
	args = append(args, url)

	output, err := s.cmdRunner.Run(ctx, "yt-dlp", args...)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeExternal, s.formatYtDlpError(err, url))
	}

	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" || trimmed == "null" {
		// yt-dlp with --ignore-errors prints nothing for dead references.
		return nil, errors.New(errors.CodeExternal, "unable to extract video info")
	}

	var info model.VideoInfo
	if err := json.Unmarshal([]byte(trimmed), &info); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to parse yt-dlp output")
	}
	if info.ID == "" && len(info.Entries) == 0 {
		return nil, errors.New(errors.CodeExternal, "yt-dlp returned incomplete metadata")
	}

	return &info, nil
}

// Download fetches the media for a reference. Sequence numbering follows
// the options so playlist entries come out as NN_title.ext in the order
// their tasks were resolved.
func (s *service) Download(ctx context.Context, url string, opts DownloadOptions) error {
	if url == "" {
		return errors.New(errors.CodeInvalidArg, "video URL is required")
	}
	if opts.Folder == "" {
		return errors.New(errors.CodeInvalidArg, "download folder is required")
	}

	maxRes := opts.MaxResolution
	if maxRes <= 0 {
		maxRes = 1080
	}

	args := []string{
		"-f", fmt.Sprintf("(bestvideo[height<=%d]+bestvideo[height<=720][vcodec^=avc1]+bestaudio/best)", maxRes),
		"-o", filepath.Join(opts.Folder, "%(autonumber)02d_%(title)s.%(ext)s"),
		"--no-overwrites",
		"--write-description",
		"--ignore-errors",
		"--no-warnings",
	}
	if opts.AutonumberStart > 0 {
		args = append(args, "--autonumber-start", fmt.Sprintf("%d", opts.AutonumberStart))
	}
	if opts.Simulate {
		args = append(args, "--simulate")
	}
	args = append(args, url)

	if _, err := s.cmdRunner.Run(ctx, "yt-dlp", args...); err != nil {
		return errors.Wrap(err, errors.CodeExternal, s.formatYtDlpError(err, url))
	}
	return nil
}

// formatYtDlpError maps common yt-dlp failure messages onto something a
// human can act on.
func (s *service) formatYtDlpError(err error, url string) string {
	errMsg := err.Error()

	switch {
	case strings.Contains(errMsg, "Video unavailable"):
		return "video is not available (may be private, deleted, or region-blocked)"
	case strings.Contains(errMsg, "Private video"):
		return "video is private and cannot be downloaded"
	case strings.Contains(errMsg, "Premieres in"), strings.Contains(errMsg, "premiere"):
		return "video is an upcoming premiere"
	case strings.Contains(errMsg, "No such file or directory") && strings.Contains(errMsg, "yt-dlp"):
		return "yt-dlp is not installed or not found in PATH"
	case strings.Contains(errMsg, "HTTP Error 404"):
		return "video not found - please check the video URL"
	case strings.Contains(errMsg, "403"):
		return "access denied - video may be region-blocked or require login"
	case strings.Contains(errMsg, "429"):
		return "rate limited by YouTube - please try again later"
	default:
		return fmt.Sprintf("yt-dlp failed for %s", url)
	}
}
