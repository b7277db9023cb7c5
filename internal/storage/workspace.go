package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gorendir/gorendir/internal/model"
	"github.com/gorendir/gorendir/internal/naming"
)

const downloadDirName = "Download_video"

// Workspace lays out the on-disk structure under the save directory:
//
//	{root}/_urls.txt
//	{root}/Download_video/{title_uploader}/
//	    NN_title.ext, NN_title.lang[.auto].srt, metadata.json, _url.txt
type Workspace struct {
	root string
}

// NewWorkspace creates a workspace rooted at dir.
func NewWorkspace(root string) *Workspace {
	return &Workspace{root: root}
}

// Root returns the save directory.
func (w *Workspace) Root() string {
	return w.root
}

// videoMetadata is the shape of the per-folder metadata.json file.
type videoMetadata struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Uploader string `json:"uploader"`
	URL      string `json:"url"`
	Sequence int    `json:"sequence"`
}

// CreateVideoFolder creates the per-video folder and drops the _url.txt
// and metadata.json companions into it. Creating an existing folder is
// fine; companions are rewritten with current metadata.
func (w *Workspace) CreateVideoFolder(info *model.VideoInfo, canonicalURL string, sequence int) (string, error) {
	if info == nil || info.Title == "" || info.Uploader == "" {
		return "", fmt.Errorf("video metadata is incomplete")
	}

	folderName := naming.SanitizeFilename(fmt.Sprintf("%s_%s", info.Title, info.Uploader))
	folder := filepath.Join(w.root, downloadDirName, folderName)
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return "", fmt.Errorf("create video folder: %w", err)
	}

	if err := os.WriteFile(filepath.Join(folder, "_url.txt"), []byte(canonicalURL+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("write _url.txt: %w", err)
	}

	meta, err := json.MarshalIndent(videoMetadata{
		ID:       info.ID,
		Title:    info.Title,
		Uploader: info.Uploader,
		URL:      canonicalURL,
		Sequence: sequence,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(folder, "metadata.json"), append(meta, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write metadata.json: %w", err)
	}

	return folder, nil
}
