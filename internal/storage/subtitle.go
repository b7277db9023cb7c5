package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// minSubtitleBytes is the sanity threshold below which an existing file is
// treated as a broken leftover rather than a satisfied subtitle.
const minSubtitleBytes = 16

// SubtitleStore writes reconciled tracks to disk under the deterministic
// scheme {base}.{lang}[.auto].srt, where base is the NN_title stem shared
// with the media file.
type SubtitleStore struct {
	threshold int64
}

// NewSubtitleStore creates a store with the default size threshold.
func NewSubtitleStore() *SubtitleStore {
	return &SubtitleStore{threshold: minSubtitleBytes}
}

// Path returns the target file path for a language. The .auto infix marks
// content derived from an auto-generated track, directly or through
// translation.
func (s *SubtitleStore) Path(dir, base, lang string, auto bool) string {
	if auto {
		return filepath.Join(dir, fmt.Sprintf("%s.%s.auto.srt", base, lang))
	}
	return filepath.Join(dir, fmt.Sprintf("%s.%s.srt", base, lang))
}

// Satisfied reports whether a non-trivial subtitle file for the language
// already exists in either the plain or the .auto variant. Used as a
// pre-flight check so repeated runs never re-fetch content.
func (s *SubtitleStore) Satisfied(dir, base, lang string) bool {
	return s.nonTrivial(s.Path(dir, base, lang, false)) ||
		s.nonTrivial(s.Path(dir, base, lang, true))
}

// Save writes content to the target path. If a non-trivial file is already
// there the write is skipped and the existing path returned.
func (s *SubtitleStore) Save(content, dir, base, lang string, auto bool) (path string, skipped bool, err error) {
	path = s.Path(dir, base, lang, auto)

	if s.nonTrivial(path) {
		return path, true, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, fmt.Errorf("create subtitle folder: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", false, fmt.Errorf("write subtitle file: %w", err)
	}
	return path, false, nil
}

func (s *SubtitleStore) nonTrivial(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Size() > s.threshold
}
