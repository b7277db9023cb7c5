// Package storage owns everything gorendir writes under the save
// directory: the dedup URL log, video folders and subtitle files.
package storage

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const urlLogName = "_urls.txt"

// URLLog is the append-only newline-delimited log of canonical URLs that
// have already been processed. It is the batch-level idempotence record:
// read once at startup, appended after each successful task. The batch
// runs sequentially, so no locking is needed here.
type URLLog struct {
	path string
	seen map[string]struct{}
}

// NewURLLog opens (or lazily creates) the log under root and loads the
// already-recorded URLs.
func NewURLLog(root string) (*URLLog, error) {
	l := &URLLog{
		path: filepath.Join(root, urlLogName),
		seen: make(map[string]struct{}),
	}

	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		return nil, fmt.Errorf("open url log: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			l.seen[line] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read url log: %w", err)
	}
	return l, nil
}

// Contains reports whether the URL was recorded by an earlier run.
func (l *URLLog) Contains(url string) bool {
	_, ok := l.seen[url]
	return ok
}

// Append records a URL. Appending an already-present URL is a no-op so
// the log never accumulates duplicates.
func (l *URLLog) Append(url string) error {
	if l.Contains(url) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create save directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open url log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(url + "\n"); err != nil {
		return fmt.Errorf("append url log: %w", err)
	}
	l.seen[url] = struct{}{}
	return nil
}

// Len returns the number of recorded URLs.
func (l *URLLog) Len() int {
	return len(l.seen)
}
