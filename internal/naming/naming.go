// Package naming canonicalizes video references and sanitizes strings into
// filesystem-safe names.
package naming

import (
	"fmt"
	"regexp"
	"strings"
)

const maxFilenameLength = 200

var (
	forbiddenChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	multiSpace     = regexp.MustCompile(`\s+`)
	watchParam     = regexp.MustCompile(`v=([^&#]+)`)
	bareID         = regexp.MustCompile(`^[\w-]{11}$`)
)

// SanitizeFilename strips characters the common filesystems reject,
// collapses whitespace runs and caps the length. An empty result becomes
// "untitled" so callers never produce a nameless file.
func SanitizeFilename(name string) string {
	name = forbiddenChars.ReplaceAllString(name, "")
	name = strings.TrimSpace(multiSpace.ReplaceAllString(name, " "))
	if len(name) > maxFilenameLength {
		name = name[:maxFilenameLength]
	}
	if name == "" {
		return "untitled"
	}
	return name
}

// VideoID extracts the video identifier from a watch URL, a short URL or a
// bare 11-character ID. Returns "" when the reference carries no single
// video ID (playlist and channel URLs fall in this bucket).
func VideoID(reference string) string {
	if m := watchParam.FindStringSubmatch(reference); m != nil {
		return m[1]
	}
	if i := strings.Index(reference, "youtu.be/"); i >= 0 {
		rest := reference[i+len("youtu.be/"):]
		if j := strings.IndexAny(rest, "?&#"); j >= 0 {
			rest = rest[:j]
		}
		if rest != "" {
			return rest
		}
	}
	if bareID.MatchString(reference) {
		return reference
	}
	return ""
}

// CanonicalWatchURL normalizes a reference to the watch?v= form used for
// dedup logging. References without an extractable video ID (playlists)
// are returned unchanged.
func CanonicalWatchURL(reference string) string {
	if id := VideoID(reference); id != "" {
		return fmt.Sprintf("https://www.youtube.com/watch?v=%s", id)
	}
	return reference
}

// IsPlaylist reports whether the reference points at a playlist rather
// than a single video.
func IsPlaylist(reference string) bool {
	return strings.Contains(reference, "playlist") || strings.Contains(reference, "list=")
}
