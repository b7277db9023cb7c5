package transcript

import (
	"fmt"
	"strings"

	"github.com/gorendir/gorendir/internal/model"
)

// FormatSRT renders fetched cues as SubRip text. Cue ends are start plus
// duration, clamped so overlapping auto-generated cues do not run past the
// start of the next one.
func FormatSRT(entries []model.TranscriptEntry) string {
	var b strings.Builder
	n := 0
	for i, e := range entries {
		text := strings.TrimSpace(e.Text)
		if text == "" {
			continue
		}

		end := e.Start + e.Duration
		if i+1 < len(entries) && entries[i+1].Start < end {
			end = entries[i+1].Start
		}

		n++
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", n, srtTimestamp(e.Start), srtTimestamp(end), text)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// srtTimestamp formats seconds as HH:MM:SS,mmm.
func srtTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	ms := int64(seconds*1000 + 0.5)
	h := ms / 3600000
	ms -= h * 3600000
	m := ms / 60000
	ms -= m * 60000
	s := ms / 1000
	ms -= s * 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
