// Package transcript talks to YouTube's caption endpoints: listing the
// tracks a video carries, fetching cue content, and requesting served
// translations of a track.
package transcript

import (
	"context"

	"github.com/gorendir/gorendir/internal/model"
)

// Service is the transcript collaborator contract consumed by the
// subtitle reconciler.
type Service interface {
	// ListTracks returns every subtitle track the video exposes, in the
	// order the service reports them. A video with captions disabled
	// yields an error carrying errors.CodeUnavailable.
	ListTracks(ctx context.Context, videoID string) ([]model.TranscriptTrack, error)

	// Fetch retrieves the timed cues of one track.
	Fetch(ctx context.Context, track model.TranscriptTrack) ([]model.TranscriptEntry, error)

	// Translate derives a track in targetLang from a translatable source
	// track. The returned track keeps the source's generated flag: a
	// translation of an auto-generated track is still auto-derived.
	Translate(ctx context.Context, track model.TranscriptTrack, targetLang string) (model.TranscriptTrack, error)
}
