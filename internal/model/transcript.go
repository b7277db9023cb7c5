package model

// TranscriptTrack represents one subtitle track available for a video.
// Tracks are fetched fresh per video and never mutated.
type TranscriptTrack struct {
	VideoID        string `json:"video_id"`
	LanguageCode   string `json:"language_code"`
	LanguageName   string `json:"language_name,omitempty"`
	BaseURL        string `json:"-"`
	IsGenerated    bool   `json:"is_generated"`
	IsTranslatable bool   `json:"is_translatable"`
}

// TranscriptEntry is one timed cue of a fetched track.
type TranscriptEntry struct {
	Start    float64 `json:"start"`    // seconds from video start
	Duration float64 `json:"duration"` // seconds
	Text     string  `json:"text"`
}

// ReconciliationPlan is the per-video split of requested languages into
// directly satisfiable matches and translation targets. Ephemeral: built,
// executed, discarded.
//
// Invariant: keys(DirectMatches) and TranslationTargets are disjoint and
// together cover every requested language.
type ReconciliationPlan struct {
	DirectMatches      map[string]TranscriptTrack
	TranslationTargets []string
}

// SaveMode records how a requested language ended up on disk.
type SaveMode string

const (
	SavedDirect     SaveMode = "direct"
	SavedTranslated SaveMode = "translated"
	SavedExisting   SaveMode = "existing" // a previous run already wrote the file
)

// ReconciliationResult is the outcome of reconciling one video. Every
// requested language appears in exactly one of Saved or Failed.
type ReconciliationResult struct {
	Saved  map[string]SaveMode
	Failed map[string]string // language -> reason
}

// NewReconciliationResult returns an empty result with maps allocated.
func NewReconciliationResult() *ReconciliationResult {
	return &ReconciliationResult{
		Saved:  make(map[string]SaveMode),
		Failed: make(map[string]string),
	}
}
