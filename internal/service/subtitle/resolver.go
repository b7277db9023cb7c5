// Package subtitle reconciles the subtitle tracks a video actually has
// against the languages the user wants, saving direct matches as-is and
// closing the gaps through served translations.
package subtitle

import (
	"strings"

	"github.com/gorendir/gorendir/internal/model"
)

// englishVariants are the codes treated as interchangeable English for
// source selection. English tracks translate best, so they are preferred
// as the translation pivot.
var englishVariants = map[string]bool{
	"en":    true,
	"en-US": true,
	"en-GB": true,
}

// SelectSource picks the track used as the pivot for all translations of
// a video. Priority: manually created English variant, then auto-generated
// English variant, then the first manual track, then the first translatable
// track of any kind. Within a tier the first track in listing order wins,
// so the choice is deterministic for a given track list.
func SelectSource(tracks []model.TranscriptTrack) (model.TranscriptTrack, bool) {
	for _, t := range tracks {
		if !t.IsGenerated && englishVariants[t.LanguageCode] {
			return t, true
		}
	}
	for _, t := range tracks {
		if t.IsGenerated && englishVariants[t.LanguageCode] {
			return t, true
		}
	}
	for _, t := range tracks {
		if !t.IsGenerated {
			return t, true
		}
	}
	for _, t := range tracks {
		if t.IsTranslatable {
			return t, true
		}
	}
	return model.TranscriptTrack{}, false
}

// BuildPlan splits the requested languages into those satisfiable by an
// existing track and those needing translation. Every requested language
// lands in exactly one of the two buckets.
//
// Match quality per language, best first: exact code and manual, exact
// code and generated, regional variant and manual, regional variant and
// generated. A variant match is one-way: track "en-GB" satisfies a
// request for "en", but track "en" never satisfies a request for
// "en-US". Ties within a rank go to the earlier track.
func BuildPlan(tracks []model.TranscriptTrack, languages []string) model.ReconciliationPlan {
	plan := model.ReconciliationPlan{
		DirectMatches: make(map[string]model.TranscriptTrack),
	}

	for _, lang := range languages {
		if track, ok := bestDirectMatch(tracks, lang); ok {
			plan.DirectMatches[lang] = track
		} else {
			plan.TranslationTargets = append(plan.TranslationTargets, lang)
		}
	}
	return plan
}

func bestDirectMatch(tracks []model.TranscriptTrack, lang string) (model.TranscriptTrack, bool) {
	var best model.TranscriptTrack
	bestRank := 0

	for _, t := range tracks {
		rank := matchRank(t, lang)
		if rank > bestRank {
			best, bestRank = t, rank
		}
	}
	return best, bestRank > 0
}

// matchRank scores how well a track satisfies a requested language.
// 0 means no match.
func matchRank(t model.TranscriptTrack, lang string) int {
	variant := strings.HasPrefix(t.LanguageCode, lang+"-")
	switch {
	case t.LanguageCode == lang && !t.IsGenerated:
		return 4
	case t.LanguageCode == lang:
		return 3
	case variant && !t.IsGenerated:
		return 2
	case variant:
		return 1
	}
	return 0
}
