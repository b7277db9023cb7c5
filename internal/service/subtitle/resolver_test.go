package subtitle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorendir/gorendir/internal/model"
)

func track(lang string, generated, translatable bool) model.TranscriptTrack {
	return model.TranscriptTrack{
		VideoID:        "vid1",
		LanguageCode:   lang,
		IsGenerated:    generated,
		IsTranslatable: translatable,
	}
}

func TestSelectSource_Priority(t *testing.T) {
	tests := []struct {
		name   string
		tracks []model.TranscriptTrack
		want   string
		auto   bool
	}{
		{
			name: "manual english beats everything",
			tracks: []model.TranscriptTrack{
				track("fa", false, true),
				track("en", true, true),
				track("en-GB", false, true),
			},
			want: "en-GB",
		},
		{
			name: "generated english beats manual non-english",
			tracks: []model.TranscriptTrack{
				track("fa", false, true),
				track("en", true, true),
			},
			want: "en",
			auto: true,
		},
		{
			name: "manual non-english beats generated non-english",
			tracks: []model.TranscriptTrack{
				track("tr", true, true),
				track("fa", false, true),
			},
			want: "fa",
		},
		{
			name: "falls back to any translatable track",
			tracks: []model.TranscriptTrack{
				track("tr", true, true),
			},
			want: "tr",
			auto: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectSource(tt.tracks)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.LanguageCode)
			assert.Equal(t, tt.auto, got.IsGenerated)
		})
	}
}

func TestSelectSource_NoUsableTrack(t *testing.T) {
	_, ok := SelectSource(nil)
	assert.False(t, ok)

	_, ok = SelectSource([]model.TranscriptTrack{track("xx", true, false)})
	assert.False(t, ok)
}

func TestSelectSource_Deterministic(t *testing.T) {
	tracks := []model.TranscriptTrack{
		track("fa", false, true),
		track("tr", false, true),
	}
	first, ok := SelectSource(tracks)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		got, _ := SelectSource(tracks)
		assert.Equal(t, first.LanguageCode, got.LanguageCode)
	}
	// earlier track wins the tie
	assert.Equal(t, "fa", first.LanguageCode)
}

func TestBuildPlan_SplitsLanguages(t *testing.T) {
	tracks := []model.TranscriptTrack{
		track("en", false, true),
		track("fa", true, true),
	}
	plan := BuildPlan(tracks, []string{"az", "en", "fa", "tr"})

	assert.Equal(t, "en", plan.DirectMatches["en"].LanguageCode)
	assert.Equal(t, "fa", plan.DirectMatches["fa"].LanguageCode)
	assert.Equal(t, []string{"az", "tr"}, plan.TranslationTargets)
}

func TestBuildPlan_CoversEveryLanguageExactlyOnce(t *testing.T) {
	tracks := []model.TranscriptTrack{
		track("en-US", false, true),
		track("tr", true, true),
	}
	langs := []string{"az", "en", "fa", "tr"}
	plan := BuildPlan(tracks, langs)

	seen := make(map[string]int)
	for lang := range plan.DirectMatches {
		seen[lang]++
	}
	for _, lang := range plan.TranslationTargets {
		seen[lang]++
	}
	for _, lang := range langs {
		assert.Equal(t, 1, seen[lang], "language %s must appear exactly once", lang)
	}
}

func TestBuildPlan_MatchRanking(t *testing.T) {
	tests := []struct {
		name   string
		tracks []model.TranscriptTrack
		lang   string
		want   string // language code of the expected winner
		auto   bool
	}{
		{
			name:   "exact manual beats exact generated",
			tracks: []model.TranscriptTrack{track("en", true, true), track("en", false, true)},
			lang:   "en",
			want:   "en",
		},
		{
			name:   "exact generated beats regional-variant manual",
			tracks: []model.TranscriptTrack{track("en-GB", false, true), track("en", true, true)},
			lang:   "en",
			want:   "en",
			auto:   true,
		},
		{
			name:   "regional-variant manual accepted when no exact match",
			tracks: []model.TranscriptTrack{track("en-GB", false, true)},
			lang:   "en",
			want:   "en-GB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := BuildPlan(tt.tracks, []string{tt.lang})
			got, ok := plan.DirectMatches[tt.lang]
			require.True(t, ok)
			assert.Equal(t, tt.want, got.LanguageCode)
			assert.Equal(t, tt.auto, got.IsGenerated)
		})
	}
}

func TestBuildPlan_VariantMatchIsOneWay(t *testing.T) {
	// track "en-GB" satisfies a request for "en"...
	plan := BuildPlan([]model.TranscriptTrack{track("en-GB", false, true)}, []string{"en"})
	assert.Equal(t, "en-GB", plan.DirectMatches["en"].LanguageCode)

	// ...but a bare "en" track never satisfies a request for "en-US"
	plan = BuildPlan([]model.TranscriptTrack{track("en", false, true)}, []string{"en-US"})
	assert.Empty(t, plan.DirectMatches)
	assert.Equal(t, []string{"en-US"}, plan.TranslationTargets)
}

func TestBuildPlan_NoTracks(t *testing.T) {
	plan := BuildPlan(nil, []string{"en", "fa"})
	assert.Empty(t, plan.DirectMatches)
	assert.Equal(t, []string{"en", "fa"}, plan.TranslationTargets)
}
