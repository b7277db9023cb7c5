package subtitle

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gorendir/gorendir/internal/errors"
	"github.com/gorendir/gorendir/internal/logging"
	"github.com/gorendir/gorendir/internal/model"
	"github.com/gorendir/gorendir/internal/storage"
)

type mockTranscriptService struct {
	mock.Mock
}

func (m *mockTranscriptService) ListTracks(ctx context.Context, videoID string) ([]model.TranscriptTrack, error) {
	args := m.Called(ctx, videoID)
	if tracks, ok := args.Get(0).([]model.TranscriptTrack); ok {
		return tracks, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTranscriptService) Fetch(ctx context.Context, track model.TranscriptTrack) ([]model.TranscriptEntry, error) {
	args := m.Called(ctx, track)
	if entries, ok := args.Get(0).([]model.TranscriptEntry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTranscriptService) Translate(ctx context.Context, track model.TranscriptTrack, targetLang string) (model.TranscriptTrack, error) {
	args := m.Called(ctx, track, targetLang)
	if translated, ok := args.Get(0).(model.TranscriptTrack); ok {
		return translated, args.Error(1)
	}
	return model.TranscriptTrack{}, args.Error(1)
}

var sampleEntries = []model.TranscriptEntry{
	{Start: 0, Duration: 2, Text: "first cue with enough text"},
	{Start: 2, Duration: 2, Text: "second cue with enough text"},
}

func newTestReconciler(t *testing.T, svc *mockTranscriptService) (*reconciler, string) {
	t.Helper()
	return newReconcilerForTest(svc, storage.NewSubtitleStore(), logging.Discard(), Pacing{}), t.TempDir()
}

func TestReconcile_DirectMatchesOnly(t *testing.T) {
	svc := new(mockTranscriptService)
	r, dir := newTestReconciler(t, svc)

	en := track("en", false, true)
	fa := track("fa", true, true)
	svc.On("ListTracks", mock.Anything, "vid1").Return([]model.TranscriptTrack{en, fa}, nil)
	svc.On("Fetch", mock.Anything, en).Return(sampleEntries, nil)
	svc.On("Fetch", mock.Anything, fa).Return(sampleEntries, nil)

	result, err := r.Reconcile(context.Background(), "vid1", dir, "01_video", []string{"en", "fa"})
	require.NoError(t, err)

	assert.Equal(t, model.SavedDirect, result.Saved["en"])
	assert.Equal(t, model.SavedDirect, result.Saved["fa"])
	assert.Empty(t, result.Failed)

	// manual track saved plain, generated track carries the .auto infix
	assert.FileExists(t, filepath.Join(dir, "01_video.en.srt"))
	assert.FileExists(t, filepath.Join(dir, "01_video.fa.auto.srt"))
	svc.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything)
}

func TestReconcile_TranslationPass(t *testing.T) {
	svc := new(mockTranscriptService)
	r, dir := newTestReconciler(t, svc)

	source := track("en", true, true)
	svc.On("ListTracks", mock.Anything, "vid1").Return([]model.TranscriptTrack{source}, nil)
	svc.On("Fetch", mock.Anything, source).Return(sampleEntries, nil)

	for _, lang := range []string{"az", "fa"} {
		translated := track(lang, true, false)
		svc.On("Translate", mock.Anything, source, lang).Return(translated, nil)
		svc.On("Fetch", mock.Anything, translated).Return(sampleEntries, nil)
	}

	result, err := r.Reconcile(context.Background(), "vid1", dir, "01_video", []string{"az", "en", "fa"})
	require.NoError(t, err)

	assert.Equal(t, model.SavedDirect, result.Saved["en"])
	assert.Equal(t, model.SavedTranslated, result.Saved["az"])
	assert.Equal(t, model.SavedTranslated, result.Saved["fa"])
	assert.Empty(t, result.Failed)

	// translations of a generated source inherit the .auto infix
	assert.FileExists(t, filepath.Join(dir, "01_video.az.auto.srt"))
	assert.FileExists(t, filepath.Join(dir, "01_video.fa.auto.srt"))
}

func TestReconcile_SubtitlesDisabled(t *testing.T) {
	svc := new(mockTranscriptService)
	r, dir := newTestReconciler(t, svc)

	svc.On("ListTracks", mock.Anything, "vid1").
		Return(nil, errors.New(errors.CodeUnavailable, "subtitles are disabled"))

	result, err := r.Reconcile(context.Background(), "vid1", dir, "01_video", []string{"en", "fa"})
	require.NoError(t, err)

	assert.Empty(t, result.Saved)
	assert.Equal(t, "no subtitles available", result.Failed["en"])
	assert.Equal(t, "no subtitles available", result.Failed["fa"])
}

func TestReconcile_PartialFailureIsolation(t *testing.T) {
	svc := new(mockTranscriptService)
	r, dir := newTestReconciler(t, svc)

	en := track("en", false, true)
	fa := track("fa", false, true)
	svc.On("ListTracks", mock.Anything, "vid1").Return([]model.TranscriptTrack{en, fa}, nil)
	svc.On("Fetch", mock.Anything, en).Return(nil, errors.New(errors.CodeExternal, "fetch blew up"))
	svc.On("Fetch", mock.Anything, fa).Return(sampleEntries, nil)

	result, err := r.Reconcile(context.Background(), "vid1", dir, "01_video", []string{"en", "fa"})
	require.NoError(t, err)

	assert.Contains(t, result.Failed["en"], "fetch blew up")
	assert.Equal(t, model.SavedDirect, result.Saved["fa"])
}

func TestReconcile_SatisfiedLanguagesSkipNetwork(t *testing.T) {
	svc := new(mockTranscriptService)
	r, dir := newTestReconciler(t, svc)

	content := make([]byte, 128)
	for i := range content {
		content[i] = 'x'
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01_video.en.srt"), content, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "01_video.fa.auto.srt"), content, 0o644))

	result, err := r.Reconcile(context.Background(), "vid1", dir, "01_video", []string{"en", "fa"})
	require.NoError(t, err)

	assert.Equal(t, model.SavedExisting, result.Saved["en"])
	assert.Equal(t, model.SavedExisting, result.Saved["fa"])
	svc.AssertNotCalled(t, "ListTracks", mock.Anything, mock.Anything)
}

func TestReconcile_RateLimitedListRetriesAfterCooldown(t *testing.T) {
	svc := new(mockTranscriptService)
	r, dir := newTestReconciler(t, svc)

	en := track("en", false, true)
	svc.On("ListTracks", mock.Anything, "vid1").
		Return(nil, errors.New(errors.CodeRateLimited, "too many requests")).Once()
	svc.On("ListTracks", mock.Anything, "vid1").
		Return([]model.TranscriptTrack{en}, nil).Once()
	svc.On("Fetch", mock.Anything, en).Return(sampleEntries, nil)

	result, err := r.Reconcile(context.Background(), "vid1", dir, "01_video", []string{"en"})
	require.NoError(t, err)

	assert.Equal(t, model.SavedDirect, result.Saved["en"])
	svc.AssertExpectations(t)
}

func TestReconcile_NoTranslatableSource(t *testing.T) {
	svc := new(mockTranscriptService)
	r, dir := newTestReconciler(t, svc)

	svc.On("ListTracks", mock.Anything, "vid1").
		Return([]model.TranscriptTrack{track("xx", true, false)}, nil)

	result, err := r.Reconcile(context.Background(), "vid1", dir, "01_video", []string{"en", "fa"})
	require.NoError(t, err)

	assert.Equal(t, "no translatable source track", result.Failed["en"])
	assert.Equal(t, "no translatable source track", result.Failed["fa"])
}

func TestReconcile_EmptyTrackContent(t *testing.T) {
	svc := new(mockTranscriptService)
	r, dir := newTestReconciler(t, svc)

	en := track("en", false, true)
	svc.On("ListTracks", mock.Anything, "vid1").Return([]model.TranscriptTrack{en}, nil)
	svc.On("Fetch", mock.Anything, en).Return([]model.TranscriptEntry{}, nil)

	result, err := r.Reconcile(context.Background(), "vid1", dir, "01_video", []string{"en"})
	require.NoError(t, err)
	assert.Equal(t, "track has no usable cues", result.Failed["en"])
}

func TestReconcile_EveryLanguageAccountedFor(t *testing.T) {
	svc := new(mockTranscriptService)
	r, dir := newTestReconciler(t, svc)

	en := track("en", false, true)
	svc.On("ListTracks", mock.Anything, "vid1").Return([]model.TranscriptTrack{en}, nil)
	svc.On("Fetch", mock.Anything, en).Return(sampleEntries, nil)
	svc.On("Translate", mock.Anything, en, "az").
		Return(model.TranscriptTrack{}, errors.New(errors.CodeExternal, "translate failed"))
	tr := track("tr", false, false)
	svc.On("Translate", mock.Anything, en, "tr").Return(tr, nil)
	svc.On("Fetch", mock.Anything, tr).Return(sampleEntries, nil)

	langs := []string{"az", "en", "tr"}
	result, err := r.Reconcile(context.Background(), "vid1", dir, "01_video", langs)
	require.NoError(t, err)

	for _, lang := range langs {
		_, saved := result.Saved[lang]
		_, failed := result.Failed[lang]
		assert.True(t, saved != failed, "language %s must be in exactly one bucket", lang)
	}
}

type sleepCtxKey struct{}

func TestReconcile_CooldownRunsOnCallerContext(t *testing.T) {
	svc := new(mockTranscriptService)
	r, dir := newTestReconciler(t, svc)

	var sleptCtx context.Context
	r.sleep = func(ctx context.Context, d time.Duration) error {
		sleptCtx = ctx
		return ctx.Err()
	}

	en := track("en", false, true)
	svc.On("ListTracks", mock.Anything, "vid1").Return([]model.TranscriptTrack{en}, nil)
	svc.On("Fetch", mock.Anything, en).Return(nil, errors.New(errors.CodeRateLimited, "too many requests"))

	ctx := context.WithValue(context.Background(), sleepCtxKey{}, "run")
	result, err := r.Reconcile(ctx, "vid1", dir, "01_video", []string{"en"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Failed["en"])

	// the cooldown slept on the run's context, so cancelling the run
	// would cut the cooldown short
	require.NotNil(t, sleptCtx)
	assert.Equal(t, "run", sleptCtx.Value(sleepCtxKey{}))
}

func TestReconcile_ContextCancelled(t *testing.T) {
	svc := new(mockTranscriptService)
	r, dir := newTestReconciler(t, svc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	svc.On("ListTracks", mock.Anything, "vid1").Return(nil, ctx.Err())

	_, err := r.Reconcile(ctx, "vid1", dir, "01_video", []string{"en"})
	assert.ErrorIs(t, err, context.Canceled)
}
