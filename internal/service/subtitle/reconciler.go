package subtitle

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gorendir/gorendir/internal/errors"
	"github.com/gorendir/gorendir/internal/model"
	"github.com/gorendir/gorendir/internal/service/transcript"
	"github.com/gorendir/gorendir/internal/storage"
)

// Pacing controls how the reconciler spaces out calls against the
// transcript service.
type Pacing struct {
	// DelayMin/DelayMax bound the randomized pause between consecutive
	// translation requests for one video.
	DelayMin time.Duration
	DelayMax time.Duration
	// Cooldown is the pause taken after the service signals rate limiting,
	// before reconciliation continues with the next language.
	Cooldown time.Duration
}

// Reconciler drives subtitle reconciliation for one video at a time. A
// failure on one language never aborts the remaining languages; the
// result reports each language's fate individually.
type Reconciler interface {
	Reconcile(ctx context.Context, videoID, folder, base string, languages []string) (*model.ReconciliationResult, error)
}

type reconciler struct {
	transcripts transcript.Service
	store       *storage.SubtitleStore
	logger      *logrus.Logger
	pacing      Pacing

	sleep func(ctx context.Context, d time.Duration) error
	randN func(n int64) int64
}

// NewReconciler creates a Reconciler backed by the given transcript
// service and subtitle store.
func NewReconciler(svc transcript.Service, store *storage.SubtitleStore, logger *logrus.Logger, pacing Pacing) Reconciler {
	return &reconciler{
		transcripts: svc,
		store:       store,
		logger:      logger,
		pacing:      pacing,
		sleep:       sleepCtx,
		randN:       rand.Int63n,
	}
}

// newReconcilerForTest disables real sleeping so tests run instantly.
func newReconcilerForTest(svc transcript.Service, store *storage.SubtitleStore, logger *logrus.Logger, pacing Pacing) *reconciler {
	r := NewReconciler(svc, store, logger, pacing).(*reconciler)
	r.sleep = func(context.Context, time.Duration) error { return nil }
	r.randN = func(n int64) int64 { return 0 }
	return r
}

// Reconcile saves one subtitle file per requested language into folder,
// named {base}.{lang}[.auto].srt. Languages already satisfied on disk are
// skipped without touching the network. Per-language errors are collected
// into the result; only context cancellation aborts the whole video.
func (r *reconciler) Reconcile(ctx context.Context, videoID, folder, base string, languages []string) (*model.ReconciliationResult, error) {
	result := model.NewReconciliationResult()

	var pending []string
	for _, lang := range languages {
		if r.store.Satisfied(folder, base, lang) {
			result.Saved[lang] = model.SavedExisting
			continue
		}
		pending = append(pending, lang)
	}
	if len(pending) == 0 {
		return result, nil
	}

	tracks, err := r.listTracks(ctx, videoID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		reason := "no subtitles available"
		if !errors.HasCode(err, errors.CodeUnavailable) && !errors.HasCode(err, errors.CodeNotFound) {
			reason = err.Error()
		}
		for _, lang := range pending {
			result.Failed[lang] = reason
		}
		return result, nil
	}

	plan := BuildPlan(tracks, pending)
	r.runDirectPass(ctx, plan, folder, base, result)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.runTranslationPass(ctx, tracks, plan.TranslationTargets, folder, base, result)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// listTracks lists the video's tracks, absorbing one rate-limit signal
// with a cooldown before retrying.
func (r *reconciler) listTracks(ctx context.Context, videoID string) ([]model.TranscriptTrack, error) {
	tracks, err := r.transcripts.ListTracks(ctx, videoID)
	if err == nil || !errors.IsRateLimited(err) {
		return tracks, err
	}

	r.logger.WithField("video_id", videoID).Warn("rate limited while listing tracks, cooling down")
	if serr := r.sleep(ctx, r.pacing.Cooldown); serr != nil {
		return nil, serr
	}
	return r.transcripts.ListTracks(ctx, videoID)
}

func (r *reconciler) runDirectPass(ctx context.Context, plan model.ReconciliationPlan, folder, base string, result *model.ReconciliationResult) {
	for _, lang := range sortedKeys(plan.DirectMatches) {
		if ctx.Err() != nil {
			return
		}
		track := plan.DirectMatches[lang]

		entries, err := r.transcripts.Fetch(ctx, track)
		if err != nil {
			r.recordFailure(ctx, result, lang, err)
			continue
		}
		r.save(result, entries, folder, base, lang, track.IsGenerated, model.SavedDirect)
	}
}

func (r *reconciler) runTranslationPass(ctx context.Context, tracks []model.TranscriptTrack, targets []string, folder, base string, result *model.ReconciliationResult) {
	if len(targets) == 0 {
		return
	}

	source, ok := SelectSource(tracks)
	if !ok {
		for _, lang := range targets {
			result.Failed[lang] = "no translatable source track"
		}
		return
	}

	for i, lang := range targets {
		if ctx.Err() != nil {
			return
		}
		if i > 0 {
			if err := r.sleep(ctx, r.translationDelay()); err != nil {
				return
			}
		}

		translated, err := r.transcripts.Translate(ctx, source, lang)
		if err != nil {
			r.recordFailure(ctx, result, lang, err)
			continue
		}
		entries, err := r.transcripts.Fetch(ctx, translated)
		if err != nil {
			r.recordFailure(ctx, result, lang, err)
			continue
		}
		r.save(result, entries, folder, base, lang, translated.IsGenerated, model.SavedTranslated)
	}
}

func (r *reconciler) save(result *model.ReconciliationResult, entries []model.TranscriptEntry, folder, base, lang string, auto bool, mode model.SaveMode) {
	content := transcript.FormatSRT(entries)
	if content == "" {
		result.Failed[lang] = "track has no usable cues"
		return
	}

	path, skipped, err := r.store.Save(content, folder, base, lang, auto)
	if err != nil {
		result.Failed[lang] = err.Error()
		return
	}
	if skipped {
		result.Saved[lang] = model.SavedExisting
		return
	}
	result.Saved[lang] = mode
	r.logger.WithFields(logrus.Fields{"lang": lang, "path": path, "mode": mode}).Info("saved subtitle")
}

// recordFailure notes the failed language and cools down if the error was
// a rate-limit signal, so the next language starts with a clean slate. The
// cooldown sleeps on the run's context so cancellation cuts it short.
func (r *reconciler) recordFailure(ctx context.Context, result *model.ReconciliationResult, lang string, err error) {
	result.Failed[lang] = err.Error()
	if errors.IsRateLimited(err) {
		r.logger.WithField("lang", lang).Warn("rate limited, cooling down before next language")
		_ = r.sleep(ctx, r.pacing.Cooldown)
	}
}

func (r *reconciler) translationDelay() time.Duration {
	span := r.pacing.DelayMax - r.pacing.DelayMin
	if span <= 0 {
		return r.pacing.DelayMin
	}
	return r.pacing.DelayMin + time.Duration(r.randN(int64(span)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func sortedKeys(m map[string]model.TranscriptTrack) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
