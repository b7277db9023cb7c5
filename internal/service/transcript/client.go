package transcript

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/gorendir/gorendir/internal/errors"
	"github.com/gorendir/gorendir/internal/model"
)

const (
	watchURLFormat = "https://www.youtube.com/watch?v=%s"
	defaultRPS     = 2.0
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// client implements Service against the public watch page and timedtext
// endpoints.
type client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	watchURL   string
}

// NewClient creates a transcript client with a conservative request rate.
// YouTube throttles aggressively, so every call goes through a shared
// token bucket.
func NewClient() Service {
	return &client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(defaultRPS), 1),
		watchURL:   watchURLFormat,
	}
}

// newClientForTest builds a client pointed at a test server.
func newClientForTest(httpClient *http.Client, watchURL string) *client {
	return &client{
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Inf, 1),
		watchURL:   watchURL,
	}
}

// captionTrackJSON is the watch-page shape of one caption track.
type captionTrackJSON struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" marks auto-generated tracks
	Name         struct {
		SimpleText string `json:"simpleText"`
		Runs       []struct {
			Text string `json:"text"`
		} `json:"runs"`
	} `json:"name"`
	IsTranslatable bool `json:"isTranslatable"`
}

// ListTracks scrapes the caption track list out of the watch page.
func (c *client) ListTracks(ctx context.Context, videoID string) ([]model.TranscriptTrack, error) {
	if videoID == "" {
		return nil, errors.New(errors.CodeInvalidArg, "video ID is required")
	}

	body, err := c.get(ctx, fmt.Sprintf(c.watchURL, videoID))
	if err != nil {
		return nil, err
	}
	page := string(body)

	if strings.Contains(page, `class="g-recaptcha"`) {
		return nil, errors.New(errors.CodeRateLimited, "too many requests: YouTube is asking for a captcha")
	}
	if !strings.Contains(page, `"captionTracks":`) {
		if strings.Contains(page, `"playabilityStatus":`) && !strings.Contains(page, `"captions":`) {
			return nil, errors.New(errors.CodeUnavailable, "transcripts are disabled for this video")
		}
		return nil, errors.New(errors.CodeUnavailable, "no transcript data found for this video")
	}

	raw, err := extractCaptionTracks(page)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to parse caption track list")
	}

	tracks := make([]model.TranscriptTrack, 0, len(raw))
	for _, t := range raw {
		name := t.Name.SimpleText
		if name == "" && len(t.Name.Runs) > 0 {
			name = t.Name.Runs[0].Text
		}
		tracks = append(tracks, model.TranscriptTrack{
			VideoID:        videoID,
			LanguageCode:   t.LanguageCode,
			LanguageName:   name,
			BaseURL:        t.BaseURL,
			IsGenerated:    t.Kind == "asr",
			IsTranslatable: t.IsTranslatable,
		})
	}
	return tracks, nil
}

// extractCaptionTracks decodes the captionTracks JSON array embedded in
// the watch page HTML.
func extractCaptionTracks(page string) ([]captionTrackJSON, error) {
	const marker = `"captionTracks":`
	idx := strings.Index(page, marker)
	if idx < 0 {
		return nil, fmt.Errorf("captionTracks marker not found")
	}

	dec := json.NewDecoder(strings.NewReader(page[idx+len(marker):]))
	var tracks []captionTrackJSON
	if err := dec.Decode(&tracks); err != nil {
		return nil, fmt.Errorf("decode captionTracks: %w", err)
	}
	return tracks, nil
}

// timedtextResponse is the json3 payload of the timedtext endpoint.
type timedtextResponse struct {
	Events []struct {
		TStartMs    int64 `json:"tStartMs"`
		DDurationMs int64 `json:"dDurationMs"`
		Segs        []struct {
			UTF8 string `json:"utf8"`
		} `json:"segs"`
	} `json:"events"`
}

// Fetch retrieves and decodes the cues of a track.
func (c *client) Fetch(ctx context.Context, track model.TranscriptTrack) ([]model.TranscriptEntry, error) {
	if track.BaseURL == "" {
		return nil, errors.New(errors.CodeInvalidArg, "track has no fetch URL")
	}

	body, err := c.get(ctx, track.BaseURL+"&fmt=json3")
	if err != nil {
		return nil, err
	}

	var resp timedtextResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to parse timedtext response")
	}

	var entries []model.TranscriptEntry
	for _, event := range resp.Events {
		if len(event.Segs) == 0 {
			continue
		}
		var text strings.Builder
		for _, seg := range event.Segs {
			text.WriteString(seg.UTF8)
		}
		trimmed := strings.TrimSpace(text.String())
		if trimmed == "" {
			continue
		}
		entries = append(entries, model.TranscriptEntry{
			Start:    float64(event.TStartMs) / 1000.0,
			Duration: float64(event.DDurationMs) / 1000.0,
			Text:     trimmed,
		})
	}
	return entries, nil
}

// Translate returns a track whose fetch URL asks the service for a served
// translation. No network call happens here; the translation is produced
// when the returned track is fetched.
func (c *client) Translate(ctx context.Context, track model.TranscriptTrack, targetLang string) (model.TranscriptTrack, error) {
	if targetLang == "" {
		return model.TranscriptTrack{}, errors.New(errors.CodeInvalidArg, "target language is required")
	}
	if !track.IsTranslatable {
		return model.TranscriptTrack{}, errors.New(errors.CodeInvalidArg,
			fmt.Sprintf("track %q is not translatable", track.LanguageCode))
	}

	translated := track
	translated.LanguageCode = targetLang
	translated.LanguageName = ""
	translated.BaseURL = track.BaseURL + "&tlang=" + targetLang
	// IsGenerated is inherited: a translation of an auto track is still
	// auto-derived.
	return translated, nil
}

// get performs a rate-limited GET and maps HTTP status onto error codes.
func (c *client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to build request")
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeExternal, "transcript request failed")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, errors.New(errors.CodeNotFound, "video not found")
	case http.StatusForbidden:
		return nil, errors.New(errors.CodeUnavailable, "access denied: captions disabled or region restricted")
	case http.StatusTooManyRequests:
		return nil, errors.New(errors.CodeRateLimited, "rate limited by YouTube")
	default:
		return nil, errors.New(errors.CodeExternal, fmt.Sprintf("transcript endpoint returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeExternal, "failed to read response body")
	}
	return body, nil
}
