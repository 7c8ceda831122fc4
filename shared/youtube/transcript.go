package youtube

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"video-kb/internal/models"
	"video-kb/shared/logger"

	"github.com/PuerkitoBio/goquery"
)

const (
	defaultWatchURL = "https://www.youtube.com/watch"
	userAgent       = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

	playerResponseMarker = "ytInitialPlayerResponse"
)

var (
	// ErrTranscriptUnavailable wraps every reason a transcript could not be obtained.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
	// ErrTranscriptsDisabled means the video exposes no caption tracks.
	ErrTranscriptsDisabled = errors.New("transcripts are disabled for this video")
)

// TranscriptSource returns the timed caption entries of a video.
type TranscriptSource interface {
	GetTranscript(ctx context.Context, videoID string) ([]models.TranscriptEntry, error)
}

// TranscriptFetcher turns caption entries into one plain-text transcript.
type TranscriptFetcher struct {
	source TranscriptSource
	log    *logger.Logger
}

// NewTranscriptFetcher wraps source with joining and error wrapping.
func NewTranscriptFetcher(source TranscriptSource, log *logger.Logger) *TranscriptFetcher {
	return &TranscriptFetcher{source: source, log: log}
}

// Fetch joins the text of every entry, in order, with single spaces.
// Entries are trimmed first and entries left empty are skipped, so the
// result never has leading, trailing or doubled spaces. Whitespace inside
// an entry is collapsed when the caption track is parsed.
func (f *TranscriptFetcher) Fetch(ctx context.Context, videoID string) (string, error) {
	entries, err := f.source.GetTranscript(ctx, videoID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTranscriptUnavailable, err)
	}

	texts := make([]string, 0, len(entries))
	for _, e := range entries {
		if t := strings.TrimSpace(e.Text); t != "" {
			texts = append(texts, t)
		}
	}
	if len(texts) == 0 {
		return "", fmt.Errorf("%w: no caption text for %s", ErrTranscriptUnavailable, videoID)
	}

	f.log.Debug("Transcript fetched", "video_id", videoID, "entries", len(entries))
	return strings.Join(texts, " "), nil
}

// WatchPageSource reads caption tracks from the player response embedded in
// the public watch page, then downloads the chosen track as timedtext XML.
type WatchPageSource struct {
	watchURL   string
	languages  []string
	httpClient *http.Client
}

type WatchPageOption func(*WatchPageSource)

// WithWatchURL overrides the watch page endpoint.
func WithWatchURL(u string) WatchPageOption {
	return func(s *WatchPageSource) { s.watchURL = u }
}

func WithHTTPClient(c *http.Client) WatchPageOption {
	return func(s *WatchPageSource) { s.httpClient = c }
}

func NewWatchPageSource(languages []string, opts ...WatchPageOption) *WatchPageSource {
	if len(languages) == 0 {
		languages = []string{"en"}
	}
	s := &WatchPageSource{
		watchURL:   defaultWatchURL,
		languages:  languages,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

type playerResponse struct {
	PlayabilityStatus struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
}

type timedText struct {
	XMLName xml.Name `xml:"transcript"`
	Lines   []struct {
		Start string `xml:"start,attr"`
		Dur   string `xml:"dur,attr"`
		Text  string `xml:",chardata"`
	} `xml:"text"`
}

func (s *WatchPageSource) GetTranscript(ctx context.Context, videoID string) ([]models.TranscriptEntry, error) {
	player, err := s.fetchPlayerResponse(ctx, videoID)
	if err != nil {
		return nil, err
	}

	if player.Captions == nil || len(player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks) == 0 {
		if reason := player.PlayabilityStatus.Reason; reason != "" {
			return nil, fmt.Errorf("%w: %s", ErrTranscriptsDisabled, reason)
		}
		return nil, ErrTranscriptsDisabled
	}

	track := pickTrack(player.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, s.languages)
	return s.fetchTimedText(ctx, track.BaseURL)
}

func (s *WatchPageSource) fetchPlayerResponse(ctx context.Context, videoID string) (*playerResponse, error) {
	u, err := url.Parse(s.watchURL)
	if err != nil {
		return nil, fmt.Errorf("invalid watch URL: %w", err)
	}
	q := u.Query()
	q.Set("v", videoID)
	u.RawQuery = q.Encode()

	body, err := s.get(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to load watch page: %w", err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse watch page: %w", err)
	}

	var player *playerResponse
	var decodeErr error
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		script := sel.Text()
		idx := strings.Index(script, playerResponseMarker)
		if idx < 0 {
			return true
		}
		start := strings.Index(script[idx:], "{")
		if start < 0 {
			return true
		}
		var pr playerResponse
		// Decode stops after the first JSON value, so trailing script is ignored.
		if err := json.NewDecoder(strings.NewReader(script[idx+start:])).Decode(&pr); err != nil {
			decodeErr = err
			return true
		}
		player = &pr
		return false
	})

	if player == nil {
		if decodeErr != nil {
			return nil, fmt.Errorf("failed to decode player response: %w", decodeErr)
		}
		return nil, fmt.Errorf("player response not found on watch page for %s", videoID)
	}
	return player, nil
}

func (s *WatchPageSource) fetchTimedText(ctx context.Context, trackURL string) ([]models.TranscriptEntry, error) {
	body, err := s.get(ctx, trackURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch timedtext: %w", err)
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, 4*1024*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read timedtext: %w", err)
	}

	var tt timedText
	if err := xml.Unmarshal(raw, &tt); err != nil {
		return nil, fmt.Errorf("failed to parse timedtext XML: %w", err)
	}

	entries := make([]models.TranscriptEntry, 0, len(tt.Lines))
	for _, line := range tt.Lines {
		start, _ := strconv.ParseFloat(line.Start, 64)
		dur, _ := strconv.ParseFloat(line.Dur, 64)
		entries = append(entries, models.TranscriptEntry{
			// Caption text arrives entity-escaped a second time inside the XML.
			Text:     strings.Join(strings.Fields(html.UnescapeString(line.Text)), " "),
			Start:    start,
			Duration: dur,
		})
	}
	return entries, nil
}

func (s *WatchPageSource) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, req.URL.Host)
	}
	return resp.Body, nil
}

// pickTrack prefers a manual track in a preferred language, then an
// auto-generated one, then any English track, then the first track.
func pickTrack(tracks []captionTrack, languages []string) captionTrack {
	for _, lang := range languages {
		for _, t := range tracks {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t
			}
		}
	}
	for _, lang := range languages {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t
			}
		}
	}
	for _, t := range tracks {
		if strings.HasPrefix(t.LanguageCode, "en") {
			return t
		}
	}
	return tracks[0]
}
