package youtube

import (
	"context"
	"errors"
	"fmt"
	"os"

	"video-kb/shared/config"
	"video-kb/shared/logger"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

// ErrTitleLookupFailed covers every failure of the video metadata service.
var ErrTitleLookupFailed = errors.New("title lookup failed")

// TitleLookup resolves a video identifier to its human-readable title.
type TitleLookup interface {
	Title(ctx context.Context, videoID string) (string, error)
}

// MetadataClient looks titles up through the YouTube Data API v3.
type MetadataClient struct {
	service *yt.Service
	log     *logger.Logger
}

// NewMetadataClient authenticates with the configured API key, or with a saved
// OAuth token when only client credentials are set. Extra options are appended
// after the credentials.
func NewMetadataClient(ctx context.Context, cfg *config.YouTubeConfig, log *logger.Logger, opts ...option.ClientOption) (*MetadataClient, error) {
	var clientOpts []option.ClientOption
	switch {
	case cfg.APIKey != "":
		clientOpts = append(clientOpts, option.WithAPIKey(cfg.APIKey))
	case cfg.ClientID != "" && cfg.ClientSecret != "":
		oauthConfig := newOAuthConfig(cfg)
		tok, err := tokenFromFile(cfg.TokenFile)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("no OAuth token at %s (run the auth command first)", cfg.TokenFile)
			}
			return nil, fmt.Errorf("failed to load OAuth token: %w", err)
		}
		ts := &tokenSaver{config: oauthConfig, token: tok, tokenFile: cfg.TokenFile, log: log}
		clientOpts = append(clientOpts, option.WithHTTPClient(oauth2.NewClient(ctx, ts)))
	default:
		return nil, fmt.Errorf("YouTube credentials are required (set YOUTUBE_API_KEY or GOOGLE_CLIENT_ID/GOOGLE_CLIENT_SECRET)")
	}

	service, err := yt.NewService(ctx, append(clientOpts, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &MetadataClient{service: service, log: log}, nil
}

func (c *MetadataClient) Title(ctx context.Context, videoID string) (string, error) {
	resp, err := c.service.Videos.List([]string{"snippet"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTitleLookupFailed, err)
	}

	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil || resp.Items[0].Snippet.Title == "" {
		return "", fmt.Errorf("%w: video %s not found", ErrTitleLookupFailed, videoID)
	}

	return resp.Items[0].Snippet.Title, nil
}

type noTitles struct{}

func (noTitles) Title(context.Context, string) (string, error) {
	return "", fmt.Errorf("%w: no YouTube credentials configured", ErrTitleLookupFailed)
}

// NoTitles is a TitleLookup that always fails. It stands in when the Data API
// is not configured.
var NoTitles TitleLookup = noTitles{}
