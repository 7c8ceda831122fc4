package videokb

import (
	"context"
	"fmt"
	"time"

	"video-kb/internal/models"
	"video-kb/shared/logger"
	"video-kb/shared/scheduler"
)

// DigestSender mails the result of a watchlist run.
type DigestSender interface {
	SendDigest(digest *models.IngestDigest) error
}

// WatchlistMetrics implements scheduler.Metrics
type WatchlistMetrics struct {
	Total         int
	Created       int
	Duplicates    int
	Unprocessable int
	Failed        int
}

func (m WatchlistMetrics) GetSummary() string {
	return fmt.Sprintf("checked %d urls, added %d, %d already stored, %d without transcript, %d failed",
		m.Total, m.Created, m.Duplicates, m.Unprocessable, m.Failed)
}

// WatchlistAgent ingests a fixed list of video URLs on every scheduled run.
// Already stored videos come back as duplicates, so reruns are cheap.
type WatchlistAgent struct {
	service *Service
	urls    []string
	sender  DigestSender
	log     *logger.Logger
}

// NewWatchlistAgent builds the agent. sender may be nil to disable digests.
func NewWatchlistAgent(service *Service, urls []string, sender DigestSender, log *logger.Logger) *WatchlistAgent {
	return &WatchlistAgent{
		service: service,
		urls:    urls,
		sender:  sender,
		log:     log,
	}
}

func (w *WatchlistAgent) Name() string {
	return "Video Watchlist"
}

func (w *WatchlistAgent) Initialize() error {
	if len(w.urls) == 0 {
		return fmt.Errorf("watchlist has no urls (set watchlist.urls)")
	}
	w.log.Info("Watchlist initialized", "urls", len(w.urls), "digest", w.sender != nil)
	return nil
}

func (w *WatchlistAgent) RunOnce(ctx context.Context, events *scheduler.AgentEvents) error {
	startTime := time.Now()
	metrics := WatchlistMetrics{Total: len(w.urls)}
	digest := &models.IngestDigest{Date: startTime}

	for i, url := range w.urls {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("watchlist run interrupted: %w", err)
		}

		result, err := w.service.Ingest(ctx, url)
		if result != nil {
			switch result.Status {
			case StatusCreated:
				metrics.Created++
				digest.Created = append(digest.Created, result.Video)
			case StatusDuplicate:
				metrics.Duplicates++
			case StatusUnprocessable:
				metrics.Unprocessable++
			}
		}
		if err != nil {
			if result == nil {
				metrics.Failed++
			}
			events.OnPartialFailure(fmt.Errorf("ingest %s: %w", url, err), time.Since(startTime))
			if metrics.Failed > len(w.urls)/2 {
				return fmt.Errorf("too many ingestion failures (%d/%d), stopping", metrics.Failed, i+1)
			}
		}
	}

	digest.Duplicates = metrics.Duplicates
	digest.Unprocessable = metrics.Unprocessable
	digest.Failed = metrics.Failed

	if w.sender != nil && len(digest.Created) > 0 {
		if err := w.sender.SendDigest(digest); err != nil {
			events.OnPartialFailure(fmt.Errorf("failed to send digest: %w", err), time.Since(startTime))
		} else {
			w.log.Info("Digest email sent", "videos", len(digest.Created))
		}
	}

	events.OnSuccess(metrics, time.Since(startTime))
	return nil
}
