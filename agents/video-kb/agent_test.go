package videokb

import (
	"context"
	"errors"
	"testing"
	"time"

	"video-kb/internal/models"
	"video-kb/shared/logger"
	"video-kb/shared/monitoring"
	"video-kb/shared/scheduler"
)

type fakeSender struct {
	digests []*models.IngestDigest
	err     error
}

func (f *fakeSender) SendDigest(d *models.IngestDigest) error {
	f.digests = append(f.digests, d)
	return f.err
}

type recordedEvents struct {
	successes []scheduler.Metrics
	partial   []error
}

func (r *recordedEvents) events() *scheduler.AgentEvents {
	return &scheduler.AgentEvents{
		OnSuccess:         func(m scheduler.Metrics, _ time.Duration) { r.successes = append(r.successes, m) },
		OnPartialFailure:  func(err error, _ time.Duration) { r.partial = append(r.partial, err) },
		OnCriticalFailure: func(error, time.Duration) {},
	}
}

func TestWatchlistAgentName(t *testing.T) {
	agent := NewWatchlistAgent(nil, nil, nil, logger.Nop())
	if name := agent.Name(); name != "Video Watchlist" {
		t.Errorf("Name() = %s", name)
	}
	if err := agent.Initialize(); err == nil {
		t.Error("Initialize() expected error for empty watchlist")
	}
}

func TestWatchlistMetricsGetSummary(t *testing.T) {
	tests := []struct {
		name     string
		metrics  WatchlistMetrics
		expected string
	}{
		{
			name:     "All zeros",
			metrics:  WatchlistMetrics{},
			expected: "checked 0 urls, added 0, 0 already stored, 0 without transcript, 0 failed",
		},
		{
			name:     "Mixed run",
			metrics:  WatchlistMetrics{Total: 5, Created: 2, Duplicates: 1, Unprocessable: 1, Failed: 1},
			expected: "checked 5 urls, added 2, 1 already stored, 1 without transcript, 1 failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.metrics.GetSummary(); got != tt.expected {
				t.Errorf("GetSummary() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestWatchlistRunOnce(t *testing.T) {
	d := newTestDeps(t)
	insertVideo(t, d.store, "known", "Known", "already here")
	sender := &fakeSender{}

	urls := []string{
		"https://youtu.be/new1",
		"https://www.youtube.com/watch?v=known",
		"https://vimeo.com/1",
		"https://youtu.be/new2",
	}
	agent := NewWatchlistAgent(d.service(AnswerConfig{}), urls, sender, logger.Nop())
	if err := agent.Initialize(); err != nil {
		t.Fatal(err)
	}

	rec := &recordedEvents{}
	if err := agent.RunOnce(context.Background(), rec.events()); err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}

	if len(rec.successes) != 1 {
		t.Fatalf("OnSuccess called %d times", len(rec.successes))
	}
	metrics := rec.successes[0].(WatchlistMetrics)
	want := WatchlistMetrics{Total: 4, Created: 2, Duplicates: 1, Failed: 1}
	if metrics != want {
		t.Errorf("metrics = %+v, want %+v", metrics, want)
	}
	if len(rec.partial) != 1 {
		t.Errorf("partial failures = %v", rec.partial)
	}

	if len(sender.digests) != 1 || len(sender.digests[0].Created) != 2 || sender.digests[0].Duplicates != 1 {
		t.Fatalf("digests = %+v", sender.digests)
	}
	if sender.digests[0].Created[0].Identifier != "new1" {
		t.Errorf("digest order = %s first", sender.digests[0].Created[0].Identifier)
	}

	// A rerun only finds duplicates and sends nothing.
	rec = &recordedEvents{}
	d.fetcher.calls = 0
	if err := agent.RunOnce(context.Background(), rec.events()); err != nil {
		t.Fatal(err)
	}
	if d.fetcher.calls != 0 || len(sender.digests) != 1 {
		t.Errorf("rerun fetched %d transcripts and sent %d digests", d.fetcher.calls, len(sender.digests))
	}
}

func TestWatchlistDigestFailureIsPartial(t *testing.T) {
	d := newTestDeps(t)
	sender := &fakeSender{err: errors.New("smtp down")}
	agent := NewWatchlistAgent(d.service(AnswerConfig{}), []string{"https://youtu.be/x"}, sender, logger.Nop())

	rec := &recordedEvents{}
	if err := agent.RunOnce(context.Background(), rec.events()); err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}
	if len(rec.partial) != 1 || len(rec.successes) != 1 {
		t.Errorf("partial=%v successes=%d", rec.partial, len(rec.successes))
	}
}

func TestWatchlistTooManyFailures(t *testing.T) {
	d := newTestDeps(t)
	agent := NewWatchlistAgent(d.service(AnswerConfig{}), []string{"bad-1", "bad-2", "https://youtu.be/ok"}, nil, logger.Nop())

	rec := &recordedEvents{}
	if err := agent.RunOnce(context.Background(), rec.events()); err == nil {
		t.Error("RunOnce() expected error when most urls fail")
	}
	if len(rec.successes) != 0 {
		t.Error("OnSuccess called for an aborted run")
	}
}

func TestWatchlistWithScheduler(t *testing.T) {
	d := newTestDeps(t)
	monitor := monitoring.NewMonitor(logger.Nop())
	agent := NewWatchlistAgent(d.service(AnswerConfig{}), []string{"https://youtu.be/sched"}, nil, logger.Nop())

	s := scheduler.New("0 0 * * * *", agent, monitor, logger.Nop())
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error: %v", err)
	}
	status := monitor.Snapshot()
	if !status.Healthy || status.LastSummary != "checked 1 urls, added 1, 0 already stored, 0 without transcript, 0 failed" {
		t.Errorf("status = %+v", status)
	}
}
