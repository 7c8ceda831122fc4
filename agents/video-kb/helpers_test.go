package videokb

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"video-kb/internal/models"
	"video-kb/shared/ai"
	"video-kb/shared/logger"
	"video-kb/shared/monitoring"
	"video-kb/shared/storage"
)

type fakeFetcher struct {
	mu         sync.Mutex
	transcript string
	err        error
	calls      int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.transcript, f.err
}

type fakeSummarizer struct {
	summary string
	err     error
	calls   int
	words   int
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ string, targetWords int) (string, error) {
	f.calls++
	f.words = targetWords
	return f.summary, f.err
}

type fakeTitles struct {
	title string
	err   error
	calls int
}

func (f *fakeTitles) Title(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.title, f.err
}

type fakeCompleter struct {
	response string
	err      error
	calls    int
	last     ai.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req ai.CompletionRequest) (string, error) {
	f.calls++
	f.last = req
	return f.response, f.err
}

// racyStore never finds anything and reports every insert as a duplicate.
type racyStore struct {
	storage.Store
	findErr error
}

func (r *racyStore) FindByIdentifier(context.Context, string) (*models.Video, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	return nil, storage.ErrNotFound
}

func (r *racyStore) Insert(context.Context, *models.Video) error {
	return storage.ErrAlreadyExists
}

func newTestStore(t *testing.T) storage.Store {
	t.Helper()
	s, err := storage.NewFileStore(filepath.Join(t.TempDir(), "videos.json"), logger.Nop())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

type testDeps struct {
	fetcher    *fakeFetcher
	summarizer *fakeSummarizer
	titles     *fakeTitles
	completer  *fakeCompleter
	store      storage.Store
	monitor    *monitoring.Monitor
}

func newTestDeps(t *testing.T) *testDeps {
	return &testDeps{
		fetcher:    &fakeFetcher{transcript: "never gonna give you up never gonna let you down"},
		summarizer: &fakeSummarizer{summary: "A song about commitment."},
		titles:     &fakeTitles{title: "Rick Astley - Never Gonna Give You Up"},
		completer:  &fakeCompleter{response: "It is about commitment."},
		store:      newTestStore(t),
		monitor:    monitoring.NewMonitor(logger.Nop()),
	}
}

func (d *testDeps) pipeline() *Pipeline {
	return NewPipeline(d.fetcher, d.summarizer, d.titles, d.store, PipelineConfig{}, logger.Nop())
}

func (d *testDeps) service(answerCfg AnswerConfig) *Service {
	answerer := NewAnswerer(d.store, d.completer, answerCfg, logger.Nop())
	return NewService(d.pipeline(), answerer, d.store, d.monitor, logger.Nop())
}

func insertVideo(t *testing.T, s storage.Store, identifier, title, summary string) *models.Video {
	t.Helper()
	v := &models.Video{Identifier: identifier, Title: title, Transcript: "transcript", Summary: summary, Chunks: []string{summary}}
	if err := s.Insert(context.Background(), v); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	return v
}
