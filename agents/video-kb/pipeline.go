package videokb

import (
	"context"
	"errors"
	"fmt"

	"video-kb/internal/models"
	"video-kb/shared/ai"
	"video-kb/shared/logger"
	"video-kb/shared/storage"
	"video-kb/shared/youtube"
)

// Stage names a step of the ingestion pipeline.
type Stage string

const (
	StageResolvingID        Stage = "RESOLVING_ID"
	StageCheckingDuplicate  Stage = "CHECKING_DUPLICATE"
	StageFetchingTranscript Stage = "FETCHING_TRANSCRIPT"
	StageSummarizing        Stage = "SUMMARIZING"
	StageChunking           Stage = "CHUNKING"
	StageFetchingTitle      Stage = "FETCHING_TITLE"
	StagePersisting         Stage = "PERSISTING"
	StageDone               Stage = "DONE"
)

type IngestStatus string

const (
	StatusCreated       IngestStatus = "created"
	StatusDuplicate     IngestStatus = "duplicate"
	StatusUnprocessable IngestStatus = "unprocessable"
)

// IngestResult is the outcome of one Ingest call. Stage is the stage the
// pipeline stopped at.
type IngestResult struct {
	Status     IngestStatus
	Identifier string
	Title      string
	Stage      Stage
	Video      *models.Video
}

// StageError reports the pipeline stage at which an ingestion failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("ingest failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// TranscriptFetcher returns the plain-text transcript of a video.
type TranscriptFetcher interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, text string, targetWords int) (string, error)
}

type PipelineConfig struct {
	TargetWords int
	ChunkWords  int
}

// Pipeline turns a video URL into a stored knowledge-base record.
type Pipeline struct {
	transcripts TranscriptFetcher
	summarizer  Summarizer
	titles      youtube.TitleLookup
	store       storage.Store
	cfg         PipelineConfig
	log         *logger.Logger
}

// NewPipeline creates a pipeline. Zero values in cfg fall back to the
// summarizer defaults.
func NewPipeline(transcripts TranscriptFetcher, summarizer Summarizer, titles youtube.TitleLookup,
	store storage.Store, cfg PipelineConfig, log *logger.Logger) *Pipeline {
	if cfg.TargetWords <= 0 {
		cfg.TargetWords = ai.DefaultTargetWords
	}
	if cfg.ChunkWords <= 0 {
		cfg.ChunkWords = ai.DefaultChunkWords
	}
	return &Pipeline{
		transcripts: transcripts,
		summarizer:  summarizer,
		titles:      titles,
		store:       store,
		cfg:         cfg,
		log:         log,
	}
}

// Ingest runs the pipeline for url. A video without a transcript is an
// expected outcome: it yields StatusUnprocessable and a nil error. A failed
// summary yields StatusUnprocessable together with a *StageError, and nothing
// is stored.
func (p *Pipeline) Ingest(ctx context.Context, url string) (*IngestResult, error) {
	id, err := youtube.ExtractIdentifier(url)
	if err != nil {
		return nil, &StageError{Stage: StageResolvingID, Err: err}
	}
	log := p.log.With("video_id", id)

	existing, err := p.store.FindByIdentifier(ctx, id)
	switch {
	case err == nil:
		log.Info("Video already in knowledge base", "id", existing.ID)
		return &IngestResult{Status: StatusDuplicate, Identifier: id, Title: existing.Title, Stage: StageCheckingDuplicate, Video: existing}, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, &StageError{Stage: StageCheckingDuplicate, Err: err}
	}

	transcript, err := p.transcripts.Fetch(ctx, id)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &StageError{Stage: StageFetchingTranscript, Err: ctxErr}
		}
		log.Info("No transcript available", "reason", err)
		return &IngestResult{Status: StatusUnprocessable, Identifier: id, Stage: StageFetchingTranscript}, nil
	}

	summary, err := p.summarizer.Summarize(ctx, transcript, p.cfg.TargetWords)
	if err != nil {
		log.Error("Summarization failed", "error", err)
		return &IngestResult{Status: StatusUnprocessable, Identifier: id, Stage: StageSummarizing},
			&StageError{Stage: StageSummarizing, Err: err}
	}

	chunks := ai.Chunk(summary, p.cfg.ChunkWords)

	title, err := p.titles.Title(ctx, id)
	if err != nil {
		log.Warn("Title lookup failed, using placeholder", "error", err)
		title = models.TitleUnavailable
	}

	video := &models.Video{
		Identifier: id,
		Title:      title,
		Transcript: transcript,
		Summary:    summary,
		Chunks:     chunks,
	}
	if err := p.store.Insert(ctx, video); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			// Another request stored the same video after our duplicate check.
			log.Info("Video stored concurrently, reporting duplicate")
			return &IngestResult{Status: StatusDuplicate, Identifier: id, Title: title, Stage: StagePersisting}, nil
		}
		return nil, &StageError{Stage: StagePersisting, Err: err}
	}

	log.Info("Video added", "id", video.ID, "title", title, "chunks", len(chunks))
	return &IngestResult{Status: StatusCreated, Identifier: id, Title: title, Stage: StageDone, Video: video}, nil
}
