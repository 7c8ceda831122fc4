package videokb

import (
	"context"
	"fmt"

	"video-kb/internal/models"
	"video-kb/shared/logger"
	"video-kb/shared/monitoring"
	"video-kb/shared/storage"
)

// Service is the entry point used by the HTTP API, the CLI and the watchlist agent.
type Service struct {
	pipeline *Pipeline
	answerer *Answerer
	store    storage.Store
	monitor  *monitoring.Monitor
	log      *logger.Logger
}

// NewService creates a service that records every outcome on monitor.
func NewService(pipeline *Pipeline, answerer *Answerer, store storage.Store, monitor *monitoring.Monitor, log *logger.Logger) *Service {
	return &Service{
		pipeline: pipeline,
		answerer: answerer,
		store:    store,
		monitor:  monitor,
		log:      log,
	}
}

// Ingest runs the pipeline for url and counts the outcome.
func (s *Service) Ingest(ctx context.Context, url string) (*IngestResult, error) {
	result, err := s.pipeline.Ingest(ctx, url)
	switch {
	case result != nil:
		s.monitor.RecordIngest(string(result.Status))
	case err != nil:
		s.monitor.RecordIngest(monitoring.OutcomeFailed)
	}
	return result, err
}

// Answer answers question from every stored summary.
func (s *Service) Answer(ctx context.Context, question string) (*Answer, error) {
	return s.answerer.Answer(ctx, question)
}

// ListVideos returns the id and title of every stored video in insertion order.
func (s *Service) ListVideos(ctx context.Context) ([]models.VideoSummary, error) {
	videos, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}

	out := make([]models.VideoSummary, 0, len(videos))
	for _, v := range videos {
		out = append(out, models.VideoSummary{ID: v.ID, Title: v.Title})
	}
	return out, nil
}

// DeleteVideo reports false when no video has the given id.
func (s *Service) DeleteVideo(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		s.log.Info("Video deleted", "id", id)
	}
	return deleted, nil
}
