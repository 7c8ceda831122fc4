package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	videokb "video-kb/agents/video-kb"
	"video-kb/shared/ai"
	"video-kb/shared/config"
	"video-kb/shared/email"
	"video-kb/shared/logger"
	"video-kb/shared/monitoring"
	"video-kb/shared/scheduler"
	"video-kb/shared/storage"
	"video-kb/shared/youtube"

	"github.com/fatih/color"
	"github.com/gin-gonic/gin"
)

var (
	success = color.New(color.FgGreen, color.Bold)
	warn    = color.New(color.FgYellow)
	failure = color.New(color.FgRed, color.Bold)
	heading = color.New(color.FgCyan, color.Bold)
)

type app struct {
	cfg     *config.Config
	store   storage.Store
	service *videokb.Service
	monitor *monitoring.Monitor
	log     *logger.Logger
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		failure.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		failure.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	c := &cli{cfg: cfg}
	c.open = func(ctx context.Context) (*app, error) {
		return newApp(ctx, cfg, log)
	}
	if err := newRootCmd(c).ExecuteContext(ctx); err != nil {
		failure.Fprintf(os.Stderr, "Error: %v\n", err)
		log.Sync()
		os.Exit(1)
	}
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	store, err := storage.Open(ctx, &cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	completer, err := ai.NewCompleter(ctx, &cfg.LLM, log)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to create completer: %w", err)
	}

	var titles youtube.TitleLookup
	metadata, err := youtube.NewMetadataClient(ctx, &cfg.YouTube, log)
	if err != nil {
		log.Warn("Title lookup disabled, new videos will be stored as untitled", "reason", err)
		titles = youtube.NoTitles
	} else {
		titles = metadata
	}

	transcripts := youtube.NewTranscriptFetcher(youtube.NewWatchPageSource(cfg.YouTube.Languages), log)
	pipeline := videokb.NewPipeline(
		transcripts,
		ai.NewSummarizer(completer, cfg.LLM.Model),
		titles,
		store,
		videokb.PipelineConfig{TargetWords: cfg.Summarizer.TargetWords, ChunkWords: cfg.Summarizer.ChunkWords},
		log,
	)
	answerer := videokb.NewAnswerer(store, completer, videokb.AnswerConfig{
		Model:          cfg.LLM.Model,
		MaxTokens:      cfg.Answer.MaxTokens,
		RenderMarkdown: cfg.Answer.RenderMarkdown,
	}, log)

	monitor := monitoring.NewMonitor(log)
	return &app{
		cfg:     cfg,
		store:   store,
		service: videokb.NewService(pipeline, answerer, store, monitor, log),
		monitor: monitor,
		log:     log,
	}, nil
}

func (a *app) watchlist() (*videokb.WatchlistAgent, *scheduler.Scheduler) {
	var sender videokb.DigestSender
	if a.cfg.Email.Enabled() {
		sender = email.NewSender(&a.cfg.Email)
	}
	agent := videokb.NewWatchlistAgent(a.service, a.cfg.Watchlist.URLs, sender, a.log)
	return agent, scheduler.New(a.cfg.Watchlist.Schedule, agent, a.monitor, a.log)
}

func (a *app) serve(ctx context.Context) error {
	if a.cfg.Log.Mode == "prod" || a.cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	api := videokb.NewAPI(a.service, a.monitor, a.log)

	errCh := make(chan error, 2)
	go func() { errCh <- api.Run(ctx, a.cfg.Server.Port) }()

	running := 1
	if len(a.cfg.Watchlist.URLs) > 0 {
		_, s := a.watchlist()
		running++
		go func() {
			if err := s.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- err
				return
			}
			errCh <- nil
		}()
	} else {
		a.log.Info("Watchlist empty, scheduler not started")
	}

	var firstErr error
	for i := 0; i < running; i++ {
		if err := <-errCh; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *app) runWatchlistOnce(ctx context.Context) error {
	agent, s := a.watchlist()
	if err := agent.Initialize(); err != nil {
		return err
	}
	heading.Println("Running watchlist once...")
	if err := s.RunOnce(ctx); err != nil {
		return err
	}
	success.Println(a.monitor.Snapshot().LastSummary)
	return nil
}

func (a *app) add(ctx context.Context, url string) error {
	result, err := a.service.Ingest(ctx, url)
	if result != nil {
		switch result.Status {
		case videokb.StatusCreated:
			success.Printf("Added #%d: %s\n", result.Video.ID, result.Title)
			return nil
		case videokb.StatusDuplicate:
			warn.Printf("Already stored: %s\n", result.Title)
			return nil
		case videokb.StatusUnprocessable:
			warn.Println("Couldn't retrieve or process transcript")
		}
	}
	return err
}

func (a *app) ask(ctx context.Context, question string) error {
	answer, err := a.service.Answer(ctx, question)
	if err != nil {
		return err
	}
	if answer.NoVideos {
		warn.Println(answer.Text)
		return nil
	}
	heading.Printf("Answer (from %d videos)\n", answer.Sources)
	fmt.Println(answer.Text)
	return nil
}

func (a *app) list(ctx context.Context) error {
	videos, err := a.service.ListVideos(ctx)
	if err != nil {
		return err
	}
	if len(videos) == 0 {
		warn.Println("No videos stored yet")
		return nil
	}
	heading.Printf("%d videos\n", len(videos))
	for _, v := range videos {
		fmt.Printf("%5d  %s\n", v.ID, v.Title)
	}
	return nil
}

func (a *app) delete(ctx context.Context, id int64) error {
	deleted, err := a.service.DeleteVideo(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return fmt.Errorf("video %d not found", id)
	}
	success.Printf("Deleted video %d\n", id)
	return nil
}
