package videokb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"video-kb/shared/ai"
	"video-kb/shared/logger"
	"video-kb/shared/storage"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// NoVideosAnswer is returned without a model call when the store is empty.
const NoVideosAnswer = "There are no videos in the database to answer questions from."

const answerSystemPrompt = "You are a helpful assistant that answers questions by analyzing and comparing " +
	"multiple YouTube video summaries. Each summary is labeled with its video title. " +
	"Draw on every relevant video, point out where they agree or differ, and say which video a point comes from."

var (
	ErrAnswerGenerationFailed = errors.New("answer generation failed")
	ErrEmptyQuestion          = errors.New("question must not be empty")
)

// Answer is a generated reply and the number of summaries it drew on.
type Answer struct {
	Text     string
	HTML     string
	NoVideos bool
	// Sources is the number of summaries given to the model.
	Sources int
}

type AnswerConfig struct {
	Model          string
	MaxTokens      int
	RenderMarkdown bool
}

// Answerer answers questions from every stored summary.
type Answerer struct {
	store     storage.Store
	completer ai.Completer
	cfg       AnswerConfig
	markdown  goldmark.Markdown
	log       *logger.Logger
}

// NewAnswerer creates an answerer. MaxTokens defaults to 500.
func NewAnswerer(store storage.Store, completer ai.Completer, cfg AnswerConfig, log *logger.Logger) *Answerer {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	return &Answerer{
		store:     store,
		completer: completer,
		cfg:       cfg,
		markdown:  goldmark.New(goldmark.WithExtensions(extension.GFM)),
		log:       log,
	}
}

func (a *Answerer) Answer(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	videos, err := a.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load summaries: %w", err)
	}
	if len(videos) == 0 {
		return &Answer{Text: NoVideosAnswer, NoVideos: true}, nil
	}

	blocks := make([]string, 0, len(videos))
	for _, v := range videos {
		blocks = append(blocks, fmt.Sprintf("Video: %s\nSummary: %s", v.Title, v.Summary))
	}
	prompt := buildAnswerPrompt(blocks, question)

	text, err := a.completer.Complete(ctx, ai.CompletionRequest{
		System:    answerSystemPrompt,
		User:      prompt,
		Model:     a.cfg.Model,
		MaxTokens: a.cfg.MaxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnswerGenerationFailed, err)
	}

	answer := &Answer{Text: text, Sources: len(videos)}
	if a.cfg.RenderMarkdown {
		var buf bytes.Buffer
		if err := a.markdown.Convert([]byte(text), &buf); err != nil {
			a.log.Warn("Failed to render answer markdown", "error", err)
		} else {
			answer.HTML = buf.String()
		}
	}

	a.log.Info("Question answered", "sources", len(videos), "chars", len(text))
	return answer, nil
}

func buildAnswerPrompt(blocks []string, question string) string {
	return strings.Join(blocks, "\n\n") + "\n\nQuestion: " + question + "\n\nAnswer:"
}
