package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	DefaultTargetWords = 1000
	DefaultChunkWords  = 500

	summarizeSystemPrompt = "You are a helpful assistant that summarizes text."
)

// ErrSummarizationFailed wraps any failure of the summary completion call.
var ErrSummarizationFailed = errors.New("summarization failed")

type Summarizer struct {
	completer Completer
	model     string
}

// NewSummarizer returns a Summarizer using completer. An empty model uses the
// completer's default.
func NewSummarizer(completer Completer, model string) *Summarizer {
	return &Summarizer{completer: completer, model: model}
}

// Summarize condenses text to about targetWords words. The output token budget
// equals targetWords.
func (s *Summarizer) Summarize(ctx context.Context, text string, targetWords int) (string, error) {
	if targetWords <= 0 {
		targetWords = DefaultTargetWords
	}

	summary, err := s.completer.Complete(ctx, CompletionRequest{
		System:    summarizeSystemPrompt,
		User:      fmt.Sprintf("Summarize the following text in about %d words:\n\n%s", targetWords, text),
		Model:     s.model,
		MaxTokens: targetWords,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSummarizationFailed, err)
	}
	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("%w: empty summary", ErrSummarizationFailed)
	}
	return summary, nil
}

// Chunk splits text on whitespace and groups the words into segments of
// chunkWords words. Only the last segment may be shorter.
func Chunk(text string, chunkWords int) []string {
	if chunkWords <= 0 {
		chunkWords = DefaultChunkWords
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	chunks := make([]string, 0, (len(words)+chunkWords-1)/chunkWords)
	for i := 0; i < len(words); i += chunkWords {
		end := i + chunkWords
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
	}
	return chunks
}
