package ai

import (
	"context"
	"fmt"

	"video-kb/shared/config"
	"video-kb/shared/logger"
)

// CompletionRequest is a single system+user exchange with a bounded output budget.
type CompletionRequest struct {
	System    string
	User      string
	Model     string // empty selects the client's configured model
	MaxTokens int
}

// Completer is a language-model completion endpoint.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// NewCompleter builds the completion client selected by cfg.LLM.Provider.
func NewCompleter(ctx context.Context, cfg *config.LLMConfig, log *logger.Logger) (Completer, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg, log)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
