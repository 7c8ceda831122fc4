package ai

import (
	"context"
	"fmt"

	"video-kb/shared/config"
	"video-kb/shared/logger"

	"google.golang.org/genai"
)

// GeminiClient completes prompts against the Gemini API.
type GeminiClient struct {
	client *genai.Client
	model  string
	log    *logger.Logger
}

// NewGeminiClient creates a Gemini client. A non-empty BaseURL replaces the
// public API endpoint.
func NewGeminiClient(ctx context.Context, cfg *config.LLMConfig, log *logger.Logger) (*GeminiClient, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  cfg.Model,
		log:    log,
	}, nil
}

// Complete sends a single-turn prompt and returns the model's text.
func (g *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}

	contents := []*genai.Content{
		genai.NewContentFromText(req.User, genai.RoleUser),
	}

	genConfig := &genai.GenerateContentConfig{}
	if req.System != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.MaxTokens)
		// Thinking tokens count against MaxOutputTokens on 2.5 models.
		genConfig.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)}
	}

	result, err := g.client.Models.GenerateContent(ctx, model, contents, genConfig)
	if err != nil {
		return "", fmt.Errorf("failed to generate content with %s: %w", model, err)
	}

	text := result.Text()
	if text == "" {
		// Usually content filtering or a MAX_TOKENS stop before any text.
		g.log.Warn("Empty response from Gemini", "model", model)
		return "", fmt.Errorf("empty response from %s", model)
	}
	return text, nil
}
