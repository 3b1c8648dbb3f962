package openai

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/resumatch/ai"
	"github.com/poiesic/resumatch/core"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// Completer implements ai.Completer using OpenAI-compatible chat APIs.
type Completer struct {
	client    llms.Model
	model     string
	maxTokens int
	limiter   *rate.Limiter
	logger    *slog.Logger
}

var _ ai.Completer = (*Completer)(nil)

// newCompleter is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newCompleter(config *ai.Config, limiter *rate.Limiter) (*Completer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.CompletionModel),
	)
	if err != nil {
		return nil, err
	}
	return newCompleterWithClient(client, config.CompletionModel, config.MaxOutputTokens, limiter), nil
}

func newCompleterWithClient(client llms.Model, model string, maxTokens int, limiter *rate.Limiter) *Completer {
	return &Completer{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		limiter:   limiter,
		logger:    slog.Default().With("component", "openai-completer", "model", model),
	}
}

// NewCompleter creates a new completer using the provided configuration.
//
// Returns ai.Completer interface to enforce abstraction.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config, newLimiter(config.RequestsPerSecond, config.Burst))
}

// ModelID returns the completion model name.
func (c *Completer) ModelID() string {
	return c.model
}

// Complete runs one chat completion and returns the raw text of the first
// choice.
func (c *Completer) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	if err := wait(ctx, c.limiter); err != nil {
		return "", err
	}

	var content []llms.MessageContent
	if req.System != "" {
		content = append(content, llms.MessageContent{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(sanitize(req.System))},
		})
	}
	content = append(content, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextPart(sanitize(req.Prompt))},
	})

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}
	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if maxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(maxTokens))
	}
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}

	response, err := c.client.GenerateContent(ctx, content, opts...)
	if err != nil {
		c.logger.Error("failed to generate content", "err", err)
		return "", fmt.Errorf("%w: %w", core.ErrCompletionService, err)
	}
	if len(response.Choices) < 1 {
		c.logger.Debug("no choices returned from model")
		return "", fmt.Errorf("%w: no choices returned", core.ErrCompletionService)
	}

	text := response.Choices[0].Content
	c.logger.Debug("completion finished", "length", len(text))
	return text, nil
}
