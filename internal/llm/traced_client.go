package llm

import (
	"context"
	"log/slog"
	"time"

	"briefgen/internal/cost"
)

// TextGenerator is anything that can answer a prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error)
}

// TracedClient wraps a TextGenerator and logs latency and estimated token
// usage for every call.
type TracedClient struct {
	next         TextGenerator
	defaultModel string
	log          *slog.Logger
}

// NewTracedClient creates a new traced LLM client
func NewTracedClient(next TextGenerator, defaultModel string, log *slog.Logger) *TracedClient {
	if log == nil {
		log = slog.Default()
	}
	return &TracedClient{
		next:         next,
		defaultModel: defaultModel,
		log:          log.With("component", "llm"),
	}
}

// GenerateText generates text with usage logging
func (tc *TracedClient) GenerateText(ctx context.Context, prompt string, options TextGenerationOptions) (string, error) {
	model := options.Model
	if model == "" {
		model = tc.defaultModel
	}

	startTime := time.Now()
	result, err := tc.next.GenerateText(ctx, prompt, options)
	latencyMs := time.Since(startTime).Milliseconds()

	if err != nil {
		tc.log.Error("LLM call failed", "model", model, "latency_ms", latencyMs, "error", err.Error())
		return "", err
	}

	usage := cost.EstimateCall(model, options.SystemInstruction+prompt, result)
	tc.log.Info("LLM call completed",
		"model", model,
		"latency_ms", latencyMs,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
		"estimated_cost_usd", usage.TotalCost,
		"structured", options.ResponseSchema != nil,
	)
	return result, nil
}
