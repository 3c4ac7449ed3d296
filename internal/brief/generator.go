// Package brief generates and validates content briefs.
package brief

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"briefgen/internal/core"
	"briefgen/internal/fetch"
	"briefgen/internal/llm"
	"briefgen/internal/logger"
	"briefgen/internal/parser"
	"briefgen/internal/respond"
)

// DefaultScrapedSource names ingested content that arrived without a URL.
const DefaultScrapedSource = "scraped-content"

// LLMClient defines the interface for LLM operations
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error)
}

// Ingester adds source material to the retrieval index.
type Ingester interface {
	Ingest(ctx context.Context, source, text string) (int, error)
}

// Options tunes brief generation.
type Options struct {
	Model        string
	Temperature  float32
	MaxTokens    int32
	ExcerptLimit int // Characters of scraped content quoted in the prompt
}

// Generator produces briefs with a single model call.
type Generator struct {
	llm   LLMClient
	index Ingester
	opts  Options
	log   *slog.Logger
}

// NewGenerator creates a brief generator. index may be nil, in which case
// scraped content is only quoted, never ingested.
func NewGenerator(client LLMClient, index Ingester, opts Options, log *slog.Logger) *Generator {
	if opts.ExcerptLimit <= 0 {
		opts.ExcerptLimit = 2000
	}
	if log == nil {
		log = logger.Get()
	}
	return &Generator{
		llm:   client,
		index: index,
		opts:  opts,
		log:   log.With("component", "brief"),
	}
}

// Generate builds a brief for req. Scraped content, when present, is first
// ingested into the index under the normalized req.SourceURL (or
// DefaultScrapedSource).
func (g *Generator) Generate(ctx context.Context, req core.BriefRequest) (core.Brief, error) {
	req = req.WithDefaults()
	if strings.TrimSpace(req.Keyword) == "" {
		return core.Brief{}, fmt.Errorf("%w: keyword is required", core.ErrInvalidRequest)
	}

	var excerpt string
	if strings.TrimSpace(req.ScrapedContent) != "" {
		if g.index != nil {
			source := DefaultScrapedSource
			if req.SourceURL != "" {
				source = parser.NormalizeURL(req.SourceURL)
			}
			n, err := g.index.Ingest(ctx, source, req.ScrapedContent)
			if err != nil {
				return core.Brief{}, fmt.Errorf("failed to index scraped content: %w", err)
			}
			g.log.Info("Indexed scraped content for brief", "source", source, "chunks", n)
		}
		excerpt = fetch.Truncate(strings.TrimSpace(req.ScrapedContent), g.opts.ExcerptLimit)
	}

	response, err := g.llm.GenerateText(ctx, BuildBriefPrompt(req, excerpt), llm.TextGenerationOptions{
		Model:             g.opts.Model,
		Temperature:       g.opts.Temperature,
		MaxTokens:         g.opts.MaxTokens,
		SystemInstruction: SystemInstruction,
		ResponseSchema:    CreateBriefSchema(),
	})
	if err != nil {
		return core.Brief{}, fmt.Errorf("brief generation failed: %w", err)
	}

	data, err := respond.DecodeObject(response)
	if err != nil {
		return core.Brief{}, fmt.Errorf("failed to parse brief: %w", err)
	}

	brief, err := Validate(data)
	if err != nil {
		return core.Brief{}, fmt.Errorf("invalid brief: %w", err)
	}

	g.log.Info("Generated brief", "keyword", req.Keyword, "title", brief.Title, "sections", len(brief.Outline))
	return brief, nil
}
