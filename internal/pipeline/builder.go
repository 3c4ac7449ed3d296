package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"briefgen/internal/analyzer"
	"briefgen/internal/article"
	"briefgen/internal/brief"
	"briefgen/internal/config"
	"briefgen/internal/fetch"
	"briefgen/internal/llm"
	"briefgen/internal/logger"
	"briefgen/internal/rag"
	"briefgen/internal/store"
)

// Builder helps construct a fully configured Pipeline
type Builder struct {
	cfg       *config.Config
	log       *slog.Logger
	llmClient llm.TextGenerator
	embedder  rag.Embedder
	store     ArticleStore
	skipStore bool
}

// NewBuilder creates a new pipeline builder for cfg
func NewBuilder(cfg *config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// WithLogger sets the logger handed to every component
func (b *Builder) WithLogger(log *slog.Logger) *Builder {
	b.log = log
	return b
}

// WithLLMClient replaces the Gemini text client
func (b *Builder) WithLLMClient(client llm.TextGenerator) *Builder {
	b.llmClient = client
	return b
}

// WithEmbedder replaces the embedder chosen by rag.embedder
func (b *Builder) WithEmbedder(embedder rag.Embedder) *Builder {
	b.embedder = embedder
	return b
}

// WithStore replaces the SQLite article history
func (b *Builder) WithStore(s ArticleStore) *Builder {
	b.store = s
	return b
}

// WithoutStore disables article history
func (b *Builder) WithoutStore() *Builder {
	b.skipStore = true
	return b
}

// Build constructs a fully configured Pipeline
func (b *Builder) Build(ctx context.Context) (*Pipeline, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	cfg := b.cfg
	log := b.log
	if log == nil {
		log = logger.Get()
	}

	var closers []func() error

	// The Gemini client is only dialed when something still needs it
	needsGemini := b.llmClient == nil || (b.embedder == nil && !useHashEmbedder(cfg))
	var gemini *llm.Client
	if needsGemini {
		client, err := llm.NewClient(ctx, cfg.AI.Gemini, llm.EmbedOptions{
			BatchSize:   cfg.RAG.EmbedBatchSize,
			Concurrency: cfg.RAG.EmbedConcurrency,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM client: %w", err)
		}
		gemini = client
		closers = append(closers, func() error { client.Close(); return nil })
	}

	textClient := b.llmClient
	if textClient == nil {
		textClient = gemini
	}
	traced := llm.NewTracedClient(textClient, cfg.AI.Gemini.Model, log)

	embedder := b.embedder
	if embedder == nil {
		if useHashEmbedder(cfg) {
			embedder = rag.NewHashEmbedder(int(cfg.AI.Gemini.EmbeddingDimensions))
		} else {
			embedder = gemini
		}
	}

	index := rag.NewIndex(embedder, rag.Options{
		ChunkSize:           cfg.RAG.ChunkSize,
		ChunkOverlap:        cfg.RAG.ChunkOverlap,
		SimilarityThreshold: cfg.RAG.SimilarityThreshold,
		CacheSize:           cfg.RAG.CacheSize,
	}, log)

	scraper := fetch.NewScraper(fetch.Config{
		Timeout:             config.Duration(cfg.Scraper.Timeout, fetch.DefaultTimeout),
		UserAgent:           cfg.Scraper.UserAgent,
		MaxBodyBytes:        cfg.Scraper.MaxBodyBytes,
		MaxTextChars:        cfg.Scraper.MaxTextChars,
		ReadabilityFallback: cfg.Scraper.ReadabilityFallback,
	}, log)

	urlAnalyzer := analyzer.New(traced, scraper, analyzer.Options{
		Model:        cfg.AI.Gemini.AnalyzerModel,
		ContentLimit: cfg.Generation.AnalyzerContentLimit,
	}, log)

	briefs := brief.NewGenerator(traced, index, brief.Options{
		Model:        cfg.AI.Gemini.Model,
		Temperature:  cfg.AI.Gemini.Temperature,
		MaxTokens:    cfg.AI.Gemini.MaxTokens,
		ExcerptLimit: cfg.Generation.BriefExcerptLimit,
	}, log)

	articles := article.NewGenerator(traced, index, article.Options{
		Model:                  cfg.AI.Gemini.Model,
		ConclusionModel:        cfg.AI.Gemini.ResolvedConclusionModel(),
		TopK:                   cfg.RAG.TopK,
		SectionContextLimit:    cfg.Generation.SectionContextLimit,
		ConclusionContextLimit: cfg.Generation.ConclusionContextLimit,
		Temperature:            cfg.AI.Gemini.Temperature,
		MaxTokens:              cfg.AI.Gemini.MaxTokens,
	}, log)

	// Initialize article history (optional)
	var history ArticleStore
	if !b.skipStore && cfg.Store.Enabled {
		if b.store != nil {
			history = b.store
		} else {
			sqlStore, err := store.NewStore(cfg.Store.Path)
			if err != nil {
				// Non-fatal: continue without history
				log.Warn("Failed to open article store, history disabled", "path", cfg.Store.Path, "error", err)
			} else {
				history = sqlStore
				closers = append(closers, sqlStore.Close)
			}
		}
	}

	p := New(briefs, articles, urlAnalyzer, index, history, log)
	p.Model = cfg.AI.Gemini.Model
	p.Scraper = scraper
	p.closers = closers

	log.Info("Pipeline ready",
		"model", p.Model,
		"embedder", embedderName(cfg, b.embedder),
		"history", p.HistoryEnabled())
	return p, nil
}

func useHashEmbedder(cfg *config.Config) bool {
	return strings.EqualFold(cfg.RAG.Embedder, "hash")
}

func embedderName(cfg *config.Config, override rag.Embedder) string {
	switch {
	case override != nil:
		return fmt.Sprintf("%T", override)
	case useHashEmbedder(cfg):
		return "hash"
	default:
		return "gemini"
	}
}
