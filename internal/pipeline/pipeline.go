// Package pipeline assembles the generation components and exposes the
// operations shared by the HTTP server and the CLI.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"briefgen/internal/article"
	"briefgen/internal/core"
	"briefgen/internal/parser"
)

// ErrStoreDisabled is returned by history operations when no store is configured
var ErrStoreDisabled = errors.New("article history is disabled")

// Output formats accepted by GenerateArticle
const (
	FormatMarkdown = "markdown"
	FormatHTML     = "html"
)

// Pipeline holds the wired components. Fields are exported so callers and
// tests can substitute individual parts.
type Pipeline struct {
	Briefs   BriefGenerator
	Articles ArticleGenerator
	Analyzer URLAnalyzer
	Index    Index
	Store    ArticleStore // nil when history is disabled
	Scraper  PageScraper  // nil disables IngestURL

	Model     string
	StartedAt time.Time

	log     *slog.Logger
	closers []func() error
}

// New creates a pipeline from already constructed components
func New(briefs BriefGenerator, articles ArticleGenerator, analyzer URLAnalyzer, index Index, store ArticleStore, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		Briefs:    briefs,
		Articles:  articles,
		Analyzer:  analyzer,
		Index:     index,
		Store:     store,
		StartedAt: time.Now(),
		log:       log,
	}
}

// GenerateBrief produces a brief for req
func (p *Pipeline) GenerateBrief(ctx context.Context, req core.BriefRequest) (core.Brief, error) {
	return p.Briefs.Generate(ctx, req)
}

// GenerateArticle expands brief into an article. FormatHTML additionally
// renders the markdown into ContentHTML.
func (p *Pipeline) GenerateArticle(ctx context.Context, brief core.Brief, format string) (core.Article, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "" && format != FormatMarkdown && format != FormatHTML {
		return core.Article{}, fmt.Errorf("%w: unsupported format %q", core.ErrInvalidRequest, format)
	}

	result, err := p.Articles.Generate(ctx, brief)
	if err != nil {
		return core.Article{}, err
	}

	if format == FormatHTML {
		result.ContentHTML = article.RenderHTML(result.Content)
	}
	return result, nil
}

// AnalyzeURL scrapes rawURL and infers brief parameters from it
func (p *Pipeline) AnalyzeURL(ctx context.Context, rawURL string) (core.Analysis, error) {
	return p.Analyzer.AnalyzeURL(ctx, rawURL)
}

// IngestURL scrapes rawURL and adds its text to the retrieval index under
// the normalized URL. It returns the number of chunks added.
func (p *Pipeline) IngestURL(ctx context.Context, rawURL string) (int, error) {
	if p.Scraper == nil {
		return 0, fmt.Errorf("no scraper configured")
	}

	page, err := p.Scraper.Scrape(ctx, rawURL)
	if err != nil {
		return 0, err
	}

	source := parser.NormalizeURL(page.URL)
	n, err := p.Index.Ingest(ctx, source, page.Text)
	if err != nil {
		return 0, fmt.Errorf("failed to index %s: %w", source, err)
	}
	p.log.Info("Indexed reference page", "source", source, "title", page.Title, "chunks", n)
	return n, nil
}

// IngestReferences ingests every URL in urls. A page that fails is logged
// and skipped; the count of pages indexed is returned.
func (p *Pipeline) IngestReferences(ctx context.Context, urls []string) int {
	indexed := 0
	for _, u := range urls {
		if ctx.Err() != nil {
			break
		}
		if _, err := p.IngestURL(ctx, u); err != nil {
			p.log.Warn("Skipping reference", "url", u, "error", err)
			continue
		}
		indexed++
	}
	return indexed
}

// ClearIndex drops every record from the retrieval index
func (p *Pipeline) ClearIndex() {
	p.Index.Clear()
	p.log.Info("Cleared retrieval index")
}

// IndexStats summarizes the retrieval index
func (p *Pipeline) IndexStats() core.IndexStats {
	return p.Index.Stats()
}

// HistoryEnabled reports whether generated articles can be persisted
func (p *Pipeline) HistoryEnabled() bool {
	return p.Store != nil
}

// SaveArticle persists an article to history
func (p *Pipeline) SaveArticle(ctx context.Context, a core.SavedArticle) (core.SavedArticle, error) {
	if p.Store == nil {
		return core.SavedArticle{}, ErrStoreDisabled
	}
	return p.Store.SaveArticle(ctx, a)
}

// ListArticles returns saved articles, newest first
func (p *Pipeline) ListArticles(ctx context.Context, limit int) ([]core.SavedArticle, error) {
	if p.Store == nil {
		return nil, ErrStoreDisabled
	}
	return p.Store.ListArticles(ctx, limit)
}

// GetArticle loads one saved article
func (p *Pipeline) GetArticle(ctx context.Context, id string) (core.SavedArticle, error) {
	if p.Store == nil {
		return core.SavedArticle{}, ErrStoreDisabled
	}
	return p.Store.GetArticle(ctx, id)
}

// Uptime reports how long the pipeline has existed
func (p *Pipeline) Uptime() time.Duration {
	return time.Since(p.StartedAt)
}

// Close releases the store and model client
func (p *Pipeline) Close() error {
	var errs []error
	for _, closeFn := range p.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}
