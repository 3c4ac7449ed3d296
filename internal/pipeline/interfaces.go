package pipeline

import (
	"context"

	"briefgen/internal/core"
)

// BriefGenerator turns a keyword request into a validated brief
type BriefGenerator interface {
	Generate(ctx context.Context, req core.BriefRequest) (core.Brief, error)
}

// ArticleGenerator expands a brief into a markdown article
type ArticleGenerator interface {
	Generate(ctx context.Context, brief core.Brief) (core.Article, error)
}

// URLAnalyzer scrapes a page and infers its keyword and audience
type URLAnalyzer interface {
	AnalyzeURL(ctx context.Context, rawURL string) (core.Analysis, error)
}

// Index is the shared retrieval index
type Index interface {
	// Ingest chunks and embeds text under source, returning the chunk count
	Ingest(ctx context.Context, source, text string) (int, error)

	// Retrieve returns up to k chunks similar to query
	Retrieve(ctx context.Context, query string, k int) []core.RetrievedChunk

	// Clear drops every record
	Clear()

	// Stats summarizes the index contents
	Stats() core.IndexStats
}

// ArticleStore persists generated articles
type ArticleStore interface {
	SaveArticle(ctx context.Context, article core.SavedArticle) (core.SavedArticle, error)
	ListArticles(ctx context.Context, limit int) ([]core.SavedArticle, error)
	GetArticle(ctx context.Context, id string) (core.SavedArticle, error)
}

// PageScraper fetches and cleans a page
type PageScraper interface {
	Scrape(ctx context.Context, rawURL string) (core.ScrapedPage, error)
}
