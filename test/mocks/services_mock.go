package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"briefgen/internal/core"
	"briefgen/internal/llm"
)

// LLMCall records one GenerateText invocation
type LLMCall struct {
	Prompt  string
	Options llm.TextGenerationOptions
}

// MockLLMClient provides a mock implementation of the LLM client. When
// GenerateTextFunc is nil, Responses are returned in order and the last one
// repeats.
type MockLLMClient struct {
	GenerateTextFunc func(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error)
	Responses        []string

	mu    sync.Mutex
	calls []LLMCall
}

func (m *MockLLMClient) GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error) {
	m.mu.Lock()
	n := len(m.calls)
	m.calls = append(m.calls, LLMCall{Prompt: prompt, Options: options})
	m.mu.Unlock()

	if m.GenerateTextFunc != nil {
		return m.GenerateTextFunc(ctx, prompt, options)
	}
	if len(m.Responses) == 0 {
		return "mock response", nil
	}
	if n >= len(m.Responses) {
		n = len(m.Responses) - 1
	}
	return m.Responses[n], nil
}

// Calls returns a copy of the recorded calls
func (m *MockLLMClient) Calls() []LLMCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LLMCall(nil), m.calls...)
}

// MockScraper provides a mock implementation of the page scraper
type MockScraper struct {
	ScrapeFunc func(ctx context.Context, rawURL string) (core.ScrapedPage, error)
}

func (m *MockScraper) Scrape(ctx context.Context, rawURL string) (core.ScrapedPage, error) {
	if m.ScrapeFunc != nil {
		return m.ScrapeFunc(ctx, rawURL)
	}
	return core.ScrapedPage{URL: rawURL, Title: "Mock Page", Text: "Mock page content"}, nil
}

// MockRetriever provides a mock implementation of RAG retrieval
type MockRetriever struct {
	RetrieveFunc func(ctx context.Context, query string, k int) []core.RetrievedChunk

	mu      sync.Mutex
	queries []string
}

func (m *MockRetriever) Retrieve(ctx context.Context, query string, k int) []core.RetrievedChunk {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	m.mu.Unlock()
	if m.RetrieveFunc != nil {
		return m.RetrieveFunc(ctx, query, k)
	}
	return []core.RetrievedChunk{}
}

// Queries returns the queries seen so far
func (m *MockRetriever) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

// MockIndex provides a mock implementation of the RAG index
type MockIndex struct {
	IngestFunc func(ctx context.Context, source, text string) (int, error)

	mu       sync.Mutex
	ingested map[string]string
	cleared  int
}

func (m *MockIndex) Ingest(ctx context.Context, source, text string) (int, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, source, text)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ingested == nil {
		m.ingested = make(map[string]string)
	}
	m.ingested[source] = text
	return 1, nil
}

func (m *MockIndex) Retrieve(ctx context.Context, query string, k int) []core.RetrievedChunk {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.RetrievedChunk
	for source, text := range m.ingested {
		if len(out) < k && strings.Contains(strings.ToLower(text), strings.ToLower(query)) {
			out = append(out, core.RetrievedChunk{Content: text, Source: source, Score: 1})
		}
	}
	return out
}

// Ingested returns the text ingested under source
func (m *MockIndex) Ingested(source string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	text, ok := m.ingested[source]
	return text, ok
}

func (m *MockIndex) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ingested = nil
	m.cleared++
}

// ClearCount reports how often Clear was called
func (m *MockIndex) ClearCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleared
}

func (m *MockIndex) Stats() core.IndexStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := core.IndexStats{Sources: []string{}}
	for source := range m.ingested {
		stats.Records++
		stats.Sources = append(stats.Sources, source)
	}
	if stats.Records > 0 {
		stats.Dimension = 8
	}
	return stats
}

// MockBriefGenerator provides a mock implementation of brief generation
type MockBriefGenerator struct {
	GenerateFunc func(ctx context.Context, req core.BriefRequest) (core.Brief, error)
}

func (m *MockBriefGenerator) Generate(ctx context.Context, req core.BriefRequest) (core.Brief, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return SampleBrief(req.Keyword), nil
}

// MockArticleGenerator provides a mock implementation of article generation
type MockArticleGenerator struct {
	GenerateFunc func(ctx context.Context, brief core.Brief) (core.Article, error)
}

func (m *MockArticleGenerator) Generate(ctx context.Context, brief core.Brief) (core.Article, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, brief)
	}
	content := "# " + brief.Title + "\n\nMock article body."
	return core.Article{
		Title:     brief.Title,
		Content:   content,
		WordCount: len(strings.Fields(content)),
		Sections:  len(brief.Outline) + 2,
	}, nil
}

// MockAnalyzer provides a mock implementation of URL analysis
type MockAnalyzer struct {
	AnalyzeURLFunc func(ctx context.Context, rawURL string) (core.Analysis, error)
}

func (m *MockAnalyzer) AnalyzeURL(ctx context.Context, rawURL string) (core.Analysis, error) {
	if m.AnalyzeURLFunc != nil {
		return m.AnalyzeURLFunc(ctx, rawURL)
	}
	return core.Analysis{
		Keyword:        "mock keyword",
		TargetAudience: "mock audience",
		ContentType:    "blog",
		Tone:           "casual",
		ScrapedContent: "Mock page content",
	}, nil
}

// MockArticleStore provides an in-memory article history
type MockArticleStore struct {
	mu       sync.Mutex
	articles []core.SavedArticle
	nextID   int
}

func (m *MockArticleStore) SaveArticle(ctx context.Context, article core.SavedArticle) (core.SavedArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	article.ID = fmt.Sprintf("mock-article-%d", m.nextID)
	article.CreatedAt = time.Now().UTC()
	m.articles = append(m.articles, article)
	return article, nil
}

func (m *MockArticleStore) ListArticles(ctx context.Context, limit int) ([]core.SavedArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []core.SavedArticle{}
	for i := len(m.articles) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, m.articles[i])
	}
	return out, nil
}

func (m *MockArticleStore) GetArticle(ctx context.Context, id string) (core.SavedArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.ID == id {
			return a, nil
		}
	}
	return core.SavedArticle{}, fmt.Errorf("article %s: %w", id, core.ErrNotFound)
}

// SampleBrief returns a small valid brief about keyword
func SampleBrief(keyword string) core.Brief {
	return core.Brief{
		Title:           "A Guide to " + keyword,
		MetaDescription: "Everything you need to know about " + keyword,
		Outline: []core.OutlineItem{
			{Heading: "What is " + keyword, Subpoints: []string{"definition", "history"}},
			{Heading: "Why it matters", Subpoints: []string{"benefits"}},
			{Heading: "Getting started", Subpoints: []string{"first steps", "tools"}},
		},
		KeyPoints:       []string{"basics", "benefits", "practice"},
		Recommendations: core.Recommendations{Tone: "professional", Style: "informative"},
	}
}
