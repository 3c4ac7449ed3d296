package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"briefgen/internal/brief"
	"briefgen/internal/config"
	"briefgen/internal/core"
	"briefgen/internal/logger"
	"briefgen/internal/pipeline"
	"briefgen/test/mocks"
)

const testAdminKey = "secret-admin-key"

type testEnv struct {
	server   *Server
	llm      *mocks.MockLLMClient
	index    *mocks.MockIndex
	articles *mocks.MockArticleGenerator
	analyzer *mocks.MockAnalyzer
}

func newTestEnv(t *testing.T, withStore bool) *testEnv {
	t.Helper()

	env := &testEnv{
		llm:      &mocks.MockLLMClient{},
		index:    &mocks.MockIndex{},
		articles: &mocks.MockArticleGenerator{},
		analyzer: &mocks.MockAnalyzer{},
	}
	briefs := brief.NewGenerator(env.llm, env.index, brief.Options{}, logger.Discard())

	var history pipeline.ArticleStore
	if withStore {
		history = &mocks.MockArticleStore{}
	}

	p := pipeline.New(briefs, env.articles, env.analyzer, env.index, history, logger.Discard())
	p.Model = "test-model"

	env.server = New(p, config.Server{
		Host:           "127.0.0.1",
		Port:           8000,
		AllowedOrigins: []string{"http://localhost:3000"},
		AdminAPIKey:    testAdminKey,
	}, logger.Discard())
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("Expected status %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
}

func briefJSON(keyword string) string {
	b, _ := json.Marshal(mocks.SampleBrief(keyword))
	return string(b)
}

func TestRootAndHealth(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/", "")
	expectStatus(t, rec, http.StatusOK)
	var msg MessageResponse
	decodeBody(t, rec, &msg)
	if msg.Message != "Content Brief Generator API" {
		t.Errorf("Unexpected root message: %q", msg.Message)
	}

	for _, path := range []string{"/health", "/api/health"} {
		rec := env.do(t, http.MethodGet, path, "")
		expectStatus(t, rec, http.StatusOK)
		var health HealthResponse
		decodeBody(t, rec, &health)
		if health.Status != "healthy" {
			t.Errorf("%s: expected healthy, got %q", path, health.Status)
		}
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/health", "")
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("Expected nosniff, got %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Expected no-store, got %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Expected application/json, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodOptions, "/api/generate-brief", "",
		"Origin", "http://localhost:3000",
		"Access-Control-Request-Method", "POST")
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Expected allowed origin header, got %q", got)
	}
}

func TestGenerateBrief(t *testing.T) {
	env := newTestEnv(t, false)
	env.llm.Responses = []string{briefJSON("sourdough")}

	rec := env.do(t, http.MethodPost, "/api/generate-brief", `{"keyword": "sourdough"}`)
	expectStatus(t, rec, http.StatusOK)

	var got core.Brief
	decodeBody(t, rec, &got)
	if got.Title != "A Guide to sourdough" {
		t.Errorf("Unexpected title %q", got.Title)
	}
	if len(got.Outline) != 3 {
		t.Errorf("Expected 3 outline items, got %d", len(got.Outline))
	}
}

func TestGenerateBrief_IngestsScrapedContent(t *testing.T) {
	env := newTestEnv(t, false)
	env.llm.Responses = []string{briefJSON("bread")}

	body := `{"keyword": "bread", "scraped_content": "Flour and water.", "source_url": "https://example.com/bread"}`
	rec := env.do(t, http.MethodPost, "/api/generate-brief", body)
	expectStatus(t, rec, http.StatusOK)

	if text, ok := env.index.Ingested("https://example.com/bread"); !ok || text != "Flour and water." {
		t.Errorf("Expected scraped content to be ingested, got %q (%v)", text, ok)
	}
}

func TestGenerateBrief_Errors(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		response string
		want     int
	}{
		{name: "malformed body", body: `{"keyword":`, want: http.StatusBadRequest},
		{name: "empty body", body: "", want: http.StatusBadRequest},
		{name: "missing keyword", body: `{"tone": "casual"}`, want: http.StatusBadRequest},
		{name: "model returns prose", body: `{"keyword": "k"}`, response: "Sorry, no.", want: http.StatusInternalServerError},
		{name: "brief missing fields", body: `{"keyword": "k"}`, response: `{"title": "t"}`, want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false)
			if tt.response != "" {
				env.llm.Responses = []string{tt.response}
			}

			rec := env.do(t, http.MethodPost, "/api/generate-brief", tt.body)
			expectStatus(t, rec, tt.want)

			var resp ErrorResponse
			decodeBody(t, rec, &resp)
			if resp.Detail == "" {
				t.Error("Expected a detail message")
			}
		})
	}
}

func TestGenerateArticle(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/generate-article", briefJSON("tea"))
	expectStatus(t, rec, http.StatusOK)

	var got core.Article
	decodeBody(t, rec, &got)
	if got.Sections != 5 {
		t.Errorf("Expected 5 sections, got %d", got.Sections)
	}
	if got.ContentHTML != "" {
		t.Error("Expected no HTML without format")
	}
}

func TestGenerateArticle_HTMLFormat(t *testing.T) {
	env := newTestEnv(t, false)

	body := strings.TrimSuffix(briefJSON("tea"), "}") + `,"format":"html"}`
	rec := env.do(t, http.MethodPost, "/api/generate-article", body)
	expectStatus(t, rec, http.StatusOK)

	var got core.Article
	decodeBody(t, rec, &got)
	if !strings.Contains(got.ContentHTML, "A Guide to tea</h1>") {
		t.Errorf("Expected rendered title, got %q", got.ContentHTML)
	}
}

func TestGenerateArticle_NormalizesBody(t *testing.T) {
	env := newTestEnv(t, false)
	var seen core.Brief
	env.articles.GenerateFunc = func(ctx context.Context, b core.Brief) (core.Article, error) {
		seen = b
		return core.Article{Title: b.Title, Sections: len(b.Outline) + 2}, nil
	}

	body := `{
		"title": "T",
		"meta_description": "` + strings.Repeat("m", 200) + `",
		"outline": [{"heading": "kept", "subpoints": []}, {"heading": "dropped"}],
		"key_points": ["a"],
		"recommendations": "none"
	}`
	rec := env.do(t, http.MethodPost, "/api/generate-article", body)
	expectStatus(t, rec, http.StatusOK)

	if len([]rune(seen.MetaDescription)) != 158 {
		t.Errorf("Expected truncated meta description, got %d chars", len(seen.MetaDescription))
	}
	if len(seen.Outline) != 1 {
		t.Errorf("Expected 1 outline item, got %d", len(seen.Outline))
	}
	if seen.Recommendations.Tone != "professional" || seen.Recommendations.Style != "informative" {
		t.Errorf("Expected default recommendations, got %+v", seen.Recommendations)
	}
}

func TestGenerateArticle_Errors(t *testing.T) {
	t.Run("missing key_points", func(t *testing.T) {
		env := newTestEnv(t, false)
		rec := env.do(t, http.MethodPost, "/api/generate-article", `{"title": "t", "meta_description": "m", "outline": [], "recommendations": {}}`)
		expectStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("unknown format", func(t *testing.T) {
		env := newTestEnv(t, false)
		body := strings.TrimSuffix(briefJSON("tea"), "}") + `,"format":"pdf"}`
		rec := env.do(t, http.MethodPost, "/api/generate-article", body)
		expectStatus(t, rec, http.StatusBadRequest)
	})

	t.Run("generation failure", func(t *testing.T) {
		env := newTestEnv(t, false)
		env.articles.GenerateFunc = func(ctx context.Context, b core.Brief) (core.Article, error) {
			return core.Article{}, fmt.Errorf("section generation failed: %w", core.ErrUpstream)
		}
		rec := env.do(t, http.MethodPost, "/api/generate-article", briefJSON("tea"))
		expectStatus(t, rec, http.StatusInternalServerError)

		var resp ErrorResponse
		decodeBody(t, rec, &resp)
		if !strings.Contains(resp.Detail, "section generation failed") {
			t.Errorf("Unexpected detail %q", resp.Detail)
		}
	})
}

func TestAnalyzeURL(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodPost, "/api/analyze-url", `{"url": "https://example.com/page"}`)
	expectStatus(t, rec, http.StatusOK)

	var got core.Analysis
	decodeBody(t, rec, &got)
	if got.ContentType != "blog" || got.Tone != "casual" {
		t.Errorf("Unexpected analysis %+v", got)
	}
}

func TestAnalyzeURL_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "invalid url", err: fmt.Errorf("%w: not a url", core.ErrInvalidURL), want: http.StatusBadRequest},
		{name: "scrape failure", err: fmt.Errorf("%w: connection refused", core.ErrScrape), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false)
			env.analyzer.AnalyzeURLFunc = func(ctx context.Context, rawURL string) (core.Analysis, error) {
				return core.Analysis{}, tt.err
			}

			rec := env.do(t, http.MethodPost, "/api/analyze-url", `{"url": "not a url"}`)
			expectStatus(t, rec, tt.want)
		})
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, true)
	_, _ = env.index.Ingest(context.Background(), "doc", "text")

	rec := env.do(t, http.MethodGet, "/api/status", "")
	expectStatus(t, rec, http.StatusOK)

	var got StatusResponse
	decodeBody(t, rec, &got)
	if got.Model != "test-model" {
		t.Errorf("Expected test-model, got %q", got.Model)
	}
	if got.Index.Records != 1 {
		t.Errorf("Expected 1 indexed record, got %d", got.Index.Records)
	}
	if !got.HistoryEnabled {
		t.Error("Expected history to be enabled")
	}
}

func TestArticleHistory(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(t, http.MethodPost, "/api/articles", `{"title": "First", "content": "# First"}`)
	expectStatus(t, rec, http.StatusCreated)
	var first core.SavedArticle
	decodeBody(t, rec, &first)

	env.do(t, http.MethodPost, "/api/articles", `{"title": "Second", "content": "# Second"}`)

	rec = env.do(t, http.MethodGet, "/api/articles", "")
	expectStatus(t, rec, http.StatusOK)
	var list ArticleListResponse
	decodeBody(t, rec, &list)
	if list.Count != 2 || list.Articles[0].Title != "Second" {
		t.Errorf("Expected newest first, got %+v", list)
	}

	rec = env.do(t, http.MethodGet, "/api/articles?limit=1", "")
	decodeBody(t, rec, &list)
	if list.Count != 1 {
		t.Errorf("Expected 1 article with limit, got %d", list.Count)
	}

	rec = env.do(t, http.MethodGet, "/api/articles/"+first.ID, "")
	expectStatus(t, rec, http.StatusOK)

	rec = env.do(t, http.MethodGet, "/api/articles/missing", "")
	expectStatus(t, rec, http.StatusNotFound)

	rec = env.do(t, http.MethodGet, "/api/articles?limit=abc", "")
	expectStatus(t, rec, http.StatusBadRequest)
}

func TestArticleHistory_DisabledWithoutStore(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/api/articles", "")
	expectStatus(t, rec, http.StatusNotFound)
}

func TestClearIndex_Auth(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", want: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic " + testAdminKey, want: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", want: http.StatusUnauthorized},
		{name: "valid key", header: "Bearer " + testAdminKey, want: http.StatusOK},
		{name: "lowercase scheme", header: "bearer " + testAdminKey, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, false)
			var headers []string
			if tt.header != "" {
				headers = []string{"Authorization", tt.header}
			}

			rec := env.do(t, http.MethodDelete, "/api/rag", "", headers...)
			expectStatus(t, rec, tt.want)

			wantClears := 0
			if tt.want == http.StatusOK {
				wantClears = 1
			}
			if got := env.index.ClearCount(); got != wantClears {
				t.Errorf("Expected %d clears, got %d", wantClears, got)
			}
		})
	}
}

func TestClearIndex_DisabledWithoutKey(t *testing.T) {
	env := newTestEnv(t, false)
	env.server.config.AdminAPIKey = ""

	rec := env.do(t, http.MethodDelete, "/api/rag", "", "Authorization", "Bearer anything")
	expectStatus(t, rec, http.StatusForbidden)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", core.ErrInvalidURL), http.StatusBadRequest},
		{fmt.Errorf("x: %w", core.ErrInvalidRequest), http.StatusBadRequest},
		{fmt.Errorf("x: %w", core.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("x: %w", core.ErrMissingField), http.StatusInternalServerError},
		{fmt.Errorf("x: %w", core.ErrUpstream), http.StatusInternalServerError},
		{fmt.Errorf("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
