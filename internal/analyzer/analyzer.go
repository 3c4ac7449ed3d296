// Package analyzer infers a target keyword and audience from page content.
package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"briefgen/internal/core"
	"briefgen/internal/fetch"
	"briefgen/internal/llm"
	"briefgen/internal/logger"
	"briefgen/internal/respond"
)

const (
	DefaultKeyword  = "general content"
	DefaultAudience = "general audience"

	// Analyzed pages are always treated as casual blog material.
	AnalysisContentType = "blog"
	AnalysisTone        = "casual"

	maxKeywordChars  = 50
	maxAudienceChars = 200

	defaultContentLimit = 5000
	analysisTemperature = 0.3
	analysisMaxTokens   = 500
)

// LLMClient defines the interface for LLM operations
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error)
}

// Scraper fetches and cleans a page.
type Scraper interface {
	Scrape(ctx context.Context, rawURL string) (core.ScrapedPage, error)
}

// Options tunes the analyzer.
type Options struct {
	Model        string // Empty uses the client's default model
	ContentLimit int    // Characters of content sent to the model
}

// Analyzer extracts a keyword and audience from scraped content.
type Analyzer struct {
	llm          LLMClient
	scraper      Scraper
	model        string
	contentLimit int
	log          *slog.Logger
}

// New creates an analyzer.
func New(client LLMClient, scraper Scraper, opts Options, log *slog.Logger) *Analyzer {
	if opts.ContentLimit <= 0 {
		opts.ContentLimit = defaultContentLimit
	}
	if log == nil {
		log = logger.Get()
	}
	return &Analyzer{
		llm:          client,
		scraper:      scraper,
		model:        opts.Model,
		contentLimit: opts.ContentLimit,
		log:          log.With("component", "analyzer"),
	}
}

// AnalyzeURL scrapes rawURL and analyzes its text. Invalid URLs and scrape
// failures are returned; analysis failures fall back to defaults.
func (a *Analyzer) AnalyzeURL(ctx context.Context, rawURL string) (core.Analysis, error) {
	if _, err := fetch.ValidateURL(rawURL); err != nil {
		return core.Analysis{}, err
	}

	page, err := a.scraper.Scrape(ctx, rawURL)
	if err != nil {
		return core.Analysis{}, err
	}

	analysis := a.Analyze(ctx, page.Text)
	analysis.ScrapedContent = page.Text
	return analysis, nil
}

// Analyze asks the model for the keyword and audience of content. It never
// fails: any model or parse error yields the default keyword and audience.
func (a *Analyzer) Analyze(ctx context.Context, content string) core.Analysis {
	analysis := core.Analysis{
		Keyword:        DefaultKeyword,
		TargetAudience: DefaultAudience,
		ContentType:    AnalysisContentType,
		Tone:           AnalysisTone,
	}

	if strings.TrimSpace(content) == "" {
		a.log.Warn("No content to analyze, using defaults")
		return analysis
	}

	response, err := a.llm.GenerateText(ctx, BuildAnalysisPrompt(fetch.Truncate(content, a.contentLimit)), llm.TextGenerationOptions{
		Model:          a.model,
		Temperature:    analysisTemperature,
		MaxTokens:      analysisMaxTokens,
		ResponseSchema: AnalysisSchema(),
	})
	if err != nil {
		a.log.Error("Content analysis failed, using defaults", "error", err.Error())
		return analysis
	}

	keyword, audience, err := ParseAnalysis(response)
	if err != nil {
		a.log.Error("Could not parse content analysis, using defaults", "error", err.Error())
		return analysis
	}

	analysis.Keyword = keyword
	analysis.TargetAudience = audience
	a.log.Info("Analyzed content", "keyword", keyword, "target_audience", audience)
	return analysis
}

// ParseAnalysis reads keyword and target_audience from a model response. It
// tries the whole response as JSON, then the first flat {...} block, then
// bare "key": "value" pairs. Values are trimmed and capped in length.
func ParseAnalysis(response string) (string, string, error) {
	var parsed struct {
		Keyword        string `json:"keyword"`
		TargetAudience string `json:"target_audience"`
	}

	clean := respond.CleanJSON(response)
	err := json.Unmarshal([]byte(clean), &parsed)
	if err != nil {
		if block, ok := respond.FirstFlatObject(clean); ok {
			err = json.Unmarshal([]byte(block), &parsed)
		}
	}
	if err != nil {
		keyword, kok := respond.ExtractStringField(clean, "keyword")
		audience, aok := respond.ExtractStringField(clean, "target_audience")
		if !kok || !aok {
			return "", "", fmt.Errorf("%w: could not parse analysis response", core.ErrMalformedJSON)
		}
		parsed.Keyword, parsed.TargetAudience = keyword, audience
	}

	keyword := strings.TrimSpace(parsed.Keyword)
	audience := strings.TrimSpace(parsed.TargetAudience)
	if keyword == "" || audience == "" {
		return "", "", fmt.Errorf("%w: keyword and target_audience are required", core.ErrMissingField)
	}

	return capRunes(keyword, maxKeywordChars), capRunes(audience, maxAudienceChars), nil
}

func capRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}

// BuildAnalysisPrompt creates the keyword and audience extraction prompt
func BuildAnalysisPrompt(content string) string {
	return fmt.Sprintf(`Analyze the following website content and extract:
1. Primary target keyword/topic (1-3 words that best represent the main topic)
2. Target audience (brief description of intended readers)

Website content:
%s

Return ONLY a JSON object in this exact format:
{
  "keyword": "main topic or keyword",
  "target_audience": "description of intended audience"
}

Be specific and concise. The keyword should be the core topic of the content.`, content)
}

// AnalysisSchema returns the structured output schema for content analysis
func AnalysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"keyword": {
				Type:        genai.TypeString,
				Description: "Primary topic of the content in 1-3 words",
			},
			"target_audience": {
				Type:        genai.TypeString,
				Description: "Brief description of the intended readers",
			},
		},
		Required: []string{"keyword", "target_audience"},
	}
}
