// Package article expands a brief into a full markdown article, one model
// call per part, grounding each call in retrieved reference chunks.
package article

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"briefgen/internal/core"
	"briefgen/internal/llm"
	"briefgen/internal/logger"
	"briefgen/internal/rag"
)

const (
	DefaultSectionContextLimit    = 2000
	DefaultConclusionContextLimit = 3000
	DefaultTopK                   = 3
)

// LLMClient defines the interface for LLM operations
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextGenerationOptions) (string, error)
}

// Retriever finds reference chunks for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) []core.RetrievedChunk
}

// Options tunes article generation.
type Options struct {
	Model                  string // Introduction and sections
	ConclusionModel        string // Falls back to Model
	TopK                   int
	SectionContextLimit    int
	ConclusionContextLimit int
	Temperature            float32
	MaxTokens              int32
}

// Generator writes articles from briefs.
type Generator struct {
	llm       LLMClient
	retriever Retriever
	opts      Options
	log       *slog.Logger
}

// NewGenerator creates an article generator. retriever may be nil, in which
// case every prompt carries the no-reference placeholder.
func NewGenerator(client LLMClient, retriever Retriever, opts Options, log *slog.Logger) *Generator {
	if opts.TopK <= 0 {
		opts.TopK = DefaultTopK
	}
	if opts.SectionContextLimit <= 0 {
		opts.SectionContextLimit = DefaultSectionContextLimit
	}
	if opts.ConclusionContextLimit <= 0 {
		opts.ConclusionContextLimit = DefaultConclusionContextLimit
	}
	if opts.ConclusionModel == "" {
		opts.ConclusionModel = opts.Model
	}
	if log == nil {
		log = logger.Get()
	}
	return &Generator{
		llm:       client,
		retriever: retriever,
		opts:      opts,
		log:       log.With("component", "article"),
	}
}

// Generate writes the introduction, each outline section in order, and the
// conclusion, then assembles them. Any failed step aborts the article.
func (g *Generator) Generate(ctx context.Context, brief core.Brief) (core.Article, error) {
	start := time.Now()

	intro, err := g.GenerateIntroduction(ctx, brief)
	if err != nil {
		return core.Article{}, err
	}

	sections := make([]string, 0, len(brief.Outline))
	for i, item := range brief.Outline {
		section, err := g.GenerateSection(ctx, item, brief, previousContent(intro, sections))
		if err != nil {
			return core.Article{}, fmt.Errorf("section %d: %w", i+1, err)
		}
		sections = append(sections, section)
		g.log.Debug("Generated section", "index", i+1, "heading", item.Heading)
	}

	conclusion, err := g.GenerateConclusion(ctx, brief, previousContent(intro, sections))
	if err != nil {
		return core.Article{}, err
	}

	content := Assemble(brief.Title, intro, sections, conclusion)
	article := core.Article{
		Title:     brief.Title,
		Content:   content,
		WordCount: CountWords(content),
		Sections:  len(brief.Outline) + 2,
	}

	g.log.Info("Generated article",
		"title", brief.Title,
		"sections", article.Sections,
		"words", article.WordCount,
		"duration", time.Since(start))
	return article, nil
}

// GenerateIntroduction writes the opening paragraph.
func (g *Generator) GenerateIntroduction(ctx context.Context, brief core.Brief) (string, error) {
	keyPoints := strings.Join(brief.KeyPoints, ", ")
	refs := g.references(ctx, fmt.Sprintf("%s introduction %s", brief.Title, keyPoints))

	prompt := BuildIntroductionPrompt(brief.Title, keyPoints, brief.Recommendations.Audience(), tone(brief), refs)
	text, err := g.llm.GenerateText(ctx, prompt, g.textOptions(g.opts.Model))
	if err != nil {
		return "", fmt.Errorf("introduction generation failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// GenerateSection writes one outline section. previous is tail-truncated to
// the section context limit.
func (g *Generator) GenerateSection(ctx context.Context, item core.OutlineItem, brief core.Brief, previous string) (string, error) {
	subpoints := strings.Join(item.Subpoints, ", ")
	audience := brief.Recommendations.Audience()
	refs := g.references(ctx, fmt.Sprintf("%s %s %s", item.Heading, subpoints, audience))

	previous = TailTruncate(previous, g.opts.SectionContextLimit)
	prompt := BuildSectionPrompt(item.Heading, subpoints, previous, tone(brief), audience, refs)
	text, err := g.llm.GenerateText(ctx, prompt, g.textOptions(g.opts.Model))
	if err != nil {
		return "", fmt.Errorf("section generation failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// GenerateConclusion writes the closing paragraph with the conclusion model.
func (g *Generator) GenerateConclusion(ctx context.Context, brief core.Brief, articleContent string) (string, error) {
	keyPoints := strings.Join(brief.KeyPoints, ", ")
	refs := g.references(ctx, fmt.Sprintf("%s conclusion summary %s", brief.Title, keyPoints))

	articleContent = TailTruncate(articleContent, g.opts.ConclusionContextLimit)
	prompt := BuildConclusionPrompt(brief.Title, keyPoints, articleContent, tone(brief), refs)
	text, err := g.llm.GenerateText(ctx, prompt, g.textOptions(g.opts.ConclusionModel))
	if err != nil {
		return "", fmt.Errorf("conclusion generation failed: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (g *Generator) references(ctx context.Context, query string) string {
	if g.retriever == nil {
		return rag.FormatReferences(nil)
	}
	return rag.FormatReferences(g.retriever.Retrieve(ctx, query, g.opts.TopK))
}

func (g *Generator) textOptions(model string) llm.TextGenerationOptions {
	return llm.TextGenerationOptions{
		Model:       model,
		Temperature: g.opts.Temperature,
		MaxTokens:   g.opts.MaxTokens,
	}
}

func tone(brief core.Brief) string {
	if brief.Recommendations.Tone == "" {
		return core.DefaultTone
	}
	return brief.Recommendations.Tone
}

func previousContent(intro string, sections []string) string {
	return intro + "\n\n" + strings.Join(sections, "\n\n")
}

// TailTruncate keeps the last limit characters of s.
func TailTruncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[len(runes)-limit:])
}

// Assemble joins the article parts into markdown: the title heading, the
// introduction, sections separated by blank lines, and the conclusion.
func Assemble(title, intro string, sections []string, conclusion string) string {
	parts := []string{"# " + title, "", intro, ""}
	for i, section := range sections {
		parts = append(parts, section)
		if i < len(sections)-1 {
			parts = append(parts, "")
		}
	}
	parts = append(parts, "", conclusion)
	return strings.Join(parts, "\n")
}

// CountWords counts whitespace-separated tokens.
func CountWords(content string) int {
	return len(strings.Fields(content))
}
