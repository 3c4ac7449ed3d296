package handlers

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"briefgen/internal/core"
	"briefgen/internal/cost"
	"briefgen/internal/parser"
	"briefgen/internal/pipeline"
)

// NewArticleCmd creates the article command
func NewArticleCmd() *cobra.Command {
	var (
		briefPath string
		refsPath  string
		format    string
		outPath   string
		dryRun    bool
		save      bool
		keyword   string
		model     string
	)

	cmd := &cobra.Command{
		Use:   "article",
		Short: "Expand a saved brief into a full article",
		Long: `Generate a complete markdown article from a brief produced by 'briefgen brief'.
The introduction, every outline section and the conclusion are written in turn,
each grounded in reference material. Pages linked from a markdown file given
with --references are scraped and indexed first.

Examples:
  briefgen article --brief brief.json > article.md
  briefgen article --brief brief.json --references links.md
  briefgen article --brief brief.yaml --format html --out article.html
  briefgen article --brief brief.json --dry-run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := readBriefFile(briefPath)
			if err != nil {
				return err
			}

			// Dry run: show the projected cost without loading credentials
			if dryRun {
				_, err := fmt.Fprint(cmd.OutOrStdout(), cost.EstimateArticleCost(b, model).FormatEstimate())
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			p, _, err := buildPipeline(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			if refsPath != "" {
				urls, err := parser.ParseReferenceFile(refsPath)
				if err != nil {
					return err
				}
				n := p.IngestReferences(ctx, urls)
				fmt.Fprintf(cmd.ErrOrStderr(), "Indexed %d of %d reference pages\n", n, len(urls))
			}

			return runArticle(ctx, p, b, articleOptions{
				format:  format,
				outPath: outPath,
				save:    save,
				keyword: keyword,
			}, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&briefPath, "brief", "", "Path to a brief file (JSON or YAML)")
	cmd.Flags().StringVar(&refsPath, "references", "", "Markdown file whose links are scraped as reference material")
	cmd.Flags().StringVar(&format, "format", pipeline.FormatMarkdown, "Output format: markdown or html")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the article to this file instead of stdout")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Estimate cost without calling the model")
	cmd.Flags().BoolVar(&save, "save", false, "Store the article in history")
	cmd.Flags().StringVar(&keyword, "keyword", "", "Keyword recorded with a saved article")
	cmd.Flags().StringVar(&model, "model", "gemini-2.5-flash", "Model used for --dry-run pricing")
	_ = cmd.MarkFlagRequired("brief")

	return cmd
}

type articleOptions struct {
	format  string
	outPath string
	save    bool
	keyword string
}

// runArticle generates the article for b, optionally saves it and writes the
// requested format to out or opts.outPath. Progress goes to status.
func runArticle(ctx context.Context, p *pipeline.Pipeline, b core.Brief, opts articleOptions, out, status io.Writer) error {
	format := strings.ToLower(strings.TrimSpace(opts.format))
	if opts.save && !p.HistoryEnabled() {
		return fmt.Errorf("cannot save article: %w", pipeline.ErrStoreDisabled)
	}

	article, err := p.GenerateArticle(ctx, b, format)
	if err != nil {
		return err
	}

	if opts.save {
		saved, err := p.SaveArticle(ctx, core.SavedArticle{
			Title:          article.Title,
			Content:        article.Content,
			Keyword:        opts.keyword,
			Tone:           b.Recommendations.Tone,
			TargetAudience: b.Recommendations.Audience(),
			WordCount:      article.WordCount,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(status, "Saved article %s\n", saved.ID)
	}

	content := article.Content
	if format == pipeline.FormatHTML {
		content = article.ContentHTML
	}
	if err := writeText(out, opts.outPath, content); err != nil {
		return err
	}
	fmt.Fprintf(status, "%d words, %d sections\n", article.WordCount, article.Sections)
	return nil
}
