package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"briefgen/internal/core"
)

// NewBriefCmd creates the brief command
func NewBriefCmd() *cobra.Command {
	var (
		req     core.BriefRequest
		fromURL string
		output  string
	)

	cmd := &cobra.Command{
		Use:   "brief [keyword]",
		Short: "Generate a content brief for a keyword",
		Long: `Generate a structured content brief: title, meta description, outline,
key points and tone/style recommendations.

With --from-url the page is scraped and analyzed first. Its inferred keyword
and audience fill any value not given on the command line, and its text is
indexed as reference material.

Examples:
  briefgen brief "sourdough starter" --audience "home bakers"
  briefgen brief --from-url https://example.com/post --output yaml > brief.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				req.Keyword = args[0]
			}
			if strings.TrimSpace(req.Keyword) == "" && fromURL == "" {
				return fmt.Errorf("a keyword or --from-url is required")
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

			if fromURL != "" {
				analysis, err := p.AnalyzeURL(ctx, fromURL)
				if err != nil {
					return err
				}
				if req.Keyword == "" {
					req.Keyword = analysis.Keyword
				}
				if req.TargetAudience == "" {
					req.TargetAudience = analysis.TargetAudience
				}
				req.ScrapedContent = analysis.ScrapedContent
				req.SourceURL = fromURL
			}

			result, err := p.GenerateBrief(ctx, req)
			if err != nil {
				return err
			}
			return writeStructured(cmd.OutOrStdout(), output, result)
		},
	}

	cmd.Flags().StringVar(&req.ContentType, "content-type", core.DefaultContentType, "Type of content (blog, guide, landing page, ...)")
	cmd.Flags().StringVar(&req.Tone, "tone", core.DefaultTone, "Tone of voice")
	cmd.Flags().StringVar(&req.TargetAudience, "audience", "", "Target audience (default \"general audience\")")
	cmd.Flags().StringVar(&fromURL, "from-url", "", "Scrape and analyze this page first")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json, yaml or markdown")

	return cmd
}
