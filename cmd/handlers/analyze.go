package handlers

import (
	"context"

	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze command
func NewAnalyzeCmd() *cobra.Command {
	var (
		output      string
		withContent bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <url>",
		Short: "Infer a keyword and target audience from a web page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			p, _, err := buildPipeline(ctx)
			if err != nil {
				return err
			}
			defer p.Close()

			analysis, err := p.AnalyzeURL(ctx, args[0])
			if err != nil {
				return err
			}
			if !withContent {
				analysis.ScrapedContent = ""
			}
			return writeStructured(cmd.OutOrStdout(), output, analysis)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format: json or yaml")
	cmd.Flags().BoolVar(&withContent, "with-content", false, "Include the scraped page text")

	return cmd
}
