/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"briefgen/internal/config"
	"briefgen/internal/logger"
	"briefgen/internal/pipeline"
)

var cfgFile string

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "briefgen",
		Short: "Generate SEO content briefs and full articles with Gemini.",
		Long: `briefgen turns a keyword, or a web page, into a structured content brief
and expands briefs into complete articles grounded in scraped reference material.

Run it as an HTTP API with 'briefgen serve', or use the brief, article and
analyze commands directly from the terminal.`,
		SilenceUsage: true,
	}

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./.briefgen.yaml or $HOME/.briefgen.yaml)")

	// Add subcommands
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewBriefCmd())
	rootCmd.AddCommand(NewArticleCmd())
	rootCmd.AddCommand(NewAnalyzeCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads configuration and applies its logging settings
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if cfg.App.Debug {
		level = "debug"
	}
	log := logger.Configure(logger.Options{Level: level, Format: cfg.Logging.Format, Output: os.Stderr})

	// Show which config file is being used (if any)
	if cfg.App.ConfigFile != "" {
		log.Debug("Using config file", "path", cfg.App.ConfigFile)
	}
	return cfg, log, nil
}

// buildPipeline loads configuration and wires every component
func buildPipeline(ctx context.Context) (*pipeline.Pipeline, *config.Config, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	p, err := pipeline.NewBuilder(cfg).WithLogger(log).Build(ctx)
	if err != nil {
		return nil, nil, err
	}
	return p, cfg, nil
}
