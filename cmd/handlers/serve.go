package handlers

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"briefgen/internal/server"
)

const shutdownTimeout = 30 * time.Second

// NewServeCmd creates the serve command for starting the HTTP server
func NewServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the content brief HTTP API.

The server provides:
  • POST /api/generate-brief, /api/generate-article and /api/analyze-url
  • Article history under /api/articles (when the store is enabled)
  • Health check and status endpoints

Examples:
  # Start server on the default port 8000
  briefgen serve

  # Start on custom port
  briefgen serve --port 3001`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), port, host)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (default from config: 8000)")
	cmd.Flags().StringVar(&host, "host", "", "HTTP server host (default from config: 0.0.0.0)")

	return cmd
}

func runServe(ctx context.Context, port int, host string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	p, cfg, err := buildPipeline(ctx)
	if err != nil {
		return err
	}
	defer p.Close()

	// Override server config from flags if provided
	serverCfg := cfg.Server
	if port != 0 {
		serverCfg.Port = port
	}
	if host != "" {
		serverCfg.Host = host
	}

	srv := server.New(p, serverCfg, nil)

	// Channel to listen for errors coming from the server
	serverErrors := make(chan error, 1)

	go func() {
		fmt.Fprintf(os.Stderr, "Server listening on http://%s\n", serverCfg.Addr())
		fmt.Fprintln(os.Stderr, "Press Ctrl+C to stop")
		serverErrors <- srv.Start()
	}()

	// Channel to listen for interrupt signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	// Block until we receive our signal or an error from server
	select {
	case err := <-serverErrors:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case <-shutdown:
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
	}

	return nil
}
