// Package server exposes the generation pipeline over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"briefgen/internal/config"
	"briefgen/internal/logger"
	"briefgen/internal/pipeline"
)

const (
	defaultRequestTimeout = 5 * time.Minute
	defaultReadTimeout    = 15 * time.Second
	defaultWriteTimeout   = 5 * time.Minute
)

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	pipeline   *pipeline.Pipeline
	config     config.Server
	log        *slog.Logger
}

// New creates a new HTTP server instance
func New(p *pipeline.Pipeline, cfg config.Server, log *slog.Logger) *Server {
	if log == nil {
		log = logger.Get()
	}

	s := &Server{
		router:   chi.NewRouter(),
		pipeline: p,
		config:   cfg,
		log:      log.With("component", "server"),
	}

	// Setup middleware
	s.setupMiddleware()

	// Setup routes
	s.setupRoutes()

	// Create HTTP server
	s.httpServer = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  config.Duration(cfg.ReadTimeout, defaultReadTimeout),
		WriteTimeout: config.Duration(cfg.WriteTimeout, defaultWriteTimeout),
	}

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(config.Duration(s.config.RequestTimeout, defaultRequestTimeout)))
	s.router.Use(securityHeaders)

	if len(s.config.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: true,
			MaxAge:           300, // Maximum value not ignored by any major browsers
		}))
	}
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)

		r.Post("/generate-brief", s.handleGenerateBrief)
		r.Post("/generate-article", s.handleGenerateArticle)
		r.Post("/analyze-url", s.handleAnalyzeURL)

		// Article history is only mounted when a store is configured
		if s.pipeline.HistoryEnabled() {
			r.Route("/articles", func(r chi.Router) {
				r.Get("/", s.handleListArticles)
				r.Post("/", s.handleSaveArticle)
				r.Get("/{id}", s.handleGetArticle)
			})
		}

		r.With(s.requireAdminAPI).Delete("/rag", s.handleClearIndex)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		"addr", s.httpServer.Addr,
		"read_timeout", s.httpServer.ReadTimeout,
		"write_timeout", s.httpServer.WriteTimeout,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server gracefully...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}
