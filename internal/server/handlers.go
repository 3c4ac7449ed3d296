package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"briefgen/internal/brief"
	"briefgen/internal/core"
)

// Version is reported by the status endpoint
var Version = "dev"

const maxRequestBytes = 1 << 20

// MessageResponse is returned by the root endpoint
type MessageResponse struct {
	Message string `json:"message"`
}

// HealthResponse is returned by the health endpoints
type HealthResponse struct {
	Status string `json:"status"`
}

// StatusResponse describes the running service
type StatusResponse struct {
	Version        string          `json:"version"`
	Uptime         string          `json:"uptime"`
	Model          string          `json:"model"`
	Index          core.IndexStats `json:"index"`
	HistoryEnabled bool            `json:"history_enabled"`
}

// ErrorResponse carries a failure message
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// AnalyzeURLRequest is the body of POST /api/analyze-url
type AnalyzeURLRequest struct {
	URL string `json:"url"`
}

// ArticleListResponse wraps saved articles
type ArticleListResponse struct {
	Articles []core.SavedArticle `json:"articles"`
	Count    int                 `json:"count"`
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, MessageResponse{Message: "Content Brief Generator API"})
}

// handleHealth handles /health and /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, StatusResponse{
		Version:        Version,
		Uptime:         s.pipeline.Uptime().Round(time.Second).String(),
		Model:          s.pipeline.Model,
		Index:          s.pipeline.IndexStats(),
		HistoryEnabled: s.pipeline.HistoryEnabled(),
	})
}

// handleGenerateBrief handles POST /api/generate-brief
func (s *Server) handleGenerateBrief(w http.ResponseWriter, r *http.Request) {
	var req core.BriefRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	result, err := s.pipeline.GenerateBrief(r.Context(), req)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

// handleGenerateArticle handles POST /api/generate-article. The body is a
// brief plus an optional "format"; it goes through the same validation as a
// generated brief.
func (s *Server) handleGenerateArticle(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := decodeJSON(r, &body); err != nil {
		s.respondError(w, err)
		return
	}

	format, _ := body["format"].(string)
	delete(body, "format")

	validated, err := brief.Validate(body)
	if err != nil {
		s.respondError(w, fmt.Errorf("%w: %w", core.ErrInvalidRequest, err))
		return
	}

	result, err := s.pipeline.GenerateArticle(r.Context(), validated, format)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

// handleAnalyzeURL handles POST /api/analyze-url
func (s *Server) handleAnalyzeURL(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeURLRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	analysis, err := s.pipeline.AnalyzeURL(r.Context(), req.URL)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, analysis)
}

// handleListArticles handles GET /api/articles
func (s *Server) handleListArticles(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.respondError(w, fmt.Errorf("%w: limit must be a non-negative integer", core.ErrInvalidRequest))
			return
		}
		limit = n
	}

	articles, err := s.pipeline.ListArticles(r.Context(), limit)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, ArticleListResponse{Articles: articles, Count: len(articles)})
}

// handleSaveArticle handles POST /api/articles
func (s *Server) handleSaveArticle(w http.ResponseWriter, r *http.Request) {
	var req core.SavedArticle
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, err)
		return
	}

	saved, err := s.pipeline.SaveArticle(r.Context(), req)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, saved)
}

// handleGetArticle handles GET /api/articles/{id}
func (s *Server) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	article, err := s.pipeline.GetArticle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, article)
}

// handleClearIndex handles DELETE /api/rag
func (s *Server) handleClearIndex(w http.ResponseWriter, r *http.Request) {
	s.pipeline.ClearIndex()
	s.respondJSON(w, http.StatusOK, MessageResponse{Message: "Retrieval index cleared"})
}

// decodeJSON reads a bounded JSON body into v
func decodeJSON(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", core.ErrInvalidRequest)
		}
		return fmt.Errorf("%w: %v", core.ErrInvalidRequest, err)
	}
	return nil
}

// statusFor maps an error onto an HTTP status
func statusFor(err error) int {
	switch core.KindOf(err) {
	case core.KindInvalidURL, core.KindInvalidRequest:
		return http.StatusBadRequest
	case core.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"detail": ...} with its mapped status
func (s *Server) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", "kind", core.KindOf(err), "error", err)
	} else {
		s.log.Debug("Request rejected", "kind", core.KindOf(err), "error", err)
	}
	s.respondDetail(w, status, err.Error())
}

// respondDetail writes a bare error message
func (s *Server) respondDetail(w http.ResponseWriter, status int, detail string) {
	s.respondJSON(w, status, ErrorResponse{Detail: detail})
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Failed to encode JSON response", "error", err)
	}
}
