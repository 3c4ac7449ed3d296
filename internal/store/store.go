// Package store keeps a SQLite history of generated articles.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"briefgen/internal/core"
)

// DefaultListLimit bounds ListArticles when no limit is given.
const DefaultListLimit = 50

// Store represents the SQLite-based article history
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// NewStore opens (creating if needed) the database at dbPath
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:   db,
		path: dbPath,
		now:  func() time.Time { return time.Now().UTC() },
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables
func (s *Store) initialize() error {
	statements := []string{`
	CREATE TABLE IF NOT EXISTS articles (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		keyword TEXT,
		content_type TEXT,
		tone TEXT,
		target_audience TEXT,
		word_count INTEGER,
		created_at DATETIME NOT NULL
	);`,
		`CREATE INDEX IF NOT EXISTS idx_articles_created_at ON articles (created_at);`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveArticle persists an article, assigning its ID and creation time.
func (s *Store) SaveArticle(ctx context.Context, article core.SavedArticle) (core.SavedArticle, error) {
	if strings.TrimSpace(article.Title) == "" || strings.TrimSpace(article.Content) == "" {
		return core.SavedArticle{}, fmt.Errorf("%w: title and content are required", core.ErrInvalidRequest)
	}

	article.ID = uuid.NewString()
	article.CreatedAt = s.now()
	if article.WordCount == 0 {
		article.WordCount = len(strings.Fields(article.Content))
	}

	query := `
	INSERT INTO articles
	(id, title, content, keyword, content_type, tone, target_audience, word_count, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		article.ID,
		article.Title,
		article.Content,
		article.Keyword,
		article.ContentType,
		article.Tone,
		article.TargetAudience,
		article.WordCount,
		article.CreatedAt,
	)
	if err != nil {
		return core.SavedArticle{}, fmt.Errorf("failed to save article: %w", err)
	}

	return article, nil
}

// ListArticles returns up to limit articles, newest first.
func (s *Store) ListArticles(ctx context.Context, limit int) ([]core.SavedArticle, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	query := `
	SELECT id, title, content, keyword, content_type, tone, target_audience, word_count, created_at
	FROM articles
	ORDER BY created_at DESC, rowid DESC
	LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	articles := []core.SavedArticle{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate articles: %w", err)
	}

	return articles, nil
}

// GetArticle loads one article. Unknown IDs wrap core.ErrNotFound.
func (s *Store) GetArticle(ctx context.Context, id string) (core.SavedArticle, error) {
	query := `
	SELECT id, title, content, keyword, content_type, tone, target_audience, word_count, created_at
	FROM articles
	WHERE id = ?`

	article, err := scanArticle(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavedArticle{}, fmt.Errorf("article %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.SavedArticle{}, err
	}
	return article, nil
}

// Stats represents article history statistics
type Stats struct {
	ArticleCount int       `json:"article_count"`
	SizeBytes    int64     `json:"size_bytes"`
	LastUpdated  time.Time `json:"last_updated"`
}

// GetStats returns statistics about the article history
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&stats.ArticleCount); err != nil {
		return Stats{}, fmt.Errorf("failed to get count: %w", err)
	}

	if fileInfo, err := os.Stat(s.path); err == nil {
		stats.SizeBytes = fileInfo.Size()
		stats.LastUpdated = fileInfo.ModTime()
	}

	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanArticle(row scanner) (core.SavedArticle, error) {
	var (
		article                              core.SavedArticle
		keyword, contentType, tone, audience sql.NullString
		wordCount                            sql.NullInt64
	)

	err := row.Scan(
		&article.ID,
		&article.Title,
		&article.Content,
		&keyword,
		&contentType,
		&tone,
		&audience,
		&wordCount,
		&article.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SavedArticle{}, err
	}
	if err != nil {
		return core.SavedArticle{}, fmt.Errorf("failed to scan article: %w", err)
	}

	article.Keyword = keyword.String
	article.ContentType = contentType.String
	article.Tone = tone.String
	article.TargetAudience = audience.String
	article.WordCount = int(wordCount.Int64)
	return article, nil
}
