package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"briefgen/internal/core"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(filepath.Join(t.TempDir(), "data", "articles.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// fixedClock returns a clock that advances one minute per call
func fixedClock() func() time.Time {
	current := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		current = current.Add(time.Minute)
		return current
	}
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "articles.db")

	store, err := NewStore(dbPath)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	defer func() { _ = store.Close() }()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should be created")
	}
}

func TestNewStore_InvalidDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	file := filepath.Join(tmpDir, "file.txt")
	_ = os.WriteFile(file, []byte("test"), 0644)

	_, err := NewStore(filepath.Join(file, "articles.db"))
	if err == nil {
		t.Error("Expected error when the parent path is a file")
	}
}

func TestSaveAndGetArticle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved, err := store.SaveArticle(ctx, core.SavedArticle{
		Title:          "Sourdough Basics",
		Content:        "# Sourdough Basics\n\nFlour, water, salt.",
		Keyword:        "sourdough",
		ContentType:    "blog",
		Tone:           "friendly",
		TargetAudience: "home bakers",
	})
	if err != nil {
		t.Fatalf("SaveArticle failed: %v", err)
	}

	if saved.ID == "" {
		t.Error("Expected an ID to be assigned")
	}
	if saved.CreatedAt.IsZero() {
		t.Error("Expected CreatedAt to be set")
	}
	if saved.WordCount != 6 {
		t.Errorf("Expected word count 6, got %d", saved.WordCount)
	}

	got, err := store.GetArticle(ctx, saved.ID)
	if err != nil {
		t.Fatalf("GetArticle failed: %v", err)
	}
	if got.Title != saved.Title || got.Content != saved.Content {
		t.Errorf("Round trip mismatch: got %+v", got)
	}
	if got.TargetAudience != "home bakers" || got.Tone != "friendly" {
		t.Errorf("Metadata not persisted: got %+v", got)
	}
	if !got.CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("Expected CreatedAt %v, got %v", saved.CreatedAt, got.CreatedAt)
	}
}

func TestSaveArticle_RequiresTitleAndContent(t *testing.T) {
	store := newTestStore(t)

	_, err := store.SaveArticle(context.Background(), core.SavedArticle{Title: "only title"})
	if !errors.Is(err, core.ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest, got %v", err)
	}
}

func TestGetArticle_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetArticle(context.Background(), "missing")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestListArticles_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	store.now = fixedClock()
	ctx := context.Background()

	for _, title := range []string{"first", "second", "third"} {
		if _, err := store.SaveArticle(ctx, core.SavedArticle{Title: title, Content: "body of " + title}); err != nil {
			t.Fatalf("SaveArticle failed: %v", err)
		}
	}

	articles, err := store.ListArticles(ctx, 0)
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if len(articles) != 3 {
		t.Fatalf("Expected 3 articles, got %d", len(articles))
	}
	want := []string{"third", "second", "first"}
	for i, a := range articles {
		if a.Title != want[i] {
			t.Errorf("Position %d: expected %q, got %q", i, want[i], a.Title)
		}
	}

	limited, err := store.ListArticles(ctx, 2)
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if len(limited) != 2 || limited[0].Title != "third" {
		t.Errorf("Expected the two newest articles, got %+v", limited)
	}
}

func TestListArticles_Empty(t *testing.T) {
	store := newTestStore(t)

	articles, err := store.ListArticles(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListArticles failed: %v", err)
	}
	if articles == nil || len(articles) != 0 {
		t.Errorf("Expected an empty non-nil slice, got %#v", articles)
	}
}

func TestGetStats(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, err := store.SaveArticle(ctx, core.SavedArticle{Title: "t", Content: "c"}); err != nil {
		t.Fatalf("SaveArticle failed: %v", err)
	}

	stats, err := store.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.ArticleCount != 1 {
		t.Errorf("Expected 1 article, got %d", stats.ArticleCount)
	}
	if stats.SizeBytes == 0 {
		t.Error("Expected a non-zero database size")
	}
}
