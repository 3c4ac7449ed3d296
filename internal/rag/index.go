// Package rag holds the in-memory retrieval index used to ground generation
// in previously ingested source material.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"sync"

	"briefgen/internal/core"
	"briefgen/internal/logger"
)

// ErrDimensionMismatch is returned when an embedding does not match the index dimension
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Options configures an Index.
type Options struct {
	ChunkSize           int
	ChunkOverlap        int
	SimilarityThreshold float64
	CacheSize           int
}

// DefaultOptions returns the stock chunking and retrieval settings.
func DefaultOptions() Options {
	return Options{
		ChunkSize:           700,
		ChunkOverlap:        100,
		SimilarityThreshold: 0.1,
		CacheSize:           256,
	}
}

type record struct {
	vector []float32
	chunk  core.Chunk
}

// Index is an exact-search vector index over document chunks. Records are
// only ever appended; Clear drops them all. Embedding calls run outside the
// lock.
type Index struct {
	embedder  Embedder
	splitter  *Splitter
	cache     *EmbeddingCache
	threshold float64
	log       *slog.Logger

	mu        sync.RWMutex
	dimension int
	records   []record
}

// NewIndex creates an empty index.
func NewIndex(embedder Embedder, opts Options, log *slog.Logger) *Index {
	if log == nil {
		log = logger.Get()
	}
	idx := &Index{
		embedder:  embedder,
		splitter:  NewSplitter(opts.ChunkSize, opts.ChunkOverlap),
		threshold: opts.SimilarityThreshold,
		log:       log.With("component", "rag"),
	}
	if opts.CacheSize > 0 {
		idx.cache = NewEmbeddingCache(opts.CacheSize)
	}
	return idx
}

// Ingest splits text, embeds every chunk and appends them under source.
// It returns the number of chunks added. Whitespace-only text is a no-op.
// If any embedding fails nothing is appended.
func (idx *Index) Ingest(ctx context.Context, source, text string) (int, error) {
	pieces := idx.splitter.Split(text)
	if len(pieces) == 0 {
		return 0, nil
	}

	texts := make([]string, len(pieces))
	for i, p := range pieces {
		texts[i] = p.Text
	}

	vectors, err := idx.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embed chunks of %s: %w", source, err)
	}
	if len(vectors) != len(texts) {
		return 0, fmt.Errorf("embed chunks of %s: got %d vectors for %d chunks: %w", source, len(vectors), len(texts), core.ErrUpstream)
	}

	dim := len(vectors[0])
	if dim == 0 {
		return 0, fmt.Errorf("embed chunks of %s: empty embedding: %w", source, core.ErrUpstream)
	}
	for _, v := range vectors {
		if len(v) != dim {
			return 0, fmt.Errorf("%w: chunk embeddings of %s vary between %d and %d", ErrDimensionMismatch, source, dim, len(v))
		}
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dimension != 0 && idx.dimension != dim {
		return 0, fmt.Errorf("%w: got %d, index has %d", ErrDimensionMismatch, dim, idx.dimension)
	}
	idx.dimension = dim

	for i, p := range pieces {
		vec := make([]float32, dim)
		copy(vec, vectors[i])
		idx.records = append(idx.records, record{
			vector: vec,
			chunk:  core.Chunk{Text: p.Text, Source: source, ChunkIndex: i},
		})
	}

	idx.log.Info("Ingested document", "source", source, "chunks", len(pieces), "total_records", len(idx.records))
	return len(pieces), nil
}

// Retrieve returns up to k chunks whose similarity to query, 1/(1+L2), is
// at least the configured threshold, most similar first. Ties keep
// insertion order. It never fails: an empty index, k <= 0 or a failed
// query embedding all yield an empty result.
func (idx *Index) Retrieve(ctx context.Context, query string, k int) []core.RetrievedChunk {
	results := []core.RetrievedChunk{}
	if k <= 0 || idx.Len() == 0 {
		return results
	}

	qvec, err := idx.embedQuery(ctx, query)
	if err != nil {
		idx.log.Warn("Query embedding failed, returning no references", "error", err.Error())
		return results
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.records) == 0 {
		return results
	}
	if len(qvec) != idx.dimension {
		idx.log.Warn("Query embedding dimension mismatch", "got", len(qvec), "want", idx.dimension)
		return results
	}

	for _, rec := range idx.records {
		score := Similarity(L2Distance(qvec, rec.vector))
		if score < idx.threshold {
			continue
		}
		results = append(results, core.RetrievedChunk{
			Content:    rec.chunk.Text,
			Source:     rec.chunk.Source,
			ChunkIndex: rec.chunk.ChunkIndex,
			Score:      score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > k {
		results = results[:k]
	}
	return results
}

func (idx *Index) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if idx.cache != nil {
		if v, ok := idx.cache.Get(query); ok {
			return v, nil
		}
	}
	v, err := idx.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if idx.cache != nil {
		idx.cache.Set(query, v)
	}
	return v, nil
}

// Clear drops every record and returns the index to its uninitialized state.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	n := len(idx.records)
	idx.records = nil
	idx.dimension = 0
	idx.log.Info("Cleared index", "dropped_records", n)
}

// Len returns the number of stored chunks.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.records)
}

// Stats reports record count, distinct sources in first-seen order and the
// vector dimension (0 when uninitialized).
func (idx *Index) Stats() core.IndexStats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	seen := make(map[string]bool)
	sources := []string{}
	for _, rec := range idx.records {
		if !seen[rec.chunk.Source] {
			seen[rec.chunk.Source] = true
			sources = append(sources, rec.chunk.Source)
		}
	}
	return core.IndexStats{
		Records:   len(idx.records),
		Sources:   sources,
		Dimension: idx.dimension,
	}
}

// L2Distance returns the Euclidean distance between two equal-length vectors.
func L2Distance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Similarity maps a distance onto (0, 1].
func Similarity(distance float64) float64 {
	return 1 / (1 + distance)
}

const noReferences = "No reference content available."

// FormatReferences renders retrieved chunks for inclusion in a prompt.
func FormatReferences(chunks []core.RetrievedChunk) string {
	if len(chunks) == 0 {
		return noReferences
	}
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = fmt.Sprintf("[Source: %s]\n%s", c.Source, c.Content)
	}
	return strings.Join(parts, "\n\n")
}
