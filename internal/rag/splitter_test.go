package rag

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func proseText(paragraphs, sentences int) string {
	var sb strings.Builder
	for p := 0; p < paragraphs; p++ {
		for s := 0; s < sentences; s++ {
			fmt.Fprintf(&sb, "Paragraph %d sentence %d talks about retrieval and chunking. ", p, s)
		}
		sb.WriteString("\n\n")
	}
	return strings.TrimSpace(sb.String())
}

// reconstruct stitches chunks back together, dropping each chunk's overlap
// with its predecessor.
func reconstruct(t *testing.T, chunks []Piece) string {
	t.Helper()
	var sb strings.Builder
	end := 0
	for i, c := range chunks {
		if i > 0 {
			require.LessOrEqual(t, c.Start, end, "chunk %d leaves a gap", i)
			require.Greater(t, c.End(), end, "chunk %d adds nothing", i)
		}
		if c.Start < end {
			sb.WriteString(c.Text[end-c.Start:])
		} else {
			sb.WriteString(c.Text)
		}
		end = c.End()
	}
	return sb.String()
}

func TestSplitter_Reconstructs(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		size    int
		overlap int
	}{
		{"paragraphs", proseText(6, 8), 200, 50},
		{"default sizes", proseText(20, 10), 700, 100},
		{"single line", strings.Repeat("word ", 300), 120, 20},
		{"no separators", strings.Repeat("abcdefghij", 25), 10, 3},
		{"multibyte", strings.Repeat("héllo wörld ", 60), 50, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSplitter(tt.size, tt.overlap)
			chunks := s.Split(tt.text)
			require.NotEmpty(t, chunks)

			for i, c := range chunks {
				assert.LessOrEqual(t, utf8.RuneCountInString(c.Text), tt.size, "chunk %d too long", i)
				assert.Equal(t, tt.text[c.Start:c.End()], c.Text, "chunk %d offset", i)
			}
			assert.Equal(t, tt.text, reconstruct(t, chunks))
		})
	}
}

func TestSplitter_ShortTextIsOneChunk(t *testing.T) {
	s := NewSplitter(700, 100)
	chunks := s.Split("the quick brown fox")
	require.Len(t, chunks, 1)
	assert.Equal(t, "the quick brown fox", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Start)
}

func TestSplitter_EmptyText(t *testing.T) {
	s := NewSplitter(700, 100)
	assert.Empty(t, s.Split(""))
	assert.Empty(t, s.Split(" \n\n\t "))
}

func TestSplitter_PrefersParagraphBoundaries(t *testing.T) {
	text := strings.Repeat("a", 40) + "\n\n" + strings.Repeat("b", 40)
	chunks := NewSplitter(50, 0).Split(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("a", 40)+"\n\n", chunks[0].Text)
	assert.Equal(t, strings.Repeat("b", 40), chunks[1].Text)
}

func TestSplitter_OverlapCarriesTrailingPieces(t *testing.T) {
	text := "one two three four five six seven eight nine ten"
	chunks := NewSplitter(20, 10).Split(text)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		assert.Less(t, chunks[i].Start, chunks[i-1].End(), "chunk %d should overlap its predecessor", i)
	}
}

func TestNewSplitter_ClampsOverlap(t *testing.T) {
	s := NewSplitter(10, 50)
	assert.Equal(t, 9, s.chunkOverlap)
	s = NewSplitter(0, -1)
	assert.Equal(t, 700, s.chunkSize)
	assert.Equal(t, 0, s.chunkOverlap)
}

func TestSplitter_KeepsNewlineLeftByOverflowingParagraph(t *testing.T) {
	text := strings.Repeat("a", 9) + "\n\n" + "bbbb"
	chunks := NewSplitter(10, 0).Split(text)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("a", 9)+"\n", chunks[0].Text)
	assert.Equal(t, "\nbbbb", chunks[1].Text)
	assert.Equal(t, 10, chunks[1].Start)
	assert.Equal(t, text, reconstruct(t, chunks))
}

func TestSplitter_KeepsWhitespaceChunkWhenNeighboursAreFull(t *testing.T) {
	text := strings.Repeat("a", 9) + "\n\n" + strings.Repeat("b", 10)
	chunks := NewSplitter(10, 0).Split(text)
	require.Len(t, chunks, 3)
	assert.Equal(t, "\n", chunks[1].Text)
	assert.Equal(t, text, reconstruct(t, chunks))
}
