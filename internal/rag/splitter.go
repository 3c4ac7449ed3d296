package rag

import (
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order, from paragraph breaks down to a hard
// character cut.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Piece is a span of the source text. Start is a byte offset into the text
// passed to Split.
type Piece struct {
	Text  string
	Start int
}

// End returns the byte offset just past the piece.
func (p Piece) End() int {
	return p.Start + len(p.Text)
}

// Splitter breaks text into overlapping chunks of at most ChunkSize runes,
// preferring to cut at the coarsest separator available. Separators stay
// attached to the end of the piece they terminate, so consecutive chunks
// tile the source exactly apart from their overlap.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewSplitter creates a splitter. Overlap is clamped below the chunk size.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = 700
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize - 1
	}
	return &Splitter{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}
}

// Split returns the chunks of text in order. A whitespace-only chunk is
// folded into a neighbouring chunk, or kept on its own when neither has room;
// whitespace at the edges of the text is dropped. Empty input yields no chunks.
func (s *Splitter) Split(text string) []Piece {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []Piece
	var pending *Piece
	for _, p := range s.split(text, 0, s.separators) {
		if strings.TrimSpace(p.Text) == "" {
			if n := len(out); n > 0 && out[n-1].End() >= p.End() {
				continue
			}
			if n := len(out); pending == nil && n > 0 && out[n-1].End() >= p.Start {
				if extended := s.span(text, out[n-1].Start, p.End()); extended != nil {
					out[n-1] = *extended
					continue
				}
			}
			if pending != nil {
				if extended := s.span(text, pending.Start, p.End()); extended != nil {
					pending = extended
					continue
				}
				if len(out) > 0 {
					out = append(out, *pending)
				}
			}
			ws := p
			pending = &ws
			continue
		}

		if pending != nil {
			if p.Start > pending.Start {
				if extended := s.span(text, pending.Start, p.End()); extended != nil {
					p = *extended
				} else if len(out) > 0 {
					out = append(out, *pending)
				}
			}
			pending = nil
		}
		out = append(out, p)
	}
	return out
}

// span returns text[start:end] as a piece, or nil when it would exceed the
// chunk size.
func (s *Splitter) span(text string, start, end int) *Piece {
	if runeLen(text[start:end]) > s.chunkSize {
		return nil
	}
	return &Piece{Text: text[start:end], Start: start}
}

func (s *Splitter) split(text string, offset int, separators []string) []Piece {
	separator, rest := chooseSeparator(text, separators)

	var chunks []Piece
	var fitting []Piece
	for _, piece := range splitKeep(text, offset, separator) {
		if runeLen(piece.Text) <= s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			chunks = append(chunks, s.merge(fitting)...)
			fitting = nil
		}
		if len(rest) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece.Text, piece.Start, rest)...)
		}
	}
	if len(fitting) > 0 {
		chunks = append(chunks, s.merge(fitting)...)
	}
	return chunks
}

// merge packs adjacent pieces into chunks, carrying up to chunkOverlap runes
// of trailing pieces into the next chunk.
func (s *Splitter) merge(pieces []Piece) []Piece {
	var chunks []Piece
	var window []Piece
	total := 0

	for _, piece := range pieces {
		n := runeLen(piece.Text)
		if total+n > s.chunkSize && len(window) > 0 {
			chunks = append(chunks, join(window))
			for total > s.chunkOverlap || (total+n > s.chunkSize && total > 0) {
				total -= runeLen(window[0].Text)
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += n
	}
	if len(window) > 0 {
		chunks = append(chunks, join(window))
	}
	return chunks
}

func chooseSeparator(text string, separators []string) (string, []string) {
	for i, sep := range separators {
		if sep == "" {
			return "", nil
		}
		if strings.Contains(text, sep) {
			return sep, separators[i+1:]
		}
	}
	return "", nil
}

// splitKeep splits text after each occurrence of sep. An empty sep splits
// into single runes.
func splitKeep(text string, offset int, sep string) []Piece {
	var pieces []Piece
	if sep == "" {
		for i, r := range text {
			pieces = append(pieces, Piece{Text: string(r), Start: offset + i})
		}
		return pieces
	}

	start := 0
	for {
		idx := strings.Index(text[start:], sep)
		if idx < 0 {
			break
		}
		end := start + idx + len(sep)
		pieces = append(pieces, Piece{Text: text[start:end], Start: offset + start})
		start = end
	}
	if start < len(text) {
		pieces = append(pieces, Piece{Text: text[start:], Start: offset + start})
	}
	return pieces
}

func join(pieces []Piece) Piece {
	var sb strings.Builder
	for _, p := range pieces {
		sb.WriteString(p.Text)
	}
	return Piece{Text: sb.String(), Start: pieces[0].Start}
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
