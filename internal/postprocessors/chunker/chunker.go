// Package chunker splits document text into overlapping, sentence-aligned
// chunks and coalesces undersized neighbours. All functions are pure:
// re-invoking with the same inputs reproduces the same sequence.
package chunker

import (
	"strings"

	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 100

// boundaryMarkers is the ordered preference list of sentence-like
// boundaries to snap chunk ends to. First match wins.
var boundaryMarkers = []string{". ", ".\n", "\n\n"}

// boundaryWindow restricts boundary search to the final fraction of the
// chunk window so snapping never produces degenerate tiny chunks.
const boundaryWindow = 0.7

// Splitter produces overlapping chunks at sentence-like boundaries.
type Splitter struct {
	chunkSize int
	overlap   int
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(s *Splitter) {
		if size > 0 {
			s.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(s *Splitter) {
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// New creates a Splitter with the given options.
func New(opts ...Option) *Splitter {
	s := &Splitter{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(s)
	}

	// Overlap must stay strictly below the chunk size for the cursor to advance.
	if s.overlap >= s.chunkSize {
		s.overlap = s.chunkSize / 4
	}

	return s
}

// ChunkSize returns the configured chunk size.
func (s *Splitter) ChunkSize() int {
	return s.chunkSize
}

// Split chops text into overlapping chunks. The emitted [start, end)
// ranges cover [0, len(text)) with no gaps; each chunk's text is the
// trimmed slice of the range and is never empty. Empty input produces
// no chunks.
func (s *Splitter) Split(text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	estimated := len(text)/(s.chunkSize-s.overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	start := 0
	for start < len(text) {
		end := start + s.chunkSize
		if end > len(text) {
			end = len(text)
		}

		if end < len(text) {
			// Snap to the last sentence boundary, but only within the final
			// 30% of the window to avoid creating tiny chunks.
			searchStart := start + int(float64(s.chunkSize)*boundaryWindow)
			for _, sep := range boundaryMarkers {
				if pos := lastIndexWithin(text, sep, searchStart, end); pos > searchStart {
					end = pos + len(sep)
					break
				}
			}
		}

		if trimmed := strings.TrimSpace(text[start:end]); trimmed != "" {
			chunks = append(chunks, domain.Chunk{Text: trimmed, Start: start, End: end})
		}

		next := len(text)
		if end < len(text) {
			next = end - s.overlap
		}
		// Boundary snapping can pull end close to start; force progress
		// by at least one character so the loop always terminates.
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// lastIndexWithin returns the index of the last occurrence of sep in
// text[from:to], or -1. Indices are relative to text.
func lastIndexWithin(text, sep string, from, to int) int {
	if from < 0 {
		from = 0
	}
	if to > len(text) || from >= to {
		return -1
	}
	idx := strings.LastIndex(text[from:to], sep)
	if idx < 0 {
		return -1
	}
	return from + idx
}
