package services

import (
	"context"
	"errors"
	"sync"

	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driven"
)

// fakeEmbedder returns a deterministic unit vector per text and records
// batch sizes.
type fakeEmbedder struct {
	mu         sync.Mutex
	batchSizes []int
	err        error
	queryVec   []float32
}

func (f *fakeEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchSizes = append(f.batchSizes, len(texts))
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if f.queryVec != nil {
			out[i] = f.queryVec
			continue
		}
		// Cheap deterministic vector keyed on content length.
		v := float32(len(text)%7 + 1)
		out[i] = []float32{v, 1, 0}
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int { return 3 }
func (f *fakeEmbedder) Close() error    { return nil }

// flakyStore wraps a store and fails the first failUpserts upserts with
// the given error.
type flakyStore struct {
	driven.VectorStore

	failUpserts int
	failWith    error
	attempts    int
	maxBatch    int
}

func (s *flakyStore) Upsert(ctx context.Context, records []driven.Record) error {
	s.attempts++
	if s.attempts <= s.failUpserts {
		return s.failWith
	}
	return s.VectorStore.Upsert(ctx, records)
}

func (s *flakyStore) MaxBatchSize() int {
	if s.maxBatch > 0 {
		return s.maxBatch
	}
	return s.VectorStore.MaxBatchSize()
}

// recordingStore captures Query arguments.
type recordingStore struct {
	driven.VectorStore

	lastQueryK int
}

func (s *recordingStore) Query(ctx context.Context, vector []float32, k int) ([]driven.Hit, error) {
	s.lastQueryK = k
	return s.VectorStore.Query(ctx, vector, k)
}

// fakeParser returns canned parse output and counts invocations.
type fakeParser struct {
	doc   *driven.ParsedDocument
	err   error
	calls int
}

func (p *fakeParser) Parse(_ context.Context, _ []byte, _ string) (*driven.ParsedDocument, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if p.doc != nil {
		return p.doc, nil
	}
	return &driven.ParsedDocument{Content: "parsed text content", Pages: 1}, nil
}

func (p *fakeParser) Close() error { return nil }

var errLocked = errors.New("database is locked (5) (SQLITE_BUSY)")
