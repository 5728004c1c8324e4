// Package memory provides an in-memory vector store. It backs tests and
// acts as a reference implementation of the store contract; production
// runs use the sqlite adapter.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is an in-memory implementation of driven.VectorStore.
// Records keep insertion order; re-upserting an id updates in place.
type VectorStore struct {
	mu      sync.RWMutex
	order   []string
	records map[string]driven.Record
}

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		records: make(map[string]driven.Record),
	}
}

// Upsert inserts or overwrites records by ID.
func (s *VectorStore) Upsert(_ context.Context, records []driven.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		if _, exists := s.records[rec.ID]; !exists {
			s.order = append(s.order, rec.ID)
		}
		s.records[rec.ID] = rec
	}
	return nil
}

// Query returns the k nearest neighbours by cosine distance.
func (s *VectorStore) Query(_ context.Context, vector []float32, k int) ([]driven.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]driven.Hit, 0, len(s.records))
	for _, id := range s.order {
		rec := s.records[id]
		hits = append(hits, driven.Hit{
			ID:       rec.ID,
			Distance: 1 - dot(vector, rec.Embedding),
			Document: rec.Document,
			Metadata: rec.Metadata,
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Distance < hits[j].Distance })
	if k > 0 && len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Get returns all records matching the filter, in insertion order.
func (s *VectorStore) Get(_ context.Context, filter driven.Filter) ([]driven.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []driven.Record
	for _, id := range s.order {
		rec := s.records[id]
		if filter.DocumentID != "" && rec.Metadata.DocumentID != filter.DocumentID {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Delete removes records by id. Unknown ids are ignored.
func (s *VectorStore) Delete(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if _, exists := s.records[id]; !exists {
			continue
		}
		delete(s.records, id)
		for i, ordered := range s.order {
			if ordered == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	return nil
}

// Count returns the number of stored records.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

// MaxBatchSize returns 0: the in-memory store imposes no batch limit.
func (s *VectorStore) MaxBatchSize() int {
	return 0
}

// Close releases nothing; kept for interface symmetry.
func (s *VectorStore) Close() error {
	return nil
}

func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
