package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperdex-cli/internal/logger"
)

// Ensure Searcher implements the interface.
var _ driving.SearchService = (*Searcher)(nil)

// DefaultTopK is the default number of neighbours requested.
const DefaultTopK = 5

// Searcher serves threshold-filtered nearest-neighbour search over the
// same store ingestion writes to.
type Searcher struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
}

// NewSearcher creates a search façade.
func NewSearcher(store driven.VectorStore, embedder driven.EmbeddingService) *Searcher {
	return &Searcher{store: store, embedder: embedder}
}

// Search embeds the query, queries the store, converts distances to
// similarity scores, filters by threshold, and returns results sorted by
// descending score. An empty query or empty store yields an empty slice.
func (s *Searcher) Search(ctx context.Context, query string, topK int, threshold float64) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	count, err := s.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting index: %w", err)
	}
	if count == 0 {
		return []domain.SearchResult{}, nil
	}

	logger.Section("Search")
	logger.Debug("Query: %q topK=%d threshold=%.2f", query, topK, threshold)

	vectors, err := s.embedder.EmbedDocuments(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: embedder returned %d vectors for one query",
			domain.ErrInvalidInput, len(vectors))
	}

	hits, err := s.store.Query(ctx, Normalize(vectors[0]), topK)
	if err != nil {
		return nil, fmt.Errorf("querying store: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		// Vectors are cosine-normalized at write time, so 1 - distance
		// is cosine similarity.
		score := 1 - hit.Distance
		if score < threshold {
			continue
		}
		results = append(results, domain.SearchResult{
			DocumentID: hit.Metadata.DocumentID,
			ChunkID:    hit.ID,
			Text:       hit.Document,
			Page:       hit.Metadata.Page,
			Start:      hit.Metadata.StartIdx,
			End:        hit.Metadata.EndIdx,
			Score:      score,
		})
	}

	// The store returns pre-sorted hits; re-sort anyway.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	logger.Debug("Results: %d of %d hits above threshold", len(results), len(hits))
	return results, nil
}
