package driving

import (
	"context"

	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
)

// RegistryService aggregates per-chunk metadata into per-document views.
// All operations are total: unknown ids yield empty results, never errors.
type RegistryService interface {
	// ListDocuments returns one entry per distinct document id, with
	// chunk counts and citation metadata derived from chunk metadata
	// (falling back to cite-key parsing).
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// GetChunks returns all chunks of a document in storage order.
	// Unknown document id yields an empty slice.
	GetChunks(ctx context.Context, documentID string) ([]domain.StoredChunk, error)

	// DeleteDocument removes every chunk of the document and returns the
	// number removed; 0 when the document does not exist.
	DeleteDocument(ctx context.Context, documentID string) (int, error)

	// Validate scans the whole index and reports invariant violations.
	// Offline tooling only.
	Validate(ctx context.Context) (*domain.ValidationReport, error)
}

// SearchService serves threshold-filtered nearest-neighbour search.
type SearchService interface {
	// Search embeds the query text and returns up to topK chunks whose
	// similarity is at least threshold, sorted by descending score.
	// An empty store yields an empty slice.
	Search(ctx context.Context, query string, topK int, threshold float64) ([]domain.SearchResult, error)
}
