package driven

import (
	"context"

	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
)

// Record is one chunk row in the vector store: primary key, stored text,
// embedding, and the typed metadata record.
type Record struct {
	// ID is the chunk id, "<document_id>_<sequence>". Upsert key.
	ID string

	// Embedding is the L2-normalized vector for the chunk text.
	Embedding []float32

	// Document is the chunk text as stored.
	Document string

	// Metadata is the typed per-chunk metadata.
	Metadata domain.ChunkMetadata
}

// Hit is one ranked similarity result from a query.
type Hit struct {
	// ID is the matched chunk id.
	ID string

	// Distance is the cosine distance (1 - dot product of normalized
	// vectors). Lower is closer.
	Distance float64

	// Document is the stored chunk text.
	Document string

	// Metadata is the stored chunk metadata.
	Metadata domain.ChunkMetadata
}

// Filter restricts Get scans. The zero Filter matches every record.
type Filter struct {
	// DocumentID restricts to chunks of one document when non-empty.
	DocumentID string
}

// VectorStore is the persistent similarity-search store. The store is
// opaque to the core: its index structure, on-disk format, and query
// execution are the adapter's concern. Upserts are idempotent per id.
type VectorStore interface {
	// Upsert inserts or overwrites records by ID.
	Upsert(ctx context.Context, records []Record) error

	// Query returns the k nearest neighbours to the query vector,
	// ranked by ascending distance.
	Query(ctx context.Context, vector []float32, k int) ([]Hit, error)

	// Get returns all records matching the filter, in insertion order.
	Get(ctx context.Context, filter Filter) ([]Record, error)

	// Delete removes records by explicit id list. Unknown ids are ignored.
	Delete(ctx context.Context, ids []string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// MaxBatchSize returns the largest record count a single Upsert
	// accepts, or 0 when the store imposes no limit. Callers must clamp,
	// not fail.
	MaxBatchSize() int

	// Close releases the store.
	Close() error
}
