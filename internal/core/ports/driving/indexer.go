package driving

import (
	"context"

	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
)

// IndexRequest carries everything needed to index one parsed document.
type IndexRequest struct {
	// DocumentID is the pre-derived document identifier. Must satisfy
	// the document id pattern or indexing is rejected before any write.
	DocumentID string

	// CiteKey is the human citation key, stored with every chunk.
	CiteKey string

	// Content is the full extracted document text.
	Content string

	// Pages is the document's total page count (>= 1).
	Pages int

	// Grounding holds optional page hints from the parser.
	Grounding domain.Grounding

	// Extra is caller-supplied metadata merged into every chunk's
	// metadata; reserved keys never get overwritten.
	Extra map[string]string
}

// IndexerService chunks, embeds, and upserts one document at a time.
type IndexerService interface {
	// IndexDocument runs the full chunk -> merge -> embed -> upsert
	// pipeline for one document and returns the number of chunks written.
	// Batches are committed in sequence order; a failure mid-document
	// leaves earlier batches committed (upserts are idempotent, so a
	// rerun overwrites rather than duplicates).
	IndexDocument(ctx context.Context, req IndexRequest) (int, error)
}

// IngestService orchestrates file-level ingestion: parse, index, and
// register the source artifact as the completion marker.
type IngestService interface {
	// IngestFile ingests one source file under the given cite key.
	// A document whose artifact already exists is skipped (resume).
	// Per-document failures are reported in the result, not returned,
	// except for context cancellation.
	IngestFile(ctx context.Context, path, citeKey string) domain.IngestResult

	// IngestBatch ingests a set of files, isolating per-document
	// failures, and returns one result per file in input order.
	IngestBatch(ctx context.Context, files []BatchFile) []domain.IngestResult

	// IndexedDocumentIDs lists the document ids whose artifacts exist,
	// i.e. the documents a batch run will skip.
	IndexedDocumentIDs() ([]string, error)
}

// BatchFile pairs a source path with its cite key for batch ingestion.
type BatchFile struct {
	Path    string
	CiteKey string
}
