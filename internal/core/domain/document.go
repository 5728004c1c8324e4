package domain

import "time"

// Document represents an indexed source document aggregated from its chunks.
// The vector store is the single source of truth: a document exists exactly
// as long as chunks carrying its ID exist.
type Document struct {
	// ID is the unique identifier, derived from content hash and cite key.
	// See NewDocumentID for the derivation.
	ID string

	// CiteKey is the human-assigned citation key (e.g. "Vaswani2017Attention").
	CiteKey string

	// Title is the human-readable title, parsed from metadata or the cite key.
	Title string

	// Authors is a comma-separated author list.
	Authors string

	// Year is the publication year, 0 when unknown.
	Year int

	// PageCount is the number of pages reported by the parsing service.
	PageCount int

	// ChunkCount is the number of chunks stored for this document.
	ChunkCount int

	// IndexedAt is when the document was last ingested.
	IndexedAt time.Time
}

// Chunk is a contiguous text span produced by the chunker.
// Offsets are byte positions into the original document text.
type Chunk struct {
	// Text is the trimmed chunk content. Never empty.
	Text string

	// Start is the inclusive start offset in the source text.
	Start int

	// End is the exclusive end offset in the source text.
	End int
}

// Len returns the length of the chunk text in bytes.
func (c Chunk) Len() int {
	return len(c.Text)
}

// StoredChunk is a chunk as returned from the vector store,
// pairing the stored text with its persisted metadata.
type StoredChunk struct {
	// ChunkID is the store primary key: "<document_id>_<sequence>".
	ChunkID string

	// Text is the chunk content.
	Text string

	// Page is the estimated 1-based source page.
	Page int

	// Start is the inclusive start offset in the source text.
	Start int

	// End is the exclusive end offset in the source text.
	End int
}

// SearchResult is a single similarity hit.
type SearchResult struct {
	// DocumentID identifies the parent document.
	DocumentID string

	// ChunkID is the matched chunk.
	ChunkID string

	// Text is the matched chunk content.
	Text string

	// Page is the estimated source page of the chunk.
	Page int

	// Start and End are the chunk offsets in the source text.
	Start int
	End   int

	// Score is cosine similarity in [-1, 1]; higher is better.
	Score float64
}

// IngestStatus describes the outcome of ingesting a single file.
type IngestStatus string

const (
	// IngestIndexed means all chunks were embedded and upserted.
	IngestIndexed IngestStatus = "indexed"

	// IngestSkipped means the document's artifact already existed (resume marker).
	IngestSkipped IngestStatus = "skipped"

	// IngestEmpty means the parser extracted no text.
	IngestEmpty IngestStatus = "empty"

	// IngestError means ingestion failed after parsing started.
	IngestError IngestStatus = "error"
)

// IngestResult summarises one document's ingestion.
type IngestResult struct {
	// DocumentID is the derived document identifier.
	DocumentID string

	// Status is the ingestion outcome.
	Status IngestStatus

	// ChunkCount is the number of chunks upserted.
	ChunkCount int

	// Err holds the failure when Status is IngestError.
	Err error
}
