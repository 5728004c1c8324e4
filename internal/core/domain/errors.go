package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidDocumentID indicates a document id that fails the
	// required pattern. Rejected before any store write.
	ErrInvalidDocumentID = errors.New("invalid document id")

	// ErrEmptyDocument indicates the parser extracted no text.
	// The document is skipped; ingestion of other documents continues.
	ErrEmptyDocument = errors.New("document has no extractable text")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStoreUnavailable indicates the vector store is not open.
	ErrStoreUnavailable = errors.New("vector store unavailable")

	// ErrRetriesExhausted indicates transient storage contention persisted
	// past the configured retry limit.
	ErrRetriesExhausted = errors.New("upsert retries exhausted")
)
