package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperdex-cli/internal/logger"
	"github.com/custodia-labs/paperdex-cli/internal/postprocessors/chunker"
)

// Ensure Indexer implements the interface.
var _ driving.IndexerService = (*Indexer)(nil)

// Default engine tuning.
const (
	DefaultBatchSize  = 16
	DefaultMaxRetries = 5
	DefaultBaseSleep  = 500 * time.Millisecond
	DefaultLogEvery   = 5
)

// IndexerConfig tunes the batch embed-upsert engine.
type IndexerConfig struct {
	// BatchSize is the number of chunks embedded and upserted per batch.
	// Clamped to the store's reported max batch size, silently.
	BatchSize int

	// MaxRetries bounds retry attempts on transient storage contention.
	MaxRetries int

	// BaseSleep is the first backoff interval; doubled per attempt.
	BaseSleep time.Duration

	// LogEvery emits a progress line every N batches (0 disables).
	LogEvery int
}

// withDefaults fills zero fields.
func (c IndexerConfig) withDefaults() IndexerConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.BaseSleep <= 0 {
		c.BaseSleep = DefaultBaseSleep
	}
	return c
}

// Indexer drives chunk batches through the embedding service and into the
// vector store. Within one document, batches run strictly in sequence:
// chunk ids derive from sequence position, and interleaving would break
// offset and timestamp bookkeeping.
type Indexer struct {
	store    driven.VectorStore
	embedder driven.EmbeddingService
	splitter *chunker.Splitter
	cfg      IndexerConfig
}

// NewIndexer creates the batch engine.
func NewIndexer(store driven.VectorStore, embedder driven.EmbeddingService, splitter *chunker.Splitter, cfg IndexerConfig) *Indexer {
	return &Indexer{
		store:    store,
		embedder: embedder,
		splitter: splitter,
		cfg:      cfg.withDefaults(),
	}
}

// IndexDocument chunks, merges, embeds, and upserts one document.
// Returns the number of chunks written. Malformed requests are rejected
// before any store write.
func (ix *Indexer) IndexDocument(ctx context.Context, req driving.IndexRequest) (int, error) {
	if ix.store == nil {
		return 0, domain.ErrStoreUnavailable
	}
	if ix.embedder == nil {
		return 0, domain.ErrEmbeddingUnavailable
	}
	if !domain.ValidDocumentID(req.DocumentID) {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidDocumentID, req.DocumentID)
	}
	if strings.TrimSpace(req.Content) == "" {
		return 0, domain.ErrEmptyDocument
	}

	raw := ix.splitter.Split(req.Content)
	chunks := chunker.Merge(raw, ix.splitter.ChunkSize())
	logger.Debug("Chunking: raw=%d merged=%d size=%d", len(raw), len(chunks), ix.splitter.ChunkSize())

	batchSize := ix.effectiveBatchSize()
	totalChars := len(req.Content)
	totalPages := req.Pages
	if hinted := req.Grounding.TotalPages(); hinted > totalPages {
		totalPages = hinted
	}
	indexedAt := time.Now().UTC()

	written := 0
	batchNo := 0
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		if err := ix.upsertBatch(ctx, req, chunks[start:end], start, totalChars, totalPages, indexedAt); err != nil {
			return written, fmt.Errorf("document %s batch %d: %w", req.DocumentID, batchNo, err)
		}

		written += end - start
		batchNo++
		logger.Every(ix.cfg.LogEvery, batchNo, "Embedded: batches=%d chunks=%d", batchNo, written)
	}

	return written, nil
}

// upsertBatch embeds one batch of chunks and writes it with retry.
// Batch-local slices go out of scope on return, keeping peak memory
// proportional to the batch size rather than the document length.
func (ix *Indexer) upsertBatch(
	ctx context.Context,
	req driving.IndexRequest,
	batch []domain.Chunk,
	firstIndex, totalChars, totalPages int,
	indexedAt time.Time,
) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		texts[i] = c.Text
	}

	embeddings, err := ix.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding batch: %w", err)
	}
	if len(embeddings) != len(batch) {
		return fmt.Errorf("%w: embedder returned %d vectors for %d texts",
			domain.ErrInvalidInput, len(embeddings), len(batch))
	}

	records := make([]driven.Record, len(batch))
	for i, c := range batch {
		meta := domain.ChunkMetadata{
			DocumentID: req.DocumentID,
			ChunkID:    fmt.Sprintf("%s_%d", req.DocumentID, firstIndex+i),
			CiteKey:    req.CiteKey,
			StartIdx:   c.Start,
			EndIdx:     c.End,
			Page:       chunker.EstimatePage(c.Start, c.End, totalChars, totalPages),
			PageCount:  totalPages,
			IndexedAt:  indexedAt,
		}
		meta.SetExtra(req.Extra)

		records[i] = driven.Record{
			ID:        meta.ChunkID,
			Embedding: Normalize(embeddings[i]),
			Document:  c.Text,
			Metadata:  meta,
		}
	}

	return ix.upsertWithRetry(ctx, records)
}

// upsertWithRetry commits one batch, backing off exponentially on
// transient storage contention (lock/busy/read-only). Any other error
// class propagates immediately.
func (ix *Indexer) upsertWithRetry(ctx context.Context, records []driven.Record) error {
	for attempt := 0; ; attempt++ {
		err := ix.store.Upsert(ctx, records)
		if err == nil {
			return nil
		}
		if !transientStorageError(err) {
			return fmt.Errorf("upsert: %w", err)
		}
		if attempt >= ix.cfg.MaxRetries {
			return fmt.Errorf("%w after %d attempts: %v", domain.ErrRetriesExhausted, attempt+1, err)
		}

		sleep := ix.cfg.BaseSleep * (1 << attempt)
		logger.Warn("Upsert retry: attempt=%d sleep=%s reason=%v", attempt+1, sleep, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// effectiveBatchSize clamps the configured batch size to the store's
// reported limit, never below 1.
func (ix *Indexer) effectiveBatchSize() int {
	size := ix.cfg.BatchSize
	if limit := ix.store.MaxBatchSize(); limit > 0 && size > limit {
		size = limit
	}
	if size < 1 {
		size = 1
	}
	return size
}

// transientStorageError reports whether an error carries a
// lock/busy/read-only signature worth retrying.
func transientStorageError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "locked") ||
		strings.Contains(msg, "busy") ||
		strings.Contains(msg, "readonly") ||
		strings.Contains(msg, "read-only")
}

// Normalize scales a vector to unit L2 norm so that stored-vector dot
// product equals cosine similarity. Zero vectors are returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
