package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driving"
)

// Ensure Registry implements the interface.
var _ driving.RegistryService = (*Registry)(nil)

// Registry aggregates per-chunk metadata into per-document views.
// It reads from the same store ingestion writes to; there is no separate
// document table to drift out of sync.
type Registry struct {
	store driven.VectorStore
}

// NewRegistry creates a registry over the given store.
func NewRegistry(store driven.VectorStore) *Registry {
	return &Registry{store: store}
}

// ListDocuments groups all stored chunks by document id. Document-level
// fields come from the first chunk observed per group, falling back to
// cite-key parsing when explicit title/author/year metadata is absent.
func (r *Registry) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	records, err := r.store.Get(ctx, driven.Filter{})
	if err != nil {
		return nil, fmt.Errorf("scanning chunks: %w", err)
	}

	byID := make(map[string]*domain.Document)
	var order []string

	for _, rec := range records {
		docID := rec.Metadata.DocumentID
		if docID == "" {
			continue
		}

		doc, seen := byID[docID]
		if !seen {
			doc = documentFromMetadata(docID, rec.Metadata)
			byID[docID] = doc
			order = append(order, docID)
		}
		doc.ChunkCount++
	}

	docs := make([]domain.Document, 0, len(order))
	for _, id := range order {
		docs = append(docs, *byID[id])
	}
	return docs, nil
}

// GetChunks returns all chunks of one document. Unknown ids yield an
// empty slice, never an error.
func (r *Registry) GetChunks(ctx context.Context, documentID string) ([]domain.StoredChunk, error) {
	records, err := r.store.Get(ctx, driven.Filter{DocumentID: documentID})
	if err != nil {
		return nil, fmt.Errorf("fetching chunks for %s: %w", documentID, err)
	}

	chunks := make([]domain.StoredChunk, 0, len(records))
	for _, rec := range records {
		chunks = append(chunks, domain.StoredChunk{
			ChunkID: rec.ID,
			Text:    rec.Document,
			Page:    rec.Metadata.Page,
			Start:   rec.Metadata.StartIdx,
			End:     rec.Metadata.EndIdx,
		})
	}
	return chunks, nil
}

// DeleteDocument removes every chunk of a document by explicit id list,
// which is more reliable than a filtered delete under the store's
// consistency model. Returns the number of chunks removed.
func (r *Registry) DeleteDocument(ctx context.Context, documentID string) (int, error) {
	records, err := r.store.Get(ctx, driven.Filter{DocumentID: documentID})
	if err != nil {
		return 0, fmt.Errorf("resolving chunks for %s: %w", documentID, err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	ids := make([]string, len(records))
	for i, rec := range records {
		ids[i] = rec.ID
	}

	if err := r.store.Delete(ctx, ids); err != nil {
		return 0, fmt.Errorf("deleting %d chunks of %s: %w", len(ids), documentID, err)
	}
	return len(ids), nil
}

// Validate scans every stored chunk and reports invariant violations per
// document: id pattern conformance, non-zero chunk count, and page_count
// presence. Offline tooling only.
func (r *Registry) Validate(ctx context.Context) (*domain.ValidationReport, error) {
	records, err := r.store.Get(ctx, driven.Filter{})
	if err != nil {
		return nil, fmt.Errorf("scanning index: %w", err)
	}

	report := &domain.ValidationReport{TotalChunks: len(records)}

	type docCheck struct {
		chunkCount   int
		hasPageCount bool
	}
	checks := make(map[string]*docCheck)
	var order []string

	for _, rec := range records {
		docID := rec.Metadata.DocumentID
		c, seen := checks[docID]
		if !seen {
			c = &docCheck{}
			checks[docID] = c
			order = append(order, docID)
		}
		c.chunkCount++
		if rec.Metadata.PageCount > 0 {
			c.hasPageCount = true
		}
	}

	report.TotalDocuments = len(order)
	for _, docID := range order {
		c := checks[docID]
		valid := true

		if !domain.ValidDocumentID(docID) {
			valid = false
			report.Issues = append(report.Issues, domain.ValidationIssue{
				DocumentID: docID,
				Field:      "document_id",
				Message:    "does not match required pattern",
				Severity:   domain.SeverityError,
			})
		}
		if c.chunkCount == 0 {
			valid = false
			report.Issues = append(report.Issues, domain.ValidationIssue{
				DocumentID: docID,
				Field:      "chunk_count",
				Message:    "document has no chunks",
				Severity:   domain.SeverityError,
			})
		}
		if !c.hasPageCount {
			report.Issues = append(report.Issues, domain.ValidationIssue{
				DocumentID: docID,
				Field:      "page_count",
				Message:    "no chunk carries a page count",
				Severity:   domain.SeverityWarning,
			})
		}

		if valid {
			report.ValidDocuments++
		}
	}

	return report, nil
}

// documentFromMetadata builds a document-level view from one chunk's
// metadata, preferring explicit extras over cite-key parsing.
func documentFromMetadata(docID string, meta domain.ChunkMetadata) *domain.Document {
	doc := &domain.Document{
		ID:        docID,
		CiteKey:   meta.CiteKey,
		PageCount: meta.PageCount,
		IndexedAt: meta.IndexedAt,
	}

	doc.Title = meta.Extra["title"]
	doc.Authors = meta.Extra["authors"]
	if y, err := strconv.Atoi(meta.Extra["year"]); err == nil {
		doc.Year = y
	}

	if doc.Title == "" || doc.Authors == "" || doc.Year == 0 {
		if info, ok := domain.ParseCiteKey(meta.CiteKey); ok {
			if doc.Title == "" {
				doc.Title = info.Title
			}
			if doc.Authors == "" {
				doc.Authors = info.Authors
			}
			if doc.Year == 0 {
				doc.Year = info.Year
			}
		}
	}

	return doc
}
