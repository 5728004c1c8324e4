package domain

import "time"

// Reserved metadata keys. Caller-supplied extras under these names are
// discarded so they can never shadow engine-written fields.
var reservedMetadataKeys = map[string]struct{}{
	"document_id": {},
	"chunk_id":    {},
	"cite_key":    {},
	"start_idx":   {},
	"end_idx":     {},
	"page":        {},
	"bbox":        {},
	"page_count":  {},
	"indexed_at":  {},
}

// ChunkMetadata is the typed per-chunk record persisted alongside each
// vector. Reserved fields are explicit; anything the caller supplies
// travels in Extra and loses on key conflict.
type ChunkMetadata struct {
	// DocumentID is the parent document id.
	DocumentID string `json:"document_id"`

	// ChunkID is "<document_id>_<sequence>".
	ChunkID string `json:"chunk_id"`

	// CiteKey is the human citation key used to derive the document id.
	CiteKey string `json:"cite_key,omitempty"`

	// StartIdx and EndIdx are the chunk's byte offsets in the source text.
	StartIdx int `json:"start_idx"`
	EndIdx   int `json:"end_idx"`

	// Page is the estimated 1-based source page.
	Page int `json:"page"`

	// BBox is an optional serialized bounding box from grounding hints.
	BBox string `json:"bbox,omitempty"`

	// PageCount is the total page count of the source document.
	PageCount int `json:"page_count,omitempty"`

	// IndexedAt is the ingestion timestamp, identical for every chunk
	// written in one ingestion run.
	IndexedAt time.Time `json:"indexed_at"`

	// Extra holds caller-supplied metadata (e.g. title, authors, year).
	// Keys colliding with reserved fields are dropped by SetExtra.
	Extra map[string]string `json:"extra,omitempty"`
}

// SetExtra merges caller-supplied metadata into the record, silently
// dropping any key that would shadow a reserved field.
func (m *ChunkMetadata) SetExtra(extra map[string]string) {
	if len(extra) == 0 {
		return
	}
	if m.Extra == nil {
		m.Extra = make(map[string]string, len(extra))
	}
	for k, v := range extra {
		if _, reserved := reservedMetadataKeys[k]; reserved {
			continue
		}
		m.Extra[k] = v
	}
}
