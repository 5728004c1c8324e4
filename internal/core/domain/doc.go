// Package domain defines the core business entities for Paperdex.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An indexed source document with citation metadata
//   - Chunk: A contiguous text span, the atomic unit of embedding and storage
//   - ChunkMetadata: The typed per-chunk record persisted in the vector store
//   - Grounding: Page/bounding-box hints from the parsing service
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
