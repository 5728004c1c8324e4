package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Implementations may include:
//   - Upstage solar-embedding-1-large via the OpenAI-compatible API (4096 dims)
//   - OpenAI text-embedding-3-* models
//   - Ollama local models (nomic-embed-text, all-minilm)
type EmbeddingService interface {
	// EmbedDocuments generates one embedding per input text, in input
	// order. Vectors are returned as produced by the model; callers
	// normalize before storage.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768, 1536, 4096).
	Dimensions() int

	// Close releases any held connections.
	Close() error
}
