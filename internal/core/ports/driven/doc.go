// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - VectorStore: persistent similarity-search storage (SQLite)
//   - EmbeddingService: vector embedding generation (Upstage/OpenAI/Ollama)
//   - Parser: PDF-to-text extraction with page grounding (Upstage)
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
