// Package services implements the driving port interfaces.
// Services contain the core business logic for chunking orchestration,
// batched embed-then-upsert, bootstrap, and registry/search, and
// delegate all I/O to driven ports (adapters).
package services
