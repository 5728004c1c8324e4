package cli

import (
	"context"
	"errors"

	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driving"
)

// mockIngestService returns one canned result per input file.
type mockIngestService struct {
	results []domain.IngestResult
	indexed []string
}

func (m *mockIngestService) IndexedDocumentIDs() ([]string, error) {
	return m.indexed, nil
}

func (m *mockIngestService) IngestFile(_ context.Context, _, _ string) domain.IngestResult {
	if len(m.results) > 0 {
		return m.results[0]
	}
	return domain.IngestResult{Status: domain.IngestIndexed}
}

func (m *mockIngestService) IngestBatch(_ context.Context, files []driving.BatchFile) []domain.IngestResult {
	out := make([]domain.IngestResult, len(files))
	for i := range files {
		if i < len(m.results) {
			out[i] = m.results[i]
			continue
		}
		out[i] = domain.IngestResult{Status: domain.IngestIndexed, ChunkCount: 3}
	}
	return out
}

type mockRegistryService struct {
	docs   []domain.Document
	chunks []domain.StoredChunk
	report *domain.ValidationReport

	deletedID string
	deleted   int
}

func (m *mockRegistryService) ListDocuments(_ context.Context) ([]domain.Document, error) {
	return m.docs, nil
}

func (m *mockRegistryService) GetChunks(_ context.Context, _ string) ([]domain.StoredChunk, error) {
	return m.chunks, nil
}

func (m *mockRegistryService) DeleteDocument(_ context.Context, documentID string) (int, error) {
	m.deletedID = documentID
	return m.deleted, nil
}

func (m *mockRegistryService) Validate(_ context.Context) (*domain.ValidationReport, error) {
	if m.report != nil {
		return m.report, nil
	}
	return &domain.ValidationReport{}, nil
}

type mockSearchService struct {
	results []domain.SearchResult
}

func (m *mockSearchService) Search(_ context.Context, _ string, _ int, _ float64) ([]domain.SearchResult, error) {
	if m.results != nil {
		return m.results, nil
	}
	return []domain.SearchResult{
		{
			DocumentID: "smith2020test_abc123def456",
			ChunkID:    "smith2020test_abc123def456_0",
			Text:       "a relevant passage",
			Page:       1,
			Score:      0.92,
		},
	}, nil
}

type mockSearchServiceError struct{}

func (m *mockSearchServiceError) Search(_ context.Context, _ string, _ int, _ float64) ([]domain.SearchResult, error) {
	return nil, errors.New("embedding backend down")
}

// setupTestServices swaps in mock services and marks wiring complete so
// commands skip real initialisation. The returned cleanup restores state.
func setupTestServices() func() {
	oldIngest := ingestService
	oldRegistry := registryService
	oldSearch := searchService
	oldReady := servicesReady

	ingestService = &mockIngestService{}
	registryService = &mockRegistryService{}
	searchService = &mockSearchService{}
	servicesReady = true

	return func() {
		ingestService = oldIngest
		registryService = oldRegistry
		searchService = oldSearch
		servicesReady = oldReady
	}
}
