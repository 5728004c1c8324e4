package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperdex-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperdex-cli/internal/postprocessors/chunker"
)

func writeTestPDF(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestIngestor(t *testing.T, parser driven.Parser, embedder driven.EmbeddingService) (*Ingestor, *memory.VectorStore, string) {
	t.Helper()
	store := memory.NewVectorStore()
	splitter := chunker.New(chunker.WithChunkSize(100), chunker.WithOverlap(20))
	indexer := NewIndexer(store, embedder, splitter, IndexerConfig{BaseSleep: time.Millisecond})
	artifactDir := filepath.Join(t.TempDir(), "pdfs")
	return NewIngestor(parser, indexer, artifactDir, nil), store, artifactDir
}

func TestIngestFile_IndexesAndRegistersArtifact(t *testing.T) {
	parser := &fakeParser{doc: &driven.ParsedDocument{
		Content: strings.Repeat("A sentence of parsed text. ", 10),
		Pages:   2,
	}}
	ing, store, artifactDir := newTestIngestor(t, parser, &fakeEmbedder{})

	path := writeTestPDF(t, t.TempDir(), "paper.pdf", "%PDF raw bytes")
	res := ing.IngestFile(context.Background(), path, "Smith2020Paper")

	assert.Equal(t, domain.IngestIndexed, res.Status)
	assert.Greater(t, res.ChunkCount, 0)
	assert.True(t, domain.ValidDocumentID(res.DocumentID))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, res.ChunkCount, count)

	// Completion marker written after all chunks.
	_, err = os.Stat(filepath.Join(artifactDir, res.DocumentID+".pdf"))
	assert.NoError(t, err)
}

func TestIngestFile_StoresCiteKeyMetadata(t *testing.T) {
	parser := &fakeParser{}
	ing, store, _ := newTestIngestor(t, parser, &fakeEmbedder{})

	path := writeTestPDF(t, t.TempDir(), "paper.pdf", "%PDF raw bytes")
	res := ing.IngestFile(context.Background(), path, "BrownMann2020LanguageModels")

	require.Equal(t, domain.IngestIndexed, res.Status)

	records, err := store.Get(context.Background(), driven.Filter{})
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, "Language Models", records[0].Metadata.Extra["title"])
	assert.Equal(t, "Brown, Mann", records[0].Metadata.Extra["authors"])
	assert.Equal(t, "2020", records[0].Metadata.Extra["year"])
}

func TestIngestFile_SkipsWhenArtifactExists(t *testing.T) {
	parser := &fakeParser{}
	ing, _, artifactDir := newTestIngestor(t, parser, &fakeEmbedder{})

	raw := "%PDF raw bytes"
	path := writeTestPDF(t, t.TempDir(), "paper.pdf", raw)

	docID := domain.NewDocumentID("Smith2020Paper", []byte(raw))
	require.NoError(t, os.MkdirAll(artifactDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(artifactDir, docID+".pdf"), []byte(raw), 0o600))

	res := ing.IngestFile(context.Background(), path, "Smith2020Paper")

	assert.Equal(t, domain.IngestSkipped, res.Status)
	assert.Equal(t, docID, res.DocumentID)
	assert.Zero(t, parser.calls, "skipped documents are never parsed")
}

func TestIngestFile_EmptyParseYieldsEmptyStatus(t *testing.T) {
	parser := &fakeParser{doc: &driven.ParsedDocument{Content: "  \n ", Pages: 1}}
	ing, store, artifactDir := newTestIngestor(t, parser, &fakeEmbedder{})

	path := writeTestPDF(t, t.TempDir(), "scan.pdf", "%PDF image-only")
	res := ing.IngestFile(context.Background(), path, "Scan2021Images")

	assert.Equal(t, domain.IngestEmpty, res.Status)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	// No marker: the document was not indexed.
	_, err = os.Stat(filepath.Join(artifactDir, res.DocumentID+".pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestIngestFile_NoMarkerOnIndexFailure(t *testing.T) {
	parser := &fakeParser{}
	embedder := &fakeEmbedder{err: errors.New("api unavailable")}
	ing, _, artifactDir := newTestIngestor(t, parser, embedder)

	path := writeTestPDF(t, t.TempDir(), "paper.pdf", "%PDF raw bytes")
	res := ing.IngestFile(context.Background(), path, "Smith2020Paper")

	assert.Equal(t, domain.IngestError, res.Status)
	require.Error(t, res.Err)

	// Failed ingestion must stay retryable: no completion marker.
	_, err := os.Stat(filepath.Join(artifactDir, res.DocumentID+".pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestIngestFile_ParserErrorReported(t *testing.T) {
	parser := &fakeParser{err: errors.New("503 service unavailable")}
	ing, _, _ := newTestIngestor(t, parser, &fakeEmbedder{})

	path := writeTestPDF(t, t.TempDir(), "paper.pdf", "%PDF raw bytes")
	res := ing.IngestFile(context.Background(), path, "Smith2020Paper")

	assert.Equal(t, domain.IngestError, res.Status)
	assert.ErrorContains(t, res.Err, "503")
}

func TestIngestFile_UnreadableFile(t *testing.T) {
	ing, _, _ := newTestIngestor(t, &fakeParser{}, &fakeEmbedder{})

	res := ing.IngestFile(context.Background(), filepath.Join(t.TempDir(), "missing.pdf"), "Smith2020Paper")

	assert.Equal(t, domain.IngestError, res.Status)
	require.Error(t, res.Err)
}

func TestIngestBatch_IsolatesPerDocumentFailures(t *testing.T) {
	// The shared parser fails every call; per-file outcomes must not
	// abort the batch.
	parser := &fakeParser{err: errors.New("parse failed")}
	ing, _, _ := newTestIngestor(t, parser, &fakeEmbedder{})

	dir := t.TempDir()
	files := []driving.BatchFile{
		{Path: writeTestPDF(t, dir, "a.pdf", "%PDF a"), CiteKey: "A2020First"},
		{Path: writeTestPDF(t, dir, "b.pdf", "%PDF b"), CiteKey: "B2020Second"},
	}

	results := ing.IngestBatch(context.Background(), files)

	require.Len(t, results, 2)
	assert.Equal(t, domain.IngestError, results[0].Status)
	assert.Equal(t, domain.IngestError, results[1].Status)
}

func TestIngestBatch_StopsOnCancelledContext(t *testing.T) {
	ing, _, _ := newTestIngestor(t, &fakeParser{}, &fakeEmbedder{})

	dir := t.TempDir()
	files := []driving.BatchFile{
		{Path: writeTestPDF(t, dir, "a.pdf", "%PDF a"), CiteKey: "A2020First"},
		{Path: writeTestPDF(t, dir, "b.pdf", "%PDF b"), CiteKey: "B2020Second"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := ing.IngestBatch(ctx, files)

	assert.Empty(t, results)
}

func TestIndexedDocumentIDs(t *testing.T) {
	ing, _, artifactDir := newTestIngestor(t, &fakeParser{}, &fakeEmbedder{})

	require.NoError(t, os.MkdirAll(artifactDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(artifactDir, "a_000000000001.pdf"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(artifactDir, "b_000000000002.pdf"), []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(artifactDir, "notes.txt"), []byte("x"), 0o600))

	ids, err := ing.IndexedDocumentIDs()

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a_000000000001", "b_000000000002"}, ids)
}

func TestIndexedDocumentIDs_MissingDirectory(t *testing.T) {
	ing, _, _ := newTestIngestor(t, &fakeParser{}, &fakeEmbedder{})

	ids, err := ing.IndexedDocumentIDs()

	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCiteKeyExtra(t *testing.T) {
	extra := citeKeyExtra("Vaswani2017Attention")

	require.NotNil(t, extra)
	assert.Equal(t, "Attention", extra["title"])
	assert.Equal(t, "Vaswani", extra["authors"])
	assert.Equal(t, "2017", extra["year"])

	assert.Nil(t, citeKeyExtra("no-year-here"))
}
