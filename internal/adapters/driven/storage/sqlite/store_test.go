package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testRecord(id, docID string, embedding []float32) driven.Record {
	return driven.Record{
		ID:        id,
		Embedding: embedding,
		Document:  "content of " + id,
		Metadata: domain.ChunkMetadata{
			DocumentID: docID,
			ChunkID:    id,
			CiteKey:    "Smith2020Paper",
			StartIdx:   0,
			EndIdx:     10,
			Page:       1,
			PageCount:  3,
			IndexedAt:  time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		},
	}
}

func TestNewStore_CreatesDatabaseFile(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir, nil)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(filepath.Join(dir, DBFileName))
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DBFileName), store.Path())
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir, nil)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, []driven.Record{testRecord("a_0", "a", []float32{1, 0})}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir, nil)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewStore_AppliesTuning(t *testing.T) {
	// Unknown keys and a cosine space declaration must not fail the open.
	store, err := NewStore(t.TempDir(), map[string]string{
		"space":              "cosine",
		"memory_limit_bytes": "268435456",
		"construction_ef":    "128",
	})

	require.NoError(t, err)
	store.Close()
}

func TestUpsert_RoundTripsRecord(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := testRecord("doc_abcdefabcdef_0", "doc_abcdefabcdef", []float32{0.5, -0.25, 1})
	rec.Metadata.SetExtra(map[string]string{"title": "A Title"})
	require.NoError(t, store.Upsert(ctx, []driven.Record{rec}))

	got, err := store.Get(ctx, driven.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, rec.ID, got[0].ID)
	assert.Equal(t, rec.Document, got[0].Document)
	assert.Equal(t, rec.Embedding, got[0].Embedding)
	assert.Equal(t, rec.Metadata.DocumentID, got[0].Metadata.DocumentID)
	assert.Equal(t, rec.Metadata.CiteKey, got[0].Metadata.CiteKey)
	assert.Equal(t, rec.Metadata.PageCount, got[0].Metadata.PageCount)
	assert.True(t, rec.Metadata.IndexedAt.Equal(got[0].Metadata.IndexedAt))
	assert.Equal(t, "A Title", got[0].Metadata.Extra["title"])
}

func TestUpsert_OverwritesByID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []driven.Record{testRecord("a_0", "a", []float32{1, 0})}))

	updated := testRecord("a_0", "a", []float32{0, 1})
	updated.Document = "updated content"
	require.NoError(t, store.Upsert(ctx, []driven.Record{updated}))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	got, err := store.Get(ctx, driven.Filter{})
	require.NoError(t, err)
	assert.Equal(t, "updated content", got[0].Document)
	assert.Equal(t, []float32{0, 1}, got[0].Embedding)
}

func TestUpsert_RejectsOversizedBatch(t *testing.T) {
	store := newTestStore(t)

	batch := make([]driven.Record, maxBatchRows+1)
	for i := range batch {
		batch[i] = testRecord(fmt.Sprintf("a_%d", i), "a", []float32{1})
	}

	err := store.Upsert(context.Background(), batch)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpsert_EmptyBatchIsNoop(t *testing.T) {
	store := newTestStore(t)

	assert.NoError(t, store.Upsert(context.Background(), nil))
}

func TestMaxBatchSize(t *testing.T) {
	store := newTestStore(t)

	assert.Equal(t, maxBatchRows, store.MaxBatchSize())
}

func TestQuery_RanksByCosineDistance(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []driven.Record{
		testRecord("far", "doc", []float32{0, 1}),
		testRecord("near", "doc", []float32{1, 0}),
		testRecord("mid", "doc", []float32{0.7071, 0.7071}),
	}))

	hits, err := store.Query(ctx, []float32{1, 0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(t, "near", hits[0].ID)
	assert.Equal(t, "mid", hits[1].ID)
	assert.Equal(t, "far", hits[2].ID)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-6)
	assert.InDelta(t, 1.0, hits[2].Distance, 1e-6)
}

func TestQuery_TruncatesToK(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Upsert(ctx, []driven.Record{
			testRecord(fmt.Sprintf("doc_%d", i), "doc", []float32{1, 0}),
		}))
	}

	hits, err := store.Query(ctx, []float32{1, 0}, 2)
	require.NoError(t, err)
	assert.Len(t, hits, 2)
}

func TestQuery_NonPositiveK(t *testing.T) {
	store := newTestStore(t)

	hits, err := store.Query(context.Background(), []float32{1, 0}, 0)

	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestGet_FiltersByDocumentID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []driven.Record{
		testRecord("a_0", "a", []float32{1}),
		testRecord("b_0", "b", []float32{1}),
		testRecord("a_1", "a", []float32{1}),
	}))

	got, err := store.Get(ctx, driven.Filter{DocumentID: "a"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a_0", got[0].ID)
	assert.Equal(t, "a_1", got[1].ID)
}

func TestGet_PreservesInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, store.Upsert(ctx, []driven.Record{
			testRecord(fmt.Sprintf("doc_%d", i), "doc", []float32{1}),
		}))
	}

	got, err := store.Get(ctx, driven.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 4)
	for i, rec := range got {
		assert.Equal(t, fmt.Sprintf("doc_%d", i), rec.ID)
	}
}

func TestDelete_RemovesOnlyListedIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, []driven.Record{
		testRecord("a_0", "a", []float32{1}),
		testRecord("a_1", "a", []float32{1}),
		testRecord("b_0", "b", []float32{1}),
	}))

	require.NoError(t, store.Delete(ctx, []string{"a_0", "a_1", "ghost"}))

	got, err := store.Get(ctx, driven.Filter{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b_0", got[0].ID)
}

func TestCount_EmptyStore(t *testing.T) {
	store := newTestStore(t)

	count, err := store.Count(context.Background())

	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestFloat32BytesRoundTrip(t *testing.T) {
	in := []float32{0, 1, -1, 0.5, 3.14159, -2.71828}

	out := bytesToFloat32Slice(float32SliceToBytes(in))

	assert.Equal(t, in, out)
}

func TestDot_MismatchedLengths(t *testing.T) {
	assert.InDelta(t, 2.0, dot([]float32{1, 1, 1}, []float32{1, 1}), 1e-9)
}
