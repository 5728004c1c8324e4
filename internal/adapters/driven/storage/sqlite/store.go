package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/paperdex-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperdex-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// DBFileName is the store's on-disk filename inside the index directory.
const DBFileName = "vectors.db"

// maxBatchRows bounds one Upsert call. Five bound parameters per row
// against SQLite's default 999 host-parameter limit, and it keeps write
// transactions short under concurrent readers.
const maxBatchRows = 199

// Store is a SQLite-backed vector store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the vector store in the given index
// directory. Unrecognized tuning keys are ignored; the store applies what
// it understands and warns on a similarity space it cannot serve.
func NewStore(indexDir string, tuning map[string]string) (*Store, error) {
	if err := os.MkdirAll(indexDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(indexDir, DBFileName)

	// WAL mode for better concurrency; busy_timeout so concurrent writers
	// surface as retryable busy errors rather than immediate failures.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}

	if err := s.applyTuning(tuning); err != nil {
		db.Close()
		return nil, err
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// MaxBatchSize returns the largest record count one Upsert accepts.
func (s *Store) MaxBatchSize() int {
	return maxBatchRows
}

// Upsert inserts or overwrites records keyed by chunk id.
func (s *Store) Upsert(ctx context.Context, records []driven.Record) error {
	if len(records) == 0 {
		return nil
	}
	if len(records) > maxBatchRows {
		return fmt.Errorf("%w: batch of %d exceeds max %d", domain.ErrInvalidInput, len(records), maxBatchRows)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, content, embedding, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document_id = excluded.document_id,
			content = excluded.content,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		metadataJSON, err := json.Marshal(rec.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata for %s: %w", rec.ID, err)
		}

		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Metadata.DocumentID, rec.Document,
			float32SliceToBytes(rec.Embedding), string(metadataJSON)); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query scans every stored vector and returns the k nearest by cosine
// distance. Stored vectors are unit-length, so distance = 1 - dot.
func (s *Store) Query(ctx context.Context, vector []float32, k int) ([]driven.Hit, error) {
	if k <= 0 {
		return []driven.Hit{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, embedding, metadata FROM chunks
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []driven.Hit
	for rows.Next() {
		var (
			hit          driven.Hit
			embedding    []byte
			metadataJSON string
		)
		if err := rows.Scan(&hit.ID, &hit.Document, &embedding, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &hit.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata for %s: %w", hit.ID, err)
		}

		hit.Distance = 1 - dot(vector, bytesToFloat32Slice(embedding))
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Get returns all records matching the filter in insertion order.
func (s *Store) Get(ctx context.Context, filter driven.Filter) ([]driven.Record, error) {
	query := `SELECT id, content, embedding, metadata FROM chunks`
	var args []any
	if filter.DocumentID != "" {
		query += ` WHERE document_id = ?`
		args = append(args, filter.DocumentID)
	}
	query += ` ORDER BY rowid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var records []driven.Record //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			rec          driven.Record
			embedding    []byte
			metadataJSON string
		)
		if err := rows.Scan(&rec.ID, &rec.Document, &embedding, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &rec.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata for %s: %w", rec.ID, err)
		}
		rec.Embedding = bytesToFloat32Slice(embedding)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return records, nil
}

// Delete removes records by explicit id list. Unknown ids are ignored.
func (s *Store) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM chunks WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("deleting chunk %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return count, nil
}

// applyTuning applies the tuning knobs the store understands and ignores
// the rest. Only the cosine similarity space is served.
func (s *Store) applyTuning(tuning map[string]string) error {
	for key, value := range tuning {
		switch key {
		case "space":
			if value != "" && value != "cosine" {
				logger.Warn("Unsupported similarity space %q, using cosine", value)
			}
		case "memory_limit_bytes":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				logger.Warn("Invalid memory_limit_bytes %q, ignoring", value)
				continue
			}
			if _, err := s.db.Exec(fmt.Sprintf("PRAGMA soft_heap_limit = %d", n)); err != nil {
				return fmt.Errorf("applying memory limit: %w", err)
			}
		default:
			// Graph fan-out, search breadth, and similar ANN knobs do not
			// apply to an exhaustive scan.
			logger.Debug("Ignoring store tuning key %q", key)
		}
	}
	return nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}
		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// dot computes the dot product of two vectors; mismatched lengths
// contribute only the shared prefix.
func dot(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
