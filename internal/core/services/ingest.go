package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperdex-cli/internal/logger"
)

// Ensure Ingestor implements the interface.
var _ driving.IngestService = (*Ingestor)(nil)

// Ingestor orchestrates file-level ingestion: derive the document id,
// parse, hand off to the indexer, and register the source artifact.
//
// The artifact copy is the completion marker: it happens only after every
// batch of the document has been durably upserted. A crash mid-document
// therefore leaves no marker, and a restarted run reprocesses the document
// (upserts overwrite, so no duplicates).
type Ingestor struct {
	parser      driven.Parser
	indexer     driving.IndexerService
	artifactDir string
	limiter     *rate.Limiter
}

// NewIngestor creates an ingest orchestrator. limiter may be nil to
// disable inter-document rate limiting.
func NewIngestor(parser driven.Parser, indexer driving.IndexerService, artifactDir string, limiter *rate.Limiter) *Ingestor {
	return &Ingestor{
		parser:      parser,
		indexer:     indexer,
		artifactDir: artifactDir,
		limiter:     limiter,
	}
}

// IngestFile ingests one source file under the given cite key.
func (in *Ingestor) IngestFile(ctx context.Context, path, citeKey string) domain.IngestResult {
	content, err := os.ReadFile(path)
	if err != nil {
		return domain.IngestResult{
			DocumentID: domain.SanitizeCiteKey(citeKey),
			Status:     domain.IngestError,
			Err:        fmt.Errorf("reading %s: %w", path, err),
		}
	}

	docID := domain.NewDocumentID(citeKey, content)
	result := domain.IngestResult{DocumentID: docID}

	// Artifact presence means a previous run finished this document.
	if _, err := os.Stat(in.artifactPath(docID)); err == nil {
		logger.Debug("Skip %s: artifact exists", docID)
		result.Status = domain.IngestSkipped
		return result
	}

	logger.Section("Ingest " + docID)
	logger.Debug("Parsing %s (%d KB)", filepath.Base(path), len(content)/1024)

	parsed, err := in.parser.Parse(ctx, content, filepath.Base(path))
	if err != nil {
		result.Status = domain.IngestError
		result.Err = fmt.Errorf("parsing %s: %w", docID, err)
		return result
	}

	if strings.TrimSpace(parsed.Content) == "" {
		result.Status = domain.IngestEmpty
		return result
	}

	count, err := in.indexer.IndexDocument(ctx, driving.IndexRequest{
		DocumentID: docID,
		CiteKey:    citeKey,
		Content:    parsed.Content,
		Pages:      parsed.Pages,
		Grounding:  parsed.Grounding,
		Extra:      citeKeyExtra(citeKey),
	})
	if err != nil {
		result.Status = domain.IngestError
		result.ChunkCount = count
		result.Err = err
		return result
	}

	// All batches committed; now write the resume marker.
	if err := in.registerArtifact(path, docID); err != nil {
		result.Status = domain.IngestError
		result.ChunkCount = count
		result.Err = err
		return result
	}

	result.Status = domain.IngestIndexed
	result.ChunkCount = count
	return result
}

// IngestBatch processes files in order, isolating per-document failures.
// Only context cancellation stops the run early.
func (in *Ingestor) IngestBatch(ctx context.Context, files []driving.BatchFile) []domain.IngestResult {
	runID := uuid.New().String()[:8]
	logger.Info("Ingest run %s: %d files", runID, len(files))

	results := make([]domain.IngestResult, 0, len(files))
	for i, f := range files {
		if i > 0 && in.limiter != nil {
			if err := in.limiter.Wait(ctx); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		res := in.IngestFile(ctx, f.Path, f.CiteKey)
		if res.Err != nil && errors.Is(res.Err, context.Canceled) {
			results = append(results, res)
			break
		}
		results = append(results, res)
	}
	return results
}

// registerArtifact copies the source file into the artifact directory
// under the document id. Existing targets are left alone.
func (in *Ingestor) registerArtifact(srcPath, docID string) error {
	if err := os.MkdirAll(in.artifactDir, 0o700); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	target := in.artifactPath(docID)
	if _, err := os.Stat(target); err == nil {
		return nil
	}

	if err := copyFile(srcPath, target); err != nil {
		return fmt.Errorf("registering artifact for %s: %w", docID, err)
	}
	logger.Debug("Copied artifact %s", filepath.Base(target))
	return nil
}

// artifactPath returns the artifact filename for a document id.
func (in *Ingestor) artifactPath(docID string) string {
	return filepath.Join(in.artifactDir, docID+".pdf")
}

// IndexedDocumentIDs scans the artifact directory and returns the ids of
// documents whose ingestion already completed. Used for resume reporting.
func (in *Ingestor) IndexedDocumentIDs() ([]string, error) {
	entries, err := os.ReadDir(in.artifactDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scanning artifact directory: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pdf") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".pdf"))
	}
	return ids, nil
}

// citeKeyExtra builds caller metadata from the parseable parts of a cite
// key so titles and authors survive without a separate metadata table.
func citeKeyExtra(citeKey string) map[string]string {
	info, ok := domain.ParseCiteKey(citeKey)
	if !ok {
		return nil
	}
	return map[string]string{
		"title":   info.Title,
		"authors": info.Authors,
		"year":    fmt.Sprintf("%d", info.Year),
	}
}

// copyFile copies src to dst without preserving permissions beyond 0600.
func copyFile(src, dst string) error {
	srcF, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcF.Close()

	dstF, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstF, srcF); err != nil {
		dstF.Close()
		return err
	}
	return dstF.Close()
}
