package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/paperdex-cli/internal/core/domain"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driving"
)

var (
	indexCiteKey string
	indexReset   bool
	indexMapFile string
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Parse, chunk, embed, and index documents",
	Long: `Ingests a PDF file or a directory of PDFs into the local index.
Documents whose artifact already exists are skipped, so an interrupted
run can simply be restarted.

For a single file the cite key comes from --cite-key, falling back to
the filename stem. For a directory, a TOML mapping file (--map) assigns
cite keys to filenames; without one the filename stem is used.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVarP(&indexCiteKey, "cite-key", "k", "", "citation key for a single file")
	indexCmd.Flags().BoolVar(&indexReset, "reset", false, "wipe local state and restore the seed dataset first")
	indexCmd.Flags().StringVar(&indexMapFile, "map", "", "TOML file mapping cite keys to filenames")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	if err := ensureServices(true); err != nil {
		return err
	}
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var files []driving.BatchFile
	if info.IsDir() {
		if indexCiteKey != "" {
			return errors.New("--cite-key applies to a single file, use --map for directories")
		}
		files, err = collectBatch(path, indexMapFile)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			cmd.Println("No PDF files found.")
			return nil
		}
		if done, err := ingestService.IndexedDocumentIDs(); err == nil && len(done) > 0 {
			cmd.Printf("Resuming: %d documents already indexed.\n", len(done))
		}
	} else {
		citeKey := indexCiteKey
		if citeKey == "" {
			citeKey = fileStem(path)
		}
		files = []driving.BatchFile{{Path: path, CiteKey: citeKey}}
	}

	results := ingestService.IngestBatch(context.Background(), files)
	printIngestSummary(cmd, files, results)
	return nil
}

// collectBatch builds the ingestion list for a directory. With a mapping
// file, only mapped entries are ingested; otherwise every .pdf in the
// directory is, keyed by its filename stem.
func collectBatch(dir, mapFile string) ([]driving.BatchFile, error) {
	if mapFile != "" {
		data, err := os.ReadFile(mapFile)
		if err != nil {
			return nil, fmt.Errorf("reading map file: %w", err)
		}
		var mapping map[string]string
		if err := toml.Unmarshal(data, &mapping); err != nil {
			return nil, fmt.Errorf("parsing map file: %w", err)
		}

		keys := make([]string, 0, len(mapping))
		for k := range mapping {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		files := make([]driving.BatchFile, 0, len(keys))
		for _, citeKey := range keys {
			files = append(files, driving.BatchFile{
				Path:    filepath.Join(dir, mapping[citeKey]),
				CiteKey: citeKey,
			})
		}
		return files, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading directory: %w", err)
	}

	var files []driving.BatchFile
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, driving.BatchFile{
			Path:    filepath.Join(dir, e.Name()),
			CiteKey: fileStem(e.Name()),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// fileStem returns the filename without directory or extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func printIngestSummary(cmd *cobra.Command, files []driving.BatchFile, results []domain.IngestResult) {
	counts := map[domain.IngestStatus]int{}
	for i, res := range results {
		counts[res.Status]++

		name := filepath.Base(files[i].Path)
		switch res.Status {
		case domain.IngestIndexed:
			cmd.Printf("  indexed  %s (%d chunks)\n", name, res.ChunkCount)
		case domain.IngestSkipped:
			cmd.Printf("  skipped  %s (already indexed)\n", name)
		case domain.IngestEmpty:
			cmd.Printf("  empty    %s (no text extracted)\n", name)
		case domain.IngestError:
			cmd.Printf("  error    %s: %v\n", name, res.Err)
		}
	}

	cmd.Printf("\nIndexed: %d  Skipped: %d  Empty: %d  Errors: %d\n",
		counts[domain.IngestIndexed],
		counts[domain.IngestSkipped],
		counts[domain.IngestEmpty],
		counts[domain.IngestError])
}
