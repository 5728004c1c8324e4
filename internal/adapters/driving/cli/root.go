// Package cli implements the command-line driving adapter.
//
// Commands talk to the core exclusively through the driving ports;
// wiring of stores, embedders, and parsers happens once, lazily, the
// first time a command needs a service.
package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/paperdex-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/paperdex-cli/internal/adapters/driven/embedding/ollama"
	"github.com/custodia-labs/paperdex-cli/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/paperdex-cli/internal/adapters/driven/parser/upstage"
	"github.com/custodia-labs/paperdex-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driving"
	"github.com/custodia-labs/paperdex-cli/internal/core/services"
	"github.com/custodia-labs/paperdex-cli/internal/logger"
	"github.com/custodia-labs/paperdex-cli/internal/postprocessors/chunker"
)

var version = "dev"

// Global flags.
var (
	cfgPath    string
	presetName string
	verbose    bool
)

// Services used by the commands. Set once by ensureServices, or
// injected directly by tests.
var (
	ingestService   driving.IngestService
	registryService driving.RegistryService
	searchService   driving.SearchService

	servicesReady bool
	appCleanups   []func() error
)

var rootCmd = &cobra.Command{
	Use:   "paperdex",
	Short: "Index and search papers locally",
	Long: `Paperdex parses PDF papers, chunks and embeds their text, and
maintains a local vector index for semantic search.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to the config file")
	rootCmd.PersistentFlags().StringVar(&presetName, "preset", "", "named tuning preset (seed, compact)")
}

// SetVersion sets the version string printed by the version command.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// Execute runs the root command and releases any opened resources.
func Execute() error {
	defer closeApp()
	return rootCmd.Execute()
}

// loadConfig loads the configuration and applies command-line overlays.
func loadConfig() (file.Config, error) {
	cfg, err := file.Load(cfgPath)
	if err != nil {
		return cfg, err
	}
	if presetName != "" {
		if err := cfg.ApplyPreset(presetName); err != nil {
			return cfg, err
		}
	}
	if indexReset {
		cfg.ResetToSeed = true
	}
	return cfg, nil
}

// ensureServices wires the application once. needIngest additionally
// wires the parsing and indexing path, which requires parser credentials.
func ensureServices(needIngest bool) error {
	if servicesReady {
		if needIngest && ingestService == nil {
			return errors.New("ingest service not configured")
		}
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	appCleanups = append(appCleanups, embedder.Close)

	boot := &services.Bootstrap{
		IndexDir:    cfg.IndexDir,
		SeedDir:     cfg.SeedDir,
		ArtifactDir: cfg.ArtifactDir,
		Reset:       cfg.ResetToSeed,
		Open: func(indexDir string) (driven.VectorStore, error) {
			return sqlite.NewStore(indexDir, cfg.Store.Tuning)
		},
	}
	store, _, err := boot.Run()
	if err != nil {
		return fmt.Errorf("bootstrapping index: %w", err)
	}
	appCleanups = append(appCleanups, store.Close)

	registryService = services.NewRegistry(store)
	searchService = services.NewSearcher(store, embedder)

	if needIngest {
		parser, err := upstage.NewParser(upstage.Config{
			APIKey:  cfg.ParserAPIKey,
			BaseURL: cfg.Parser.BaseURL,
		})
		if err != nil {
			return err
		}
		appCleanups = append(appCleanups, parser.Close)

		splitter := chunker.New(
			chunker.WithChunkSize(cfg.Chunking.Size),
			chunker.WithOverlap(cfg.Chunking.Overlap),
		)
		indexer := services.NewIndexer(store, embedder, splitter, services.IndexerConfig{
			BatchSize:  cfg.Indexing.BatchSize,
			MaxRetries: cfg.Indexing.MaxRetries,
			BaseSleep:  time.Duration(cfg.Indexing.BaseSleepMS) * time.Millisecond,
			LogEvery:   cfg.Indexing.LogEvery,
		})

		var limiter *rate.Limiter
		if cfg.Indexing.RateDelaySeconds > 0 {
			limiter = rate.NewLimiter(rate.Every(time.Duration(cfg.Indexing.RateDelaySeconds)*time.Second), 1)
		}
		ingestService = services.NewIngestor(parser, indexer, cfg.ArtifactDir, limiter)
	}

	servicesReady = true
	return nil
}

// newEmbedder builds the configured embedding provider.
func newEmbedder(cfg file.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case "", "openai":
		return openai.NewEmbeddingService(openai.Config{
			APIKey:     cfg.EmbeddingAPIKey,
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		})
	case "ollama":
		return ollama.NewEmbeddingService(ollama.Config{
			BaseURL:    cfg.Embedding.BaseURL,
			Model:      cfg.Embedding.Model,
			Dimensions: cfg.Embedding.Dimensions,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}

// closeApp releases resources opened by ensureServices, newest first.
func closeApp() {
	for i := len(appCleanups) - 1; i >= 0; i-- {
		if err := appCleanups[i](); err != nil {
			logger.Warn("Cleanup failed: %v", err)
		}
	}
	appCleanups = nil
}
