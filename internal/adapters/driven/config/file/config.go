package file

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Default paths, relative to the data directory.
const (
	DefaultConfigFile = "config.toml"
	DefaultIndexDir   = "data/index"
	DefaultSeedDir    = "fixtures/seed"
	DefaultPDFDir     = "data/pdfs"
)

// ChunkingConfig controls text segmentation.
type ChunkingConfig struct {
	// Size is the target chunk size in characters.
	Size int `toml:"size"`

	// Overlap is the number of overlapping characters between chunks.
	Overlap int `toml:"overlap"`
}

// IndexingConfig tunes the batch embed-upsert engine.
type IndexingConfig struct {
	// BatchSize is the number of chunks per embed/upsert batch.
	BatchSize int `toml:"batch_size"`

	// MaxRetries bounds upsert retries on transient contention.
	MaxRetries int `toml:"max_retries"`

	// BaseSleepMS is the first backoff interval in milliseconds.
	BaseSleepMS int `toml:"base_sleep_ms"`

	// LogEvery emits a progress line every N batches.
	LogEvery int `toml:"log_every"`

	// RateDelaySeconds is the pause between documents in batch ingestion.
	RateDelaySeconds int `toml:"rate_delay_seconds"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "openai" (Upstage-compatible) or "ollama".
	Provider string `toml:"provider"`

	// BaseURL overrides the provider's default endpoint.
	BaseURL string `toml:"base_url"`

	// Model is the embedding model name.
	Model string `toml:"model"`

	// Dimensions overrides the model's default vector size.
	Dimensions int `toml:"dimensions"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env"`
}

// ParserConfig configures the document parsing service.
type ParserConfig struct {
	// BaseURL overrides the default endpoint.
	BaseURL string `toml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env"`
}

// StoreConfig configures the vector store.
type StoreConfig struct {
	// Tuning is passed through opaquely to the store, which applies
	// the knobs it understands and ignores the rest.
	Tuning map[string]string `toml:"tuning"`
}

// Config is the full application configuration. Built once at startup
// and passed by value into each component constructor.
type Config struct {
	// IndexDir holds the vector store's native files.
	IndexDir string `toml:"index_dir"`

	// SeedDir holds the pre-built seed dataset (index files + pdfs/).
	SeedDir string `toml:"seed_dir"`

	// ArtifactDir holds one source PDF per indexed document.
	ArtifactDir string `toml:"artifact_dir"`

	// ResetToSeed wipes local state and restores the seed at startup.
	ResetToSeed bool `toml:"reset_to_seed"`

	Chunking  ChunkingConfig  `toml:"chunking"`
	Indexing  IndexingConfig  `toml:"indexing"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Parser    ParserConfig    `toml:"parser"`
	Store     StoreConfig     `toml:"store"`

	// EmbeddingAPIKey and ParserAPIKey are resolved from the environment
	// at load time; they never appear in the TOML file.
	EmbeddingAPIKey string `toml:"-"`
	ParserAPIKey    string `toml:"-"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		IndexDir:    DefaultIndexDir,
		SeedDir:     DefaultSeedDir,
		ArtifactDir: DefaultPDFDir,
		Chunking:    ChunkingConfig{Size: 500, Overlap: 100},
		Indexing: IndexingConfig{
			BatchSize:        16,
			MaxRetries:       5,
			BaseSleepMS:      500,
			LogEvery:         5,
			RateDelaySeconds: 2,
		},
		Embedding: EmbeddingConfig{
			Provider:  "openai",
			APIKeyEnv: "UPSTAGE_API_KEY",
		},
		Parser: ParserConfig{
			APIKeyEnv: "UPSTAGE_API_KEY",
		},
	}
}

// Presets are named tuning profiles replacing what used to be divergent
// per-script defaults: "seed" favours large coherent chunks for seed
// regeneration, "compact" favours small chunks and low peak memory.
var Presets = map[string]func(*Config){
	"seed": func(c *Config) {
		c.Chunking = ChunkingConfig{Size: 1800, Overlap: 200}
		c.Indexing.BatchSize = 3
	},
	"compact": func(c *Config) {
		c.Chunking = ChunkingConfig{Size: 400, Overlap: 50}
		c.Indexing.BatchSize = 10
	},
}

// ApplyPreset overlays a named preset onto the config.
func (c *Config) ApplyPreset(name string) error {
	preset, ok := Presets[name]
	if !ok {
		return fmt.Errorf("unknown preset %q", name)
	}
	preset(c)
	return nil
}

// Load reads the configuration file at path, overlaying it on the
// defaults. A missing file yields the defaults. Secrets are then
// resolved from the environment (after loading a .env file if present).
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	// .env is optional; real environment variables win.
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"))

	cfg.EmbeddingAPIKey = os.Getenv(cfg.Embedding.APIKeyEnv)
	cfg.ParserAPIKey = os.Getenv(cfg.Parser.APIKeyEnv)

	return cfg, nil
}
