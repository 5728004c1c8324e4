package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/custodia-labs/paperdex-cli/internal/core/ports/driven"
	"github.com/custodia-labs/paperdex-cli/internal/logger"
)

// DefaultIndexFile is the store's primary on-disk file inside the index
// directory. Its presence is what "a local index exists" means.
const DefaultIndexFile = "vectors.db"

// seedArtifactSubdir is the artifact subfolder inside a seed dataset.
// Excluded from index-file copies.
const seedArtifactSubdir = "pdfs"

// BootstrapState names the startup decision.
type BootstrapState string

const (
	// ResetToSeed wipes local state and restores the seed dataset.
	ResetToSeed BootstrapState = "reset_to_seed"

	// LoadExisting opens the local index as-is.
	LoadExisting BootstrapState = "load_existing"

	// LoadSeed copies the seed dataset into empty local paths, then opens.
	LoadSeed BootstrapState = "load_seed"

	// CreateEmpty opens (creates) a fresh store.
	CreateEmpty BootstrapState = "create_empty"
)

// OpenStoreFunc opens the vector store rooted at the given index directory.
type OpenStoreFunc func(indexDir string) (driven.VectorStore, error)

// Bootstrap decides which on-disk index state to load at startup and
// leaves the store open. It runs once per process lifetime; a new process
// re-evaluates from on-disk state, which is what makes restarts safe.
type Bootstrap struct {
	// IndexDir holds the store's native files.
	IndexDir string

	// SeedDir mirrors the local layout: index files plus a pdfs/ subdir.
	SeedDir string

	// ArtifactDir holds one source file per document id.
	ArtifactDir string

	// Reset forces a reset to the seed dataset when one exists.
	Reset bool

	// IndexFile overrides the index filename. Defaults to DefaultIndexFile.
	IndexFile string

	// Open opens the store once the files are in place.
	Open OpenStoreFunc
}

// indexFile returns the effective index filename.
func (b *Bootstrap) indexFile() string {
	if b.IndexFile != "" {
		return b.IndexFile
	}
	return DefaultIndexFile
}

// Decide evaluates the four-way startup decision from on-disk state only,
// in priority order: reset-to-seed, load-existing, load-seed, create-empty.
func (b *Bootstrap) Decide() BootstrapState {
	seedExists := fileExists(filepath.Join(b.SeedDir, b.indexFile()))

	switch {
	case b.Reset && seedExists:
		return ResetToSeed
	case fileExists(filepath.Join(b.IndexDir, b.indexFile())):
		return LoadExisting
	case seedExists:
		return LoadSeed
	default:
		return CreateEmpty
	}
}

// Run executes the decided transition and returns the open store.
func (b *Bootstrap) Run() (driven.VectorStore, BootstrapState, error) {
	if b.Open == nil {
		return nil, "", fmt.Errorf("bootstrap: no store opener configured")
	}
	if err := os.MkdirAll(b.IndexDir, 0o700); err != nil {
		return nil, "", fmt.Errorf("creating index directory: %w", err)
	}

	state := b.Decide()
	logger.Info("Bootstrap state: %s", state)

	switch state {
	case ResetToSeed:
		if err := b.purgeLocal(); err != nil {
			return nil, state, err
		}
		if err := b.copySeedIndexFiles(); err != nil {
			return nil, state, err
		}
		store, err := b.Open(b.IndexDir)
		if err != nil {
			return nil, state, fmt.Errorf("opening store after reset: %w", err)
		}
		if err := b.copySeedArtifacts(); err != nil {
			store.Close()
			return nil, state, err
		}
		return store, state, nil

	case LoadExisting:
		store, err := b.Open(b.IndexDir)
		if err != nil {
			return nil, state, fmt.Errorf("opening existing store: %w", err)
		}
		return store, state, nil

	case LoadSeed:
		if err := b.copySeedIndexFiles(); err != nil {
			return nil, state, err
		}
		store, err := b.Open(b.IndexDir)
		if err != nil {
			return nil, state, fmt.Errorf("opening seeded store: %w", err)
		}
		if err := b.copySeedArtifacts(); err != nil {
			store.Close()
			return nil, state, err
		}
		return store, state, nil

	default: // CreateEmpty
		store, err := b.Open(b.IndexDir)
		if err != nil {
			return nil, state, fmt.Errorf("creating empty store: %w", err)
		}
		return store, state, nil
	}
}

// purgeLocal removes every entry in the index directory and every stored
// source artifact. Derived state only; source PDFs outside the artifact
// directory are untouched.
func (b *Bootstrap) purgeLocal() error {
	entries, err := os.ReadDir(b.IndexDir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("reading index directory: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(b.IndexDir, e.Name())); err != nil {
			return fmt.Errorf("clearing index directory: %w", err)
		}
	}

	artifacts, err := os.ReadDir(b.ArtifactDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading artifact directory: %w", err)
	}
	for _, e := range artifacts {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pdf") {
			continue
		}
		if err := os.Remove(filepath.Join(b.ArtifactDir, e.Name())); err != nil {
			return fmt.Errorf("clearing artifacts: %w", err)
		}
	}
	return nil
}

// copySeedIndexFiles copies the seed dataset's index files (everything
// except its artifact subfolder) into the local index directory.
func (b *Bootstrap) copySeedIndexFiles() error {
	entries, err := os.ReadDir(b.SeedDir)
	if err != nil {
		return fmt.Errorf("reading seed directory: %w", err)
	}

	for _, e := range entries {
		src := filepath.Join(b.SeedDir, e.Name())
		dst := filepath.Join(b.IndexDir, e.Name())

		if e.IsDir() {
			if e.Name() == seedArtifactSubdir {
				continue
			}
			if err := os.RemoveAll(dst); err != nil {
				return fmt.Errorf("replacing %s: %w", e.Name(), err)
			}
			if err := copyDir(src, dst); err != nil {
				return fmt.Errorf("copying seed dir %s: %w", e.Name(), err)
			}
			continue
		}

		if err := copyFile(src, dst); err != nil {
			return fmt.Errorf("copying seed file %s: %w", e.Name(), err)
		}
	}
	return nil
}

// copySeedArtifacts copies seed artifacts into local artifact storage,
// skipping any whose target filename already exists. Idempotent.
func (b *Bootstrap) copySeedArtifacts() error {
	seedArtifacts := filepath.Join(b.SeedDir, seedArtifactSubdir)
	entries, err := os.ReadDir(seedArtifacts)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading seed artifacts: %w", err)
	}

	if err := os.MkdirAll(b.ArtifactDir, 0o700); err != nil {
		return fmt.Errorf("creating artifact directory: %w", err)
	}

	copied := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".pdf") {
			continue
		}
		dst := filepath.Join(b.ArtifactDir, e.Name())
		if fileExists(dst) {
			continue
		}
		if err := copyFile(filepath.Join(seedArtifacts, e.Name()), dst); err != nil {
			return fmt.Errorf("copying seed artifact %s: %w", e.Name(), err)
		}
		copied++
	}
	if copied > 0 {
		logger.Info("Copied %d seed artifacts", copied)
	}
	return nil
}

// fileExists reports whether path exists (file or directory).
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// copyDir recursively copies a directory tree.
func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dst, 0o700); err != nil {
		return err
	}
	for _, e := range entries {
		s := filepath.Join(src, e.Name())
		d := filepath.Join(dst, e.Name())
		if e.IsDir() {
			if err := copyDir(s, d); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(s, d); err != nil {
			return err
		}
	}
	return nil
}
