package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/sercha-sync/internal/adapters/driven/filesystem"
	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure ManifestStore implements the interface.
var _ driven.ManifestStore = (*ManifestStore)(nil)

const manifestPerm = 0o644

// ManifestStore is a JSON file implementation of driven.ManifestStore.
type ManifestStore struct {
	mu  sync.Mutex
	dir string
}

// NewManifestStore creates a manifest store rooted at dir.
// The directory is created if it does not exist.
func NewManifestStore(dir string) (*ManifestStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create manifest directory: %w", err)
	}
	return &ManifestStore{dir: dir}, nil
}

// Path returns the manifest file path for a source.
func (s *ManifestStore) Path(source string) string {
	return filepath.Join(s.dir, source+".json")
}

// Load reads the manifest for a source.
// Missing files yield an empty manifest. Files that cannot be decoded, or
// that belong to another source, yield an empty manifest and an error
// wrapping domain.ErrManifestCorrupt.
func (s *ManifestStore) Load(_ context.Context, source string) (*domain.Manifest, error) {
	if err := domain.ValidateSourceName(source); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(source))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.NewManifest(source), nil
		}
		return nil, fmt.Errorf("read manifest %s: %w", source, err)
	}

	var m domain.Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.NewManifest(source), fmt.Errorf("%w: %s: %w", domain.ErrManifestCorrupt, source, err)
	}
	if m.Source != source || m.Version > domain.ManifestVersion {
		return domain.NewManifest(source), fmt.Errorf("%w: %s: source %q version %d",
			domain.ErrManifestCorrupt, source, m.Source, m.Version)
	}
	if m.Entries == nil {
		m.Entries = []domain.ManifestEntry{}
	}
	return &m, nil
}

// Save writes the manifest atomically with entries sorted by path.
func (s *ManifestStore) Save(_ context.Context, m *domain.Manifest) error {
	if err := domain.ValidateSourceName(m.Source); err != nil {
		return err
	}

	out := *m
	out.Entries = append([]domain.ManifestEntry{}, m.Entries...)
	out.Version = domain.ManifestVersion
	out.Sort()

	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest %s: %w", m.Source, err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := filesystem.WriteFileAtomic(s.Path(m.Source), data, manifestPerm); err != nil {
		return fmt.Errorf("save manifest %s: %w", m.Source, err)
	}
	return nil
}

// Delete removes the manifest file for a source.
func (s *ManifestStore) Delete(_ context.Context, source string) error {
	if err := domain.ValidateSourceName(source); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.Path(source)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete manifest %s: %w", source, err)
	}
	return nil
}
