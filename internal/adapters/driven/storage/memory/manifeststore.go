package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure ManifestStore implements the interface.
var _ driven.ManifestStore = (*ManifestStore)(nil)

// ManifestStore is an in-memory implementation of driven.ManifestStore.
type ManifestStore struct {
	mu        sync.RWMutex
	manifests map[string]domain.Manifest
	saves     int
}

// NewManifestStore creates a new in-memory manifest store.
func NewManifestStore() *ManifestStore {
	return &ManifestStore{
		manifests: make(map[string]domain.Manifest),
	}
}

// Load returns a copy of the manifest for a source, or an empty manifest.
func (s *ManifestStore) Load(_ context.Context, source string) (*domain.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.manifests[source]
	if !ok {
		return domain.NewManifest(source), nil
	}
	return clone(m), nil
}

// Save stores a copy of the manifest.
func (s *ManifestStore) Save(_ context.Context, m *domain.Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.manifests[m.Source] = *clone(*m)
	s.saves++
	return nil
}

// Delete removes the manifest for a source.
func (s *ManifestStore) Delete(_ context.Context, source string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.manifests, source)
	return nil
}

// Saves returns how many times Save has been called.
func (s *ManifestStore) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}

func clone(m domain.Manifest) *domain.Manifest {
	m.Entries = append([]domain.ManifestEntry{}, m.Entries...)
	return &m
}
