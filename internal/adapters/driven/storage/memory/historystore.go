package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
)

// Ensure HistoryStore implements the interface.
var _ driven.SyncHistoryStore = (*HistoryStore)(nil)

// HistoryStore is an in-memory implementation of driven.SyncHistoryStore.
type HistoryStore struct {
	mu   sync.RWMutex
	runs []domain.SyncRun
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// Record stores one run.
func (s *HistoryStore) Record(_ context.Context, run domain.SyncRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs = append(s.runs, run)
	return nil
}

// List returns runs newest first, optionally filtered by source.
func (s *HistoryStore) List(_ context.Context, source string, limit int) ([]domain.SyncRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.SyncRun
	for i := len(s.runs) - 1; i >= 0; i-- {
		if source != "" && s.runs[i].Source != source {
			continue
		}
		out = append(out, s.runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Last returns the most recent run of a source.
func (s *HistoryStore) Last(ctx context.Context, source string) (*domain.SyncRun, error) {
	runs, err := s.List(ctx, source, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, domain.ErrNotFound
	}
	return &runs[0], nil
}
