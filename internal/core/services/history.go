package services

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
)

// Ensure HistoryService implements the interface.
var _ driving.HistoryService = (*HistoryService)(nil)

// HistoryService exposes recorded sync runs.
type HistoryService struct {
	store driven.SyncHistoryStore
}

// NewHistoryService creates a history service. A nil store yields no runs.
func NewHistoryService(store driven.SyncHistoryStore) *HistoryService {
	return &HistoryService{store: store}
}

// List returns recent runs, newest first.
func (s *HistoryService) List(ctx context.Context, source string, limit int) ([]domain.SyncRun, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.List(ctx, source, limit)
}
