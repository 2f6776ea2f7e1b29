package driven

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// SyncHistoryStore records finished sync runs.
type SyncHistoryStore interface {
	// Record stores one run.
	Record(ctx context.Context, run domain.SyncRun) error

	// List returns the most recent runs, newest first. An empty source
	// lists runs of every source. A limit <= 0 means no limit.
	List(ctx context.Context, source string, limit int) ([]domain.SyncRun, error)

	// Last returns the most recent run of a source, or domain.ErrNotFound.
	Last(ctx context.Context, source string) (*domain.SyncRun, error)
}
