package driving

import (
	"context"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
)

// SyncOrchestrator coordinates synchronisation of sources into the output tree.
type SyncOrchestrator interface {
	// SyncSource synchronises one source. Every outcome, including a
	// source-level failure, is reported in the result.
	SyncSource(ctx context.Context, cfg domain.SourceConfig) *domain.SyncResult

	// SyncAll synchronises all sources, returning results in input order.
	SyncAll(ctx context.Context, cfgs []domain.SourceConfig) []*domain.SyncResult

	// Plan fetches and diffs a source without writing anything.
	Plan(ctx context.Context, cfg domain.SourceConfig) *domain.SyncResult

	// Forget deletes every file tracked for a source and its manifest.
	// Returns the number of files removed.
	Forget(ctx context.Context, cfg domain.SourceConfig) (int, error)

	// Status returns sync status for a source.
	Status(ctx context.Context, source string) (*SyncStatus, error)
}

// SyncStatus represents the current state of a sync operation.
type SyncStatus struct {
	// Source identifies the source.
	Source string

	// Running indicates if sync is currently in progress.
	Running bool

	// ItemsFetched is the count of items fetched so far.
	ItemsFetched int

	// ErrorCount is the number of errors encountered.
	ErrorCount int
}

// HistoryService exposes recorded sync runs.
type HistoryService interface {
	// List returns recent runs, newest first.
	List(ctx context.Context, source string, limit int) ([]domain.SyncRun, error)
}
