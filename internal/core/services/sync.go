package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOptions configures a SyncOrchestrator.
type SyncOptions struct {
	// OutputDir is the root of the output tree. Each source writes to
	// OutputDir/<name>.
	OutputDir string

	// Concurrency bounds how many sources SyncAll runs at once.
	Concurrency int
}

// SyncOrchestrator coordinates source synchronisation.
type SyncOrchestrator struct {
	factory   driven.AdapterFactory
	manifests driven.ManifestStore
	writer    driven.ContentWriter
	history   driven.SyncHistoryStore
	opts      SyncOptions

	locks *sourceLocks
	now   func() time.Time
	newID func() string

	// Status tracking
	mu          sync.RWMutex
	activeSyncs map[string]*driving.SyncStatus
}

// NewSyncOrchestrator creates a new sync orchestrator.
// The history store is optional - if nil, runs are not recorded.
func NewSyncOrchestrator(
	factory driven.AdapterFactory,
	manifests driven.ManifestStore,
	writer driven.ContentWriter,
	history driven.SyncHistoryStore,
	opts SyncOptions,
) *SyncOrchestrator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = domain.DefaultConcurrency
	}
	return &SyncOrchestrator{
		factory:     factory,
		manifests:   manifests,
		writer:      writer,
		history:     history,
		opts:        opts,
		locks:       newSourceLocks(),
		now:         time.Now,
		newID:       uuid.NewString,
		activeSyncs: make(map[string]*driving.SyncStatus),
	}
}

// SyncSource synchronises one source into OutputDir/<name>.
func (o *SyncOrchestrator) SyncSource(ctx context.Context, cfg domain.SourceConfig) *domain.SyncResult {
	result := o.execute(ctx, cfg, false)
	o.record(ctx, result)
	return result
}

// Plan fetches and diffs a source without touching files or the manifest.
func (o *SyncOrchestrator) Plan(ctx context.Context, cfg domain.SourceConfig) *domain.SyncResult {
	return o.execute(ctx, cfg, true)
}

// SyncAll synchronises every source concurrently.
// Results are returned in the order of cfgs.
func (o *SyncOrchestrator) SyncAll(ctx context.Context, cfgs []domain.SourceConfig) []*domain.SyncResult {
	results := make([]*domain.SyncResult, len(cfgs))

	var g errgroup.Group
	g.SetLimit(o.opts.Concurrency)
	for i, cfg := range cfgs {
		g.Go(func() error {
			results[i] = o.SyncSource(ctx, cfg)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Forget removes every file tracked for a source, then its manifest.
func (o *SyncOrchestrator) Forget(ctx context.Context, cfg domain.SourceConfig) (int, error) {
	if err := domain.ValidateSourceName(cfg.Name); err != nil {
		return 0, err
	}
	unlock, err := o.locks.Lock(ctx, cfg.Name)
	if err != nil {
		return 0, err
	}
	defer unlock()

	manifest, err := o.manifests.Load(ctx, cfg.Name)
	if err != nil && !errors.Is(err, domain.ErrManifestCorrupt) {
		return 0, fmt.Errorf("load manifest: %w", err)
	}

	root := o.sourceRoot(cfg.Name)
	removed := 0
	var errs []error
	for _, entry := range manifest.Entries {
		target, err := domain.JoinRelative(root, entry.RelativePath)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := o.writer.Remove(target, root); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", entry.RelativePath, err))
			continue
		}
		removed++
	}
	if len(errs) > 0 {
		return removed, errors.Join(errs...)
	}

	if err := o.manifests.Delete(ctx, cfg.Name); err != nil {
		return removed, fmt.Errorf("delete manifest: %w", err)
	}
	logger.Info("Forgot source %s: removed %d files", cfg.Name, removed)
	return removed, nil
}

// Status returns sync status for a source.
func (o *SyncOrchestrator) Status(_ context.Context, source string) (*driving.SyncStatus, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if status, ok := o.activeSyncs[source]; ok {
		// Return a copy to avoid race conditions
		cp := *status
		return &cp, nil
	}

	// Not running - return idle status
	return &driving.SyncStatus{Source: source}, nil
}

func (o *SyncOrchestrator) execute(ctx context.Context, cfg domain.SourceConfig, dryRun bool) *domain.SyncResult {
	result := &domain.SyncResult{
		RunID:     o.newID(),
		Source:    cfg.Name,
		Type:      cfg.Type,
		DryRun:    dryRun,
		StartedAt: o.now(),
	}
	if err := o.run(ctx, cfg, result); err != nil {
		result.Err = err
		logger.Error("Sync of %s failed: %v", cfg.Name, err)
	}
	result.FinishedAt = o.now()
	return result
}

// run performs one sync. A returned error fails the whole source and
// leaves the manifest untouched.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (o *SyncOrchestrator) run(ctx context.Context, cfg domain.SourceConfig, result *domain.SyncResult) error {
	// 1. Validate configuration before touching anything
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// 2. Serialise runs of the same source
	unlock, err := o.locks.Lock(ctx, cfg.Name)
	if err != nil {
		return err
	}
	defer unlock()

	o.setStatus(cfg.Name, &driving.SyncStatus{Source: cfg.Name, Running: true})
	defer o.clearStatus(cfg.Name)

	logger.Section("Sync " + cfg.Name)

	// 3. Load prior manifest
	prior, err := o.manifests.Load(ctx, cfg.Name)
	switch {
	case errors.Is(err, domain.ErrManifestCorrupt):
		logger.Warn("Manifest for %s is corrupt, treating as empty: %v", cfg.Name, err)
	case err != nil:
		return fmt.Errorf("load manifest: %w", err)
	}
	if prior == nil {
		prior = domain.NewManifest(cfg.Name)
	}

	// 4. Build and validate adapter
	if o.factory == nil {
		return fmt.Errorf("%w: adapter factory not configured", domain.ErrConfiguration)
	}
	adapter, err := o.factory.Create(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create adapter: %w", err)
	}
	defer func() {
		if cerr := adapter.Close(); cerr != nil {
			logger.Warn("Closing adapter for %s: %v", cfg.Name, cerr)
		}
	}()
	if err := adapter.Validate(ctx); err != nil {
		return fmt.Errorf("validate %s: %w", cfg.Name, err)
	}

	// 5. Collect items
	items, err := o.collect(ctx, cfg, adapter, result)
	if err != nil {
		return err
	}
	logger.Info("Fetched %d items for %s (%d errors)", len(items), cfg.Name, len(result.Errors))

	// 6. Reconcile output tree and manifest
	return o.reconcile(ctx, cfg, prior, items, result)
}

// collect enumerates, crawls and converts every item of a source.
// Only enumeration and authentication failures are returned; everything
// else becomes an item error on result.
func (o *SyncOrchestrator) collect(
	ctx context.Context,
	cfg domain.SourceConfig,
	adapter driven.SourceAdapter,
	result *domain.SyncResult,
) ([]domain.FetchedItem, error) {
	seeds, err := adapter.Enumerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", cfg.Name, err)
	}

	var extract ExtractFunc
	if le, ok := adapter.(driven.LinkExtractor); ok {
		extract = le.ExtractLinks
	}

	crawled, crawlErrs, err := Crawl(ctx, seeds, CrawlOptions{
		Depth:       cfg.Depth,
		Concurrency: cfg.Concurrency,
		MaxItems:    cfg.MaxItems,
		OnFetch: func(id string, err error) {
			o.updateStatus(cfg.Name, err)
			if err != nil {
				logger.Debug("Fetch %s failed: %v", id, err)
			}
		},
	}, adapter.Fetch, extract)
	if err != nil {
		return nil, fmt.Errorf("crawl %s: %w", cfg.Name, err)
	}
	for _, e := range crawlErrs {
		result.AddError(e)
	}

	items := make([]domain.FetchedItem, 0, len(crawled))
	paths := make(map[string]string, len(crawled))
	for _, c := range crawled {
		item, err := adapter.Convert(c.Raw, cfg.SeedFormat(c.Seed))
		if err != nil {
			result.AddError(domain.NewItemError(c.Raw.Identifier, "", err))
			continue
		}
		if first, dup := paths[item.RelativePath]; dup {
			result.AddError(domain.NewItemError(c.Raw.Identifier, item.RelativePath,
				fmt.Errorf("%w: already produced by %s", domain.ErrDuplicatePath, first)))
			continue
		}
		paths[item.RelativePath] = c.Raw.Identifier
		items = append(items, *item)
	}
	return items, nil
}

// reconcile writes items, deletes orphans and persists the new manifest.
//
//nolint:gocognit // Reconciliation walks items and prior entries in one pass each
func (o *SyncOrchestrator) reconcile(
	ctx context.Context,
	cfg domain.SourceConfig,
	prior *domain.Manifest,
	items []domain.FetchedItem,
	result *domain.SyncResult,
) error {
	now := o.now().UTC()
	root := o.sourceRoot(cfg.Name)
	priorIdx := prior.Index()
	next := domain.NewManifest(cfg.Name)
	present := make(map[string]bool, len(items))
	failed := false

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		digest := o.writer.Hash(item.Content)
		target, err := domain.JoinRelative(root, item.RelativePath)
		if err != nil {
			result.AddError(domain.NewItemError(item.SourceIdentifier, item.RelativePath, err))
			continue
		}
		present[item.RelativePath] = true

		entry := domain.ManifestEntry{
			RelativePath:     item.RelativePath,
			ContentHash:      digest,
			LastSyncedAt:     now,
			SourceIdentifier: item.SourceIdentifier,
		}
		old, known := priorIdx[item.RelativePath]

		outcome := domain.OutcomeWritten
		if result.DryRun {
			if known && old.ContentHash == digest {
				outcome = domain.OutcomeUnchanged
			}
		} else {
			outcome, err = o.writer.WriteIfChanged(target, item.Content, digest)
			if err != nil {
				failed = true
				result.AddError(domain.ItemError{
					Identifier:   item.SourceIdentifier,
					RelativePath: item.RelativePath,
					Kind:         domain.ErrorKindWrite,
					Err:          err,
				})
				continue
			}
		}

		if outcome == domain.OutcomeUnchanged {
			if known && old.ContentHash == digest {
				entry.LastSyncedAt = old.LastSyncedAt
			}
			result.Unchanged++
			result.Changes = append(result.Changes, domain.FileChange{RelativePath: item.RelativePath, Action: domain.ActionUnchanged})
		} else {
			result.Written++
			result.Changes = append(result.Changes, domain.FileChange{RelativePath: item.RelativePath, Action: domain.ActionWrite})
		}
		next.Entries = append(next.Entries, entry)
	}

	// Items that failed transiently keep their previous files.
	retained := make(map[string]bool)
	for _, e := range result.Errors {
		if e.Kind == domain.ErrorKindTransient && e.Identifier != "" {
			retained[e.Identifier] = true
		}
	}

	prior.Sort()
	for _, old := range prior.Entries {
		if present[old.RelativePath] {
			continue
		}
		if old.SourceIdentifier != "" && retained[old.SourceIdentifier] {
			next.Entries = append(next.Entries, old)
			result.Changes = append(result.Changes, domain.FileChange{RelativePath: old.RelativePath, Action: domain.ActionKeep})
			continue
		}

		if !result.DryRun {
			if err := o.remove(root, old.RelativePath); err != nil {
				failed = true
				result.AddError(domain.ItemError{
					Identifier:   old.SourceIdentifier,
					RelativePath: old.RelativePath,
					Kind:         domain.ErrorKindDelete,
					Err:          err,
				})
				continue
			}
		}
		result.Deleted++
		result.Changes = append(result.Changes, domain.FileChange{RelativePath: old.RelativePath, Action: domain.ActionDelete})
	}

	sort.Slice(result.Changes, func(i, j int) bool {
		return result.Changes[i].RelativePath < result.Changes[j].RelativePath
	})

	if result.DryRun {
		return nil
	}
	if failed {
		logger.Warn("Not updating manifest for %s: some writes or deletions failed", cfg.Name)
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	next.Sort()
	if next.SameEntries(prior) && !prior.UpdatedAt.IsZero() {
		logger.Debug("Manifest for %s unchanged", cfg.Name)
		return nil
	}
	next.UpdatedAt = now
	if err := o.manifests.Save(ctx, next); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}

	logger.Info("Sync of %s complete: %d written, %d unchanged, %d deleted, %d errors",
		cfg.Name, result.Written, result.Unchanged, result.Deleted, len(result.Errors))
	return nil
}

func (o *SyncOrchestrator) remove(root, relPath string) error {
	target, err := domain.JoinRelative(root, relPath)
	if err != nil {
		return err
	}
	return o.writer.Remove(target, root)
}

func (o *SyncOrchestrator) sourceRoot(name string) string {
	return filepath.Join(o.opts.OutputDir, name)
}

// record stores a finished run. Failures are logged, never returned.
func (o *SyncOrchestrator) record(ctx context.Context, result *domain.SyncResult) {
	if o.history == nil {
		return
	}
	if err := o.history.Record(context.WithoutCancel(ctx), result.Run()); err != nil {
		logger.Warn("Recording sync history for %s: %v", result.Source, err)
	}
}

// setStatus updates the status for a source.
func (o *SyncOrchestrator) setStatus(source string, status *driving.SyncStatus) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activeSyncs[source] = status
}

// updateStatus counts one fetch attempt.
func (o *SyncOrchestrator) updateStatus(source string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if status, ok := o.activeSyncs[source]; ok {
		if err != nil {
			status.ErrorCount++
		} else {
			status.ItemsFetched++
		}
	}
}

// clearStatus removes the status for a source.
func (o *SyncOrchestrator) clearStatus(source string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.activeSyncs, source)
}
