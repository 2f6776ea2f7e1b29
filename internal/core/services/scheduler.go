package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-sync/internal/logger"
)

// Scheduler re-runs a set of sources at a fixed interval.
// The next run starts one interval after the previous run finished, so runs
// never overlap.
type Scheduler struct {
	syncOrch  driving.SyncOrchestrator
	interval  time.Duration
	onResults func([]*domain.SyncResult)

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewScheduler creates a scheduler. onResults, if non-nil, receives the
// results of every run.
func NewScheduler(
	syncOrch driving.SyncOrchestrator,
	interval time.Duration,
	onResults func([]*domain.SyncResult),
) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: sync interval must be positive, got %s", domain.ErrConfiguration, interval)
	}
	return &Scheduler{
		syncOrch:  syncOrch,
		interval:  interval,
		onResults: onResults,
	}, nil
}

// Start runs the sources immediately, then once per interval. It blocks
// until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context, cfgs []domain.SourceConfig) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	s.wg.Add(1)
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		s.wg.Done()
	}()

	for {
		s.runOnce(ctx, cfgs)

		timer := time.NewTimer(s.interval)
		logger.Info("Next sync at %s", time.Now().Add(s.interval).Format(time.TimeOnly))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-stopCh:
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// Stop ends the loop after the current run completes.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

func (s *Scheduler) runOnce(ctx context.Context, cfgs []domain.SourceConfig) {
	logger.Section("Scheduled sync")
	results := s.syncOrch.SyncAll(ctx, cfgs)
	if domain.AnyFailed(results) {
		logger.Warn("Scheduled sync finished with failed sources")
	}
	if s.onResults != nil {
		s.onResults(results)
	}
}
