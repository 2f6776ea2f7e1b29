package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-sync/internal/core/domain"
	"github.com/custodia-labs/sercha-sync/internal/core/ports/driving"
)

// schedulerMockOrchestrator counts SyncAll calls.
type schedulerMockOrchestrator struct {
	mu    sync.Mutex
	calls int
	fail  bool
}

func (m *schedulerMockOrchestrator) SyncSource(_ context.Context, cfg domain.SourceConfig) *domain.SyncResult {
	r := &domain.SyncResult{Source: cfg.Name}
	if m.fail {
		r.Err = domain.ErrAuthentication
	}
	return r
}

func (m *schedulerMockOrchestrator) SyncAll(ctx context.Context, cfgs []domain.SourceConfig) []*domain.SyncResult {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	results := make([]*domain.SyncResult, len(cfgs))
	for i, cfg := range cfgs {
		results[i] = m.SyncSource(ctx, cfg)
	}
	return results
}

func (m *schedulerMockOrchestrator) Plan(ctx context.Context, cfg domain.SourceConfig) *domain.SyncResult {
	return m.SyncSource(ctx, cfg)
}

func (m *schedulerMockOrchestrator) Forget(context.Context, domain.SourceConfig) (int, error) {
	return 0, nil
}

func (m *schedulerMockOrchestrator) Status(context.Context, string) (*driving.SyncStatus, error) {
	return nil, nil
}

func (m *schedulerMockOrchestrator) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestNewScheduler_RejectsNonPositiveInterval(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		_, err := NewScheduler(&schedulerMockOrchestrator{}, interval, nil)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
	}
}

func TestScheduler_RunsImmediatelyThenRepeats(t *testing.T) {
	orch := &schedulerMockOrchestrator{}
	runs := make(chan []*domain.SyncResult, 10)
	s, err := NewScheduler(orch, 5*time.Millisecond, func(r []*domain.SyncResult) { runs <- r })
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, []domain.SourceConfig{{Name: "a"}, {Name: "b"}}) }()

	for i := 0; i < 3; i++ {
		select {
		case r := <-runs:
			require.Len(t, r, 2)
			assert.Equal(t, "a", r[0].Source)
		case <-time.After(2 * time.Second):
			t.Fatal("scheduled run did not happen")
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop on cancellation")
	}
	assert.GreaterOrEqual(t, orch.count(), 3)
}

func TestScheduler_Stop(t *testing.T) {
	orch := &schedulerMockOrchestrator{fail: true}
	ran := make(chan struct{}, 1)
	s, err := NewScheduler(orch, time.Hour, func([]*domain.SyncResult) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background(), []domain.SourceConfig{{Name: "a"}}) }()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("first run did not happen")
	}
	require.NoError(t, s.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, 1, orch.count())

	// Stopping twice is a no-op.
	assert.NoError(t, s.Stop())
}

func TestScheduler_StartWhileRunning(t *testing.T) {
	orch := &schedulerMockOrchestrator{}
	ran := make(chan struct{}, 1)
	s, err := NewScheduler(orch, time.Hour, func([]*domain.SyncResult) {
		select {
		case ran <- struct{}{}:
		default:
		}
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx, nil) }()
	<-ran

	assert.NoError(t, s.Start(ctx, nil))
	cancel()
	assert.True(t, errors.Is(<-done, context.Canceled))
	assert.Equal(t, 1, orch.count())
}
