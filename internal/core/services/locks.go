package services

import (
	"context"
	"sync"
)

// sourceLocks serialises runs of the same source name.
// Runs of different sources never block each other.
type sourceLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newSourceLocks() *sourceLocks {
	return &sourceLocks{slots: make(map[string]chan struct{})}
}

// Lock waits until name is free or ctx is done.
// The returned function releases the lock.
func (l *sourceLocks) Lock(ctx context.Context, name string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[name]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[name] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		return func() { <-slot }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
