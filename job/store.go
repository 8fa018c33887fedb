package job

import (
	"context"
	"sync"
)

// Store persists job snapshots for polling. Implementations must be safe
// for concurrent use.
type Store interface {
	Write(ctx context.Context, jobID string, snap Snapshot) error
	Get(ctx context.Context, jobID string) (Snapshot, bool, error)
}

// MemoryStore keeps snapshots in process memory. It is the default store
// for tests and single-node development.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string]Snapshot)}
}

func (s *MemoryStore) Write(_ context.Context, jobID string, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[jobID] = snap
	return nil
}

func (s *MemoryStore) Get(_ context.Context, jobID string) (Snapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[jobID]
	return snap, ok, nil
}
