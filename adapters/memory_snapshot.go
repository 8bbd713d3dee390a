package adapters

import (
	"context"
	"sync"

	"github.com/open2fa/console/repository"
)

// MemorySnapshotStore is an in-memory implementation of SnapshotStore.
// Snapshots do not survive a process restart; it is suitable for tests and
// for running the console without a backing database.
type MemorySnapshotStore struct {
	mu    sync.RWMutex
	slots map[string][]byte
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{
		slots: make(map[string][]byte),
	}
}

func (m *MemorySnapshotStore) Read(ctx context.Context, slot string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, exists := m.slots[slot]
	if !exists {
		return nil, nil
	}

	// Return a copy to prevent external modifications
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *MemorySnapshotStore) Write(ctx context.Context, slot string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := make([]byte, len(data))
	copy(stored, data)
	m.slots[slot] = stored
	return nil
}

var _ repository.SnapshotStore = (*MemorySnapshotStore)(nil)
