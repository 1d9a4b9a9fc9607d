package storage

import (
	"context"
	"sync"
)

// MemoryRepository keeps the snapshot in process memory. It backs tests
// and the degraded mode used when the database cannot be opened.
type MemoryRepository struct {
	mu   sync.Mutex
	snap Snapshot
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		snap: Snapshot{
			Tasks:  make([]TaskRecord, 0),
			Graves: make([]GraveRecord, 0),
		},
	}
}

func (m *MemoryRepository) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copySnapshot(m.snap), nil
}

func (m *MemoryRepository) SaveSnapshot(ctx context.Context, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = copySnapshot(snap)
	return nil
}

func copySnapshot(in Snapshot) Snapshot {
	out := Snapshot{
		Tasks:     make([]TaskRecord, len(in.Tasks)),
		Graves:    make([]GraveRecord, len(in.Graves)),
		Tally:     in.Tally,
		Malformed: in.Malformed,
	}
	copy(out.Tasks, in.Tasks)
	copy(out.Graves, in.Graves)
	return out
}
