package storage

import "context"

// Repository persists whole snapshots. The engine is the single writer
// and rewrites the full state on every mutation; load happens once at
// startup and is tolerant of individually malformed records.
type Repository interface {
	LoadSnapshot(ctx context.Context) (Snapshot, error)
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}
