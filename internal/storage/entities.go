package storage

import (
	"strings"
	"time"
)

type TaskRecord struct {
	ID       string
	Name     string
	Deadline time.Time
	Created  time.Time
}

type GraveRecord struct {
	ID        string
	Name      string
	Deadline  time.Time
	Created   time.Time
	ExpiredAt time.Time
}

type TallyRecord struct {
	Completed int
	Expired   int
	Streak    int
}

// Snapshot is the persisted world: every active task, every grave
// entry, and the lifetime counters. Malformed counts rows that failed
// shape validation during load and were dropped.
type Snapshot struct {
	Tasks     []TaskRecord
	Graves    []GraveRecord
	Tally     TallyRecord
	Malformed int
}

func (r TaskRecord) valid() bool {
	return strings.TrimSpace(r.ID) != "" &&
		strings.TrimSpace(r.Name) != "" &&
		!r.Deadline.IsZero() &&
		!r.Created.IsZero()
}

func (r GraveRecord) valid() bool {
	return strings.TrimSpace(r.ID) != "" &&
		strings.TrimSpace(r.Name) != "" &&
		!r.Deadline.IsZero() &&
		!r.Created.IsZero() &&
		!r.ExpiredAt.IsZero()
}
