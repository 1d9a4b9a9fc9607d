package model

import (
	"errors"
	"strings"
	"time"
)

// Retention is how long a reaped task lingers in the graveyard before
// it is evicted for good.
const Retention = 24 * time.Hour

type GraveEntry struct {
	ID        string
	Name      string
	Deadline  time.Time
	Created   time.Time
	ExpiredAt time.Time
}

// OriginalDuration is the lifespan the task was created with. A
// resurrected task gets this duration again, measured from the moment
// of resurrection, not the old deadline.
func (g GraveEntry) OriginalDuration() time.Duration {
	return g.Deadline.Sub(g.Created)
}

func (g GraveEntry) RemainingRetention(now time.Time) time.Duration {
	left := Retention - now.Sub(g.ExpiredAt)
	if left < 0 {
		return 0
	}
	return left
}

func (g GraveEntry) EvictionDue(now time.Time) bool {
	return now.Sub(g.ExpiredAt) >= Retention
}

func (g GraveEntry) Validate() error {
	if strings.TrimSpace(g.ID) == "" {
		return errors.New("model: grave entry id is required")
	}
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyName
	}
	if g.Created.IsZero() {
		return errors.New("model: grave entry created time is required")
	}
	if g.Deadline.IsZero() {
		return errors.New("model: grave entry deadline is required")
	}
	if g.ExpiredAt.IsZero() {
		return errors.New("model: grave entry expiry time is required")
	}
	return nil
}
