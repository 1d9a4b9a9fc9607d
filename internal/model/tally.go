package model

type Tally struct {
	Completed int
	Expired   int
	Streak    int
}

func (t *Tally) RecordCompletion() {
	t.Completed++
	t.Streak++
}

// RecordExpiration covers both timer expiry and manual reaping; either
// way the streak is broken.
func (t *Tally) RecordExpiration() {
	t.Expired++
	t.Streak = 0
}

// SuccessRate is the completed share of all finished tasks, in [0, 1].
// With nothing finished yet it reports zero rather than dividing by it.
func (t Tally) SuccessRate() float64 {
	total := t.Completed + t.Expired
	if total == 0 {
		return 0
	}
	return float64(t.Completed) / float64(total)
}

// Clamped floors negative counters that may arrive from a tampered or
// damaged store.
func (t Tally) Clamped() Tally {
	if t.Completed < 0 {
		t.Completed = 0
	}
	if t.Expired < 0 {
		t.Expired = 0
	}
	if t.Streak < 0 {
		t.Streak = 0
	}
	return t
}
