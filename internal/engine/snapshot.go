package engine

import (
	"sort"
	"time"

	"github.com/ruishinor/reaperd/internal/model"
)

// TaskView is an active task plus everything derived from the sampled
// now: its urgency, time remaining (negative once past the deadline),
// and whether it is inside a settle window.
type TaskView struct {
	Task      model.Task
	Urgency   model.Urgency
	Remaining time.Duration
	Expiring  bool
}

type GraveView struct {
	Entry         model.GraveEntry
	Retention     time.Duration
	Holding       bool
	HoldRemaining time.Duration
}

type Snapshot struct {
	At          time.Time
	Tasks       []TaskView
	Graves      []GraveView
	Tally       model.Tally
	SuccessRate float64
}

// Snapshot renders the current state against one sampled now. Tasks
// are ordered most urgent first (least time remaining), ties keeping
// insertion order; graves stay in migration order.
func (e *Engine) Snapshot() Snapshot {
	now := e.now()
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked(now)
}

func (e *Engine) snapshotLocked(now time.Time) Snapshot {
	tasks := make([]TaskView, 0, len(e.active))
	for _, t := range e.active {
		_, expiring := e.expiring[t.ID]
		tasks = append(tasks, TaskView{
			Task:      t,
			Urgency:   model.Classify(t.Deadline, now),
			Remaining: t.Deadline.Sub(now),
			Expiring:  expiring,
		})
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Remaining < tasks[j].Remaining
	})

	graves := make([]GraveView, 0, len(e.graves))
	for _, g := range e.graves {
		view := GraveView{Entry: g, Retention: g.RemainingRetention(now)}
		if rec, ok := e.holds[g.ID]; ok {
			view.Holding = true
			if left := rec.fireAt.Sub(now); left > 0 {
				view.HoldRemaining = left
			}
		}
		graves = append(graves, view)
	}

	return Snapshot{
		At:          now,
		Tasks:       tasks,
		Graves:      graves,
		Tally:       e.tally,
		SuccessRate: e.tally.SuccessRate(),
	}
}
