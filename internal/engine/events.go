package engine

import (
	"time"

	"github.com/ruishinor/reaperd/internal/model"
)

type EventKind string

const (
	EventTaskCreated      EventKind = "task_created"
	EventTaskCompleted    EventKind = "task_completed"
	EventTaskExpiring     EventKind = "task_expiring"
	EventTaskReaped       EventKind = "task_reaped"
	EventGraveEvicted     EventKind = "grave_evicted"
	EventGraveResurrected EventKind = "grave_resurrected"
	EventGraveDeleted     EventKind = "grave_deleted"
	EventUrgencyShifted   EventKind = "urgency_shifted"
	EventSaveFailed       EventKind = "save_failed"
)

// Event describes one observed state change. ID names the task or
// grave entry it concerns; Task and Grave carry the new or departing
// record where one applies.
type Event struct {
	Kind  EventKind
	At    time.Time
	ID    string
	Task  *model.Task
	Grave *model.GraveEntry
	From  model.Urgency
	To    model.Urgency
	Err   error
}

// Handler receives events after the mutation that produced them has
// committed and the engine lock is released. Handlers run on the
// mutating goroutine and must not block.
type Handler func(Event)

func (e *Engine) Subscribe(h Handler) {
	if h == nil {
		return
	}
	e.hmu.Lock()
	defer e.hmu.Unlock()
	e.handlers = append(e.handlers, h)
}

func (e *Engine) emit(events []Event) {
	if len(events) == 0 {
		return
	}
	e.hmu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.hmu.RUnlock()

	for _, ev := range events {
		for _, h := range handlers {
			h(ev)
		}
	}
}
