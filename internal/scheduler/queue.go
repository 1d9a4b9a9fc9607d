// Package scheduler runs the deferred one-shot timers behind task
// expiration settling and hold-to-resurrect confirmation. Timers are
// keyed by kind and id so a later schedule for the same key replaces
// the earlier one instead of stacking.
package scheduler

import (
	"container/heap"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrInvalidFireTime = errors.New("scheduler: invalid fire time")
	ErrMissingID       = errors.New("scheduler: event id is required")
	ErrStopped         = errors.New("scheduler: queue stopped")
)

type Kind string

const (
	// KindSettle finishes an expiration migration after the settle delay.
	KindSettle Kind = "settle"
	// KindHold confirms a resurrection after the hold duration.
	KindHold Kind = "hold"
)

type Event struct {
	Kind   Kind
	ID     string
	Token  uint64
	FireAt time.Time
}

func (ev Event) key() string {
	return string(ev.Kind) + "/" + ev.ID
}

type item struct {
	event Event
	index int
}

type priorityQueue []*item

func (pq priorityQueue) Len() int { return len(pq) }

func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].event.FireAt.Before(pq[j].event.FireAt)
}

func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue) Push(x any) {
	it := x.(*item)
	it.index = len(*pq)
	*pq = append(*pq, it)
}

func (pq *priorityQueue) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*pq = old[0 : n-1]
	return it
}

type Queue struct {
	mu      sync.Mutex
	queue   priorityQueue
	byKey   map[string]*item
	out     chan Event
	wakeup  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	stopped bool
	dropped uint64
}

func NewQueue(bufferSize int) *Queue {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	return &Queue{
		queue:  make(priorityQueue, 0),
		byKey:  make(map[string]*item),
		out:    make(chan Event, bufferSize),
		wakeup: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

func (q *Queue) C() <-chan Event {
	return q.out
}

func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true
	heap.Init(&q.queue)
	go q.loop()
}

func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.mu.Unlock()
		return
	}
	q.stopped = true
	close(q.stopCh)
	q.mu.Unlock()
	<-q.doneCh
}

// Schedule arms a timer for the event. A pending event with the same
// kind and id is replaced.
func (q *Queue) Schedule(ev Event) error {
	if ev.FireAt.IsZero() {
		return ErrInvalidFireTime
	}
	if ev.ID == "" {
		return ErrMissingID
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped {
		return ErrStopped
	}

	if prev, ok := q.byKey[ev.key()]; ok {
		heap.Remove(&q.queue, prev.index)
	}
	it := &item{event: ev}
	heap.Push(&q.queue, it)
	q.byKey[ev.key()] = it
	q.signalWakeup()
	return nil
}

// Cancel removes a pending timer. It reports false when no timer for
// that kind and id is pending, which includes timers that already
// fired.
func (q *Queue) Cancel(kind Kind, id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	key := string(kind) + "/" + id
	it, ok := q.byKey[key]
	if !ok {
		return false
	}
	heap.Remove(&q.queue, it.index)
	delete(q.byKey, key)
	q.signalWakeup()
	return true
}

func (q *Queue) Dropped() uint64 {
	return atomic.LoadUint64(&q.dropped)
}

// Pending reports how many timers are armed.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queue)
}

func (q *Queue) loop() {
	defer close(q.doneCh)
	defer close(q.out)

	var timer *time.Timer
	for {
		next, hasNext := q.peek()
		if !hasNext {
			select {
			case <-q.wakeup:
				continue
			case <-q.stopCh:
				return
			}
		}

		wait := time.Until(next.FireAt)
		if wait < 0 {
			wait = 0
		}
		timer = resetTimer(timer, wait)

		select {
		case <-timer.C:
			due := q.popDue(time.Now().UTC())
			for _, ev := range due {
				select {
				case q.out <- ev:
				default:
					atomic.AddUint64(&q.dropped, 1)
				}
			}
		case <-q.wakeup:
			continue
		case <-q.stopCh:
			if timer != nil {
				stopTimer(timer)
			}
			return
		}
	}
}

func (q *Queue) signalWakeup() {
	select {
	case q.wakeup <- struct{}{}:
	default:
	}
}

func (q *Queue) peek() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.queue) == 0 {
		return Event{}, false
	}
	return q.queue[0].event, true
}

func (q *Queue) popDue(now time.Time) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Event, 0)
	for len(q.queue) > 0 {
		next := q.queue[0].event
		if next.FireAt.After(now) {
			break
		}
		it := heap.Pop(&q.queue).(*item)
		delete(q.byKey, it.event.key())
		out = append(out, it.event)
	}
	return out
}

func resetTimer(timer *time.Timer, d time.Duration) *time.Timer {
	if timer == nil {
		return time.NewTimer(d)
	}
	stopTimer(timer)
	timer.Reset(d)
	return timer
}

func stopTimer(timer *time.Timer) {
	if timer == nil {
		return
	}
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
