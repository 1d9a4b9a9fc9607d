// Package engine owns the task lifecycle: creation, urgency
// reclassification on a once-per-second tick, expiration migration
// through a short settle delay, a 24h graveyard with hold-to-confirm
// resurrection, and the lifetime tally. State lives in memory behind
// one mutex; every mutation rewrites the persisted snapshot and is
// announced to subscribers after the lock is released.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ruishinor/reaperd/internal/model"
	"github.com/ruishinor/reaperd/internal/scheduler"
	"github.com/ruishinor/reaperd/internal/storage"
)

const (
	DefaultSettleDelay  = 300 * time.Millisecond
	DefaultHoldDuration = 3 * time.Second
)

var ErrClosed = errors.New("engine: closed")

// Timers arms the deferred callbacks for settle and hold windows.
// *scheduler.Queue satisfies it; engine tests drive HandleTimer by
// hand instead.
type Timers interface {
	Schedule(ev scheduler.Event) error
	Cancel(kind scheduler.Kind, id string) bool
}

type Clock func() time.Time

type holdRecord struct {
	token     uint64
	startedAt time.Time
	fireAt    time.Time
}

type Engine struct {
	mu      sync.Mutex
	clock   Clock
	timers  Timers
	repo    storage.Repository
	log     *slog.Logger
	settle  time.Duration
	holdFor time.Duration

	active []model.Task       // insertion order
	graves []model.GraveEntry // migration order
	tally  model.Tally

	expiring map[string]time.Time     // task id -> settle fire time
	holds    map[string]holdRecord    // grave id -> pending hold
	lastSeen map[string]model.Urgency // task id -> urgency at last observation
	holdSeq  uint64
	closed   bool

	hmu      sync.RWMutex
	handlers []Handler
}

type Option func(*Engine)

func WithClock(clock Clock) Option {
	return func(e *Engine) {
		if clock != nil {
			e.clock = clock
		}
	}
}

func WithTimers(t Timers) Option {
	return func(e *Engine) { e.timers = t }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.log = logger.With("component", "engine")
		}
	}
}

func WithSettleDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.settle = d
		}
	}
}

func WithHoldDuration(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.holdFor = d
		}
	}
}

// New hydrates an engine from the repository. A load failure is
// returned rather than swallowed so the caller can decide whether to
// retry against a memory-only store; individually malformed records
// were already dropped by the storage layer and only get logged here.
func New(ctx context.Context, repo storage.Repository, opts ...Option) (*Engine, error) {
	e := &Engine{
		clock:    func() time.Time { return time.Now().UTC() },
		repo:     repo,
		log:      slog.New(slog.DiscardHandler),
		settle:   DefaultSettleDelay,
		holdFor:  DefaultHoldDuration,
		active:   make([]model.Task, 0),
		graves:   make([]model.GraveEntry, 0),
		expiring: make(map[string]time.Time),
		holds:    make(map[string]holdRecord),
		lastSeen: make(map[string]model.Urgency),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.repo != nil {
		if err := e.hydrate(ctx); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Engine) hydrate(ctx context.Context) error {
	snap, err := e.repo.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("engine: load snapshot: %w", err)
	}
	now := e.now()
	dropped := snap.Malformed
	seen := make(map[string]bool, len(snap.Tasks)+len(snap.Graves))
	for _, rec := range snap.Tasks {
		if seen[rec.ID] {
			dropped++
			continue
		}
		seen[rec.ID] = true
		task := model.Task{ID: rec.ID, Name: rec.Name, Deadline: rec.Deadline, Created: rec.Created}
		e.active = append(e.active, task)
		e.lastSeen[task.ID] = model.Classify(task.Deadline, now)
	}
	for _, rec := range snap.Graves {
		// The same id must never be active and buried at once; the
		// active copy wins.
		if seen[rec.ID] {
			dropped++
			continue
		}
		seen[rec.ID] = true
		e.graves = append(e.graves, model.GraveEntry{
			ID:        rec.ID,
			Name:      rec.Name,
			Deadline:  rec.Deadline,
			Created:   rec.Created,
			ExpiredAt: rec.ExpiredAt,
		})
	}
	e.tally = model.Tally{
		Completed: snap.Tally.Completed,
		Expired:   snap.Tally.Expired,
		Streak:    snap.Tally.Streak,
	}.Clamped()
	if dropped > 0 {
		e.log.Warn("dropped malformed snapshot records", "count", dropped)
	}
	e.log.Info("engine hydrated", "tasks", len(e.active), "graves", len(e.graves))
	return nil
}

func (e *Engine) now() time.Time {
	return e.clock()
}

func (e *Engine) SettleDelay() time.Duration {
	return e.settle
}

func (e *Engine) HoldDuration() time.Duration {
	return e.holdFor
}

// Create normalizes the name, assigns an id tied to the sampled
// instant, and registers the task. A non-positive lifespan is not an
// input error: it yields a task that is already Terminal and will be
// reaped on the next tick.
func (e *Engine) Create(name string, lifespan time.Duration) (model.Task, error) {
	now := e.now()
	normalized, err := model.NormalizeName(name)
	if err != nil {
		return model.Task{}, err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return model.Task{}, ErrClosed
	}
	id, err := e.freshIDLocked(now)
	if err != nil {
		e.mu.Unlock()
		return model.Task{}, err
	}
	task := model.Task{ID: id, Name: normalized, Deadline: now.Add(lifespan), Created: now}
	e.active = append(e.active, task)
	e.lastSeen[id] = model.Classify(task.Deadline, now)
	e.log.Info("task created", "task", id, "lifespan", lifespan)

	created := task
	events := []Event{{Kind: EventTaskCreated, At: now, ID: id, Task: &created}}
	events = append(events, e.persistLocked(now)...)
	e.mu.Unlock()
	e.emit(events)
	return task, nil
}

// Complete removes an active task and credits the streak. It reports
// false when the id is not active, which covers double-presses and
// tasks that already migrated; during a settle window the first
// mutation wins, so completing here moots the pending settle timer.
func (e *Engine) Complete(id string) bool {
	now := e.now()
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	idx := e.findTaskLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return false
	}
	task := e.active[idx]
	e.active = append(e.active[:idx], e.active[idx+1:]...)
	if _, marked := e.expiring[id]; marked {
		delete(e.expiring, id)
		if e.timers != nil {
			e.timers.Cancel(scheduler.KindSettle, id)
		}
	}
	delete(e.lastSeen, id)
	e.tally.RecordCompletion()
	e.log.Info("task completed", "task", id, "streak", e.tally.Streak)

	completed := task
	events := []Event{{Kind: EventTaskCompleted, At: now, ID: id, Task: &completed}}
	events = append(events, e.persistLocked(now)...)
	e.mu.Unlock()
	e.emit(events)
	return true
}

// Delete reaps an active task by hand. The task takes the same road as
// a timed-out one: into the graveyard, expired counter up, streak
// broken.
func (e *Engine) Delete(id string) bool {
	now := e.now()
	e.mu.Lock()
	if e.closed || e.findTaskLocked(id) < 0 {
		e.mu.Unlock()
		return false
	}
	if _, marked := e.expiring[id]; marked {
		if e.timers != nil {
			e.timers.Cancel(scheduler.KindSettle, id)
		}
	}
	events := e.buryLocked(id, now)
	events = append(events, e.persistLocked(now)...)
	e.mu.Unlock()
	e.emit(events)
	return true
}

// PermanentlyDelete removes a graveyard entry with no trace and no
// counter movement. Any pending hold on the entry dies with it.
func (e *Engine) PermanentlyDelete(id string) bool {
	now := e.now()
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return false
	}
	idx := e.findGraveLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return false
	}
	entry := e.graves[idx]
	e.graves = append(e.graves[:idx], e.graves[idx+1:]...)
	e.dropHoldLocked(id)
	e.log.Info("grave entry purged", "entry", id)

	purged := entry
	events := []Event{{Kind: EventGraveDeleted, At: now, ID: id, Grave: &purged}}
	events = append(events, e.persistLocked(now)...)
	e.mu.Unlock()
	e.emit(events)
	return true
}

// StartHold arms the hold-to-confirm window for a graveyard entry.
// Starting again while a hold is pending restarts the window; the
// token keeps a stale fire from the replaced timer from confirming
// early.
func (e *Engine) StartHold(id string) bool {
	now := e.now()
	e.mu.Lock()
	if e.closed || e.timers == nil || e.findGraveLocked(id) < 0 {
		e.mu.Unlock()
		return false
	}
	e.holdSeq++
	rec := holdRecord{token: e.holdSeq, startedAt: now, fireAt: now.Add(e.holdFor)}
	err := e.timers.Schedule(scheduler.Event{
		Kind:   scheduler.KindHold,
		ID:     id,
		Token:  rec.token,
		FireAt: rec.fireAt,
	})
	if err != nil {
		e.log.Warn("hold timer unavailable", "entry", id, "error", err)
		e.mu.Unlock()
		return false
	}
	e.holds[id] = rec
	e.mu.Unlock()
	return true
}

// CancelHold releases the gesture before the window elapses. Nothing
// is mutated or emitted; the entry simply stays buried.
func (e *Engine) CancelHold(id string) bool {
	e.mu.Lock()
	_, ok := e.holds[id]
	if ok {
		e.dropHoldLocked(id)
	}
	e.mu.Unlock()
	return ok
}

// Tick advances the world against a single sampled now: tasks past
// their deadline are marked and their settle timers armed, graveyard
// entries past retention are evicted, and urgency shifts are observed.
func (e *Engine) Tick() {
	now := e.now()
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	events, dirty := e.tickLocked(now)
	if dirty {
		events = append(events, e.persistLocked(now)...)
	}
	e.mu.Unlock()
	e.emit(events)
}

func (e *Engine) tickLocked(now time.Time) ([]Event, bool) {
	var events []Event
	dirty := false

	var due []string
	for _, t := range e.active {
		if t.Deadline.After(now) {
			continue
		}
		if _, marked := e.expiring[t.ID]; marked {
			continue
		}
		due = append(due, t.ID)
	}
	for _, id := range due {
		idx := e.findTaskLocked(id)
		if idx < 0 {
			continue
		}
		task := e.active[idx]
		fireAt := now.Add(e.settle)
		e.expiring[id] = fireAt

		marked := task
		events = append(events, Event{Kind: EventTaskExpiring, At: now, ID: id, Task: &marked})

		scheduled := false
		if e.timers != nil {
			if err := e.timers.Schedule(scheduler.Event{Kind: scheduler.KindSettle, ID: id, FireAt: fireAt}); err != nil {
				e.log.Warn("settle timer unavailable", "task", id, "error", err)
			} else {
				scheduled = true
			}
		}
		if !scheduled {
			// No timer will come back for this task; migrate in place
			// rather than leave it stranded as expiring forever.
			events = append(events, e.buryLocked(id, now)...)
			dirty = true
		}
	}

	if len(e.graves) > 0 {
		kept := make([]model.GraveEntry, 0, len(e.graves))
		for _, g := range e.graves {
			if !g.EvictionDue(now) {
				kept = append(kept, g)
				continue
			}
			e.dropHoldLocked(g.ID)
			evicted := g
			events = append(events, Event{Kind: EventGraveEvicted, At: now, ID: g.ID, Grave: &evicted})
			e.log.Info("grave entry evicted", "entry", g.ID)
			dirty = true
		}
		e.graves = kept
	}

	for _, t := range e.active {
		u := model.Classify(t.Deadline, now)
		prev, seen := e.lastSeen[t.ID]
		if !seen {
			e.lastSeen[t.ID] = u
			continue
		}
		if prev == u {
			continue
		}
		e.lastSeen[t.ID] = u
		shifted := t
		events = append(events, Event{Kind: EventUrgencyShifted, At: now, ID: t.ID, Task: &shifted, From: prev, To: u})
	}

	return events, dirty
}

// HandleTimer consumes a fired timer from the scheduler. Stale fires
// are ignored: a settle whose task was completed first, or a hold that
// was cancelled, restarted, or outlived by eviction.
func (e *Engine) HandleTimer(ev scheduler.Event) {
	switch ev.Kind {
	case scheduler.KindSettle:
		e.finishExpiration(ev.ID)
	case scheduler.KindHold:
		e.finishHold(ev.ID, ev.Token)
	}
}

func (e *Engine) finishExpiration(id string) {
	now := e.now()
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if _, marked := e.expiring[id]; !marked {
		e.mu.Unlock()
		return
	}
	events := e.buryLocked(id, now)
	if len(events) > 0 {
		events = append(events, e.persistLocked(now)...)
	}
	e.mu.Unlock()
	e.emit(events)
}

func (e *Engine) finishHold(id string, token uint64) {
	now := e.now()
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	rec, ok := e.holds[id]
	if !ok || rec.token != token {
		e.mu.Unlock()
		return
	}
	delete(e.holds, id)

	idx := e.findGraveLocked(id)
	if idx < 0 {
		e.mu.Unlock()
		return
	}
	g := e.graves[idx]

	var events []Event
	if g.EvictionDue(now) {
		// Retention ran out while the hold was pending; eviction wins
		// over resurrection regardless of which timer fired first.
		e.graves = append(e.graves[:idx], e.graves[idx+1:]...)
		evicted := g
		events = append(events, Event{Kind: EventGraveEvicted, At: now, ID: g.ID, Grave: &evicted})
		e.log.Info("grave entry evicted under pending hold", "entry", g.ID)
	} else {
		taskID, err := e.freshIDLocked(now)
		if err != nil {
			e.log.Error("resurrection aborted, cannot mint id", "entry", id, "error", err)
			e.mu.Unlock()
			return
		}
		task := model.Task{
			ID:       taskID,
			Name:     g.Name,
			Deadline: now.Add(g.OriginalDuration()),
			Created:  now,
		}
		e.graves = append(e.graves[:idx], e.graves[idx+1:]...)
		e.active = append(e.active, task)
		e.lastSeen[task.ID] = model.Classify(task.Deadline, now)
		e.log.Info("task resurrected", "entry", g.ID, "task", task.ID)

		left := g
		born := task
		events = append(events, Event{Kind: EventGraveResurrected, At: now, ID: g.ID, Grave: &left, Task: &born})
	}
	events = append(events, e.persistLocked(now)...)
	e.mu.Unlock()
	e.emit(events)
}

// Close persists a final snapshot and stops accepting mutations. Safe
// to call more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	var err error
	if e.repo != nil {
		if saveErr := e.repo.SaveSnapshot(context.Background(), e.recordsLocked()); saveErr != nil {
			err = fmt.Errorf("engine: final save: %w", saveErr)
		}
	}
	e.mu.Unlock()
	return err
}

// buryLocked migrates an active task into the graveyard: the one place
// expiry happens, whether driven by a settle timer, a manual reap, or
// the no-timer fallback.
func (e *Engine) buryLocked(id string, now time.Time) []Event {
	idx := e.findTaskLocked(id)
	if idx < 0 {
		delete(e.expiring, id)
		return nil
	}
	task := e.active[idx]
	e.active = append(e.active[:idx], e.active[idx+1:]...)
	delete(e.expiring, id)
	delete(e.lastSeen, id)

	entry := model.GraveEntry{
		ID:        task.ID,
		Name:      task.Name,
		Deadline:  task.Deadline,
		Created:   task.Created,
		ExpiredAt: now,
	}
	e.insertGraveLocked(entry)
	e.tally.RecordExpiration()
	e.log.Info("task reaped", "task", task.ID)

	buried := entry
	return []Event{{Kind: EventTaskReaped, At: now, ID: task.ID, Grave: &buried}}
}

func (e *Engine) insertGraveLocked(entry model.GraveEntry) {
	for i := range e.graves {
		if e.graves[i].ID == entry.ID {
			e.graves[i] = entry
			return
		}
	}
	e.graves = append(e.graves, entry)
}

func (e *Engine) dropHoldLocked(id string) {
	if _, ok := e.holds[id]; !ok {
		return
	}
	delete(e.holds, id)
	if e.timers != nil {
		e.timers.Cancel(scheduler.KindHold, id)
	}
}

func (e *Engine) findTaskLocked(id string) int {
	for i := range e.active {
		if e.active[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) findGraveLocked(id string) int {
	for i := range e.graves {
		if e.graves[i].ID == id {
			return i
		}
	}
	return -1
}

func (e *Engine) idInUseLocked(id string) bool {
	return e.findTaskLocked(id) >= 0 || e.findGraveLocked(id) >= 0
}

func (e *Engine) freshIDLocked(now time.Time) (string, error) {
	for attempt := 0; attempt < 4; attempt++ {
		id, err := model.NewID(now)
		if err != nil {
			return "", err
		}
		if !e.idInUseLocked(id) {
			return id, nil
		}
	}
	return "", errors.New("engine: id collision")
}

func (e *Engine) persistLocked(now time.Time) []Event {
	if e.repo == nil {
		return nil
	}
	if err := e.repo.SaveSnapshot(context.Background(), e.recordsLocked()); err != nil {
		e.log.Warn("snapshot save failed, state kept in memory", "error", err)
		return []Event{{Kind: EventSaveFailed, At: now, Err: err}}
	}
	return nil
}

func (e *Engine) recordsLocked() storage.Snapshot {
	snap := storage.Snapshot{
		Tasks:  make([]storage.TaskRecord, 0, len(e.active)),
		Graves: make([]storage.GraveRecord, 0, len(e.graves)),
		Tally: storage.TallyRecord{
			Completed: e.tally.Completed,
			Expired:   e.tally.Expired,
			Streak:    e.tally.Streak,
		},
	}
	for _, t := range e.active {
		snap.Tasks = append(snap.Tasks, storage.TaskRecord{
			ID:       t.ID,
			Name:     t.Name,
			Deadline: t.Deadline,
			Created:  t.Created,
		})
	}
	for _, g := range e.graves {
		snap.Graves = append(snap.Graves, storage.GraveRecord{
			ID:        g.ID,
			Name:      g.Name,
			Deadline:  g.Deadline,
			Created:   g.Created,
			ExpiredAt: g.ExpiredAt,
		})
	}
	return snap
}
