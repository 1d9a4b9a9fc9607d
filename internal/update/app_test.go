package update

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ruishinor/reaperd/internal/engine"
	"github.com/ruishinor/reaperd/internal/model"
	"github.com/ruishinor/reaperd/internal/scheduler"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type timerLog struct {
	mu      sync.Mutex
	all     []scheduler.Event
	pending map[string]scheduler.Event
}

func newTimerLog() *timerLog {
	return &timerLog{pending: make(map[string]scheduler.Event)}
}

func (l *timerLog) Schedule(ev scheduler.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.all = append(l.all, ev)
	l.pending[string(ev.Kind)+"/"+ev.ID] = ev
	return nil
}

func (l *timerLog) Cancel(kind scheduler.Kind, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := string(kind) + "/" + id
	_, ok := l.pending[key]
	delete(l.pending, key)
	return ok
}

func (l *timerLog) scheduled(kind scheduler.Kind) []scheduler.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]scheduler.Event, 0)
	for _, ev := range l.all {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// newTestModel wires a real engine to the model with a fake clock and a
// recording timer sink, so tests replay timer fires as messages.
func newTestModel(t *testing.T) (Model, *fakeClock, *timerLog) {
	t.Helper()
	clock := newFakeClock(time.Date(2026, 2, 9, 12, 0, 0, 0, time.UTC))
	timers := newTimerLog()
	eng, err := engine.New(context.Background(), nil,
		engine.WithClock(clock.Now),
		engine.WithTimers(timers),
	)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return NewModel(eng, nil), clock, timers
}

func pressKey(t *testing.T, m Model, key string) (Model, tea.Cmd) {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEscape}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(nil, nil)
	if m.CurrentPane != PaneBoard {
		t.Fatalf("expected default pane %q, got %q", PaneBoard, m.CurrentPane)
	}
	if m.Keys.Quit != "q" || m.Keys.Palette != "/" {
		t.Fatalf("unexpected key map: %+v", m.Keys)
	}
	if m.DefaultLifespan != time.Hour {
		t.Fatalf("expected default lifespan 1h, got %v", m.DefaultLifespan)
	}
	if len(m.Presets) != 4 || m.Presets[0].Label != "15m" {
		t.Fatalf("unexpected presets: %+v", m.Presets)
	}
}

func TestUpdateKeySwitchesPane(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, _ := pressKey(t, m, "tab")
	if next.CurrentPane != PaneGraveyard {
		t.Fatalf("expected graveyard pane after tab, got %q", next.CurrentPane)
	}
	next, _ = pressKey(t, next, "tab")
	if next.CurrentPane != PaneBoard {
		t.Fatalf("expected board pane after second tab, got %q", next.CurrentPane)
	}
	next, _ = pressKey(t, next, "g")
	if next.CurrentPane != PaneGraveyard {
		t.Fatalf("expected graveyard pane after g, got %q", next.CurrentPane)
	}
	next, _ = pressKey(t, next, "b")
	if next.CurrentPane != PaneBoard {
		t.Fatalf("expected board pane after b, got %q", next.CurrentPane)
	}
}

func TestUpdateStatusAndError(t *testing.T) {
	m := NewModel(nil, nil)
	updated, _ := m.Update(SetStatusMsg{Text: "ready"})
	next := updated.(Model)
	if next.Status.Text != "ready" || next.Status.IsError {
		t.Fatalf("unexpected status: %+v", next.Status)
	}

	updated, _ = next.Update(AppErrorMsg{Err: errors.New("boom")})
	next = updated.(Model)
	if next.LastError == nil || next.LastError.Error() != "boom" {
		t.Fatalf("expected last error boom, got: %v", next.LastError)
	}
	if !next.Status.IsError || next.Status.Text != "boom" {
		t.Fatalf("unexpected error status: %+v", next.Status)
	}
	if len(next.Notifications) != 1 || next.Notifications[0].Title != "Error" {
		t.Fatalf("expected error notification, got %+v", next.Notifications)
	}

	updated, _ = next.Update(ClearStatusMsg{})
	next = updated.(Model)
	if next.Status.Text != "" || next.Status.IsError {
		t.Fatalf("expected cleared status, got: %+v", next.Status)
	}
}

func TestUpdateQuitKey(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, cmd := pressKey(t, m, "q")
	if !next.Quitting {
		t.Fatal("expected quitting flag true")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestQuickAddCreatesTaskWithDeadlineClause(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, _ := pressKey(t, m, "a")
	if !next.Adding.Active || next.Adding.Preset != nil {
		t.Fatalf("expected bare add mode, got %+v", next.Adding)
	}

	next, _ = pressKey(t, next, "water plants in 45m")
	next, _ = pressKey(t, next, "enter")

	if next.Adding.Active {
		t.Fatal("expected add mode cleared after submit")
	}
	if len(next.Snap.Tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(next.Snap.Tasks))
	}
	tv := next.Snap.Tasks[0]
	if tv.Task.Name != "water plants" {
		t.Fatalf("expected deadline clause stripped from name, got %q", tv.Task.Name)
	}
	if tv.Remaining != 45*time.Minute {
		t.Fatalf("expected 45m remaining, got %v", tv.Remaining)
	}
	if !strings.Contains(next.Status.Text, "added: water plants") {
		t.Fatalf("unexpected status: %q", next.Status.Text)
	}
}

func TestQuickAddPresetPinsLifespan(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, _ := pressKey(t, m, "2")
	if !next.Adding.Active || next.Adding.Preset == nil || next.Adding.Preset.Label != "1h" {
		t.Fatalf("expected 1h preset armed, got %+v", next.Adding)
	}

	next, _ = pressKey(t, next, "scrub the airlock")
	next, _ = pressKey(t, next, "enter")

	if len(next.Snap.Tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(next.Snap.Tasks))
	}
	if next.Snap.Tasks[0].Remaining != time.Hour {
		t.Fatalf("expected preset lifespan 1h, got %v", next.Snap.Tasks[0].Remaining)
	}
}

func TestQuickAddRejectsEmptyName(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, _ := pressKey(t, m, "a")
	next, _ = pressKey(t, next, "enter")
	if !next.Status.IsError || !strings.Contains(next.Status.Text, "a task needs a name") {
		t.Fatalf("expected name error, got %+v", next.Status)
	}
	if !next.Adding.Active {
		t.Fatal("expected add mode to stay active after rejection")
	}
	if len(next.Snap.Tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(next.Snap.Tasks))
	}
}

func TestQuickAddEscCancels(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, _ := pressKey(t, m, "a")
	next, _ = pressKey(t, next, "half typed")
	next, _ = pressKey(t, next, "esc")
	if next.Adding.Active {
		t.Fatal("expected add mode cleared on esc")
	}
	if next.Status.Text != "add cancelled" {
		t.Fatalf("unexpected status: %q", next.Status.Text)
	}
	if len(next.Snap.Tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(next.Snap.Tasks))
	}
}

func TestBoardCompleteAndReapKeys(t *testing.T) {
	m, _, _ := newTestModel(t)
	if _, err := m.Engine.Create("alpha", time.Hour); err != nil {
		t.Fatalf("create alpha: %v", err)
	}
	if _, err := m.Engine.Create("beta", 30*time.Minute); err != nil {
		t.Fatalf("create beta: %v", err)
	}
	m.refreshSnapshot()

	// Least time remaining sorts first, so the cursor starts on beta.
	next, _ := pressKey(t, m, "enter")
	if !strings.Contains(next.Status.Text, "completed: beta") {
		t.Fatalf("unexpected status: %q", next.Status.Text)
	}
	if next.Snap.Tally.Completed != 1 || next.Snap.Tally.Streak != 1 {
		t.Fatalf("unexpected tally: %+v", next.Snap.Tally)
	}
	if len(next.Snap.Tasks) != 1 {
		t.Fatalf("expected 1 task left, got %d", len(next.Snap.Tasks))
	}

	next, _ = pressKey(t, next, "d")
	if !next.Status.IsError || !strings.Contains(next.Status.Text, "reaped by hand: alpha") {
		t.Fatalf("unexpected status: %+v", next.Status)
	}
	if len(next.Snap.Tasks) != 0 || len(next.Snap.Graves) != 1 {
		t.Fatalf("expected alpha buried, tasks=%d graves=%d", len(next.Snap.Tasks), len(next.Snap.Graves))
	}
	if next.Snap.Tally.Expired != 1 || next.Snap.Tally.Streak != 0 {
		t.Fatalf("expected broken streak, got %+v", next.Snap.Tally)
	}
}

func TestGraveyardHoldReleaseAndPurge(t *testing.T) {
	m, _, timers := newTestModel(t)
	task, err := m.Engine.Create("ghost", time.Hour)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !m.Engine.Delete(task.ID) {
		t.Fatal("delete failed")
	}
	m.refreshSnapshot()

	next, _ := pressKey(t, m, "g")
	next, cmd := pressKey(t, next, "r")
	if cmd == nil {
		t.Fatal("expected hold repaint cmd")
	}
	if !strings.Contains(next.Status.Text, "raising ghost") {
		t.Fatalf("unexpected status: %q", next.Status.Text)
	}
	if len(next.Snap.Graves) != 1 || !next.Snap.Graves[0].Holding {
		t.Fatalf("expected holding grave, got %+v", next.Snap.Graves)
	}
	if holds := timers.scheduled(scheduler.KindHold); len(holds) != 1 {
		t.Fatalf("expected 1 hold timer, got %d", len(holds))
	}

	next, _ = pressKey(t, next, "esc")
	if !strings.Contains(next.Status.Text, "released: ghost stays buried") {
		t.Fatalf("unexpected status: %q", next.Status.Text)
	}
	if next.Snap.Graves[0].Holding {
		t.Fatal("expected hold released")
	}

	next, _ = pressKey(t, next, "x")
	if !strings.Contains(next.Status.Text, "purged: ghost") {
		t.Fatalf("unexpected status: %q", next.Status.Text)
	}
	if len(next.Snap.Graves) != 0 {
		t.Fatalf("expected empty graveyard, got %d", len(next.Snap.Graves))
	}
	if next.Snap.Tally.Expired != 1 {
		t.Fatalf("purge must not touch the tally, got %+v", next.Snap.Tally)
	}
}

func TestHoldTimerResurrectsWithOriginalLifespan(t *testing.T) {
	m, clock, timers := newTestModel(t)
	task, err := m.Engine.Create("phoenix", 45*time.Minute)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	m.Engine.Delete(task.ID)
	m.refreshSnapshot()

	next, _ := pressKey(t, m, "g")
	next, _ = pressKey(t, next, "r")
	holds := timers.scheduled(scheduler.KindHold)
	if len(holds) != 1 {
		t.Fatalf("expected 1 hold timer, got %d", len(holds))
	}

	clock.Advance(engine.DefaultHoldDuration)
	updated, _ := next.Update(TimerFiredMsg{Event: holds[0]})
	next = updated.(Model)

	if len(next.Snap.Graves) != 0 {
		t.Fatalf("expected grave resurrected, got %d graves", len(next.Snap.Graves))
	}
	if len(next.Snap.Tasks) != 1 || next.Snap.Tasks[0].Task.Name != "phoenix" {
		t.Fatalf("expected phoenix back on the board, got %+v", next.Snap.Tasks)
	}
	if next.Snap.Tasks[0].Task.ID == task.ID {
		t.Fatal("expected a fresh id on resurrection")
	}
	if next.Snap.Tasks[0].Remaining != 45*time.Minute {
		t.Fatalf("expected original 45m lifespan, got %v", next.Snap.Tasks[0].Remaining)
	}
}

func TestTickMarksExpiringThenSettleBuries(t *testing.T) {
	m, clock, timers := newTestModel(t)
	if _, err := m.Engine.Create("doomed", time.Second); err != nil {
		t.Fatalf("create: %v", err)
	}
	clock.Advance(2 * time.Second)

	updated, cmd := m.Update(TickMsg(clock.Now()))
	next := updated.(Model)
	if cmd == nil {
		t.Fatal("expected tick cmd rearm")
	}
	if len(next.Snap.Tasks) != 1 || !next.Snap.Tasks[0].Expiring {
		t.Fatalf("expected task marked expiring, got %+v", next.Snap.Tasks)
	}
	settles := timers.scheduled(scheduler.KindSettle)
	if len(settles) != 1 {
		t.Fatalf("expected 1 settle timer, got %d", len(settles))
	}

	clock.Advance(engine.DefaultSettleDelay)
	updated, _ = next.Update(TimerFiredMsg{Event: settles[0]})
	next = updated.(Model)
	if len(next.Snap.Tasks) != 0 || len(next.Snap.Graves) != 1 {
		t.Fatalf("expected burial after settle, tasks=%d graves=%d", len(next.Snap.Tasks), len(next.Snap.Graves))
	}
	if next.Snap.Tally.Expired != 1 {
		t.Fatalf("unexpected tally: %+v", next.Snap.Tally)
	}
}

func TestHoldTickRearmsOnlyWhileHolding(t *testing.T) {
	m, _, _ := newTestModel(t)
	updated, cmd := m.Update(HoldTickMsg(time.Now()))
	if cmd != nil {
		t.Fatal("expected no repaint cmd without a hold")
	}
	next := updated.(Model)

	task, _ := next.Engine.Create("ghost", time.Hour)
	next.Engine.Delete(task.ID)
	next.refreshSnapshot()
	next, _ = pressKey(t, next, "g")
	next, _ = pressKey(t, next, "r")

	_, cmd = next.Update(HoldTickMsg(time.Now()))
	if cmd == nil {
		t.Fatal("expected repaint cmd while holding")
	}
}

func TestPaletteAddCommand(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, _ := pressKey(t, m, "/")
	if !next.Palette.Active {
		t.Fatal("expected palette active")
	}
	next, _ = pressKey(t, next, "add water plants in 45m")
	next, _ = pressKey(t, next, "enter")

	if next.Palette.Active {
		t.Fatal("expected palette closed after execute")
	}
	if len(next.Snap.Tasks) != 1 || next.Snap.Tasks[0].Task.Name != "water plants" {
		t.Fatalf("unexpected tasks: %+v", next.Snap.Tasks)
	}
	if next.Snap.Tasks[0].Remaining != 45*time.Minute {
		t.Fatalf("expected 45m remaining, got %v", next.Snap.Tasks[0].Remaining)
	}
	if !strings.Contains(next.Status.Text, "added: water plants") {
		t.Fatalf("unexpected status: %q", next.Status.Text)
	}
}

func TestPaletteDoneCommandTargetsRow(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Engine.Create("alpha", time.Hour)
	m.Engine.Create("beta", 30*time.Minute)
	m.refreshSnapshot()

	// Row 2 is alpha: the board sorts by least time remaining.
	next, _ := pressKey(t, m, "/")
	next, _ = pressKey(t, next, "done 2")
	next, _ = pressKey(t, next, "enter")

	if !strings.Contains(next.Status.Text, "completed: alpha") {
		t.Fatalf("unexpected status: %q", next.Status.Text)
	}
	if len(next.Snap.Tasks) != 1 || next.Snap.Tasks[0].Task.Name != "beta" {
		t.Fatalf("unexpected tasks: %+v", next.Snap.Tasks)
	}
}

func TestPaletteRaiseStartsHold(t *testing.T) {
	m, _, timers := newTestModel(t)
	task, _ := m.Engine.Create("ghost", time.Hour)
	m.Engine.Delete(task.ID)
	m.refreshSnapshot()

	next, _ := pressKey(t, m, "/")
	next, _ = pressKey(t, next, "raise 1")
	next, cmd := pressKey(t, next, "enter")
	if cmd == nil {
		t.Fatal("expected hold repaint cmd")
	}
	if !strings.Contains(next.Status.Text, "raising ghost") {
		t.Fatalf("unexpected status: %q", next.Status.Text)
	}
	if holds := timers.scheduled(scheduler.KindHold); len(holds) != 1 {
		t.Fatalf("expected 1 hold timer, got %d", len(holds))
	}
}

func TestPaletteStatsCommand(t *testing.T) {
	m, _, _ := newTestModel(t)
	task, _ := m.Engine.Create("alpha", time.Hour)
	m.Engine.Complete(task.ID)
	m.refreshSnapshot()

	next, _ := pressKey(t, m, "/")
	next, _ = pressKey(t, next, "stats")
	next, _ = pressKey(t, next, "enter")

	if !strings.Contains(next.Status.Text, "completed 1 | expired 0 | streak 1 | success 100%") {
		t.Fatalf("unexpected stats status: %q", next.Status.Text)
	}
}

func TestPaletteQuitCommand(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, _ := pressKey(t, m, "/")
	next, _ = pressKey(t, next, "quit")
	next, cmd := pressKey(t, next, "enter")
	if !next.Quitting {
		t.Fatal("expected quitting flag")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if next.Status.Text != "goodbye" {
		t.Fatalf("unexpected status: %q", next.Status.Text)
	}
}

func TestPaletteUnknownCommand(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, _ := pressKey(t, m, "/")
	next, _ = pressKey(t, next, "frobnicate")
	next, _ = pressKey(t, next, "enter")
	if !next.Status.IsError || !strings.Contains(next.Status.Text, "unsupported command") {
		t.Fatalf("expected unknown command error, got %+v", next.Status)
	}
}

func TestPaletteEscCloses(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, _ := pressKey(t, m, "/")
	next, _ = pressKey(t, next, "add half ty")
	next, _ = pressKey(t, next, "esc")
	if next.Palette.Active {
		t.Fatal("expected palette closed")
	}
	if len(next.Snap.Tasks) != 0 {
		t.Fatalf("expected nothing executed, got %d tasks", len(next.Snap.Tasks))
	}
}

func TestEngineEventMsgSurfacesReap(t *testing.T) {
	m := NewModel(nil, nil)
	grave := model.GraveEntry{ID: "g1", Name: "old soul"}
	updated, _ := m.Update(EngineEventMsg{Event: engine.Event{Kind: engine.EventTaskReaped, ID: "g1", Grave: &grave}})
	next := updated.(Model)
	if !next.Status.IsError || !strings.Contains(next.Status.Text, "reaped: old soul") {
		t.Fatalf("unexpected status: %+v", next.Status)
	}
	if len(next.Notifications) != 1 || next.Notifications[0].Title != "Reaped" {
		t.Fatalf("expected reap notification, got %+v", next.Notifications)
	}
}

func TestEngineEventMsgSurfacesSaveFailure(t *testing.T) {
	m := NewModel(nil, nil)
	updated, _ := m.Update(EngineEventMsg{Event: engine.Event{Kind: engine.EventSaveFailed, Err: errors.New("disk full")}})
	next := updated.(Model)
	if !next.Status.IsError || !strings.Contains(next.Status.Text, "save failed") {
		t.Fatalf("unexpected status: %+v", next.Status)
	}
	if len(next.Notifications) != 1 || !strings.Contains(next.Notifications[0].Body, "may not survive a restart") {
		t.Fatalf("expected save warning notification, got %+v", next.Notifications)
	}
}

func TestEngineEventRearmsListener(t *testing.T) {
	m, _, _ := newTestModel(t)
	if m.events == nil {
		t.Fatal("expected event channel wired to engine")
	}
	_, cmd := m.Update(EngineEventMsg{Event: engine.Event{Kind: engine.EventGraveEvicted, ID: "gone"}})
	if cmd == nil {
		t.Fatal("expected listener rearm cmd")
	}
}

func TestInitReturnsTickCmd(t *testing.T) {
	m, _, _ := newTestModel(t)
	if cmd := m.Init(); cmd == nil {
		t.Fatal("expected init cmd batch")
	}
}

func TestHelpKeyTogglesPanel(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, _ := pressKey(t, m, "?")
	if !next.HelpVisible || next.Status.Text != "help shown" {
		t.Fatalf("expected help shown, got %+v", next.Status)
	}
	out := next.View()
	if !strings.Contains(out, "help:") {
		t.Fatalf("expected help panel in view: %q", out)
	}
	next, _ = pressKey(t, next, "?")
	if next.HelpVisible || next.Status.Text != "help hidden" {
		t.Fatalf("expected help hidden, got %+v", next.Status)
	}
}

func TestViewContainsCoreState(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.Engine.Create("alpha", time.Hour)
	m.refreshSnapshot()
	m.syncComponents()
	m.Status = StatusBar{Text: "all good"}

	out := m.View()
	if !strings.Contains(out, "reaperd | pane: Board | 1 active | 0 buried") {
		t.Fatalf("expected header in output: %q", out)
	}
	if !strings.Contains(out, "board:") {
		t.Fatalf("expected board panel in output: %q", out)
	}
	if !strings.Contains(out, "graveyard:") {
		t.Fatalf("expected graveyard panel in output: %q", out)
	}
	if !strings.Contains(out, "status: all good") {
		t.Fatalf("expected status in output: %q", out)
	}
	if !strings.Contains(out, "completed 0 | expired 0 | streak 0") {
		t.Fatalf("expected stats line in output: %q", out)
	}
	if !strings.Contains(out, "keys: tab pane") {
		t.Fatalf("expected footer in output: %q", out)
	}
}

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{-5 * time.Second, "0s"},
		{0, "0s"},
		{42 * time.Second, "42s"},
		{90 * time.Second, "1m30s"},
		{45 * time.Minute, "45m00s"},
		{time.Hour, "1h00m"},
		{90 * time.Minute, "1h30m"},
		{26*time.Hour + 30*time.Minute, "1d2h"},
	}
	for _, tc := range cases {
		if got := formatRemaining(tc.in); got != tc.want {
			t.Errorf("formatRemaining(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
