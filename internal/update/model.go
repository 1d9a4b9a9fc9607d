// Package update holds the bubbletea model for the reaperd terminal
// UI: a board of countdown tasks on the left, the graveyard on the
// right, a slash-command palette, and the once-per-second tick that
// drives the engine.
package update

import (
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"

	"github.com/ruishinor/reaperd/internal/engine"
	"github.com/ruishinor/reaperd/internal/model"
	"github.com/ruishinor/reaperd/internal/scheduler"
)

type Pane string

const (
	PaneBoard     Pane = "Board"
	PaneGraveyard Pane = "Graveyard"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Board     string
	Graveyard string
	Palette   string
	Help      string
	Quit      string
}

type BoardState struct {
	Cursor int
}

type GraveyardState struct {
	Cursor int
}

// AddState is the quick-add mode on the board. A preset armed by the
// number keys pins the lifespan; otherwise a trailing "in <duration>"
// clause or the configured default decides it.
type AddState struct {
	Active bool
	Preset *model.Preset
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type DesktopNotifier interface {
	Send(Notification) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(Notification) error { return nil }

type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(n Notification) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", n.Title, n.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(n.Body), escapeAppleScript(n.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

type Model struct {
	Engine *engine.Engine
	Timers *scheduler.Queue
	Snap   engine.Snapshot

	CurrentPane   Pane
	Board         BoardState
	Graveyard     GraveyardState
	Adding        AddState
	Palette       CommandPaletteState
	HelpVisible   bool
	Status        StatusBar
	Keys          GlobalKeyMap
	Notifications []Notification
	Quitting      bool
	LastError     error

	DefaultLifespan time.Duration
	Presets         []model.Preset
	DesktopEnabled  bool
	notifier        DesktopNotifier

	// Engine events bridged into the tea loop. The subscriber never
	// blocks; a full buffer only costs a notification, the snapshot
	// refresh on the next tick catches the state up anyway.
	events chan engine.Event

	quickAddInput textinput.Model
	commandInput  textinput.Model
	boardList     list.Model
	graveTable    table.Model
	holdProgress  progress.Model
	helpModel     help.Model
}

type listItem struct {
	title       string
	description string
}

func (i listItem) FilterValue() string { return i.title + " " + i.description }
func (i listItem) Title() string       { return i.title }
func (i listItem) Description() string { return i.description }

type TickMsg time.Time

type HoldTickMsg time.Time

type TimerFiredMsg struct {
	Event scheduler.Event
}

type EngineEventMsg struct {
	Event engine.Event
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

func NewModel(eng *engine.Engine, timers *scheduler.Queue) Model {
	return NewModelWithConfig(eng, timers, nil, DefaultRuntimeConfig())
}

func NewModelWithConfig(eng *engine.Engine, timers *scheduler.Queue, notifier DesktopNotifier, cfg RuntimeConfig) Model {
	m := Model{
		Engine:      eng,
		Timers:      timers,
		CurrentPane: PaneBoard,
		Keys: GlobalKeyMap{
			Board:     "b",
			Graveyard: "g",
			Palette:   "/",
			Help:      "?",
			Quit:      "q",
		},
		DefaultLifespan: cfg.DefaultLifespan,
		Presets:         cfg.Presets,
		DesktopEnabled:  cfg.DesktopNotifications,
		notifier:        NoopDesktopNotifier{},
	}
	if m.DefaultLifespan <= 0 {
		m.DefaultLifespan = time.Hour
	}
	if len(m.Presets) == 0 {
		m.Presets = model.DefaultPresets()
	}
	if notifier != nil {
		m.notifier = notifier
	}
	if eng != nil {
		m.events = make(chan engine.Event, 64)
		events := m.events
		eng.Subscribe(func(ev engine.Event) {
			select {
			case events <- ev:
			default:
			}
		})
		m.Snap = eng.Snapshot()
	}
	m.initComponents()
	m.syncComponents()
	return m
}

func (m *Model) initComponents() {
	m.quickAddInput = textinput.New()
	m.quickAddInput.Prompt = "reap> "
	m.quickAddInput.CharLimit = 256
	m.quickAddInput.Width = 42

	m.commandInput = textinput.New()
	m.commandInput.Prompt = "/"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.boardList = list.New([]list.Item{}, list.NewDefaultDelegate(), 56, 12)
	m.boardList.Title = "Board (list)"
	m.boardList.SetShowHelp(false)
	m.boardList.SetFilteringEnabled(false)

	cols := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Lived", Width: 9},
		{Title: "Fades", Width: 9},
		{Title: "Hold", Width: 6},
	}
	m.graveTable = table.New(table.WithColumns(cols), table.WithRows([]table.Row{}), table.WithFocused(true), table.WithHeight(10))

	m.holdProgress = progress.New(progress.WithDefaultGradient())

	m.helpModel = help.New()
}

// syncComponents pushes the latest snapshot into the bubbles widgets
// and clamps the cursors after rows appeared or vanished.
func (m *Model) syncComponents() {
	if m.Board.Cursor < 0 {
		m.Board.Cursor = 0
	}
	if n := len(m.Snap.Tasks); n > 0 && m.Board.Cursor >= n {
		m.Board.Cursor = n - 1
	}
	if m.Graveyard.Cursor < 0 {
		m.Graveyard.Cursor = 0
	}
	if n := len(m.Snap.Graves); n > 0 && m.Graveyard.Cursor >= n {
		m.Graveyard.Cursor = n - 1
	}

	items := make([]list.Item, 0, len(m.Snap.Tasks))
	for _, tv := range m.Snap.Tasks {
		desc := fmt.Sprintf("%s | %s left", tv.Urgency, formatRemaining(tv.Remaining))
		if tv.Expiring {
			desc = "EXPIRING | " + desc
		}
		items = append(items, listItem{title: tv.Task.Name, description: desc})
	}
	m.boardList.SetItems(items)
	if len(items) > 0 {
		m.boardList.Select(m.Board.Cursor)
	}

	rows := make([]table.Row, 0, len(m.Snap.Graves))
	for _, gv := range m.Snap.Graves {
		hold := ""
		if gv.Holding {
			hold = "..."
		}
		rows = append(rows, table.Row{
			gv.Entry.Name,
			formatRemaining(gv.Entry.OriginalDuration()),
			formatRemaining(gv.Retention),
			hold,
		})
	}
	m.graveTable.SetRows(rows)
	if len(rows) > 0 && m.Graveyard.Cursor < len(rows) {
		m.graveTable.SetCursor(m.Graveyard.Cursor)
	}

	if m.Adding.Active {
		m.quickAddInput.Focus()
	}
	if m.Palette.Active {
		m.commandInput.Focus()
	}
}

func (m *Model) refreshSnapshot() {
	if m.Engine == nil {
		return
	}
	m.Snap = m.Engine.Snapshot()
}

func (m Model) taskAt(index int) (engine.TaskView, bool) {
	if index < 1 || index > len(m.Snap.Tasks) {
		return engine.TaskView{}, false
	}
	return m.Snap.Tasks[index-1], true
}

func (m Model) graveAt(index int) (engine.GraveView, bool) {
	if index < 1 || index > len(m.Snap.Graves) {
		return engine.GraveView{}, false
	}
	return m.Snap.Graves[index-1], true
}

func (m Model) currentTask() (engine.TaskView, bool) {
	return m.taskAt(m.Board.Cursor + 1)
}

func (m Model) currentGrave() (engine.GraveView, bool) {
	return m.graveAt(m.Graveyard.Cursor + 1)
}

// holdingGrave reports the entry with a pending resurrection hold, if
// any. The UI arms one hold at a time.
func (m Model) holdingGrave() (engine.GraveView, bool) {
	for _, gv := range m.Snap.Graves {
		if gv.Holding {
			return gv, true
		}
	}
	return engine.GraveView{}, false
}
