package update

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ruishinor/reaperd/internal/engine"
	"github.com/ruishinor/reaperd/internal/scheduler"
	"github.com/ruishinor/reaperd/internal/views"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd()}
	if m.Timers != nil {
		cmds = append(cmds, waitForTimerCmd(m.Timers.C()))
	}
	if m.events != nil {
		cmds = append(cmds, waitForEngineEventCmd(m.events))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	next, cmd := m.update(msg)
	next.syncComponents()
	return next, cmd
}

func (m Model) update(msg tea.Msg) (Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		if m.Palette.Active {
			return m.handlePaletteKey(typed)
		}
		if m.Adding.Active {
			return m.handleAddKey(typed), nil
		}

		switch typed.String() {
		case m.Keys.Palette:
			m.Palette.Active = true
			m.Palette.Input = ""
			m.commandInput.SetValue("")
			m.commandInput.Focus()
			m.Status = StatusBar{Text: "command palette active"}
			return m, nil
		case "tab":
			if m.CurrentPane == PaneBoard {
				m.CurrentPane = PaneGraveyard
			} else {
				m.CurrentPane = PaneBoard
			}
			return m, nil
		case m.Keys.Board:
			m.CurrentPane = PaneBoard
			return m, nil
		case m.Keys.Graveyard:
			m.CurrentPane = PaneGraveyard
			return m, nil
		case m.Keys.Help:
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				m.Status = StatusBar{Text: "help shown"}
			} else {
				m.Status = StatusBar{Text: "help hidden"}
			}
			return m, nil
		case "ctrl+c", m.Keys.Quit:
			m.Quitting = true
			return m, tea.Quit
		}

		if m.CurrentPane == PaneBoard {
			return m.handleBoardKey(typed)
		}
		return m.handleGraveyardKey(typed)

	case TickMsg:
		if m.Engine != nil {
			m.Engine.Tick()
			m.refreshSnapshot()
		}
		return m, tickCmd()

	case HoldTickMsg:
		m.refreshSnapshot()
		if _, holding := m.holdingGrave(); holding {
			return m, holdTickCmd()
		}
		return m, nil

	case TimerFiredMsg:
		if m.Engine != nil {
			m.Engine.HandleTimer(typed.Event)
			m.refreshSnapshot()
		}
		if m.Timers != nil {
			return m, waitForTimerCmd(m.Timers.C())
		}
		return m, nil

	case EngineEventMsg:
		m.applyEngineEvent(typed.Event)
		m.refreshSnapshot()
		if m.events != nil {
			return m, waitForEngineEventCmd(m.events)
		}
		return m, nil

	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil

	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil

	case AppErrorMsg:
		m.LastError = typed.Err
		if typed.Err != nil {
			m.Status = StatusBar{Text: typed.Err.Error(), IsError: true}
			m.notify("Error", typed.Err.Error(), "error")
		}
		return m, nil
	}

	return m, nil
}

func (m Model) View() string {
	status := ""
	if m.Status.Text != "" {
		if m.Status.IsError {
			status = fmt.Sprintf("status: error: %s", m.Status.Text)
		} else {
			status = fmt.Sprintf("status: %s", m.Status.Text)
		}
	}

	right := m.renderGraveyardView()
	if p := m.renderCommandPalette(); p != "" {
		right += "\n" + p
	}
	if h := m.renderHelpIfVisible(); h != "" {
		right += "\n" + h
	}

	return views.RenderApp(views.AppData{
		Header:    fmt.Sprintf("reaperd | pane: %s | %d active | %d buried", m.CurrentPane, len(m.Snap.Tasks), len(m.Snap.Graves)),
		LeftPane:  m.renderBoardView(),
		RightPane: right,
		StatsLine: views.RenderStatsLine(views.StatsData{
			Completed:   m.Snap.Tally.Completed,
			Expired:     m.Snap.Tally.Expired,
			Streak:      m.Snap.Tally.Streak,
			SuccessRate: m.Snap.SuccessRate,
		}),
		StatusLine:    status,
		StatusIsError: m.Status.IsError,
		Notification:  m.renderNotificationsView(),
		Footer: fmt.Sprintf("keys: tab pane | %s board | %s graveyard | %s cmd | %s help | %s quit",
			m.Keys.Board, m.Keys.Graveyard, m.Keys.Palette, m.Keys.Help, m.Keys.Quit),
	})
}

// applyEngineEvent surfaces the asynchronous lifecycle events: deaths,
// evictions, resurrections, and persistence trouble. Statuses for
// direct key or palette actions are set at the call site instead.
func (m *Model) applyEngineEvent(ev engine.Event) {
	switch ev.Kind {
	case engine.EventTaskReaped:
		name := ev.ID
		if ev.Grave != nil {
			name = ev.Grave.Name
		}
		m.Status = StatusBar{Text: fmt.Sprintf("reaped: %s", name), IsError: true}
		m.notify("Reaped", name, "error")
	case engine.EventGraveEvicted:
		name := ev.ID
		if ev.Grave != nil {
			name = ev.Grave.Name
		}
		m.Status = StatusBar{Text: fmt.Sprintf("faded from the graveyard: %s", name)}
		m.notify("Faded", name, "info")
	case engine.EventGraveResurrected:
		name := ev.ID
		if ev.Task != nil {
			name = ev.Task.Name
		}
		m.Status = StatusBar{Text: fmt.Sprintf("resurrected: %s", name)}
		m.notify("Resurrected", name, "info")
	case engine.EventSaveFailed:
		m.Status = StatusBar{Text: "save failed; state lives in memory only", IsError: true}
		m.notify("Save failed", "changes made now may not survive a restart", "error")
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func holdTickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return HoldTickMsg(t) })
}

func waitForTimerCmd(ch <-chan scheduler.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return TimerFiredMsg{Event: ev}
	}
}

func waitForEngineEventCmd(ch <-chan engine.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return EngineEventMsg{Event: ev}
	}
}
