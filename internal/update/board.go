package update

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ruishinor/reaperd/internal/commands"
	"github.com/ruishinor/reaperd/internal/model"
)

func (m Model) handleBoardKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "a":
		return m.startAdd(nil), nil
	case "1", "2", "3", "4":
		idx := int(msg.String()[0] - '1')
		if idx < len(m.Presets) {
			preset := m.Presets[idx]
			return m.startAdd(&preset), nil
		}
	case "up", "k":
		if m.Board.Cursor > 0 {
			m.Board.Cursor--
		}
	case "down", "j":
		if m.Board.Cursor < len(m.Snap.Tasks)-1 {
			m.Board.Cursor++
		}
	case "enter":
		if tv, ok := m.currentTask(); ok && m.Engine != nil {
			if m.Engine.Complete(tv.Task.ID) {
				m.refreshSnapshot()
				m.Status = StatusBar{Text: fmt.Sprintf("completed: %s", tv.Task.Name)}
			}
		}
	case "d":
		if tv, ok := m.currentTask(); ok && m.Engine != nil {
			if m.Engine.Delete(tv.Task.ID) {
				m.refreshSnapshot()
				m.Status = StatusBar{Text: fmt.Sprintf("reaped by hand: %s", tv.Task.Name), IsError: true}
			}
		}
	}
	return m, nil
}

func (m Model) startAdd(preset *model.Preset) Model {
	m.CurrentPane = PaneBoard
	m.Adding = AddState{Active: true, Preset: preset}
	m.quickAddInput.SetValue("")
	m.quickAddInput.Focus()
	if preset != nil {
		m.Status = StatusBar{Text: fmt.Sprintf("adding with %s lifespan", preset.Label)}
	} else {
		m.Status = StatusBar{Text: "adding: name, then an optional \"in 30m\""}
	}
	return m
}

func (m Model) handleAddKey(msg tea.KeyMsg) Model {
	switch msg.String() {
	case "esc":
		m.Adding = AddState{}
		m.quickAddInput.SetValue("")
		m.quickAddInput.Blur()
		m.Status = StatusBar{Text: "add cancelled"}
		return m
	case "enter":
		return m.submitQuickAdd()
	}
	var cmd tea.Cmd
	m.quickAddInput, cmd = m.quickAddInput.Update(msg)
	_ = cmd
	return m
}

func (m Model) submitQuickAdd() Model {
	raw := strings.TrimSpace(m.quickAddInput.Value())
	if raw == "" {
		m.Status = StatusBar{Text: "a task needs a name", IsError: true}
		return m
	}

	name := raw
	lifespan := m.DefaultLifespan
	if m.Adding.Preset != nil {
		lifespan = m.Adding.Preset.Duration
	} else if n, in := commands.SplitDeadlineClause(raw); in != "" {
		if d, err := time.ParseDuration(in); err == nil {
			name = n
			lifespan = d
		}
	}

	if m.Engine == nil {
		return m
	}
	task, err := m.Engine.Create(name, lifespan)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m
	}
	m.refreshSnapshot()
	m.Adding = AddState{}
	m.quickAddInput.SetValue("")
	m.quickAddInput.Blur()
	m.Status = StatusBar{Text: fmt.Sprintf("added: %s (%s)", task.Name, formatRemaining(lifespan))}
	return m
}
