package update

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ruishinor/reaperd/internal/commands"
	"github.com/ruishinor/reaperd/internal/views"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.Palette.Active = false
		m.Palette.Input = ""
		m.commandInput.SetValue("")
		m.commandInput.Blur()
		m.Status = StatusBar{Text: "command palette closed"}
	case "enter":
		m.Palette.Input = m.commandInput.Value()
		return m.executePaletteCommand()
	default:
		if msg.Type == tea.KeyRunes {
			m.commandInput.SetValue(m.commandInput.Value() + string(msg.Runes))
			m.Palette.Input = m.commandInput.Value()
			return m, nil
		}
		var cmd tea.Cmd
		m.commandInput, cmd = m.commandInput.Update(msg)
		_ = cmd
		m.Palette.Input = m.commandInput.Value()
	}
	return m, nil
}

func (m Model) executePaletteCommand() (Model, tea.Cmd) {
	raw := strings.TrimSpace(m.Palette.Input)
	m.Palette.Active = false
	m.Palette.Input = ""
	m.commandInput.SetValue("")
	m.commandInput.Blur()

	cmd, err := commands.Parse(raw)
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		return m, nil
	}
	if m.Engine == nil {
		m.Status = StatusBar{Text: "engine unavailable", IsError: true}
		return m, nil
	}

	holdStarted := false
	res, err := commands.Execute(cmd, commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			lifespan := m.DefaultLifespan
			if a.In != "" {
				d, perr := time.ParseDuration(a.In)
				if perr != nil {
					return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("bad duration %q", a.In)}
				}
				lifespan = d
			}
			task, cerr := m.Engine.Create(a.Name, lifespan)
			if cerr != nil {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: cerr.Error()}
			}
			return commands.Result{Message: fmt.Sprintf("added: %s (%s)", task.Name, formatRemaining(lifespan))}, nil
		},
		Done: func(ix commands.IndexArgs) (commands.Result, error) {
			tv, ok := m.taskAt(ix.Index)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no task at row %d", ix.Index)}
			}
			if !m.Engine.Complete(tv.Task.ID) {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("%s is already gone", tv.Task.Name)}
			}
			return commands.Result{Message: fmt.Sprintf("completed: %s", tv.Task.Name)}, nil
		},
		Del: func(ix commands.IndexArgs) (commands.Result, error) {
			tv, ok := m.taskAt(ix.Index)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no task at row %d", ix.Index)}
			}
			if !m.Engine.Delete(tv.Task.ID) {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("%s is already gone", tv.Task.Name)}
			}
			return commands.Result{Message: fmt.Sprintf("reaped by hand: %s", tv.Task.Name)}, nil
		},
		Raise: func(ix commands.IndexArgs) (commands.Result, error) {
			gv, ok := m.graveAt(ix.Index)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no grave at row %d", ix.Index)}
			}
			if prev, holding := m.holdingGrave(); holding && prev.Entry.ID != gv.Entry.ID {
				m.Engine.CancelHold(prev.Entry.ID)
			}
			if !m.Engine.StartHold(gv.Entry.ID) {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("cannot raise %s right now", gv.Entry.Name)}
			}
			holdStarted = true
			return commands.Result{Message: fmt.Sprintf("raising %s; esc releases", gv.Entry.Name)}, nil
		},
		Purge: func(ix commands.IndexArgs) (commands.Result, error) {
			gv, ok := m.graveAt(ix.Index)
			if !ok {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("no grave at row %d", ix.Index)}
			}
			if !m.Engine.PermanentlyDelete(gv.Entry.ID) {
				return commands.Result{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: fmt.Sprintf("%s is already gone", gv.Entry.Name)}
			}
			return commands.Result{Message: fmt.Sprintf("purged: %s", gv.Entry.Name)}, nil
		},
		Stats: func() (commands.Result, error) {
			snap := m.Engine.Snapshot()
			return commands.Result{Message: views.RenderStatsLine(views.StatsData{
				Completed:   snap.Tally.Completed,
				Expired:     snap.Tally.Expired,
				Streak:      snap.Tally.Streak,
				SuccessRate: snap.SuccessRate,
			})}, nil
		},
		Help: func() (commands.Result, error) {
			m.HelpVisible = !m.HelpVisible
			if m.HelpVisible {
				return commands.Result{Message: "help shown"}, nil
			}
			return commands.Result{Message: "help hidden"}, nil
		},
		Quit: func() (commands.Result, error) {
			m.Quitting = true
			return commands.Result{Message: "goodbye"}, nil
		},
	})
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.notify("Command failed", err.Error(), "error")
		return m, nil
	}

	m.refreshSnapshot()
	m.Status = StatusBar{Text: res.Message}
	if m.Quitting {
		return m, tea.Quit
	}
	if holdStarted {
		return m, holdTickCmd()
	}
	return m, nil
}
