package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
)

func (m Model) handleGraveyardKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.Graveyard.Cursor > 0 {
			m.Graveyard.Cursor--
		}
	case "down", "j":
		if m.Graveyard.Cursor < len(m.Snap.Graves)-1 {
			m.Graveyard.Cursor++
		}
	case "r":
		return m.startRaise()
	case "esc":
		return m.releaseRaise(), nil
	case "x":
		if gv, ok := m.currentGrave(); ok && m.Engine != nil {
			if m.Engine.PermanentlyDelete(gv.Entry.ID) {
				m.refreshSnapshot()
				m.Status = StatusBar{Text: fmt.Sprintf("purged: %s", gv.Entry.Name)}
			}
		}
	}
	return m, nil
}

// startRaise arms the hold-to-confirm window on the grave under the
// cursor. The UI keeps one hold going at a time; raising elsewhere
// quietly releases the previous one.
func (m Model) startRaise() (Model, tea.Cmd) {
	gv, ok := m.currentGrave()
	if !ok || m.Engine == nil {
		return m, nil
	}
	if prev, holding := m.holdingGrave(); holding && prev.Entry.ID != gv.Entry.ID {
		m.Engine.CancelHold(prev.Entry.ID)
	}
	if !m.Engine.StartHold(gv.Entry.ID) {
		m.Status = StatusBar{Text: fmt.Sprintf("cannot raise %s right now", gv.Entry.Name), IsError: true}
		return m, nil
	}
	m.refreshSnapshot()
	m.Status = StatusBar{Text: fmt.Sprintf("raising %s; keep holding %s, esc releases",
		gv.Entry.Name, formatRemaining(m.Engine.HoldDuration()))}
	return m, holdTickCmd()
}

func (m Model) releaseRaise() Model {
	gv, holding := m.holdingGrave()
	if !holding || m.Engine == nil {
		return m
	}
	m.Engine.CancelHold(gv.Entry.ID)
	m.refreshSnapshot()
	m.Status = StatusBar{Text: fmt.Sprintf("released: %s stays buried", gv.Entry.Name)}
	return m
}
