package update

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"

	"github.com/ruishinor/reaperd/internal/views"
)

type KeyBinding struct {
	Key    string
	Action string
}

type helpKeyMap struct {
	short []key.Binding
	full  [][]key.Binding
}

func (k helpKeyMap) ShortHelp() []key.Binding  { return k.short }
func (k helpKeyMap) FullHelp() [][]key.Binding { return k.full }

const commandsHelp = `# Palette commands

| command | effect |
| --- | --- |
| /add <name> [in <duration>] | plant a task |
| /done <row> | complete the task at that board row |
| /del <row> | reap the task at that board row |
| /raise <row> | start raising the grave at that row |
| /purge <row> | purge the grave at that row |
| /stats | lifetime tally in the status bar |
| /help | toggle this panel |
| /quit | leave reaperd |
`

func (m Model) renderHelpIfVisible() string {
	if !m.HelpVisible {
		return ""
	}
	return m.renderHelpView()
}

func (m Model) renderHelpView() string {
	bindings := m.helpBindings()
	var plain []string
	for _, kb := range m.paneBindings() {
		plain = append(plain, fmt.Sprintf("- %s: %s", kb.Key, kb.Action))
	}
	panel := views.RenderHelpPanel(views.HelpPanelData{
		Pane:     string(m.CurrentPane),
		Bindings: plain,
		HelpView: m.helpModel.View(helpKeyMap{
			short: bindings,
			full:  [][]key.Binding{bindings},
		}),
	})
	return panel + "\n" + views.RenderMarkdown(commandsHelp)
}

func (m Model) globalBindings() []KeyBinding {
	return []KeyBinding{
		{Key: "tab", Action: "switch pane"},
		{Key: m.Keys.Board, Action: "jump to board"},
		{Key: m.Keys.Graveyard, Action: "jump to graveyard"},
		{Key: m.Keys.Palette, Action: "open command palette"},
		{Key: m.Keys.Help, Action: "toggle help panel"},
		{Key: m.Keys.Quit, Action: "quit app"},
	}
}

func (m Model) paneBindings() []KeyBinding {
	switch m.CurrentPane {
	case PaneBoard:
		return []KeyBinding{
			{Key: "a", Action: "add a task"},
			{Key: "1-4", Action: "add with a preset lifespan"},
			{Key: "j/k", Action: "move cursor"},
			{Key: "enter", Action: "complete selected task"},
			{Key: "d", Action: "reap selected task"},
		}
	case PaneGraveyard:
		return []KeyBinding{
			{Key: "j/k", Action: "move cursor"},
			{Key: "r", Action: "start raising selected grave"},
			{Key: "esc", Action: "release the hold"},
			{Key: "x", Action: "purge selected grave"},
		}
	default:
		return []KeyBinding{{Key: "-", Action: "no contextual bindings"}}
	}
}

func (m Model) helpBindings() []key.Binding {
	out := make([]key.Binding, 0, len(m.globalBindings())+len(m.paneBindings()))
	for _, kb := range m.globalBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	for _, kb := range m.paneBindings() {
		out = append(out, key.NewBinding(key.WithKeys(kb.Key), key.WithHelp(kb.Key, kb.Action)))
	}
	return out
}
