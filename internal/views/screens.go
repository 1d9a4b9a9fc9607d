package views

import (
	"fmt"
	"strings"
)

type BoardRowData struct {
	Index     int
	Name      string
	Remaining string
	Urgency   string
	Expiring  bool
	Selected  bool
}

type BoardPanelData struct {
	ListView     string
	QuickAddView string
	AddActive    bool
	PresetLabel  string
	Rows         []BoardRowData
}

type GraveyardPanelData struct {
	TableView string
	Epitaph   string
	HoldName  string
	HoldView  string
	Empty     bool
}

type StatsData struct {
	Completed   int
	Expired     int
	Streak      int
	SuccessRate float64
}

type HelpPanelData struct {
	Pane     string
	Bindings []string
	HelpView string
}

func RenderBoardPanel(data BoardPanelData) string {
	var b strings.Builder
	b.WriteString("board:\n")
	if data.AddActive {
		b.WriteString(data.QuickAddView + "\n")
		if data.PresetLabel != "" {
			b.WriteString(fmt.Sprintf("lifespan: %s (preset)\n", data.PresetLabel))
		} else {
			b.WriteString("lifespan: trailing \"in 30m\" clause, or the default\n")
		}
	}
	b.WriteString("actions: [a]dd [1-4]preset [j/k]move [enter]complete [d]reap\n")
	b.WriteString(data.ListView + "\n")
	if len(data.Rows) == 0 {
		b.WriteString("(nothing to reap)")
		return strings.TrimSpace(b.String())
	}
	for _, row := range data.Rows {
		cursor := " "
		if row.Selected {
			cursor = ">"
		}
		line := fmt.Sprintf("%s %d. %s %s (%s)", cursor, row.Index, urgencyBadge(row.Urgency), row.Name, row.Remaining)
		if row.Expiring {
			line = expiringStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimSpace(b.String())
}

func RenderGraveyardPanel(data GraveyardPanelData) string {
	var b strings.Builder
	b.WriteString("graveyard:\n")
	b.WriteString("actions: [j/k]move [r]aise (hold) [esc]release [x]purge\n")
	if data.Empty {
		b.WriteString("(no graves)")
		return strings.TrimSpace(b.String())
	}
	b.WriteString(data.TableView + "\n")
	if data.Epitaph != "" {
		b.WriteString(fmt.Sprintf("epitaph: %s\n", data.Epitaph))
	}
	if data.HoldName != "" {
		b.WriteString(fmt.Sprintf("raising: %s\n%s\n", data.HoldName, data.HoldView))
	}
	return strings.TrimSpace(b.String())
}

func RenderStatsLine(data StatsData) string {
	return fmt.Sprintf("completed %d | expired %d | streak %d | success %.0f%%",
		data.Completed, data.Expired, data.Streak, data.SuccessRate*100)
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: /%s", input)
}

func RenderNotification(level string, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("notification: [%s] %s", strings.ToUpper(level), body)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\nglobal:\n%s pane:\n%s\n%s",
		strings.ToLower(data.Pane),
		strings.Join(data.Bindings, "\n"),
		data.HelpView,
	)
}

func urgencyBadge(urgency string) string {
	switch urgency {
	case "Terminal":
		return terminalStyle.Render("[TERMINAL]")
	case "Critical":
		return criticalStyle.Render("[CRITICAL]")
	case "Elevated":
		return elevatedStyle.Render("[ELEVATED]")
	default:
		return dimStyle.Render("[STABLE]")
	}
}
