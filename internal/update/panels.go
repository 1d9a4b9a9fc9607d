package update

import (
	"fmt"
	"strings"
	"time"

	"github.com/ruishinor/reaperd/internal/engine"
	"github.com/ruishinor/reaperd/internal/views"
)

func (m Model) renderBoardView() string {
	rows := make([]views.BoardRowData, 0, len(m.Snap.Tasks))
	for i, tv := range m.Snap.Tasks {
		rows = append(rows, views.BoardRowData{
			Index:     i + 1,
			Name:      tv.Task.Name,
			Remaining: formatRemaining(tv.Remaining),
			Urgency:   string(tv.Urgency),
			Expiring:  tv.Expiring,
			Selected:  m.CurrentPane == PaneBoard && i == m.Board.Cursor,
		})
	}
	preset := ""
	if m.Adding.Preset != nil {
		preset = m.Adding.Preset.Label
	}
	return views.RenderBoardPanel(views.BoardPanelData{
		ListView:     m.boardList.View(),
		QuickAddView: m.quickAddInput.View(),
		AddActive:    m.Adding.Active,
		PresetLabel:  preset,
		Rows:         rows,
	})
}

func (m Model) renderGraveyardView() string {
	data := views.GraveyardPanelData{Empty: len(m.Snap.Graves) == 0}
	if !data.Empty {
		data.TableView = m.graveTable.View()
		if gv, ok := m.currentGrave(); ok {
			data.Epitaph = fmt.Sprintf("%s | lived %s | fades in %s",
				gv.Entry.Name,
				formatRemaining(gv.Entry.OriginalDuration()),
				formatRemaining(gv.Retention))
		}
		if gv, ok := m.holdingGrave(); ok {
			data.HoldName = gv.Entry.Name
			data.HoldView = m.holdProgress.ViewAs(m.holdPercent(gv))
		}
	}
	return views.RenderGraveyardPanel(data)
}

func (m Model) holdPercent(gv engine.GraveView) float64 {
	total := engine.DefaultHoldDuration
	if m.Engine != nil {
		total = m.Engine.HoldDuration()
	}
	if total <= 0 {
		return 1
	}
	pct := 1 - float64(gv.HoldRemaining)/float64(total)
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}
	return pct
}

func (m Model) renderCommandPalette() string {
	return views.RenderCommandPalette(m.Palette.Active, m.Palette.Input)
}

func (m Model) renderNotificationsView() string {
	if len(m.Notifications) == 0 {
		return ""
	}
	n := m.Notifications[len(m.Notifications)-1]
	return views.RenderNotification(n.Level, n.Body)
}

func (m *Model) notify(title, body, level string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	n := Notification{
		Title: title,
		Body:  body,
		Level: level,
		At:    time.Now().UTC(),
	}
	m.Notifications = append(m.Notifications, n)
	if len(m.Notifications) > 40 {
		m.Notifications = m.Notifications[len(m.Notifications)-40:]
	}
	if m.DesktopEnabled && m.notifier != nil {
		_ = m.notifier.Send(n)
	}
}
