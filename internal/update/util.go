package update

import (
	"fmt"
	"strings"
	"time"
)

// formatRemaining renders a countdown the way the board shows it.
// Anything at or past its deadline reads "0s".
func formatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	switch {
	case d >= 24*time.Hour:
		days := d / (24 * time.Hour)
		hours := (d % (24 * time.Hour)) / time.Hour
		return fmt.Sprintf("%dd%dh", days, hours)
	case d >= time.Hour:
		hours := d / time.Hour
		mins := (d % time.Hour) / time.Minute
		return fmt.Sprintf("%dh%02dm", hours, mins)
	case d >= time.Minute:
		mins := d / time.Minute
		secs := (d % time.Minute) / time.Second
		return fmt.Sprintf("%dm%02ds", mins, secs)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}
