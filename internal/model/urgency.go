package model

import "time"

type Urgency string

const (
	UrgencyStable   Urgency = "Stable"
	UrgencyElevated Urgency = "Elevated"
	UrgencyCritical Urgency = "Critical"
	UrgencyTerminal Urgency = "Terminal"
)

const (
	terminalWindow = time.Minute
	criticalWindow = 15 * time.Minute
	elevatedWindow = 2 * time.Hour
)

func (u Urgency) IsValid() bool {
	switch u {
	case UrgencyStable, UrgencyElevated, UrgencyCritical, UrgencyTerminal:
		return true
	default:
		return false
	}
}

// Rank orders urgencies from calmest to most severe.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyElevated:
		return 1
	case UrgencyCritical:
		return 2
	case UrgencyTerminal:
		return 3
	default:
		return 0
	}
}

func (u Urgency) String() string {
	return string(u)
}

// Classify derives the urgency of a deadline from the time remaining.
// Boundaries are inclusive on the tighter side: exactly one minute left
// is Terminal, exactly fifteen minutes is Critical, exactly two hours is
// Elevated. Anything at or past the deadline is Terminal.
func Classify(deadline, now time.Time) Urgency {
	remaining := deadline.Sub(now)
	switch {
	case remaining <= terminalWindow:
		return UrgencyTerminal
	case remaining <= criticalWindow:
		return UrgencyCritical
	case remaining <= elevatedWindow:
		return UrgencyElevated
	default:
		return UrgencyStable
	}
}
