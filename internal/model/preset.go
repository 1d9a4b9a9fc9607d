package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNonPositiveDuration = errors.New("model: duration must be positive")

type Preset struct {
	Label    string
	Duration time.Duration
}

// ParsePreset accepts a Go duration string such as "15m" or "1h30m".
// The trimmed input doubles as the preset label.
func ParsePreset(raw string) (Preset, error) {
	label := strings.TrimSpace(raw)
	if label == "" {
		return Preset{}, errors.New("model: preset duration is required")
	}
	d, err := time.ParseDuration(label)
	if err != nil {
		return Preset{}, fmt.Errorf("model: parse preset %q: %w", label, err)
	}
	if d <= 0 {
		return Preset{}, fmt.Errorf("%w: %q", ErrNonPositiveDuration, label)
	}
	return Preset{Label: label, Duration: d}, nil
}

func DefaultPresets() []Preset {
	return []Preset{
		{Label: "15m", Duration: 15 * time.Minute},
		{Label: "1h", Duration: time.Hour},
		{Label: "4h", Duration: 4 * time.Hour},
		{Label: "24h", Duration: 24 * time.Hour},
	}
}
