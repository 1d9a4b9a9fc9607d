package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxNameLen = 200

var ErrEmptyName = errors.New("model: task name is required")

type Task struct {
	ID       string
	Name     string
	Deadline time.Time
	Created  time.Time
}

func (t Task) Remaining(now time.Time) time.Duration {
	return t.Deadline.Sub(now)
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if t.Created.IsZero() {
		return errors.New("model: task created time is required")
	}
	if t.Deadline.IsZero() {
		return errors.New("model: task deadline is required")
	}
	return nil
}

// NormalizeName trims and truncates user input to MaxNameLen runes.
// Oversized names are cut, never rejected; only emptiness is an error.
func NormalizeName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if runes := []rune(name); len(runes) > MaxNameLen {
		name = strings.TrimSpace(string(runes[:MaxNameLen]))
	}
	if name == "" {
		return "", ErrEmptyName
	}
	return name, nil
}

// NewID builds a task id from the creation instant plus a random suffix.
// It fails only when the random source does, in which case no id can be
// guaranteed unique and the caller must not proceed.
func NewID(now time.Time) (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("model: generate id: %w", err)
	}
	return strconv.FormatInt(now.UnixMilli(), 36) + "-" + fmt.Sprintf("%x", u[:4]), nil
}
