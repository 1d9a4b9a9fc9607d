package model

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestTaskValidateSuccess(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	task := Task{
		ID:       "task-1",
		Name:     "Write the quarterly report",
		Deadline: now.Add(time.Hour),
		Created:  now,
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}
}

func TestTaskValidateMissingFields(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		task Task
	}{
		{"missing id", Task{Name: "x", Deadline: now, Created: now}},
		{"missing name", Task{ID: "a", Deadline: now, Created: now}},
		{"blank name", Task{ID: "a", Name: "   ", Deadline: now, Created: now}},
		{"missing created", Task{ID: "a", Name: "x", Deadline: now}},
		{"missing deadline", Task{ID: "a", Name: "x", Created: now}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.task.Validate(); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestTaskValidateAcceptsPastDeadline(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	task := Task{
		ID:       "task-1",
		Name:     "Already overdue",
		Deadline: now.Add(-time.Minute),
		Created:  now,
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("past deadline should be valid, got error: %v", err)
	}
}

func TestTaskRemaining(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	task := Task{ID: "task-1", Name: "x", Deadline: now.Add(90 * time.Second), Created: now}
	if got := task.Remaining(now); got != 90*time.Second {
		t.Fatalf("Remaining = %v, want 90s", got)
	}
	if got := task.Remaining(now.Add(2 * time.Minute)); got != -30*time.Second {
		t.Fatalf("Remaining past deadline = %v, want -30s", got)
	}
}

func TestNormalizeNameTrims(t *testing.T) {
	got, err := NormalizeName("  ship the release  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ship the release" {
		t.Fatalf("NormalizeName = %q", got)
	}
}

func TestNormalizeNameEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t\n"} {
		if _, err := NormalizeName(raw); !errors.Is(err, ErrEmptyName) {
			t.Fatalf("NormalizeName(%q): expected ErrEmptyName, got %v", raw, err)
		}
	}
}

func TestNormalizeNameTruncates(t *testing.T) {
	raw := strings.Repeat("a", MaxNameLen+50)
	got, err := NormalizeName(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len([]rune(got)) != MaxNameLen {
		t.Fatalf("truncated length = %d, want %d", len([]rune(got)), MaxNameLen)
	}
}

func TestNormalizeNameTruncatesRunes(t *testing.T) {
	raw := strings.Repeat("ü", MaxNameLen+1)
	got, err := NormalizeName(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len([]rune(got)); n != MaxNameLen {
		t.Fatalf("truncated rune length = %d, want %d", n, MaxNameLen)
	}
	if strings.Contains(got, "�") {
		t.Fatal("truncation split a rune")
	}
}

func TestNewIDUnique(t *testing.T) {
	now := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		id, err := NewID(now)
		if err != nil {
			t.Fatalf("NewID: %v", err)
		}
		if id == "" {
			t.Fatal("NewID returned empty id")
		}
		if seen[id] {
			t.Fatalf("duplicate id %q after %d generations", id, i)
		}
		seen[id] = true
	}
}

func TestNewIDEmbedsInstant(t *testing.T) {
	a := time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)
	b := a.Add(time.Second)
	idA, err := NewID(a)
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	idB, err := NewID(b)
	if err != nil {
		t.Fatalf("NewID: %v", err)
	}
	prefixA := strings.SplitN(idA, "-", 2)[0]
	prefixB := strings.SplitN(idB, "-", 2)[0]
	if prefixA == prefixB {
		t.Fatalf("ids one second apart share time prefix %q", prefixA)
	}
}
