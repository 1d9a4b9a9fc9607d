package model

import (
	"math"
	"testing"
)

func TestTallyRecordCompletion(t *testing.T) {
	var tally Tally
	tally.RecordCompletion()
	tally.RecordCompletion()
	tally.RecordCompletion()
	if tally.Completed != 3 || tally.Streak != 3 {
		t.Fatalf("tally = %+v, want completed=3 streak=3", tally)
	}
}

func TestTallyExpirationBreaksStreak(t *testing.T) {
	var tally Tally
	tally.RecordCompletion()
	tally.RecordCompletion()
	tally.RecordExpiration()
	if tally.Streak != 0 {
		t.Fatalf("streak = %d after expiration, want 0", tally.Streak)
	}
	if tally.Completed != 2 || tally.Expired != 1 {
		t.Fatalf("tally = %+v, want completed=2 expired=1", tally)
	}

	tally.RecordCompletion()
	if tally.Streak != 1 {
		t.Fatalf("streak = %d after restart, want 1", tally.Streak)
	}
}

func TestTallySuccessRate(t *testing.T) {
	var tally Tally
	if got := tally.SuccessRate(); got != 0 {
		t.Fatalf("empty tally success rate = %v, want 0", got)
	}

	tally = Tally{Completed: 3, Expired: 1}
	if got := tally.SuccessRate(); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("success rate = %v, want 0.75", got)
	}

	tally = Tally{Completed: 0, Expired: 4}
	if got := tally.SuccessRate(); got != 0 {
		t.Fatalf("all-expired success rate = %v, want 0", got)
	}
}

func TestTallyClamped(t *testing.T) {
	tally := Tally{Completed: -2, Expired: 5, Streak: -1}
	got := tally.Clamped()
	want := Tally{Completed: 0, Expired: 5, Streak: 0}
	if got != want {
		t.Fatalf("Clamped = %+v, want %+v", got, want)
	}
}
