package commands

import (
	"errors"
	"testing"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add pay rent in 2h", TypeAdd},
		{"add ship the release", TypeAdd},
		{"done 2", TypeDone},
		{"/del 1", TypeDel},
		{"raise 3", TypeRaise},
		{"purge 1", TypePurge},
		{"stats", TypeStats},
		{"/help", TypeHelp},
		{"quit", TypeQuit},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseAddSplitsDurationClause(t *testing.T) {
	cases := []struct {
		in       string
		wantName string
		wantIn   string
	}{
		{"add pay rent in 2h", "pay rent", "2h"},
		{"add pay rent", "pay rent", ""},
		// "in" inside the name only counts when the tail parses as a
		// duration.
		{"add check in with bob in 30m", "check in with bob", "30m"},
		{"add check in with bob", "check in with bob", ""},
		{"add hand in homework in soon", "hand in homework in soon", ""},
		{"add in 15m", "in 15m", ""},
	}
	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Add == nil {
			t.Fatalf("parse %q produced no add args", tc.in)
		}
		if cmd.Add.Name != tc.wantName || cmd.Add.In != tc.wantIn {
			t.Fatalf("parse %q = {%q %q}, want {%q %q}", tc.in, cmd.Add.Name, cmd.Add.In, tc.wantName, tc.wantIn)
		}
	}
}

func TestSplitDeadlineClause(t *testing.T) {
	cases := []struct {
		in       string
		wantName string
		wantIn   string
	}{
		{"water plants in 45m", "water plants", "45m"},
		{"water plants", "water plants", ""},
		{"hand in homework in soon", "hand in homework in soon", ""},
		// Two tokens never split; "in 15m" is a name, not a clause.
		{"in 15m", "in 15m", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		name, in := SplitDeadlineClause(tc.in)
		if name != tc.wantName || in != tc.wantIn {
			t.Fatalf("SplitDeadlineClause(%q) = (%q, %q), want (%q, %q)", tc.in, name, in, tc.wantName, tc.wantIn)
		}
	}
}

func TestParseIndexedValidation(t *testing.T) {
	for _, in := range []string{"done", "done x", "done 0", "done -2", "del 1 2", "raise two"} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument error, got %v", in, err)
		}
	}

	cmd, err := Parse("done 4")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Done == nil || cmd.Done.Index != 4 {
		t.Fatalf("unexpected done args: %+v", cmd.Done)
	}
}

func TestParseUnknownCommand(t *testing.T) {
	_, err := Parse("/unknown do x")
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, in := range []string{"", "   ", "/", "/   "} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
			t.Fatalf("parse %q: expected empty input error, got %v", in, err)
		}
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/add write docs in 45m")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Add: func(a AddArgs) (Result, error) {
			called = true
			if a.Name != "write docs" || a.In != "45m" {
				t.Fatalf("unexpected args: %+v", a)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteIndexedDispatch(t *testing.T) {
	cmd, err := Parse("raise 2")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	res, err := Execute(cmd, Handlers{
		Raise: func(a IndexArgs) (Result, error) {
			if a.Index != 2 {
				t.Fatalf("unexpected index: %d", a.Index)
			}
			return Result{Message: "holding"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if res.Message != "holding" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("stats")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
