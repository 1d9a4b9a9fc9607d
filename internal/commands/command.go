package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Type string

const (
	TypeAdd   Type = "add"
	TypeDone  Type = "done"
	TypeDel   Type = "del"
	TypeRaise Type = "raise"
	TypePurge Type = "purge"
	TypeStats Type = "stats"
	TypeHelp  Type = "help"
	TypeQuit  Type = "quit"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type AddArgs struct {
	Name string
	// In is the raw duration text from a trailing "in <duration>"
	// clause, empty when the caller should fall back to a default.
	In string
}

// IndexArgs targets a row by its 1-based position in the pane the verb
// operates on: board order for done/del, graveyard order for
// raise/purge.
type IndexArgs struct {
	Index int
}

type Command struct {
	Type  Type
	Raw   string
	Add   *AddArgs
	Done  *IndexArgs
	Del   *IndexArgs
	Raise *IndexArgs
	Purge *IndexArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, args)
	case TypeDone:
		return parseIndexed(input, TypeDone, args)
	case TypeDel:
		return parseIndexed(input, TypeDel, args)
	case TypeRaise:
		return parseIndexed(input, TypeRaise, args)
	case TypePurge:
		return parseIndexed(input, TypePurge, args)
	case TypeStats:
		return Command{Type: TypeStats, Raw: input}, nil
	case TypeHelp:
		return Command{Type: TypeHelp, Raw: input}, nil
	case TypeQuit:
		return Command{Type: TypeQuit, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

// SplitDeadlineClause splits an optional trailing "in <duration>"
// clause off a task name. Only the last two tokens are considered, and
// only when the final token parses as a duration, so names like "check
// in with bob" survive intact. The clause comes back unparsed. The
// quick-add input on the board shares this grammar with /add.
func SplitDeadlineClause(raw string) (name, in string) {
	args := strings.Fields(raw)
	if len(args) >= 3 && strings.EqualFold(args[len(args)-2], "in") {
		if _, err := time.ParseDuration(args[len(args)-1]); err == nil {
			in = args[len(args)-1]
			args = args[:len(args)-2]
		}
	}
	return strings.TrimSpace(strings.Join(args, " ")), in
}

func parseAdd(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a name"}
	}
	name, in := SplitDeadlineClause(strings.Join(args, " "))
	if name == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "add requires a name"}
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Name: name, In: in}}, nil
}

func parseIndexed(raw string, t Type, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires a row number", t)}
	}
	idx, err := strconv.Atoi(args[0])
	if err != nil || idx < 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires a positive row number, got %q", t, args[0])}
	}

	cmd := Command{Type: t, Raw: raw}
	target := &IndexArgs{Index: idx}
	switch t {
	case TypeDone:
		cmd.Done = target
	case TypeDel:
		cmd.Del = target
	case TypeRaise:
		cmd.Raise = target
	case TypePurge:
		cmd.Purge = target
	}
	return cmd, nil
}
