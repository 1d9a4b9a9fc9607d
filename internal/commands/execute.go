package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add   func(AddArgs) (Result, error)
	Done  func(IndexArgs) (Result, error)
	Del   func(IndexArgs) (Result, error)
	Raise func(IndexArgs) (Result, error)
	Purge func(IndexArgs) (Result, error)
	Stats func() (Result, error)
	Help  func() (Result, error)
	Quit  func() (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "add handler not configured"}
		}
		return handlers.Add(*cmd.Add)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "done handler not configured"}
		}
		return handlers.Done(*cmd.Done)
	case TypeDel:
		if handlers.Del == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "del handler not configured"}
		}
		return handlers.Del(*cmd.Del)
	case TypeRaise:
		if handlers.Raise == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "raise handler not configured"}
		}
		return handlers.Raise(*cmd.Raise)
	case TypePurge:
		if handlers.Purge == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "purge handler not configured"}
		}
		return handlers.Purge(*cmd.Purge)
	case TypeStats:
		if handlers.Stats == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "stats handler not configured"}
		}
		return handlers.Stats()
	case TypeHelp:
		if handlers.Help == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "help handler not configured"}
		}
		return handlers.Help()
	case TypeQuit:
		if handlers.Quit == nil {
			return Result{}, &CommandError{Code: ErrCodeHandlerMissing, Message: "quit handler not configured"}
		}
		return handlers.Quit()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
