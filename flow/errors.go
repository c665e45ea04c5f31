package flow

import (
	"errors"
	"fmt"
)

// Sentinels matching *Error by kind.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrAborted         = errors.New("operation aborted")
	ErrOperationFailed = errors.New("operation failed")
)

// ErrCanceled must be returned (possibly wrapped) by interactive
// collaborators when user closes the dialog.
var ErrCanceled = errors.New("canceled by user")

// Messages reported when user cancels.
const (
	MsgDialogClosed  = "Dialog was closed by user"
	MsgImportAborted = "Import aborted by user"
)

// Error describes why run did not complete.
type Error struct {
	Kind  Kind
	Abort AbortPhase
	// State in which run stopped.
	State State
	Err   error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidArgument:
		return e.Kind == KindInvalidArgument
	case ErrAborted:
		return e.Kind == KindOperationAborted
	case ErrOperationFailed:
		return e.Kind == KindOperationFailure
	}
	return false
}

// Canceled returns abort phase of err, AbortPhaseNone when err is not a
// user cancellation.
func Canceled(err error) AbortPhase {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Abort
	}
	return AbortPhaseNone
}

func invalidArgument(state State, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidArgument, State: state, Err: fmt.Errorf(format, args...)}
}
