package drag

import (
	"errors"
	"fmt"
)

// Classification failures. They are recovered locally: nothing is mutated and no
// write is issued.
var (
	ErrAmbiguousTarget    = errors.New("could not determine the chapter for reordering")
	ErrCrossContainerMove = errors.New("cannot move lessons between chapters")
	ErrUnsupportedMove    = errors.New("unsupported move")
)

// MoveError carries the gesture that failed classification.
type MoveError struct {
	Err      error
	ActiveID string
	OverID   string
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("%s (active %s, over %s)", e.Err.Error(), e.ActiveID, e.OverID)
}

func (e *MoveError) Unwrap() error { return e.Err }

func moveErr(err error, activeID, overID string) error {
	return &MoveError{Err: err, ActiveID: activeID, OverID: overID}
}

// StateError is returned when a session method is called out of order.
type StateError struct {
	Op    string
	State State
}

func (e StateError) Error() string {
	return fmt.Sprintf("drag: %s not allowed in state %s", e.Op, e.State)
}
