package syncer

import (
	"errors"
	"fmt"

	"curriculum-cli/internal/model"
)

// Failure reasons. Both always lead to a rollback and are always surfaced.
var (
	ErrPersistenceRejected    = errors.New("reorder rejected by server")
	ErrPersistenceUnreachable = errors.New("ordering store unreachable")
)

// PersistError describes a failed write.
type PersistError struct {
	Err       error
	Container model.ContainerID
	Message   string // server-supplied message for rejections
	Cause     error  // transport error for unreachable stores
}

func (e *PersistError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Err.Error(), e.Cause)
	default:
		return e.Err.Error()
	}
}

func (e *PersistError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

// OutcomeKind tags the Outcome sum type.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeFailure
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the result of one write: Success(message) or Failure(reason).
// Only the presentation layer turns outcomes into user-visible notifications.
type Outcome struct {
	Kind      OutcomeKind
	Message   string
	Reason    error
	Container model.ContainerID
	RequestID string
}

func Success(c model.ContainerID, message string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Container: c, Message: message}
}

func Failure(c model.ContainerID, reason error) Outcome {
	return Outcome{Kind: OutcomeFailure, Container: c, Reason: reason}
}

func (o Outcome) OK() bool { return o.Kind == OutcomeSuccess }

// Rejected reports whether the store answered and refused the write.
func (o Outcome) Rejected() bool {
	return o.Kind == OutcomeFailure && errors.Is(o.Reason, ErrPersistenceRejected)
}

// Unreachable reports whether the write never got an answer.
func (o Outcome) Unreachable() bool {
	return o.Kind == OutcomeFailure && errors.Is(o.Reason, ErrPersistenceUnreachable)
}
