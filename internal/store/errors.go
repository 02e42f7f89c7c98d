package store

import (
	"errors"
	"fmt"
	"strings"
)

var ErrReadOnly = errors.New("store is read-only")

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ValidationError means a reorder did not describe a complete, dense assignment
// of its container. Nothing is written.
type ValidationError struct {
	Container string
	Problems  []string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid reorder of %s: %s", e.Container, strings.Join(e.Problems, "; "))
}

// IsRejection reports whether err is a refusal of the request itself rather than
// a failure of the store.
func IsRejection(err error) bool {
	var nf NotFoundError
	var ve ValidationError
	return errors.As(err, &nf) || errors.As(err, &ve) || errors.Is(err, ErrReadOnly)
}
