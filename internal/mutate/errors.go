package mutate

import (
	"errors"
	"fmt"

	"curriculum-cli/internal/model"
)

var ErrAlreadySettled = errors.New("optimistic mutation already settled")

type ContainerNotFoundError struct {
	Container model.ContainerID
}

func (e ContainerNotFoundError) Error() string {
	return fmt.Sprintf("container not found: %s", e.Container)
}
