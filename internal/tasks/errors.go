package tasks

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("title must not be blank")
	ErrNotFound   = errors.New("task not found")
)

// PersistenceError reports a storage failure. On save the in-memory change
// is kept; the error only means it may not survive a restart.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s tasks: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err carries a *PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
