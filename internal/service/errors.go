package service

import (
	"errors"
	"fmt"
)

// Interview errors. Handlers map them to response codes with errors.Is.
var (
	ErrValidation       = errors.New("invalid interview parameters")
	ErrSessionNotFound  = errors.New("interview session not found")
	ErrAlreadyCompleted = errors.New("interview session is already completed")
	ErrNotCompleted     = errors.New("interview session is not completed yet")
	ErrConcurrentUpdate = errors.New("interview session is being updated by another request")
)

// PersistenceError reports that the store failed. It is surfaced to callers
// as an internal error.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
