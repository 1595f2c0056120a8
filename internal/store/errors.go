package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested pattern does not exist.
	ErrNotFound = errors.New("pattern not found")
	// ErrStorage wraps every failure of the underlying database.
	ErrStorage = errors.New("storage failure")
	// ErrInvalidConfidence indicates a confidence outside [0,1].
	ErrInvalidConfidence = errors.New("confidence must be between 0 and 1")
	// ErrEmptyPattern indicates a blank pattern key.
	ErrEmptyPattern = errors.New("pattern must not be empty")
)

// storageError marks err as a storage failure while keeping it inspectable.
func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
