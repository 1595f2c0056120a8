package multistore

import (
	"errors"
	"fmt"
	"regexp"
)

// MaxModuleIDLength is the maximum length of a module ID.
const MaxModuleIDLength = 128

var (
	// ErrInvalidModuleID indicates a module ID failed validation.
	ErrInvalidModuleID = errors.New("invalid module ID")
	// ErrStoreNotFound indicates the requested store does not exist.
	ErrStoreNotFound = errors.New("store not found")
	// ErrStoreAlreadyExists indicates a store already exists during creation.
	ErrStoreAlreadyExists = errors.New("store already exists")
)

// moduleIDPattern matches the slug form produced by moduleconfig.Slug.
// It must start and end with alphanumeric and can contain hyphens in the middle.
var moduleIDPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidateModuleID validates a module ID against format rules. The ID names
// a single directory under the stores root, so separators are rejected.
func ValidateModuleID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty module ID", ErrInvalidModuleID)
	}

	if len(id) > MaxModuleIDLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidModuleID, MaxModuleIDLength)
	}

	if !moduleIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q must be lowercase alphanumeric with hyphens", ErrInvalidModuleID, id)
	}

	return nil
}
