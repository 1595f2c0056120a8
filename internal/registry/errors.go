package registry

import (
	"errors"
	"fmt"
)

// ErrModuleNotFound indicates no discovered module matches the requested
// name or ID.
var ErrModuleNotFound = errors.New("module not found")

// ModuleLoadError reports a module definition that could not be activated.
type ModuleLoadError struct {
	Name string // file name or module name
	Path string // definition file, empty for built-in definitions
	Err  error
}

func (e *ModuleLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load module %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("load module %s (%s): %v", e.Name, e.Path, e.Err)
}

func (e *ModuleLoadError) Unwrap() error {
	return e.Err
}
