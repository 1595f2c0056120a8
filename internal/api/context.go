package api

import (
	"context"
	"errors"

	"github.com/hyperengineering/forge/internal/types"
)

// moduleContextKey is the context key for the resolved module.
type moduleContextKey struct{}

// ErrNoModuleInContext indicates no module was found in the context.
var ErrNoModuleInContext = errors.New("no module in context")

// WithModule returns a new context with the resolved module attached.
func WithModule(ctx context.Context, info types.ModuleInfo) context.Context {
	return context.WithValue(ctx, moduleContextKey{}, info)
}

// ModuleFromContext extracts the resolved module from the context.
// Returns ErrNoModuleInContext if not present.
func ModuleFromContext(ctx context.Context) (types.ModuleInfo, error) {
	info, ok := ctx.Value(moduleContextKey{}).(types.ModuleInfo)
	if !ok || info.ID == "" {
		return types.ModuleInfo{}, ErrNoModuleInContext
	}
	return info, nil
}

// MustModuleFromContext extracts the module or panics.
// Use only when ModuleMiddleware guarantees module presence.
func MustModuleFromContext(ctx context.Context) types.ModuleInfo {
	info, err := ModuleFromContext(ctx)
	if err != nil {
		panic("module not in context: middleware misconfiguration")
	}
	return info
}
