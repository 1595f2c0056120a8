package moduleconfig

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
)

//go:embed builtin/*.yaml
var builtinFS embed.FS

// Builtin returns freshly parsed copies of the definitions compiled into
// the binary, sorted by ID. Callers may mutate the result.
func Builtin() ([]*Config, error) {
	entries, err := fs.ReadDir(builtinFS, "builtin")
	if err != nil {
		return nil, fmt.Errorf("read builtin definitions: %w", err)
	}

	configs := make([]*Config, 0, len(entries))
	for _, e := range entries {
		data, err := builtinFS.ReadFile(path.Join("builtin", e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read builtin %s: %w", e.Name(), err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse builtin %s: %w", e.Name(), err)
		}
		configs = append(configs, cfg)
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ModuleID() < configs[j].ModuleID() })
	return configs, nil
}

// Ava returns the built-in A.v.A definition.
func Ava() (*Config, error) {
	data, err := builtinFS.ReadFile("builtin/ava.yaml")
	if err != nil {
		return nil, fmt.Errorf("read builtin ava.yaml: %w", err)
	}
	return Parse(data)
}
