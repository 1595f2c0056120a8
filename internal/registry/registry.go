// Package registry discovers module definitions, instantiates each module
// at most once over its own pattern store and routes turns to it.
package registry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hyperengineering/forge/internal/i18n"
	"github.com/hyperengineering/forge/internal/moduleconfig"
	"github.com/hyperengineering/forge/internal/multistore"
	"github.com/hyperengineering/forge/internal/reasoning"
	"github.com/hyperengineering/forge/internal/types"
)

// SourceBuiltin marks definitions compiled into the binary.
const SourceBuiltin = "builtin"

// definition is one discovered module.
type definition struct {
	cfg    *moduleconfig.Config
	source string // SourceBuiltin or the file path
	raw    []byte // canonical encoding, used to detect changes
}

func (d *definition) info() types.ModuleInfo {
	return types.ModuleInfo{
		ID:          d.cfg.ModuleID(),
		Name:        d.cfg.Name,
		Version:     d.cfg.Version,
		Description: d.cfg.Description,
		Category:    d.cfg.Category,
		Builtin:     d.source == SourceBuiltin,
		Source:      d.source,
	}
}

// Registry owns discovery, lazy instantiation and turn routing.
type Registry struct {
	modulesDir string
	stores     *multistore.StoreManager
	language   string
	base       *slog.Logger
	logger     *slog.Logger
	moduleOpts []reasoning.Option

	mu         sync.RWMutex
	defs       map[string]*definition
	loaded     map[string]*reasoning.Module
	loadErrors []ModuleLoadError
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		r.base = l
	}
}

// WithLanguage sets the language used for failure messages of modules
// whose language preference is "auto".
func WithLanguage(pref string) Option {
	return func(r *Registry) {
		r.language = pref
	}
}

// WithModuleOptions passes options to every instantiated module.
func WithModuleOptions(opts ...reasoning.Option) Option {
	return func(r *Registry) {
		r.moduleOpts = append(r.moduleOpts, opts...)
	}
}

// New creates a registry over modulesDir. Call Refresh to discover modules.
func New(modulesDir string, stores *multistore.StoreManager, opts ...Option) *Registry {
	r := &Registry{
		modulesDir: modulesDir,
		stores:     stores,
		language:   "auto",
		defs:       make(map[string]*definition),
		loaded:     make(map[string]*reasoning.Module),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.base == nil {
		r.base = slog.Default()
	}
	r.logger = r.base.With("component", "registry")
	return r
}

// ModulesDir returns the directory scanned for definitions.
func (r *Registry) ModulesDir() string {
	return r.modulesDir
}

// Refresh rediscovers the built-in definitions and every *.yaml or *.yml
// file in the modules directory. Malformed files and duplicate IDs are
// recorded as load errors; the first definition of an ID wins. Instances
// whose definition changed or disappeared are dropped; their stores stay.
func (r *Registry) Refresh() error {
	var (
		found    []*definition
		failures []ModuleLoadError
	)

	builtins, err := moduleconfig.Builtin()
	if err != nil {
		return fmt.Errorf("load built-in modules: %w", err)
	}
	for _, cfg := range builtins {
		def, err := newDefinition(cfg, SourceBuiltin)
		if err != nil {
			return fmt.Errorf("encode built-in module %s: %w", cfg.Name, err)
		}
		found = append(found, def)
	}

	files, err := r.definitionFiles()
	if err != nil {
		return err
	}
	for _, path := range files {
		cfg, err := moduleconfig.Load(path)
		if err == nil {
			var def *definition
			if def, err = newDefinition(cfg, path); err == nil {
				found = append(found, def)
				continue
			}
		}
		failures = append(failures, ModuleLoadError{Name: filepath.Base(path), Path: path, Err: err})
	}

	defs := make(map[string]*definition, len(found))
	for _, def := range found {
		id := def.cfg.ModuleID()
		if prev, ok := defs[id]; ok {
			failures = append(failures, ModuleLoadError{
				Name: def.cfg.Name,
				Path: def.source,
				Err:  fmt.Errorf("duplicate module id %q, already defined by %s", id, prev.source),
			})
			continue
		}
		defs[id] = def
	}

	// Stale stores are released under the write lock so a concurrent Load
	// cannot pick up a handle that is about to close.
	r.mu.Lock()
	for id, m := range r.loaded {
		if next, ok := defs[id]; ok && bytes.Equal(next.raw, r.defs[id].raw) {
			continue
		}
		delete(r.loaded, id)
		m.Close()
		if err := r.stores.Release(id); err != nil {
			r.logger.Warn("release store of changed module", "module_id", id, "error", err)
		}
		r.logger.Info("module definition changed", "action", "module_unloaded", "module_id", id)
	}
	r.defs = defs
	r.loadErrors = failures
	r.mu.Unlock()

	for _, f := range failures {
		r.logger.Warn("module definition rejected",
			"action", "module_load_failed",
			"name", f.Name,
			"path", f.Path,
			"error", f.Err,
		)
	}
	r.logger.Info("modules discovered",
		"action", "modules_refreshed",
		"available", len(defs),
		"rejected", len(failures),
	)
	return nil
}

func newDefinition(cfg *moduleconfig.Config, source string) (*definition, error) {
	raw, err := moduleconfig.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	return &definition{cfg: cfg, source: source, raw: raw}, nil
}

// definitionFiles lists the YAML files of the modules directory in name
// order. A missing directory holds no definitions.
func (r *Registry) definitionFiles() ([]string, error) {
	if r.modulesDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(r.modulesDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read modules directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() || !isDefinitionFile(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(r.modulesDir, e.Name()))
	}
	return files, nil
}

func isDefinitionFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// LoadErrors returns the definitions rejected by the last Refresh.
func (r *Registry) LoadErrors() []ModuleLoadError {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]ModuleLoadError(nil), r.loadErrors...)
}

// Available returns every discovered module sorted by name.
func (r *Registry) Available() []types.ModuleInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]types.ModuleInfo, 0, len(r.defs))
	for id, def := range r.defs {
		info := def.info()
		_, info.Loaded = r.loaded[id]
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool {
		a, b := strings.ToLower(infos[i].Name), strings.ToLower(infos[j].Name)
		if a != b {
			return a < b
		}
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// Info describes one module.
func (r *Registry) Info(nameOrID string) (types.ModuleInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, err := r.lookup(nameOrID)
	if err != nil {
		return types.ModuleInfo{}, err
	}
	info := def.info()
	_, info.Loaded = r.loaded[info.ID]
	return info, nil
}

// Config returns a copy of a module's definition.
func (r *Registry) Config(nameOrID string) (*moduleconfig.Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, err := r.lookup(nameOrID)
	if err != nil {
		return nil, err
	}
	c := *def.cfg
	return &c, nil
}

// lookup resolves an ID, a name or the slug of a name. Callers hold r.mu.
func (r *Registry) lookup(nameOrID string) (*definition, error) {
	key := strings.TrimSpace(nameOrID)
	if def, ok := r.defs[key]; ok {
		return def, nil
	}
	if def, ok := r.defs[moduleconfig.Slug(key)]; ok {
		return def, nil
	}
	for _, def := range r.defs {
		if strings.EqualFold(def.cfg.Name, key) {
			return def, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, nameOrID)
}

// Load returns the module instance for nameOrID, creating it and opening
// its store on first use. Exactly one instance exists per module ID.
func (r *Registry) Load(ctx context.Context, nameOrID string) (*reasoning.Module, error) {
	r.mu.RLock()
	def, err := r.lookup(nameOrID)
	if err != nil {
		r.mu.RUnlock()
		return nil, err
	}
	id := def.cfg.ModuleID()
	if m, ok := r.loaded[id]; ok {
		r.mu.RUnlock()
		return m, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check after acquiring write lock; the definition may also
	// have been replaced by a concurrent Refresh.
	if def, err = r.lookup(nameOrID); err != nil {
		return nil, err
	}
	id = def.cfg.ModuleID()
	if m, ok := r.loaded[id]; ok {
		return m, nil
	}

	managed, err := r.stores.GetStore(ctx, id, def.cfg.Name)
	if err != nil {
		r.logger.Error("open module store", "action", "module_load_failed", "module_id", id, "error", err)
		return nil, fmt.Errorf("open store for module %s: %w", id, err)
	}

	opts := append([]reasoning.Option{reasoning.WithLogger(r.base)}, r.moduleOpts...)
	m, err := reasoning.New(def.cfg, managed.Store, opts...)
	if err != nil {
		if cerr := r.stores.Release(id); cerr != nil {
			r.logger.Warn("release store after failed load", "module_id", id, "error", cerr)
		}
		r.logger.Error("instantiate module", "action", "module_load_failed", "module_id", id, "error", err)
		return nil, fmt.Errorf("instantiate module %s: %w", id, err)
	}

	r.loaded[id] = m
	r.logger.Info("module loaded", "action", "module_loaded", "module_id", id)
	return m, nil
}

// Respond runs one turn and commits its learning and conversation row
// together. A failed turn writes nothing. On failure it logs the error and
// returns a localized message for the user together with the error.
func (r *Registry) Respond(ctx context.Context, nameOrID, input string, history []types.ConversationTurn) (string, error) {
	resp, err := r.respond(ctx, nameOrID, input, history)
	if err == nil {
		return resp, nil
	}

	r.logger.Error("turn failed",
		"action", "turn_failed",
		"module", nameOrID,
		"error", err,
	)
	loc := i18n.New(r.languageFor(nameOrID))
	return loc.T(i18n.MsgErrorGeneratingResponse, map[string]any{"Error": err.Error()}), err
}

func (r *Registry) respond(ctx context.Context, nameOrID, input string, history []types.ConversationTurn) (string, error) {
	for {
		m, err := r.Load(ctx, nameOrID)
		if err != nil {
			return "", err
		}
		resp, err := m.Converse(ctx, input, history)
		// A reload closed the instance before the turn started; nothing was
		// written, so run it on the fresh one.
		if errors.Is(err, reasoning.ErrClosed) {
			continue
		}
		return resp, err
	}
}

// languageFor returns the module's language preference, falling back to
// the registry language when the module has none or asks for "auto".
func (r *Registry) languageFor(nameOrID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if def, err := r.lookup(nameOrID); err == nil {
		if pref := def.cfg.Behavior.LanguagePreference; pref != "" && pref != "auto" {
			return pref
		}
	}
	return r.language
}

// Stats returns the statistics of a module, loading it if needed.
func (r *Registry) Stats(ctx context.Context, nameOrID string) (*types.ModuleStats, error) {
	m, err := r.Load(ctx, nameOrID)
	if err != nil {
		return nil, err
	}
	return m.Stats(ctx)
}

// History returns up to limit logged exchanges of a module, newest first.
func (r *Registry) History(ctx context.Context, nameOrID string, limit int) ([]types.Conversation, error) {
	m, err := r.Load(ctx, nameOrID)
	if err != nil {
		return nil, err
	}
	return m.History(ctx, limit)
}

// Store returns the managed pattern store of a module for administrative
// access such as listing or deleting patterns and taking snapshots.
func (r *Registry) Store(ctx context.Context, nameOrID string) (*multistore.ManagedStore, error) {
	r.mu.RLock()
	def, err := r.lookup(nameOrID)
	r.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	return r.stores.GetStore(ctx, def.cfg.ModuleID(), def.cfg.Name)
}

// Reset discards everything a module has learned. The module is unloaded
// and its store deleted; the next turn starts from an empty store.
func (r *Registry) Reset(ctx context.Context, nameOrID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	def, err := r.lookup(nameOrID)
	if err != nil {
		return err
	}
	id := def.cfg.ModuleID()
	if m, ok := r.loaded[id]; ok {
		delete(r.loaded, id)
		m.Close()
	}

	if err := r.stores.DeleteStore(ctx, id); err != nil && !errors.Is(err, multistore.ErrStoreNotFound) {
		return fmt.Errorf("reset module %s: %w", id, err)
	}
	r.logger.Info("module reset", "action", "module_reset", "module_id", id)
	return nil
}

// Close waits for in-flight turns, unloads every module and closes their stores.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.loaded {
		m.Close()
	}
	r.loaded = make(map[string]*reasoning.Module)
	return r.stores.Close()
}
