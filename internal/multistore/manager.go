package multistore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// StoreManager manages the isolated per-module stores with lazy loading.
// A module's store lives in <root>/<module-id>/ and is created on first use.
type StoreManager struct {
	rootPath string

	mu     sync.RWMutex
	stores map[string]*ManagedStore
}

// NewStoreManager creates a manager with the given root path.
// Creates the root directory if it doesn't exist.
func NewStoreManager(rootPath string) (*StoreManager, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(rootPath, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		rootPath = filepath.Join(home, rootPath[2:])
	}

	if err := os.MkdirAll(rootPath, 0755); err != nil {
		return nil, fmt.Errorf("create stores root directory: %w", err)
	}

	return &StoreManager{
		rootPath: rootPath,
		stores:   make(map[string]*ManagedStore),
	}, nil
}

// RootPath returns the resolved stores root directory.
func (m *StoreManager) RootPath() string {
	return m.rootPath
}

// GetStore returns the store of moduleID, loading it if necessary. A
// missing store is created with moduleName recorded in its metadata.
func (m *StoreManager) GetStore(ctx context.Context, moduleID, moduleName string) (*ManagedStore, error) {
	if err := ValidateModuleID(moduleID); err != nil {
		return nil, err
	}

	// Fast path: check if already loaded
	m.mu.RLock()
	if managed, ok := m.stores[moduleID]; ok {
		m.mu.RUnlock()
		managed.TouchAccessed()
		return managed, nil
	}
	m.mu.RUnlock()

	// Slow path: load or create store
	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if managed, ok := m.stores[moduleID]; ok {
		managed.TouchAccessed()
		return managed, nil
	}

	storePath := m.storePath(moduleID)
	if _, err := os.Stat(filepath.Join(storePath, MetaFileName)); os.IsNotExist(err) {
		if err := m.createStoreDir(moduleID, moduleName, ""); err != nil {
			return nil, err
		}
		slog.Info("store created",
			"component", "multistore",
			"action", "store_created",
			"module_id", moduleID,
		)
	}

	managed, err := NewManagedStore(moduleID, storePath)
	if err != nil {
		return nil, fmt.Errorf("load store %q: %w", moduleID, err)
	}

	m.stores[moduleID] = managed

	slog.Info("store loaded",
		"component", "multistore",
		"action", "store_loaded",
		"module_id", moduleID,
	)

	managed.TouchAccessed()
	return managed, nil
}

// OpenExisting returns the store of moduleID without creating it.
// Returns ErrStoreNotFound if the store directory does not exist.
func (m *StoreManager) OpenExisting(ctx context.Context, moduleID string) (*ManagedStore, error) {
	if err := ValidateModuleID(moduleID); err != nil {
		return nil, err
	}
	if !m.Exists(moduleID) {
		return nil, ErrStoreNotFound
	}
	return m.GetStore(ctx, moduleID, "")
}

// Exists reports whether a store directory with metadata exists for moduleID.
func (m *StoreManager) Exists(moduleID string) bool {
	_, err := os.Stat(filepath.Join(m.storePath(moduleID), MetaFileName))
	return err == nil
}

// CreateStore creates a new store for moduleID.
// Returns ErrStoreAlreadyExists if the store already exists.
func (m *StoreManager) CreateStore(ctx context.Context, moduleID, moduleName, description string) (*ManagedStore, error) {
	if err := ValidateModuleID(moduleID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	storePath := m.storePath(moduleID)
	if _, err := os.Stat(storePath); err == nil {
		return nil, ErrStoreAlreadyExists
	}

	if err := m.createStoreDir(moduleID, moduleName, description); err != nil {
		return nil, err
	}

	managed, err := NewManagedStore(moduleID, storePath)
	if err != nil {
		return nil, fmt.Errorf("load new store %q: %w", moduleID, err)
	}

	m.stores[moduleID] = managed

	slog.Info("store created",
		"component", "multistore",
		"action", "store_created",
		"module_id", moduleID,
	)

	return managed, nil
}

// DeleteStore closes and removes a module's store, discarding everything
// it learned. Returns ErrStoreNotFound if the store doesn't exist.
func (m *StoreManager) DeleteStore(ctx context.Context, moduleID string) error {
	if err := ValidateModuleID(moduleID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	storePath := m.storePath(moduleID)
	if _, err := os.Stat(storePath); os.IsNotExist(err) {
		return ErrStoreNotFound
	}

	if managed, ok := m.stores[moduleID]; ok {
		if err := managed.Close(); err != nil {
			slog.Warn("error closing store before deletion",
				"component", "multistore",
				"module_id", moduleID,
				"error", err,
			)
		}
		delete(m.stores, moduleID)
	}

	if err := os.RemoveAll(storePath); err != nil {
		return fmt.Errorf("remove store directory: %w", err)
	}

	slog.Info("store deleted",
		"component", "multistore",
		"action", "store_deleted",
		"module_id", moduleID,
	)

	return nil
}

// Release closes a loaded store and forgets it. The next GetStore reopens
// it from disk. Releasing a store that is not loaded is a no-op.
func (m *StoreManager) Release(moduleID string) error {
	m.mu.Lock()
	managed, ok := m.stores[moduleID]
	delete(m.stores, moduleID)
	m.mu.Unlock()

	if !ok {
		return nil
	}
	return managed.Close()
}

// ListStores returns metadata for all existing stores, sorted by ID.
// Directories without readable metadata are skipped.
func (m *StoreManager) ListStores(ctx context.Context) ([]StoreInfo, error) {
	entries, err := os.ReadDir(m.rootPath)
	if err != nil {
		return nil, fmt.Errorf("read stores directory: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []StoreInfo
	for _, entry := range entries {
		if !entry.IsDir() || ValidateModuleID(entry.Name()) != nil {
			continue
		}

		info, err := m.getStoreInfo(entry.Name())
		if err != nil {
			slog.Warn("error scanning store directory",
				"component", "multistore",
				"path", entry.Name(),
				"error", err,
			)
			continue
		}
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// getStoreInfo collects information about a single store. Loaded stores
// report their in-memory metadata.
func (m *StoreManager) getStoreInfo(moduleID string) (StoreInfo, error) {
	basePath := m.storePath(moduleID)

	managed, loaded := m.stores[moduleID]
	var meta StoreMeta
	if loaded {
		managed.mu.Lock()
		meta = *managed.Meta
		managed.mu.Unlock()
	} else {
		loadedMeta, err := LoadStoreMeta(filepath.Join(basePath, MetaFileName))
		if err != nil {
			return StoreInfo{}, err
		}
		meta = *loadedMeta
	}

	var sizeBytes int64
	if info, err := os.Stat(filepath.Join(basePath, DBFileName)); err == nil {
		sizeBytes = info.Size()
	}

	return StoreInfo{
		ID:           moduleID,
		ModuleName:   meta.ModuleName,
		Created:      meta.Created,
		LastAccessed: meta.LastAccessed,
		Description:  meta.Description,
		SizeBytes:    sizeBytes,
		Loaded:       loaded,
	}, nil
}

// storePath returns the filesystem path for a module ID.
func (m *StoreManager) storePath(moduleID string) string {
	return filepath.Join(m.rootPath, moduleID)
}

// createStoreDir creates a new store directory with metadata.
func (m *StoreManager) createStoreDir(moduleID, moduleName, description string) error {
	storePath := m.storePath(moduleID)

	if err := os.MkdirAll(storePath, 0755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}

	meta := NewStoreMeta(moduleName, description)
	if err := SaveStoreMeta(filepath.Join(storePath, MetaFileName), meta); err != nil {
		// Clean up directory on failure
		os.RemoveAll(storePath)
		return fmt.Errorf("write store metadata: %w", err)
	}

	return nil
}

// Close closes all loaded stores.
func (m *StoreManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var lastErr error
	for id, managed := range m.stores {
		if err := managed.Close(); err != nil {
			slog.Error("error closing store",
				"component", "multistore",
				"module_id", id,
				"error", err,
			)
			lastErr = err
		}
	}
	m.stores = make(map[string]*ManagedStore)

	return lastErr
}
