package multistore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hyperengineering/forge/internal/store"
)

const (
	// DBFileName is the pattern database inside a store directory.
	DBFileName = "patterns.db"
	// MetaFileName is the metadata file inside a store directory.
	MetaFileName = "meta.yaml"
)

// ManagedStore wraps a module's SQLiteStore with metadata and access tracking.
type ManagedStore struct {
	ID       string
	Store    store.Store
	Meta     *StoreMeta
	BasePath string // Directory containing this store

	mu        sync.Mutex
	metaDirty bool // Track if metadata needs saving
}

// NewManagedStore opens the store of an existing directory.
func NewManagedStore(id, basePath string) (*ManagedStore, error) {
	meta, err := LoadStoreMeta(filepath.Join(basePath, MetaFileName))
	if err != nil {
		return nil, fmt.Errorf("load store metadata: %w", err)
	}

	sqliteStore, err := store.NewSQLiteStore(filepath.Join(basePath, DBFileName), store.WithModuleID(id))
	if err != nil {
		return nil, fmt.Errorf("open store database: %w", err)
	}

	return &ManagedStore{
		ID:       id,
		Store:    sqliteStore,
		Meta:     meta,
		BasePath: basePath,
	}, nil
}

// DBPath returns the path of the pattern database.
func (m *ManagedStore) DBPath() string {
	return filepath.Join(m.BasePath, DBFileName)
}

// SizeBytes returns the size of the pattern database file, or 0 when it
// cannot be read.
func (m *ManagedStore) SizeBytes() int64 {
	info, err := os.Stat(m.DBPath())
	if err != nil {
		return 0
	}
	return info.Size()
}

// TouchAccessed updates the last_accessed timestamp.
// Metadata is written on FlushMeta, not on every access.
func (m *ManagedStore) TouchAccessed() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Meta.LastAccessed = time.Now().UTC()
	m.metaDirty = true
}

// FlushMeta saves metadata to disk if dirty.
func (m *ManagedStore) FlushMeta() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.metaDirty {
		return nil
	}

	if err := SaveStoreMeta(filepath.Join(m.BasePath, MetaFileName), m.Meta); err != nil {
		return err
	}

	m.metaDirty = false
	return nil
}

// Close flushes metadata and closes the underlying store.
func (m *ManagedStore) Close() error {
	if err := m.FlushMeta(); err != nil {
		// Log but don't fail close
		slog.Warn("failed to flush store metadata",
			"component", "multistore",
			"module_id", m.ID,
			"error", err,
		)
	}
	return m.Store.Close()
}
