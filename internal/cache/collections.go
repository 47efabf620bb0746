package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/geowatch/nextpass/internal/plan"
)

// FSCollections is a filesystem-backed plan.CollectionCache: each parsed
// source collection is stored as {key}.geojson in the cache directory.
type FSCollections struct {
	dir string
}

// NewFSCollections creates a filesystem collection cache rooted at dir.
func NewFSCollections(dir string) *FSCollections {
	return &FSCollections{dir: dir}
}

// Get loads the cached collection for key, if the derived file exists and
// decodes cleanly. A corrupt file is treated as a miss.
func (f *FSCollections) Get(key string) (*plan.Collection, bool) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		return nil, false
	}
	var c plan.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, false
	}
	return &c, true
}

// Put stores the collection under key.
func (f *FSCollections) Put(key string, c *plan.Collection) error {
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path(key), data, 0o644)
}

func (f *FSCollections) path(key string) string {
	return filepath.Join(f.dir, key+".geojson")
}

// MemoryCollections is an in-memory plan.CollectionCache for tests and for
// deployments that do not want derived files on disk.
type MemoryCollections struct {
	mu          sync.RWMutex
	collections map[string]*plan.Collection
}

// NewMemoryCollections creates an empty in-memory collection cache.
func NewMemoryCollections() *MemoryCollections {
	return &MemoryCollections{collections: make(map[string]*plan.Collection)}
}

// Get returns the cached collection for key, if present.
func (m *MemoryCollections) Get(key string) (*plan.Collection, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.collections[key]
	return c, ok
}

// Put stores the collection under key.
func (m *MemoryCollections) Put(key string, c *plan.Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collections[key] = c
	return nil
}
