// Package assets handles resource loading from RFF archives.
package assets

import (
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/grimfang/bloodline/internal/logger"
	"github.com/grimfang/bloodline/pkg/mapfile"
	"github.com/grimfang/bloodline/pkg/rff"
)

// DefaultCacheEntries caps the payload cache when no size is configured.
const DefaultCacheEntries = 256

type mountedArchive struct {
	path    string
	archive *rff.Archive
}

// Manager handles resource loading from a stack of RFF archives.
// Archives are searched in reverse order (last added = highest priority).
// Decrypted payloads are held in an LRU cache keyed by "NAME.TYP".
type Manager struct {
	archives []mountedArchive
	cache    *lru.Cache[string, []byte]
	mu       sync.RWMutex
}

// NewManager creates a new asset manager. cacheEntries <= 0 selects the
// default cache size.
func NewManager(cacheEntries int) *Manager {
	if cacheEntries <= 0 {
		cacheEntries = DefaultCacheEntries
	}
	cache, _ := lru.New[string, []byte](cacheEntries)
	return &Manager{cache: cache}
}

// AddArchive loads an RFF archive from disk and mounts it.
func (m *Manager) AddArchive(path string) error {
	archive, err := rff.LoadFile(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}
	m.Mount(path, archive)
	return nil
}

// Mount adds an already-parsed archive under the given name.
func (m *Manager) Mount(path string, archive *rff.Archive) {
	m.mu.Lock()
	m.archives = append(m.archives, mountedArchive{path: path, archive: archive})
	m.mu.Unlock()

	logger.Debug("mounted archive",
		zap.String("path", path),
		zap.Int("entries", archive.Len()))
}

// Load returns the decrypted payload of the named resource, searching
// archives in reverse mount order.
func (m *Manager) Load(name, typ string) ([]byte, error) {
	key := cacheKey(name, typ)
	if data, ok := m.cache.Get(key); ok {
		return data, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.archives) - 1; i >= 0; i-- {
		mounted := m.archives[i]
		entry := mounted.archive.Find(name, typ)
		if entry == nil {
			continue
		}

		data, err := mounted.archive.Data(entry)
		if err != nil {
			// Stale dictionary entry; lower-priority archives may
			// still carry a valid copy.
			logger.Warn("unreadable archive entry",
				zap.String("archive", mounted.path),
				zap.String("entry", entry.FileName()),
				zap.Error(err))
			continue
		}

		m.cache.Add(key, data)
		return data, nil
	}

	return nil, fmt.Errorf("resource not found: %s", cacheKey(name, typ))
}

// LoadWorld loads and decodes the named level from the mounted archives.
func (m *Manager) LoadWorld(name string) (*mapfile.World, error) {
	data, err := m.Load(name, "MAP")
	if err != nil {
		return nil, err
	}

	world, err := mapfile.Load(data)
	if err != nil {
		return nil, fmt.Errorf("decoding %s.MAP: %w", strings.ToUpper(name), err)
	}

	logger.Debug("decoded level", zap.String("map", name), zap.String("world", world.Summary()))
	return world, nil
}

// List returns the entry names of all mounted archives, lowest priority
// first, in on-disk order within each archive.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []string
	for _, mounted := range m.archives {
		result = append(result, mounted.archive.List()...)
	}
	return result
}

// Close unmounts all archives and drops cached payloads.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archives = nil
	m.cache.Purge()
}

func cacheKey(name, typ string) string {
	return strings.ToUpper(name) + "." + strings.ToUpper(typ)
}
