package texture

import (
	"image"
	"log/slog"
	"sync"
)

// Cache is a concurrency-safe texture cache. Failed loads are cached as
// nil so each bad file is read and logged once.
type Cache struct {
	mu    sync.RWMutex
	items map[string]*image.NRGBA
	index *Index
	log   *slog.Logger
}

// NewCache creates a new texture cache backed by the given index.
func NewCache(index *Index, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{
		items: make(map[string]*image.NRGBA),
		index: index,
		log:   log,
	}
}

// Resolve loads and caches a texture by name. Returns nil if not found.
func (c *Cache) Resolve(texName string) *image.NRGBA {
	path, ok := c.index.ResolvePath(texName)
	if !ok {
		return nil
	}

	c.mu.RLock()
	img, exists := c.items[path]
	c.mu.RUnlock()
	if exists {
		return img
	}

	img, err := Load(path)
	if err != nil {
		c.log.Warn("texture load failed", "texture", texName, "err", err)
	}

	// Double-check: another worker may have stored it meanwhile.
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, exists := c.items[path]; exists {
		return cur
	}
	c.items[path] = img
	return img
}
