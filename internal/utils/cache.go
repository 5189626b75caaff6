package utils

import (
	"os"
	"sync"
	"time"
)

// fileStamp identifies one version of a file on disk
type fileStamp struct {
	modTime time.Time
	size    int64
}

func stampOf(path string) (fileStamp, bool) {
	stat, err := os.Stat(path)
	if err != nil {
		return fileStamp{}, false
	}
	return fileStamp{modTime: stat.ModTime(), size: stat.Size()}, true
}

type cacheItem[V any] struct {
	value V
	stamp fileStamp
}

// FileCache caches values derived from files. An entry is dropped as soon as
// the file's modification time or size changes.
type FileCache[V any] struct {
	items map[string]cacheItem[V]
	mutex sync.RWMutex
}

// NewFileCache creates an empty cache
func NewFileCache[V any]() *FileCache[V] {
	return &FileCache[V]{items: make(map[string]cacheItem[V])}
}

// Get returns the cached value for path if the file is unchanged
func (c *FileCache[V]) Get(path string) (V, bool) {
	c.mutex.RLock()
	item, exists := c.items[path]
	c.mutex.RUnlock()

	var zero V
	if !exists {
		return zero, false
	}

	if stamp, ok := stampOf(path); ok && stamp == item.stamp {
		return item.value, true
	}

	c.mutex.Lock()
	delete(c.items, path)
	c.mutex.Unlock()
	return zero, false
}

// Set stores value for path, stamped with the file's current metadata.
// Nothing is stored when the file cannot be stat'ed.
func (c *FileCache[V]) Set(path string, value V) {
	stamp, ok := stampOf(path)
	if !ok {
		return
	}
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items[path] = cacheItem[V]{value: value, stamp: stamp}
}

// Len returns the number of cached entries
func (c *FileCache[V]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.items)
}

// Clear removes all entries
func (c *FileCache[V]) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.items = make(map[string]cacheItem[V])
}
