package importer

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/Jakobo/eyeglass/pkg/observability"
)

// DefaultFileCacheSize is the number of stylesheets a FileReader keeps
const DefaultFileCacheSize = 512

// FileReader reads stylesheet contents through an expiring LRU cache. A
// nil *FileReader reads straight from disk.
type FileReader struct {
	cache   *lru.LRU[string, string]
	metrics *observability.Metrics
}

// NewFileReader creates a reader caching up to size files for ttl. A
// size <= 0 means DefaultFileCacheSize and a ttl <= 0 never expires.
func NewFileReader(size int, ttl time.Duration, metrics *observability.Metrics) *FileReader {
	if size <= 0 {
		size = DefaultFileCacheSize
	}
	return &FileReader{
		cache:   lru.NewLRU[string, string](size, nil, ttl),
		metrics: metrics,
	}
}

// cacheKey is the symlink-free form of path, so that a file read through a
// linked directory and reported by the watcher under its real location
// share one entry. Paths that no longer exist keep their resolved parent.
func cacheKey(path string) string {
	if real, err := filepath.EvalSymlinks(path); err == nil {
		return real
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(path)); err == nil {
		return filepath.Join(dir, filepath.Base(path))
	}
	return filepath.Clean(path)
}

// Read returns the contents of path
func (r *FileReader) Read(path string) (string, error) {
	var key string
	if r != nil {
		key = cacheKey(path)
		if contents, ok := r.cache.Get(key); ok {
			r.metrics.FileCacheHit()
			return contents, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read stylesheet %s: %w", path, err)
	}
	if r != nil {
		r.metrics.FileCacheMiss()
		r.cache.Add(key, string(data))
	}
	return string(data), nil
}

// Invalidate drops path from the cache
func (r *FileReader) Invalidate(path string) {
	if r != nil {
		r.cache.Remove(cacheKey(path))
	}
}

// Purge empties the cache
func (r *FileReader) Purge() {
	if r != nil {
		r.cache.Purge()
	}
}

// Len is the number of cached files
func (r *FileReader) Len() int {
	if r == nil {
		return 0
	}
	return r.cache.Len()
}
