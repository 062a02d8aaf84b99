package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/singleflight"

	"github.com/sipeed/alfred/pkg/logger"
)

// Cache keeps the last loaded catalog until it is invalidated, either
// explicitly or by a filesystem event on the catalog file once Watch runs.
type Cache struct {
	path  string
	group singleflight.Group

	mu      sync.RWMutex
	current *Catalog
	// gen is bumped by Invalidate; a read started under an older gen is
	// returned to its callers but not cached.
	gen uint64

	// loadFile is swapped in tests.
	loadFile func(path string) (*Catalog, error)
}

func NewCache(path string) *Cache {
	return &Cache{path: path, loadFile: LoadFile}
}

func (c *Cache) Path() string { return c.path }

// Load returns the cached catalog, reading the file on a miss. Concurrent
// misses share a single read.
func (c *Cache) Load() (*Catalog, error) {
	c.mu.RLock()
	cur, gen := c.current, c.gen
	c.mu.RUnlock()
	if cur != nil {
		return cur, nil
	}

	key := c.path + "#" + strconv.FormatUint(gen, 10)
	v, err, _ := c.group.Do(key, func() (any, error) {
		cat, err := c.loadFile(c.path)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.current = cat
		}
		c.mu.Unlock()
		logger.DebugCF("catalog", "Catalog loaded", map[string]any{
			"path":    c.path,
			"domains": len(cat.Domains),
		})
		return cat, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Catalog), nil
}

// Invalidate drops the cached catalog; the next Load re-reads the file.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.current = nil
	c.gen++
	c.mu.Unlock()
}

// Watch invalidates the cache whenever the catalog file is written, created,
// renamed or removed. It blocks until ctx is done. The parent directory is
// watched so editors that replace the file are handled.
func (c *Cache) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalog watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(c.path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				c.Invalidate()
				logger.DebugCF("catalog", "Catalog invalidated", map[string]any{"op": ev.Op.String()})
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.WarnCF("catalog", "Catalog watcher error", map[string]any{"error": err.Error()})
		}
	}
}
