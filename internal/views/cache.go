package views

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Cache memoizes compiled views by file path.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*View
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*View)}
}

// Get returns the cached view for file.
func (c *Cache) Get(file string) (*View, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.entries[filepath.Clean(file)]
	return v, ok
}

// Put stores v under its file path.
func (c *Cache) Put(v *View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[filepath.Clean(v.File)] = v
}

// Invalidate drops the entry for file, reporting whether one existed.
func (c *Cache) Invalidate(file string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	file = filepath.Clean(file)
	_, ok := c.entries[file]
	delete(c.entries, file)
	return ok
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of cached views.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Watch invalidates cache entries as files under dir change, until ctx is
// done. onChange, if non-nil, is called with each changed path.
// Directories created while watching are watched too.
func (c *Cache) Watch(ctx context.Context, dir string, logger *slog.Logger, onChange func(path string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := addRecursive(watcher, dir); err != nil {
		return err
	}
	logger.Debug("watching views", slog.String("dir", dir))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addRecursive(watcher, event.Name); err != nil {
						logger.Warn("watch directory failed", slog.String("dir", event.Name), slog.String("error", err.Error()))
					}
				}
			}

			// Layouts and views share the cache, so a changed layout only
			// needs its own entry dropped.
			if c.Invalidate(event.Name) {
				logger.Debug("view invalidated", slog.String("file", event.Name))
			}
			if onChange != nil {
				onChange(event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", slog.String("error", err.Error()))
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
