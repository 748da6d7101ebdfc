package compose

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Cache is an opt-in read-through store for loaded template text, keyed by
// resolved template path. Staleness is handled by explicit invalidation
// only: either Watch a templates directory so filesystem changes evict the
// affected entry, or call Invalidate/Reset yourself. A Composer without a
// Cache reads templates fresh on every call.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]string
	stats   CacheStats

	logger  *zap.Logger
	watcher *fsnotify.Watcher
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// CacheStats counts cache activity since construction.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

// CacheOption customises a Cache.
type CacheOption func(*Cache)

// WithCacheLogger attaches a logger for watch events and eviction notices.
func WithCacheLogger(logger *zap.Logger) CacheOption {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCache builds an empty cache.
func NewCache(options ...CacheOption) *Cache {
	c := &Cache{
		entries: make(map[string]string),
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

func (c *Cache) get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	text, ok := c.entries[key]
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	return text, ok
}

func (c *Cache) put(key, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = text
}

// Invalidate evicts a single entry by its resolved path.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.stats.Evictions++
	}
}

// Reset drops every cached entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Evictions += int64(len(c.entries))
	c.entries = make(map[string]string)
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.stats
	s.Entries = len(c.entries)
	return s
}

// Watch starts a filesystem watcher on the templates directory and evicts
// cached entries whose file changed. Non-blocking; stop it with Close.
func (c *Cache) Watch(dir string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watcher != nil {
		return fmt.Errorf("compose: cache already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("compose: start template watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("compose: watch %s: %w", dir, err)
	}

	c.watcher = watcher
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.watchLoop(watcher, c.stopCh, c.doneCh)

	c.logger.Info("watching templates", zap.String("dir", dir))
	return nil
}

func (c *Cache) watchLoop(watcher *fsnotify.Watcher, stopCh chan struct{}, doneCh chan struct{}) {
	defer close(doneCh)
	for {
		select {
		case <-stopCh:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			key := event.Name
			if abs, err := filepath.Abs(event.Name); err == nil {
				key = abs
			}
			c.Invalidate(key)
			c.logger.Debug("template changed, evicted",
				zap.String("path", key),
				zap.String("op", event.Op.String()))
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			c.logger.Warn("template watcher error", zap.Error(err))
		}
	}
}

// Close stops the watcher, if one is running. The cache itself remains
// usable afterwards.
func (c *Cache) Close() error {
	c.mu.Lock()
	watcher := c.watcher
	stopCh := c.stopCh
	doneCh := c.doneCh
	c.watcher = nil
	c.stopCh = nil
	c.doneCh = nil
	c.mu.Unlock()

	if watcher == nil {
		return nil
	}
	close(stopCh)
	err := watcher.Close()
	<-doneCh
	return err
}
