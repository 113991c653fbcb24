// Package intro serves long-form movie introductions from a JSON file keyed by douban id.
package intro

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/moviemind/moviemind/internal/metrics"
)

// item is one element of the introductions file: [{"id": 1292052, "introduction": "..."}].
// id may be a JSON number or string.
type item struct {
	ID           json.RawMessage `json:"id"`
	Introduction string          `json:"introduction"`
}

// Cache is a read-through, process-wide introduction cache.
// The file is read lazily on first use; Refresh reloads it explicitly.
type Cache struct {
	path   string
	logger *zap.Logger

	mu      sync.RWMutex
	loaded  bool
	entries map[string]string
}

// New creates a cache over the given file. Nothing is read until first use.
func New(path string, logger *zap.Logger) *Cache {
	return &Cache{path: path, logger: logger, entries: map[string]string{}}
}

// Lookup returns the introduction for a douban id, or "" when unknown.
func (c *Cache) Lookup(doubanID string) string {
	doubanID = strings.TrimSpace(doubanID)
	if doubanID == "" {
		return ""
	}
	c.ensureLoaded()

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[doubanID]
}

// Path returns the introductions file path.
func (c *Cache) Path() string { return c.path }

// Len returns the number of cached introductions.
func (c *Cache) Len() int {
	c.ensureLoaded()

	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Refresh re-reads the file. On failure the previous entries are kept.
func (c *Cache) Refresh() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := readFile(c.path)
	c.loaded = true
	if err != nil {
		metrics.IntroCacheLoadsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("refresh introductions: %w", err)
	}
	c.swapLocked(entries)

	c.logger.Info("Introductions refreshed",
		zap.String("path", c.path),
		zap.Int("entries", len(entries)),
	)
	return len(entries), nil
}

// ensureLoaded performs the one-time lazy load. A failed load is not retried until Refresh.
func (c *Cache) ensureLoaded() {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if loaded {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return
	}
	c.loaded = true

	entries, err := readFile(c.path)
	if err != nil {
		metrics.IntroCacheLoadsTotal.WithLabelValues("error").Inc()
		if errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("Introductions file not found", zap.String("path", c.path))
		} else {
			c.logger.Error("Failed to load introductions", zap.String("path", c.path), zap.Error(err))
		}
		return
	}
	c.swapLocked(entries)
	c.logger.Debug("Introductions loaded", zap.Int("entries", len(entries)))
}

// swapLocked replaces the entries. Caller holds mu.
func (c *Cache) swapLocked(entries map[string]string) {
	c.entries = entries
	metrics.IntroCacheLoadsTotal.WithLabelValues("ok").Inc()
	metrics.IntroCacheEntries.Set(float64(len(entries)))
}

func readFile(path string) (map[string]string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err //nolint:wrapcheck // *fs.PathError names the file
	}
	defer f.Close() //nolint:errcheck // read-only

	var items []item
	if err := json.NewDecoder(f).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	entries := make(map[string]string, len(items))
	for _, it := range items {
		id := normalizeID(it.ID)
		if id == "" {
			continue
		}
		entries[id] = strings.TrimSpace(it.Introduction)
	}
	return entries, nil
}

// normalizeID renders a raw JSON id (number or string) as a trimmed string.
func normalizeID(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return ""
	}
	return strings.TrimSpace(strings.Trim(s, `"`))
}
