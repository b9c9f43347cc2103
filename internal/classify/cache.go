package classify

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

const cacheFile = "classify_cache.json"

// cacheEntry is the persisted form of a classification. Via is not stored:
// it describes how a particular lookup was satisfied, not the result itself.
type cacheEntry struct {
	ContentType    string   `json:"content_type"`
	TechCategories []string `json:"tech_categories"`
	Confidence     float64  `json:"confidence"`
	Reasoning      string   `json:"reasoning"`
	ClassifiedBy   string   `json:"classified_by"`
}

// Cache is the persisted response cache keyed by content fingerprint plus
// model identifier, so results from different models coexist. Read-heavy;
// reads take a read lock.
type Cache struct {
	mu      sync.RWMutex
	path    string
	entries map[string]cacheEntry
	enabled bool
}

// ContentHash fingerprints the classification-relevant fields of an item.
func ContentHash(in Input) string {
	sum := md5.Sum([]byte(in.Title + "|" + in.Summary + "|" + in.Source))
	return hex.EncodeToString(sum[:])
}

// CacheKey builds the composite (content, model) cache key.
func CacheKey(in Input, model string) string {
	return ContentHash(in) + ":" + model
}

// LoadCache reads the response cache from dataDir, failing open to an empty
// cache on any load problem.
func LoadCache(dataDir string, enabled bool) *Cache {
	c := &Cache{
		path:    filepath.Join(dataDir, cacheFile),
		entries: make(map[string]cacheEntry),
		enabled: enabled,
	}
	if !enabled {
		return c
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("classify cache: unreadable %s, starting empty: %v", c.path, err)
		}
		return c
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		log.Printf("classify cache: corrupt %s, starting empty: %v", c.path, err)
		c.entries = make(map[string]cacheEntry)
		return c
	}

	log.Printf("classify cache: loaded %d entries", len(c.entries))
	return c
}

// Get returns the cached result for key, if any.
func (c *Cache) Get(key string) (Result, bool) {
	if !c.enabled {
		return Result{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	return Result{
		ContentType:    entry.ContentType,
		TechCategories: entry.TechCategories,
		Confidence:     entry.Confidence,
		Reasoning:      entry.Reasoning,
	}, true
}

// Put stores a result under key.
func (c *Cache) Put(key string, r Result, classifiedBy string) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		ContentType:    r.ContentType,
		TechCategories: r.TechCategories,
		Confidence:     r.Confidence,
		Reasoning:      r.Reasoning,
		ClassifiedBy:   classifiedBy,
	}
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Save writes the cache to disk. A failed save is the caller's to log; it
// never aborts a run.
func (c *Cache) Save() error {
	if !c.enabled {
		return nil
	}
	c.mu.RLock()
	data, err := json.MarshalIndent(c.entries, "", "  ")
	c.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("encoding classify cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("writing classify cache: %w", err)
	}
	return nil
}

// Clear empties the cache and removes its file.
func (c *Cache) Clear() error {
	c.mu.Lock()
	c.entries = make(map[string]cacheEntry)
	c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing classify cache: %w", err)
	}
	return nil
}
