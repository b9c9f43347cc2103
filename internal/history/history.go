// Package history persists the set of URLs and titles seen in previous runs
// so the next run can drop re-published items before they reach the
// classifier. The snapshot is a single JSON document with a whole-store TTL.
package history

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"aiscout/internal/config"
	"aiscout/internal/dedup"
)

const snapshotFile = "history.json"

// Store is the disk-backed, in-memory-mirrored seen-item store. Reads take a
// read lock, writes are serialized; many collector goroutines may consult it
// through the pre-filter while the run is in flight.
type Store struct {
	mu   sync.RWMutex
	path string

	maxSize int
	ttl     time.Duration

	urls       *orderedSet
	titles     *orderedSet
	normTitles *orderedSet

	lastUpdated time.Time
}

type snapshot struct {
	URLs             []string `json:"urls"`
	Titles           []string `json:"titles"`
	NormalizedTitles []string `json:"normalized_titles"`
	LastUpdated      string   `json:"last_updated"`
}

// Load reads the snapshot from dataDir. A missing, unreadable, corrupt, or
// expired snapshot yields an empty store, never an error: losing history
// costs duplicate work downstream, not correctness.
func Load(dataDir string, cfg config.History) *Store {
	s := &Store{
		path:       filepath.Join(dataDir, snapshotFile),
		maxSize:    cfg.MaxSize,
		ttl:        time.Duration(cfg.TTLDays) * 24 * time.Hour,
		urls:       newOrderedSet(),
		titles:     newOrderedSet(),
		normTitles: newOrderedSet(),
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("history: unreadable snapshot %s, starting empty: %v", s.path, err)
		}
		return s
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("history: corrupt snapshot %s, starting empty: %v", s.path, err)
		return s
	}

	if snap.LastUpdated != "" {
		if ts, err := time.Parse(time.RFC3339, snap.LastUpdated); err == nil {
			s.lastUpdated = ts
		}
	}
	if s.Expired(time.Now()) {
		log.Printf("history: snapshot older than %s, discarding %d urls / %d titles",
			s.ttl, len(snap.URLs), len(snap.Titles))
		s.lastUpdated = time.Time{}
		return s
	}

	// List order in the snapshot is insertion order.
	for _, u := range snap.URLs {
		s.urls.add(dedup.NormalizeURL(u), s.maxSize)
	}
	for _, t := range snap.Titles {
		s.titles.add(t, s.maxSize)
	}
	for _, nt := range snap.NormalizedTitles {
		s.normTitles.add(nt, s.maxSize)
	}

	// Older snapshots predate the normalized-title index; rebuild it.
	if s.normTitles.len() == 0 && s.titles.len() > 0 {
		for _, t := range s.titles.keys() {
			if nt := dedup.NormalizeTitle(t); nt != "" {
				s.normTitles.add(nt, s.maxSize)
			}
		}
	}

	log.Printf("history: loaded %d urls, %d titles", s.urls.len(), s.titles.len())
	return s
}

// Expired reports whether the whole store is past its validity window.
func (s *Store) Expired(now time.Time) bool {
	return !s.lastUpdated.IsZero() && now.Sub(s.lastUpdated) > s.ttl
}

// ContainsURL reports whether the normalized URL was seen in a previous run.
func (s *Store) ContainsURL(normURL string) bool {
	if normURL == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.urls.contains(normURL)
}

// ContainsTitle reports whether the exact title was seen in a previous run.
func (s *Store) ContainsTitle(title string) bool {
	if title == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.titles.contains(title)
}

// ContainsNormTitle reports whether the normalized title was seen.
func (s *Store) ContainsNormTitle(normTitle string) bool {
	if normTitle == "" {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.normTitles.contains(normTitle)
}

// RecentNormTitles returns up to n of the most recently inserted normalized
// titles, oldest first.
func (s *Store) RecentNormTitles(n int) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := s.normTitles.keys()
	if len(keys) > n {
		keys = keys[len(keys)-n:]
	}
	return keys
}

// Add records a newly accepted item. Empty fields are skipped; each index
// evicts its oldest 20% when it reaches capacity.
func (s *Store) Add(url, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if url != "" {
		s.urls.add(dedup.NormalizeURL(url), s.maxSize)
	}
	if title != "" {
		s.titles.add(title, s.maxSize)
		if nt := dedup.NormalizeTitle(title); nt != "" {
			s.normTitles.add(nt, s.maxSize)
		}
	}
}

// Len returns the current URL and title index sizes.
func (s *Store) Len() (urls, titles int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.urls.len(), s.titles.len()
}

// Save writes the snapshot to disk. Callers treat a failed save as a logged
// degradation, not a run failure.
func (s *Store) Save() error {
	s.mu.Lock()
	snap := snapshot{
		URLs:             s.urls.keys(),
		Titles:           s.titles.keys(),
		NormalizedTitles: s.normTitles.keys(),
		LastUpdated:      time.Now().Format(time.RFC3339),
	}
	s.mu.Unlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("writing history snapshot: %w", err)
	}
	return nil
}

// Clear empties the store and removes the snapshot file.
func (s *Store) Clear() error {
	s.mu.Lock()
	s.urls = newOrderedSet()
	s.titles = newOrderedSet()
	s.normTitles = newOrderedSet()
	s.lastUpdated = time.Time{}
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing history snapshot: %w", err)
	}
	return nil
}
