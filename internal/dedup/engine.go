// Package dedup filters candidate items that have already been seen, either
// earlier in the same run or in a previous run recorded by the history store.
// Three tiers run cheapest-first: exact fingerprint membership, keyword-set
// overlap, and character-sequence similarity.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"aiscout/internal/config"
)

// History is the read side of the persisted seen-item store. All keys are
// expected in normalized form.
type History interface {
	ContainsURL(normURL string) bool
	ContainsTitle(title string) bool
	ContainsNormTitle(normTitle string) bool
	RecentNormTitles(n int) []string
}

type windowEntry struct {
	norm     string
	keywords map[string]struct{}
}

// Engine tests candidates against the history store and the in-run working
// set. It is not safe for concurrent use; the pipeline runs the dedup pass
// single-threaded after collection.
type Engine struct {
	history History

	tokenThreshold  float64
	stringThreshold float64

	fingerprints map[string]struct{}
	urls         map[string]struct{}
	normTitles   map[string]struct{}
	window       []windowEntry
}

// NewEngine creates a dedup engine seeded with a recent window of history
// titles for the similarity tiers.
func NewEngine(history History, cfg config.Dedup) *Engine {
	e := &Engine{
		history:         history,
		tokenThreshold:  cfg.TokenThreshold,
		stringThreshold: cfg.StringThreshold,
		fingerprints:    make(map[string]struct{}),
		urls:            make(map[string]struct{}),
		normTitles:      make(map[string]struct{}),
	}

	for _, norm := range history.RecentNormTitles(cfg.RecentWindow) {
		if norm == "" {
			continue
		}
		e.window = append(e.window, windowEntry{norm: norm, keywords: Keywords(norm)})
	}
	return e
}

// Fingerprint returns a deterministic content hash over the normalized URL
// and the first 50 characters of the title, for exact in-run matching.
func Fingerprint(url, title string) string {
	if len(title) > 50 {
		title = title[:50]
	}
	key := strings.ToLower(NormalizeURL(url) + "|" + title)
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// IsDuplicate reports whether the item has been seen before. An empty URL or
// title carries no information and never matches on its own tier.
func (e *Engine) IsDuplicate(url, title string) bool {
	if url != "" {
		normURL := NormalizeURL(url)
		if _, ok := e.urls[normURL]; ok {
			return true
		}
		if e.history.ContainsURL(normURL) {
			return true
		}
	}

	if title == "" {
		return false
	}

	if _, ok := e.fingerprints[Fingerprint(url, title)]; ok {
		return true
	}
	if e.history.ContainsTitle(title) {
		return true
	}

	norm := NormalizeTitle(title)
	if norm == "" {
		return false
	}
	if _, ok := e.normTitles[norm]; ok {
		return true
	}
	if e.history.ContainsNormTitle(norm) {
		return true
	}

	kw := Keywords(title)
	for _, entry := range e.window {
		if Jaccard(kw, entry.keywords) >= e.tokenThreshold {
			return true
		}
		if StringSimilarity(norm, entry.norm) >= e.stringThreshold {
			return true
		}
	}

	return false
}

// Remember adds an accepted item to the in-run working set so later
// candidates in the same run are tested against it.
func (e *Engine) Remember(url, title string) {
	if url != "" {
		e.urls[NormalizeURL(url)] = struct{}{}
	}
	if title == "" {
		return
	}

	e.fingerprints[Fingerprint(url, title)] = struct{}{}

	norm := NormalizeTitle(title)
	if norm == "" {
		return
	}
	e.normTitles[norm] = struct{}{}
	e.window = append(e.window, windowEntry{norm: norm, keywords: Keywords(title)})
}

// URLFilter is the cheap URL-only pre-filter the scheduler consults before
// issuing detail fetches. Disabled it reports nothing as seen, so turning it
// off changes request volume but never results.
type URLFilter struct {
	history History
	enabled bool
}

// NewURLFilter creates a pre-filter over the history store.
func NewURLFilter(history History, enabled bool) *URLFilter {
	return &URLFilter{history: history, enabled: enabled}
}

// Seen reports whether the URL is already in the history store.
func (f *URLFilter) Seen(url string) bool {
	if !f.enabled || url == "" {
		return false
	}
	return f.history.ContainsURL(NormalizeURL(url))
}
