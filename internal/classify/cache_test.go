package classify

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := LoadCache(dir, true)

	in := testInput("An item heading into the cache")
	key := CacheKey(in, "ollama/test")
	c.Put(key, Result{ContentType: "research", Confidence: 0.9, TechCategories: []string{"NLP"}}, "ollama/test")

	if err := c.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded := LoadCache(dir, true)
	r, ok := reloaded.Get(key)
	if !ok {
		t.Fatal("entry should survive a save/reload cycle")
	}
	if r.ContentType != "research" || r.Confidence != 0.9 {
		t.Errorf("unexpected cached result: %+v", r)
	}
}

func TestCacheMissOnDifferentContent(t *testing.T) {
	c := LoadCache(t.TempDir(), true)
	c.Put(CacheKey(testInput("First title goes here"), "m"), Result{ContentType: "product"}, "m")

	if _, ok := c.Get(CacheKey(testInput("Second different title"), "m")); ok {
		t.Error("different content must not hit the cache")
	}
}

func TestCacheDisabled(t *testing.T) {
	c := LoadCache(t.TempDir(), false)
	key := CacheKey(testInput("Disabled cache item"), "m")
	c.Put(key, Result{ContentType: "product"}, "m")

	if _, ok := c.Get(key); ok {
		t.Error("disabled cache must never hit")
	}
}

func TestCacheCorruptFileFailsOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "classify_cache.json")
	if err := os.WriteFile(path, []byte("{{{"), 0o644); err != nil {
		t.Fatal(err)
	}

	c := LoadCache(dir, true)
	if c.Len() != 0 {
		t.Errorf("corrupt cache should load empty, got %d entries", c.Len())
	}
}

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	c := LoadCache(dir, true)
	c.Put("k", Result{ContentType: "product"}, "m")
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}

	if err := c.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if c.Len() != 0 {
		t.Error("cache should be empty after clear")
	}
	if _, err := os.Stat(filepath.Join(dir, "classify_cache.json")); !os.IsNotExist(err) {
		t.Error("cache file should be removed")
	}
}
