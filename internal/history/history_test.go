package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"aiscout/internal/config"
	"aiscout/internal/dedup"
)

func testHistoryConfig() config.History {
	return config.History{MaxSize: 100, TTLDays: 7}
}

func TestLoadMissingSnapshot(t *testing.T) {
	s := Load(t.TempDir(), testHistoryConfig())
	urls, titles := s.Len()
	if urls != 0 || titles != 0 {
		t.Errorf("missing snapshot should yield empty store, got %d/%d", urls, titles)
	}
}

func TestLoadCorruptSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := Load(dir, testHistoryConfig())
	urls, titles := s.Len()
	if urls != 0 || titles != 0 {
		t.Errorf("corrupt snapshot should yield empty store, got %d/%d", urls, titles)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()

	s := Load(dir, testHistoryConfig())
	s.Add("https://example.com/a", "First AI Headline About Things")
	s.Add("https://example.com/b", "Second AI Headline About Stuff")
	if err := s.Save(); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded := Load(dir, testHistoryConfig())
	if !reloaded.ContainsURL(dedup.NormalizeURL("https://example.com/a")) {
		t.Error("URL should survive a save/reload cycle")
	}
	if !reloaded.ContainsTitle("First AI Headline About Things") {
		t.Error("title should survive a save/reload cycle")
	}
	if !reloaded.ContainsNormTitle(dedup.NormalizeTitle("Second AI Headline About Stuff")) {
		t.Error("normalized title should survive a save/reload cycle")
	}
}

func TestLoadExpiredSnapshot(t *testing.T) {
	dir := t.TempDir()
	snap := map[string]any{
		"urls":              []string{"https://example.com/old"},
		"titles":            []string{"Old title"},
		"normalized_titles": []string{"old title"},
		"last_updated":      time.Now().Add(-8 * 24 * time.Hour).Format(time.RFC3339),
	}
	data, _ := json.Marshal(snap)
	if err := os.WriteFile(filepath.Join(dir, "history.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	s := Load(dir, testHistoryConfig())
	urls, titles := s.Len()
	if urls != 0 || titles != 0 {
		t.Errorf("expired snapshot should be discarded wholesale, got %d/%d", urls, titles)
	}
}

func TestLoadRebuildsNormalizedTitles(t *testing.T) {
	dir := t.TempDir()
	snap := map[string]any{
		"urls":         []string{},
		"titles":       []string{"OpenAI Releases GPT-5 - The Verge"},
		"last_updated": time.Now().Format(time.RFC3339),
	}
	data, _ := json.Marshal(snap)
	if err := os.WriteFile(filepath.Join(dir, "history.json"), data, 0o644); err != nil {
		t.Fatal(err)
	}

	s := Load(dir, testHistoryConfig())
	if !s.ContainsNormTitle(dedup.NormalizeTitle("OpenAI Releases GPT-5 - The Verge")) {
		t.Error("normalized titles should be rebuilt from titles for old snapshots")
	}
}

func TestCapacityEviction(t *testing.T) {
	cfg := config.History{MaxSize: 50, TTLDays: 7}
	s := Load(t.TempDir(), cfg)

	for i := 0; i < 120; i++ {
		s.Add(fmt.Sprintf("https://example.com/%d", i), fmt.Sprintf("Unique headline number %d here", i))
	}

	urls, titles := s.Len()
	if urls > 50 {
		t.Errorf("URL index exceeded max size: %d", urls)
	}
	if titles > 50 {
		t.Errorf("title index exceeded max size: %d", titles)
	}

	// The newest entry always survives eviction.
	if !s.ContainsURL(dedup.NormalizeURL("https://example.com/119")) {
		t.Error("newest URL should survive eviction")
	}
	// The oldest entries are the ones evicted.
	if s.ContainsURL(dedup.NormalizeURL("https://example.com/0")) {
		t.Error("oldest URL should have been evicted")
	}
}

func TestRecentNormTitlesOrder(t *testing.T) {
	s := Load(t.TempDir(), testHistoryConfig())
	s.Add("https://a.com/1", "Alpha headline about robots today")
	s.Add("https://a.com/2", "Beta headline about models today")
	s.Add("https://a.com/3", "Gamma headline about chips today")

	recent := s.RecentNormTitles(2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent titles, got %d", len(recent))
	}
	if recent[0] != dedup.NormalizeTitle("Beta headline about models today") {
		t.Errorf("expected beta first, got %q", recent[0])
	}
	if recent[1] != dedup.NormalizeTitle("Gamma headline about chips today") {
		t.Errorf("expected gamma last, got %q", recent[1])
	}
}

func TestClear(t *testing.T) {
	dir := t.TempDir()
	s := Load(dir, testHistoryConfig())
	s.Add("https://example.com/a", "Some headline worth remembering ok")
	if err := s.Save(); err != nil {
		t.Fatal(err)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	urls, titles := s.Len()
	if urls != 0 || titles != 0 {
		t.Errorf("store should be empty after clear, got %d/%d", urls, titles)
	}
	if _, err := os.Stat(filepath.Join(dir, "history.json")); !os.IsNotExist(err) {
		t.Error("snapshot file should be removed")
	}
}
