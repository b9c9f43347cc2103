package collect

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"aiscout/internal/config"
)

func rssFeed(n int) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>Test Feed</title>`)
	now := time.Now()
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, `<item>
			<title>Feed story number %d with enough words</title>
			<link>https://news.example.com/story/%d</link>
			<description>Summary of story %d</description>
			<pubDate>%s</pubDate>
		</item>`, i, i, i, now.Format(time.RFC1123Z))
	}
	b.WriteString("</channel></rss>")
	return b.String()
}

func testConfig(feeds ...config.Feed) *config.Config {
	return &config.Config{
		Scheduler: config.Scheduler{
			MaxConcurrent:     20,
			MaxPerHost:        3,
			RequestTimeoutSec: 5,
			TotalTimeoutSec:   30,
			MaxRetries:        0,
			RetryDelayMS:      1,
		},
		Sources: config.Sources{Feeds: feeds},
	}
}

func TestCollectFromFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(5))
	}))
	defer srv.Close()

	cfg := testConfig(config.Feed{URL: srv.URL, Name: "Test", Category: "news", Quota: 10})
	c := NewCollector(cfg, nil, 1)
	result := c.Collect(context.Background())

	if len(result.Items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(result.Items))
	}
	if result.TotalFound != 5 {
		t.Errorf("expected total found 5, got %d", result.TotalFound)
	}
	if result.Sources["Test"] != 5 {
		t.Errorf("expected source count 5, got %d", result.Sources["Test"])
	}
	for _, item := range result.Items {
		if item.Category != "news" || item.Source != "Test" {
			t.Errorf("item missing source metadata: %+v", item)
		}
		if item.PublishedAt == "" {
			t.Errorf("item missing published date: %+v", item)
		}
	}
}

func TestCollectRespectsQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(20))
	}))
	defer srv.Close()

	cfg := testConfig(config.Feed{URL: srv.URL, Name: "Test", Quota: 3})
	c := NewCollector(cfg, nil, 1)
	result := c.Collect(context.Background())

	if len(result.Items) != 3 {
		t.Errorf("quota 3 should cap items, got %d", len(result.Items))
	}
}

// seenSet marks a fixed set of URLs as already known.
type seenSet map[string]struct{}

func (s seenSet) Seen(url string) bool {
	_, ok := s[url]
	return ok
}

func TestCollectPrefilterCountsTowardTotal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(10))
	}))
	defer srv.Close()

	seen := seenSet{}
	for i := 0; i < 3; i++ {
		seen[fmt.Sprintf("https://news.example.com/story/%d", i)] = struct{}{}
	}

	cfg := testConfig(config.Feed{URL: srv.URL, Name: "Test", Quota: 20})
	c := NewCollector(cfg, seen, 1)
	result := c.Collect(context.Background())

	if len(result.Items) != 7 {
		t.Errorf("expected 7 fresh items, got %d", len(result.Items))
	}
	if result.Prefiltered != 3 {
		t.Errorf("expected 3 prefiltered, got %d", result.Prefiltered)
	}
	if result.TotalFound != 10 {
		t.Errorf("prefiltered items still count toward total, got %d", result.TotalFound)
	}
}

func TestCollectIsolatesFailedSource(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(4))
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer bad.Close()

	cfg := testConfig(
		config.Feed{URL: good.URL, Name: "Good", Category: "news"},
		config.Feed{URL: bad.URL, Name: "Bad", Category: "news"},
	)
	c := NewCollector(cfg, nil, 1)
	result := c.Collect(context.Background())

	if len(result.Items) != 4 {
		t.Errorf("good source should still yield items, got %d", len(result.Items))
	}
	if len(result.Failures) != 1 {
		t.Fatalf("expected exactly one ledger entry, got %d", len(result.Failures))
	}
	f := result.Failures[0]
	if f.Source != "Bad" {
		t.Errorf("ledger should name the failed source, got %q", f.Source)
	}
	if f.Err == "" {
		t.Error("ledger entry should carry the error text")
	}
}

func TestCollectRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "try again", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, rssFeed(2))
	}))
	defer srv.Close()

	cfg := testConfig(config.Feed{URL: srv.URL, Name: "Flaky"})
	cfg.Scheduler.MaxRetries = 2
	c := NewCollector(cfg, nil, 1)
	result := c.Collect(context.Background())

	if len(result.Items) != 2 {
		t.Errorf("transient failure should be retried, got %d items", len(result.Items))
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 attempts, got %d", calls.Load())
	}
}

func TestCollectDoesNotRetryPermanentFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	cfg := testConfig(config.Feed{URL: srv.URL, Name: "Denied"})
	cfg.Scheduler.MaxRetries = 3
	c := NewCollector(cfg, nil, 1)
	result := c.Collect(context.Background())

	if calls.Load() != 1 {
		t.Errorf("4xx must not be retried, got %d attempts", calls.Load())
	}
	if len(result.Failures) != 1 {
		t.Errorf("expected one ledger entry, got %d", len(result.Failures))
	}
}

func TestCollectPerHostBound(t *testing.T) {
	var mu sync.Mutex
	inflight, peak := 0, 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		inflight++
		if inflight > peak {
			peak = inflight
		}
		mu.Unlock()

		time.Sleep(30 * time.Millisecond)

		mu.Lock()
		inflight--
		mu.Unlock()
		fmt.Fprint(w, rssFeed(1))
	}))
	defer srv.Close()

	var feeds []config.Feed
	for i := 0; i < 8; i++ {
		feeds = append(feeds, config.Feed{URL: srv.URL + fmt.Sprintf("/feed%d", i), Name: fmt.Sprintf("F%d", i)})
	}
	cfg := testConfig(feeds...)
	cfg.Scheduler.MaxPerHost = 2

	c := NewCollector(cfg, nil, 1)
	c.Collect(context.Background())

	if peak > 2 {
		t.Errorf("per-host bound violated: peak %d in-flight requests", peak)
	}
}

func TestCollectDeadlineKeepsPartialResults(t *testing.T) {
	fast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, rssFeed(3))
	}))
	defer fast.Close()
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		fmt.Fprint(w, rssFeed(3))
	}))
	defer slow.Close()

	cfg := testConfig(
		config.Feed{URL: fast.URL, Name: "Fast"},
		config.Feed{URL: slow.URL, Name: "Slow"},
	)
	c := NewCollector(cfg, nil, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	result := c.Collect(ctx)

	if len(result.Items) != 3 {
		t.Errorf("fast source results should survive the deadline, got %d", len(result.Items))
	}
	if len(result.Failures) != 1 {
		t.Errorf("slow source should land in the ledger, got %d entries", len(result.Failures))
	}
}

func TestItemValidation(t *testing.T) {
	if (Item{URL: "https://x.com", Title: "ok"}).valid() {
		t.Error("short title should be rejected")
	}
	if (Item{Title: "A perfectly fine long title"}).valid() {
		t.Error("missing URL should be rejected")
	}
	if !(Item{URL: "https://x.com", Title: "A perfectly fine long title"}).valid() {
		t.Error("valid item rejected")
	}
}

func TestFailureTruncation(t *testing.T) {
	longSource := strings.Repeat("s", 200)
	f := newFailure(longSource, "news", fmt.Errorf("%s", strings.Repeat("e", 300)))
	if len(f.Source) != 80 {
		t.Errorf("source should be truncated to 80, got %d", len(f.Source))
	}
	if len(f.Err) != 100 {
		t.Errorf("error should be truncated to 100, got %d", len(f.Err))
	}
}

func TestStripHTML(t *testing.T) {
	in := `<p>Hello &amp; welcome to <b>AI</b> news</p>`
	want := "Hello & welcome to AI news"
	if got := stripHTML(in); got != want {
		t.Errorf("stripHTML = %q, want %q", got, want)
	}
}
