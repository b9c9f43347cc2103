package collect

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const summaryMaxLen = 300

// collectFeed fetches one RSS/Atom feed through the admission gate and
// returns up to quota entries within the freshness window. Entries whose
// URLs the pre-filter already knows are dropped before any further work.
func (c *Collector) collectFeed(ctx context.Context, feedURL, name, category string, quota int) ([]Item, int, error) {
	data, err := c.fetchBytes(ctx, feedURL)
	if err != nil {
		return nil, 0, err
	}

	feed, err := gofeed.NewParser().ParseString(string(data))
	if err != nil {
		return nil, 0, fmt.Errorf("parsing feed: %w", err)
	}

	if name == "" {
		name = extractSourceName(feedURL)
	}

	var items []Item
	prefiltered := 0
	for _, entry := range feed.Items {
		if len(items) >= quota {
			break
		}

		it, ok := parseFeedItem(entry, name, category)
		if !ok || !it.valid() {
			continue
		}
		if !c.withinWindow(it.PublishedAt) {
			continue
		}
		if c.prefilter != nil && c.prefilter.Seen(it.URL) {
			prefiltered++
			continue
		}
		items = append(items, it)
	}

	return items, prefiltered, nil
}

// collectSearch expands a query-templated feed endpoint and collects it like
// any other feed.
func (c *Collector) collectSearch(ctx context.Context, tmpl, query, name, category string, quota int) ([]Item, int, error) {
	endpoint := fmt.Sprintf(tmpl, url.QueryEscape(query))
	return c.collectFeed(ctx, endpoint, name, category, quota)
}

func parseFeedItem(entry *gofeed.Item, source, category string) (Item, bool) {
	itemURL := entry.Link
	if itemURL == "" {
		itemURL = entry.GUID
	}
	if itemURL == "" {
		return Item{}, false
	}

	title := strings.TrimSpace(entry.Title)
	if title == "" {
		return Item{}, false
	}

	var published string
	if entry.PublishedParsed != nil {
		published = entry.PublishedParsed.Format("2006-01-02")
	} else if entry.UpdatedParsed != nil {
		published = entry.UpdatedParsed.Format("2006-01-02")
	}

	summary := entry.Description
	if summary == "" {
		summary = entry.Content
	}

	return Item{
		URL:         itemURL,
		Title:       title,
		Summary:     clampSummary(summary, summaryMaxLen),
		Source:      source,
		Category:    category,
		PublishedAt: published,
	}, true
}

// withinWindow reports whether a published date falls inside the lookback
// window. Undated entries get the benefit of the doubt.
func (c *Collector) withinWindow(published string) bool {
	if published == "" {
		return true
	}
	pub, err := time.Parse("2006-01-02", published)
	if err != nil {
		return true
	}
	return !pub.Before(c.cutoff)
}

func extractSourceName(feedURL string) string {
	u, err := url.Parse(feedURL)
	if err != nil {
		return feedURL
	}
	host := strings.ToLower(u.Hostname())

	for _, prefix := range []string{"www.", "blog.", "blogs.", "rss.", "feeds.", "news."} {
		host = strings.TrimPrefix(host, prefix)
	}

	parts := strings.Split(host, ".")
	name := host
	if len(parts) >= 2 {
		name = parts[len(parts)-2]
	}
	if name == "" {
		return feedURL
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
