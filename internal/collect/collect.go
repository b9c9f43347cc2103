// Package collect is the fetch scheduler: it drains a catalog of feed,
// search, and API sources under a global and per-host concurrency bound,
// with per-request timeouts, bounded retry, and per-source failure
// isolation. One dead source never blocks the batch.
package collect

import (
	"context"
	"log"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"aiscout/internal/config"
)

// Prefilter is the URL-only pre-filter consulted before detail fetches.
// It is an optimization hook: a nil Prefilter only changes request volume,
// never results.
type Prefilter interface {
	Seen(url string) bool
}

const defaultQuota = 10

// Collector schedules fetches across all configured sources.
type Collector struct {
	cfg       config.Scheduler
	sources   config.Sources
	prefilter Prefilter
	limiter   *hostLimiter
	client    *http.Client
	cutoff    time.Time
}

// NewCollector creates a scheduler over the configured source catalog.
// daysBack bounds the freshness window for dated entries.
func NewCollector(cfg *config.Config, prefilter Prefilter, daysBack int) *Collector {
	if daysBack <= 0 {
		daysBack = 1
	}
	return &Collector{
		cfg:       cfg.Scheduler,
		sources:   cfg.Sources,
		prefilter: prefilter,
		limiter:   newHostLimiter(cfg.Scheduler.MaxConcurrent, cfg.Scheduler.MaxPerHost),
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		cutoff: time.Now().AddDate(0, 0, -daysBack),
	}
}

type sourceTask struct {
	name     string
	category string
	run      func(ctx context.Context) ([]Item, int, error)
}

// Collect runs every source task to completion or to the batch deadline the
// caller put on ctx. Items from completed sources are kept even when the
// deadline cuts the rest short; failures land in the ledger, never panic or
// cancel siblings.
func (c *Collector) Collect(ctx context.Context) *Result {
	tasks := c.buildTasks()
	r := &Result{Sources: make(map[string]int)}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(c.cfg.MaxConcurrent)

	for _, task := range tasks {
		g.Go(func() error {
			items, prefiltered, err := task.run(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.Failures = append(r.Failures, newFailure(task.name, task.category, err))
				log.Printf("Source failed [%s] %s: %v", task.category, task.name, err)
				return nil
			}
			r.TotalFound += len(items) + prefiltered
			r.Prefiltered += prefiltered
			r.Items = append(r.Items, items...)
			r.Sources[task.name] += len(items)
			return nil
		})
	}
	g.Wait()

	log.Printf("Collection complete: %d found, %d kept, %d pre-filtered, %d sources failed",
		r.TotalFound, len(r.Items), r.Prefiltered, len(r.Failures))
	return r
}

func (c *Collector) buildTasks() []sourceTask {
	var tasks []sourceTask

	for _, f := range c.sources.Feeds {
		quota := f.Quota
		if quota <= 0 {
			quota = defaultQuota
		}
		name := f.Name
		if name == "" {
			name = extractSourceName(f.URL)
		}
		feedURL, category := f.URL, f.Category
		tasks = append(tasks, sourceTask{
			name:     name,
			category: category,
			run: func(ctx context.Context) ([]Item, int, error) {
				return c.collectFeed(ctx, feedURL, name, category, quota)
			},
		})
	}

	for _, s := range c.sources.Searches {
		quota := s.Quota
		if quota <= 0 {
			quota = defaultQuota
		}
		tmpl, query, name, category := s.URLTemplate, s.Query, s.Name, s.Category
		tasks = append(tasks, sourceTask{
			name:     name,
			category: category,
			run: func(ctx context.Context) ([]Item, int, error) {
				return c.collectSearch(ctx, tmpl, query, name, category, quota)
			},
		})
	}

	if api := c.sources.APIs.HackerNews; api.Enabled {
		quota, minScore := api.Quota, api.MinScore
		if quota <= 0 {
			quota = defaultQuota
		}
		tasks = append(tasks, sourceTask{
			name:     "Hacker News",
			category: "community",
			run: func(ctx context.Context) ([]Item, int, error) {
				items, err := c.collectHackerNews(ctx, quota, minScore)
				return items, 0, err
			},
		})
	}

	if api := c.sources.APIs.GitHub; api.Enabled {
		quota, query := api.Quota, api.Query
		if quota <= 0 {
			quota = defaultQuota
		}
		if query == "" {
			query = "artificial-intelligence"
		}
		tasks = append(tasks, sourceTask{
			name:     "GitHub Trending",
			category: "developer",
			run: func(ctx context.Context) ([]Item, int, error) {
				items, err := c.collectGitHub(ctx, query, quota)
				return items, 0, err
			},
		})
	}

	if api := c.sources.APIs.HuggingFace; api.Enabled {
		quota := api.Quota
		if quota <= 0 {
			quota = defaultQuota
		}
		tasks = append(tasks, sourceTask{
			name:     "Hugging Face",
			category: "developer",
			run: func(ctx context.Context) ([]Item, int, error) {
				items, err := c.collectHuggingFace(ctx, quota)
				return items, 0, err
			},
		})
	}

	return tasks
}
