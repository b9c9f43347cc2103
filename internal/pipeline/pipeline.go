package pipeline

import (
	"context"
	"fmt"
	"log"
	"time"

	"aiscout/internal/classify"
	"aiscout/internal/collect"
	"aiscout/internal/config"
	"aiscout/internal/database"
	"aiscout/internal/dedup"
	"aiscout/internal/fetch"
	"aiscout/internal/history"
	"aiscout/internal/llm"
)

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run. Counts are always
// populated, even when every step came up empty, so the report never
// goes silent.
type Result struct {
	RunID       int64
	Steps       []StepResult
	TotalFound  int
	Prefiltered int
	NewItems    int
	Duplicates  int
	Stats       classify.Stats
	Failures    []collect.Failure
}

// Pipeline orchestrates the 4-step scan: collect, dedup, enrich, classify.
type Pipeline struct {
	cfg     *config.Config
	db      *database.DB
	dataDir string
	gateway *classify.Gateway
	cache   *classify.Cache
}

// New creates a pipeline, loading the response cache and wiring the
// classifier gateway from config.
func New(cfg *config.Config, db *database.DB, dataDir string) *Pipeline {
	cache := classify.LoadCache(dataDir, cfg.Classifier.CacheEnabled)

	var semantic *classify.LLMClassifier
	if provider := llm.CreateProvider(cfg.Classifier); provider != nil {
		semantic = classify.NewLLMClassifier(provider, cfg.Classifier.MaxTokens)
	}
	gateway := classify.NewGateway(semantic, cache, classify.NewFallbackState())

	return &Pipeline{
		cfg:     cfg,
		db:      db,
		dataDir: dataDir,
		gateway: gateway,
		cache:   cache,
	}
}

// Run executes the full scan. Partial results are kept: a step that comes
// back short does not abort the ones after it.
func (p *Pipeline) Run(ctx context.Context, daysBack int) *Result {
	r := &Result{}
	started := time.Now().UTC()

	hist := history.Load(p.dataDir, p.cfg.History)

	// Step 1: Collect
	log.Println("Step 1/4: Collecting items...")
	collected := p.runCollect(ctx, hist, daysBack, r)

	// Step 2: Deduplicate
	log.Println("Step 2/4: Deduplicating...")
	kept := p.runDedup(hist, collected, r)

	// Step 3: Enrich summaries
	log.Println("Step 3/4: Enriching summaries...")
	kept = p.runEnrich(kept, r)

	// Step 4: Classify and store
	log.Println("Step 4/4: Classifying...")
	p.runClassify(ctx, kept, started, r)

	if err := p.cache.Save(); err != nil {
		log.Printf("saving response cache failed (continuing): %v", err)
	}

	return r
}

func (p *Pipeline) runCollect(ctx context.Context, hist *history.Store, daysBack int, r *Result) []collect.Item {
	cctx, cancel := context.WithTimeout(ctx, p.cfg.Scheduler.TotalTimeout())
	defer cancel()

	prefilter := dedup.NewURLFilter(hist, p.cfg.Scheduler.PrefilterEnabled)
	collector := collect.NewCollector(p.cfg, prefilter, daysBack)
	result := collector.Collect(cctx)

	r.TotalFound = result.TotalFound
	r.Prefiltered = result.Prefiltered
	r.Failures = result.Failures
	r.Steps = append(r.Steps, StepResult{
		Name: "Collect",
		Summary: fmt.Sprintf("Found %d items (%d prefiltered, %d sources failed)",
			result.TotalFound, result.Prefiltered, len(result.Failures)),
	})
	return result.Items
}

func (p *Pipeline) runDedup(hist *history.Store, items []collect.Item, r *Result) []collect.Item {
	engine := dedup.NewEngine(hist, p.cfg.Dedup)

	var kept []collect.Item
	for _, item := range items {
		if engine.IsDuplicate(item.URL, item.Title) {
			r.Duplicates++
			continue
		}
		engine.Remember(item.URL, item.Title)
		hist.Add(item.URL, item.Title)
		kept = append(kept, item)
	}

	if err := hist.Save(); err != nil {
		log.Printf("saving history failed (continuing): %v", err)
	}

	r.Steps = append(r.Steps, StepResult{
		Name:    "Dedup",
		Summary: fmt.Sprintf("Kept %d items, dropped %d duplicates", len(kept), r.Duplicates),
	})
	return kept
}

func (p *Pipeline) runEnrich(items []collect.Item, r *Result) []collect.Item {
	fetcher := fetch.NewContentFetcher(p.cfg.Scheduler.RequestTimeout())
	enriched, result := fetcher.EnrichSummaries(items)
	r.Steps = append(r.Steps, StepResult{
		Name: "Enrich",
		Summary: fmt.Sprintf("Fetched %d summaries, %d skipped, %d failed",
			result.Fetched, result.Skipped, result.Failed),
	})
	return enriched
}

func (p *Pipeline) runClassify(ctx context.Context, items []collect.Item, started time.Time, r *Result) {
	run := &database.Run{StartedAt: started.Format(time.RFC3339)}
	runID, err := p.db.InsertRun(run)
	if err != nil {
		r.Steps = append(r.Steps, StepResult{Name: "Classify", Err: err})
		return
	}
	run.ID = runID
	r.RunID = runID

	for _, item := range items {
		result := p.gateway.Classify(ctx, classify.Input{
			URL:      item.URL,
			Title:    item.Title,
			Summary:  item.Summary,
			Source:   item.Source,
			Category: item.Category,
		})

		id, err := p.db.InsertItem(&database.Item{
			URL:            item.URL,
			Title:          item.Title,
			Summary:        item.Summary,
			Source:         item.Source,
			Category:       item.Category,
			PublishedAt:    item.PublishedAt,
			ContentType:    result.ContentType,
			TechCategories: result.TechCategories,
			Confidence:     result.Confidence,
			Reasoning:      result.Reasoning,
			Via:            result.Via,
			RunID:          runID,
		})
		if err != nil {
			log.Printf("storing %s failed: %v", item.URL, err)
			continue
		}
		if id > 0 {
			r.NewItems++
		}
	}

	r.Stats = p.gateway.Stats()

	run.FinishedAt = time.Now().UTC().Format(time.RFC3339)
	run.TotalFound = r.TotalFound
	run.NewItems = r.NewItems
	run.Duplicates = r.Duplicates
	run.LLMCount = r.Stats.LLM
	run.FallbackCount = r.Stats.Fallback
	run.CacheHits = r.Stats.Cached
	run.FailedSources = len(r.Failures)
	if err := p.db.UpdateRun(run); err != nil {
		log.Printf("updating run record failed: %v", err)
	}

	r.Steps = append(r.Steps, StepResult{
		Name: "Classify",
		Summary: fmt.Sprintf("Stored %d items (%d llm, %d fallback, %d cached)",
			r.NewItems, r.Stats.LLM, r.Stats.Fallback, r.Stats.Cached),
	})
}
