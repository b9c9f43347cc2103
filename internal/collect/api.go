package collect

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	hnAPIBase      = "https://hacker-news.firebaseio.com/v0"
	githubAPIBase  = "https://api.github.com/search/repositories"
	hfAPIBase      = "https://huggingface.co/api/models"
	hnScanMultiple = 4
)

var aiKeywords = []string{
	"ai", "artificial intelligence", "machine learning", "deep learning",
	"neural network", "llm", "gpt", "transformer", "chatgpt", "claude",
	"gemini", "diffusion", "agent",
}

// aiRelated is the keyword screen applied to general-audience sources like
// Hacker News that carry mostly off-topic items.
func aiRelated(title, summary string) bool {
	text := strings.ToLower(title + " " + summary)
	for _, kw := range aiKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// collectHackerNews pulls the new-stories ID list, then fetches story
// details until the quota is filled. Detail fetches run concurrently but the
// per-host gate keeps Firebase traffic bounded.
func (c *Collector) collectHackerNews(ctx context.Context, quota, minScore int) ([]Item, error) {
	var ids []int64
	if err := c.fetchJSON(ctx, hnAPIBase+"/newstories.json", &ids); err != nil {
		return nil, err
	}
	if len(ids) > quota*hnScanMultiple {
		ids = ids[:quota*hnScanMultiple]
	}

	type hnStory struct {
		Title string `json:"title"`
		URL   string `json:"url"`
		Score int    `json:"score"`
		Type  string `json:"type"`
		Time  int64  `json:"time"`
	}

	stories := make([]*hnStory, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxPerHost)
	for i, id := range ids {
		g.Go(func() error {
			var story hnStory
			if err := c.fetchJSON(gctx, fmt.Sprintf("%s/item/%d.json", hnAPIBase, id), &story); err != nil {
				return nil // one dead story is not a source failure
			}
			stories[i] = &story
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var items []Item
	for _, story := range stories {
		if len(items) >= quota {
			break
		}
		if story == nil || story.Type != "story" || story.URL == "" || story.Score < minScore {
			continue
		}
		if !aiRelated(story.Title, "") {
			continue
		}
		it := Item{
			URL:         story.URL,
			Title:       strings.TrimSpace(story.Title),
			Source:      "Hacker News",
			Category:    "community",
			PublishedAt: time.Unix(story.Time, 0).Format("2006-01-02"),
		}
		if it.valid() {
			items = append(items, it)
		}
	}
	return items, nil
}

// collectGitHub searches recently created repositories matching the
// configured query, sorted by stars.
func (c *Collector) collectGitHub(ctx context.Context, query string, quota int) ([]Item, error) {
	since := c.cutoff.Format("2006-01-02")
	q := url.QueryEscape(fmt.Sprintf("%s created:>%s", query, since))
	endpoint := fmt.Sprintf("%s?q=%s&sort=stars&order=desc&per_page=%d", githubAPIBase, q, quota)

	var resp struct {
		Items []struct {
			FullName    string `json:"full_name"`
			HTMLURL     string `json:"html_url"`
			Description string `json:"description"`
			CreatedAt   string `json:"created_at"`
		} `json:"items"`
	}
	if err := c.fetchJSON(ctx, endpoint, &resp); err != nil {
		return nil, err
	}

	var items []Item
	for _, repo := range resp.Items {
		if len(items) >= quota {
			break
		}
		published := ""
		if ts, err := time.Parse(time.RFC3339, repo.CreatedAt); err == nil {
			published = ts.Format("2006-01-02")
		}
		it := Item{
			URL:         repo.HTMLURL,
			Title:       "GitHub: " + repo.FullName,
			Summary:     clampSummary(repo.Description, summaryMaxLen),
			Source:      "GitHub Trending",
			Category:    "developer",
			PublishedAt: published,
		}
		if it.valid() {
			items = append(items, it)
		}
	}
	return items, nil
}

// collectHuggingFace lists the most recently modified models.
func (c *Collector) collectHuggingFace(ctx context.Context, quota int) ([]Item, error) {
	endpoint := fmt.Sprintf("%s?sort=lastModified&direction=-1&limit=%d", hfAPIBase, quota)

	var models []struct {
		ModelID      string `json:"modelId"`
		PipelineTag  string `json:"pipeline_tag"`
		LastModified string `json:"lastModified"`
	}
	if err := c.fetchJSON(ctx, endpoint, &models); err != nil {
		return nil, err
	}

	var items []Item
	for _, m := range models {
		if len(items) >= quota {
			break
		}
		if m.ModelID == "" {
			continue
		}
		published := ""
		if ts, err := time.Parse(time.RFC3339, m.LastModified); err == nil {
			published = ts.Format("2006-01-02")
		}
		summary := ""
		if m.PipelineTag != "" {
			summary = "New model release: " + m.PipelineTag
		}
		it := Item{
			URL:         "https://huggingface.co/" + m.ModelID,
			Title:       "HuggingFace: " + m.ModelID,
			Summary:     summary,
			Source:      "Hugging Face",
			Category:    "developer",
			PublishedAt: published,
		}
		if it.valid() {
			items = append(items, it)
		}
	}
	return items, nil
}
