// Package fetch enriches accepted items that arrived without a usable
// summary by downloading the page and extracting readable text. Enrichment
// is best-effort: failures are logged and the item keeps whatever it had.
package fetch

import (
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"

	"aiscout/internal/collect"
)

const (
	summaryMaxLen  = 300
	minExtractable = 100
)

// Result holds the counters of an enrichment pass.
type Result struct {
	Fetched int
	Skipped int
	Failed  int
}

// ContentFetcher downloads article pages and extracts text via readability.
type ContentFetcher struct {
	client *http.Client
}

// NewContentFetcher creates a content fetcher with the given per-request
// timeout.
func NewContentFetcher(timeout time.Duration) *ContentFetcher {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &ContentFetcher{
		client: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}
}

// EnrichSummaries fills in empty summaries in place. A domain that fails
// once is skipped for the rest of the pass so a dead site costs one request,
// not one per item.
func (f *ContentFetcher) EnrichSummaries(items []collect.Item) ([]collect.Item, *Result) {
	result := &Result{}
	failedDomains := make(map[string]struct{})

	for i := range items {
		if items[i].Summary != "" {
			result.Skipped++
			continue
		}

		domain := ""
		if u, err := url.Parse(items[i].URL); err == nil {
			domain = strings.ToLower(u.Host)
		}
		if _, failed := failedDomains[domain]; failed {
			result.Failed++
			continue
		}

		text, httpErr := f.extractText(items[i].URL)
		if httpErr != nil {
			result.Failed++
			if domain != "" {
				failedDomains[domain] = struct{}{}
			}
			log.Printf("Content fetch error for %s, skipping remaining from %s", items[i].URL, domain)
			continue
		}
		if text == "" {
			result.Failed++
			continue
		}

		if len(text) > summaryMaxLen {
			text = text[:summaryMaxLen]
		}
		items[i].Summary = text
		result.Fetched++
	}

	log.Printf("Content enrichment: %d fetched, %d already had summaries, %d failed",
		result.Fetched, result.Skipped, result.Failed)
	return items, result
}

// extractText returns readable page text, or "" when the page yields nothing
// extractable. Only HTTP-level failures come back as errors; they trigger
// the failed-domain short circuit.
func (f *ContentFetcher) extractText(articleURL string) (string, error) {
	req, err := http.NewRequest("GET", articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "aiscout/1.0 (news aggregator)")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &statusError{code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil
	}

	parsedURL, _ := url.Parse(articleURL)
	article, err := readability.FromReader(strings.NewReader(string(body)), parsedURL)
	if err != nil {
		return "", nil
	}

	text := strings.TrimSpace(article.TextContent)
	if len(text) > minExtractable {
		return strings.Join(strings.Fields(text), " "), nil
	}
	return "", nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return http.StatusText(e.code)
}
