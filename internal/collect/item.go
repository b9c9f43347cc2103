package collect

import "strings"

// Item is a candidate content item produced by the scheduler. It has no
// identity beyond its fields until the dedup pass; PublishedAt is
// YYYY-MM-DD or empty when the source did not say.
type Item struct {
	URL         string
	Title       string
	Summary     string
	Source      string
	Category    string
	PublishedAt string
}

// valid is the scheduler-boundary check: items from ragged upstream payloads
// must carry a URL and a non-trivial title before entering the pipeline.
func (it Item) valid() bool {
	return it.URL != "" && len(strings.TrimSpace(it.Title)) > 10
}

// Failure is one failure-ledger entry. Sources and errors are truncated so
// a single hostile payload cannot bloat the run report.
type Failure struct {
	Source   string
	Category string
	Err      string
}

func newFailure(source, category string, err error) Failure {
	msg := err.Error()
	if len(source) > 80 {
		source = source[:80]
	}
	if len(msg) > 100 {
		msg = msg[:100]
	}
	return Failure{Source: source, Category: category, Err: msg}
}

// Result holds the output of one collection batch. Items is unordered;
// consumers must not assume source or arrival order.
type Result struct {
	Items       []Item
	Failures    []Failure
	TotalFound  int
	Prefiltered int
	Sources     map[string]int
}

func stripHTML(text string) string {
	var result strings.Builder
	inTag := false
	for _, r := range text {
		if r == '<' {
			inTag = true
			result.WriteRune(' ')
			continue
		}
		if r == '>' {
			inTag = false
			continue
		}
		if !inTag {
			result.WriteRune(r)
		}
	}

	s := result.String()
	s = strings.ReplaceAll(s, "&nbsp;", " ")
	s = strings.ReplaceAll(s, "&amp;", "&")
	s = strings.ReplaceAll(s, "&lt;", "<")
	s = strings.ReplaceAll(s, "&gt;", ">")
	s = strings.ReplaceAll(s, "&quot;", `"`)
	s = strings.ReplaceAll(s, "&#39;", "'")

	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

// clampSummary strips markup and bounds summaries to keep item payloads and
// classification prompts small.
func clampSummary(text string, max int) string {
	s := stripHTML(text)
	if len(s) > max {
		s = s[:max]
	}
	return s
}
