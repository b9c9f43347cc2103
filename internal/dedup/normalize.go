package dedup

import (
	"net/url"
	"regexp"
	"strings"
)

// trackingParams are query parameters stripped during URL normalization.
// They vary per referrer and would defeat exact-match deduplication.
var trackingParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_content":  {},
	"utm_term":     {},
	"ref":          {},
	"source":       {},
	"fbclid":       {},
	"gclid":        {},
	"ocid":         {},
}

// NormalizeURL canonicalizes a URL for exact matching: lowercased scheme and
// host, no trailing slash, tracking parameters removed.
func NormalizeURL(raw string) string {
	if raw == "" {
		return ""
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Path = strings.TrimRight(u.Path, "/")
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if _, tracking := trackingParams[strings.ToLower(key)]; tracking {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}

	return u.String()
}

var (
	sourceSuffixRe = regexp.MustCompile(`\s*[-|\x{2014}]\s*[A-Za-z][A-Za-z\s&.']+$`)
	punctRe        = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
)

const maxNormTitleLen = 60

// NormalizeTitle canonicalizes a title for matching: the trailing
// " - Publisher" style suffix is removed, the rest is lowercased, stripped of
// punctuation, whitespace-collapsed, and truncated to 60 characters so that
// feed-side truncation differences do not break matching.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}

	t := sourceSuffixRe.ReplaceAllString(title, "")
	t = strings.ToLower(t)
	t = punctRe.ReplaceAllString(t, " ")
	t = strings.Join(strings.Fields(t), " ")

	if len(t) > maxNormTitleLen {
		t = strings.TrimSpace(t[:maxNormTitleLen])
	}
	return t
}

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		the for and not but was were been being have has had did will would
		could should may might that this these those with from into through
		during before after above below between says said predicts predicted
		tells told according thanks about over under again further then once
		here there when where why how all each every both few more most other
		some such only own same than too very just also now new first last
		long great little make can like back even well way our out its are`) {
		stopwords[w] = struct{}{}
	}
}

// Keywords extracts the significant tokens of a title: normalized words of
// at least three characters that are not stopwords.
func Keywords(title string) map[string]struct{} {
	kw := make(map[string]struct{})
	for _, w := range strings.Fields(NormalizeTitle(title)) {
		if len(w) < 3 {
			continue
		}
		if _, stop := stopwords[w]; stop {
			continue
		}
		kw[w] = struct{}{}
	}
	return kw
}
