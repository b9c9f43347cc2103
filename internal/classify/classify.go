// Package classify is the reliability layer around the semantic classifier:
// a content+model keyed response cache, an error-taxonomy-driven retry
// policy, and a circuit breaker that degrades to a rule-based classifier.
// Classify never fails past its boundary; every item gets a usable result.
package classify

import "context"

// Via values record which path produced a classification.
const (
	ViaLLM      = "llm"
	ViaFallback = "fallback"
	ViaCache    = "cache"
)

// Known content types. The semantic classifier is constrained to these; the
// rule classifier only produces them.
var contentTypes = map[string]struct{}{
	"research":  {},
	"product":   {},
	"market":    {},
	"developer": {},
	"leader":    {},
	"community": {},
}

const defaultContentType = "news"

// Input is the classifier view of a candidate item.
type Input struct {
	URL      string
	Title    string
	Summary  string
	Source   string
	Category string
}

// Result is one classification outcome. It is created once per unique
// (content, model) pair and never mutated afterwards.
type Result struct {
	ContentType    string
	TechCategories []string
	Confidence     float64
	Reasoning      string
	Via            string
}

// Classifier is the capability interface both the semantic and the
// rule-based implementations satisfy, so the gateway can switch between them
// without reflection.
type Classifier interface {
	Classify(ctx context.Context, in Input) (Result, error)
}
