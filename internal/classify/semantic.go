package classify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"aiscout/internal/llm"
)

const classifyPromptTmpl = `You are labeling AI industry news items.

Classify this item:
Title: %s
Summary: %s
Source: %s

Content type must be exactly one of: research, product, market, developer, leader, community.
Tech categories is a list drawn only from: NLP, Computer Vision, Reinforcement Learning, Generative AI, MLOps, AI Ethics. Empty is fine.

Respond with only a JSON object:
{"content_type": "...", "tech_categories": [...], "confidence": 0.0, "reasoning": "one sentence"}`

// LLMClassifier asks a model provider to label an item and validates the
// response against the known taxonomy.
type LLMClassifier struct {
	provider  llm.Provider
	maxTokens int
}

func NewLLMClassifier(provider llm.Provider, maxTokens int) *LLMClassifier {
	return &LLMClassifier{provider: provider, maxTokens: maxTokens}
}

// Model reports the underlying provider identity, used in cache keys.
func (c *LLMClassifier) Model() string { return c.provider.Name() }

func (c *LLMClassifier) Classify(ctx context.Context, in Input) (Result, error) {
	summary := in.Summary
	if len(summary) > 500 {
		summary = summary[:500]
	}
	prompt := fmt.Sprintf(classifyPromptTmpl, in.Title, summary, in.Source)

	text, err := c.provider.Generate(ctx, prompt, c.maxTokens)
	if err != nil {
		return Result{}, err
	}

	parsed := llm.ParseJSONResponse(text)
	if parsed == nil {
		return Result{}, errMalformed
	}
	return resultFromJSON(parsed)
}

// resultFromJSON validates and normalizes a parsed model response. Unknown
// content types fall back to the default rather than failing the call;
// a missing content_type field is treated as malformed.
func resultFromJSON(m map[string]any) (Result, error) {
	ct, ok := m["content_type"].(string)
	if !ok || ct == "" {
		return Result{}, errMalformed
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	if _, known := contentTypes[ct]; !known {
		ct = defaultContentType
	}

	var cats []string
	if raw, ok := m["tech_categories"].([]any); ok {
		for _, v := range raw {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if canonical, known := canonicalTechCategory(s); known {
				cats = append(cats, canonical)
			}
		}
	}
	sort.Strings(cats)
	cats = dedupeStrings(cats)

	confidence := 0.5
	if v, ok := m["confidence"].(float64); ok {
		confidence = v
	}
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	reasoning, _ := m["reasoning"].(string)
	if len(reasoning) > 200 {
		reasoning = reasoning[:200]
	}

	return Result{
		ContentType:    ct,
		TechCategories: cats,
		Confidence:     confidence,
		Reasoning:      reasoning,
	}, nil
}

func canonicalTechCategory(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for c := range techKeywords {
		if strings.EqualFold(c, s) {
			return c, true
		}
	}
	return "", false
}

func dedupeStrings(in []string) []string {
	out := in[:0]
	var prev string
	for i, s := range in {
		if i > 0 && s == prev {
			continue
		}
		out = append(out, s)
		prev = s
	}
	return out
}
