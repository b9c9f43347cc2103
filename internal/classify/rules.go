package classify

import (
	"context"
	"sort"
	"strings"
)

// typeKeywords score an item toward a content type. Title hits count double
// a summary hit.
var typeKeywords = map[string][]string{
	"research": {
		"paper", "study", "research", "arxiv", "benchmark", "dataset",
		"state-of-the-art", "sota", "preprint", "experiment", "findings",
	},
	"product": {
		"launch", "launches", "release", "releases", "announces", "unveils",
		"introduces", "available", "update", "version", "feature", "pricing",
	},
	"market": {
		"funding", "raises", "valuation", "acquisition", "acquires", "ipo",
		"revenue", "investment", "investor", "billion", "million", "startup",
	},
	"developer": {
		"api", "sdk", "open source", "open-source", "github", "library",
		"framework", "tutorial", "how to", "guide", "cli", "repository",
	},
	"leader": {
		"ceo", "founder", "interview", "opinion", "predicts", "says",
		"warns", "altman", "hassabis", "lecun", "hinton", "musk",
	},
	"community": {
		"discussion", "debate", "reddit", "hacker news", "community",
		"controversy", "reaction", "thread", "viral", "petition",
	},
}

var techKeywords = map[string][]string{
	"NLP": {
		"language model", "llm", "nlp", "chatbot", "gpt", "translation",
		"text generation", "transformer", "token",
	},
	"Computer Vision": {
		"computer vision", "image recognition", "object detection",
		"image generation", "diffusion", "video", "ocr", "segmentation",
	},
	"Reinforcement Learning": {
		"reinforcement learning", "agent", "reward", "self-play",
		"robotics", "policy",
	},
	"Generative AI": {
		"generative", "genai", "text-to-image", "text-to-video", "diffusion",
		"stable diffusion", "midjourney", "dall-e", "synthesis",
	},
	"MLOps": {
		"mlops", "deployment", "inference", "serving", "pipeline", "gpu",
		"training cost", "quantization", "fine-tuning", "fine tuning",
	},
	"AI Ethics": {
		"ethics", "bias", "regulation", "safety", "alignment", "privacy",
		"copyright", "lawsuit", "governance", "misuse",
	},
}

// RuleClassifier classifies by keyword scoring. It is deterministic, needs
// no network, and never fails; the gateway uses it when the semantic
// classifier is unavailable.
type RuleClassifier struct{}

func NewRuleClassifier() *RuleClassifier { return &RuleClassifier{} }

func (r *RuleClassifier) Classify(_ context.Context, in Input) (Result, error) {
	title := strings.ToLower(in.Title)
	summary := strings.ToLower(in.Summary)

	bestType := defaultContentType
	bestScore := 0
	// Deterministic iteration so ties always resolve the same way.
	types := make([]string, 0, len(typeKeywords))
	for t := range typeKeywords {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		score := 0
		for _, kw := range typeKeywords[t] {
			if strings.Contains(title, kw) {
				score += 2
			}
			if strings.Contains(summary, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			bestType = t
		}
	}

	var cats []string
	catNames := make([]string, 0, len(techKeywords))
	for c := range techKeywords {
		catNames = append(catNames, c)
	}
	sort.Strings(catNames)
	for _, c := range catNames {
		for _, kw := range techKeywords[c] {
			if strings.Contains(title, kw) || strings.Contains(summary, kw) {
				cats = append(cats, c)
				break
			}
		}
	}

	confidence := 0.3
	if bestScore >= 4 {
		confidence = 0.6
	} else if bestScore >= 2 {
		confidence = 0.5
	}

	return Result{
		ContentType:    bestType,
		TechCategories: cats,
		Confidence:     confidence,
		Reasoning:      "keyword match",
	}, nil
}
