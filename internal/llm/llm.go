// Package llm provides the semantic classifier backends. Providers return
// raw transport and status errors unwrapped-able with errors.As so the
// classification gateway can map them onto its error taxonomy.
package llm

import (
	"context"
	"fmt"
	"log"
	"strings"

	"aiscout/internal/config"
)

// Provider is the interface for LLM backends.
type Provider interface {
	// Generate sends a prompt and returns the raw model response.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	// Name identifies the provider and model, e.g. "ollama/qwen2.5:7b".
	// It keys the response cache, so it must be stable per configuration.
	Name() string
	// IsConfigured reports whether the backend is reachable/usable.
	IsConfigured() bool
}

// APIError is a non-2xx response from a provider API. The status code lets
// callers distinguish rate limiting from upstream failure.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 200 {
		body = body[:200]
	}
	return fmt.Sprintf("API returned %d: %s", e.StatusCode, body)
}

// CreateProvider selects an LLM provider from configuration, preferring the
// configured one and falling back to OpenAI when Ollama is unreachable.
// Returns nil when no backend is usable.
func CreateProvider(cfg config.Classifier) Provider {
	if strings.ToLower(cfg.Provider) == "ollama" {
		p := NewOllamaProvider(cfg.Model, cfg.OllamaURL)
		if p.IsConfigured() {
			log.Printf("Using Ollama with model: %s", cfg.Model)
			return p
		}
		log.Println("Ollama not available, trying OpenAI fallback...")
	}

	p := NewOpenAIProvider(cfg.OpenAIModel, cfg.APIKeyEnv)
	if p.IsConfigured() {
		log.Printf("Using OpenAI with model: %s", cfg.OpenAIModel)
		return p
	}

	log.Println("No LLM provider available. Check Ollama is running or set the API key.")
	return nil
}
