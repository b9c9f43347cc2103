package classify

import (
	"context"
	"log"
	"sync"
	"time"
)

const rateLimitBackoff = 2 * time.Second

// Stats counts how classifications were resolved during a run.
type Stats struct {
	LLM      int
	Fallback int
	Cached   int
}

// Gateway routes classification requests: cache first, then the semantic
// classifier guarded by the circuit breaker, then the rule-based fallback.
// Classify never returns an error; every item gets a label.
type Gateway struct {
	semantic *LLMClassifier
	fallback Classifier
	cache    *Cache
	state    *FallbackState

	mu    sync.Mutex
	stats Stats

	sleep func(time.Duration) // test hook
}

// NewGateway wires a gateway. semantic may be nil when no provider is
// configured; everything then goes through the fallback.
func NewGateway(semantic *LLMClassifier, cache *Cache, state *FallbackState) *Gateway {
	return &Gateway{
		semantic: semantic,
		fallback: NewRuleClassifier(),
		cache:    cache,
		state:    state,
		sleep:    time.Sleep,
	}
}

func (g *Gateway) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

func (g *Gateway) Classify(ctx context.Context, in Input) Result {
	var key string
	if g.semantic != nil {
		key = CacheKey(in, g.semantic.Model())
		if r, ok := g.cache.Get(key); ok {
			r.Via = ViaCache
			g.count(ViaCache)
			return r
		}
	}

	if g.semantic != nil && g.state.AllowCall() {
		r, err := g.callSemantic(ctx, in)
		if err == nil {
			g.state.RecordSuccess()
			r.Via = ViaLLM
			g.cache.Put(key, r, g.semantic.Model())
			g.count(ViaLLM)
			return r
		}
		kind := classifyError(err)
		g.state.RecordFailure(kind)
		log.Printf("classify: %s (%s), using fallback", err, kind)
	}

	r, _ := g.fallback.Classify(ctx, in)
	r.Via = ViaFallback
	g.count(ViaFallback)
	return r
}

// callSemantic runs one classification attempt plus at most one retry,
// chosen by error kind: timeouts and model errors are not retried,
// rate limits wait before retrying, connection and upstream errors retry
// only while the breaker is still closed.
func (g *Gateway) callSemantic(ctx context.Context, in Input) (Result, error) {
	r, err := g.semantic.Classify(ctx, in)
	if err == nil {
		return r, nil
	}

	switch classifyError(err) {
	case KindTimeout, KindModel:
		return Result{}, err
	case KindRateLimited:
		g.sleep(rateLimitBackoff)
	case KindConnection, KindUpstream:
		if g.state.Open() {
			return Result{}, err
		}
	case KindMalformed:
		// retry once; a second malformed answer falls through below
	}
	if ctx.Err() != nil {
		return Result{}, err
	}

	return g.semantic.Classify(ctx, in)
}

func (g *Gateway) count(via string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch via {
	case ViaLLM:
		g.stats.LLM++
	case ViaFallback:
		g.stats.Fallback++
	case ViaCache:
		g.stats.Cached++
	}
}
