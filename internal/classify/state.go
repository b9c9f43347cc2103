package classify

import (
	"sync"
	"time"
)

const (
	breakerThreshold = 5
	breakerCooldown  = 60 * time.Second
)

// FallbackState tracks classifier-call outcomes and drives the circuit
// breaker. It is owned by exactly one Gateway and mutated only behind its
// lock; there is no package-level instance.
//
// States: closed (normal) and open (short-circuited); half-open exists
// implicitly as the first call allowed after the cooldown. A failed probe
// keeps the breaker open and restarts the cooldown.
type FallbackState struct {
	mu sync.Mutex

	errorCounts map[ErrorKind]int
	consecutive int
	open        bool
	openedAt    time.Time

	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

// NewFallbackState creates a closed breaker with default thresholds.
func NewFallbackState() *FallbackState {
	return &FallbackState{
		errorCounts: make(map[ErrorKind]int),
		threshold:   breakerThreshold,
		cooldown:    breakerCooldown,
		now:         time.Now,
	}
}

// AllowCall reports whether the semantic classifier may be called. While
// open it returns false until the cooldown elapses, then true exactly as a
// probe; the probe's outcome decides whether the breaker closes.
func (s *FallbackState) AllowCall() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return true
	}
	return s.now().Sub(s.openedAt) >= s.cooldown
}

// RecordFailure counts one failed classification. Reaching the consecutive
// threshold opens the breaker; a failure while already open restarts the
// cooldown.
func (s *FallbackState) RecordFailure(kind ErrorKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errorCounts[kind]++
	s.consecutive++

	if s.open {
		s.openedAt = s.now()
		return
	}
	if s.consecutive >= s.threshold {
		s.open = true
		s.openedAt = s.now()
	}
}

// RecordSuccess resets the consecutive-failure counter regardless of state
// and closes an open breaker.
func (s *FallbackState) RecordSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.consecutive = 0
	if s.open {
		s.open = false
		s.openedAt = time.Time{}
		s.errorCounts = make(map[ErrorKind]int)
	}
}

// Open reports whether the breaker is currently open.
func (s *FallbackState) Open() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Counts returns a copy of the per-kind error counters.
func (s *FallbackState) Counts() map[ErrorKind]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[ErrorKind]int, len(s.errorCounts))
	for k, v := range s.errorCounts {
		out[k] = v
	}
	return out
}
