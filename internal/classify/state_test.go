package classify

import (
	"testing"
	"time"
)

func testState(now *time.Time) *FallbackState {
	s := NewFallbackState()
	s.now = func() time.Time { return *now }
	return s
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	now := time.Now()
	s := testState(&now)

	for i := 0; i < 4; i++ {
		s.RecordFailure(KindTimeout)
		if s.Open() {
			t.Fatalf("breaker opened early after %d failures", i+1)
		}
	}
	s.RecordFailure(KindTimeout)
	if !s.Open() {
		t.Error("breaker should open after 5 consecutive failures")
	}
	if s.AllowCall() {
		t.Error("no calls allowed immediately after opening")
	}
}

func TestSuccessResetsConsecutiveCount(t *testing.T) {
	now := time.Now()
	s := testState(&now)

	for i := 0; i < 4; i++ {
		s.RecordFailure(KindUpstream)
	}
	s.RecordSuccess()
	for i := 0; i < 4; i++ {
		s.RecordFailure(KindUpstream)
	}
	if s.Open() {
		t.Error("interleaved success should prevent the breaker from opening")
	}
}

func TestBreakerProbeAfterCooldown(t *testing.T) {
	now := time.Now()
	s := testState(&now)

	for i := 0; i < 5; i++ {
		s.RecordFailure(KindConnection)
	}
	if s.AllowCall() {
		t.Fatal("open breaker must block calls before cooldown")
	}

	now = now.Add(61 * time.Second)
	if !s.AllowCall() {
		t.Fatal("cooldown elapsed, probe call should be allowed")
	}

	// Failed probe keeps it open and restarts the cooldown.
	s.RecordFailure(KindConnection)
	now = now.Add(30 * time.Second)
	if s.AllowCall() {
		t.Error("failed probe should restart the cooldown")
	}

	now = now.Add(31 * time.Second)
	if !s.AllowCall() {
		t.Fatal("second probe should be allowed after restarted cooldown")
	}
	s.RecordSuccess()
	if s.Open() {
		t.Error("successful probe should close the breaker")
	}
	if !s.AllowCall() {
		t.Error("closed breaker should allow calls")
	}
}

func TestCountsPerKind(t *testing.T) {
	now := time.Now()
	s := testState(&now)

	s.RecordFailure(KindTimeout)
	s.RecordFailure(KindTimeout)
	s.RecordFailure(KindRateLimited)

	counts := s.Counts()
	if counts[KindTimeout] != 2 {
		t.Errorf("expected 2 timeouts, got %d", counts[KindTimeout])
	}
	if counts[KindRateLimited] != 1 {
		t.Errorf("expected 1 rate_limited, got %d", counts[KindRateLimited])
	}
}
