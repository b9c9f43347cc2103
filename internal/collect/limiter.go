package collect

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// hostLimiter is the nested admission gate for outbound requests: a global
// in-flight bound across all sources and a smaller bound per destination
// host, so ~70 sources can be drained in parallel without hammering any one
// upstream.
type hostLimiter struct {
	global  *semaphore.Weighted
	perHost int

	mu    sync.Mutex
	hosts map[string]chan struct{}
}

func newHostLimiter(maxConcurrent, maxPerHost int) *hostLimiter {
	return &hostLimiter{
		global:  semaphore.NewWeighted(int64(maxConcurrent)),
		perHost: maxPerHost,
		hosts:   make(map[string]chan struct{}),
	}
}

func (l *hostLimiter) hostSlot(host string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.hosts[host]
	if !ok {
		ch = make(chan struct{}, l.perHost)
		l.hosts[host] = ch
	}
	return ch
}

// acquire blocks until both a global and a per-host slot are free, or the
// context is done. Global is taken first and released on host-wait abort so
// a saturated host cannot pin global slots.
func (l *hostLimiter) acquire(ctx context.Context, host string) error {
	if err := l.global.Acquire(ctx, 1); err != nil {
		return err
	}
	select {
	case l.hostSlot(host) <- struct{}{}:
		return nil
	case <-ctx.Done():
		l.global.Release(1)
		return ctx.Err()
	}
}

func (l *hostLimiter) release(host string) {
	<-l.hostSlot(host)
	l.global.Release(1)
}
