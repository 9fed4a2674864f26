package gateway

import (
	"context"
	"sync"
	"time"
)

// -----------------------------------------------------------------------------
// IntervalPacer enforces a fixed minimum delay between consecutive source
// calls. The delay applies to every call, not just the first; concurrent
// callers serialize on the same clock.
// -----------------------------------------------------------------------------

type IntervalPacer struct {
	interval time.Duration
	mu       sync.Mutex
	lastCall time.Time
}

// -----------------------------------------------------------------------------

func NewIntervalPacer(interval time.Duration) *IntervalPacer {
	return &IntervalPacer{interval: interval}
}

// -----------------------------------------------------------------------------

// Wait blocks until the configured interval has elapsed since the previous
// call, or returns early when ctx is cancelled.
func (p *IntervalPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	now := time.Now()
	next := p.lastCall.Add(p.interval)
	if next.Before(now) {
		next = now
	}
	p.lastCall = next
	p.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
