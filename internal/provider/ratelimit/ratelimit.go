package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Pacer enforces a minimum time between consecutive calls to Wait.
// Concurrent callers are serialized; each waits until Interval has elapsed
// since the previous caller was released, or returns early if its context
// is canceled.
type Pacer struct {
	Interval time.Duration
	mu       sync.Mutex
	last     time.Time
}

func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.Interval <= 0 {
		return ctx.Err()
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.last.IsZero() {
		wait := time.Until(p.last.Add(p.Interval))
		if wait > 0 {
			t := time.NewTimer(wait)
			defer t.Stop()
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-t.C:
			}
		}
	}
	p.last = time.Now()
	return nil
}
