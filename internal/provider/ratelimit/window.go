package ratelimit

import (
	"sync"
	"time"

	"marketdata/internal/clock"
	"marketdata/internal/provider"
)

// Decision is the outcome of an admission check.
type Decision struct {
	Admitted   bool
	RetryAfter time.Duration
}

// window is the fixed-window budget of one provider.
type window struct {
	mu     sync.Mutex
	limit  int
	length time.Duration
	used   int
	start  time.Time
}

// Limiter tracks per-provider request budgets in fixed windows.
// The provider set is fixed at construction; each window has its own lock.
type Limiter struct {
	clock   clock.Clock
	windows map[provider.Tag]*window
}

// New builds a limiter from provider descriptors. Providers without
// credentials get a zero budget and are always denied.
func New(c clock.Clock, descs ...provider.Descriptor) *Limiter {
	if c == nil {
		c = clock.Real{}
	}
	l := &Limiter{clock: c, windows: make(map[provider.Tag]*window, len(descs))}
	for _, d := range descs {
		limit := d.Limit
		if !d.Enabled() || limit < 0 {
			limit = 0
		}
		length := d.Window
		if length <= 0 {
			length = time.Minute
		}
		l.windows[d.Tag] = &window{limit: limit, length: length}
	}
	return l
}

// TryAcquire admits one request for tag if its window has budget left.
// An admitted slot is committed for the window even if the caller ends up
// not using it.
func (l *Limiter) TryAcquire(tag provider.Tag) Decision {
	w, ok := l.windows[tag]
	if !ok {
		return Decision{RetryAfter: time.Minute}
	}
	now := l.clock.Now()

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.limit == 0 {
		return Decision{RetryAfter: w.length}
	}
	if w.start.IsZero() || now.Sub(w.start) >= w.length {
		w.used = 0
		w.start = now
	}
	if w.used < w.limit {
		w.used++
		return Decision{Admitted: true}
	}
	return Decision{RetryAfter: w.start.Add(w.length).Sub(now)}
}

// Remaining reports the unused budget of the current window for tag.
func (l *Limiter) Remaining(tag provider.Tag) int {
	w, ok := l.windows[tag]
	if !ok {
		return 0
	}
	now := l.clock.Now()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.start.IsZero() || now.Sub(w.start) >= w.length {
		return w.limit
	}
	return w.limit - w.used
}
