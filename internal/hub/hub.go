// Package hub fans normalized quotes out to per-symbol subscribers and runs
// the poller that keeps subscribed symbols fresh.
package hub

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"marketdata/internal/provider"
)

// DefaultDeliveryTimeout bounds a single Deliver call.
const DefaultDeliveryTimeout = 5 * time.Second

// Handle receives quotes for the symbols it is subscribed to. Implementations
// must be comparable; pointer types are.
type Handle interface {
	Deliver(ctx context.Context, q provider.Quote) error
}

// Subscription records one (symbol, handle) pair.
type Subscription struct {
	Symbol    string
	Handle    Handle
	CreatedAt time.Time
}

// topic holds the subscribers of one symbol. publishMu serializes
// publishes so handles see a symbol's quotes in order.
type topic struct {
	handles   map[Handle]Subscription
	publishMu sync.Mutex
	last      time.Time
}

type Hub struct {
	logger  *zap.Logger
	timeout time.Duration

	mu     sync.RWMutex
	topics map[string]*topic
}

// New creates a Hub. A nil logger discards logs; timeout <= 0 uses
// DefaultDeliveryTimeout.
func New(logger *zap.Logger, timeout time.Duration) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = DefaultDeliveryTimeout
	}
	return &Hub{logger: logger, timeout: timeout, topics: make(map[string]*topic)}
}

// Subscribe registers h for symbol. Subscribing twice is a no-op that
// returns the original subscription.
func (h *Hub) Subscribe(symbol string, handle Handle) Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.topics[symbol]
	if !ok {
		t = &topic{handles: make(map[Handle]Subscription)}
		h.topics[symbol] = t
	}
	if sub, ok := t.handles[handle]; ok {
		return sub
	}
	sub := Subscription{Symbol: symbol, Handle: handle, CreatedAt: time.Now()}
	t.handles[handle] = sub
	return sub
}

// Unsubscribe removes handle from symbol and drops the symbol once empty.
func (h *Hub) Unsubscribe(symbol string, handle Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(symbol, handle)
}

// UnsubscribeAll removes handle from every symbol, for disconnects.
func (h *Hub) UnsubscribeAll(handle Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for symbol := range h.topics {
		h.removeLocked(symbol, handle)
	}
}

func (h *Hub) removeLocked(symbol string, handle Handle) {
	t, ok := h.topics[symbol]
	if !ok {
		return
	}
	delete(t.handles, handle)
	if len(t.handles) == 0 {
		delete(h.topics, symbol)
	}
}

// Symbols returns the symbols with at least one subscriber, sorted.
func (h *Hub) Symbols() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.topics))
	for s := range h.topics {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Count returns the number of subscribers of symbol.
func (h *Hub) Count(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if t, ok := h.topics[symbol]; ok {
		return len(t.handles)
	}
	return 0
}

// Publish delivers q to every subscriber of q.Symbol concurrently and waits
// for all of them. A quote not fetched after the last one published for the
// symbol is dropped. It returns the number of successful deliveries.
func (h *Hub) Publish(ctx context.Context, q provider.Quote) int {
	h.mu.RLock()
	t, ok := h.topics[q.Symbol]
	h.mu.RUnlock()
	if !ok {
		return 0
	}

	t.publishMu.Lock()
	defer t.publishMu.Unlock()
	if !t.last.IsZero() && !q.FetchedAt.After(t.last) {
		return 0
	}
	t.last = q.FetchedAt

	h.mu.RLock()
	snapshot := make([]Handle, 0, len(t.handles))
	for handle := range t.handles {
		snapshot = append(snapshot, handle)
	}
	h.mu.RUnlock()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		delivered int
	)
	for _, handle := range snapshot {
		wg.Add(1)
		go func(handle Handle) {
			defer wg.Done()
			dctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			if err := handle.Deliver(dctx, q); err != nil {
				h.logger.Warn("delivery failed",
					zap.String("symbol", q.Symbol),
					zap.Error(err),
				)
				return
			}
			mu.Lock()
			delivered++
			mu.Unlock()
		}(handle)
	}
	wg.Wait()
	return delivered
}
