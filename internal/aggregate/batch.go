package aggregate

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"marketdata/internal/normalize"
	"marketdata/internal/provider"
	"marketdata/internal/provider/cache"
)

// BatchResult is the per-symbol outcome of GetBatch; exactly one of Quote
// and Err is meaningful.
type BatchResult struct {
	Quote provider.Quote
	Err   error
}

func (r BatchResult) OK() bool { return r.Err == nil }

// GetBatch fetches up to BatchLimit symbols concurrently. Duplicates are
// collapsed and share one flight. The map is keyed by normalized symbol.
func (a *Aggregator) GetBatch(ctx context.Context, symbols []string) (map[string]BatchResult, error) {
	if len(symbols) == 0 {
		return nil, invalid("", "no symbols")
	}
	if len(symbols) > a.batchLimit {
		return nil, invalid("", "batch of %d symbols exceeds limit %d", len(symbols), a.batchLimit)
	}

	out := make(map[string]BatchResult, len(symbols))
	unique := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym, ok := normalize.Symbol(s)
		if !ok {
			out[s] = BatchResult{Err: invalid(s, "symbol must be 1..%d non-blank characters", normalize.MaxSymbolLen)}
			continue
		}
		if _, dup := out[sym]; dup {
			continue
		}
		out[sym] = BatchResult{}
		unique = append(unique, sym)
	}

	ctx, cancel := a.withDeadline(ctx)
	defer cancel()

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(min(a.batchParallelism, len(unique)))
	for _, sym := range unique {
		g.Go(func() error {
			q, err := a.quote(ctx, cache.Quote, sym)
			mu.Lock()
			out[sym] = BatchResult{Quote: q, Err: err}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return out, cancelled(ctx, "", nil)
	}
	return out, nil
}
