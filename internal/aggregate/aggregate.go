// Package aggregate is the aggregator core: it serves quotes from the cache,
// collapses concurrent misses into one upstream flight and cascades across
// providers in priority order.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"marketdata/internal/clock"
	"marketdata/internal/history"
	"marketdata/internal/httpx"
	"marketdata/internal/normalize"
	"marketdata/internal/provider"
	"marketdata/internal/provider/cache"
	"marketdata/internal/provider/ratelimit"
)

const (
	DefaultRequestTimeout   = 10 * time.Second
	DefaultAttemptTimeout   = 5 * time.Second
	DefaultBatchLimit       = 10
	DefaultBatchParallelism = 4
	DefaultIndexSpacing     = 200 * time.Millisecond
)

// DefaultIndexSymbols are the ETFs standing in for the S&P 500, Nasdaq-100
// and Dow Jones indices.
var DefaultIndexSymbols = []string{"SPY", "QQQ", "DIA"}

// Limiter admits or denies one upstream call for a provider.
type Limiter interface {
	TryAcquire(tag provider.Tag) ratelimit.Decision
}

// Publisher is notified of every successfully ingested quote.
type Publisher interface {
	Publish(ctx context.Context, q provider.Quote) int
}

// Mirror is an optional second-level store for the quote layer.
type Mirror interface {
	Load(ctx context.Context, symbol string) (provider.Quote, bool, error)
	Store(ctx context.Context, q provider.Quote) error
}

type Options struct {
	Adapters   []provider.Adapter
	Limiter    Limiter
	Fetcher    Fetcher
	Cache      *cache.Cache
	Normalizer *normalize.Normalizer
	History    *history.Store
	Publisher  Publisher
	Mirror     Mirror
	Clock      clock.Clock
	Logger     *zap.Logger

	RequestTimeout   time.Duration
	AttemptTimeout   time.Duration
	BatchLimit       int
	BatchParallelism int
	IndexSymbols     []string
	IndexSpacing     time.Duration
}

type Aggregator struct {
	adapters  []provider.Adapter
	limiter   Limiter
	fetcher   Fetcher
	cache     *cache.Cache
	norm      *normalize.Normalizer
	history   *history.Store
	publisher Publisher
	mirror    Mirror
	clock     clock.Clock
	logger    *zap.Logger

	requestTimeout   time.Duration
	attemptTimeout   time.Duration
	batchLimit       int
	batchParallelism int
	indexSymbols     []string
	indexSet         map[string]struct{}
	pacer            *ratelimit.Pacer

	group singleflight.Group
	// notify tracks background publish and mirror writes.
	notify sync.WaitGroup
}

// New validates opts and fills defaults.
func New(opts Options) (*Aggregator, error) {
	if len(opts.Adapters) == 0 {
		return nil, errors.New("aggregate: no adapters")
	}
	if opts.Limiter == nil {
		return nil, errors.New("aggregate: nil limiter")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("aggregate: nil fetcher")
	}
	a := &Aggregator{
		limiter:          opts.Limiter,
		fetcher:          opts.Fetcher,
		cache:            opts.Cache,
		norm:             opts.Normalizer,
		history:          opts.History,
		publisher:        opts.Publisher,
		mirror:           opts.Mirror,
		clock:            opts.Clock,
		logger:           opts.Logger,
		requestTimeout:   opts.RequestTimeout,
		attemptTimeout:   opts.AttemptTimeout,
		batchLimit:       opts.BatchLimit,
		batchParallelism: opts.BatchParallelism,
		indexSymbols:     append([]string(nil), opts.IndexSymbols...),
	}
	if a.clock == nil {
		a.clock = clock.Real{}
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	if a.cache == nil {
		a.cache = cache.New(cache.Options{Clock: a.clock})
	}
	if a.norm == nil {
		a.norm = normalize.New(a.clock, 0)
	}
	if a.history == nil {
		a.history = history.New(0)
	}
	if a.requestTimeout <= 0 {
		a.requestTimeout = DefaultRequestTimeout
	}
	if a.attemptTimeout <= 0 {
		a.attemptTimeout = DefaultAttemptTimeout
	}
	if a.batchLimit <= 0 || a.batchLimit > DefaultBatchLimit {
		a.batchLimit = DefaultBatchLimit
	}
	if a.batchParallelism <= 0 {
		a.batchParallelism = DefaultBatchParallelism
	}
	if len(a.indexSymbols) == 0 {
		a.indexSymbols = append([]string(nil), DefaultIndexSymbols...)
	}
	spacing := opts.IndexSpacing
	if spacing <= 0 {
		spacing = DefaultIndexSpacing
	}
	a.pacer = &ratelimit.Pacer{Interval: spacing}

	a.indexSet = make(map[string]struct{}, len(a.indexSymbols))
	for i, s := range a.indexSymbols {
		sym, ok := normalize.Symbol(s)
		if !ok {
			return nil, fmt.Errorf("aggregate: invalid index symbol %q", s)
		}
		a.indexSymbols[i] = sym
		a.indexSet[sym] = struct{}{}
	}

	a.adapters = append([]provider.Adapter(nil), opts.Adapters...)
	sort.SliceStable(a.adapters, func(i, j int) bool {
		return a.adapters[i].Descriptor().Priority < a.adapters[j].Descriptor().Priority
	})
	return a, nil
}

// Providers returns the cascade order.
func (a *Aggregator) Providers() []provider.Tag {
	out := make([]provider.Tag, len(a.adapters))
	for i, ad := range a.adapters {
		out[i] = ad.Descriptor().Tag
	}
	return out
}

// withDeadline applies the default request timeout when ctx has none.
func (a *Aggregator) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.requestTimeout)
}

// GetQuote returns the quote for symbol from the cache, the mirror or the
// provider cascade, in that order.
func (a *Aggregator) GetQuote(ctx context.Context, symbol string) (provider.Quote, error) {
	sym, ok := normalize.Symbol(symbol)
	if !ok {
		return provider.Quote{}, invalid(symbol, "symbol must be 1..%d non-blank characters", normalize.MaxSymbolLen)
	}
	ctx, cancel := a.withDeadline(ctx)
	defer cancel()
	return a.quote(ctx, cache.Quote, sym)
}

func (a *Aggregator) quote(ctx context.Context, layer cache.Layer, sym string) (provider.Quote, error) {
	if v, ok := a.cache.Get(layer, sym); ok {
		return v.(provider.Quote), nil
	}
	if layer == cache.Quote {
		if q, ok := a.fromMirror(ctx, sym); ok {
			return q, nil
		}
	}
	v, err := a.flight(ctx, string(layer)+":"+sym, sym, func(fctx context.Context) (any, error) {
		// Another flight may have filled the cache since the lookup above.
		if v, ok := a.cache.Get(layer, sym); ok {
			return v, nil
		}
		return a.cascade(fctx, layer, sym)
	})
	if err != nil {
		return provider.Quote{}, err
	}
	return v.(provider.Quote), nil
}

// flight runs fn once per key among concurrent callers. fn runs under the
// first caller's context; each caller waits under its own.
func (a *Aggregator) flight(ctx context.Context, key, symbol string, fn func(context.Context) (any, error)) (any, error) {
	ch := a.group.DoChan(key, func() (any, error) {
		return fn(ctx)
	})
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, cancelled(ctx, symbol, nil)
	}
}

func (a *Aggregator) fromMirror(ctx context.Context, sym string) (provider.Quote, bool) {
	if a.mirror == nil {
		return provider.Quote{}, false
	}
	q, ok, err := a.mirror.Load(ctx, sym)
	if err != nil {
		a.logger.Warn("mirror load failed", zap.String("symbol", sym), zap.Error(err))
		return provider.Quote{}, false
	}
	if !ok {
		return provider.Quote{}, false
	}
	remaining := q.FetchedAt.Add(a.cache.TTL(cache.Quote)).Sub(a.clock.Now())
	if remaining <= 0 {
		return provider.Quote{}, false
	}
	a.cache.Put(cache.Quote, sym, q, q.FetchedAt, remaining)
	return q, true
}

// cascade tries each provider in priority order until one yields a valid
// quote. SymbolUnknown ends the cascade with NotFound.
func (a *Aggregator) cascade(ctx context.Context, layer cache.Layer, sym string) (provider.Quote, error) {
	var (
		attempted []provider.Tag
		reasons   []string
	)
	for _, ad := range a.adapters {
		if ctx.Err() != nil {
			return provider.Quote{}, cancelled(ctx, sym, attempted)
		}
		tag := ad.Descriptor().Tag
		if d := a.limiter.TryAcquire(tag); !d.Admitted {
			a.logger.Debug("provider skipped",
				zap.String("provider", string(tag)),
				zap.String("symbol", sym),
				zap.Duration("retry_after", d.RetryAfter),
			)
			reasons = append(reasons, fmt.Sprintf("%s: rate limited, retry after %s", tag, d.RetryAfter.Round(time.Second)))
			continue
		}
		attempted = append(attempted, tag)

		q, err := a.attempt(ctx, ad, sym)
		if err == nil {
			a.ingest(ctx, layer, q)
			return q, nil
		}
		if ctx.Err() != nil {
			return provider.Quote{}, cancelled(ctx, sym, attempted)
		}
		kind := provider.KindOf(err)
		if kind == provider.SymbolUnknown {
			return provider.Quote{}, notFound(sym, attempted, err)
		}
		a.logger.Warn("provider attempt failed",
			zap.String("provider", string(tag)),
			zap.String("symbol", sym),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
		reasons = append(reasons, fmt.Sprintf("%s: %s", tag, kind))
	}
	return provider.Quote{}, unavailable(sym, attempted, reasons)
}

// attempt runs one provider: build the URL, fetch, parse, normalize.
func (a *Aggregator) attempt(ctx context.Context, ad provider.Adapter, sym string) (provider.Quote, error) {
	tag := ad.Descriptor().Tag
	url, err := ad.QuoteURL(sym)
	if err != nil {
		return provider.Quote{}, &provider.Failure{Kind: provider.Transient, Provider: tag, Symbol: sym, Err: err}
	}
	status, body, err := a.fetch(ctx, tag, sym, url)
	if err != nil {
		return provider.Quote{}, err
	}
	q, err := ad.ParseQuote(sym, status, body)
	if err != nil {
		return provider.Quote{}, err
	}
	q.Symbol = sym
	q.Source = tag
	q.FetchedAt = time.Time{}
	return a.norm.Normalize(q)
}

// fetch returns status and body for any completed HTTP exchange so the
// adapter can interpret non-2xx answers. Transport failures are transient.
func (a *Aggregator) fetch(ctx context.Context, tag provider.Tag, sym, url string) (int, []byte, error) {
	resp, err := a.fetcher.Fetch(ctx, url, a.attemptTimeout)
	if err == nil {
		return resp.Status, resp.Body, nil
	}
	var he *httpx.Error
	if errors.As(err, &he) && he.Kind == httpx.NonOKStatus {
		return he.Status, he.Body, nil
	}
	return 0, nil, &provider.Failure{Kind: provider.Transient, Provider: tag, Symbol: sym, Err: err}
}

// ingest stores a fresh quote and notifies the hub and mirror off the
// request path.
func (a *Aggregator) ingest(ctx context.Context, layer cache.Layer, q provider.Quote) {
	a.cache.Put(layer, q.Symbol, q, q.FetchedAt, 0)
	a.history.Append(q)
	if a.publisher == nil && (a.mirror == nil || layer != cache.Quote) {
		return
	}
	bg := context.WithoutCancel(ctx)
	a.notify.Add(1)
	go func() {
		defer a.notify.Done()
		if a.publisher != nil {
			a.publisher.Publish(bg, q)
		}
		if a.mirror != nil && layer == cache.Quote {
			if err := a.mirror.Store(bg, q); err != nil {
				a.logger.Warn("mirror store failed", zap.String("symbol", q.Symbol), zap.Error(err))
			}
		}
	}()
}

// Wait blocks until background notifications have finished.
func (a *Aggregator) Wait() { a.notify.Wait() }

// Idle is the housekeeping hook run between poll ticks.
func (a *Aggregator) Idle() {
	if n := a.cache.Sweep(); n > 0 {
		a.logger.Debug("cache sweep", zap.Int("removed", n))
	}
}
