package aggregate

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"marketdata/internal/normalize"
	"marketdata/internal/provider"
	"marketdata/internal/provider/cache"
)

const sectorsKey = "sectors"

// Status summarizes the sign of the index moves.
type Status string

const (
	Bullish Status = "bullish"
	Bearish Status = "bearish"
	Mixed   Status = "mixed"
)

// Overview is the market snapshot served by GetOverview.
type Overview struct {
	Indices map[string]provider.Quote    `json:"indices"`
	Sectors []provider.SectorPerformance `json:"sectors"`
	Status  Status                       `json:"status"`
}

// MarketStatus is bullish when more indices rose than fell, bearish when
// fewer did and mixed otherwise.
func MarketStatus(indices map[string]provider.Quote) Status {
	var up, down int
	for _, q := range indices {
		switch {
		case q.ChangePercent > 0:
			up++
		case q.ChangePercent < 0:
			down++
		}
	}
	switch {
	case up > down:
		return Bullish
	case up < down:
		return Bearish
	}
	return Mixed
}

// IndexSymbols returns the configured index set in request order.
func (a *Aggregator) IndexSymbols() []string {
	return append([]string(nil), a.indexSymbols...)
}

// GetIndices fetches every index symbol sequentially through the index
// layer, spacing upstream-bound calls by the pacer interval. Indices that
// fail are omitted; if all fail the call fails.
func (a *Aggregator) GetIndices(ctx context.Context) (map[string]provider.Quote, error) {
	ctx, cancel := a.withDeadline(ctx)
	defer cancel()

	out := make(map[string]provider.Quote, len(a.indexSymbols))
	var lastErr error
	for _, sym := range a.indexSymbols {
		q, err := a.index(ctx, sym)
		if err != nil {
			if KindOf(err) == ErrCancelled {
				return nil, err
			}
			a.logger.Warn("index fetch failed", zap.String("symbol", sym), zap.Error(err))
			lastErr = err
			continue
		}
		out[sym] = q
	}
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

// GetIndex returns one quote from the index set.
func (a *Aggregator) GetIndex(ctx context.Context, symbol string) (provider.Quote, error) {
	sym, ok := normalize.Symbol(symbol)
	if !ok {
		return provider.Quote{}, invalid(symbol, "invalid index symbol")
	}
	if _, ok := a.indexSet[sym]; !ok {
		return provider.Quote{}, invalid(sym, "unknown index")
	}
	ctx, cancel := a.withDeadline(ctx)
	defer cancel()
	return a.index(ctx, sym)
}

func (a *Aggregator) index(ctx context.Context, sym string) (provider.Quote, error) {
	if v, ok := a.cache.Get(cache.Index, sym); ok {
		return v.(provider.Quote), nil
	}
	if err := a.pacer.Wait(ctx); err != nil {
		return provider.Quote{}, cancelled(ctx, sym, nil)
	}
	return a.quote(ctx, cache.Index, sym)
}

// companyAdapter returns the first adapter serving company profiles.
func (a *Aggregator) companyAdapter() (provider.CompanyAdapter, bool) {
	for _, ad := range a.adapters {
		if ca, ok := ad.(provider.CompanyAdapter); ok {
			return ca, true
		}
	}
	return nil, false
}

func (a *Aggregator) sectorAdapter() (provider.SectorAdapter, bool) {
	for _, ad := range a.adapters {
		if sa, ok := ad.(provider.SectorAdapter); ok {
			return sa, true
		}
	}
	return nil, false
}

// GetCompany returns the company profile for symbol. Only providers that
// implement provider.CompanyAdapter are consulted; there is no cascade.
func (a *Aggregator) GetCompany(ctx context.Context, symbol string) (provider.CompanyProfile, error) {
	sym, ok := normalize.Symbol(symbol)
	if !ok {
		return provider.CompanyProfile{}, invalid(symbol, "symbol must be 1..%d non-blank characters", normalize.MaxSymbolLen)
	}
	if v, ok := a.cache.Get(cache.Company, sym); ok {
		return v.(provider.CompanyProfile), nil
	}
	ad, ok := a.companyAdapter()
	if !ok {
		return provider.CompanyProfile{}, unavailable(sym, nil, []string{"no company provider configured"})
	}
	ctx, cancel := a.withDeadline(ctx)
	defer cancel()

	v, err := a.flight(ctx, string(cache.Company)+":"+sym, sym, func(fctx context.Context) (any, error) {
		if v, ok := a.cache.Get(cache.Company, sym); ok {
			return v, nil
		}
		return a.single(fctx, ad, sym, func() (string, error) { return ad.CompanyURL(sym) },
			func(status int, body []byte) (any, error) {
				p, err := ad.ParseCompany(sym, status, body)
				if err != nil {
					return nil, err
				}
				p.Source = ad.Descriptor().Tag
				p.FetchedAt = a.clock.Now()
				a.cache.Put(cache.Company, sym, p, p.FetchedAt, 0)
				return p, nil
			})
	})
	if err != nil {
		return provider.CompanyProfile{}, err
	}
	return v.(provider.CompanyProfile), nil
}

// GetSectorPerformance returns the real-time sector table, best first.
func (a *Aggregator) GetSectorPerformance(ctx context.Context) ([]provider.SectorPerformance, error) {
	if v, ok := a.cache.Get(cache.Market, sectorsKey); ok {
		return cloneSectors(v.([]provider.SectorPerformance)), nil
	}
	ad, ok := a.sectorAdapter()
	if !ok {
		return nil, unavailable("", nil, []string{"no sector provider configured"})
	}
	ctx, cancel := a.withDeadline(ctx)
	defer cancel()

	v, err := a.flight(ctx, string(cache.Market)+":"+sectorsKey, "", func(fctx context.Context) (any, error) {
		if v, ok := a.cache.Get(cache.Market, sectorsKey); ok {
			return v, nil
		}
		return a.single(fctx, ad, "", ad.SectorURL,
			func(status int, body []byte) (any, error) {
				rows, err := ad.ParseSectors(status, body)
				if err != nil {
					return nil, err
				}
				for i := range rows {
					rows[i].Performance = normalize.Round2(rows[i].Performance)
				}
				a.cache.Put(cache.Market, sectorsKey, rows, a.clock.Now(), 0)
				return rows, nil
			})
	})
	if err != nil {
		return nil, err
	}
	return cloneSectors(v.([]provider.SectorPerformance)), nil
}

// single runs one admission, fetch and parse against a single provider and
// maps its failure to a public error.
func (a *Aggregator) single(ctx context.Context, ad provider.Adapter, sym string,
	build func() (string, error), parse func(status int, body []byte) (any, error)) (any, error) {
	tag := ad.Descriptor().Tag
	if d := a.limiter.TryAcquire(tag); !d.Admitted {
		return nil, unavailable(sym, nil, []string{fmt.Sprintf("%s: rate limited, retry after %s", tag, d.RetryAfter)})
	}
	attempted := []provider.Tag{tag}

	url, err := build()
	if err != nil {
		return nil, invalid(sym, "%v", err)
	}
	status, body, err := a.fetch(ctx, tag, sym, url)
	if err == nil {
		var v any
		if v, err = parse(status, body); err == nil {
			return v, nil
		}
	}
	if ctx.Err() != nil {
		return nil, cancelled(ctx, sym, attempted)
	}
	kind := provider.KindOf(err)
	if kind == provider.SymbolUnknown {
		return nil, notFound(sym, attempted, err)
	}
	a.logger.Warn("provider attempt failed",
		zap.String("provider", string(tag)),
		zap.String("symbol", sym),
		zap.String("kind", kind.String()),
		zap.Error(err),
	)
	return nil, unavailable(sym, attempted, []string{fmt.Sprintf("%s: %s", tag, kind)})
}

// GetOverview combines the indices, the sector table and the market status.
// A sector failure is logged and leaves Sectors empty.
func (a *Aggregator) GetOverview(ctx context.Context) (Overview, error) {
	indices, err := a.GetIndices(ctx)
	if err != nil {
		return Overview{}, err
	}
	sectors, err := a.GetSectorPerformance(ctx)
	if err != nil {
		a.logger.Warn("overview without sectors", zap.Error(err))
		sectors = []provider.SectorPerformance{}
	}
	return Overview{Indices: indices, Sectors: sectors, Status: MarketStatus(indices)}, nil
}

func cloneSectors(in []provider.SectorPerformance) []provider.SectorPerformance {
	out := make([]provider.SectorPerformance, len(in))
	copy(out, in)
	return out
}
