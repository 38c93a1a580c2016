package aggregate

import (
	"context"

	"marketdata/internal/history"
	"marketdata/internal/normalize"
	"marketdata/internal/provider"
	"marketdata/internal/provider/cache"
)

// GetHistory returns the stored quotes for symbol within period, oldest first.
func (a *Aggregator) GetHistory(_ context.Context, symbol, period string) ([]provider.Quote, error) {
	sym, ok := normalize.Symbol(symbol)
	if !ok {
		return nil, invalid(symbol, "symbol must be 1..%d non-blank characters", normalize.MaxSymbolLen)
	}
	p, err := history.ParsePeriod(period)
	if err != nil {
		return nil, invalid(sym, "%v", err)
	}
	quotes := a.history.Range(sym, p, a.clock.Now())
	if quotes == nil {
		quotes = []provider.Quote{}
	}
	return quotes, nil
}

// GetSeries returns OHLCV buckets for symbol, cached in the aggregated layer.
func (a *Aggregator) GetSeries(_ context.Context, symbol, period, bucket string) ([]history.OHLCV, error) {
	sym, ok := normalize.Symbol(symbol)
	if !ok {
		return nil, invalid(symbol, "symbol must be 1..%d non-blank characters", normalize.MaxSymbolLen)
	}
	p, err := history.ParsePeriod(period)
	if err != nil {
		return nil, invalid(sym, "%v", err)
	}
	b, err := history.ParseBucket(bucket)
	if err != nil {
		return nil, invalid(sym, "%v", err)
	}

	key := sym + "|" + string(p) + "|" + string(b)
	if v, ok := a.cache.Get(cache.Aggregated, key); ok {
		return cloneSeries(v.([]history.OHLCV)), nil
	}
	now := a.clock.Now()
	series := a.history.Bucketize(sym, p, b, now)
	a.cache.Put(cache.Aggregated, key, series, now, 0)
	return cloneSeries(series), nil
}

func cloneSeries(in []history.OHLCV) []history.OHLCV {
	out := make([]history.OHLCV, len(in))
	copy(out, in)
	return out
}
