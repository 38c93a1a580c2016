package hub

import (
	"context"
	"time"

	"go.uber.org/zap"
	"marketdata/internal/provider"
)

const (
	DefaultQuoteInterval = 30 * time.Second
	DefaultIndexInterval = 60 * time.Second
)

// Source is what the poller needs from the aggregator.
type Source interface {
	GetQuote(ctx context.Context, symbol string) (provider.Quote, error)
	GetIndices(ctx context.Context) (map[string]provider.Quote, error)
	Idle()
}

// Poller refreshes subscribed symbols and the index set on fixed cadences.
type Poller struct {
	Hub           *Hub
	Source        Source
	QuoteInterval time.Duration
	IndexInterval time.Duration
	Logger        *zap.Logger
}

// Run blocks until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	logger := p.logger()
	qi, ii := p.QuoteInterval, p.IndexInterval
	if qi <= 0 {
		qi = DefaultQuoteInterval
	}
	if ii <= 0 {
		ii = DefaultIndexInterval
	}
	quotes := time.NewTicker(qi)
	defer quotes.Stop()
	indices := time.NewTicker(ii)
	defer indices.Stop()

	logger.Info("poller started", zap.Duration("quote_interval", qi), zap.Duration("index_interval", ii))
	for {
		select {
		case <-ctx.Done():
			logger.Info("poller stopped")
			return
		case <-quotes.C:
			p.PollQuotes(ctx)
		case <-indices.C:
			p.PollIndices(ctx)
		}
	}
}

// PollQuotes fetches and publishes every subscribed symbol, then runs the
// source's idle hook.
func (p *Poller) PollQuotes(ctx context.Context) {
	logger := p.logger()
	for _, symbol := range p.Hub.Symbols() {
		if ctx.Err() != nil {
			return
		}
		q, err := p.Source.GetQuote(ctx, symbol)
		if err != nil {
			logger.Warn("poll quote failed", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		p.Hub.Publish(ctx, q)
	}
	p.Source.Idle()
}

// PollIndices fetches the index set and publishes each index quote.
func (p *Poller) PollIndices(ctx context.Context) {
	idx, err := p.Source.GetIndices(ctx)
	if err != nil {
		p.logger().Warn("poll indices failed", zap.Error(err))
		return
	}
	for _, q := range idx {
		p.Hub.Publish(ctx, q)
	}
}

func (p *Poller) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
