// Package app wires configuration into a running aggregator.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"marketdata/internal/aggregate"
	"marketdata/internal/api"
	"marketdata/internal/clock"
	"marketdata/internal/config"
	"marketdata/internal/history"
	"marketdata/internal/httpx"
	"marketdata/internal/hub"
	"marketdata/internal/normalize"
	"marketdata/internal/provider"
	"marketdata/internal/provider/alphavantage"
	"marketdata/internal/provider/cache"
	"marketdata/internal/provider/finnhub"
	"marketdata/internal/provider/polygon"
	"marketdata/internal/provider/ratelimit"
)

type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Aggregator *aggregate.Aggregator
	Hub        *hub.Hub
	Poller     *hub.Poller

	redis *redis.Client
}

// Adapters builds one adapter per descriptor.
func Adapters(descs []provider.Descriptor) ([]provider.Adapter, error) {
	out := make([]provider.Adapter, 0, len(descs))
	for _, d := range descs {
		switch d.Tag {
		case provider.AlphaVantage:
			out = append(out, alphavantage.New(d))
		case provider.Finnhub:
			out = append(out, finnhub.New(d))
		case provider.Polygon:
			out = append(out, polygon.New(d))
		default:
			return nil, fmt.Errorf("unknown provider %q", d.Tag)
		}
	}
	return out, nil
}

// Build constructs every component from cfg. It dials Redis when the mirror
// is enabled; Close releases that connection.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clk := clock.Real{}
	descs := cfg.Descriptors()
	for _, d := range descs {
		if !d.Enabled() {
			logger.Warn("provider disabled: no token", zap.String("provider", string(d.Tag)))
		}
	}
	adapters, err := Adapters(descs)
	if err != nil {
		return nil, err
	}

	store := cache.New(cache.Options{
		TTLs: map[cache.Layer]time.Duration{
			cache.Quote:      cfg.Cache.QuoteTTL,
			cache.Market:     cfg.Cache.MarketTTL,
			cache.Company:    cfg.Cache.CompanyTTL,
			cache.Index:      cfg.Cache.IndexTTL,
			cache.Aggregated: cfg.Cache.AggregatedTTL,
		},
		MaxItems: cfg.Cache.MaxItems,
		Clock:    clk,
	})
	h := hub.New(logger.Named("hub"), 0)

	a := &App{Config: cfg, Logger: logger, Hub: h}

	var mirror aggregate.Mirror
	if cfg.Redis.Enabled {
		rc, err := cache.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.redis = rc
		mirror = cache.NewRedisMirror(rc, cfg.Cache.QuoteTTL)
		logger.Info("redis mirror enabled", zap.String("addr", cfg.Redis.Addr))
	}

	fetcher := httpx.NewFetcher(
		httpx.WithHTTPClient(httpx.NewClient(cfg.Fetch.Timeout)),
		httpx.WithUserAgent(cfg.Fetch.UserAgent),
	)
	agg, err := aggregate.New(aggregate.Options{
		Adapters:         adapters,
		Limiter:          ratelimit.New(clk, descs...),
		Fetcher:          fetcher,
		Cache:            store,
		Normalizer:       normalize.New(clk, cfg.Normalize.FreshnessWindow),
		History:          history.New(cfg.History.RingSize),
		Publisher:        h,
		Mirror:           mirror,
		Clock:            clk,
		Logger:           logger.Named("aggregate"),
		RequestTimeout:   cfg.RequestTimeout,
		AttemptTimeout:   cfg.Fetch.AttemptTimeout,
		BatchLimit:       cfg.Batch.Limit,
		BatchParallelism: cfg.Batch.Parallelism,
		IndexSymbols:     cfg.Indices.Symbols,
		IndexSpacing:     cfg.Indices.Spacing,
	})
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Aggregator = agg
	a.Poller = &hub.Poller{
		Hub:           h,
		Source:        agg,
		QuoteInterval: cfg.Poller.QuoteInterval,
		IndexInterval: cfg.Poller.IndexInterval,
		Logger:        logger.Named("poller"),
	}
	return a, nil
}

// Server returns the HTTP server for the REST and stream routes.
func (a *App) Server() *http.Server {
	handler := api.New(a.Aggregator, a.Hub, a.Logger.Named("api"))
	return &http.Server{
		Addr:              ":" + a.Config.Server.Port,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       a.Config.Server.ReadTimeout,
		WriteTimeout:      a.Config.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}
}

// Close waits for background notifications and closes the Redis client.
func (a *App) Close() error {
	if a.Aggregator != nil {
		a.Aggregator.Wait()
	}
	if a.redis != nil {
		return a.redis.Close()
	}
	return nil
}
