package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"marketdata/internal/provider"
)

// EnvPrefix prefixes every environment override, e.g. MDA_PROVIDERS_FINNHUB_TOKEN.
const EnvPrefix = "MDA"

type Config struct {
	Providers      ProvidersConfig `mapstructure:"providers"`
	Cache          CacheConfig     `mapstructure:"cache"`
	History        HistoryConfig   `mapstructure:"history"`
	Poller         PollerConfig    `mapstructure:"poller"`
	Fetch          FetchConfig     `mapstructure:"fetch"`
	RequestTimeout time.Duration   `mapstructure:"request_timeout"`
	Batch          BatchConfig     `mapstructure:"batch"`
	Indices        IndicesConfig   `mapstructure:"indices"`
	Normalize      NormalizeConfig `mapstructure:"normalize"`
	Redis          RedisConfig     `mapstructure:"redis"`
	Server         ServerConfig    `mapstructure:"server"`
	Log            LogConfig       `mapstructure:"log"`
}

type ProvidersConfig struct {
	AlphaVantage ProviderConfig `mapstructure:"alpha_vantage"`
	Finnhub      ProviderConfig `mapstructure:"finnhub"`
	Polygon      ProviderConfig `mapstructure:"polygon"`
}

// ProviderConfig enables a provider when Token is set. A token of the form
// "ssm:<name>" is resolved from Parameter Store by ResolveSecrets.
type ProviderConfig struct {
	Token     string        `mapstructure:"token"`
	BaseURL   string        `mapstructure:"base_url"`
	RateLimit int           `mapstructure:"rate_limit"`
	Window    time.Duration `mapstructure:"window"`
	Priority  int           `mapstructure:"priority"`
}

type CacheConfig struct {
	QuoteTTL      time.Duration `mapstructure:"quote_ttl"`
	MarketTTL     time.Duration `mapstructure:"market_ttl"`
	CompanyTTL    time.Duration `mapstructure:"company_ttl"`
	IndexTTL      time.Duration `mapstructure:"index_ttl"`
	AggregatedTTL time.Duration `mapstructure:"aggregated_ttl"`
	MaxItems      int           `mapstructure:"max_items"`
}

type HistoryConfig struct {
	RingSize int `mapstructure:"ring_size"`
}

type PollerConfig struct {
	QuoteInterval time.Duration `mapstructure:"quote_interval"`
	IndexInterval time.Duration `mapstructure:"index_interval"`
}

type FetchConfig struct {
	Timeout        time.Duration `mapstructure:"timeout"`
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout"`
	UserAgent      string        `mapstructure:"user_agent"`
}

type BatchConfig struct {
	Limit       int `mapstructure:"limit"`
	Parallelism int `mapstructure:"parallelism"`
}

type IndicesConfig struct {
	Symbols []string      `mapstructure:"symbols"`
	Spacing time.Duration `mapstructure:"spacing"`
}

type NormalizeConfig struct {
	FreshnessWindow time.Duration `mapstructure:"freshness_window"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // rotated JSON log file (optional)
	Environment string `mapstructure:"environment"` // "dev" or "prod"
}

func setDefaults(v *viper.Viper) {
	for tag, d := range map[string]struct {
		limit, priority int
	}{
		"alpha_vantage": {5, 0},
		"finnhub":       {60, 1},
		"polygon":       {5, 2},
	} {
		v.SetDefault("providers."+tag+".token", "")
		v.SetDefault("providers."+tag+".base_url", "")
		v.SetDefault("providers."+tag+".rate_limit", d.limit)
		v.SetDefault("providers."+tag+".window", time.Minute)
		v.SetDefault("providers."+tag+".priority", d.priority)
	}

	v.SetDefault("cache.quote_ttl", time.Minute)
	v.SetDefault("cache.market_ttl", 5*time.Minute)
	v.SetDefault("cache.company_ttl", 24*time.Hour)
	v.SetDefault("cache.index_ttl", 5*time.Minute)
	v.SetDefault("cache.aggregated_ttl", time.Minute)
	v.SetDefault("cache.max_items", 0)

	v.SetDefault("history.ring_size", 1000)

	v.SetDefault("poller.quote_interval", 30*time.Second)
	v.SetDefault("poller.index_interval", time.Minute)

	v.SetDefault("fetch.timeout", 15*time.Second)
	v.SetDefault("fetch.attempt_timeout", 5*time.Second)
	v.SetDefault("fetch.user_agent", "marketdata/1.0")
	v.SetDefault("request_timeout", 10*time.Second)

	v.SetDefault("batch.limit", 10)
	v.SetDefault("batch.parallelism", 4)

	v.SetDefault("indices.symbols", []string{"SPY", "QQQ", "DIA"})
	v.SetDefault("indices.spacing", 200*time.Millisecond)

	v.SetDefault("normalize.freshness_window", 5*time.Minute)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_file", "")
	v.SetDefault("log.environment", "prod")
}

// Load reads the YAML or JSON file at path and applies MDA_ environment
// overrides on top of the defaults. With an empty path it looks for
// config.yaml in the working directory and ./config, and runs on defaults
// when none exists. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if err := v.ReadInConfig(); err != nil {
			var nf viper.ConfigFileNotFoundError
			if !errors.As(err, &nf) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.UnmarshalExact(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) providers() map[provider.Tag]*ProviderConfig {
	return map[provider.Tag]*ProviderConfig{
		provider.AlphaVantage: &c.Providers.AlphaVantage,
		provider.Finnhub:      &c.Providers.Finnhub,
		provider.Polygon:      &c.Providers.Polygon,
	}
}

// Validate rejects settings the aggregator cannot run with.
func (c *Config) Validate() error {
	var errs []error
	seen := make(map[int]provider.Tag)
	for _, tag := range provider.Tags {
		p := c.providers()[tag]
		if p.Window <= 0 {
			errs = append(errs, fmt.Errorf("providers.%s.window must be positive", tag))
		}
		if p.RateLimit < 0 {
			errs = append(errs, fmt.Errorf("providers.%s.rate_limit must not be negative", tag))
		}
		if other, dup := seen[p.Priority]; dup {
			errs = append(errs, fmt.Errorf("providers.%s.priority %d duplicates %s", tag, p.Priority, other))
		}
		seen[p.Priority] = tag
	}
	if c.Batch.Limit < 1 || c.Batch.Limit > 10 {
		errs = append(errs, fmt.Errorf("batch.limit %d outside 1..10", c.Batch.Limit))
	}
	if c.Batch.Parallelism < 1 {
		errs = append(errs, errors.New("batch.parallelism must be positive"))
	}
	if c.History.RingSize < 1 {
		errs = append(errs, errors.New("history.ring_size must be positive"))
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when redis is enabled"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Descriptors returns the provider descriptors in Tags order. The limiter
// denies providers whose token is empty.
func (c *Config) Descriptors() []provider.Descriptor {
	out := make([]provider.Descriptor, 0, len(provider.Tags))
	for _, tag := range provider.Tags {
		p := c.providers()[tag]
		out = append(out, provider.Descriptor{
			Tag:      tag,
			Limit:    p.RateLimit,
			Window:   p.Window,
			Priority: p.Priority,
			BaseURL:  p.BaseURL,
			Token:    p.Token,
		})
	}
	return out
}
