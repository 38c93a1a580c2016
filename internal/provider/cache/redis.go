package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"marketdata/internal/provider"
)

// RedisClient is the subset of redis.Cmdable the mirror needs.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisMirror keeps the quote layer in Redis so sibling or restarted
// instances can warm from it.
type RedisMirror struct {
	client RedisClient
	ttl    time.Duration
}

func NewRedisMirror(client RedisClient, ttl time.Duration) *RedisMirror {
	if ttl <= 0 {
		ttl = DefaultTTLs[Quote]
	}
	return &RedisMirror{client: client, ttl: ttl}
}

// Dial connects to Redis and verifies it with a ping.
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func quoteKey(symbol string) string { return "quote:" + strings.ToUpper(symbol) }

// Store writes q under quote:<SYMBOL> with the quote TTL.
func (m *RedisMirror) Store(ctx context.Context, q provider.Quote) error {
	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("marshal quote: %w", err)
	}
	if err := m.client.Set(ctx, quoteKey(q.Symbol), data, m.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", quoteKey(q.Symbol), err)
	}
	return nil
}

// Load reads the mirrored quote for symbol. A missing key is not an error.
func (m *RedisMirror) Load(ctx context.Context, symbol string) (provider.Quote, bool, error) {
	data, err := m.client.Get(ctx, quoteKey(symbol)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return provider.Quote{}, false, nil
		}
		return provider.Quote{}, false, fmt.Errorf("redis get %s: %w", quoteKey(symbol), err)
	}
	var q provider.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		return provider.Quote{}, false, fmt.Errorf("unmarshal quote: %w", err)
	}
	return q, true, nil
}
