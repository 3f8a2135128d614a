package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by a Cache that has no entry for a symbol.
var ErrCacheMiss = errors.New("quote not cached")

// Cache stores recent prices.
type Cache interface {
	Get(ctx context.Context, symbol string) (decimal.Decimal, error)
	Set(ctx context.Context, symbol string, price decimal.Decimal, ttl time.Duration) error
}

// RedisCache keeps prices under quote:<SYMBOL>:price.
type RedisCache struct {
	rdb *redis.Client
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func priceKey(symbol string) string {
	return fmt.Sprintf("quote:%s:price", strings.ToUpper(symbol))
}

func (c *RedisCache) Get(ctx context.Context, symbol string) (decimal.Decimal, error) {
	val, err := c.rdb.Get(ctx, priceKey(symbol)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, ErrCacheMiss
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("read cached quote: %w", err)
	}
	price, err := decimal.NewFromString(val)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt cached quote %q: %w", val, err)
	}
	return price, nil
}

func (c *RedisCache) Set(ctx context.Context, symbol string, price decimal.Decimal, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, priceKey(symbol), price.String(), ttl).Err(); err != nil {
		return fmt.Errorf("cache quote: %w", err)
	}
	return nil
}

// MemoryCache is a process-local Cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryQuote
	now     func() time.Time
}

type memoryQuote struct {
	price   decimal.Decimal
	expires time.Time
}

var _ Cache = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryQuote), now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, symbol string) (decimal.Decimal, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := priceKey(symbol)
	e, ok := c.entries[key]
	if !ok {
		return decimal.Zero, ErrCacheMiss
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return decimal.Zero, ErrCacheMiss
	}
	return e.price, nil
}

func (c *MemoryCache) Set(_ context.Context, symbol string, price decimal.Decimal, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[priceKey(symbol)] = memoryQuote{price: price, expires: c.now().Add(ttl)}
	return nil
}

// Quotes serves prices from the cache and falls back to the source.
type Quotes struct {
	source QuoteSource
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
}

func NewQuotes(source QuoteSource, cache Cache, ttl time.Duration, logger *zap.Logger) *Quotes {
	return &Quotes{source: source, cache: cache, ttl: ttl, logger: logger}
}

// Quote is a price and whether it came from the cache.
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	Cached bool            `json:"cached"`
}

// Latest returns the price of symbol. Cache failures are logged and
// otherwise ignored so a Redis outage only costs an upstream call.
func (q *Quotes) Latest(ctx context.Context, symbol string) (Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	price, err := q.cache.Get(ctx, symbol)
	if err == nil {
		return Quote{Symbol: symbol, Price: price, Cached: true}, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		q.logger.Warn("Quote cache read failed", zap.String("symbol", symbol), zap.Error(err))
	}

	price, err = q.source.LatestPrice(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}

	if err := q.cache.Set(ctx, symbol, price, q.ttl); err != nil {
		q.logger.Warn("Quote cache write failed", zap.String("symbol", symbol), zap.Error(err))
	}
	return Quote{Symbol: symbol, Price: price}, nil
}
