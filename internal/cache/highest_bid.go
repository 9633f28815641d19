package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	model "auction-engine/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

// HighestBidCache keeps a read-side copy of each auction's highest accepted bid.
// It is advisory: the ledger stays the source of truth for admission.
type HighestBidCache interface {
	Get(ctx context.Context, auctionID string) (amount decimal.Decimal, found bool, err error)
	// Raise stores amount unless the cached value is already equal or higher
	Raise(ctx context.Context, auctionID string, amount decimal.Decimal) error
	// Forget drops the cached value so the next Get misses
	Forget(ctx context.Context, auctionID string) error
}

// Amounts are cached as integer minor units so the Lua compare is exact.
var raiseScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
	return 0
end
if tonumber(ARGV[2]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// RedisCache implements HighestBidCache on Redis
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache pings addr and returns a cache bound to it. Keys are scoped by
// namespace so ledgers that do not share state never share cached values.
func NewRedisCache(ctx context.Context, addr string, db int, password string, ttl time.Duration, namespace string) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		DB:       db,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedisCacheFromClient(rdb, ttl, namespace), nil
}

// NewRedisCacheFromClient wraps an existing client
func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration, namespace string) *RedisCache {
	prefix := "auction:highest:"
	if namespace != "" {
		prefix += namespace + ":"
	}
	return &RedisCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *RedisCache) key(auctionID string) string {
	return c.prefix + auctionID
}

func (c *RedisCache) Get(ctx context.Context, auctionID string) (decimal.Decimal, bool, error) {
	raw, err := c.client.Get(ctx, c.key(auctionID)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, false, nil
	}
	if err != nil {
		return decimal.Zero, false, err
	}
	minor, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return decimal.Zero, false, fmt.Errorf("parse cached amount %q: %w", raw, err)
	}
	return decimal.New(minor, -model.MinorUnits), true, nil
}

func (c *RedisCache) Raise(ctx context.Context, auctionID string, amount decimal.Decimal) error {
	minor := amount.Shift(model.MinorUnits).IntPart()
	return raiseScript.Run(ctx, c.client, []string{c.key(auctionID)}, minor, c.ttl.Milliseconds()).Err()
}

func (c *RedisCache) Forget(ctx context.Context, auctionID string) error {
	return c.client.Del(ctx, c.key(auctionID)).Err()
}

// Close releases the underlying client
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Nop is used when no cache is configured
type Nop struct{}

func (Nop) Get(context.Context, string) (decimal.Decimal, bool, error) {
	return decimal.Zero, false, nil
}

func (Nop) Raise(context.Context, string, decimal.Decimal) error {
	return nil
}

func (Nop) Forget(context.Context, string) error {
	return nil
}
