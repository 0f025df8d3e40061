package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/coolmes833/swapskills/internal/config"
)

// countTTL bounds how long a cached counter survives without activity.
const countTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// KeyForMatchCount generates Redis key for a user's match count
func (c *RedisCache) KeyForMatchCount(userID string) string {
	return fmt.Sprintf("matches:count:%s", userID)
}

// SetMatchCount stores the count and refreshes its TTL.
func (c *RedisCache) SetMatchCount(ctx context.Context, userID string, count int64) error {
	return c.Client.Set(ctx, c.KeyForMatchCount(userID), count, countTTL).Err()
}

// GetMatchCount returns the cached count. ok is false on a cache miss.
func (c *RedisCache) GetMatchCount(ctx context.Context, userID string) (count int64, ok bool, err error) {
	key := c.KeyForMatchCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	// refresh TTL since this user is active
	_ = c.Client.Expire(ctx, key, countTTL).Err()
	return n, true, nil
}

// InvalidateMatchCounts drops the cached counts of every given user.
func (c *RedisCache) InvalidateMatchCounts(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, c.KeyForMatchCount(id))
	}
	return c.Del(ctx, keys...)
}

// Publish signals a change on channel. Together with Listen this makes
// RedisCache a docstore.Notifier shared by every server instance.
func (c *RedisCache) Publish(ctx context.Context, channel string) error {
	return c.Client.Publish(ctx, channel, "changed").Err()
}

// Listen calls fn for every message on channel until stop is called or ctx ends.
// It returns once the subscription is confirmed by the server.
func (c *RedisCache) Listen(ctx context.Context, channel string, fn func()) (func(), error) {
	ps := c.Client.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	msgs := ps.Channel()
	go func() {
		for range msgs {
			fn()
		}
	}()

	return func() { _ = ps.Close() }, nil
}
