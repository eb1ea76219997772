package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/acquaintance/internal/config"
)

// LikeCountTTL is refreshed whenever a like counter is read or written.
const LikeCountTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr:         cfg.Redis.Addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
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

// SetJSON stores value marshalled as JSON.
func (c *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}
	return c.Client.Set(ctx, key, b, ttl).Err()
}

// GetJSON loads key into dest. The bool is false on a cache miss.
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	b, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	return true, nil
}

// KeyForLikeCount generates Redis key for a user's like count
func (c *RedisCache) KeyForLikeCount(userID uint64) string {
	return fmt.Sprintf("likes:count:%d", userID)
}

// KeyForUser generates Redis key for a cached user detail
func (c *RedisCache) KeyForUser(userID uint64) string {
	return fmt.Sprintf("users:detail:%d", userID)
}

// IncrLikeCount bumps an existing counter. A missing counter is left missing so the
// next read recomputes it from the database instead of starting from 1.
func (c *RedisCache) IncrLikeCount(ctx context.Context, userID uint64) error {
	key := c.KeyForLikeCount(userID)
	return incrIfExistsScript.Run(ctx, c.Client, []string{key}, LikeCountTTL.Milliseconds()).Err()
}

func (c *RedisCache) SetLikeCount(ctx context.Context, userID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForLikeCount(userID), count, LikeCountTTL).Err()
}

// GetLikeCount returns the cached counter; ok is false on a miss.
func (c *RedisCache) GetLikeCount(ctx context.Context, userID uint64) (count int64, ok bool, err error) {
	key := c.KeyForLikeCount(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	// refresh TTL on access
	_ = c.Client.PExpire(ctx, key, LikeCountTTL).Err()
	return n, true, nil
}

var incrIfExistsScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 1 then
  redis.call("INCR", KEYS[1])
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
  return 1
end
return 0
`)

var incrExpireScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// Hit atomically counts one hit against key inside a fixed window and reports
// the running count and the time left in the window.
func (c *RedisCache) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	count, err := incrExpireScript.Run(ctx, c.Client, []string{key}, window.Milliseconds()).Int64()
	if err != nil {
		return 0, 0, err
	}
	ttl, err := c.Client.PTTL(ctx, key).Result()
	if err != nil || ttl < 0 {
		ttl = 0
	}
	return count, ttl, nil
}
