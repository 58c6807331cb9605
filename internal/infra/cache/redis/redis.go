package redisx

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Cache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

type Config struct {
	Addr     string
	DB       int
	Password string
}

func New(cfg Config, logger *zap.Logger) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		DB:       cfg.DB,
		Password: cfg.Password,
	})
	return &Cache{rdb: rdb, logger: logger}
}

func (c *Cache) Ping(ctx context.Context) error {
	err := c.rdb.Ping(ctx).Err()
	if err != nil {
		c.logger.Warn("PING failed", zap.Error(err))
	} else {
		c.logger.Debug("PING ok")
	}
	return err
}

func (c *Cache) Close() {
	if c.rdb == nil {
		c.logger.Info("nothing to close")
		return
	}

	if err := c.rdb.Close(); err != nil {
		c.logger.Error("error while closing", zap.Error(err))
		return
	}

	c.logger.Info("closed")
}

// Get returns nil, nil on a miss.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.logger.Debug("GET miss", zap.String("key", key))
		return nil, nil
	}
	if err != nil {
		c.logger.Warn("GET failed", zap.String("key", key), zap.Error(err))
	} else {
		c.logger.Debug("GET hit", zap.String("key", key), zap.Int("bytes", len(b)))
	}
	return b, err
}

// Set stores val; ttlSeconds <= 0 means no expiry.
func (c *Cache) Set(ctx context.Context, key string, val []byte, ttlSeconds int) error {
	ttl := seconds(ttlSeconds)
	err := c.rdb.Set(ctx, key, val, ttl).Err()
	if err != nil {
		c.logger.Warn("SET failed", zap.String("key", key), zap.Error(err))
	} else {
		c.logger.Debug("SET ok", zap.String("key", key), zap.Duration("ttl", ttl))
	}
	return err
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	n, err := c.rdb.Del(ctx, keys...).Result()
	if err != nil {
		c.logger.Warn("DEL failed", zap.Strings("keys", keys), zap.Error(err))
	} else {
		c.logger.Debug("DEL ok", zap.Strings("keys", keys), zap.Int64("deleted", n))
	}
	return err
}

// DelPrefix removes every key starting with prefix using SCAN, so it never
// blocks the server the way KEYS would.
func (c *Cache) DelPrefix(ctx context.Context, prefix string) (int, error) {
	var (
		cursor  uint64
		deleted int
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			c.logger.Warn("SCAN failed", zap.String("prefix", prefix), zap.Error(err))
			return deleted, err
		}
		if len(keys) > 0 {
			n, err := c.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	c.logger.Debug("DEL prefix", zap.String("prefix", prefix), zap.Int("deleted", deleted))
	return deleted, nil
}

// Keys lists every key starting with prefix using SCAN.
func (c *Cache) Keys(ctx context.Context, prefix string) ([]string, error) {
	var (
		cursor uint64
		out    []string
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			c.logger.Warn("SCAN failed", zap.String("prefix", prefix), zap.Error(err))
			return out, err
		}
		out = append(out, keys...)
		if next == 0 {
			return out, nil
		}
		cursor = next
	}
}

// SetNX sets the value only if the key does not exist yet.
func (c *Cache) SetNX(ctx context.Context, key string, val []byte, ttlSeconds int) (bool, error) {
	ttl := seconds(ttlSeconds)
	ok, err := c.rdb.SetNX(ctx, key, val, ttl).Result()
	if err != nil {
		c.logger.Warn("SETNX failed", zap.String("key", key), zap.Error(err))
	} else {
		c.logger.Debug("SETNX", zap.String("key", key), zap.Bool("set", ok))
	}
	return ok, err
}

func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	n, err := c.rdb.Exists(ctx, key).Result()
	if err != nil {
		c.logger.Warn("EXISTS failed", zap.String("key", key), zap.Error(err))
		return false, err
	}
	return n == 1, nil
}

func seconds(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
