package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/marketlens/brandscope-backend/internal/logger"
)

// VectorCache is a read-through cache for embedding vectors keyed by
// normalized surface form. Misses are not errors.
type VectorCache interface {
	Get(ctx context.Context, key string) ([]float32, bool, error)
	Set(ctx context.Context, key string, vec []float32, ttl time.Duration) error
	Close() error
}

type vectorCache struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

// NewVectorCache connects using REDIS_ADDR. The prefix keeps embedding keys
// apart from anything else sharing the instance.
func NewVectorCache(log *logger.Logger) (VectorCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	prefix := strings.TrimSpace(os.Getenv("REDIS_EMBED_PREFIX"))
	if prefix == "" {
		prefix = "embed"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &vectorCache{
		log:    log.With("service", "RedisVectorCache"),
		rdb:    rdb,
		prefix: prefix,
	}, nil
}

func (c *vectorCache) fullKey(key string) string {
	return c.prefix + ":" + key
}

func (c *vectorCache) Get(ctx context.Context, key string) ([]float32, bool, error) {
	raw, err := c.rdb.Get(ctx, c.fullKey(key)).Bytes()
	if err == goredis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var vec []float32
	if err := json.Unmarshal(raw, &vec); err != nil {
		// A corrupt entry behaves like a miss; the caller recomputes.
		c.log.Warn("Dropping corrupt cached vector", "key", key, "error", err)
		_ = c.rdb.Del(ctx, c.fullKey(key)).Err()
		return nil, false, nil
	}
	return vec, true, nil
}

func (c *vectorCache) Set(ctx context.Context, key string, vec []float32, ttl time.Duration) error {
	raw, err := json.Marshal(vec)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.fullKey(key), raw, ttl).Err()
}

func (c *vectorCache) Close() error {
	return c.rdb.Close()
}
