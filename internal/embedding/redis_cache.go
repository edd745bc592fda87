package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const redisKeyPattern = "namesim:embedding:%s"

// RedisCache shares embeddings between processes through Redis. Values are
// JSON arrays stored with a TTL.
type RedisCache struct {
	client redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCache returns a cache over client. A zero ttl stores entries without expiry.
func NewRedisCache(client redis.Cmdable, ttl time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{client: client, ttl: ttl, logger: logger}
}

// RedisKey returns the Redis key for a cache key. Keys are hashed so that long
// names stay bounded.
func RedisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf(redisKeyPattern, hex.EncodeToString(sum[:]))
}

// Get returns the cached embedding. Redis errors are logged and reported as a miss.
func (c *RedisCache) Get(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.client.Get(ctx, RedisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.warn("redis get failed", err)
		return nil, false
	}
	var v []float32
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		c.warn("redis entry is not a vector", err)
		return nil, false
	}
	return v, true
}

// Set stores the embedding. Failures are logged; the cache is best effort.
func (c *RedisCache) Set(ctx context.Context, key string, value []float32) {
	data, err := json.Marshal(value)
	if err != nil {
		c.warn("failed to marshal embedding", err)
		return
	}
	if err := c.client.Set(ctx, RedisKey(key), string(data), c.ttl).Err(); err != nil {
		c.warn("redis set failed", err)
	}
}

func (c *RedisCache) warn(msg string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, zap.Error(err))
	}
}

// Close closes the underlying client when it owns a connection pool.
func (c *RedisCache) Close() error {
	if cl, ok := c.client.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
