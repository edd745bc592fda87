package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/hyperjump/namesim/internal/config"
)

// NewEmbedder builds the configured provider and its decorators:
// provider -> resilience (hosted only) -> normalization -> cache.
func NewEmbedder(cfg *config.EmbeddingConfig, logger *zap.Logger) (Embedder, error) {
	var e Embedder
	switch cfg.Provider {
	case "hosted", "":
		hosted, err := NewHostedEmbedder(HostedConfig{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Token:      cfg.Token(),
			Dimensions: cfg.Dimensions,
			BatchSize:  cfg.BatchSize,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		r := cfg.Resilience
		e = NewResilientEmbedder(hosted, ResilienceConfig{
			Timeout:         time.Duration(r.TimeoutSeconds) * time.Second,
			RateLimit:       r.RateLimit,
			Burst:           r.Burst,
			MaxRetries:      r.MaxRetries,
			Backoff:         time.Duration(r.BackoffMillis) * time.Millisecond,
			BreakerFailures: r.BreakerFailures,
			BreakerTimeout:  time.Duration(r.BreakerTimeoutSeconds) * time.Second,
		}, logger)
	case "onnx":
		onnx, err := NewONNXEmbedder(ONNXConfig{
			ModelPath:  cfg.ModelPath,
			VocabPath:  cfg.VocabPath,
			Dimensions: cfg.Dimensions,
			MaxTokens:  cfg.MaxTokens,
		})
		if err != nil {
			return nil, err
		}
		e = onnx
	case "mock":
		e = NewMockEmbedder(cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: hosted, onnx, mock)", cfg.Provider)
	}

	if cfg.Normalize {
		e = NewNormalizingEmbedder(e)
	}

	switch cfg.Cache.Type {
	case "lru", "":
		e = NewCachedEmbedder(e, NewEmbeddingCache(cfg.Cache.Size))
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := client.Ping(ctx).Err(); err != nil && logger != nil {
			logger.Warn("redis embedding cache unreachable; continuing without hits",
				zap.String("addr", cfg.Cache.RedisAddr), zap.Error(err))
		}
		cancel()
		e = NewCachedEmbedder(e, NewRedisCache(client, cfg.Cache.TTL(), logger))
	case "none":
	default:
		return nil, fmt.Errorf("unknown embedding cache: %s (supported: lru, redis, none)", cfg.Cache.Type)
	}
	return e, nil
}
