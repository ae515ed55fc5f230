package cache

import (
	"context"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/hourstay/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultMemoryDocuments = 512

var Module = fx.Module("cache",
	fx.Provide(
		NewRedisClient,
		NewDocumentCache,
	),
)

// NewRedisClient returns nil when no Redis address is configured.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) *redis.Client {
	addr := strings.TrimSpace(cfg.Redis.Addr)
	if addr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("redis ping failed", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return client
}

func NewDocumentCache(cfg config.Config, client *redis.Client, log *zap.Logger) DocumentCache {
	switch {
	case cfg.DocumentCacheTTLSeconds <= 0:
		log.Info("document cache disabled")
		return NewNoopDocumentCache()
	case client != nil:
		log.Info("document cache backed by redis")
		return NewRedisDocumentCache(client)
	default:
		return NewMemoryDocumentCache(defaultMemoryDocuments)
	}
}
