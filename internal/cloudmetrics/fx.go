package cloudmetrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/hourstay/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const pushInterval = 30 * time.Minute

var Module = fx.Module("cloud.metrics",
	fx.Provide(NewPusher),
	fx.Provide(func(cfg config.Config, pusher Pusher, logger *zap.Logger) *CloudMetrics {
		if !cfg.Cloud.Metrics.Enabled || pusher == nil {
			return nil
		}
		return New(prometheus.NewRegistry(), pusher, cfg.AppVersion, logger)
	}),
	fx.Invoke(startWorker),
)

func startWorker(lc fx.Lifecycle, c *CloudMetrics, logger *zap.Logger, db *gorm.DB) {
	if c == nil {
		return
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			logger.Info("starting cloud metrics background worker")
			go func() {
				ticker := time.NewTicker(pushInterval)
				defer ticker.Stop()

				pushOnce(ctx, c, db, logger)
				for {
					select {
					case <-ticker.C:
						pushOnce(ctx, c, db, logger)
					case <-ctx.Done():
						logger.Info("stopping cloud metrics background worker")
						return
					}
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func pushOnce(ctx context.Context, c *CloudMetrics, db *gorm.DB, logger *zap.Logger) {
	if err := c.Refresh(ctx, db); err != nil {
		logger.Warn("cloud metrics refresh failed", zap.Error(err))
	}
	if err := c.Push(ctx); err != nil {
		logger.Error("cloud metrics push failed", zap.Error(err))
	}
}
