package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hourstay/internal/audit"
	"github.com/smallbiznis/hourstay/internal/authorization"
	"github.com/smallbiznis/hourstay/internal/booking"
	"github.com/smallbiznis/hourstay/internal/cache"
	"github.com/smallbiznis/hourstay/internal/clock"
	"github.com/smallbiznis/hourstay/internal/cloudmetrics"
	"github.com/smallbiznis/hourstay/internal/config"
	"github.com/smallbiznis/hourstay/internal/invoice"
	"github.com/smallbiznis/hourstay/internal/migration"
	"github.com/smallbiznis/hourstay/internal/observability"
	"github.com/smallbiznis/hourstay/internal/providers"
	"github.com/smallbiznis/hourstay/internal/ratelimit"
	"github.com/smallbiznis/hourstay/internal/server"
	"github.com/smallbiznis/hourstay/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		cache.Module,
		ratelimit.Module,
		cloudmetrics.Module,

		// Functional Domains
		authorization.Module,
		audit.Module,
		booking.Module,
		providers.Module,
		invoice.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
