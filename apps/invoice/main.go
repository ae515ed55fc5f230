package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hourstay/internal/audit"
	"github.com/smallbiznis/hourstay/internal/authorization"
	"github.com/smallbiznis/hourstay/internal/booking"
	"github.com/smallbiznis/hourstay/internal/cache"
	"github.com/smallbiznis/hourstay/internal/clock"
	"github.com/smallbiznis/hourstay/internal/config"
	"github.com/smallbiznis/hourstay/internal/invoice"
	"github.com/smallbiznis/hourstay/internal/observability"
	"github.com/smallbiznis/hourstay/internal/providers/pdf"
	"github.com/smallbiznis/hourstay/internal/ratelimit"
	"github.com/smallbiznis/hourstay/internal/server"
	"github.com/smallbiznis/hourstay/pkg/db"
	"go.uber.org/fx"
)

// The invoice service only serves document downloads. It shares the database
// with the API and never runs migrations.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		cache.Module,     // Rendered documents are shared through Redis
		ratelimit.Module, // Downloads are rate limited

		authorization.Module,
		audit.Module,
		booking.Module,
		pdf.Module,
		invoice.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterDocumentRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}
