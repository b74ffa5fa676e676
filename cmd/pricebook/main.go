package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/kelplabs/pricebook/internal/analyte"
	"github.com/kelplabs/pricebook/internal/audit"
	"github.com/kelplabs/pricebook/internal/config"
	"github.com/kelplabs/pricebook/internal/costmodel"
	"github.com/kelplabs/pricebook/internal/kit"
	"github.com/kelplabs/pricebook/internal/migration"
	"github.com/kelplabs/pricebook/internal/observability/logger"
	"github.com/kelplabs/pricebook/internal/observability/metrics"
	"github.com/kelplabs/pricebook/internal/pricing"
	"github.com/kelplabs/pricebook/internal/seed"
	"github.com/kelplabs/pricebook/internal/server"
	"github.com/kelplabs/pricebook/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		metrics.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,

		// Functional domains
		audit.Module,
		costmodel.Module,
		analyte.Module,
		kit.Module,
		pricing.Module,

		seed.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
