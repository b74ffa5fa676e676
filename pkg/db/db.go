// Package db builds the process-resident catalog store. The console keeps all
// state in an in-memory sqlite database; nothing survives a restart.
package db

import (
	"github.com/glebarez/sqlite"
	"github.com/kelplabs/pricebook/internal/config"
	"github.com/kelplabs/pricebook/internal/observability/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// New opens the sqlite store described by cfg.DBDSN.
func New(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	gormCfg := logger.DefaultGormLoggerConfig()
	if cfg.Debug() {
		gormCfg.Level = gormlogger.Info
	}

	gdb, err := gorm.Open(sqlite.Open(cfg.DBDSN), &gorm.Config{
		Logger:         logger.NewGormLogger(gormCfg),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	// The catalog is single-writer; one connection keeps the shared-cache
	// memory database alive for the process lifetime.
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	log.Named("db").Info("store opened", zap.String("dsn", cfg.DBDSN))
	return gdb, nil
}

var Module = fx.Module("db",
	fx.Provide(New),
)
