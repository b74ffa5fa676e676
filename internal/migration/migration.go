package migration

import (
	analytedomain "github.com/kelplabs/pricebook/internal/analyte/domain"
	auditdomain "github.com/kelplabs/pricebook/internal/audit/domain"
	costdomain "github.com/kelplabs/pricebook/internal/costmodel/domain"
	kitdomain "github.com/kelplabs/pricebook/internal/kit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Run creates the catalog schema on startup so the service is usable out of
// the box against a fresh database.
func Run(db *gorm.DB, log *zap.Logger) error {
	if err := db.AutoMigrate(
		&analytedomain.Analyte{},
		&costdomain.CostRecord{},
		&kitdomain.TestKit{},
		&auditdomain.AuditEntry{},
	); err != nil {
		return err
	}
	log.Named("migration").Info("schema ready")
	return nil
}

var Module = fx.Module("migration",
	fx.Invoke(Run),
)
