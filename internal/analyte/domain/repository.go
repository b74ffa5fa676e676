package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Get(ctx context.Context, db *gorm.DB, id int64) (*Analyte, error)
	List(ctx context.Context, db *gorm.DB, filter Filter) ([]Analyte, error)
	ListByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]Analyte, error)
	Insert(ctx context.Context, db *gorm.DB, analyte *Analyte) error
	Save(ctx context.Context, db *gorm.DB, analyte *Analyte) error
	// SKUTaken reports whether a non-empty SKU exists on any analyte other
	// than excludeID, active or not.
	SKUTaken(ctx context.Context, db *gorm.DB, sku string, excludeID int64) (bool, error)
}
