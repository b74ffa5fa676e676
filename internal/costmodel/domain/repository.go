package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Get(ctx context.Context, db *gorm.DB, costID string) (*CostRecord, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]CostRecord, error)
	Save(ctx context.Context, db *gorm.DB, record *CostRecord) error
	Count(ctx context.Context, db *gorm.DB) (int64, error)
	DeleteAll(ctx context.Context, db *gorm.DB) error
	InsertAll(ctx context.Context, db *gorm.DB, records []CostRecord) error
}
