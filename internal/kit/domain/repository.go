package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Get(ctx context.Context, db *gorm.DB, id int64) (*TestKit, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]TestKit, error)
	Insert(ctx context.Context, db *gorm.DB, kit *TestKit) error
	Save(ctx context.Context, db *gorm.DB, kit *TestKit) error
}
