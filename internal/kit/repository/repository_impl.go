package repository

import (
	"context"
	"errors"

	"github.com/kelplabs/pricebook/internal/kit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Get(ctx context.Context, db *gorm.DB, id int64) (*domain.TestKit, error) {
	var kit domain.TestKit
	err := db.WithContext(ctx).First(&kit, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &kit, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]domain.TestKit, error) {
	var kits []domain.TestKit
	stmt := db.WithContext(ctx).Model(&domain.TestKit{})
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}
	if err := stmt.Order("id asc").Find(&kits).Error; err != nil {
		return nil, err
	}
	return kits, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, kit *domain.TestKit) error {
	return db.WithContext(ctx).Create(kit).Error
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, kit *domain.TestKit) error {
	return db.WithContext(ctx).Save(kit).Error
}
