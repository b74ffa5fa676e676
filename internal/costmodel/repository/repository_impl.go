package repository

import (
	"context"
	"errors"

	"github.com/kelplabs/pricebook/internal/costmodel/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Get(ctx context.Context, db *gorm.DB, costID string) (*domain.CostRecord, error) {
	var record domain.CostRecord
	err := db.WithContext(ctx).First(&record, "cost_id = ?", costID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]domain.CostRecord, error) {
	var records []domain.CostRecord
	stmt := db.WithContext(ctx).Model(&domain.CostRecord{})
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}
	if err := stmt.Order("cost_id asc").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, record *domain.CostRecord) error {
	return db.WithContext(ctx).Save(record).Error
}

func (r *repo) Count(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.CostRecord{}).Count(&count).Error
	return count, err
}

func (r *repo) DeleteAll(ctx context.Context, db *gorm.DB) error {
	return db.WithContext(ctx).Where("1 = 1").Delete(&domain.CostRecord{}).Error
}

func (r *repo) InsertAll(ctx context.Context, db *gorm.DB, records []domain.CostRecord) error {
	if len(records) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&records).Error
}
