package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/kelplabs/pricebook/internal/analyte/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Get(ctx context.Context, db *gorm.DB, id int64) (*domain.Analyte, error) {
	var analyte domain.Analyte
	err := db.WithContext(ctx).First(&analyte, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &analyte, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.Filter) ([]domain.Analyte, error) {
	var analytes []domain.Analyte
	stmt := db.WithContext(ctx).Model(&domain.Analyte{})

	if category := strings.TrimSpace(filter.Category); category != "" {
		stmt = stmt.Where("category = ?", category)
	}
	if method := strings.TrimSpace(filter.Method); method != "" {
		stmt = stmt.Where("method = ?", method)
	}
	if name := strings.TrimSpace(filter.NameContains); name != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if filter.ActiveOnly {
		stmt = stmt.Where("active = ?", true)
	}

	if err := stmt.Order("id asc").Find(&analytes).Error; err != nil {
		return nil, err
	}
	return analytes, nil
}

func (r *repo) ListByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.Analyte, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var analytes []domain.Analyte
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&analytes).Error; err != nil {
		return nil, err
	}
	return analytes, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, analyte *domain.Analyte) error {
	return db.WithContext(ctx).Create(analyte).Error
}

func (r *repo) Save(ctx context.Context, db *gorm.DB, analyte *domain.Analyte) error {
	return db.WithContext(ctx).Save(analyte).Error
}

func (r *repo) SKUTaken(ctx context.Context, db *gorm.DB, sku string, excludeID int64) (bool, error) {
	if strings.TrimSpace(sku) == "" {
		return false, nil
	}
	var count int64
	err := db.WithContext(ctx).Model(&domain.Analyte{}).
		Where("sku = ? AND id <> ?", sku, excludeID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
