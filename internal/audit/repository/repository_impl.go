package repository

import (
	"context"
	"strings"

	"github.com/kelplabs/pricebook/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entries []domain.AuditEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&entries).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, req domain.QueryRequest) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	stmt := db.WithContext(ctx).Model(&domain.AuditEntry{})

	if req.ChangeType != "" {
		stmt = stmt.Where("change_type = ?", req.ChangeType)
	}
	if req.TableName != "" {
		stmt = stmt.Where("table_name = ?", req.TableName)
	}
	if req.StartAt != nil {
		stmt = stmt.Where("timestamp >= ?", req.StartAt.UTC())
	}
	if req.EndAt != nil {
		stmt = stmt.Where("timestamp <= ?", req.EndAt.UTC())
	}
	if contains := strings.TrimSpace(req.Contains); contains != "" {
		pattern := "%" + contains + "%"
		stmt = stmt.Where("field_name LIKE ? OR old_value LIKE ? OR new_value LIKE ?", pattern, pattern, pattern)
	}

	stmt = stmt.Order("id asc")
	if req.Limit > 0 {
		stmt = stmt.Limit(req.Limit)
	}

	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
