package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entries []AuditEntry) error
	List(ctx context.Context, db *gorm.DB, req QueryRequest) ([]AuditEntry, error)
}
