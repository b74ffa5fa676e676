package domain

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Service appends and queries the audit trail. Append takes the caller's
// transaction handle so a failed mutation rolls its entries back with it.
type Service interface {
	Append(ctx context.Context, tx *gorm.DB, entries ...AuditEntry) error
	Query(ctx context.Context, req QueryRequest) ([]AuditEntry, error)
}

type QueryRequest struct {
	ChangeType ChangeType
	TableName  Table
	StartAt    *time.Time
	EndAt      *time.Time
	// Contains matches a substring of field_name, old_value or new_value.
	Contains string
	Limit    int
}

var (
	ErrInvalidTimeRange  = errors.New("invalid_time_range")
	ErrInvalidChangeType = errors.New("invalid_change_type")
	ErrInvalidTable      = errors.New("invalid_table")
)

// ValidChangeType reports whether ct is one of the recorded change kinds.
func ValidChangeType(ct ChangeType) bool {
	switch ct {
	case Insert, Update, Delete, BulkUpdate, BulkImport:
		return true
	}
	return false
}

// ValidTable reports whether t names an audited table.
func ValidTable(t Table) bool {
	switch t {
	case TableAnalytes, TableTestKits, TableCostData:
		return true
	}
	return false
}
