package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Table names the mutable surfaces covered by the audit trail.
type Table string

const (
	TableAnalytes Table = "analytes"
	TableTestKits Table = "test_kits"
	TableCostData Table = "cost_data"
)

type ChangeType string

const (
	Insert     ChangeType = "INSERT"
	Update     ChangeType = "UPDATE"
	Delete     ChangeType = "DELETE"
	BulkUpdate ChangeType = "BULK_UPDATE"
	BulkImport ChangeType = "BULK_IMPORT"
)

// FieldAll marks an entry covering a whole-record insert rather than one field.
const FieldAll = "all"

// AuditEntry is one immutable field-level change. Entries are appended inside
// the mutating transaction and never edited or deleted; their insertion order
// is the serialisation witness for all writes.
type AuditEntry struct {
	ID         snowflake.ID `json:"id" gorm:"primaryKey"`
	Timestamp  time.Time    `json:"timestamp" gorm:"not null;index"`
	Table      Table        `json:"table_name" gorm:"column:table_name;type:text;not null;index"`
	RecordID   string       `json:"record_id" gorm:"type:text;not null;index"`
	FieldName  string       `json:"field_name" gorm:"type:text;not null"`
	OldValue   string       `json:"old_value" gorm:"type:text"`
	NewValue   string       `json:"new_value" gorm:"type:text"`
	ChangeType ChangeType   `json:"change_type" gorm:"type:text;not null;index"`
	UserName   string       `json:"user_name" gorm:"type:text;not null"`
}

func (AuditEntry) TableName() string { return "audit_log" }

// FieldChange builds an unstamped entry; the service fills id, timestamp and
// user on append.
func FieldChange(table Table, recordID, field, oldValue, newValue string, changeType ChangeType) AuditEntry {
	return AuditEntry{
		Table:      table,
		RecordID:   recordID,
		FieldName:  field,
		OldValue:   oldValue,
		NewValue:   newValue,
		ChangeType: changeType,
	}
}
