package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/kelplabs/pricebook/internal/actorcontext"
	"github.com/kelplabs/pricebook/internal/audit/domain"
	"github.com/kelplabs/pricebook/internal/audit/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupAuditService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.AuditEntry{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, db
}

func TestAppend_StampsEntries(t *testing.T) {
	svc, db := setupAuditService(t)
	ctx := actorcontext.WithActor(context.Background(), "Alex")

	err := svc.Append(ctx, db,
		domain.FieldChange(domain.TableAnalytes, "1", "price", "15", "18", domain.Update),
		domain.FieldChange(domain.TableAnalytes, "1", "name", "pH", "pH (field)", domain.Update),
	)
	require.NoError(t, err)

	entries, err := svc.Query(ctx, domain.QueryRequest{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	for _, e := range entries {
		assert.NotZero(t, e.ID)
		assert.Equal(t, domain.TableAnalytes, e.Table)
		assert.Equal(t, "Alex", e.UserName)
		assert.False(t, e.Timestamp.IsZero())
		// Audit timestamps carry second precision.
		assert.Zero(t, e.Timestamp.Nanosecond())
	}
	// Insertion order is preserved.
	assert.Equal(t, "price", entries[0].FieldName)
	assert.Equal(t, "name", entries[1].FieldName)
	assert.Less(t, int64(entries[0].ID), int64(entries[1].ID))

	// Entries land in the audit_log table under the table_name column.
	var rows int64
	require.NoError(t, db.Table("audit_log").Where("table_name = ?", domain.TableAnalytes).Count(&rows).Error)
	assert.EqualValues(t, 2, rows)
}

func TestAppend_DefaultsActor(t *testing.T) {
	svc, db := setupAuditService(t)

	err := svc.Append(context.Background(), db,
		domain.FieldChange(domain.TableCostData, "C-001", "labor_rate", "35", "40", domain.BulkUpdate),
	)
	require.NoError(t, err)

	entries, err := svc.Query(context.Background(), domain.QueryRequest{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, actorcontext.DefaultUser, entries[0].UserName)
}

func TestAppend_EmptyIsNoOp(t *testing.T) {
	svc, db := setupAuditService(t)
	require.NoError(t, svc.Append(context.Background(), db))

	entries, err := svc.Query(context.Background(), domain.QueryRequest{})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestQuery_Filters(t *testing.T) {
	svc, db := setupAuditService(t)
	ctx := context.Background()

	require.NoError(t, svc.Append(ctx, db,
		domain.FieldChange(domain.TableAnalytes, "1", "all", "", `{"name":"pH"}`, domain.Insert),
		domain.FieldChange(domain.TableAnalytes, "1", "price", "15", "18", domain.Update),
		domain.FieldChange(domain.TableCostData, "C-001", "labor_rate", "35", "40", domain.BulkUpdate),
	))

	byChangeType, err := svc.Query(ctx, domain.QueryRequest{ChangeType: domain.Update})
	require.NoError(t, err)
	require.Len(t, byChangeType, 1)
	assert.Equal(t, "price", byChangeType[0].FieldName)

	byTable, err := svc.Query(ctx, domain.QueryRequest{TableName: domain.TableCostData})
	require.NoError(t, err)
	require.Len(t, byTable, 1)
	assert.Equal(t, "C-001", byTable[0].RecordID)

	byContains, err := svc.Query(ctx, domain.QueryRequest{Contains: "labor"})
	require.NoError(t, err)
	assert.Len(t, byContains, 1)

	limited, err := svc.Query(ctx, domain.QueryRequest{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	future := time.Now().UTC().Add(time.Hour)
	none, err := svc.Query(ctx, domain.QueryRequest{StartAt: &future})
	require.NoError(t, err)
	assert.Empty(t, none)

	past := time.Now().UTC().Add(-time.Hour)
	window, err := svc.Query(ctx, domain.QueryRequest{StartAt: &past, EndAt: &future})
	require.NoError(t, err)
	assert.Len(t, window, 3)
}

func TestQuery_RejectsInvalidFilters(t *testing.T) {
	svc, _ := setupAuditService(t)
	ctx := context.Background()

	_, err := svc.Query(ctx, domain.QueryRequest{ChangeType: "TRUNCATE"})
	assert.ErrorIs(t, err, domain.ErrInvalidChangeType)

	_, err = svc.Query(ctx, domain.QueryRequest{TableName: "users"})
	assert.ErrorIs(t, err, domain.ErrInvalidTable)

	start := time.Now().UTC()
	end := start.Add(-time.Hour)
	_, err = svc.Query(ctx, domain.QueryRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, domain.ErrInvalidTimeRange)
}
