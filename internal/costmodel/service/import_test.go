package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	auditdomain "github.com/kelplabs/pricebook/internal/audit/domain"
	auditrepo "github.com/kelplabs/pricebook/internal/audit/repository"
	auditservice "github.com/kelplabs/pricebook/internal/audit/service"
	"github.com/kelplabs/pricebook/internal/costmodel/domain"
	"github.com/kelplabs/pricebook/internal/costmodel/repository"
	"github.com/kelplabs/pricebook/internal/observability/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// The instrument set registers on the process-global registry; build it once
// for this binary.
var importMetrics = metrics.New()

func TestImportCSV_CountsRowOutcomes(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.CostRecord{}, &auditdomain.AuditEntry{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	audit := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepo.Provide(),
	})
	svc := NewService(Params{
		DB:      db,
		Log:     zap.NewNop(),
		Repo:    repository.Provide(),
		Audit:   audit,
		Metrics: importMetrics,
	})

	csv := strings.Join([]string{
		`Test ID,Test Name,Labor Minutes,Labor Rate ($/hr)`,
		`C-001,pH,10,35`,
		`,Missing ID,5,30`,
		`C-002,Conductivity,8,35`,
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Errors, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(importMetrics.ImportRowsTotal.WithLabelValues("imported")))
	assert.Equal(t, 1.0, testutil.ToFloat64(importMetrics.ImportRowsTotal.WithLabelValues("rejected")))
}

func TestImportCSV_ParsesSpreadsheetCells(t *testing.T) {
	svc, _ := setupCostService(t)

	// Columns deliberately out of the canonical order; money cells carry
	// currency signs, thousands separators and percent suffixes.
	csv := strings.Join([]string{
		`Test Name,Test ID,Labor Rate ($/hr),Labor Minutes,Consumables Cost,Reagents Cost,Equipment Time Cost,QC Cost (% of direct),Overhead Allocation,Certification/Compliance Cost,Cost Confidence Level,Last Cost Review Date`,
		`pH,C-001,$35.00,10,"$0.50",$0.50,$0.25,15%,"$3.00",$1.00,High,2026-01-15`,
		`Metals Panel,C-020,"$1,234.50",45,$4.60,$6.80,$9.50,25%,$5.50,$1.25,Low,`,
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	assert.Empty(t, result.Errors)

	record, err := svc.Get(context.Background(), "C-001")
	require.NoError(t, err)
	assert.Equal(t, "pH", record.TestName)
	assert.Equal(t, 10, record.LaborMinutes)
	assertDec(t, "35", record.LaborRate)
	assertDec(t, "15", record.QCPercentage)
	assert.Equal(t, domain.ConfidenceHigh, record.ConfidenceLevel)
	assert.Equal(t, "2026-01-15", record.LastReview)
	assertDec(t, "5.83", record.LaborCost)
	assertDec(t, "12.14", record.TotalInternalCost)

	metals, err := svc.Get(context.Background(), "C-020")
	require.NoError(t, err)
	assertDec(t, "1234.5", metals.LaborRate)
	assert.Equal(t, domain.ConfidenceLow, metals.ConfidenceLevel)
	assert.NotEmpty(t, metals.LastReview) // defaulted to today
}

func TestImportCSV_CollectsRowErrors(t *testing.T) {
	svc, _ := setupCostService(t)

	csv := strings.Join([]string{
		`Test ID,Test Name,Labor Minutes,Labor Rate ($/hr)`,
		`C-001,pH,10,35`,
		`,Missing ID,5,30`,
		`C-001,Duplicate,5,30`,
		`C-002,Conductivity,8,35`,
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 3, result.Errors[0].Line)
	assert.Equal(t, 4, result.Errors[1].Line)
	assert.Contains(t, result.Errors[1].Message, "duplicate Test ID")
}

func TestImportCSV_ReplacesExistingModel(t *testing.T) {
	svc, db := setupCostService(t)
	upsertBaseline(t, svc, "C-OLD")

	csv := strings.Join([]string{
		`Test ID,Test Name,Labor Minutes,Labor Rate ($/hr)`,
		`C-101,pH,10,35`,
		`C-102,Conductivity,8,35`,
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Imported)

	// The previous model is gone wholesale.
	_, err = svc.Get(context.Background(), "C-OLD")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	records, err := svc.List(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	entries := auditEntries(t, db)
	last := entries[len(entries)-1]
	assert.Equal(t, auditdomain.BulkImport, last.ChangeType)
	assert.Equal(t, "*", last.RecordID)
	assert.Equal(t, "import", last.FieldName)
	assert.Equal(t, "1 records", last.OldValue)
	assert.Equal(t, "2 records", last.NewValue)
}

func TestImportCSV_StoredDerivedCellsAreIgnored(t *testing.T) {
	svc, _ := setupCostService(t)

	// The file claims absurd derived values; the importer recomputes.
	csv := strings.Join([]string{
		`Test ID,Labor Minutes,Labor Rate ($/hr),Consumables Cost,Reagents Cost,Equipment Time Cost,QC Cost (% of direct),Overhead Allocation,Certification/Compliance Cost,Labor Cost,QC Cost Amount,Total Internal Cost`,
		`C-001,10,35,0.50,0.50,0.25,15,3.00,1.00,99.99,99.99,999.99`,
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)

	record, err := svc.Get(context.Background(), "C-001")
	require.NoError(t, err)
	assertDec(t, "5.83", record.LaborCost)
	assertDec(t, "1.06", record.QCCost)
	assertDec(t, "12.14", record.TotalInternalCost)
}

func TestImportCSV_RequiresTestIDHeader(t *testing.T) {
	svc, _ := setupCostService(t)

	_, err := svc.ImportCSV(context.Background(), strings.NewReader("Test Name,Labor Minutes\npH,10\n"))
	assert.ErrorIs(t, err, domain.ErrParse)
}
