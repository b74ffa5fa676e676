package domain

import (
	"context"
	"errors"
	"io"

	"github.com/shopspring/decimal"
)

type Service interface {
	Get(ctx context.Context, costID string) (*CostRecord, error)
	List(ctx context.Context, activeOnly bool) ([]CostRecord, error)
	Upsert(ctx context.Context, costID string, req UpsertRequest) (*CostRecord, error)
	BulkSetLaborRate(ctx context.Context, newRate decimal.Decimal) (int, error)
	BulkAdjustOverhead(ctx context.Context, deltaPercent decimal.Decimal) (int, error)
	ImportCSV(ctx context.Context, r io.Reader) (*ImportResult, error)
}

// UpsertRequest carries the writable fields; nil leaves a field untouched.
type UpsertRequest struct {
	TestName           *string          `json:"test_name"`
	LaborMinutes       *int             `json:"labor_minutes"`
	LaborRate          *decimal.Decimal `json:"labor_rate"`
	ConsumablesCost    *decimal.Decimal `json:"consumables_cost"`
	ReagentsCost       *decimal.Decimal `json:"reagents_cost"`
	EquipmentCost      *decimal.Decimal `json:"equipment_cost"`
	QCPercentage       *decimal.Decimal `json:"qc_percentage"`
	OverheadAllocation *decimal.Decimal `json:"overhead_allocation"`
	ComplianceCost     *decimal.Decimal `json:"compliance_cost"`
	ConfidenceLevel    *Confidence      `json:"confidence_level"`
	Active             *bool            `json:"active"`
}

// RowError reports one skipped import row. Line is 1-based and counts the
// header row.
type RowError struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

type ImportResult struct {
	Imported int        `json:"imported"`
	Errors   []RowError `json:"errors"`
}

var (
	ErrNotFound     = errors.New("not_found")
	ErrInvalidField = errors.New("invalid_field")
	ErrParse        = errors.New("parse_error")
)
