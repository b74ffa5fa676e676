package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type Service interface {
	Insert(ctx context.Context, req InsertRequest) (*TestKit, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*TestKit, error)
	Get(ctx context.Context, id int64) (*TestKit, error)
	List(ctx context.Context, activeOnly bool) ([]TestKit, error)
	Activate(ctx context.Context, id int64) (*TestKit, error)
	Deactivate(ctx context.Context, id int64) (*TestKit, error)
}

type InsertRequest struct {
	KitName         string          `json:"kit_name"`
	Category        string          `json:"category"`
	Description     string          `json:"description"`
	TargetMarket    string          `json:"target_market"`
	ApplicationType string          `json:"application_type"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	AnalyteIDs      []int64         `json:"analyte_ids"`
	MetalCounts     map[int64]int   `json:"metal_counts"`
}

// UpdateRequest carries field updates; nil leaves a field untouched.
type UpdateRequest struct {
	KitName         *string          `json:"kit_name"`
	Category        *string          `json:"category"`
	Description     *string          `json:"description"`
	TargetMarket    *string          `json:"target_market"`
	ApplicationType *string          `json:"application_type"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	AnalyteIDs      *[]int64         `json:"analyte_ids"`
	MetalCounts     *map[int64]int   `json:"metal_counts"`
}

var (
	ErrNotFound     = errors.New("not_found")
	ErrInvalidField = errors.New("invalid_field")
	ErrInvariant    = errors.New("invariant_violation")
)
