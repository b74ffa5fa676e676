package domain

import (
	"context"
	"errors"

	"github.com/kelplabs/pricebook/internal/pricing/engine"
	"github.com/shopspring/decimal"
)

// Service resolves catalog entities and feeds the pure engine.
type Service interface {
	AnalyteSummary(ctx context.Context, analyteID int64, metalCount int) (*AnalyteSummary, error)
	PriceKitByID(ctx context.Context, kitID int64) (*engine.KitPricing, error)
	PriceKitAdHoc(ctx context.Context, req KitRequest) (*engine.KitPricing, error)
	Band() engine.Band
}

// AnalyteSummary is the per-analyte profitability view the dashboard shows.
type AnalyteSummary struct {
	AnalyteID       int64            `json:"analyte_id"`
	Name            string           `json:"name"`
	EffectivePrice  decimal.Decimal  `json:"effective_price"`
	TotalCost       *decimal.Decimal `json:"total_cost,omitempty"`
	MarginPercent   decimal.Decimal  `json:"margin_percent"`
	MarkupPercent   decimal.Decimal  `json:"markup_percent"`
	SuggestedPrice  *decimal.Decimal `json:"suggested_price,omitempty"`
	TargetMargin    decimal.Decimal  `json:"target_margin"`
	CompetitiveEMSL engine.Bucket    `json:"competitive_emsl"`
}

type KitRequest struct {
	AnalyteIDs      []int64         `json:"analyte_ids"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	MetalCounts     map[int64]int   `json:"metal_counts"`
}

var (
	ErrNotFound     = errors.New("not_found")
	ErrInvalidField = errors.New("invalid_field")
)
