package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type Service interface {
	Insert(ctx context.Context, req InsertRequest) (*Analyte, error)
	Update(ctx context.Context, id int64, req UpdateRequest) (*Analyte, error)
	Get(ctx context.Context, id int64) (*Analyte, error)
	List(ctx context.Context, filter Filter) ([]Analyte, error)
	AssignCost(ctx context.Context, id int64, costID string) (*Analyte, error)
	Activate(ctx context.Context, id int64) (*Analyte, error)
	Deactivate(ctx context.Context, id int64) (*Analyte, error)
}

type InsertRequest struct {
	Name                 string          `json:"name"`
	Method               string          `json:"method"`
	Technology           string          `json:"technology"`
	Category             string          `json:"category"`
	Subcategory          string          `json:"subcategory"`
	Price                decimal.Decimal `json:"price"`
	SKU                  string          `json:"sku"`
	PricingType          PricingType     `json:"pricing_type"`
	AdditionalPrice      decimal.Decimal `json:"additional_price"`
	MetalList            string          `json:"metal_list"`
	CostID               string          `json:"cost_id"`
	TargetMargin         decimal.Decimal `json:"target_margin"`
	CompetitorPriceEMSL  decimal.Decimal `json:"competitor_price_emsl"`
	CompetitorPriceOther decimal.Decimal `json:"competitor_price_other"`
}

// UpdateRequest carries field updates; nil leaves a field untouched.
type UpdateRequest struct {
	Name                 *string          `json:"name"`
	Method               *string          `json:"method"`
	Technology           *string          `json:"technology"`
	Category             *string          `json:"category"`
	Subcategory          *string          `json:"subcategory"`
	Price                *decimal.Decimal `json:"price"`
	SKU                  *string          `json:"sku"`
	PricingType          *PricingType     `json:"pricing_type"`
	AdditionalPrice      *decimal.Decimal `json:"additional_price"`
	MetalList            *string          `json:"metal_list"`
	CostID               *string          `json:"cost_id"`
	TargetMargin         *decimal.Decimal `json:"target_margin"`
	CompetitorPriceEMSL  *decimal.Decimal `json:"competitor_price_emsl"`
	CompetitorPriceOther *decimal.Decimal `json:"competitor_price_other"`
}

type Filter struct {
	Category     string
	Method       string
	NameContains string
	ActiveOnly   bool
}

var (
	ErrNotFound     = errors.New("not_found")
	ErrDuplicateSKU = errors.New("duplicate_sku")
	ErrInvalidField = errors.New("invalid_field")
	ErrInvariant    = errors.New("invariant_violation")
	ErrUnknownCost  = errors.New("unknown_cost_record")
)
