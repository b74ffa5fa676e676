package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PricingType string

const (
	PricingStandard PricingType = "standard"
	PricingTiered   PricingType = "tiered"
)

func ValidPricingType(p PricingType) bool {
	return p == PricingStandard || p == PricingTiered
}

// Categories is the recognized catalog taxonomy.
var Categories = []string{
	"Physical Parameters",
	"Inorganics",
	"Metals",
	"Organics",
	"Microbiological",
	"Panels",
}

func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Analyte is a laboratory test offered to customers. Ids are monotonic and
// never reused; retirement is a soft delete via Active.
type Analyte struct {
	ID                   int64           `json:"id" gorm:"primaryKey;autoIncrement"`
	Name                 string          `json:"name" gorm:"type:text;not null"`
	Method               string          `json:"method" gorm:"type:text"`
	Technology           string          `json:"technology" gorm:"type:text"`
	Category             string          `json:"category" gorm:"type:text;not null;index"`
	Subcategory          string          `json:"subcategory" gorm:"type:text"`
	Price                decimal.Decimal `json:"price" gorm:"type:numeric;not null"`
	SKU                  string          `json:"sku" gorm:"column:sku;type:text;uniqueIndex:idx_analytes_sku,where:sku <> ''"`
	Active               bool            `json:"active" gorm:"not null"`
	PricingType          PricingType     `json:"pricing_type" gorm:"type:text;not null"`
	AdditionalPrice      decimal.Decimal `json:"additional_price" gorm:"type:numeric;not null"`
	MetalList            string          `json:"metal_list" gorm:"type:text"`
	CostID               string          `json:"cost_id" gorm:"column:cost_id;type:text"`
	TargetMargin         decimal.Decimal `json:"target_margin" gorm:"type:numeric;not null"`
	CompetitorPriceEMSL  decimal.Decimal `json:"competitor_price_emsl" gorm:"column:competitor_price_emsl;type:numeric;not null"`
	CompetitorPriceOther decimal.Decimal `json:"competitor_price_other" gorm:"type:numeric;not null"`
	CreatedAt            time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt            time.Time       `json:"updated_at" gorm:"not null"`
}

func (Analyte) TableName() string { return "analytes" }

// IsTiered reports whether the price scales with a caller-supplied count.
func (a Analyte) IsTiered() bool { return a.PricingType == PricingTiered }

// MetalItems splits metal_list into its non-empty comma-separated items.
func MetalItems(metalList string) []string {
	var items []string
	for _, part := range strings.Split(metalList, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}
