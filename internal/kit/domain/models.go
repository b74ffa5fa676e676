package domain

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// metadataMetalCounts keys the tier-quantity overrides inside the kit
// metadata blob. The blob is pure configuration with no identity of its own.
const metadataMetalCounts = "metal_counts"

// TestKit is a curated bundle of analytes sold at a percentage discount off
// the sum of member prices. AnalyteIDs keeps insertion order for listing;
// pricing treats it as a set.
type TestKit struct {
	ID              int64                      `json:"id" gorm:"primaryKey;autoIncrement"`
	KitName         string                     `json:"kit_name" gorm:"type:text;not null"`
	Category        string                     `json:"category" gorm:"type:text"`
	Description     string                     `json:"description" gorm:"type:text"`
	TargetMarket    string                     `json:"target_market" gorm:"type:text"`
	ApplicationType string                     `json:"application_type" gorm:"type:text"`
	DiscountPercent decimal.Decimal            `json:"discount_percent" gorm:"type:numeric;not null"`
	Active          bool                       `json:"active" gorm:"not null"`
	AnalyteIDs      datatypes.JSONSlice[int64] `json:"analyte_ids" gorm:"column:analyte_ids"`
	Metadata        datatypes.JSONMap          `json:"metadata"`
	CreatedAt       time.Time                  `json:"created_at" gorm:"not null"`
	UpdatedAt       time.Time                  `json:"updated_at" gorm:"not null"`
}

func (TestKit) TableName() string { return "test_kits" }

// MetalCounts returns the tier-quantity overrides. Absent entries default to
// 1 at pricing time.
func (k TestKit) MetalCounts() map[int64]int {
	counts := make(map[int64]int)
	raw, ok := k.Metadata[metadataMetalCounts]
	if !ok {
		return counts
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return counts
	}
	for key, value := range m {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		// The sqlite driver round-trips JSON numbers in a few shapes
		// depending on how the blob was written and scanned.
		switch n := value.(type) {
		case float64:
			counts[id] = int(n)
		case int:
			counts[id] = n
		case int64:
			counts[id] = int(n)
		case json.Number:
			if v, err := n.Int64(); err == nil {
				counts[id] = int(v)
			}
		case string:
			if v, err := strconv.Atoi(n); err == nil {
				counts[id] = v
			}
		}
	}
	return counts
}

// SetMetalCounts replaces the tier-quantity overrides.
func (k *TestKit) SetMetalCounts(counts map[int64]int) {
	if k.Metadata == nil {
		k.Metadata = datatypes.JSONMap{}
	}
	m := make(map[string]any, len(counts))
	for id, count := range counts {
		m[strconv.FormatInt(id, 10)] = count
	}
	k.Metadata[metadataMetalCounts] = m
}
