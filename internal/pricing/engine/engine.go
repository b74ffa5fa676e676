// Package engine holds the pure pricing derivations. Every function is a
// deterministic computation over catalog values; nothing here mutates state
// or performs I/O.
package engine

import (
	analytedomain "github.com/kelplabs/pricebook/internal/analyte/domain"
	costdomain "github.com/kelplabs/pricebook/internal/costmodel/domain"
	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// EffectivePrice is the sell price of one analyte at the given tier quantity.
// Standard analytes ignore metalCount; tiered analytes charge the base price
// for the first item and additional_price for each further one.
func EffectivePrice(a analytedomain.Analyte, metalCount int) decimal.Decimal {
	if !a.IsTiered() {
		return a.Price
	}
	if metalCount < 1 {
		metalCount = 1
	}
	return a.Price.Add(a.AdditionalPrice.Mul(decimal.NewFromInt(int64(metalCount - 1))))
}

// MarginOverCost is (price-cost)/cost x 100, the cost-based markup the
// dashboards have always labelled "margin". Zero cost yields zero.
func MarginOverCost(price, cost decimal.Decimal) decimal.Decimal {
	if !cost.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(cost).Div(cost).Mul(hundred)
}

// MarginOverPrice is (price-cost)/price x 100, the accounting margin.
// Zero price yields zero.
func MarginOverPrice(price, cost decimal.Decimal) decimal.Decimal {
	if !price.IsPositive() {
		return decimal.Zero
	}
	return price.Sub(cost).Div(price).Mul(hundred)
}

// SuggestedPrice is cost x (1 + targetMarginPercent/100).
func SuggestedPrice(cost, targetMarginPercent decimal.Decimal) decimal.Decimal {
	return cost.Mul(one.Add(targetMarginPercent.Div(hundred)))
}

// KitInput is the resolved view of a kit handed to PriceKit. Analytes holds
// every member the caller could resolve, active or not; the engine drops the
// rest and reports them.
type KitInput struct {
	AnalyteIDs      []int64
	DiscountPercent decimal.Decimal
	MetalCounts     map[int64]int
	Analytes        map[int64]analytedomain.Analyte
	Costs           map[string]costdomain.CostRecord
}

type KitPricing struct {
	IndividualTotal decimal.Decimal `json:"individual_total"`
	KitPrice        decimal.Decimal `json:"kit_price"`
	Savings         decimal.Decimal `json:"savings"`
	TestCount       int             `json:"test_count"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	Profit          decimal.Decimal `json:"profit"`
	MarginPercent   decimal.Decimal `json:"margin_percent"`
	DroppedIDs      []int64         `json:"dropped_ids"`
}

// PriceKit rolls up a kit: sum of member effective prices, discounted kit
// price, customer savings and internal profitability. Missing or inactive
// members are silently dropped and reported so a partially-stale kit still
// yields a number for display.
//
// Kit cost uses the base per-test cost regardless of metal count; the cost
// model is per-test, not per-item.
func PriceKit(in KitInput) KitPricing {
	result := KitPricing{DroppedIDs: []int64{}}

	for _, id := range in.AnalyteIDs {
		a, ok := in.Analytes[id]
		if !ok || !a.Active {
			result.DroppedIDs = append(result.DroppedIDs, id)
			continue
		}

		metalCount := 1
		if n, ok := in.MetalCounts[id]; ok {
			metalCount = n
		}
		result.IndividualTotal = result.IndividualTotal.Add(EffectivePrice(a, metalCount))
		result.TestCount++

		if a.CostID != "" {
			if cost, ok := in.Costs[a.CostID]; ok {
				result.TotalCost = result.TotalCost.Add(cost.TotalInternalCost)
			}
		}
	}

	discount := one.Sub(in.DiscountPercent.Div(hundred))
	result.KitPrice = result.IndividualTotal.Mul(discount)
	result.Savings = result.IndividualTotal.Sub(result.KitPrice)
	result.Profit = result.KitPrice.Sub(result.TotalCost)
	result.MarginPercent = MarginOverCost(result.KitPrice, result.TotalCost)
	return result
}
