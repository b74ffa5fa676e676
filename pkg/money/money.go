// Package money carries the fixed-precision arithmetic used for every USD
// amount in the catalog. Raw component values are kept at full precision;
// Round2 (banker's rounding) is applied where a stored field is defined as a
// 2-decimal display value.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

func init() {
	// Exported amounts are JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

var (
	Zero    = decimal.Zero
	Hundred = decimal.NewFromInt(100)
)

// Round2 rounds half-to-even at two decimal places.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(2)
}

// ParseCell parses a spreadsheet-style numeric cell. Accepts a leading
// currency sign, thousands separators and a trailing percent sign
// ("$1,234.50", "15%", " 12.2 "). Empty or unparsable cells yield zero with
// ok=false; the importer maps those to 0 by contract.
func ParseCell(cell string) (decimal.Decimal, bool) {
	s := strings.TrimSpace(cell)
	s = strings.TrimPrefix(s, "$")
	s = strings.TrimSuffix(s, "%")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Percent returns d/100 as a multiplier.
func Percent(d decimal.Decimal) decimal.Decimal {
	return d.Div(Hundred)
}
