package engine

import (
	"testing"

	analytedomain "github.com/kelplabs/pricebook/internal/analyte/domain"
	costdomain "github.com/kelplabs/pricebook/internal/costmodel/domain"
	"github.com/kelplabs/pricebook/pkg/money"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(dec(t, want)), "want %s, got %s", want, got)
}

func tieredAnalyte(t *testing.T, price, additional string) analytedomain.Analyte {
	t.Helper()
	return analytedomain.Analyte{
		Name:            "Total Metals by ICP-MS",
		Category:        "Metals",
		Price:           dec(t, price),
		Active:          true,
		PricingType:     analytedomain.PricingTiered,
		AdditionalPrice: dec(t, additional),
		MetalList:       "As, Ba, Cd, Cr, Cu, Pb, Se, Zn",
	}
}

func standardAnalyte(t *testing.T, id int64, price string) analytedomain.Analyte {
	t.Helper()
	return analytedomain.Analyte{
		ID:          id,
		Name:        "Standard",
		Category:    "Inorganics",
		Price:       dec(t, price),
		Active:      true,
		PricingType: analytedomain.PricingStandard,
	}
}

func TestEffectivePrice_TieredScaling(t *testing.T) {
	a := tieredAnalyte(t, "350.00", "45.00")

	tests := []struct {
		metalCount int
		want       string
	}{
		{1, "350.00"},
		{3, "440.00"},
		{8, "665.00"},
		{24, "1385.00"},
		{0, "350.00"},  // clamped to 1
		{-5, "350.00"}, // clamped to 1
	}
	for _, tc := range tests {
		assertDec(t, tc.want, EffectivePrice(a, tc.metalCount))
	}
}

func TestEffectivePrice_StandardIgnoresCount(t *testing.T) {
	a := standardAnalyte(t, 1, "85.00")
	assertDec(t, "85.00", EffectivePrice(a, 1))
	assertDec(t, "85.00", EffectivePrice(a, 12))
}

func TestMarginOverCost_DisplayRounding(t *testing.T) {
	got := MarginOverCost(dec(t, "40.00"), dec(t, "12.20"))
	assertDec(t, "227.9", got.Round(1))
}

func TestSuggestedPrice(t *testing.T) {
	got := SuggestedPrice(dec(t, "12.20"), dec(t, "261.0"))
	assertDec(t, "44.04", money.Round2(got))
}

func TestMargins_ZeroDenominatorsYieldZero(t *testing.T) {
	assertDec(t, "0", MarginOverCost(dec(t, "40"), decimal.Zero))
	assertDec(t, "0", MarginOverCost(dec(t, "40"), dec(t, "-1")))
	assertDec(t, "0", MarginOverPrice(decimal.Zero, dec(t, "12")))
}

func TestMarginOverPrice(t *testing.T) {
	assertDec(t, "50", MarginOverPrice(dec(t, "80"), dec(t, "40")))
}

func TestPriceKit_StandardMembers(t *testing.T) {
	prices := []string{"40.00", "25.00", "35.00", "85.00", "85.00", "85.00", "75.00", "75.00"}

	in := KitInput{
		DiscountPercent: dec(t, "20"),
		Analytes:        map[int64]analytedomain.Analyte{},
	}
	for i, p := range prices {
		id := int64(i + 1)
		in.AnalyteIDs = append(in.AnalyteIDs, id)
		in.Analytes[id] = standardAnalyte(t, id, p)
	}

	got := PriceKit(in)
	assertDec(t, "505.00", got.IndividualTotal)
	assertDec(t, "404.00", got.KitPrice)
	assertDec(t, "101.00", got.Savings)
	assert.Equal(t, 8, got.TestCount)
	assert.Empty(t, got.DroppedIDs)
}

func TestPriceKit_TieredMember(t *testing.T) {
	tiered := tieredAnalyte(t, "350", "45")
	tiered.ID = 3

	in := KitInput{
		AnalyteIDs:      []int64{1, 2, 3},
		DiscountPercent: dec(t, "22"),
		MetalCounts:     map[int64]int{3: 4},
		Analytes: map[int64]analytedomain.Analyte{
			1: standardAnalyte(t, 1, "85.00"),
			2: standardAnalyte(t, 2, "75.00"),
			3: tiered,
		},
	}

	got := PriceKit(in)
	assertDec(t, "645.00", got.IndividualTotal)
	assertDec(t, "503.10", got.KitPrice)
	assertDec(t, "141.90", got.Savings)
	assert.Equal(t, 3, got.TestCount)
}

func TestPriceKit_DropsMissingAndInactive(t *testing.T) {
	inactive := standardAnalyte(t, 2, "50.00")
	inactive.Active = false

	in := KitInput{
		AnalyteIDs:      []int64{1, 2, 99},
		DiscountPercent: dec(t, "10"),
		Analytes: map[int64]analytedomain.Analyte{
			1: standardAnalyte(t, 1, "40.00"),
			2: inactive,
		},
	}

	got := PriceKit(in)
	assert.Equal(t, 1, got.TestCount)
	assert.Equal(t, []int64{2, 99}, got.DroppedIDs)
	assertDec(t, "40.00", got.IndividualTotal)
	assertDec(t, "36.00", got.KitPrice)
}

// Kit price plus savings reconstructs the undiscounted price exactly, not
// just to within rounding.
func TestPriceKit_DiscountLinearity(t *testing.T) {
	in := KitInput{
		AnalyteIDs: []int64{1, 2, 3},
		Analytes: map[int64]analytedomain.Analyte{
			1: standardAnalyte(t, 1, "40.00"),
			2: standardAnalyte(t, 2, "33.33"),
			3: standardAnalyte(t, 3, "85.10"),
		},
	}

	undiscounted := PriceKit(in)

	in.DiscountPercent = dec(t, "13.7")
	discounted := PriceKit(in)

	sum := discounted.KitPrice.Add(discounted.Savings)
	assert.True(t, sum.Equal(undiscounted.KitPrice), "want %s, got %s", undiscounted.KitPrice, sum)
}

// Kit cost uses the base per-test cost regardless of metal count.
func TestPriceKit_CostIgnoresMetalCount(t *testing.T) {
	tiered := tieredAnalyte(t, "350", "45")
	tiered.ID = 1
	tiered.CostID = "C-020"

	in := KitInput{
		AnalyteIDs:  []int64{1},
		MetalCounts: map[int64]int{1: 8},
		Analytes:    map[int64]analytedomain.Analyte{1: tiered},
		Costs: map[string]costdomain.CostRecord{
			"C-020": {CostID: "C-020", TotalInternalCost: dec(t, "62.50")},
		},
	}

	got := PriceKit(in)
	assertDec(t, "665.00", got.IndividualTotal)
	assertDec(t, "62.50", got.TotalCost)
	assertDec(t, "602.50", got.Profit)
}

func TestCompetitiveBucket_Boundaries(t *testing.T) {
	band := DefaultBand()
	benchmark := dec(t, "100")

	tests := []struct {
		price string
		want  Bucket
	}{
		{"115", BucketCompetitive},
		{"115.01", BucketAbove},
		{"85", BucketCompetitive},
		{"84.99", BucketBelow},
		{"100", BucketCompetitive},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, CompetitiveBucket(dec(t, tc.price), benchmark, band), "price %s", tc.price)
	}
}

func TestCompetitiveBucket_UnknownBenchmark(t *testing.T) {
	assert.Equal(t, BucketUnknown, CompetitiveBucket(dec(t, "50"), decimal.Zero, DefaultBand()))
	assert.Equal(t, BucketUnknown, CompetitiveBucket(dec(t, "50"), dec(t, "-10"), DefaultBand()))
}
