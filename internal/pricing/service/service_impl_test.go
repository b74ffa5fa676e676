package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/glebarez/sqlite"
	analytedomain "github.com/kelplabs/pricebook/internal/analyte/domain"
	analyterepo "github.com/kelplabs/pricebook/internal/analyte/repository"
	"github.com/kelplabs/pricebook/internal/config"
	costdomain "github.com/kelplabs/pricebook/internal/costmodel/domain"
	costrepo "github.com/kelplabs/pricebook/internal/costmodel/repository"
	kitdomain "github.com/kelplabs/pricebook/internal/kit/domain"
	kitrepo "github.com/kelplabs/pricebook/internal/kit/repository"
	"github.com/kelplabs/pricebook/internal/pricing/domain"
	"github.com/kelplabs/pricebook/internal/pricing/engine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func setupPricingService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&analytedomain.Analyte{}, &costdomain.CostRecord{}, &kitdomain.TestKit{}))

	holder, err := config.NewPricingConfigHolder()
	require.NoError(t, err)

	svc := NewService(Params{
		DB:          db,
		Log:         zap.NewNop(),
		Pricing:     holder,
		AnalyteRepo: analyterepo.Provide(),
		KitRepo:     kitrepo.Provide(),
		CostRepo:    costrepo.Provide(),
	})
	return svc, db
}

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

func TestAnalyteSummary(t *testing.T) {
	svc, db := setupPricingService(t)
	ctx := context.Background()

	cost := costdomain.CostRecord{CostID: "C-001", TotalInternalCost: dec(t, "12.20"), Active: true}
	require.NoError(t, db.Create(&cost).Error)

	a := analytedomain.Analyte{
		Name:                "pH",
		Category:            "Physical Parameters",
		Price:               dec(t, "40.00"),
		Active:              true,
		PricingType:         analytedomain.PricingStandard,
		CostID:              "C-001",
		TargetMargin:        dec(t, "261.0"),
		CompetitorPriceEMSL: dec(t, "40.00"),
	}
	require.NoError(t, db.Create(&a).Error)

	summary, err := svc.AnalyteSummary(ctx, a.ID, 1)
	require.NoError(t, err)

	assertDec(t, "40.00", summary.EffectivePrice)
	require.NotNil(t, summary.TotalCost)
	assertDec(t, "12.20", *summary.TotalCost)
	require.NotNil(t, summary.SuggestedPrice)
	assertDec(t, "44.04", summary.SuggestedPrice.RoundBank(2))
	assertDec(t, "227.9", summary.MarginPercent.Round(1))
	assert.Equal(t, engine.BucketCompetitive, summary.CompetitiveEMSL)
}

func TestAnalyteSummary_TieredUsesMetalCount(t *testing.T) {
	svc, db := setupPricingService(t)

	a := analytedomain.Analyte{
		Name:            "Total Metals",
		Category:        "Metals",
		Price:           dec(t, "350"),
		Active:          true,
		PricingType:     analytedomain.PricingTiered,
		AdditionalPrice: dec(t, "45"),
		MetalList:       "As, Pb",
	}
	require.NoError(t, db.Create(&a).Error)

	summary, err := svc.AnalyteSummary(context.Background(), a.ID, 8)
	require.NoError(t, err)
	assertDec(t, "665", summary.EffectivePrice)
	assert.Nil(t, summary.TotalCost)
}

func TestAnalyteSummary_NotFound(t *testing.T) {
	svc, _ := setupPricingService(t)
	_, err := svc.AnalyteSummary(context.Background(), 404, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPriceKitByID(t *testing.T) {
	svc, db := setupPricingService(t)

	var ids []int64
	for _, price := range []string{"85.00", "75.00"} {
		a := analytedomain.Analyte{
			Name:        "Member",
			Category:    "Organics",
			Price:       dec(t, price),
			Active:      true,
			PricingType: analytedomain.PricingStandard,
		}
		require.NoError(t, db.Create(&a).Error)
		ids = append(ids, a.ID)
	}
	tiered := analytedomain.Analyte{
		Name:            "Total Metals",
		Category:        "Metals",
		Price:           dec(t, "350"),
		Active:          true,
		PricingType:     analytedomain.PricingTiered,
		AdditionalPrice: dec(t, "45"),
		MetalList:       "As, Pb",
	}
	require.NoError(t, db.Create(&tiered).Error)
	ids = append(ids, tiered.ID)

	kit := kitdomain.TestKit{
		KitName:         "Well Water Kit",
		DiscountPercent: dec(t, "22"),
		Active:          true,
		AnalyteIDs:      datatypes.NewJSONSlice(ids),
	}
	kit.SetMetalCounts(map[int64]int{tiered.ID: 4})
	require.NoError(t, db.Create(&kit).Error)

	got, err := svc.PriceKitByID(context.Background(), kit.ID)
	require.NoError(t, err)
	assertDec(t, "645.00", got.IndividualTotal)
	assertDec(t, "503.10", got.KitPrice)
	assertDec(t, "141.90", got.Savings)
	assert.Equal(t, 3, got.TestCount)
}

func TestPriceKitByID_NotFound(t *testing.T) {
	svc, _ := setupPricingService(t)
	_, err := svc.PriceKitByID(context.Background(), 404)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPriceKitAdHoc(t *testing.T) {
	svc, db := setupPricingService(t)

	a := analytedomain.Analyte{
		Name:        "pH",
		Category:    "Physical Parameters",
		Price:       dec(t, "40.00"),
		Active:      true,
		PricingType: analytedomain.PricingStandard,
	}
	require.NoError(t, db.Create(&a).Error)

	got, err := svc.PriceKitAdHoc(context.Background(), domain.KitRequest{
		AnalyteIDs:      []int64{a.ID, 9999},
		DiscountPercent: dec(t, "10"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, got.TestCount)
	assert.Equal(t, []int64{9999}, got.DroppedIDs)
	assertDec(t, "36.00", got.KitPrice)

	_, err = svc.PriceKitAdHoc(context.Background(), domain.KitRequest{
		AnalyteIDs:      []int64{a.ID},
		DiscountPercent: dec(t, "101"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidField)
}

func TestBand_FollowsConfig(t *testing.T) {
	svc, _ := setupPricingService(t)

	band := svc.Band()
	assertDec(t, "0.85", band.Lower)
	assertDec(t, "1.15", band.Upper)
}
