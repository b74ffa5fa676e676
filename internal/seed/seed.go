package seed

import (
	"context"

	"github.com/kelplabs/pricebook/internal/actorcontext"
	analytedomain "github.com/kelplabs/pricebook/internal/analyte/domain"
	"github.com/kelplabs/pricebook/internal/config"
	costdomain "github.com/kelplabs/pricebook/internal/costmodel/domain"
	kitdomain "github.com/kelplabs/pricebook/internal/kit/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Config     config.Config
	CostSvc    costdomain.Service
	AnalyteSvc analytedomain.Service
	KitSvc     kitdomain.Service
}

// Run loads the demo laboratory catalog through the services so the seed
// leaves the same audit trail a user would. It is a no-op when the catalog
// already has analytes or seeding is disabled.
func Run(p Params) error {
	if !p.Config.Seed {
		return nil
	}

	var count int64
	if err := p.DB.Model(&analytedomain.Analyte{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	log := p.Log.Named("seed")
	ctx := actorcontext.WithActor(context.Background(), actorcontext.SystemUser)

	if err := seedCosts(ctx, p.CostSvc); err != nil {
		return err
	}
	ids, err := seedAnalytes(ctx, p.AnalyteSvc)
	if err != nil {
		return err
	}
	if err := seedKits(ctx, p.KitSvc, ids); err != nil {
		return err
	}

	log.Info("demo catalog loaded")
	return nil
}

type costSeed struct {
	id, name string
	minutes  int

	rate, cons, reag, equip, qc, overhead, compl string
}

func seedCosts(ctx context.Context, svc costdomain.Service) error {
	rows := []costSeed{
		{"C-001", "pH", 10, "35", "0.50", "0.75", "0.40", "15", "2.50", "0.35"},
		{"C-002", "Total Dissolved Solids", 25, "35", "0.80", "0.20", "1.10", "15", "2.50", "0.35"},
		{"C-003", "Conductivity", 8, "35", "0.45", "0.15", "0.60", "15", "2.50", "0.35"},
		{"C-010", "Chloride", 20, "38", "1.20", "2.40", "3.10", "20", "3.00", "0.50"},
		{"C-011", "Nitrate", 20, "38", "1.20", "2.40", "3.10", "20", "3.00", "0.50"},
		{"C-020", "Total Metals by ICP-MS", 45, "42", "4.60", "6.80", "9.50", "25", "5.50", "1.25"},
		{"C-021", "Mercury by CVAA", 35, "42", "3.20", "5.10", "7.40", "25", "4.50", "1.25"},
		{"C-030", "Volatile Organic Compounds", 90, "45", "8.40", "12.60", "18.20", "25", "8.00", "2.50"},
		{"C-040", "Total Coliform and E. coli", 15, "32", "6.50", "1.80", "0.90", "10", "2.00", "0.75"},
	}

	high := costdomain.ConfidenceHigh
	for _, row := range rows {
		req := costdomain.UpsertRequest{
			TestName:           &row.name,
			LaborMinutes:       &row.minutes,
			LaborRate:          dec(row.rate),
			ConsumablesCost:    dec(row.cons),
			ReagentsCost:       dec(row.reag),
			EquipmentCost:      dec(row.equip),
			QCPercentage:       dec(row.qc),
			OverheadAllocation: dec(row.overhead),
			ComplianceCost:     dec(row.compl),
			ConfidenceLevel:    &high,
		}
		if _, err := svc.Upsert(ctx, row.id, req); err != nil {
			return err
		}
	}
	return nil
}

func seedAnalytes(ctx context.Context, svc analytedomain.Service) (map[string]int64, error) {
	reqs := []analytedomain.InsertRequest{
		{
			Name: "pH", Method: "EPA 150.1", Technology: "Electrometric",
			Category: "Physical Parameters", Subcategory: "General Chemistry",
			Price: d("15"), SKU: "LAB-102.015-001-EPA150.1",
			PricingType: analytedomain.PricingStandard,
			CostID:      "C-001", TargetMargin: d("60"),
			CompetitorPriceEMSL: d("18"), CompetitorPriceOther: d("14"),
		},
		{
			Name: "Total Dissolved Solids", Method: "SM 2540 C", Technology: "Gravimetric",
			Category: "Physical Parameters", Subcategory: "General Chemistry",
			Price: d("20"), SKU: "LAB-102.020-001-SM2540C",
			PricingType: analytedomain.PricingStandard,
			CostID:      "C-002", TargetMargin: d("55"),
			CompetitorPriceEMSL: d("24"), CompetitorPriceOther: d("19"),
		},
		{
			Name: "Conductivity", Method: "EPA 120.1", Technology: "Electrometric",
			Category: "Physical Parameters", Subcategory: "General Chemistry",
			Price: d("15"), SKU: "LAB-102.016-001-EPA120.1",
			PricingType: analytedomain.PricingStandard,
			CostID:      "C-003", TargetMargin: d("60"),
			CompetitorPriceEMSL: d("17"), CompetitorPriceOther: d("15"),
		},
		{
			Name: "Chloride", Method: "EPA 300.0", Technology: "Ion Chromatography",
			Category: "Inorganics", Subcategory: "Anions",
			Price: d("25"), SKU: "LAB-201.010-001-EPA300.0",
			PricingType: analytedomain.PricingStandard,
			CostID:      "C-010", TargetMargin: d("50"),
			CompetitorPriceEMSL: d("30"), CompetitorPriceOther: d("26"),
		},
		{
			Name: "Nitrate", Method: "EPA 300.0", Technology: "Ion Chromatography",
			Category: "Inorganics", Subcategory: "Anions",
			Price: d("28"), SKU: "LAB-201.011-001-EPA300.0",
			PricingType: analytedomain.PricingStandard,
			CostID:      "C-011", TargetMargin: d("50"),
			CompetitorPriceEMSL: d("32"), CompetitorPriceOther: d("27"),
		},
		{
			Name: "Alkalinity", Method: "SM 2320 B", Technology: "Titrimetric",
			Category: "Inorganics", Subcategory: "General Chemistry",
			Price: d("22"), SKU: "LAB-201.030-001-SM2320B",
			PricingType:  analytedomain.PricingStandard,
			TargetMargin: d("55"),
			CompetitorPriceEMSL: d("25"), CompetitorPriceOther: d("21"),
		},
		{
			Name: "Total Metals by ICP-MS", Method: "EPA 200.8", Technology: "ICP-MS",
			Category: "Metals", Subcategory: "Trace Metals",
			Price: d("55"), SKU: "LAB-301.001-001-EPA200.8",
			PricingType:     analytedomain.PricingTiered,
			AdditionalPrice: d("12"),
			MetalList:       "As, Ba, Cd, Cr, Cu, Pb, Se, Zn",
			CostID:          "C-020", TargetMargin: d("45"),
			CompetitorPriceEMSL: d("62"), CompetitorPriceOther: d("58"),
		},
		{
			Name: "Mercury", Method: "EPA 245.1", Technology: "CVAA",
			Category: "Metals", Subcategory: "Trace Metals",
			Price: d("45"), SKU: "LAB-301.020-001-EPA245.1",
			PricingType: analytedomain.PricingStandard,
			CostID:      "C-021", TargetMargin: d("45"),
			CompetitorPriceEMSL: d("52"), CompetitorPriceOther: d("48"),
		},
		{
			Name: "Volatile Organic Compounds", Method: "EPA 524.2", Technology: "GC-MS",
			Category: "Organics", Subcategory: "Volatiles",
			Price: d("165"), SKU: "LAB-401.001-001-EPA524.2",
			PricingType: analytedomain.PricingStandard,
			CostID:      "C-030", TargetMargin: d("40"),
			CompetitorPriceEMSL: d("185"), CompetitorPriceOther: d("172"),
		},
		{
			Name: "Total Petroleum Hydrocarbons", Method: "EPA 8015", Technology: "GC-FID",
			Category: "Organics", Subcategory: "Semivolatiles",
			Price: d("95"), SKU: "LAB-401.050-001-EPA8015",
			PricingType:  analytedomain.PricingStandard,
			TargetMargin: d("40"),
			CompetitorPriceEMSL: d("110"), CompetitorPriceOther: d("98"),
		},
		{
			Name: "Total Coliform and E. coli", Method: "SM 9223 B", Technology: "Enzyme Substrate",
			Category: "Microbiological", Subcategory: "Bacteriological",
			Price: d("35"), SKU: "LAB-501.001-001-SM9223B",
			PricingType: analytedomain.PricingStandard,
			CostID:      "C-040", TargetMargin: d("50"),
			CompetitorPriceEMSL: d("40"), CompetitorPriceOther: d("36"),
		},
		{
			Name: "Standard Anion Panel", Method: "EPA 300.0", Technology: "Ion Chromatography",
			Category: "Panels", Subcategory: "Anions",
			Price: d("65"), SKU: "LAB-601.001-001-EPA300.0",
			PricingType:  analytedomain.PricingStandard,
			TargetMargin: d("50"),
			CompetitorPriceEMSL: d("75"), CompetitorPriceOther: d("68"),
		},
	}

	ids := make(map[string]int64, len(reqs))
	for _, req := range reqs {
		a, err := svc.Insert(ctx, req)
		if err != nil {
			return nil, err
		}
		ids[a.Name] = a.ID
	}
	return ids, nil
}

func seedKits(ctx context.Context, svc kitdomain.Service, ids map[string]int64) error {
	metals := ids["Total Metals by ICP-MS"]

	kits := []kitdomain.InsertRequest{
		{
			KitName:         "Homeowner Well Water Kit",
			Category:        "Drinking Water",
			Description:     "Baseline potability screen for private wells",
			TargetMarket:    "Residential",
			ApplicationType: "Drinking Water",
			DiscountPercent: d("10"),
			AnalyteIDs: []int64{
				ids["pH"], ids["Total Dissolved Solids"], ids["Chloride"],
				ids["Nitrate"], ids["Total Coliform and E. coli"], metals,
			},
			MetalCounts: map[int64]int{metals: 8},
		},
		{
			KitName:         "Irrigation Water Kit",
			Category:        "Agricultural",
			Description:     "Salinity and nutrient suitability screen for irrigation sources",
			TargetMarket:    "Agricultural",
			ApplicationType: "Irrigation",
			DiscountPercent: d("12.5"),
			AnalyteIDs: []int64{
				ids["pH"], ids["Conductivity"], ids["Total Dissolved Solids"],
				ids["Chloride"], ids["Alkalinity"],
			},
		},
	}

	for _, req := range kits {
		if _, err := svc.Insert(ctx, req); err != nil {
			return err
		}
	}
	return nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func dec(s string) *decimal.Decimal {
	v := decimal.RequireFromString(s)
	return &v
}

var Module = fx.Module("seed",
	fx.Invoke(Run),
)
