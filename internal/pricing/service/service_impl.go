package service

import (
	"context"
	"errors"
	"fmt"

	analytedomain "github.com/kelplabs/pricebook/internal/analyte/domain"
	"github.com/kelplabs/pricebook/internal/config"
	costdomain "github.com/kelplabs/pricebook/internal/costmodel/domain"
	kitdomain "github.com/kelplabs/pricebook/internal/kit/domain"
	"github.com/kelplabs/pricebook/internal/pricing/domain"
	"github.com/kelplabs/pricebook/internal/pricing/engine"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Pricing     *config.PricingConfigHolder
	AnalyteRepo analytedomain.Repository
	KitRepo     kitdomain.Repository
	CostRepo    costdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	pricing     *config.PricingConfigHolder
	analyteRepo analytedomain.Repository
	kitRepo     kitdomain.Repository
	costRepo    costdomain.Repository
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("pricing.service"),
		pricing:     p.Pricing,
		analyteRepo: p.AnalyteRepo,
		kitRepo:     p.KitRepo,
		costRepo:    p.CostRepo,
	}
}

// Band returns the live competitive band from configuration.
func (s *Service) Band() engine.Band {
	cfg := s.pricing.Current()
	return engine.Band{
		Lower: decimal.NewFromFloat(cfg.CompetitiveBandLower),
		Upper: decimal.NewFromFloat(cfg.CompetitiveBandUpper),
	}
}

func (s *Service) AnalyteSummary(ctx context.Context, analyteID int64, metalCount int) (*domain.AnalyteSummary, error) {
	a, err := s.analyteRepo.Get(ctx, s.db, analyteID)
	if err != nil {
		if errors.Is(err, analytedomain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	if metalCount < 1 {
		metalCount = 1
	}

	summary := &domain.AnalyteSummary{
		AnalyteID:       a.ID,
		Name:            a.Name,
		EffectivePrice:  engine.EffectivePrice(*a, metalCount),
		TargetMargin:    a.TargetMargin,
		CompetitiveEMSL: engine.CompetitiveBucket(a.Price, a.CompetitorPriceEMSL, s.Band()),
	}

	if a.CostID != "" {
		cost, err := s.costRepo.Get(ctx, s.db, a.CostID)
		if err != nil && !errors.Is(err, costdomain.ErrNotFound) {
			return nil, err
		}
		if cost != nil {
			total := cost.TotalInternalCost
			suggested := engine.SuggestedPrice(total, a.TargetMargin)
			summary.TotalCost = &total
			summary.SuggestedPrice = &suggested
			summary.MarginPercent = engine.MarginOverCost(summary.EffectivePrice, total)
			summary.MarkupPercent = engine.MarginOverPrice(summary.EffectivePrice, total)
		}
	}
	return summary, nil
}

func (s *Service) PriceKitByID(ctx context.Context, kitID int64) (*engine.KitPricing, error) {
	kit, err := s.kitRepo.Get(ctx, s.db, kitID)
	if err != nil {
		if errors.Is(err, kitdomain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return s.price(ctx, kit.AnalyteIDs, kit.DiscountPercent, kit.MetalCounts())
}

func (s *Service) PriceKitAdHoc(ctx context.Context, req domain.KitRequest) (*engine.KitPricing, error) {
	if req.DiscountPercent.IsNegative() || req.DiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("%w: discount_percent must be within [0,100]", domain.ErrInvalidField)
	}
	return s.price(ctx, req.AnalyteIDs, req.DiscountPercent, req.MetalCounts)
}

func (s *Service) price(ctx context.Context, analyteIDs []int64, discount decimal.Decimal, metalCounts map[int64]int) (*engine.KitPricing, error) {
	analytes, err := s.analyteRepo.ListByIDs(ctx, s.db, analyteIDs)
	if err != nil {
		return nil, err
	}

	members := make(map[int64]analytedomain.Analyte, len(analytes))
	costs := make(map[string]costdomain.CostRecord)
	for _, a := range analytes {
		members[a.ID] = a
		if a.CostID == "" {
			continue
		}
		if _, ok := costs[a.CostID]; ok {
			continue
		}
		cost, err := s.costRepo.Get(ctx, s.db, a.CostID)
		if err != nil {
			if errors.Is(err, costdomain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		costs[a.CostID] = *cost
	}

	result := engine.PriceKit(engine.KitInput{
		AnalyteIDs:      analyteIDs,
		DiscountPercent: discount,
		MetalCounts:     metalCounts,
		Analytes:        members,
		Costs:           costs,
	})
	if len(result.DroppedIDs) > 0 {
		s.log.Debug("kit pricing dropped members", zap.Int64s("dropped_ids", result.DroppedIDs))
	}
	return &result, nil
}
