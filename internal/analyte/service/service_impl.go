package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/kelplabs/pricebook/internal/analyte/domain"
	auditdomain "github.com/kelplabs/pricebook/internal/audit/domain"
	costdomain "github.com/kelplabs/pricebook/internal/costmodel/domain"
	pkgdb "github.com/kelplabs/pricebook/pkg/db"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Repo     domain.Repository
	CostRepo costdomain.Repository
	Audit    auditdomain.Service
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	repo     domain.Repository
	costRepo costdomain.Repository
	audit    auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("analyte.service"),
		repo:     p.Repo,
		costRepo: p.CostRepo,
		audit:    p.Audit,
	}
}

func (s *Service) Insert(ctx context.Context, req domain.InsertRequest) (*domain.Analyte, error) {
	pricingType := req.PricingType
	if pricingType == "" {
		pricingType = domain.PricingStandard
	}

	analyte := domain.Analyte{
		Name:                 strings.TrimSpace(req.Name),
		Method:               strings.TrimSpace(req.Method),
		Technology:           strings.TrimSpace(req.Technology),
		Category:             strings.TrimSpace(req.Category),
		Subcategory:          strings.TrimSpace(req.Subcategory),
		Price:                req.Price,
		SKU:                  strings.TrimSpace(req.SKU),
		Active:               true,
		PricingType:          pricingType,
		AdditionalPrice:      req.AdditionalPrice,
		MetalList:            strings.TrimSpace(req.MetalList),
		CostID:               strings.TrimSpace(req.CostID),
		TargetMargin:         req.TargetMargin,
		CompetitorPriceEMSL:  req.CompetitorPriceEMSL,
		CompetitorPriceOther: req.CompetitorPriceOther,
	}

	if err := validate(&analyte); err != nil {
		return nil, err
	}
	if err := s.checkSKU(ctx, analyte.SKU, 0); err != nil {
		return nil, err
	}
	if err := s.checkCostID(ctx, analyte.CostID); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &analyte); err != nil {
			// The partial unique index on sku backs the pre-insert
			// check against writes racing past it.
			if pkgdb.IsDuplicateKeyErr(err) {
				return domain.ErrDuplicateSKU
			}
			return err
		}
		serialized, _ := json.Marshal(analyte)
		return s.audit.Append(ctx, tx, auditdomain.FieldChange(
			auditdomain.TableAnalytes, auditdomain.Serialize(analyte.ID), auditdomain.FieldAll,
			"", string(serialized), auditdomain.Insert,
		))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("analyte inserted", zap.Int64("id", analyte.ID), zap.String("name", analyte.Name))
	return &analyte, nil
}

func (s *Service) Update(ctx context.Context, id int64, req domain.UpdateRequest) (*domain.Analyte, error) {
	existing, err := s.repo.Get(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	applyUpdate(&updated, req)

	// Switching tiered -> standard implicitly clears the tier fields; both
	// implicit changes land in the field-level audit diff. An explicit
	// conflicting value in the same request is an invariant violation.
	if updated.PricingType == domain.PricingStandard && existing.IsTiered() {
		if req.AdditionalPrice != nil && !req.AdditionalPrice.IsZero() {
			return nil, fmt.Errorf("%w: standard analyte requires additional_price = 0", domain.ErrInvariant)
		}
		if req.MetalList != nil && strings.TrimSpace(*req.MetalList) != "" {
			return nil, fmt.Errorf("%w: standard analyte requires empty metal_list", domain.ErrInvariant)
		}
		updated.AdditionalPrice = decimal.Zero
		updated.MetalList = ""
	}

	if err := validate(&updated); err != nil {
		return nil, err
	}
	if updated.SKU != existing.SKU {
		if err := s.checkSKU(ctx, updated.SKU, id); err != nil {
			return nil, err
		}
	}
	if updated.CostID != existing.CostID {
		if err := s.checkCostID(ctx, updated.CostID); err != nil {
			return nil, err
		}
	}

	changes := diff(existing, &updated)
	if len(changes) == 0 {
		return existing, nil
	}

	entries := make([]auditdomain.AuditEntry, 0, len(changes))
	for _, ch := range changes {
		entries = append(entries, auditdomain.FieldChange(
			auditdomain.TableAnalytes, auditdomain.Serialize(id), ch.field, ch.old, ch.new, auditdomain.Update,
		))
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Save(ctx, tx, &updated); err != nil {
			return err
		}
		return s.audit.Append(ctx, tx, entries...)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Analyte, error) {
	return s.repo.Get(ctx, s.db, id)
}

func (s *Service) List(ctx context.Context, filter domain.Filter) ([]domain.Analyte, error) {
	return s.repo.List(ctx, s.db, filter)
}

func (s *Service) AssignCost(ctx context.Context, id int64, costID string) (*domain.Analyte, error) {
	costID = strings.TrimSpace(costID)
	return s.Update(ctx, id, domain.UpdateRequest{CostID: &costID})
}

func (s *Service) Activate(ctx context.Context, id int64) (*domain.Analyte, error) {
	return s.setActive(ctx, id, true)
}

func (s *Service) Deactivate(ctx context.Context, id int64) (*domain.Analyte, error) {
	return s.setActive(ctx, id, false)
}

func (s *Service) setActive(ctx context.Context, id int64, active bool) (*domain.Analyte, error) {
	existing, err := s.repo.Get(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if existing.Active == active {
		return existing, nil
	}

	updated := *existing
	updated.Active = active

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Save(ctx, tx, &updated); err != nil {
			return err
		}
		return s.audit.Append(ctx, tx, auditdomain.FieldChange(
			auditdomain.TableAnalytes, auditdomain.Serialize(id), "active",
			auditdomain.Serialize(existing.Active), auditdomain.Serialize(active), auditdomain.Update,
		))
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *Service) checkSKU(ctx context.Context, sku string, excludeID int64) error {
	if sku == "" {
		return nil
	}
	taken, err := s.repo.SKUTaken(ctx, s.db, sku, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return domain.ErrDuplicateSKU
	}
	return nil
}

func (s *Service) checkCostID(ctx context.Context, costID string) error {
	if costID == "" {
		return nil
	}
	if _, err := s.costRepo.Get(ctx, s.db, costID); err != nil {
		if errors.Is(err, costdomain.ErrNotFound) {
			return fmt.Errorf("%w: %s", domain.ErrUnknownCost, costID)
		}
		return err
	}
	return nil
}

// validate checks the field constraints and cross-field invariants on the
// final state of an analyte.
func validate(a *domain.Analyte) error {
	if a.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidField)
	}
	if !domain.ValidCategory(a.Category) {
		return fmt.Errorf("%w: unrecognized category %q", domain.ErrInvalidField, a.Category)
	}
	if !domain.ValidPricingType(a.PricingType) {
		return fmt.Errorf("%w: pricing_type must be standard or tiered", domain.ErrInvalidField)
	}
	if a.Price.IsNegative() {
		return fmt.Errorf("%w: price must be >= 0", domain.ErrInvalidField)
	}
	if a.AdditionalPrice.IsNegative() {
		return fmt.Errorf("%w: additional_price must be >= 0", domain.ErrInvalidField)
	}
	if a.TargetMargin.IsNegative() {
		return fmt.Errorf("%w: target_margin must be >= 0", domain.ErrInvalidField)
	}
	if a.CompetitorPriceEMSL.IsNegative() || a.CompetitorPriceOther.IsNegative() {
		return fmt.Errorf("%w: competitor prices must be >= 0", domain.ErrInvalidField)
	}

	switch a.PricingType {
	case domain.PricingStandard:
		if !a.AdditionalPrice.IsZero() {
			return fmt.Errorf("%w: standard analyte requires additional_price = 0", domain.ErrInvariant)
		}
		if a.MetalList != "" {
			return fmt.Errorf("%w: standard analyte requires empty metal_list", domain.ErrInvariant)
		}
	case domain.PricingTiered:
		if len(domain.MetalItems(a.MetalList)) == 0 {
			return fmt.Errorf("%w: tiered analyte requires a non-empty metal_list", domain.ErrInvariant)
		}
	}
	return nil
}

func applyUpdate(a *domain.Analyte, req domain.UpdateRequest) {
	if req.Name != nil {
		a.Name = strings.TrimSpace(*req.Name)
	}
	if req.Method != nil {
		a.Method = strings.TrimSpace(*req.Method)
	}
	if req.Technology != nil {
		a.Technology = strings.TrimSpace(*req.Technology)
	}
	if req.Category != nil {
		a.Category = strings.TrimSpace(*req.Category)
	}
	if req.Subcategory != nil {
		a.Subcategory = strings.TrimSpace(*req.Subcategory)
	}
	if req.Price != nil {
		a.Price = *req.Price
	}
	if req.SKU != nil {
		a.SKU = strings.TrimSpace(*req.SKU)
	}
	if req.PricingType != nil {
		a.PricingType = *req.PricingType
	}
	if req.AdditionalPrice != nil {
		a.AdditionalPrice = *req.AdditionalPrice
	}
	if req.MetalList != nil {
		a.MetalList = strings.TrimSpace(*req.MetalList)
	}
	if req.CostID != nil {
		a.CostID = strings.TrimSpace(*req.CostID)
	}
	if req.TargetMargin != nil {
		a.TargetMargin = *req.TargetMargin
	}
	if req.CompetitorPriceEMSL != nil {
		a.CompetitorPriceEMSL = *req.CompetitorPriceEMSL
	}
	if req.CompetitorPriceOther != nil {
		a.CompetitorPriceOther = *req.CompetitorPriceOther
	}
}

type fieldChange struct {
	field string
	old   string
	new   string
}

func diff(before, after *domain.Analyte) []fieldChange {
	var changes []fieldChange
	add := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, fieldChange{field, oldValue, newValue})
		}
	}

	add("name", before.Name, after.Name)
	add("method", before.Method, after.Method)
	add("technology", before.Technology, after.Technology)
	add("category", before.Category, after.Category)
	add("subcategory", before.Subcategory, after.Subcategory)
	add("price", before.Price.String(), after.Price.String())
	add("sku", before.SKU, after.SKU)
	add("pricing_type", string(before.PricingType), string(after.PricingType))
	add("additional_price", before.AdditionalPrice.String(), after.AdditionalPrice.String())
	add("metal_list", before.MetalList, after.MetalList)
	add("cost_id", before.CostID, after.CostID)
	add("target_margin", before.TargetMargin.String(), after.TargetMargin.String())
	add("competitor_price_emsl", before.CompetitorPriceEMSL.String(), after.CompetitorPriceEMSL.String())
	add("competitor_price_other", before.CompetitorPriceOther.String(), after.CompetitorPriceOther.String())
	return changes
}
