package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	analytedomain "github.com/kelplabs/pricebook/internal/analyte/domain"
	auditdomain "github.com/kelplabs/pricebook/internal/audit/domain"
	"github.com/kelplabs/pricebook/internal/kit/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Repo        domain.Repository
	AnalyteRepo analytedomain.Repository
	Audit       auditdomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	repo        domain.Repository
	analyteRepo analytedomain.Repository
	audit       auditdomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("kit.service"),
		repo:        p.Repo,
		analyteRepo: p.AnalyteRepo,
		audit:       p.Audit,
	}
}

func (s *Service) Insert(ctx context.Context, req domain.InsertRequest) (*domain.TestKit, error) {
	kit := domain.TestKit{
		KitName:         strings.TrimSpace(req.KitName),
		Category:        strings.TrimSpace(req.Category),
		Description:     req.Description,
		TargetMarket:    strings.TrimSpace(req.TargetMarket),
		ApplicationType: strings.TrimSpace(req.ApplicationType),
		DiscountPercent: req.DiscountPercent,
		Active:          true,
		AnalyteIDs:      datatypes.NewJSONSlice(req.AnalyteIDs),
	}
	kit.SetMetalCounts(req.MetalCounts)

	if err := s.validate(ctx, &kit); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &kit); err != nil {
			return err
		}
		serialized, _ := json.Marshal(kit)
		return s.audit.Append(ctx, tx, auditdomain.FieldChange(
			auditdomain.TableTestKits, auditdomain.Serialize(kit.ID), auditdomain.FieldAll,
			"", string(serialized), auditdomain.Insert,
		))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("kit inserted", zap.Int64("id", kit.ID), zap.String("kit_name", kit.KitName))
	return &kit, nil
}

func (s *Service) Update(ctx context.Context, id int64, req domain.UpdateRequest) (*domain.TestKit, error) {
	existing, err := s.repo.Get(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if req.KitName != nil {
		updated.KitName = strings.TrimSpace(*req.KitName)
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.Description != nil {
		updated.Description = *req.Description
	}
	if req.TargetMarket != nil {
		updated.TargetMarket = strings.TrimSpace(*req.TargetMarket)
	}
	if req.ApplicationType != nil {
		updated.ApplicationType = strings.TrimSpace(*req.ApplicationType)
	}
	if req.DiscountPercent != nil {
		updated.DiscountPercent = *req.DiscountPercent
	}
	if req.AnalyteIDs != nil {
		updated.AnalyteIDs = datatypes.NewJSONSlice(*req.AnalyteIDs)
	}
	if req.MetalCounts != nil {
		// Copy the metadata blob so the diff below sees the old value.
		metadata := datatypes.JSONMap{}
		for k, v := range existing.Metadata {
			metadata[k] = v
		}
		updated.Metadata = metadata
		updated.SetMetalCounts(*req.MetalCounts)
	}

	if err := s.validate(ctx, &updated); err != nil {
		return nil, err
	}

	changes := diff(existing, &updated)
	if len(changes) == 0 {
		return existing, nil
	}

	entries := make([]auditdomain.AuditEntry, 0, len(changes))
	for _, ch := range changes {
		entries = append(entries, auditdomain.FieldChange(
			auditdomain.TableTestKits, auditdomain.Serialize(id), ch.field, ch.old, ch.new, auditdomain.Update,
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

func (s *Service) Get(ctx context.Context, id int64) (*domain.TestKit, error) {
	return s.repo.Get(ctx, s.db, id)
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.TestKit, error) {
	return s.repo.List(ctx, s.db, activeOnly)
}

func (s *Service) Activate(ctx context.Context, id int64) (*domain.TestKit, error) {
	return s.setActive(ctx, id, true)
}

func (s *Service) Deactivate(ctx context.Context, id int64) (*domain.TestKit, error) {
	return s.setActive(ctx, id, false)
}

func (s *Service) setActive(ctx context.Context, id int64, active bool) (*domain.TestKit, error) {
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
			auditdomain.TableTestKits, auditdomain.Serialize(id), "active",
			auditdomain.Serialize(existing.Active), auditdomain.Serialize(active), auditdomain.Update,
		))
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

var hundred = decimal.NewFromInt(100)

// validate checks the kit invariants: a named kit, a 0..100 discount, a
// duplicate-free member list resolving to active analytes, and metal counts
// keyed by tiered members only.
func (s *Service) validate(ctx context.Context, kit *domain.TestKit) error {
	if kit.KitName == "" {
		return fmt.Errorf("%w: kit_name is required", domain.ErrInvalidField)
	}
	if kit.DiscountPercent.IsNegative() || kit.DiscountPercent.GreaterThan(hundred) {
		return fmt.Errorf("%w: discount_percent must be within [0,100]", domain.ErrInvalidField)
	}
	if len(kit.AnalyteIDs) == 0 {
		return fmt.Errorf("%w: analyte_ids must not be empty", domain.ErrInvalidField)
	}

	seen := make(map[int64]bool, len(kit.AnalyteIDs))
	for _, id := range kit.AnalyteIDs {
		if seen[id] {
			return fmt.Errorf("%w: duplicate analyte id %d", domain.ErrInvariant, id)
		}
		seen[id] = true
	}

	analytes, err := s.analyteRepo.ListByIDs(ctx, s.db, kit.AnalyteIDs)
	if err != nil {
		return err
	}
	members := make(map[int64]analytedomain.Analyte, len(analytes))
	for _, a := range analytes {
		members[a.ID] = a
	}
	for _, id := range kit.AnalyteIDs {
		a, ok := members[id]
		if !ok {
			return fmt.Errorf("%w: analyte %d does not exist", domain.ErrInvariant, id)
		}
		if !a.Active {
			return fmt.Errorf("%w: analyte %d is inactive", domain.ErrInvariant, id)
		}
	}

	for id, count := range kit.MetalCounts() {
		a, ok := members[id]
		if !ok {
			return fmt.Errorf("%w: metal count for analyte %d not in kit", domain.ErrInvariant, id)
		}
		if !a.IsTiered() {
			return fmt.Errorf("%w: metal count for non-tiered analyte %d", domain.ErrInvariant, id)
		}
		if count < 1 {
			return fmt.Errorf("%w: metal count for analyte %d must be >= 1", domain.ErrInvariant, id)
		}
	}
	return nil
}

type fieldChange struct {
	field string
	old   string
	new   string
}

func diff(before, after *domain.TestKit) []fieldChange {
	var changes []fieldChange
	add := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, fieldChange{field, oldValue, newValue})
		}
	}

	add("kit_name", before.KitName, after.KitName)
	add("category", before.Category, after.Category)
	add("description", before.Description, after.Description)
	add("target_market", before.TargetMarket, after.TargetMarket)
	add("application_type", before.ApplicationType, after.ApplicationType)
	add("discount_percent", before.DiscountPercent.String(), after.DiscountPercent.String())
	add("analyte_ids", auditdomain.SerializeIDs(before.AnalyteIDs), auditdomain.SerializeIDs(after.AnalyteIDs))
	add("metal_counts", auditdomain.SerializeCounts(before.MetalCounts()), auditdomain.SerializeCounts(after.MetalCounts()))
	return changes
}
