package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	auditdomain "github.com/kelplabs/pricebook/internal/audit/domain"
	"github.com/kelplabs/pricebook/internal/costmodel/domain"
	"github.com/kelplabs/pricebook/internal/observability/metrics"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Audit   auditdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	audit   auditdomain.Service
	metrics *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("costmodel.service"),
		repo:    p.Repo,
		audit:   p.Audit,
		metrics: p.Metrics,
	}
}

func (s *Service) Get(ctx context.Context, costID string) (*domain.CostRecord, error) {
	record, err := s.repo.Get(ctx, s.db, costID)
	if err != nil {
		return nil, err
	}
	s.repairDrift(ctx, record)
	return record, nil
}

func (s *Service) List(ctx context.Context, activeOnly bool) ([]domain.CostRecord, error) {
	records, err := s.repo.List(ctx, s.db, activeOnly)
	if err != nil {
		return nil, err
	}
	for i := range records {
		s.repairDrift(ctx, &records[i])
	}
	return records, nil
}

// repairDrift re-verifies the roll-up identity on read and repairs the stored
// derived trio when a stale value is found. Derived fields are not audited.
func (s *Service) repairDrift(ctx context.Context, record *domain.CostRecord) {
	if !record.Drifted() {
		return
	}
	s.log.Warn("derived cost drift repaired", zap.String("cost_id", record.CostID))
	record.Recompute()
	if err := s.repo.Save(ctx, s.db, record); err != nil {
		s.log.Warn("failed to persist drift repair", zap.String("cost_id", record.CostID), zap.Error(err))
	}
}

func (s *Service) Upsert(ctx context.Context, costID string, req domain.UpsertRequest) (*domain.CostRecord, error) {
	if costID == "" {
		return nil, fmt.Errorf("%w: cost_id is required", domain.ErrInvalidField)
	}
	if err := validateUpsert(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, s.db, costID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	today := time.Now().Format("2006-01-02")

	if existing == nil {
		record := domain.CostRecord{
			CostID:          costID,
			ConfidenceLevel: domain.ConfidenceMedium,
			LastReview:      today,
			Active:          true,
		}
		applyUpsert(&record, req)
		record.Recompute()

		serialized, _ := json.Marshal(record)
		err = s.db.Transaction(func(tx *gorm.DB) error {
			if err := s.repo.Save(ctx, tx, &record); err != nil {
				return err
			}
			return s.audit.Append(ctx, tx, auditdomain.FieldChange(
				auditdomain.TableCostData, record.CostID, auditdomain.FieldAll,
				"", string(serialized), auditdomain.Insert,
			))
		})
		if err != nil {
			return nil, err
		}
		return &record, nil
	}

	updated := *existing
	applyUpsert(&updated, req)
	changes := diffWritable(existing, &updated)
	if len(changes) == 0 {
		return existing, nil
	}

	updated.Recompute()
	updated.LastReview = today

	entries := make([]auditdomain.AuditEntry, 0, len(changes))
	for _, ch := range changes {
		entries = append(entries, auditdomain.FieldChange(
			auditdomain.TableCostData, updated.CostID, ch.field, ch.old, ch.new, auditdomain.Update,
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

// BulkSetLaborRate replaces the labor rate on every record whose serialised
// rate differs, recomputes the derived trio and stamps last_review. One
// BULK_UPDATE entry per affected record.
func (s *Service) BulkSetLaborRate(ctx context.Context, newRate decimal.Decimal) (int, error) {
	if newRate.IsNegative() {
		return 0, fmt.Errorf("%w: labor_rate must be >= 0", domain.ErrInvalidField)
	}

	records, err := s.repo.List(ctx, s.db, false)
	if err != nil {
		return 0, err
	}

	today := time.Now().Format("2006-01-02")
	affected := 0

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i := range records {
			record := records[i]
			oldValue := record.LaborRate.String()
			newValue := newRate.String()
			if oldValue == newValue {
				continue
			}

			record.LaborRate = newRate
			record.Recompute()
			record.LastReview = today
			if err := s.repo.Save(ctx, tx, &record); err != nil {
				return err
			}
			if err := s.audit.Append(ctx, tx, auditdomain.FieldChange(
				auditdomain.TableCostData, record.CostID, "labor_rate",
				oldValue, newValue, auditdomain.BulkUpdate,
			)); err != nil {
				return err
			}
			affected++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("bulk labor rate applied", zap.String("rate", newRate.String()), zap.Int("affected", affected))
	return affected, nil
}

// BulkAdjustOverhead scales overhead_allocation by (1 + delta/100) on every
// record. A zero delta is a no-op: records stay byte-equal and nothing is
// audited.
func (s *Service) BulkAdjustOverhead(ctx context.Context, deltaPercent decimal.Decimal) (int, error) {
	if deltaPercent.IsZero() {
		return 0, nil
	}
	// Below -100 the multiplier flips sign and overhead would go negative.
	if deltaPercent.LessThan(decimal.NewFromInt(-100)) {
		return 0, fmt.Errorf("%w: delta_percent must be >= -100", domain.ErrInvalidField)
	}

	records, err := s.repo.List(ctx, s.db, false)
	if err != nil {
		return 0, err
	}

	multiplier := decimal.NewFromInt(1).Add(deltaPercent.Div(decimal.NewFromInt(100)))
	today := time.Now().Format("2006-01-02")
	affected := 0

	err = s.db.Transaction(func(tx *gorm.DB) error {
		for i := range records {
			record := records[i]
			oldValue := record.OverheadAllocation.String()
			record.OverheadAllocation = record.OverheadAllocation.Mul(multiplier)
			record.Recompute()
			record.LastReview = today
			if err := s.repo.Save(ctx, tx, &record); err != nil {
				return err
			}
			if err := s.audit.Append(ctx, tx, auditdomain.FieldChange(
				auditdomain.TableCostData, record.CostID, "overhead_allocation",
				oldValue, record.OverheadAllocation.String(), auditdomain.BulkUpdate,
			)); err != nil {
				return err
			}
			affected++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("bulk overhead adjustment applied", zap.String("delta_percent", deltaPercent.String()), zap.Int("affected", affected))
	return affected, nil
}

func validateUpsert(req domain.UpsertRequest) error {
	if req.LaborMinutes != nil && *req.LaborMinutes < 0 {
		return fmt.Errorf("%w: labor_minutes must be >= 0", domain.ErrInvalidField)
	}
	for _, check := range []struct {
		name  string
		value *decimal.Decimal
	}{
		{"labor_rate", req.LaborRate},
		{"consumables_cost", req.ConsumablesCost},
		{"reagents_cost", req.ReagentsCost},
		{"equipment_cost", req.EquipmentCost},
		{"overhead_allocation", req.OverheadAllocation},
		{"compliance_cost", req.ComplianceCost},
	} {
		if check.value != nil && check.value.IsNegative() {
			return fmt.Errorf("%w: %s must be >= 0", domain.ErrInvalidField, check.name)
		}
	}
	if req.QCPercentage != nil {
		if req.QCPercentage.IsNegative() || req.QCPercentage.GreaterThan(decimal.NewFromInt(100)) {
			return fmt.Errorf("%w: qc_percentage must be within [0,100]", domain.ErrInvalidField)
		}
	}
	if req.ConfidenceLevel != nil && !domain.ValidConfidence(*req.ConfidenceLevel) {
		return fmt.Errorf("%w: confidence_level must be High, Medium or Low", domain.ErrInvalidField)
	}
	return nil
}

func applyUpsert(record *domain.CostRecord, req domain.UpsertRequest) {
	if req.TestName != nil {
		record.TestName = *req.TestName
	}
	if req.LaborMinutes != nil {
		record.LaborMinutes = *req.LaborMinutes
	}
	if req.LaborRate != nil {
		record.LaborRate = *req.LaborRate
	}
	if req.ConsumablesCost != nil {
		record.ConsumablesCost = *req.ConsumablesCost
	}
	if req.ReagentsCost != nil {
		record.ReagentsCost = *req.ReagentsCost
	}
	if req.EquipmentCost != nil {
		record.EquipmentCost = *req.EquipmentCost
	}
	if req.QCPercentage != nil {
		record.QCPercentage = *req.QCPercentage
	}
	if req.OverheadAllocation != nil {
		record.OverheadAllocation = *req.OverheadAllocation
	}
	if req.ComplianceCost != nil {
		record.ComplianceCost = *req.ComplianceCost
	}
	if req.ConfidenceLevel != nil {
		record.ConfidenceLevel = *req.ConfidenceLevel
	}
	if req.Active != nil {
		record.Active = *req.Active
	}
}

type fieldChange struct {
	field string
	old   string
	new   string
}

func diffWritable(before, after *domain.CostRecord) []fieldChange {
	var changes []fieldChange
	add := func(field, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, fieldChange{field, oldValue, newValue})
		}
	}

	add("test_name", before.TestName, after.TestName)
	add("labor_minutes", auditdomain.Serialize(before.LaborMinutes), auditdomain.Serialize(after.LaborMinutes))
	add("labor_rate", before.LaborRate.String(), after.LaborRate.String())
	add("consumables_cost", before.ConsumablesCost.String(), after.ConsumablesCost.String())
	add("reagents_cost", before.ReagentsCost.String(), after.ReagentsCost.String())
	add("equipment_cost", before.EquipmentCost.String(), after.EquipmentCost.String())
	add("qc_percentage", before.QCPercentage.String(), after.QCPercentage.String())
	add("overhead_allocation", before.OverheadAllocation.String(), after.OverheadAllocation.String())
	add("compliance_cost", before.ComplianceCost.String(), after.ComplianceCost.String())
	add("confidence_level", string(before.ConfidenceLevel), string(after.ConfidenceLevel))
	add("active", auditdomain.Serialize(before.Active), auditdomain.Serialize(after.Active))
	return changes
}
