package domain

import (
	"time"

	"github.com/kelplabs/pricebook/pkg/money"
	"github.com/shopspring/decimal"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "High"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceLow    Confidence = "Low"
)

func ValidConfidence(c Confidence) bool {
	switch c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return true
	}
	return false
}

// CostRecord is the internal cost structure of one laboratory test. The raw
// component fields are the source of truth; labor_cost, qc_cost and
// total_internal_cost are stored for export fidelity and recomputed from the
// raw components on every write.
type CostRecord struct {
	CostID             string          `json:"cost_id" gorm:"column:cost_id;primaryKey;type:text"`
	TestName           string          `json:"test_name" gorm:"type:text"`
	LaborMinutes       int             `json:"labor_minutes" gorm:"not null;default:0"`
	LaborRate          decimal.Decimal `json:"labor_rate" gorm:"type:numeric;not null"`
	ConsumablesCost    decimal.Decimal `json:"consumables_cost" gorm:"type:numeric;not null"`
	ReagentsCost       decimal.Decimal `json:"reagents_cost" gorm:"type:numeric;not null"`
	EquipmentCost      decimal.Decimal `json:"equipment_cost" gorm:"type:numeric;not null"`
	QCPercentage       decimal.Decimal `json:"qc_percentage" gorm:"column:qc_percentage;type:numeric;not null"`
	OverheadAllocation decimal.Decimal `json:"overhead_allocation" gorm:"type:numeric;not null"`
	ComplianceCost     decimal.Decimal `json:"compliance_cost" gorm:"type:numeric;not null"`
	LaborCost          decimal.Decimal `json:"labor_cost" gorm:"type:numeric;not null"`
	QCCost             decimal.Decimal `json:"qc_cost" gorm:"column:qc_cost;type:numeric;not null"`
	TotalInternalCost  decimal.Decimal `json:"total_internal_cost" gorm:"type:numeric;not null"`
	ConfidenceLevel    Confidence      `json:"confidence_level" gorm:"type:text;not null"`
	LastReview         string          `json:"last_review" gorm:"type:text;not null"`
	Active             bool            `json:"active" gorm:"not null"`
	CreatedAt          time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt          time.Time       `json:"updated_at" gorm:"not null"`
}

func (CostRecord) TableName() string { return "cost_data" }

var sixty = decimal.NewFromInt(60)

// Recompute derives the stored trio from the raw components:
//
//	labor_cost = round2(labor_minutes/60 x labor_rate)
//	qc_cost    = round2((labor + consumables + reagents + equipment) x qc%/100)
//	total      = labor + consumables + reagents + equipment + qc + overhead + compliance
func (r *CostRecord) Recompute() {
	r.LaborCost = money.Round2(decimal.NewFromInt(int64(r.LaborMinutes)).Mul(r.LaborRate).Div(sixty))
	direct := r.LaborCost.Add(r.ConsumablesCost).Add(r.ReagentsCost).Add(r.EquipmentCost)
	r.QCCost = money.Round2(direct.Mul(money.Percent(r.QCPercentage)))
	r.TotalInternalCost = direct.Add(r.QCCost).Add(r.OverheadAllocation).Add(r.ComplianceCost)
}

// Drifted reports whether the stored derived trio disagrees with the raw
// components.
func (r *CostRecord) Drifted() bool {
	check := *r
	check.Recompute()
	return !check.LaborCost.Equal(r.LaborCost) ||
		!check.QCCost.Equal(r.QCCost) ||
		!check.TotalInternalCost.Equal(r.TotalInternalCost)
}
