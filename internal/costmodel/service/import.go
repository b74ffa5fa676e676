package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	auditdomain "github.com/kelplabs/pricebook/internal/audit/domain"
	"github.com/kelplabs/pricebook/internal/costmodel/domain"
	"github.com/kelplabs/pricebook/pkg/money"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Import header names, matched case-sensitively but in any column order.
const (
	colTestID       = "Test ID"
	colTestName     = "Test Name"
	colLaborMinutes = "Labor Minutes"
	colLaborRate    = "Labor Rate ($/hr)"
	colLaborCost    = "Labor Cost"
	colConsumables  = "Consumables Cost"
	colReagents     = "Reagents Cost"
	colEquipment    = "Equipment Time Cost"
	colQCPercent    = "QC Cost (% of direct)"
	colQCAmount     = "QC Cost Amount"
	colOverhead     = "Overhead Allocation"
	colCompliance   = "Certification/Compliance Cost"
	colTotal        = "Total Internal Cost"
	colConfidence   = "Cost Confidence Level"
	colLastReview   = "Last Cost Review Date"
)

// ImportCSV replaces the entire cost model with the parsed rows. Rows that
// cannot be interpreted are skipped and reported; the replacement itself is
// atomic. Stored derived cells in the file are ignored and recomputed. One
// BULK_IMPORT entry records the completion.
func (s *Service) ImportCSV(ctx context.Context, r io.Reader) (*domain.ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing header row", domain.ErrParse)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	if _, ok := columns[colTestID]; !ok {
		return nil, fmt.Errorf("%w: header %q is required", domain.ErrParse, colTestID)
	}

	today := time.Now().Format("2006-01-02")
	result := &domain.ImportResult{Errors: []domain.RowError{}}
	seen := make(map[string]bool)
	var records []domain.CostRecord

	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Errors = append(result.Errors, domain.RowError{Line: line, Message: err.Error()})
			continue
		}

		cell := func(name string) string {
			idx, ok := columns[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		costID := cell(colTestID)
		if costID == "" {
			result.Errors = append(result.Errors, domain.RowError{Line: line, Message: "missing Test ID"})
			continue
		}
		if seen[costID] {
			result.Errors = append(result.Errors, domain.RowError{Line: line, Message: fmt.Sprintf("duplicate Test ID %q", costID)})
			continue
		}

		laborMinutes, _ := money.ParseCell(cell(colLaborMinutes))
		record := domain.CostRecord{
			CostID:          costID,
			TestName:        cell(colTestName),
			LaborMinutes:    int(laborMinutes.IntPart()),
			ConfidenceLevel: domain.ConfidenceMedium,
			LastReview:      today,
			Active:          true,
		}
		record.LaborRate, _ = money.ParseCell(cell(colLaborRate))
		record.ConsumablesCost, _ = money.ParseCell(cell(colConsumables))
		record.ReagentsCost, _ = money.ParseCell(cell(colReagents))
		record.EquipmentCost, _ = money.ParseCell(cell(colEquipment))
		record.QCPercentage, _ = money.ParseCell(cell(colQCPercent))
		record.OverheadAllocation, _ = money.ParseCell(cell(colOverhead))
		record.ComplianceCost, _ = money.ParseCell(cell(colCompliance))

		if confidence := domain.Confidence(cell(colConfidence)); domain.ValidConfidence(confidence) {
			record.ConfidenceLevel = confidence
		}
		if review := cell(colLastReview); review != "" {
			if _, err := time.Parse("2006-01-02", review); err == nil {
				record.LastReview = review
			}
		}

		record.Recompute()
		seen[costID] = true
		records = append(records, record)
	}

	previous, err := s.repo.Count(ctx, s.db)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.DeleteAll(ctx, tx); err != nil {
			return err
		}
		if err := s.repo.InsertAll(ctx, tx, records); err != nil {
			return err
		}
		return s.audit.Append(ctx, tx, auditdomain.FieldChange(
			auditdomain.TableCostData, "*", "import",
			fmt.Sprintf("%d records", previous),
			fmt.Sprintf("%d records", len(records)),
			auditdomain.BulkImport,
		))
	})
	if err != nil {
		return nil, err
	}

	result.Imported = len(records)
	if s.metrics != nil {
		s.metrics.ImportRowsTotal.WithLabelValues("imported").Add(float64(result.Imported))
		s.metrics.ImportRowsTotal.WithLabelValues("rejected").Add(float64(len(result.Errors)))
	}
	s.log.Info("cost model imported",
		zap.Int("imported", result.Imported),
		zap.Int("skipped", len(result.Errors)),
	)
	return result, nil
}
