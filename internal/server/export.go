package server

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gosimple/slug"
	analytedomain "github.com/kelplabs/pricebook/internal/analyte/domain"
	auditdomain "github.com/kelplabs/pricebook/internal/audit/domain"
	costdomain "github.com/kelplabs/pricebook/internal/costmodel/domain"
	kitdomain "github.com/kelplabs/pricebook/internal/kit/domain"
	"github.com/kelplabs/pricebook/pkg/money"
	"github.com/shopspring/decimal"
)

var analyteFields = []string{
	"id", "name", "method", "technology", "category", "subcategory", "price",
	"sku", "active", "pricing_type", "additional_price", "metal_list",
	"cost_id", "target_margin", "competitor_price_emsl", "competitor_price_other",
}

var costFields = []string{
	"cost_id", "test_name", "labor_minutes", "labor_rate", "consumables_cost",
	"reagents_cost", "equipment_cost", "qc_percentage", "overhead_allocation",
	"compliance_cost", "labor_cost", "qc_cost", "total_internal_cost",
	"confidence_level", "last_review", "active",
}

var kitFields = []string{
	"id", "kit_name", "category", "description", "target_market",
	"application_type", "discount_percent", "active", "analyte_ids", "metal_counts",
}

var auditFields = []string{
	"timestamp", "table_name", "record_id", "field_name", "old_value",
	"new_value", "change_type", "user_name",
}

func (s *Server) ExportAnalytesCSV(c *gin.Context) {
	analytes, err := s.analyteSvc.List(c.Request.Context(), analytedomain.Filter{})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows := make([][]string, 0, len(analytes))
	for i := range analytes {
		rows = append(rows, analyteRow(&analytes[i]))
	}
	writeCSV(c, "analytes", analyteFields, rows)
}

func (s *Server) ExportCostsCSV(c *gin.Context) {
	records, err := s.costSvc.List(c.Request.Context(), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows := make([][]string, 0, len(records))
	for i := range records {
		rows = append(rows, costRow(&records[i]))
	}
	writeCSV(c, "costs", costFields, rows)
}

func (s *Server) ExportKitsCSV(c *gin.Context) {
	kits, err := s.kitSvc.List(c.Request.Context(), false)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows := make([][]string, 0, len(kits))
	for i := range kits {
		rows = append(rows, kitRow(&kits[i]))
	}
	writeCSV(c, "kits", kitFields, rows)
}

func (s *Server) ExportAuditCSV(c *gin.Context) {
	entries, err := s.auditSvc.Query(c.Request.Context(), auditdomain.QueryRequest{})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rows := make([][]string, 0, len(entries))
	for i := range entries {
		rows = append(rows, auditRow(&entries[i]))
	}
	writeCSV(c, "audit", auditFields, rows)
}

type customExportRequest struct {
	Entity string   `json:"entity"`
	Fields []string `json:"fields"`
}

// ExportCustomJSON returns an array of objects carrying only the selected
// fields; decimals serialise as JSON numbers and analyte_ids as arrays.
func (s *Server) ExportCustomJSON(c *gin.Context) {
	var req customExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}
	if len(req.Fields) == 0 {
		AbortWithError(c, fmt.Errorf("%w: fields must not be empty", ErrInvalidRequest))
		return
	}

	var records []map[string]any
	switch req.Entity {
	case "analytes":
		analytes, err := s.analyteSvc.List(c.Request.Context(), analytedomain.Filter{})
		if err != nil {
			AbortWithError(c, err)
			return
		}
		for i := range analytes {
			record, err := selectFields(analyteValues(&analytes[i]), req.Fields)
			if err != nil {
				AbortWithError(c, err)
				return
			}
			records = append(records, record)
		}
	case "test_kits":
		kits, err := s.kitSvc.List(c.Request.Context(), false)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		for i := range kits {
			record, err := selectFields(kitValues(&kits[i]), req.Fields)
			if err != nil {
				AbortWithError(c, err)
				return
			}
			records = append(records, record)
		}
	case "cost_data":
		costs, err := s.costSvc.List(c.Request.Context(), false)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		for i := range costs {
			record, err := selectFields(costValues(&costs[i]), req.Fields)
			if err != nil {
				AbortWithError(c, err)
				return
			}
			records = append(records, record)
		}
	default:
		AbortWithError(c, fmt.Errorf("%w: unknown entity %q", ErrInvalidRequest, req.Entity))
		return
	}

	if records == nil {
		records = []map[string]any{}
	}
	c.JSON(http.StatusOK, records)
}

func selectFields(values map[string]any, fields []string) (map[string]any, error) {
	record := make(map[string]any, len(fields))
	for _, field := range fields {
		value, ok := values[field]
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidRequest, field)
		}
		record[field] = value
	}
	return record, nil
}

// writeCSV renders UTF-8, LF-terminated CSV with no BOM.
func writeCSV(c *gin.Context, name string, header []string, rows [][]string) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write(header)
	_ = w.WriteAll(rows)
	w.Flush()
	if err := w.Error(); err != nil {
		AbortWithError(c, err)
		return
	}

	filename := fmt.Sprintf("%s-%s.csv", slug.Make("pricebook "+name), time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func csvMoney(d decimal.Decimal) string {
	return money.Round2(d).StringFixed(2)
}

func analyteRow(a *analytedomain.Analyte) []string {
	return []string{
		strconv.FormatInt(a.ID, 10),
		a.Name,
		a.Method,
		a.Technology,
		a.Category,
		a.Subcategory,
		csvMoney(a.Price),
		a.SKU,
		strconv.FormatBool(a.Active),
		string(a.PricingType),
		csvMoney(a.AdditionalPrice),
		a.MetalList,
		a.CostID,
		a.TargetMargin.String(),
		csvMoney(a.CompetitorPriceEMSL),
		csvMoney(a.CompetitorPriceOther),
	}
}

func analyteValues(a *analytedomain.Analyte) map[string]any {
	return map[string]any{
		"id":                     a.ID,
		"name":                   a.Name,
		"method":                 a.Method,
		"technology":             a.Technology,
		"category":               a.Category,
		"subcategory":            a.Subcategory,
		"price":                  a.Price,
		"sku":                    a.SKU,
		"active":                 a.Active,
		"pricing_type":           string(a.PricingType),
		"additional_price":       a.AdditionalPrice,
		"metal_list":             a.MetalList,
		"cost_id":                a.CostID,
		"target_margin":          a.TargetMargin,
		"competitor_price_emsl":  a.CompetitorPriceEMSL,
		"competitor_price_other": a.CompetitorPriceOther,
	}
}

func costRow(r *costdomain.CostRecord) []string {
	return []string{
		r.CostID,
		r.TestName,
		strconv.Itoa(r.LaborMinutes),
		csvMoney(r.LaborRate),
		csvMoney(r.ConsumablesCost),
		csvMoney(r.ReagentsCost),
		csvMoney(r.EquipmentCost),
		r.QCPercentage.String(),
		csvMoney(r.OverheadAllocation),
		csvMoney(r.ComplianceCost),
		csvMoney(r.LaborCost),
		csvMoney(r.QCCost),
		csvMoney(r.TotalInternalCost),
		string(r.ConfidenceLevel),
		r.LastReview,
		strconv.FormatBool(r.Active),
	}
}

func costValues(r *costdomain.CostRecord) map[string]any {
	return map[string]any{
		"cost_id":             r.CostID,
		"test_name":           r.TestName,
		"labor_minutes":       r.LaborMinutes,
		"labor_rate":          r.LaborRate,
		"consumables_cost":    r.ConsumablesCost,
		"reagents_cost":       r.ReagentsCost,
		"equipment_cost":      r.EquipmentCost,
		"qc_percentage":       r.QCPercentage,
		"overhead_allocation": r.OverheadAllocation,
		"compliance_cost":     r.ComplianceCost,
		"labor_cost":          r.LaborCost,
		"qc_cost":             r.QCCost,
		"total_internal_cost": r.TotalInternalCost,
		"confidence_level":    string(r.ConfidenceLevel),
		"last_review":         r.LastReview,
		"active":              r.Active,
	}
}

func kitRow(k *kitdomain.TestKit) []string {
	return []string{
		strconv.FormatInt(k.ID, 10),
		k.KitName,
		k.Category,
		k.Description,
		k.TargetMarket,
		k.ApplicationType,
		k.DiscountPercent.String(),
		strconv.FormatBool(k.Active),
		auditdomain.SerializeIDs(k.AnalyteIDs),
		auditdomain.SerializeCounts(k.MetalCounts()),
	}
}

func kitValues(k *kitdomain.TestKit) map[string]any {
	return map[string]any{
		"id":               k.ID,
		"kit_name":         k.KitName,
		"category":         k.Category,
		"description":      k.Description,
		"target_market":    k.TargetMarket,
		"application_type": k.ApplicationType,
		"discount_percent": k.DiscountPercent,
		"active":           k.Active,
		"analyte_ids":      []int64(k.AnalyteIDs),
		"metal_counts":     k.MetalCounts(),
	}
}

func auditRow(e *auditdomain.AuditEntry) []string {
	return []string{
		e.Timestamp.UTC().Format(time.RFC3339),
		string(e.Table),
		e.RecordID,
		e.FieldName,
		e.OldValue,
		e.NewValue,
		string(e.ChangeType),
		e.UserName,
	}
}
