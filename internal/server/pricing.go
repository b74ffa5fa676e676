package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	pricingdomain "github.com/kelplabs/pricebook/internal/pricing/domain"
	"github.com/kelplabs/pricebook/internal/pricing/engine"
	"github.com/shopspring/decimal"
)

// AnalyteSummary returns the profitability view of one analyte. An optional
// metal_count query selects the tier quantity for tiered analytes.
func (s *Server) AnalyteSummary(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	metalCount := 1
	if raw := c.Query("metal_count"); raw != "" {
		metalCount, err = strconv.Atoi(raw)
		if err != nil || metalCount < 1 {
			AbortWithError(c, fmt.Errorf("%w: metal_count must be a positive integer", ErrInvalidRequest))
			return
		}
	}

	resp, err := s.pricingSvc.AnalyteSummary(c.Request.Context(), id, metalCount)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// Margin computes both margin variants for a raw price/cost pair.
func (s *Server) Margin(c *gin.Context) {
	price, err := queryDecimal(c, "price")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	cost, err := queryDecimal(c, "cost")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"margin_percent": engine.MarginOverCost(price, cost),
		"markup_percent": engine.MarginOverPrice(price, cost),
	}})
}

func (s *Server) Suggested(c *gin.Context) {
	cost, err := queryDecimal(c, "cost")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	targetMargin, err := queryDecimal(c, "target_margin")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"suggested_price": engine.SuggestedPrice(cost, targetMargin),
	}})
}

func (s *Server) Competitive(c *gin.Context) {
	price, err := queryDecimal(c, "price")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	benchmark, err := queryDecimal(c, "benchmark")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"bucket": engine.CompetitiveBucket(price, benchmark, s.pricingSvc.Band()),
	}})
}

func (s *Server) PriceKitAdHoc(c *gin.Context) {
	var req pricingdomain.KitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	resp, err := s.pricingSvc.PriceKitAdHoc(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func queryDecimal(c *gin.Context, name string) (decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: %s is required", ErrInvalidRequest, name)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s must be a decimal", ErrInvalidRequest, name)
	}
	return d, nil
}
