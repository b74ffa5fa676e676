package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	costdomain "github.com/kelplabs/pricebook/internal/costmodel/domain"
	"github.com/shopspring/decimal"
)

func (s *Server) GetCost(c *gin.Context) {
	resp, err := s.costSvc.Get(c.Request.Context(), c.Param("cost_id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCosts(c *gin.Context) {
	resp, err := s.costSvc.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpsertCost(c *gin.Context) {
	var req costdomain.UpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	resp, err := s.costSvc.Upsert(c.Request.Context(), c.Param("cost_id"), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type bulkLaborRateRequest struct {
	LaborRate decimal.Decimal `json:"labor_rate"`
}

func (s *Server) BulkSetLaborRate(c *gin.Context) {
	var req bulkLaborRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	affected, err := s.costSvc.BulkSetLaborRate(c.Request.Context(), req.LaborRate)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"affected": affected}})
}

type bulkOverheadRequest struct {
	DeltaPercent decimal.Decimal `json:"delta_percent"`
}

func (s *Server) BulkAdjustOverhead(c *gin.Context) {
	var req bulkOverheadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	affected, err := s.costSvc.BulkAdjustOverhead(c.Request.Context(), req.DeltaPercent)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"affected": affected}})
}

// ImportCosts accepts the cost spreadsheet as a multipart "file" part or as
// the raw request body.
func (s *Server) ImportCosts(c *gin.Context) {
	body := c.Request.Body
	if file, err := c.FormFile("file"); err == nil {
		opened, err := file.Open()
		if err != nil {
			AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
			return
		}
		defer opened.Close()
		body = opened
	}

	result, err := s.costSvc.ImportCSV(c.Request.Context(), body)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": result})
}
