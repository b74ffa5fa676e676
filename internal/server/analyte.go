package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	analytedomain "github.com/kelplabs/pricebook/internal/analyte/domain"
)

func (s *Server) CreateAnalyte(c *gin.Context) {
	var req analytedomain.InsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	resp, err := s.analyteSvc.Insert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateAnalyte(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req analytedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	resp, err := s.analyteSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetAnalyte(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.analyteSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListAnalytes(c *gin.Context) {
	filter := analytedomain.Filter{
		Category:     c.Query("category"),
		Method:       c.Query("method"),
		NameContains: c.Query("name"),
		ActiveOnly:   c.Query("active") == "true",
	}

	resp, err := s.analyteSvc.List(c.Request.Context(), filter)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type assignCostRequest struct {
	CostID string `json:"cost_id"`
}

func (s *Server) AssignAnalyteCost(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req assignCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	resp, err := s.analyteSvc.AssignCost(c.Request.Context(), id, req.CostID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActivateAnalyte(c *gin.Context) {
	s.toggleAnalyte(c, true)
}

func (s *Server) DeactivateAnalyte(c *gin.Context) {
	s.toggleAnalyte(c, false)
}

func (s *Server) toggleAnalyte(c *gin.Context, active bool) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var resp *analytedomain.Analyte
	if active {
		resp, err = s.analyteSvc.Activate(c.Request.Context(), id)
	} else {
		resp, err = s.analyteSvc.Deactivate(c.Request.Context(), id)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id must be an integer", ErrInvalidRequest)
	}
	return id, nil
}
