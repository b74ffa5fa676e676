package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	kitdomain "github.com/kelplabs/pricebook/internal/kit/domain"
)

func (s *Server) CreateKit(c *gin.Context) {
	var req kitdomain.InsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	resp, err := s.kitSvc.Insert(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateKit(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req kitdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, fmt.Errorf("%w: %v", ErrInvalidRequest, err))
		return
	}

	resp, err := s.kitSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetKit(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.kitSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListKits(c *gin.Context) {
	resp, err := s.kitSvc.List(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ActivateKit(c *gin.Context) {
	s.toggleKit(c, true)
}

func (s *Server) DeactivateKit(c *gin.Context) {
	s.toggleKit(c, false)
}

func (s *Server) toggleKit(c *gin.Context, active bool) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var resp *kitdomain.TestKit
	if active {
		resp, err = s.kitSvc.Activate(c.Request.Context(), id)
	} else {
		resp, err = s.kitSvc.Deactivate(c.Request.Context(), id)
	}
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}

// KitPricing returns the engine roll-up for one stored kit.
func (s *Server) KitPricing(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.pricingSvc.PriceKitByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
