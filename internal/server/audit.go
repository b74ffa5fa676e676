package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/kelplabs/pricebook/internal/audit/domain"
)

// QueryAudit filters the audit trail by change type, table, date range and a
// substring over field names and values.
func (s *Server) QueryAudit(c *gin.Context) {
	req := auditdomain.QueryRequest{
		ChangeType: auditdomain.ChangeType(c.Query("change_type")),
		TableName:  auditdomain.Table(c.Query("table")),
		Contains:   c.Query("contains"),
	}

	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, fmt.Errorf("%w: start must be RFC3339", ErrInvalidRequest))
			return
		}
		req.StartAt = &t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			AbortWithError(c, fmt.Errorf("%w: end must be RFC3339", ErrInvalidRequest))
			return
		}
		req.EndAt = &t
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			AbortWithError(c, fmt.Errorf("%w: limit must be a positive integer", ErrInvalidRequest))
			return
		}
		req.Limit = limit
	}

	resp, err := s.auditSvc.Query(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": resp})
}
