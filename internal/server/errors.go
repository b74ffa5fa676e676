package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	analytedomain "github.com/kelplabs/pricebook/internal/analyte/domain"
	auditdomain "github.com/kelplabs/pricebook/internal/audit/domain"
	costdomain "github.com/kelplabs/pricebook/internal/costmodel/domain"
	kitdomain "github.com/kelplabs/pricebook/internal/kit/domain"
	pricingdomain "github.com/kelplabs/pricebook/internal/pricing/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var ErrInvalidRequest = errors.New("invalid_request")

// ErrorHandlingMiddleware maps domain sentinels onto the HTTP error contract.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	switch {
	case isNotFound(err):
		return http.StatusNotFound, errorPayload{Type: "not_found", Message: err.Error()}
	case errors.Is(err, analytedomain.ErrDuplicateSKU):
		return http.StatusConflict, errorPayload{Type: "duplicate_sku", Message: err.Error()}
	case isValidation(err):
		return http.StatusBadRequest, errorPayload{Type: "validation_error", Message: err.Error()}
	default:
		return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal error"}
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, analytedomain.ErrNotFound) ||
		errors.Is(err, costdomain.ErrNotFound) ||
		errors.Is(err, kitdomain.ErrNotFound) ||
		errors.Is(err, pricingdomain.ErrNotFound)
}

func isValidation(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, analytedomain.ErrInvalidField) ||
		errors.Is(err, analytedomain.ErrInvariant) ||
		errors.Is(err, analytedomain.ErrUnknownCost) ||
		errors.Is(err, costdomain.ErrInvalidField) ||
		errors.Is(err, costdomain.ErrParse) ||
		errors.Is(err, kitdomain.ErrInvalidField) ||
		errors.Is(err, kitdomain.ErrInvariant) ||
		errors.Is(err, pricingdomain.ErrInvalidField) ||
		errors.Is(err, auditdomain.ErrInvalidChangeType) ||
		errors.Is(err, auditdomain.ErrInvalidTable) ||
		errors.Is(err, auditdomain.ErrInvalidTimeRange)
}
