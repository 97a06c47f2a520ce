package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// DefaultTenantHeader is set by the authentication layer in front of this service
const DefaultTenantHeader = "X-Tenant-ID"

const tenantIDKey = "tenant_id"

// TenantChecker reports whether a tenant exists
type TenantChecker interface {
	TenantExists(ctx context.Context, tenantID uint) (bool, error)
}

// TenantScope resolves the tenant of the request from a trusted header and aborts
// when it is missing, malformed or unknown. Handlers read it with GetTenantID.
func TenantScope(header string, checker TenantChecker, logger *slog.Logger) gin.HandlerFunc {
	if header == "" {
		header = DefaultTenantHeader
	}
	return func(c *gin.Context) {
		raw := c.GetHeader(header)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "Missing tenant",
				"message": fmt.Sprintf("%s header is required", header),
			})
			return
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			logger.Warn("invalid tenant header",
				"header", header,
				"value", raw,
				"request_id", GetRequestID(c),
			)
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid tenant",
				"message": fmt.Sprintf("%s must be a positive integer", header),
			})
			return
		}

		tenantID := uint(id)
		exists, err := checker.TenantExists(c.Request.Context(), tenantID)
		if err != nil {
			logger.Error("failed to check tenant existence",
				"tenant_id", tenantID,
				"error", err.Error(),
				"request_id", GetRequestID(c),
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "Internal server error",
				"message": "Failed to verify tenant",
			})
			return
		}
		if !exists {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{
				"error":   "Tenant not found",
				"message": fmt.Sprintf("Tenant with ID %d does not exist", tenantID),
			})
			return
		}

		c.Set(tenantIDKey, tenantID)
		c.Next()
	}
}

// GetTenantID returns the tenant resolved by TenantScope
func GetTenantID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(tenantIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
