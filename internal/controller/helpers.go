package controller

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"herd-analytics/internal/middleware"
	"herd-analytics/internal/repository"
	"herd-analytics/internal/service"

	"github.com/gin-gonic/gin"
)

// tenantOf returns the tenant resolved by middleware.TenantScope.
// Routes are only mounted behind that middleware, so a miss is a wiring bug.
func tenantOf(ctx *gin.Context) (uint, bool) {
	tenantID, ok := middleware.GetTenantID(ctx)
	if !ok {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Missing tenant",
			"message": "request is not bound to a tenant",
		})
	}
	return tenantID, ok
}

// pathID parses an unsigned id path parameter, writing a 400 on failure
func pathID(ctx *gin.Context, logger *slog.Logger, name string) (uint, bool) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		logger.Warn("invalid "+name,
			name, raw,
			"request_id", middleware.GetRequestID(ctx),
		)
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid " + name,
			"message": name + " must be a valid unsigned integer",
		})
		return 0, false
	}
	return uint(id), true
}

// asOfParam reads the optional as_of query parameter, defaulting to today
func asOfParam(ctx *gin.Context, today time.Time) (time.Time, bool) {
	raw := ctx.Query("as_of")
	if raw == "" {
		return today, true
	}
	asOf, err := parseISO8601Date(raw)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid as_of",
			"message": "as_of must be in ISO 8601 format (RFC3339 or YYYY-MM-DD)",
		})
		return time.Time{}, false
	}
	return asOf, true
}

// bodyDate parses a date field of a request body, writing a 400 on failure
func bodyDate(ctx *gin.Context, field, raw string) (time.Time, bool) {
	t, err := parseISO8601Date(raw)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid " + field,
			"message": field + " must be in ISO 8601 format (RFC3339 or YYYY-MM-DD)",
		})
		return time.Time{}, false
	}
	return t, true
}

// respondError maps service and repository errors to HTTP responses.
// Anything unrecognised is a store failure and yields a 500 without a partial body.
func respondError(ctx *gin.Context, logger *slog.Logger, err error, failure string, attrs ...any) {
	attrs = append(attrs,
		"error", err.Error(),
		"request_id", middleware.GetRequestID(ctx),
	)

	switch {
	case errors.Is(err, repository.ErrNotFound):
		logger.Warn("resource not found", attrs...)
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Not found", "message": err.Error()})
	case errors.Is(err, repository.ErrDuplicateTag),
		errors.Is(err, repository.ErrAlreadySold),
		errors.Is(err, repository.ErrNotPending):
		logger.Warn("conflicting write", attrs...)
		ctx.JSON(http.StatusConflict, gin.H{"error": "Conflict", "message": err.Error()})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, repository.ErrInvalidTenant):
		logger.Warn("rejected input", attrs...)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
	default:
		logger.Error(failure, attrs...)
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"message": failure,
		})
	}
}

// parseISO8601Date parses a date string in ISO 8601 format (RFC3339 is ISO 8601 compliant)
// Supports:
//   - RFC3339 (e.g., "2006-01-02T15:04:05Z07:00")
//   - RFC3339Nano (e.g., "2006-01-02T15:04:05.999999999Z07:00")
//   - YYYY-MM-DD (e.g., "2006-01-02")
//   - YYYY-MM-DDTHH:MM:SS (e.g., "2006-01-02T15:04:05")
//   - DD/MM/YYYY (e.g., "02/01/2006"), as typed on farm paperwork
func parseISO8601Date(dateStr string) (time.Time, error) {
	layouts := []string{
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02",
		"2006-01-02T15:04:05",
		"02/01/2006",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse ISO 8601 date: %s (expected RFC3339 or YYYY-MM-DD format)", dateStr)
}
