package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"call-logd/internal/auth"
	"call-logd/internal/reporting"
	"call-logd/internal/runs"

	"github.com/gin-gonic/gin"
)

// Trigger starts one generation batch now.
type Trigger interface {
	RunOnce(ctx context.Context, trigger runs.Trigger) (runs.Run, error)
}

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Runner    Trigger
	Runs      *runs.Service
	Reporting *reporting.Service
}

// Generate triggers a generation batch outside the schedule, e.g. after a
// bulk CEL import. The batch runs synchronously; the response is its journal
// entry.
func (h Handlers) Generate(c *gin.Context) {
	if h.Runner == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "runner not configured"})
		return
	}
	run, err := h.Runner.RunOnce(c.Request.Context(), runs.TriggerManual)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "generation failed"})
		return
	}
	c.JSON(http.StatusOK, run)
}

// ListRuns returns the latest journal entries, newest first.
func (h Handlers) ListRuns(c *gin.Context) {
	if h.Runs == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "runs not configured"})
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	out, err := h.Runs.Recent(c.Request.Context(), limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "run listing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

// CallsSummary aggregates the caller's tenant call logs over a time range.
func (h Handlers) CallsSummary(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	tenantUUID, err := auth.TenantUUID(c.Request.Context())
	if err != nil || tenantUUID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant_uuid required"})
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
		return
	}

	out, err := h.Reporting.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		TenantUUID: tenantUUID,
		Range:      reporting.TimeRange{From: from, To: to},
	})
	if errors.Is(err, reporting.ErrInvalidRequest) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
		return
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "summary failed"})
		return
	}
	c.JSON(http.StatusOK, out)
}
