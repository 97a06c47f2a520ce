package controller

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"herd-analytics/internal/analytics"
	"herd-analytics/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AnalyticsController handles the read-only reporting endpoints
type AnalyticsController struct {
	analyticsService service.AnalyticsService
	logger           *slog.Logger
}

// NewAnalyticsController creates a new analytics controller
func NewAnalyticsController(analyticsService service.AnalyticsService, logger *slog.Logger) *AnalyticsController {
	return &AnalyticsController{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

// GetGrowth handles GET /v1/animals/{animal_id}/growth
func (c *AnalyticsController) GetGrowth(ctx *gin.Context) {
	startTime := time.Now()
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	animalID, ok := pathID(ctx, c.logger, "animal_id")
	if !ok {
		return
	}

	result, err := c.analyticsService.ComputeGrowth(ctx.Request.Context(), tenantID, animalID)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to compute growth",
			"tenant_id", tenantID,
			"animal_id", animalID,
			"latency_ms", time.Since(startTime).Milliseconds(),
		)
		return
	}

	c.logger.Debug("growth computed",
		"tenant_id", tenantID,
		"animal_id", animalID,
		"sufficient", result.Sufficient,
		"latency_ms", time.Since(startTime).Milliseconds(),
	)
	ctx.JSON(http.StatusOK, result)
}

// GetAnimalCost handles GET /v1/animals/{animal_id}/cost
func (c *AnalyticsController) GetAnimalCost(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	animalID, ok := pathID(ctx, c.logger, "animal_id")
	if !ok {
		return
	}

	cost, err := c.analyticsService.ComputeAnimalCost(ctx.Request.Context(), tenantID, animalID)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to compute animal cost",
			"tenant_id", tenantID,
			"animal_id", animalID,
		)
		return
	}
	ctx.JSON(http.StatusOK, cost)
}

// GetAnimalReport handles GET /v1/animals/{animal_id}/report
func (c *AnalyticsController) GetAnimalReport(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	animalID, ok := pathID(ctx, c.logger, "animal_id")
	if !ok {
		return
	}

	report, err := c.analyticsService.ComputeAnimalReport(ctx.Request.Context(), tenantID, animalID)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to build animal report",
			"tenant_id", tenantID,
			"animal_id", animalID,
		)
		return
	}
	ctx.JSON(http.StatusOK, report)
}

// GetCostBreakdown handles GET /v1/operating-costs/breakdown
// Query parameters:
//   - as_of (optional): last day of the 90 day window, defaults to today
func (c *AnalyticsController) GetCostBreakdown(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	asOf, ok := asOfParam(ctx, c.analyticsService.Today())
	if !ok {
		return
	}

	breakdown, err := c.analyticsService.ComputeOperatingCostBreakdown(ctx.Request.Context(), tenantID, asOf)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to compute cost breakdown",
			"tenant_id", tenantID,
			"as_of", asOf.Format("2006-01-02"),
		)
		return
	}
	ctx.JSON(http.StatusOK, breakdown)
}

// GetCashFlow handles GET /v1/cashflow
func (c *AnalyticsController) GetCashFlow(ctx *gin.Context) {
	startTime := time.Now()
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}

	flow, err := c.analyticsService.ComputeCashFlow(ctx.Request.Context(), tenantID)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to compute cash flow",
			"tenant_id", tenantID,
			"latency_ms", time.Since(startTime).Milliseconds(),
		)
		return
	}

	c.logger.Info("cash flow computed",
		"tenant_id", tenantID,
		"years", len(flow.Years),
		"classification", flow.Classification,
		"latency_ms", time.Since(startTime).Milliseconds(),
	)
	ctx.JSON(http.StatusOK, flow)
}

// GetFinancialDashboard handles GET /v1/financial
// Query parameters:
//   - year (optional): selected calendar year, defaults to the current year
//   - as_of (optional): reference day of the unit economics, defaults to today
func (c *AnalyticsController) GetFinancialDashboard(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	today := c.analyticsService.Today()
	asOf, ok := asOfParam(ctx, today)
	if !ok {
		return
	}

	year := today.Year()
	if raw := ctx.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil || y < 1900 || y > 9999 {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid year",
				"message": "year must be a four digit calendar year",
			})
			return
		}
		year = y
	}

	dashboard, err := c.analyticsService.ComputeFinancialDashboard(ctx.Request.Context(), tenantID, year, asOf)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to build financial dashboard",
			"tenant_id", tenantID,
			"year", year,
		)
		return
	}
	ctx.JSON(http.StatusOK, dashboard)
}

// GetUnitEconomics handles GET /v1/unit-economics
// Query parameters:
//   - as_of (optional): reference day of the run-rate window, defaults to today
func (c *AnalyticsController) GetUnitEconomics(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	asOf, ok := asOfParam(ctx, c.analyticsService.Today())
	if !ok {
		return
	}

	ue, err := c.analyticsService.ComputeUnitEconomics(ctx.Request.Context(), tenantID, asOf)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to compute unit economics",
			"tenant_id", tenantID,
			"as_of", asOf.Format("2006-01-02"),
		)
		return
	}
	ctx.JSON(http.StatusOK, ue)
}

// simulateRequest overrides any subset of the live inputs; omitted fields keep the live value
type simulateRequest struct {
	Headcount *int             `json:"qtd_animais" binding:"omitempty,gte=0"`
	GMD       *float64         `json:"gmd_medio"`
	Lease     *decimal.Decimal `json:"arrendamento"`
	Feed      *decimal.Decimal `json:"suplementacao"`
	Labor     *decimal.Decimal `json:"mao_obra"`
	Extras    *decimal.Decimal `json:"extras"`
}

// simulationResponse pairs the live figures with the recomputed ones
type simulationResponse struct {
	Live      analytics.UnitEconomics `json:"live"`
	Simulated analytics.UnitEconomics `json:"simulated"`
}

// SimulateUnitEconomics handles POST /v1/unit-economics/simulate
// The live values at as_of pre-fill every input the body leaves out.
func (c *AnalyticsController) SimulateUnitEconomics(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	asOf, ok := asOfParam(ctx, c.analyticsService.Today())
	if !ok {
		return
	}

	var req simulateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}
	for name, v := range map[string]*decimal.Decimal{
		"arrendamento":  req.Lease,
		"suplementacao": req.Feed,
		"mao_obra":      req.Labor,
		"extras":        req.Extras,
	} {
		if v != nil && v.IsNegative() {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request body",
				"message": name + " must not be negative",
			})
			return
		}
	}

	live, err := c.analyticsService.ComputeUnitEconomics(ctx.Request.Context(), tenantID, asOf)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to load live unit economics",
			"tenant_id", tenantID,
		)
		return
	}

	in := live.UnitEconomicsInput
	if req.Headcount != nil {
		in.Headcount = *req.Headcount
	}
	if req.GMD != nil {
		in.GMD = *req.GMD
	}
	if req.Lease != nil {
		in.Lease = *req.Lease
	}
	if req.Feed != nil {
		in.Feed = *req.Feed
	}
	if req.Labor != nil {
		in.Labor = *req.Labor
	}
	if req.Extras != nil {
		in.Extras = *req.Extras
	}

	ctx.JSON(http.StatusOK, simulationResponse{
		Live:      *live,
		Simulated: c.analyticsService.SimulateUnitEconomics(in),
	})
}

// GetHerdSnapshot handles GET /v1/herd
func (c *AnalyticsController) GetHerdSnapshot(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}

	snap, err := c.analyticsService.ComputeHerdSnapshot(ctx.Request.Context(), tenantID)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to compute herd snapshot",
			"tenant_id", tenantID,
		)
		return
	}
	ctx.JSON(http.StatusOK, snap)
}
