package router

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"herd-analytics/internal/controller"
	"herd-analytics/internal/middleware"

	"github.com/gin-gonic/gin"
)

// HealthCheck probes one dependency, returning nil when it is reachable
type HealthCheck func(ctx context.Context) error

// Options carries everything the router wires together
type Options struct {
	Analytics    *controller.AnalyticsController
	Ledger       *controller.LedgerController
	Tenants      middleware.TenantChecker
	TenantHeader string
	HealthChecks map[string]HealthCheck
	Logger       *slog.Logger
}

// New wires the gin engine with middlewares and the v1 routes
func New(opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLoggingMiddleware(opts.Logger))

	r.GET("/healthz", healthHandler(opts.HealthChecks, opts.Logger))
	r.GET("/metrics", middleware.MetricsHandler)

	v1 := r.Group("/v1", middleware.TenantScope(opts.TenantHeader, opts.Tenants, opts.Logger))
	{
		animals := v1.Group("/animals")
		{
			animals.POST("", opts.Ledger.RegisterAnimal)
			animals.DELETE("/:animal_id", opts.Ledger.DeleteAnimal)
			animals.POST("/:animal_id/restore", opts.Ledger.RestoreAnimal)
			animals.POST("/:animal_id/sale", opts.Ledger.RecordSale)
			animals.POST("/:animal_id/weighings", opts.Ledger.RecordWeighing)
			animals.POST("/:animal_id/treatments", opts.Ledger.RecordTreatment)

			animals.GET("/:animal_id/growth", opts.Analytics.GetGrowth)
			animals.GET("/:animal_id/cost", opts.Analytics.GetAnimalCost)
			animals.GET("/:animal_id/report", opts.Analytics.GetAnimalReport)
		}

		v1.DELETE("/weighings/:weighing_id", opts.Ledger.DeleteWeighing)

		v1.POST("/operating-costs", opts.Ledger.RecordOperatingCost)
		v1.GET("/operating-costs/breakdown", opts.Analytics.GetCostBreakdown)

		v1.GET("/cashflow", opts.Analytics.GetCashFlow)
		v1.GET("/financial", opts.Analytics.GetFinancialDashboard)
		v1.GET("/unit-economics", opts.Analytics.GetUnitEconomics)
		v1.POST("/unit-economics/simulate", opts.Analytics.SimulateUnitEconomics)
		v1.GET("/herd", opts.Analytics.GetHerdSnapshot)

		v1.GET("/schedules", opts.Ledger.ListSchedules)
		v1.POST("/schedules", opts.Ledger.CreateSchedule)
		v1.POST("/schedules/:schedule_id/settle", opts.Ledger.SettleSchedule)
	}

	opts.Logger.Info("router initialized", "routes", len(r.Routes()))
	return r
}

func healthHandler(checks map[string]HealthCheck, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.Warn("health check failed", "dependency", name, "error", err.Error())
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}

		overall := "ok"
		if status != http.StatusOK {
			overall = "degraded"
		}
		c.JSON(status, gin.H{
			"status":       overall,
			"dependencies": results,
		})
	}
}
