package controller

import (
	"log/slog"
	"net/http"

	"herd-analytics/internal/model"
	"herd-analytics/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// LedgerController handles the write endpoints of the herd ledger
type LedgerController struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

// NewLedgerController creates a new ledger controller
func NewLedgerController(ledgerService service.LedgerService, logger *slog.Logger) *LedgerController {
	return &LedgerController{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

type registerAnimalRequest struct {
	Tag         string          `json:"brinco" binding:"required,max=50"`
	Sex         string          `json:"sexo" binding:"required,oneof=M F"`
	Date        string          `json:"data_compra" binding:"required"`
	Weight      float64         `json:"peso" binding:"required,gt=0"`
	ArrobaPrice decimal.Decimal `json:"preco_arroba"`
}

type saleRequest struct {
	Date        string          `json:"data_venda" binding:"required"`
	Weight      float64         `json:"peso" binding:"required,gt=0"`
	ArrobaPrice decimal.Decimal `json:"preco_arroba"`
}

type weighingRequest struct {
	Date   string  `json:"data" binding:"required"`
	Weight float64 `json:"peso" binding:"required,gt=0"`
}

type treatmentRequest struct {
	Date  string              `json:"data_aplicacao" binding:"required"`
	Name  string              `json:"medicamento" binding:"required,max=100"`
	Cost  decimal.NullDecimal `json:"custo"`
	Notes string              `json:"observacao"`
}

type operatingCostRequest struct {
	Category    string          `json:"categoria" binding:"required,oneof=Fixo Variavel Financeiro"`
	CostType    string          `json:"tipo" binding:"required,max=50"`
	Amount      decimal.Decimal `json:"valor"`
	Date        string          `json:"data" binding:"required"`
	Description string          `json:"descricao"`
}

type scheduleRequest struct {
	Description string          `json:"descricao" binding:"required,max=200"`
	Amount      decimal.Decimal `json:"valor"`
	DueDate     string          `json:"data_vencimento" binding:"required"`
}

// bindBody decodes a JSON body, writing a 400 on failure
func bindBody(ctx *gin.Context, dest any) bool {
	if err := ctx.ShouldBindJSON(dest); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return false
	}
	return true
}

// RegisterAnimal handles POST /v1/animals
func (c *LedgerController) RegisterAnimal(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	var req registerAnimalRequest
	if !bindBody(ctx, &req) {
		return
	}
	date, ok := bodyDate(ctx, "data_compra", req.Date)
	if !ok {
		return
	}

	animal, err := c.ledgerService.RegisterAnimal(ctx.Request.Context(), tenantID, service.RegisterAnimalInput{
		Tag:         req.Tag,
		Sex:         model.Sex(req.Sex),
		Date:        date,
		Weight:      req.Weight,
		ArrobaPrice: req.ArrobaPrice,
	})
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to register animal",
			"tenant_id", tenantID,
			"tag", req.Tag,
		)
		return
	}

	c.logger.Info("animal registered",
		"tenant_id", tenantID,
		"animal_id", animal.ID,
		"tag", animal.Tag,
	)
	ctx.JSON(http.StatusCreated, animal)
}

// RecordSale handles POST /v1/animals/{animal_id}/sale
func (c *LedgerController) RecordSale(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	animalID, ok := pathID(ctx, c.logger, "animal_id")
	if !ok {
		return
	}
	var req saleRequest
	if !bindBody(ctx, &req) {
		return
	}
	date, ok := bodyDate(ctx, "data_venda", req.Date)
	if !ok {
		return
	}

	animal, err := c.ledgerService.RecordSale(ctx.Request.Context(), tenantID, animalID, service.SaleInput{
		Date:        date,
		Weight:      req.Weight,
		ArrobaPrice: req.ArrobaPrice,
	})
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to record sale",
			"tenant_id", tenantID,
			"animal_id", animalID,
		)
		return
	}

	c.logger.Info("sale recorded",
		"tenant_id", tenantID,
		"animal_id", animalID,
		"sale_price", animal.SalePrice.Decimal.StringFixed(2),
	)
	ctx.JSON(http.StatusOK, animal)
}

// RecordWeighing handles POST /v1/animals/{animal_id}/weighings
func (c *LedgerController) RecordWeighing(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	animalID, ok := pathID(ctx, c.logger, "animal_id")
	if !ok {
		return
	}
	var req weighingRequest
	if !bindBody(ctx, &req) {
		return
	}
	date, ok := bodyDate(ctx, "data", req.Date)
	if !ok {
		return
	}

	w, err := c.ledgerService.RecordWeighing(ctx.Request.Context(), tenantID, animalID, service.WeighingInput{
		Date:   date,
		Weight: req.Weight,
	})
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to record weighing",
			"tenant_id", tenantID,
			"animal_id", animalID,
		)
		return
	}
	ctx.JSON(http.StatusCreated, w)
}

// RecordTreatment handles POST /v1/animals/{animal_id}/treatments
func (c *LedgerController) RecordTreatment(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	animalID, ok := pathID(ctx, c.logger, "animal_id")
	if !ok {
		return
	}
	var req treatmentRequest
	if !bindBody(ctx, &req) {
		return
	}
	date, ok := bodyDate(ctx, "data_aplicacao", req.Date)
	if !ok {
		return
	}

	t, err := c.ledgerService.RecordTreatment(ctx.Request.Context(), tenantID, animalID, service.TreatmentInput{
		AppliedOn: date,
		Name:      req.Name,
		Cost:      req.Cost,
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to record treatment",
			"tenant_id", tenantID,
			"animal_id", animalID,
		)
		return
	}
	ctx.JSON(http.StatusCreated, t)
}

// DeleteAnimal handles DELETE /v1/animals/{animal_id}
func (c *LedgerController) DeleteAnimal(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	animalID, ok := pathID(ctx, c.logger, "animal_id")
	if !ok {
		return
	}

	if err := c.ledgerService.SoftDeleteAnimal(ctx.Request.Context(), tenantID, animalID); err != nil {
		respondError(ctx, c.logger, err, "Failed to delete animal",
			"tenant_id", tenantID,
			"animal_id", animalID,
		)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// RestoreAnimal handles POST /v1/animals/{animal_id}/restore
func (c *LedgerController) RestoreAnimal(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	animalID, ok := pathID(ctx, c.logger, "animal_id")
	if !ok {
		return
	}

	if err := c.ledgerService.RestoreAnimal(ctx.Request.Context(), tenantID, animalID); err != nil {
		respondError(ctx, c.logger, err, "Failed to restore animal",
			"tenant_id", tenantID,
			"animal_id", animalID,
		)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// DeleteWeighing handles DELETE /v1/weighings/{weighing_id}
func (c *LedgerController) DeleteWeighing(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	weighingID, ok := pathID(ctx, c.logger, "weighing_id")
	if !ok {
		return
	}

	if err := c.ledgerService.SoftDeleteWeighing(ctx.Request.Context(), tenantID, weighingID); err != nil {
		respondError(ctx, c.logger, err, "Failed to delete weighing",
			"tenant_id", tenantID,
			"weighing_id", weighingID,
		)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// RecordOperatingCost handles POST /v1/operating-costs
func (c *LedgerController) RecordOperatingCost(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	var req operatingCostRequest
	if !bindBody(ctx, &req) {
		return
	}
	date, ok := bodyDate(ctx, "data", req.Date)
	if !ok {
		return
	}

	cost, err := c.ledgerService.RecordOperatingCost(ctx.Request.Context(), tenantID, service.OperatingCostInput{
		Category:    model.CostCategory(req.Category),
		CostType:    req.CostType,
		Amount:      req.Amount,
		Date:        date,
		Description: req.Description,
	})
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to record operating cost",
			"tenant_id", tenantID,
			"cost_type", req.CostType,
		)
		return
	}
	ctx.JSON(http.StatusCreated, cost)
}

// ListSchedules handles GET /v1/schedules
func (c *LedgerController) ListSchedules(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}

	schedules, err := c.ledgerService.ListSchedules(ctx.Request.Context(), tenantID)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to list schedules",
			"tenant_id", tenantID,
		)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"schedules": schedules,
		"count":     len(schedules),
	})
}

// CreateSchedule handles POST /v1/schedules
func (c *LedgerController) CreateSchedule(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	var req scheduleRequest
	if !bindBody(ctx, &req) {
		return
	}
	due, ok := bodyDate(ctx, "data_vencimento", req.DueDate)
	if !ok {
		return
	}

	schedule, err := c.ledgerService.CreateSchedule(ctx.Request.Context(), tenantID, service.ScheduleInput{
		Description: req.Description,
		Amount:      req.Amount,
		DueDate:     due,
	})
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to create schedule",
			"tenant_id", tenantID,
		)
		return
	}
	ctx.JSON(http.StatusCreated, schedule)
}

// SettleSchedule handles POST /v1/schedules/{schedule_id}/settle
func (c *LedgerController) SettleSchedule(ctx *gin.Context) {
	tenantID, ok := tenantOf(ctx)
	if !ok {
		return
	}
	scheduleID, ok := pathID(ctx, c.logger, "schedule_id")
	if !ok {
		return
	}

	cost, err := c.ledgerService.SettleSchedule(ctx.Request.Context(), tenantID, scheduleID)
	if err != nil {
		respondError(ctx, c.logger, err, "Failed to settle schedule",
			"tenant_id", tenantID,
			"schedule_id", scheduleID,
		)
		return
	}

	c.logger.Info("schedule settled",
		"tenant_id", tenantID,
		"schedule_id", scheduleID,
		"operating_cost_id", cost.ID,
	)
	ctx.JSON(http.StatusOK, cost)
}
