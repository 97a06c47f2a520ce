package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"herd-analytics/internal/analytics"
	"herd-analytics/internal/cache"
	"herd-analytics/internal/model"
	"herd-analytics/internal/repository"

	"github.com/shopspring/decimal"
)

// ErrInvalidInput is returned for writes that would leave the ledger inconsistent
var ErrInvalidInput = errors.New("invalid input")

// LedgerService defines the write side of the herd ledger. Every successful
// write invalidates the tenant's cached reports.
type LedgerService interface {
	RegisterAnimal(ctx context.Context, tenantID uint, in RegisterAnimalInput) (*model.Animal, error)
	RecordSale(ctx context.Context, tenantID, animalID uint, in SaleInput) (*model.Animal, error)
	RecordWeighing(ctx context.Context, tenantID, animalID uint, in WeighingInput) (*model.Weighing, error)
	RecordTreatment(ctx context.Context, tenantID, animalID uint, in TreatmentInput) (*model.Treatment, error)
	RecordOperatingCost(ctx context.Context, tenantID uint, in OperatingCostInput) (*model.OperatingCost, error)
	SoftDeleteAnimal(ctx context.Context, tenantID, animalID uint) error
	RestoreAnimal(ctx context.Context, tenantID, animalID uint) error
	SoftDeleteWeighing(ctx context.Context, tenantID, weighingID uint) error
	CreateSchedule(ctx context.Context, tenantID uint, in ScheduleInput) (*model.FinancialSchedule, error)
	ListSchedules(ctx context.Context, tenantID uint) ([]ScheduleView, error)
	SettleSchedule(ctx context.Context, tenantID, scheduleID uint) (*model.OperatingCost, error)
}

// RegisterAnimalInput describes an acquisition. The price is derived from weight and arroba price.
type RegisterAnimalInput struct {
	Tag         string
	Sex         model.Sex
	Date        time.Time
	Weight      float64
	ArrobaPrice decimal.Decimal
}

// SaleInput describes a sale. The price is derived from weight and arroba price.
type SaleInput struct {
	Date        time.Time
	Weight      float64
	ArrobaPrice decimal.Decimal
}

// WeighingInput is a new weight measurement
type WeighingInput struct {
	Date   time.Time
	Weight float64
}

// TreatmentInput is a medication applied to an animal
type TreatmentInput struct {
	AppliedOn time.Time
	Name      string
	Cost      decimal.NullDecimal
	Notes     string
}

// OperatingCostInput is a herd-level expense
type OperatingCostInput struct {
	Category    model.CostCategory
	CostType    string
	Amount      decimal.Decimal
	Date        time.Time
	Description string
}

// ScheduleInput is a planned payment
type ScheduleInput struct {
	Description string
	Amount      decimal.Decimal
	DueDate     time.Time
}

// ScheduleView is a schedule entry with its overdue state resolved against today
type ScheduleView struct {
	model.FinancialSchedule
	Overdue bool `json:"overdue"`
}

// ledgerService implements LedgerService
type ledgerService struct {
	repo  repository.LedgerRepository
	cache *cache.Cache
	settings
}

// NewLedgerService creates a new ledger service
func NewLedgerService(repo repository.LedgerRepository, c *cache.Cache, opts ...Option) LedgerService {
	return &ledgerService{
		repo:     repo,
		cache:    c,
		settings: applyOptions(opts),
	}
}

// RegisterAnimal creates the animal with its acquisition weighing
func (s *ledgerService) RegisterAnimal(ctx context.Context, tenantID uint, in RegisterAnimalInput) (*model.Animal, error) {
	tag := strings.TrimSpace(in.Tag)
	if tag == "" {
		return nil, fmt.Errorf("%w: tag is required", ErrInvalidInput)
	}
	if in.Sex != model.SexMale && in.Sex != model.SexFemale {
		return nil, fmt.Errorf("%w: sex must be M or F", ErrInvalidInput)
	}
	if in.Weight <= 0 {
		return nil, fmt.Errorf("%w: weight must be positive", ErrInvalidInput)
	}
	if in.ArrobaPrice.IsNegative() {
		return nil, fmt.Errorf("%w: arroba_price must not be negative", ErrInvalidInput)
	}

	ledger, err := s.repo.ForTenant(tenantID)
	if err != nil {
		return nil, err
	}

	animal := &model.Animal{
		Tag:              tag,
		Sex:              in.Sex,
		AcquisitionDate:  civilDay(in.Date),
		AcquisitionPrice: analytics.ArrobaPrice(in.Weight, in.ArrobaPrice),
	}
	if err := ledger.CreateAnimal(ctx, animal, in.Weight); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenantID)
	return animal, nil
}

// RecordSale sells the animal and appends the sale weight as its last weighing
func (s *ledgerService) RecordSale(ctx context.Context, tenantID, animalID uint, in SaleInput) (*model.Animal, error) {
	if in.Weight <= 0 {
		return nil, fmt.Errorf("%w: weight must be positive", ErrInvalidInput)
	}
	if in.ArrobaPrice.IsNegative() {
		return nil, fmt.Errorf("%w: arroba_price must not be negative", ErrInvalidInput)
	}

	ledger, err := s.repo.ForTenant(tenantID)
	if err != nil {
		return nil, err
	}
	// the sale weighing must stay the animal's last one
	weighings, err := ledger.Weighings(ctx, animalID)
	if err != nil {
		return nil, err
	}
	saleDate := civilDay(in.Date)
	if latest, ok := analytics.LatestWeighing(weighings); ok && saleDate.Before(civilDay(latest.Date)) {
		return nil, fmt.Errorf("%w: sale date %s precedes the last weighing on %s",
			ErrInvalidInput, saleDate.Format("2006-01-02"), civilDay(latest.Date).Format("2006-01-02"))
	}
	animal, err := ledger.RecordSale(ctx, animalID, saleDate, in.Weight, analytics.ArrobaPrice(in.Weight, in.ArrobaPrice))
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenantID)
	return animal, nil
}

// RecordWeighing appends a weighing to an animal of the tenant
func (s *ledgerService) RecordWeighing(ctx context.Context, tenantID, animalID uint, in WeighingInput) (*model.Weighing, error) {
	if in.Weight <= 0 {
		return nil, fmt.Errorf("%w: weight must be positive", ErrInvalidInput)
	}

	ledger, err := s.repo.ForTenant(tenantID)
	if err != nil {
		return nil, err
	}
	animal, err := ledger.Animal(ctx, animalID)
	if err != nil {
		return nil, err
	}
	if animal.IsSold() {
		return nil, fmt.Errorf("%w: weighings end with the sale", repository.ErrAlreadySold)
	}
	w := &model.Weighing{AnimalID: animalID, Date: civilDay(in.Date), Weight: in.Weight}
	if err := ledger.AddWeighing(ctx, w); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenantID)
	return w, nil
}

// RecordTreatment appends a treatment to an animal of the tenant
func (s *ledgerService) RecordTreatment(ctx context.Context, tenantID, animalID uint, in TreatmentInput) (*model.Treatment, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if in.Cost.Valid && in.Cost.Decimal.IsNegative() {
		return nil, fmt.Errorf("%w: cost must not be negative", ErrInvalidInput)
	}

	ledger, err := s.repo.ForTenant(tenantID)
	if err != nil {
		return nil, err
	}
	t := &model.Treatment{
		AnimalID:  animalID,
		AppliedOn: civilDay(in.AppliedOn),
		Name:      strings.TrimSpace(in.Name),
		Cost:      in.Cost,
		Notes:     in.Notes,
	}
	if err := ledger.AddTreatment(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenantID)
	return t, nil
}

// RecordOperatingCost books a herd-level expense
func (s *ledgerService) RecordOperatingCost(ctx context.Context, tenantID uint, in OperatingCostInput) (*model.OperatingCost, error) {
	if in.Amount.IsNegative() {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidInput)
	}
	if strings.TrimSpace(in.CostType) == "" {
		return nil, fmt.Errorf("%w: cost_type is required", ErrInvalidInput)
	}

	ledger, err := s.repo.ForTenant(tenantID)
	if err != nil {
		return nil, err
	}
	c := &model.OperatingCost{
		Category:    in.Category,
		CostType:    in.CostType,
		Amount:      in.Amount,
		Date:        civilDay(in.Date),
		Description: in.Description,
	}
	if err := ledger.AddOperatingCost(ctx, c); err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenantID)
	return c, nil
}

// SoftDeleteAnimal hides the animal and its history from every report
func (s *ledgerService) SoftDeleteAnimal(ctx context.Context, tenantID, animalID uint) error {
	ledger, err := s.repo.ForTenant(tenantID)
	if err != nil {
		return err
	}
	if err := ledger.SoftDeleteAnimal(ctx, animalID); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID)
	return nil
}

// RestoreAnimal brings a soft-deleted animal back
func (s *ledgerService) RestoreAnimal(ctx context.Context, tenantID, animalID uint) error {
	ledger, err := s.repo.ForTenant(tenantID)
	if err != nil {
		return err
	}
	if err := ledger.RestoreAnimal(ctx, animalID); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID)
	return nil
}

// SoftDeleteWeighing removes a mistaken weighing from growth figures
func (s *ledgerService) SoftDeleteWeighing(ctx context.Context, tenantID, weighingID uint) error {
	ledger, err := s.repo.ForTenant(tenantID)
	if err != nil {
		return err
	}
	if err := ledger.SoftDeleteWeighing(ctx, weighingID); err != nil {
		return err
	}
	s.invalidate(ctx, tenantID)
	return nil
}

// CreateSchedule records a pending planned payment
func (s *ledgerService) CreateSchedule(ctx context.Context, tenantID uint, in ScheduleInput) (*model.FinancialSchedule, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}

	ledger, err := s.repo.ForTenant(tenantID)
	if err != nil {
		return nil, err
	}
	schedule := &model.FinancialSchedule{
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		DueDate:     civilDay(in.DueDate),
		Status:      model.ScheduleStatusPending,
	}
	if err := ledger.AddSchedule(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// ListSchedules returns planned payments flagging pending ones past their due date
func (s *ledgerService) ListSchedules(ctx context.Context, tenantID uint) ([]ScheduleView, error) {
	ledger, err := s.repo.ForTenant(tenantID)
	if err != nil {
		return nil, err
	}
	schedules, err := ledger.Schedules(ctx)
	if err != nil {
		return nil, err
	}

	today := s.today()
	views := make([]ScheduleView, 0, len(schedules))
	for _, sch := range schedules {
		views = append(views, ScheduleView{
			FinancialSchedule: sch,
			Overdue:           sch.Status == model.ScheduleStatusPending && civilDay(sch.DueDate).Before(today),
		})
	}
	return views, nil
}

// SettleSchedule pays a pending schedule today and books it as an operating cost
func (s *ledgerService) SettleSchedule(ctx context.Context, tenantID, scheduleID uint) (*model.OperatingCost, error) {
	ledger, err := s.repo.ForTenant(tenantID)
	if err != nil {
		return nil, err
	}
	cost, err := ledger.SettleSchedule(ctx, scheduleID, s.today())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, tenantID)
	return cost, nil
}

// invalidate bumps the tenant's cache version. The write already committed,
// so a failure here only delays fresh reports until the entries expire.
func (s *ledgerService) invalidate(ctx context.Context, tenantID uint) {
	if err := s.cache.Bump(ctx, tenantID); err != nil {
		s.logger.Warn("Failed to invalidate report cache",
			"tenant_id", tenantID,
			"error", err.Error(),
		)
	}
}
