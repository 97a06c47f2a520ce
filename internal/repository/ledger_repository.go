package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"herd-analytics/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrNotFound is returned when a row does not exist for the tenant
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateTag is returned when the tenant already uses the tag
	ErrDuplicateTag = errors.New("tag already registered")
	// ErrAlreadySold is returned when selling an animal twice
	ErrAlreadySold = errors.New("animal already sold")
	// ErrNotPending is returned when settling a schedule that is already paid
	ErrNotPending = errors.New("schedule is not pending")
	// ErrInvalidTenant is returned when a ledger is requested without a tenant
	ErrInvalidTenant = errors.New("invalid tenant")
)

// AnimalStatus filters animals by sale state
type AnimalStatus string

const (
	StatusAll    AnimalStatus = "todos"
	StatusActive AnimalStatus = "ativos"
	StatusSold   AnimalStatus = "vendidos"
)

// DateRange is an inclusive day range; zero bounds are open
type DateRange struct {
	From time.Time
	To   time.Time
}

// Settlement labels of the operating cost created when a schedule is paid
const (
	SettlementCostType = "Agendamento"
	settlementSuffix   = " (Via Agendamento)"
)

// LedgerRepository hands out ledgers bound to a single tenant
type LedgerRepository interface {
	TenantExists(ctx context.Context, tenantID uint) (bool, error)
	TenantIDs(ctx context.Context) ([]uint, error)
	ForTenant(tenantID uint) (TenantLedger, error)
}

// TenantLedger reads and writes the records of one tenant. There is no way to
// reach another tenant's rows through it. Soft-deleted rows are never returned.
type TenantLedger interface {
	TenantID() uint

	Animal(ctx context.Context, animalID uint) (*model.Animal, error)
	Animals(ctx context.Context, status AnimalStatus) ([]model.Animal, error)
	CountActiveAnimals(ctx context.Context) (int64, error)
	Weighings(ctx context.Context, animalID uint) ([]model.Weighing, error)
	ActiveHerdWeighings(ctx context.Context) ([]model.Weighing, error)
	Treatments(ctx context.Context, animalID uint) ([]model.Treatment, error)
	AllTreatments(ctx context.Context) ([]model.Treatment, error)
	OperatingCosts(ctx context.Context, r DateRange) ([]model.OperatingCost, error)
	Schedules(ctx context.Context) ([]model.FinancialSchedule, error)

	CreateAnimal(ctx context.Context, animal *model.Animal, initialWeight float64) error
	RecordSale(ctx context.Context, animalID uint, date time.Time, weight float64, price decimal.Decimal) (*model.Animal, error)
	AddWeighing(ctx context.Context, w *model.Weighing) error
	AddTreatment(ctx context.Context, t *model.Treatment) error
	AddOperatingCost(ctx context.Context, c *model.OperatingCost) error
	AddSchedule(ctx context.Context, s *model.FinancialSchedule) error
	SoftDeleteAnimal(ctx context.Context, animalID uint) error
	RestoreAnimal(ctx context.Context, animalID uint) error
	SoftDeleteWeighing(ctx context.Context, weighingID uint) error
	SettleSchedule(ctx context.Context, scheduleID uint, paidOn time.Time) (*model.OperatingCost, error)
}

// ledgerRepository implements LedgerRepository
type ledgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// TenantExists checks if a tenant with the given ID exists
func (r *ledgerRepository) TenantExists(ctx context.Context, tenantID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Tenant{}).Where("id = ?", tenantID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// TenantIDs lists every tenant, used by background cache warmup
func (r *ledgerRepository) TenantIDs(ctx context.Context) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&model.Tenant{}).Order("id ASC").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ForTenant binds a ledger to the tenant
func (r *ledgerRepository) ForTenant(tenantID uint) (TenantLedger, error) {
	if tenantID == 0 {
		return nil, ErrInvalidTenant
	}
	return &tenantLedger{db: r.db, tenantID: tenantID}, nil
}

// tenantLedger implements TenantLedger
type tenantLedger struct {
	db       *gorm.DB
	tenantID uint
}

func (l *tenantLedger) TenantID() uint {
	return l.tenantID
}

// Animal fetches a live animal of the tenant
func (l *tenantLedger) Animal(ctx context.Context, animalID uint) (*model.Animal, error) {
	var animal model.Animal
	err := l.db.WithContext(ctx).
		Scopes(animalsOfTenant(l.tenantID)).
		Where("animals.id = ?", animalID).
		First(&animal).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &animal, nil
}

// Animals lists live animals ordered by tag length then tag, so "2" sorts before "10"
func (l *tenantLedger) Animals(ctx context.Context, status AnimalStatus) ([]model.Animal, error) {
	q := l.db.WithContext(ctx).Model(&model.Animal{}).Scopes(animalsOfTenant(l.tenantID))
	switch status {
	case StatusActive:
		q = q.Scopes(activeAnimals)
	case StatusSold:
		q = q.Scopes(soldAnimals)
	}

	var animals []model.Animal
	if err := q.Order("LENGTH(animals.tag) ASC, animals.tag ASC").Find(&animals).Error; err != nil {
		return nil, err
	}
	return animals, nil
}

// CountActiveAnimals counts unsold live animals
func (l *tenantLedger) CountActiveAnimals(ctx context.Context) (int64, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&model.Animal{}).
		Scopes(animalsOfTenant(l.tenantID), activeAnimals).
		Count(&count).Error
	return count, err
}

// Weighings returns an animal's weighings in date then insertion order
func (l *tenantLedger) Weighings(ctx context.Context, animalID uint) ([]model.Weighing, error) {
	var weighings []model.Weighing
	err := l.db.WithContext(ctx).Model(&model.Weighing{}).
		Scopes(throughAnimal("weighings", l.tenantID)).
		Where("weighings.animal_id = ?", animalID).
		Order("weighings.date ASC, weighings.id ASC").
		Find(&weighings).Error
	if err != nil {
		return nil, err
	}
	return weighings, nil
}

// ActiveHerdWeighings returns the weighings of every unsold live animal
func (l *tenantLedger) ActiveHerdWeighings(ctx context.Context) ([]model.Weighing, error) {
	var weighings []model.Weighing
	err := l.db.WithContext(ctx).Model(&model.Weighing{}).
		Scopes(throughAnimal("weighings", l.tenantID), activeAnimals).
		Order("weighings.animal_id ASC, weighings.date ASC, weighings.id ASC").
		Find(&weighings).Error
	if err != nil {
		return nil, err
	}
	return weighings, nil
}

// Treatments returns an animal's treatments by application date
func (l *tenantLedger) Treatments(ctx context.Context, animalID uint) ([]model.Treatment, error) {
	var treatments []model.Treatment
	err := l.db.WithContext(ctx).Model(&model.Treatment{}).
		Scopes(throughAnimal("treatments", l.tenantID)).
		Where("treatments.animal_id = ?", animalID).
		Order("treatments.applied_on ASC, treatments.id ASC").
		Find(&treatments).Error
	if err != nil {
		return nil, err
	}
	return treatments, nil
}

// AllTreatments returns the treatments of every live animal, sold or not
func (l *tenantLedger) AllTreatments(ctx context.Context) ([]model.Treatment, error) {
	var treatments []model.Treatment
	err := l.db.WithContext(ctx).Model(&model.Treatment{}).
		Scopes(throughAnimal("treatments", l.tenantID)).
		Order("treatments.applied_on ASC, treatments.id ASC").
		Find(&treatments).Error
	if err != nil {
		return nil, err
	}
	return treatments, nil
}

// OperatingCosts returns the tenant's costs inside the range, newest first
func (l *tenantLedger) OperatingCosts(ctx context.Context, r DateRange) ([]model.OperatingCost, error) {
	var costs []model.OperatingCost
	err := l.db.WithContext(ctx).Model(&model.OperatingCost{}).
		Scopes(operatingCostsOfTenant(l.tenantID), withinDates("operating_costs.date", r)).
		Order("operating_costs.date DESC, operating_costs.id DESC").
		Find(&costs).Error
	if err != nil {
		return nil, err
	}
	return costs, nil
}

// Schedules returns planned payments by due date
func (l *tenantLedger) Schedules(ctx context.Context) ([]model.FinancialSchedule, error) {
	var schedules []model.FinancialSchedule
	err := l.db.WithContext(ctx).Model(&model.FinancialSchedule{}).
		Scopes(schedulesOfTenant(l.tenantID)).
		Order("financial_schedules.due_date ASC, financial_schedules.id ASC").
		Find(&schedules).Error
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

// CreateAnimal registers an animal together with its acquisition weighing
func (l *tenantLedger) CreateAnimal(ctx context.Context, animal *model.Animal, initialWeight float64) error {
	animal.TenantID = l.tenantID
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Unscoped().Model(&model.Animal{}).
			Scopes(animalsOfTenant(l.tenantID)).
			Where("animals.tag = ?", animal.Tag).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateTag
		}

		if err := tx.Create(animal).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateTag
			}
			return fmt.Errorf("failed to create animal: %w", err)
		}

		initial := model.Weighing{
			AnimalID: animal.ID,
			Date:     dateOnly(animal.AcquisitionDate),
			Weight:   initialWeight,
		}
		if err := tx.Create(&initial).Error; err != nil {
			return fmt.Errorf("failed to create initial weighing: %w", err)
		}
		animal.Weighings = []model.Weighing{initial}
		return nil
	})
}

// RecordSale marks the animal as sold and appends the sale weight as its terminal weighing
func (l *tenantLedger) RecordSale(ctx context.Context, animalID uint, date time.Time, weight float64, price decimal.Decimal) (*model.Animal, error) {
	var animal model.Animal
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(animalsOfTenant(l.tenantID)).
			Where("animals.id = ?", animalID).
			First(&animal).Error
		if err != nil {
			return notFound(err)
		}
		if animal.IsSold() {
			return ErrAlreadySold
		}

		saleDate := dateOnly(date)
		salePrice := decimal.NewNullDecimal(price)
		err = tx.Model(&animal).Updates(map[string]interface{}{
			"sale_date":  saleDate,
			"sale_price": salePrice,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to record sale: %w", err)
		}
		animal.SaleDate = &saleDate
		animal.SalePrice = salePrice

		terminal := model.Weighing{AnimalID: animal.ID, Date: saleDate, Weight: weight}
		if err := tx.Create(&terminal).Error; err != nil {
			return fmt.Errorf("failed to create sale weighing: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &animal, nil
}

// AddWeighing appends a weighing to a live animal of the tenant
func (l *tenantLedger) AddWeighing(ctx context.Context, w *model.Weighing) error {
	if _, err := l.Animal(ctx, w.AnimalID); err != nil {
		return err
	}
	w.Date = dateOnly(w.Date)
	return l.db.WithContext(ctx).Create(w).Error
}

// AddTreatment appends a treatment to a live animal of the tenant
func (l *tenantLedger) AddTreatment(ctx context.Context, t *model.Treatment) error {
	if _, err := l.Animal(ctx, t.AnimalID); err != nil {
		return err
	}
	t.AppliedOn = dateOnly(t.AppliedOn)
	return l.db.WithContext(ctx).Create(t).Error
}

// AddOperatingCost records a herd-level cost for the tenant
func (l *tenantLedger) AddOperatingCost(ctx context.Context, c *model.OperatingCost) error {
	c.TenantID = l.tenantID
	c.Date = dateOnly(c.Date)
	return l.db.WithContext(ctx).Create(c).Error
}

// AddSchedule records a pending planned payment for the tenant
func (l *tenantLedger) AddSchedule(ctx context.Context, s *model.FinancialSchedule) error {
	s.TenantID = l.tenantID
	s.DueDate = dateOnly(s.DueDate)
	if s.Status == "" {
		s.Status = model.ScheduleStatusPending
	}
	return l.db.WithContext(ctx).Create(s).Error
}

// SoftDeleteAnimal marks the animal as deleted. Deleting twice is a no-op.
func (l *tenantLedger) SoftDeleteAnimal(ctx context.Context, animalID uint) error {
	animal, err := l.anyAnimal(ctx, animalID)
	if err != nil {
		return err
	}
	if animal.DeletedAt.Valid {
		return nil
	}
	return l.db.WithContext(ctx).Delete(animal).Error
}

// RestoreAnimal clears the deletion mark. Restoring an active animal is a no-op.
func (l *tenantLedger) RestoreAnimal(ctx context.Context, animalID uint) error {
	animal, err := l.anyAnimal(ctx, animalID)
	if err != nil {
		return err
	}
	if !animal.DeletedAt.Valid {
		return nil
	}
	return l.db.WithContext(ctx).Unscoped().Model(animal).Update("deleted_at", nil).Error
}

// SoftDeleteWeighing marks a weighing of a live animal as deleted
func (l *tenantLedger) SoftDeleteWeighing(ctx context.Context, weighingID uint) error {
	var w model.Weighing
	err := l.db.WithContext(ctx).
		Scopes(throughAnimal("weighings", l.tenantID)).
		Where("weighings.id = ?", weighingID).
		First(&w).Error
	if err != nil {
		return notFound(err)
	}
	return l.db.WithContext(ctx).Delete(&w).Error
}

// SettleSchedule pays a pending schedule and books it as an operating cost dated paidOn
func (l *tenantLedger) SettleSchedule(ctx context.Context, scheduleID uint, paidOn time.Time) (*model.OperatingCost, error) {
	var cost model.OperatingCost
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var schedule model.FinancialSchedule
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(schedulesOfTenant(l.tenantID)).
			Where("financial_schedules.id = ?", scheduleID).
			First(&schedule).Error
		if err != nil {
			return notFound(err)
		}
		if schedule.Status != model.ScheduleStatusPending {
			return ErrNotPending
		}

		if err := tx.Model(&schedule).Update("status", model.ScheduleStatusPaid).Error; err != nil {
			return fmt.Errorf("failed to mark schedule paid: %w", err)
		}

		cost = model.OperatingCost{
			TenantID:    l.tenantID,
			Category:    model.CostCategoryFinancial,
			CostType:    SettlementCostType,
			Amount:      schedule.Amount,
			Date:        dateOnly(paidOn),
			Description: schedule.Description + settlementSuffix,
		}
		if err := tx.Create(&cost).Error; err != nil {
			return fmt.Errorf("failed to book settled schedule: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &cost, nil
}

// anyAnimal fetches an animal of the tenant including soft-deleted ones
func (l *tenantLedger) anyAnimal(ctx context.Context, animalID uint) (*model.Animal, error) {
	var animal model.Animal
	err := l.db.WithContext(ctx).Unscoped().
		Scopes(animalsOfTenant(l.tenantID)).
		Where("animals.id = ?", animalID).
		First(&animal).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &animal, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
