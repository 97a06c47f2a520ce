package repository

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"herd-analytics/internal/analytics"
	"herd-analytics/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SeedRepository handles database seeding operations
type SeedRepository struct {
	db     *gorm.DB
	ledger LedgerRepository
	rng    *rand.Rand
}

// NewSeedRepository creates a new seed repository. The same seed always yields the same herds.
func NewSeedRepository(db *gorm.DB, seed int64) *SeedRepository {
	return &SeedRepository{
		db:     db,
		ledger: NewLedgerRepository(db),
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// SeedStats counts what SeedDatabase inserted
type SeedStats struct {
	Tenants        int
	Animals        int
	Sold           int
	Weighings      int
	Treatments     int
	OperatingCosts int
	Schedules      int
}

// demo price per arroba used to value acquisitions and sales
var seedArrobaPrice = decimal.NewFromInt(230)

// SeedDatabase replaces all ledger data with two demo farms whose history ends at today
func (s *SeedRepository) SeedDatabase(ctx context.Context, today time.Time) (SeedStats, error) {
	var stats SeedStats

	if err := s.clearExistingData(ctx); err != nil {
		return stats, fmt.Errorf("failed to clear existing data: %w", err)
	}

	tenants, err := s.createTenants(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to create tenants: %w", err)
	}
	stats.Tenants = len(tenants)

	for _, tenant := range tenants {
		ledger, err := s.ledger.ForTenant(tenant.ID)
		if err != nil {
			return stats, err
		}
		if err := s.seedHerd(ctx, ledger, today, &stats); err != nil {
			return stats, fmt.Errorf("failed to seed herd for %s: %w", tenant.Username, err)
		}
		if err := s.seedCosts(ctx, ledger, today, &stats); err != nil {
			return stats, fmt.Errorf("failed to seed costs for %s: %w", tenant.Username, err)
		}
	}

	slog.Info("Seeded database",
		"tenants", stats.Tenants,
		"animals", stats.Animals,
		"sold", stats.Sold,
		"weighings", stats.Weighings,
		"treatments", stats.Treatments,
		"operating_costs", stats.OperatingCosts,
		"schedules", stats.Schedules,
	)
	return stats, nil
}

// clearExistingData removes existing data
func (s *SeedRepository) clearExistingData(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Exec("TRUNCATE TABLE financial_schedules, operating_costs, treatments, weighings, animals, tenants RESTART IDENTITY CASCADE").
		Error
}

func (s *SeedRepository) createTenants(ctx context.Context) ([]model.Tenant, error) {
	tenants := []model.Tenant{
		{Username: "fazenda_boa_vista", FarmName: "Fazenda Boa Vista"},
		{Username: "sitio_sao_jose", FarmName: "Sítio São José"},
	}
	if err := s.db.WithContext(ctx).Create(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

// seedHerd buys animals over the last 18 months, weighs them monthly and sells about a fifth
func (s *SeedRepository) seedHerd(ctx context.Context, ledger TenantLedger, today time.Time, stats *SeedStats) error {
	size := 25 + s.rng.Intn(15)

	for i := 1; i <= size; i++ {
		acquired := today.AddDate(0, -(3 + s.rng.Intn(15)), -s.rng.Intn(28))
		weight := 180 + s.rng.Float64()*140
		sex := model.SexMale
		if s.rng.Intn(3) == 0 {
			sex = model.SexFemale
		}

		animal := model.Animal{
			Tag:              fmt.Sprintf("%d", 100+i),
			Sex:              sex,
			AcquisitionDate:  acquired,
			AcquisitionPrice: arrobaValue(weight),
		}
		if err := ledger.CreateAnimal(ctx, &animal, round2(weight)); err != nil {
			return err
		}
		stats.Animals++
		stats.Weighings++

		// 0.4 to 1.1 kg/day with some noise per weighing
		gmd := 0.4 + s.rng.Float64()*0.7
		sold := s.rng.Intn(5) == 0
		last := acquired
		for date := acquired.AddDate(0, 1, 0); date.Before(today); date = date.AddDate(0, 1, 0) {
			days := date.Sub(last).Hours() / 24
			weight += days * gmd * (0.85 + s.rng.Float64()*0.3)
			last = date
			if sold && weight > 480 {
				break
			}
			w := model.Weighing{AnimalID: animal.ID, Date: date, Weight: round2(weight)}
			if err := ledger.AddWeighing(ctx, &w); err != nil {
				return err
			}
			stats.Weighings++
		}

		if s.rng.Intn(2) == 0 {
			t := model.Treatment{
				AnimalID:  animal.ID,
				AppliedOn: acquired.AddDate(0, 0, 7),
				Name:      "Vermífugo",
				Cost:      decimal.NewNullDecimal(decimal.NewFromFloat(12 + s.rng.Float64()*30).Round(2)),
			}
			if err := ledger.AddTreatment(ctx, &t); err != nil {
				return err
			}
			stats.Treatments++
		}
		if s.rng.Intn(4) == 0 {
			// Vaccines donated by the cooperative carry no cost
			t := model.Treatment{AnimalID: animal.ID, AppliedOn: acquired.AddDate(0, 1, 0), Name: "Aftosa"}
			if err := ledger.AddTreatment(ctx, &t); err != nil {
				return err
			}
			stats.Treatments++
		}

		if sold {
			saleWeight := round2(weight)
			saleDate := last.AddDate(0, 0, 3)
			if saleDate.After(today) {
				saleDate = today
			}
			if _, err := ledger.RecordSale(ctx, animal.ID, saleDate, saleWeight, arrobaValue(saleWeight)); err != nil {
				return err
			}
			stats.Sold++
			stats.Weighings++
		}
	}
	return nil
}

// seedCosts books a year of monthly operating costs and a few planned payments
func (s *SeedRepository) seedCosts(ctx context.Context, ledger TenantLedger, today time.Time, stats *SeedStats) error {
	monthly := []struct {
		category model.CostCategory
		costType string
		base     float64
	}{
		{model.CostCategoryFixed, "Arrendamento", 4000},
		{model.CostCategoryFixed, "Salário", 2800},
		{model.CostCategoryVariable, "Nutrição", 1500},
		{model.CostCategoryVariable, "Diesel", 600},
	}

	for m := 0; m < 12; m++ {
		date := today.AddDate(0, -m, -s.rng.Intn(5))
		for _, c := range monthly {
			amount := c.base * (0.9 + s.rng.Float64()*0.2)
			cost := model.OperatingCost{
				Category:    c.category,
				CostType:    c.costType,
				Amount:      decimal.NewFromFloat(amount).Round(2),
				Date:        date,
				Description: fmt.Sprintf("%s %s", c.costType, date.Format("01/2006")),
			}
			if err := ledger.AddOperatingCost(ctx, &cost); err != nil {
				return err
			}
			stats.OperatingCosts++
		}
	}

	schedules := []model.FinancialSchedule{
		{Description: "Parcela trator", Amount: decimal.NewFromInt(3500), DueDate: today.AddDate(0, 0, -5)},
		{Description: "Parcela trator", Amount: decimal.NewFromInt(3500), DueDate: today.AddDate(0, 1, -5)},
		{Description: "Sal mineral", Amount: decimal.NewFromInt(900), DueDate: today.AddDate(0, 0, 10)},
	}
	for i := range schedules {
		if err := ledger.AddSchedule(ctx, &schedules[i]); err != nil {
			return err
		}
		stats.Schedules++
	}
	return nil
}

func arrobaValue(weight float64) decimal.Decimal {
	return analytics.ArrobaPrice(weight, seedArrobaPrice)
}

func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
