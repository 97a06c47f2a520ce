package service

import (
	"context"
	"fmt"
	"time"

	"herd-analytics/internal/analytics"
	"herd-analytics/internal/cache"
	"herd-analytics/internal/model"
	"herd-analytics/internal/repository"

	"github.com/shopspring/decimal"
)

// AnalyticsService defines the read side of the herd ledger
type AnalyticsService interface {
	TenantExists(ctx context.Context, tenantID uint) (bool, error)
	ComputeGrowth(ctx context.Context, tenantID, animalID uint) (*GrowthResult, error)
	ComputeAnimalCost(ctx context.Context, tenantID, animalID uint) (*AnimalCost, error)
	ComputeAnimalReport(ctx context.Context, tenantID, animalID uint) (*AnimalReport, error)
	ComputeOperatingCostBreakdown(ctx context.Context, tenantID uint, asOf time.Time) (*analytics.CostBreakdown, error)
	ComputeCashFlow(ctx context.Context, tenantID uint) (*analytics.CashFlow, error)
	ComputeUnitEconomics(ctx context.Context, tenantID uint, asOf time.Time) (*analytics.UnitEconomics, error)
	SimulateUnitEconomics(in analytics.UnitEconomicsInput) analytics.UnitEconomics
	ComputeHerdSnapshot(ctx context.Context, tenantID uint) (*analytics.HerdSnapshot, error)
	ComputeFinancialDashboard(ctx context.Context, tenantID uint, year int, asOf time.Time) (*FinancialDashboard, error)
	Warmup(ctx context.Context, tenantID uint) error
	Today() time.Time
}

// GrowthResult is the growth of one animal. Sufficient is false when fewer than two
// distinct weighing dates exist; Growth then carries the single-weight fallback.
type GrowthResult struct {
	AnimalID   uint              `json:"animal_id"`
	Sufficient bool              `json:"sufficient"`
	Growth     *analytics.Growth `json:"growth"`
}

// AnimalCost is the cumulative cost of one animal
type AnimalCost struct {
	AnimalID         uint            `json:"animal_id"`
	AcquisitionPrice decimal.Decimal `json:"preco_compra"`
	TreatmentCost    decimal.Decimal `json:"custo_medicamentos"`
	TotalCost        decimal.Decimal `json:"custo_total"`
}

// AnimalReport combines identity, growth and cost of one animal
type AnimalReport struct {
	Animal        model.Animal      `json:"animal"`
	Status        string            `json:"status"`
	Sufficient    bool              `json:"sufficient"`
	Growth        *analytics.Growth `json:"growth"`
	CurrentWeight float64           `json:"peso_atual"`
	TotalCost     decimal.Decimal   `json:"custo_total"`
	Treatments    int               `json:"tratamentos"`
}

// Animal report statuses
const (
	AnimalStatusActive = "ativo"
	AnimalStatusSold   = "vendido"
)

// FinancialDashboard is the yearly financial view of a tenant
type FinancialDashboard struct {
	Year          int                     `json:"ano"`
	AsOf          time.Time               `json:"as_of"`
	Selected      analytics.YearSummary   `json:"ano_selecionado"`
	CashFlow      analytics.CashFlow      `json:"fluxo_caixa"`
	UnitEconomics analytics.UnitEconomics `json:"indicadores"`
	Costs         []model.OperatingCost   `json:"custos_ano"`
}

// analyticsService implements AnalyticsService
type analyticsService struct {
	repo  repository.LedgerRepository
	cache *cache.Cache
	settings
}

// NewAnalyticsService creates a new analytics service. A nil cache computes every request.
func NewAnalyticsService(repo repository.LedgerRepository, c *cache.Cache, opts ...Option) AnalyticsService {
	return &analyticsService{
		repo:     repo,
		cache:    c,
		settings: applyOptions(opts),
	}
}

// TenantExists checks if a tenant exists
func (s *analyticsService) TenantExists(ctx context.Context, tenantID uint) (bool, error) {
	return s.repo.TenantExists(ctx, tenantID)
}

// Today is the reference day used when a request does not pin one
func (s *analyticsService) Today() time.Time {
	return s.today()
}

// ComputeGrowth derives gain and GMD of one animal from its weighings
func (s *analyticsService) ComputeGrowth(ctx context.Context, tenantID, animalID uint) (*GrowthResult, error) {
	ledger, err := s.repo.ForTenant(tenantID)
	if err != nil {
		return nil, err
	}
	if _, err := ledger.Animal(ctx, animalID); err != nil {
		return nil, err
	}
	weighings, err := ledger.Weighings(ctx, animalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load weighings: %w", err)
	}

	growth, sufficient := growthOrFallback(weighings)
	return &GrowthResult{AnimalID: animalID, Sufficient: sufficient, Growth: growth}, nil
}

// ComputeAnimalCost sums acquisition price and every priced treatment
func (s *analyticsService) ComputeAnimalCost(ctx context.Context, tenantID, animalID uint) (*AnimalCost, error) {
	ledger, err := s.repo.ForTenant(tenantID)
	if err != nil {
		return nil, err
	}
	animal, err := ledger.Animal(ctx, animalID)
	if err != nil {
		return nil, err
	}
	treatments, err := ledger.Treatments(ctx, animalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load treatments: %w", err)
	}

	total := analytics.AnimalCost(*animal, treatments)
	return &AnimalCost{
		AnimalID:         animalID,
		AcquisitionPrice: animal.AcquisitionPrice,
		TreatmentCost:    total.Sub(animal.AcquisitionPrice),
		TotalCost:        total,
	}, nil
}

// ComputeAnimalReport builds the per-animal view with the single-weight fallback
func (s *analyticsService) ComputeAnimalReport(ctx context.Context, tenantID, animalID uint) (*AnimalReport, error) {
	ledger, err := s.repo.ForTenant(tenantID)
	if err != nil {
		return nil, err
	}
	animal, err := ledger.Animal(ctx, animalID)
	if err != nil {
		return nil, err
	}
	weighings, err := ledger.Weighings(ctx, animalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load weighings: %w", err)
	}
	treatments, err := ledger.Treatments(ctx, animalID)
	if err != nil {
		return nil, fmt.Errorf("failed to load treatments: %w", err)
	}

	report := &AnimalReport{
		Animal:     *animal,
		Status:     AnimalStatusActive,
		TotalCost:  analytics.AnimalCost(*animal, treatments),
		Treatments: len(treatments),
	}
	if animal.IsSold() {
		report.Status = AnimalStatusSold
	}
	report.Growth, report.Sufficient = growthOrFallback(weighings)
	if report.Growth != nil {
		report.CurrentWeight = report.Growth.FinalWeight
	}
	return report, nil
}

// ComputeOperatingCostBreakdown returns the monthly run-rate of the 90 days ending at asOf
func (s *analyticsService) ComputeOperatingCostBreakdown(ctx context.Context, tenantID uint, asOf time.Time) (*analytics.CostBreakdown, error) {
	var out analytics.CostBreakdown
	err := s.cache.FetchJSON(ctx, tenantID, []string{"breakdown", dayKey(asOf)}, &out, func(ctx context.Context) (interface{}, error) {
		ledger, err := s.repo.ForTenant(tenantID)
		if err != nil {
			return nil, err
		}
		return s.breakdown(ctx, ledger, asOf)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ComputeCashFlow returns the per-year cash-flow table and the all-time balance
func (s *analyticsService) ComputeCashFlow(ctx context.Context, tenantID uint) (*analytics.CashFlow, error) {
	var out analytics.CashFlow
	err := s.cache.FetchJSON(ctx, tenantID, []string{"cashflow"}, &out, func(ctx context.Context) (interface{}, error) {
		ledger, err := s.repo.ForTenant(tenantID)
		if err != nil {
			return nil, err
		}
		return s.cashFlow(ctx, ledger)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ComputeUnitEconomics blends the run-rate at asOf with the current headcount and mean GMD
func (s *analyticsService) ComputeUnitEconomics(ctx context.Context, tenantID uint, asOf time.Time) (*analytics.UnitEconomics, error) {
	var out analytics.UnitEconomics
	err := s.cache.FetchJSON(ctx, tenantID, []string{"unit_economics", dayKey(asOf)}, &out, func(ctx context.Context) (interface{}, error) {
		ledger, err := s.repo.ForTenant(tenantID)
		if err != nil {
			return nil, err
		}
		return s.unitEconomics(ctx, ledger, asOf)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SimulateUnitEconomics recomputes the KPIs purely from caller supplied inputs
func (s *analyticsService) SimulateUnitEconomics(in analytics.UnitEconomicsInput) analytics.UnitEconomics {
	return analytics.ComputeUnitEconomics(in)
}

// ComputeHerdSnapshot summarizes the tenant's herd as of now
func (s *analyticsService) ComputeHerdSnapshot(ctx context.Context, tenantID uint) (*analytics.HerdSnapshot, error) {
	var out analytics.HerdSnapshot
	err := s.cache.FetchJSON(ctx, tenantID, []string{"herd"}, &out, func(ctx context.Context) (interface{}, error) {
		ledger, err := s.repo.ForTenant(tenantID)
		if err != nil {
			return nil, err
		}
		animals, err := ledger.Animals(ctx, repository.StatusAll)
		if err != nil {
			return nil, fmt.Errorf("failed to load animals: %w", err)
		}
		weighings, err := ledger.ActiveHerdWeighings(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load weighings: %w", err)
		}
		snap := analytics.ComputeHerdSnapshot(animals, weighings)
		return &snap, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ComputeFinancialDashboard combines cash flow, the selected year and unit economics
func (s *analyticsService) ComputeFinancialDashboard(ctx context.Context, tenantID uint, year int, asOf time.Time) (*FinancialDashboard, error) {
	var out FinancialDashboard
	parts := []string{"financial", fmt.Sprintf("%04d", year), dayKey(asOf)}
	err := s.cache.FetchJSON(ctx, tenantID, parts, &out, func(ctx context.Context) (interface{}, error) {
		ledger, err := s.repo.ForTenant(tenantID)
		if err != nil {
			return nil, err
		}

		flow, err := s.cashFlow(ctx, ledger)
		if err != nil {
			return nil, err
		}
		economics, err := s.unitEconomics(ctx, ledger, asOf)
		if err != nil {
			return nil, err
		}
		costs, err := ledger.OperatingCosts(ctx, repository.DateRange{
			From: time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
			To:   time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load operating costs: %w", err)
		}
		if costs == nil {
			costs = []model.OperatingCost{}
		}

		return &FinancialDashboard{
			Year:          year,
			AsOf:          civilDay(asOf),
			Selected:      flow.Year(year),
			CashFlow:      *flow,
			UnitEconomics: *economics,
			Costs:         costs,
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Warmup precomputes the tenant-wide reports for today so the first request is served from cache
func (s *analyticsService) Warmup(ctx context.Context, tenantID uint) error {
	today := s.today()
	if _, err := s.ComputeCashFlow(ctx, tenantID); err != nil {
		return err
	}
	if _, err := s.ComputeUnitEconomics(ctx, tenantID, today); err != nil {
		return err
	}
	if _, err := s.ComputeHerdSnapshot(ctx, tenantID); err != nil {
		return err
	}
	_, err := s.ComputeFinancialDashboard(ctx, tenantID, today.Year(), today)
	return err
}

func (s *analyticsService) breakdown(ctx context.Context, ledger repository.TenantLedger, asOf time.Time) (*analytics.CostBreakdown, error) {
	start, end := analytics.RunRateWindow(asOf)
	costs, err := ledger.OperatingCosts(ctx, repository.DateRange{From: start, To: end})
	if err != nil {
		return nil, fmt.Errorf("failed to load operating costs: %w", err)
	}
	b := analytics.ComputeCostBreakdown(costs, asOf)
	return &b, nil
}

func (s *analyticsService) cashFlow(ctx context.Context, ledger repository.TenantLedger) (*analytics.CashFlow, error) {
	animals, err := ledger.Animals(ctx, repository.StatusAll)
	if err != nil {
		return nil, fmt.Errorf("failed to load animals: %w", err)
	}
	treatments, err := ledger.AllTreatments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load treatments: %w", err)
	}
	costs, err := ledger.OperatingCosts(ctx, repository.DateRange{})
	if err != nil {
		return nil, fmt.Errorf("failed to load operating costs: %w", err)
	}
	flow := analytics.ComputeCashFlow(animals, treatments, costs)
	return &flow, nil
}

func (s *analyticsService) unitEconomics(ctx context.Context, ledger repository.TenantLedger, asOf time.Time) (*analytics.UnitEconomics, error) {
	b, err := s.breakdown(ctx, ledger, asOf)
	if err != nil {
		return nil, err
	}
	headcount, err := ledger.CountActiveAnimals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count animals: %w", err)
	}
	weighings, err := ledger.ActiveHerdWeighings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load weighings: %w", err)
	}
	gmd, _ := analytics.MeanGMD(analytics.GroupWeighings(weighings))

	out := analytics.ComputeUnitEconomics(analytics.InputFromBreakdown(int(headcount), gmd, *b))
	return &out, nil
}

// growthOrFallback returns the computed growth, or for an animal without two distinct
// dates its latest weight as both ends with zero gain, days and GMD.
// Growth is nil only when there are no weighings at all.
func growthOrFallback(weighings []model.Weighing) (*analytics.Growth, bool) {
	if growth, ok := analytics.ComputeGrowth(weighings); ok {
		return &growth, true
	}
	latest, ok := analytics.LatestWeighing(weighings)
	if !ok {
		return nil, false
	}
	day := civilDay(latest.Date)
	return &analytics.Growth{
		InitialWeight: latest.Weight,
		FinalWeight:   latest.Weight,
		InitialDate:   day,
		FinalDate:     day,
	}, false
}

func civilDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
