package analytics

import (
	"sort"

	"github.com/shopspring/decimal"

	"herd-analytics/internal/model"
)

// Balance classifications
const (
	BalancePositive = "positive"
	BalanceNegative = "negative"
)

// YearSummary is one calendar year of the cash-flow table
type YearSummary struct {
	Year        int             `json:"ano"`
	Revenue     decimal.Decimal `json:"entradas"`
	Acquisition decimal.Decimal `json:"compras"`
	Medical     decimal.Decimal `json:"medicamentos"`
	Operating   decimal.Decimal `json:"operacionais"`
	Expenses    decimal.Decimal `json:"despesas"`
	Balance     decimal.Decimal `json:"saldo"`
}

// CashFlow is the per-year table plus the all-time running balance
type CashFlow struct {
	Years          []YearSummary   `json:"anos"`
	TotalRevenue   decimal.Decimal `json:"total_entradas"`
	TotalExpenses  decimal.Decimal `json:"total_despesas"`
	Balance        decimal.Decimal `json:"saldo_total"`
	Classification string          `json:"classificacao"`
}

// Year returns the summary of a year, or a zero row when nothing happened in it
func (c CashFlow) Year(year int) YearSummary {
	for _, y := range c.Years {
		if y.Year == year {
			return y
		}
	}
	zero := decimal.Zero
	return YearSummary{Year: year, Revenue: zero, Acquisition: zero, Medical: zero, Operating: zero, Expenses: zero, Balance: zero}
}

// ClassifyBalance labels a balance; exact zero counts as positive
func ClassifyBalance(balance decimal.Decimal) string {
	if balance.IsNegative() {
		return BalanceNegative
	}
	return BalancePositive
}

// ComputeCashFlow unions the four money streams of a tenant and groups them by year.
//
// Revenue lands in the sale year, acquisition in the acquisition year, medical
// expense in the application year and operating expense in the entry year.
// Callers pass rows already scoped to one tenant with soft-deleted rows removed;
// treatments must also exclude those whose animal is soft-deleted.
func ComputeCashFlow(animals []model.Animal, treatments []model.Treatment, costs []model.OperatingCost) CashFlow {
	rows := make(map[int]*YearSummary)
	row := func(year int) *YearSummary {
		if r, ok := rows[year]; ok {
			return r
		}
		r := &YearSummary{
			Year:        year,
			Revenue:     decimal.Zero,
			Acquisition: decimal.Zero,
			Medical:     decimal.Zero,
			Operating:   decimal.Zero,
		}
		rows[year] = r
		return r
	}

	for _, a := range animals {
		r := row(a.AcquisitionDate.Year())
		r.Acquisition = r.Acquisition.Add(a.AcquisitionPrice)

		if a.SaleDate != nil {
			r := row(a.SaleDate.Year())
			if a.SalePrice.Valid {
				r.Revenue = r.Revenue.Add(a.SalePrice.Decimal)
			}
		}
	}

	for _, t := range treatments {
		r := row(t.AppliedOn.Year())
		if t.Cost.Valid {
			r.Medical = r.Medical.Add(t.Cost.Decimal)
		}
	}

	for _, c := range costs {
		r := row(c.Date.Year())
		r.Operating = r.Operating.Add(c.Amount)
	}

	flow := CashFlow{
		Years:         make([]YearSummary, 0, len(rows)),
		TotalRevenue:  decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, r := range rows {
		r.Expenses = r.Acquisition.Add(r.Medical).Add(r.Operating)
		r.Balance = r.Revenue.Sub(r.Expenses)
		flow.TotalRevenue = flow.TotalRevenue.Add(r.Revenue)
		flow.TotalExpenses = flow.TotalExpenses.Add(r.Expenses)
		flow.Years = append(flow.Years, *r)
	}

	// newest year first
	sort.Slice(flow.Years, func(i, j int) bool {
		return flow.Years[i].Year > flow.Years[j].Year
	})

	flow.Balance = flow.TotalRevenue.Sub(flow.TotalExpenses)
	flow.Classification = ClassifyBalance(flow.Balance)
	return flow
}
