package analytics

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

const (
	// ArrobaWeight is the number of weight units in one arroba
	ArrobaWeight = 30
	// DaysPerMonth normalizes a monthly cost into a daily one
	DaysPerMonth = 30
)

// Unavailable is how a KPI without a defined value is rendered
const Unavailable = "---"

// KPI is a ratio that may be undefined because of a zero denominator
type KPI struct {
	Value     float64 `json:"value"`
	Available bool    `json:"available"`
}

// NewKPI wraps a defined value
func NewKPI(v float64) KPI {
	return KPI{Value: v, Available: true}
}

// finiteKPI treats an overflowing ratio like a zero denominator
func finiteKPI(v float64) KPI {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return KPI{}
	}
	return NewKPI(v)
}

// String renders the KPI with two decimals or the unavailable marker
func (k KPI) String() string {
	if !k.Available {
		return Unavailable
	}
	return fmt.Sprintf("%.2f", k.Value)
}

// MarshalJSON keeps the numeric form so clients can compute with it
func (k KPI) MarshalJSON() ([]byte, error) {
	type plain KPI
	return json.Marshal(struct {
		plain
		Display string `json:"display"`
	}{plain(k), k.String()})
}

// UnmarshalJSON reads the numeric form back, ignoring the display field
func (k *KPI) UnmarshalJSON(data []byte) error {
	type plain KPI
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*k = KPI(p)
	return nil
}

// UnitEconomicsInput holds everything the blended KPIs depend on.
// Cost figures are monthly.
type UnitEconomicsInput struct {
	Headcount int             `json:"qtd_animais"`
	GMD       float64         `json:"gmd_medio"`
	Lease     decimal.Decimal `json:"arrendamento"`
	Feed      decimal.Decimal `json:"suplementacao"`
	Labor     decimal.Decimal `json:"mao_obra"`
	Extras    decimal.Decimal `json:"extras"`
}

// InputFromBreakdown seeds the input with a live run-rate
func InputFromBreakdown(headcount int, gmd float64, b CostBreakdown) UnitEconomicsInput {
	return UnitEconomicsInput{
		Headcount: headcount,
		GMD:       gmd,
		Lease:     b.Bucket(BucketLease),
		Feed:      b.Bucket(BucketFeed),
		Labor:     b.Bucket(BucketLabor),
		Extras:    b.Bucket(BucketExtras),
	}
}

// UnitEconomics holds the blended cost KPIs together with the inputs that produced them
type UnitEconomics struct {
	UnitEconomicsInput
	MonthlyCost      decimal.Decimal `json:"custo_mensal_total"`
	DailyCostPerHead KPI             `json:"custo_diaria"`
	DaysPerArroba    KPI             `json:"dias_para_arroba"`
	CostPerArroba    KPI             `json:"custo_arroba"`
}

// ComputeUnitEconomics applies the cost-per-day and cost-per-arroba formulas.
// Both the live dashboard and the simulator go through this function.
func ComputeUnitEconomics(in UnitEconomicsInput) UnitEconomics {
	monthly := in.Lease.Add(in.Feed).Add(in.Labor).Add(in.Extras)
	out := UnitEconomics{
		UnitEconomicsInput: in,
		MonthlyCost:        monthly,
	}

	if in.Headcount > 0 {
		perHead, _ := monthly.Div(decimal.NewFromInt(int64(in.Headcount))).Float64()
		out.DailyCostPerHead = finiteKPI(perHead / DaysPerMonth)
	}
	if in.GMD > 0 {
		out.DaysPerArroba = finiteKPI(ArrobaWeight / in.GMD)
	}
	if out.DailyCostPerHead.Available && out.DaysPerArroba.Available {
		out.CostPerArroba = finiteKPI(out.DailyCostPerHead.Value * out.DaysPerArroba.Value)
	}
	return out
}
