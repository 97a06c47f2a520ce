package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"herd-analytics/internal/model"
)

// Bucket is the canonical group an operating cost type is reported under
type Bucket string

const (
	BucketLease  Bucket = "arrendamento"
	BucketFeed   Bucket = "suplementacao"
	BucketLabor  Bucket = "mao_obra"
	BucketExtras Bucket = "extras"
)

// Buckets lists every bucket in display order
var Buckets = []Bucket{BucketLease, BucketFeed, BucketLabor, BucketExtras}

const (
	// RunRateWindowDays is the trailing window used for the monthly run-rate
	RunRateWindowDays = 90
	// RunRateMonths is the number of months the window is averaged over
	RunRateMonths = 3
)

// exact-match labels; anything else is an extra
var costTypeBuckets = map[string]Bucket{
	"Arrendamento": BucketLease,
	"Nutrição":     BucketFeed,
	"Salário":      BucketLabor,
}

// BucketFor maps a raw cost type label to its bucket
func BucketFor(costType string) Bucket {
	if b, ok := costTypeBuckets[costType]; ok {
		return b
	}
	return BucketExtras
}

// CostBreakdown is the monthly run-rate of operating costs split by bucket
type CostBreakdown struct {
	AsOf         time.Time                  `json:"as_of"`
	WindowStart  time.Time                  `json:"window_start"`
	Buckets      map[Bucket]decimal.Decimal `json:"buckets"`
	MonthlyTotal decimal.Decimal            `json:"custo_mensal_total"`
	Entries      int                        `json:"entries"`
}

// Bucket returns the monthly figure of a bucket, zero when it had no entries
func (b CostBreakdown) Bucket(bucket Bucket) decimal.Decimal {
	if v, ok := b.Buckets[bucket]; ok {
		return v
	}
	return decimal.Zero
}

// RunRateWindow returns the inclusive [start, asOf] day range of the trailing window
func RunRateWindow(asOf time.Time) (time.Time, time.Time) {
	end := civilDate(asOf)
	return end.AddDate(0, 0, -RunRateWindowDays), end
}

// ComputeCostBreakdown sums the costs dated inside the trailing window by bucket
// and divides every figure by three to express it as a monthly run-rate.
func ComputeCostBreakdown(costs []model.OperatingCost, asOf time.Time) CostBreakdown {
	start, end := RunRateWindow(asOf)
	months := decimal.NewFromInt(RunRateMonths)

	sums := make(map[Bucket]decimal.Decimal, len(Buckets))
	for _, b := range Buckets {
		sums[b] = decimal.Zero
	}

	total := decimal.Zero
	entries := 0
	for _, c := range costs {
		day := civilDate(c.Date)
		if day.Before(start) || day.After(end) {
			continue
		}
		b := BucketFor(c.CostType)
		sums[b] = sums[b].Add(c.Amount)
		total = total.Add(c.Amount)
		entries++
	}

	for b, v := range sums {
		sums[b] = v.Div(months)
	}

	return CostBreakdown{
		AsOf:         end,
		WindowStart:  start,
		Buckets:      sums,
		MonthlyTotal: total.Div(months),
		Entries:      entries,
	}
}

// AnimalCost is acquisition price plus every treatment cost that is present
func AnimalCost(animal model.Animal, treatments []model.Treatment) decimal.Decimal {
	total := animal.AcquisitionPrice
	for _, t := range treatments {
		if t.Cost.Valid {
			total = total.Add(t.Cost.Decimal)
		}
	}
	return total
}

// ArrobaPrice converts a live weight and a price per arroba into a total price
func ArrobaPrice(weight float64, pricePerArroba decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(weight).
		Div(decimal.NewFromInt(ArrobaWeight)).
		Mul(pricePerArroba).
		Round(2)
}
