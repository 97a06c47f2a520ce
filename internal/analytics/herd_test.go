package analytics

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"herd-analytics/internal/model"
)

// TestWeightClass tests arroba class boundaries
func TestWeightClass(t *testing.T) {
	tests := []struct {
		weight   float64
		expected string
	}{
		{0, WeightClassUnder10},
		{299.9, WeightClassUnder10},
		{300, WeightClass10To15},
		{449.99, WeightClass10To15},
		{450, WeightClass15To20},
		{600, WeightClassOver20},
		{720, WeightClassOver20},
	}
	for _, tt := range tests {
		if got := WeightClass(tt.weight); got != tt.expected {
			t.Errorf("WeightClass(%f) = %s, expected %s", tt.weight, got, tt.expected)
		}
	}
}

// TestComputeHerdSnapshot tests value, distributions and mean GMD of the active herd
func TestComputeHerdSnapshot(t *testing.T) {
	animals := []model.Animal{
		{ID: 1, Sex: model.SexMale, AcquisitionPrice: dec("2500")},
		{ID: 2, Sex: model.SexFemale, AcquisitionPrice: dec("2000")},
		{ID: 3, Sex: model.SexMale, AcquisitionPrice: dec("3000"),
			SaleDate: datePtr(day(2024, 5, 1)), SalePrice: decimal.NewNullDecimal(dec("4000"))},
	}
	weighings := []model.Weighing{
		{ID: 1, AnimalID: 1, Date: day(2024, 1, 1), Weight: 300},
		{ID: 2, AnimalID: 1, Date: day(2024, 3, 1), Weight: 360}, // 60 kg / 60 days
		{ID: 3, AnimalID: 2, Date: day(2024, 1, 1), Weight: 250},
		{ID: 4, AnimalID: 3, Date: day(2024, 1, 1), Weight: 500}, // sold, ignored
		{ID: 5, AnimalID: 3, Date: day(2024, 5, 1), Weight: 560},
	}

	snap := ComputeHerdSnapshot(animals, weighings)

	if snap.Active != 2 || snap.Sold != 1 {
		t.Errorf("active/sold = %d/%d, expected 2/1", snap.Active, snap.Sold)
	}
	if !snap.HerdValue.Equal(dec("4500")) {
		t.Errorf("herd value = %s, expected 4500", snap.HerdValue)
	}
	if snap.BySex["M"] != 1 || snap.BySex["F"] != 1 {
		t.Errorf("by sex = %v", snap.BySex)
	}
	if snap.ByWeightClass[WeightClass10To15] != 1 || snap.ByWeightClass[WeightClassUnder10] != 1 {
		t.Errorf("by weight class = %v", snap.ByWeightClass)
	}
	if snap.ByWeightClass[WeightClassOver20] != 0 {
		t.Errorf("sold animal leaked into weight classes: %v", snap.ByWeightClass)
	}
	if snap.GMDSamples != 1 || math.Abs(snap.AverageGMD-1) > 1e-9 {
		t.Errorf("gmd = %f over %d samples, expected 1 over 1", snap.AverageGMD, snap.GMDSamples)
	}
}
