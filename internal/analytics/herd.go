package analytics

import (
	"github.com/shopspring/decimal"

	"herd-analytics/internal/model"
)

// Weight classes in arrobas, taken from each animal's latest weighing
const (
	WeightClassUnder10 = "<10@"
	WeightClass10To15  = "10@-15@"
	WeightClass15To20  = "15@-20@"
	WeightClassOver20  = ">=20@"
)

// WeightClasses lists the classes in ascending order
var WeightClasses = []string{WeightClassUnder10, WeightClass10To15, WeightClass15To20, WeightClassOver20}

// HerdSnapshot describes the active herd of a tenant at a point in time
type HerdSnapshot struct {
	Active        int             `json:"ativos"`
	Sold          int             `json:"vendidos"`
	HerdValue     decimal.Decimal `json:"valor_rebanho"`
	BySex         map[string]int  `json:"por_sexo"`
	ByWeightClass map[string]int  `json:"por_peso"`
	AverageGMD    float64         `json:"gmd_medio"`
	GMDSamples    int             `json:"gmd_amostras"`
}

// WeightClass places a live weight into its arroba class
func WeightClass(weight float64) string {
	arrobas := weight / ArrobaWeight
	switch {
	case arrobas < 10:
		return WeightClassUnder10
	case arrobas < 15:
		return WeightClass10To15
	case arrobas < 20:
		return WeightClass15To20
	default:
		return WeightClassOver20
	}
}

// ComputeHerdSnapshot summarizes animals and the weighings of the active ones.
// animals may contain sold animals; only unsold ones count toward value and classes.
func ComputeHerdSnapshot(animals []model.Animal, activeWeighings []model.Weighing) HerdSnapshot {
	snap := HerdSnapshot{
		HerdValue:     decimal.Zero,
		BySex:         make(map[string]int),
		ByWeightClass: make(map[string]int, len(WeightClasses)),
	}
	for _, c := range WeightClasses {
		snap.ByWeightClass[c] = 0
	}

	active := make(map[uint]bool, len(animals))
	for _, a := range animals {
		if a.IsSold() {
			snap.Sold++
			continue
		}
		active[a.ID] = true
		snap.Active++
		snap.HerdValue = snap.HerdValue.Add(a.AcquisitionPrice)
		snap.BySex[string(a.Sex)]++
	}

	byAnimal := GroupWeighings(activeWeighings)
	for id := range byAnimal {
		if !active[id] {
			delete(byAnimal, id)
		}
	}

	for _, weighings := range byAnimal {
		if latest, ok := LatestWeighing(weighings); ok {
			snap.ByWeightClass[WeightClass(latest.Weight)]++
		}
	}

	snap.AverageGMD, snap.GMDSamples = MeanGMD(byAnimal)
	return snap
}
