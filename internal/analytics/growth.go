package analytics

import (
	"math"
	"time"

	"herd-analytics/internal/model"
)

// Growth is the observed weight gain of one animal between its first and last weighing
type Growth struct {
	InitialWeight float64   `json:"peso_inicial"`
	FinalWeight   float64   `json:"peso_final"`
	InitialDate   time.Time `json:"data_inicial"`
	FinalDate     time.Time `json:"data_final"`
	TotalGain     float64   `json:"ganho_total"`
	Days          int       `json:"dias"`
	GMD           float64   `json:"gmd"`
}

// ComputeGrowth derives gain and GMD from an unordered set of weighings.
// The second return value is false when fewer than two distinct dates exist.
//
// When several weighings share the earliest or the latest date, the one with the
// lowest ID (first inserted) is taken as that extreme.
func ComputeGrowth(weighings []model.Weighing) (Growth, bool) {
	if len(weighings) < 2 {
		return Growth{}, false
	}

	first := weighings[0]
	last := weighings[0]
	for _, w := range weighings[1:] {
		if earlierRecord(w, first) {
			first = w
		}
		if laterRecord(w, last) {
			last = w
		}
	}

	days := DaysBetween(first.Date, last.Date)
	if days == 0 {
		return Growth{}, false
	}

	gain := last.Weight - first.Weight
	return Growth{
		InitialWeight: first.Weight,
		FinalWeight:   last.Weight,
		InitialDate:   civilDate(first.Date),
		FinalDate:     civilDate(last.Date),
		TotalGain:     roundTo(gain, 2),
		Days:          days,
		GMD:           DailyGain(gain, days),
	}, true
}

// DailyGain divides a gain by elapsed days. Zero or negative spans yield 0.
func DailyGain(gain float64, days int) float64 {
	if days <= 0 {
		return 0
	}
	return gain / float64(days)
}

// LatestWeighing returns the weighing with the highest date; ties go to the highest ID.
func LatestWeighing(weighings []model.Weighing) (model.Weighing, bool) {
	if len(weighings) == 0 {
		return model.Weighing{}, false
	}
	latest := weighings[0]
	for _, w := range weighings[1:] {
		d := DaysBetween(latest.Date, w.Date)
		if d > 0 || (d == 0 && w.ID > latest.ID) {
			latest = w
		}
	}
	return latest, true
}

// GroupWeighings buckets weighings by animal
func GroupWeighings(weighings []model.Weighing) map[uint][]model.Weighing {
	grouped := make(map[uint][]model.Weighing)
	for _, w := range weighings {
		grouped[w.AnimalID] = append(grouped[w.AnimalID], w)
	}
	return grouped
}

// MeanGMD averages per-animal GMD over the animals that have a computable growth.
// Animals with insufficient data are left out of the mean rather than counted as zero.
func MeanGMD(byAnimal map[uint][]model.Weighing) (float64, int) {
	var total float64
	var count int
	for _, weighings := range byAnimal {
		growth, ok := ComputeGrowth(weighings)
		if !ok {
			continue
		}
		total += growth.GMD
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return total / float64(count), count
}

// DaysBetween counts calendar days from a to b, ignoring time of day
func DaysBetween(a, b time.Time) int {
	return int(civilDate(b).Sub(civilDate(a)).Hours() / 24)
}

func earlierRecord(candidate, current model.Weighing) bool {
	d := DaysBetween(candidate.Date, current.Date)
	return d > 0 || (d == 0 && candidate.ID < current.ID)
}

func laterRecord(candidate, current model.Weighing) bool {
	d := DaysBetween(current.Date, candidate.Date)
	return d > 0 || (d == 0 && candidate.ID < current.ID)
}

// civilDate drops the clock part so that stored DATE columns compare by day
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
