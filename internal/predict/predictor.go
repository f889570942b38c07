// Package predict suggests weight and reps for the next workout of an
// exercise from its recorded history.
package predict

import (
	"math"
	"sort"

	"github.com/claude/liftlog/internal/models"
)

// DefaultMaxSamplesPerSet is how many records feed each set number's forecast.
const DefaultMaxSamplesPerSet = 3

// Prediction is the forecast for one set number. Weight and Reps are nil when
// the history carries no usable signal for them.
type Prediction struct {
	SetNumber int      `json:"set_number"`
	Weight    *float64 `json:"weight,omitempty"`
	Reps      *int     `json:"reps,omitempty"`
}

// Predictor forecasts per-set weight and reps using a trend-adjusted average
// of past samples. It holds no mutable state and is safe for concurrent use.
type Predictor struct {
	maxSamplesPerSet int
}

// New returns a Predictor keeping at most maxSamplesPerSet samples per set
// number. Values <= 0 select DefaultMaxSamplesPerSet.
func New(maxSamplesPerSet int) *Predictor {
	if maxSamplesPerSet <= 0 {
		maxSamplesPerSet = DefaultMaxSamplesPerSet
	}
	return &Predictor{maxSamplesPerSet: maxSamplesPerSet}
}

// MaxSamplesPerSet returns the per-set sample cap.
func (p *Predictor) MaxSamplesPerSet() int {
	return p.maxSamplesPerSet
}

// Predict returns predictions keyed by set number 1..maxSetNumber. Only sets
// logged in unit are considered; no conversion happens here. The result does
// not depend on the order of records.
func (p *Predictor) Predict(records []models.RecordHeader, unit models.WeightUnit, maxSetNumber int) map[int]Prediction {
	predictions := make(map[int]Prediction)
	if maxSetNumber <= 0 || len(records) == 0 {
		return predictions
	}

	weightSamples := make(map[int][]float64)
	repsSamples := make(map[int][]float64)
	var weightDeltas, repsDeltas []float64

	for _, record := range sortedByDate(records) {
		sets := setsInUnit(record.Sets, unit)
		for i, set := range sets {
			if positive(set.Weight) {
				weightSamples[set.SetNumber] = p.appendSample(weightSamples[set.SetNumber], set.Weight)
			}
			if set.Reps > 0 {
				repsSamples[set.SetNumber] = p.appendSample(repsSamples[set.SetNumber], float64(set.Reps))
			}
			if i == 0 {
				continue
			}
			prev := sets[i-1]
			if positive(prev.Weight) && positive(set.Weight) {
				weightDeltas = append(weightDeltas, set.Weight-prev.Weight)
			}
			if prev.Reps > 0 && set.Reps > 0 {
				repsDeltas = append(repsDeltas, float64(set.Reps-prev.Reps))
			}
		}
	}

	weights := forecast(weightSamples, weightDeltas, maxSetNumber)
	reps := forecast(repsSamples, repsDeltas, maxSetNumber)

	for n := 1; n <= maxSetNumber; n++ {
		pred := Prediction{SetNumber: n}
		if w, ok := weights[n]; ok && w > 0 {
			pred.Weight = &w
		}
		if r, ok := reps[n]; ok {
			if rounded := int(math.Round(r)); rounded > 0 {
				pred.Reps = &rounded
			}
		}
		if pred.Weight != nil || pred.Reps != nil {
			predictions[n] = pred
		}
	}
	return predictions
}

// appendSample adds v to bucket unless the bucket is full. Buckets fill in
// chronological order, so once full they keep the OLDEST samples and later
// records are ignored for that set number.
func (p *Predictor) appendSample(bucket []float64, v float64) []float64 {
	if len(bucket) >= p.maxSamplesPerSet {
		return bucket
	}
	return append(bucket, v)
}

// forecast computes the raw value for each set number 1..maxSetNumber. A set
// number without samples extends the previous set number's value by the
// average inter-set delta, provided that value is positive.
func forecast(samples map[int][]float64, deltas []float64, maxSetNumber int) map[int]float64 {
	avgDelta, hasDelta := mean(deltas)
	values := make(map[int]float64, maxSetNumber)
	for n := 1; n <= maxSetNumber; n++ {
		if v, ok := trendAdjusted(samples[n]); ok {
			values[n] = v
			continue
		}
		if prev, ok := values[n-1]; ok && prev > 0 && hasDelta {
			values[n] = prev + avgDelta
		}
	}
	return values
}

// trendAdjusted returns mean(samples) plus the mean of samples[i]-samples[i+1].
func trendAdjusted(samples []float64) (float64, bool) {
	switch len(samples) {
	case 0:
		return 0, false
	case 1:
		return samples[0], true
	}
	diffs := make([]float64, 0, len(samples)-1)
	for i := 0; i+1 < len(samples); i++ {
		diffs = append(diffs, samples[i]-samples[i+1])
	}
	avg, _ := mean(samples)
	trend, _ := mean(diffs)
	return avg + trend, true
}

func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// sortedByDate returns a copy of records ordered by date, then ID, so equal
// dates still sort deterministically.
func sortedByDate(records []models.RecordHeader) []models.RecordHeader {
	sorted := make([]models.RecordHeader, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Date.Equal(sorted[j].Date) {
			return sorted[i].Date.Before(sorted[j].Date)
		}
		return sorted[i].ID.String() < sorted[j].ID.String()
	})
	return sorted
}

// setsInUnit filters sets to unit and orders them by set number.
func setsInUnit(sets []models.RecordSet, unit models.WeightUnit) []models.RecordSet {
	filtered := make([]models.RecordSet, 0, len(sets))
	for _, s := range sets {
		if s.Unit == unit {
			filtered = append(filtered, s)
		}
	}
	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i], filtered[j]
		if a.SetNumber != b.SetNumber {
			return a.SetNumber < b.SetNumber
		}
		if a.Weight != b.Weight {
			return a.Weight < b.Weight
		}
		return a.Reps < b.Reps
	})
	return filtered
}
