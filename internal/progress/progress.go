// Package progress computes per-day training metrics for progress graphs.
package progress

import (
	"sort"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// DayMetrics holds one day's aggregated load for an exercise.
type DayMetrics struct {
	Date      string  `json:"date"`
	TotalLoad float64 `json:"total_load"`
	MaxWeight float64 `json:"max_weight"`
	MaxRM     float64 `json:"max_rm"`
	Sets      int     `json:"sets"`
}

// Daily groups records by UTC day and converts every set to unit. Days with
// no sets are skipped. Output is ordered by date ascending.
func Daily(records []models.RecordHeader, unit models.WeightUnit) []DayMetrics {
	byDay := make(map[time.Time][]models.RecordSet)
	for _, r := range records {
		day := models.Day(r.Date)
		byDay[day] = append(byDay[day], r.Sets...)
	}

	days := make([]time.Time, 0, len(byDay))
	for d, sets := range byDay {
		if len(sets) > 0 {
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	result := make([]DayMetrics, 0, len(days))
	for _, d := range days {
		m := DayMetrics{Date: d.Format("2006-01-02")}
		var maxReps int
		for i, s := range byDay[d] {
			w := models.ConvertWeight(s.Weight, s.Unit, unit)
			m.TotalLoad += w * float64(s.Reps)
			m.Sets++
			// Heaviest set wins; equal weights prefer more reps.
			if i == 0 || w > m.MaxWeight || (w == m.MaxWeight && s.Reps > maxReps) {
				m.MaxWeight = w
				maxReps = s.Reps
			}
		}
		m.MaxRM = EstimatedMax(m.MaxWeight, maxReps)
		result = append(result, m)
	}
	return result
}

// EstimatedMax estimates a one-rep max as w*(reps/40) + w.
func EstimatedMax(weight float64, reps int) float64 {
	return weight*(float64(reps)/40.0) + weight
}
