package progress

import (
	"math"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
)

func rec(day int, sets ...models.RecordSet) models.RecordHeader {
	return models.RecordHeader{
		Date: time.Date(2026, 2, day, 18, 0, 0, 0, time.UTC),
		Sets: sets,
	}
}

// TestDailyMetrics verifies total load, heaviest set and estimated max per day.
func TestDailyMetrics(t *testing.T) {
	records := []models.RecordHeader{
		rec(3,
			models.RecordSet{SetNumber: 1, Weight: 100, Unit: models.Kilogram, Reps: 5},
			models.RecordSet{SetNumber: 2, Weight: 100, Unit: models.Kilogram, Reps: 8},
			models.RecordSet{SetNumber: 3, Weight: 80, Unit: models.Kilogram, Reps: 10},
		),
		rec(1, models.RecordSet{SetNumber: 1, Weight: 60, Unit: models.Kilogram, Reps: 10}),
		rec(2),
	}

	got := Daily(records, models.Kilogram)
	if len(got) != 2 {
		t.Fatalf("days = %d, want 2 (empty day skipped)", len(got))
	}
	if got[0].Date != "2026-02-01" || got[1].Date != "2026-02-03" {
		t.Errorf("dates = %s,%s, want ascending", got[0].Date, got[1].Date)
	}

	d := got[1]
	if d.TotalLoad != 2100 {
		t.Errorf("total load = %v, want 2100", d.TotalLoad)
	}
	if d.MaxWeight != 100 {
		t.Errorf("max weight = %v, want 100", d.MaxWeight)
	}
	// Tie at 100kg resolved by the 8-rep set: 100*(8/40)+100.
	if d.MaxRM != 120 {
		t.Errorf("max RM = %v, want 120", d.MaxRM)
	}
	if d.Sets != 3 {
		t.Errorf("sets = %d, want 3", d.Sets)
	}
}

// TestDailyConvertsUnits verifies lb sets are converted before aggregating.
func TestDailyConvertsUnits(t *testing.T) {
	records := []models.RecordHeader{
		rec(1,
			models.RecordSet{SetNumber: 1, Weight: 100, Unit: models.Kilogram, Reps: 1},
			models.RecordSet{SetNumber: 2, Weight: 100, Unit: models.Pound, Reps: 1},
		),
	}
	got := Daily(records, models.Pound)
	if got[0].MaxWeight != 220.46 {
		t.Errorf("max weight = %v lb, want 220.46", got[0].MaxWeight)
	}
	if math.Abs(got[0].TotalLoad-320.46) > 1e-9 {
		t.Errorf("total load = %v lb, want 320.46", got[0].TotalLoad)
	}
}
