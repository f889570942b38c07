package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// RecordHeader is one workout record: the sets logged for an exercise on a day.
type RecordHeader struct {
	ID         uuid.UUID   `json:"id"`
	ExerciseID uuid.UUID   `json:"exercise_id"`
	Date       time.Time   `json:"date"`
	Sets       []RecordSet `json:"sets"`
}

// RecordSet is a single logged set. Zero weight or reps means the field was
// left blank.
type RecordSet struct {
	SetNumber int        `json:"set_number"`
	Weight    float64    `json:"weight"`
	Unit      WeightUnit `json:"unit"`
	Reps      int        `json:"reps"`
	Memo      string     `json:"memo,omitempty"`
}

// Day truncates t to the start of its UTC calendar day. Records are keyed by
// exercise and day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Validate checks set numbers are positive and unique and that every set
// has a known unit and non-negative values.
func (r RecordHeader) Validate() error {
	seen := make(map[int]bool, len(r.Sets))
	for _, s := range r.Sets {
		if s.SetNumber <= 0 {
			return fmt.Errorf("set number must be positive, got %d", s.SetNumber)
		}
		if seen[s.SetNumber] {
			return fmt.Errorf("duplicate set number %d", s.SetNumber)
		}
		seen[s.SetNumber] = true
		if !s.Unit.Valid() {
			return fmt.Errorf("set %d: unknown weight unit %q", s.SetNumber, s.Unit)
		}
		if s.Weight < 0 || math.IsNaN(s.Weight) || math.IsInf(s.Weight, 0) {
			return fmt.Errorf("set %d: invalid weight %v", s.SetNumber, s.Weight)
		}
		if s.Reps < 0 {
			return fmt.Errorf("set %d: invalid reps %d", s.SetNumber, s.Reps)
		}
	}
	return nil
}
