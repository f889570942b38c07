package alpha

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// ResolveFunc maps an exported exercise name to a catalog exercise ID.
type ResolveFunc func(name string) (uuid.UUID, error)

// ToRecords turns sessions into one record per exercise per day. Warm-up sets
// are dropped and the remaining sets are numbered 1..n in export order. An
// exercise logged twice on the same day continues the numbering.
func ToRecords(sessions []Session, resolve ResolveFunc) ([]models.RecordHeader, int, error) {
	type key struct {
		exercise uuid.UUID
		day      time.Time
	}
	byKey := make(map[key]*models.RecordHeader)
	var order []key
	warmups := 0

	for _, s := range sessions {
		day := models.Day(s.Date)
		for _, ex := range s.Exercises {
			id, err := resolve(ex.Name)
			if err != nil {
				return nil, 0, fmt.Errorf("resolving %q: %w", ex.Name, err)
			}
			k := key{exercise: id, day: day}
			rec, ok := byKey[k]
			if !ok {
				rec = &models.RecordHeader{ExerciseID: id, Date: day}
				byKey[k] = rec
				order = append(order, k)
			}
			for _, set := range ex.Sets {
				if set.IsWarmup {
					warmups++
					continue
				}
				rec.Sets = append(rec.Sets, models.RecordSet{
					SetNumber: len(rec.Sets) + 1,
					Weight:    set.WeightKg,
					Unit:      models.Kilogram,
					Reps:      set.Reps,
					Memo:      setMemo(set),
				})
			}
		}
	}

	records := make([]models.RecordHeader, 0, len(order))
	for _, k := range order {
		if rec := byKey[k]; len(rec.Sets) > 0 {
			records = append(records, *rec)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})
	return records, warmups, nil
}

// setMemo keeps the export details that have no column of their own.
func setMemo(s Set) string {
	memo := "RIR " + strconv.FormatFloat(s.RIR, 'f', -1, 64)
	if s.IsBodyweightPlus {
		memo = "BW+ · " + memo
	}
	return memo
}
