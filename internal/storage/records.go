package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// SaveRecord stores the sets logged for an exercise on the record's day,
// replacing whatever was saved for that day before. A record without sets
// deletes the day's record. Returns the stored record, or nil when deleted.
func (db *DB) SaveRecord(ctx context.Context, rec models.RecordHeader) (*models.RecordHeader, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	day := models.Day(rec.Date)

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if len(rec.Sets) == 0 {
		if _, err := tx.Exec(ctx,
			`DELETE FROM records WHERE exercise_id = $1 AND record_date = $2`,
			rec.ExerciseID, day); err != nil {
			return nil, fmt.Errorf("deleting record: %w", err)
		}
		return nil, tx.Commit(ctx)
	}

	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	var id uuid.UUID
	err = tx.QueryRow(ctx,
		`INSERT INTO records (id, exercise_id, record_date) VALUES ($1, $2, $3)
		 ON CONFLICT (exercise_id, record_date) DO UPDATE SET updated_at = NOW()
		 RETURNING id`,
		rec.ID, rec.ExerciseID, day).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("upserting record: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM record_sets WHERE record_id = $1`, id); err != nil {
		return nil, fmt.Errorf("clearing record sets: %w", err)
	}

	query := `INSERT INTO record_sets (record_id, set_number, weight, weight_unit, reps, memo) VALUES `
	args := make([]any, 0, len(rec.Sets)*6)
	valueStrings := make([]string, 0, len(rec.Sets))
	for i, s := range rec.Sets {
		base := i * 6
		valueStrings = append(valueStrings, fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, id, s.SetNumber, s.Weight, string(s.Unit), s.Reps, nullString(s.Memo))
	}
	if _, err := tx.Exec(ctx, query+strings.Join(valueStrings, ","), args...); err != nil {
		return nil, fmt.Errorf("inserting record sets: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing record: %w", err)
	}

	rec.ID = id
	rec.Date = day
	return &rec, nil
}

// GetRecord returns the record for an exercise on the given day.
func (db *DB) GetRecord(ctx context.Context, exerciseID uuid.UUID, day time.Time) (*models.RecordHeader, error) {
	records, err := db.queryRecords(ctx,
		`r.exercise_id = $1 AND r.record_date = $2`, exerciseID, models.Day(day))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrNotFound
	}
	return &records[0], nil
}

// ListRecords returns an exercise's records newest first. When before is set,
// only records from days strictly before it are returned.
func (db *DB) ListRecords(ctx context.Context, exerciseID uuid.UUID, before *time.Time) ([]models.RecordHeader, error) {
	if before != nil {
		return db.queryRecords(ctx,
			`r.exercise_id = $1 AND r.record_date < $2`, exerciseID, models.Day(*before))
	}
	return db.queryRecords(ctx, `r.exercise_id = $1`, exerciseID)
}

// ListRecordsBetween returns records of every exercise with start <= day < end.
// An end inside a day keeps that day.
func (db *DB) ListRecordsBetween(ctx context.Context, start, end time.Time) ([]models.RecordHeader, error) {
	from, to := dayRange(start, end)
	return db.queryRecords(ctx, `r.record_date >= $1 AND r.record_date < $2`, from, to)
}

// dayRange truncates start to its day and rounds end up to the next midnight
// unless it already is one, so both bounds compare as dates.
func dayRange(start, end time.Time) (time.Time, time.Time) {
	to := models.Day(end)
	if to.Before(end) {
		to = to.AddDate(0, 0, 1)
	}
	return models.Day(start), to
}

func (db *DB) queryRecords(ctx context.Context, where string, args ...any) ([]models.RecordHeader, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT r.id, r.exercise_id, r.record_date,
		        s.set_number, s.weight, s.weight_unit, s.reps, s.memo
		 FROM records r
		 LEFT JOIN record_sets s ON s.record_id = r.id
		 WHERE `+where+`
		 ORDER BY r.record_date DESC, r.id, s.set_number ASC`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var result []models.RecordHeader
	for rows.Next() {
		var (
			id, exerciseID uuid.UUID
			date           time.Time
			setNumber      *int
			weight         *float64
			unit           *string
			reps           *int
			memo           *string
		)
		if err := rows.Scan(&id, &exerciseID, &date, &setNumber, &weight, &unit, &reps, &memo); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if len(result) == 0 || result[len(result)-1].ID != id {
			result = append(result, models.RecordHeader{
				ID:         id,
				ExerciseID: exerciseID,
				Date:       date,
				Sets:       []models.RecordSet{},
			})
		}
		if setNumber == nil {
			continue
		}
		s := models.RecordSet{SetNumber: *setNumber}
		if weight != nil {
			s.Weight = *weight
		}
		if reps != nil {
			s.Reps = *reps
		}
		if memo != nil {
			s.Memo = *memo
		}
		s.Unit = models.Kilogram
		if unit != nil {
			if u, err := models.ParseWeightUnit(*unit); err == nil {
				s.Unit = u
			}
		}
		cur := &result[len(result)-1]
		cur.Sets = append(cur.Sets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
