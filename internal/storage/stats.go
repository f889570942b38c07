package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats holds aggregate statistics about all stored data.
type DataStats struct {
	Exercises         int64          `json:"exercises"`
	ArchivedExercises int64          `json:"archived_exercises"`
	TotalRecords      int64          `json:"total_records"`
	TotalSets         int64          `json:"total_sets"`
	EarliestRecord    *time.Time     `json:"earliest_record"`
	LatestRecord      *time.Time     `json:"latest_record"`
	RecordsByBodyPart []BodyPartStat `json:"records_by_body_part"`
}

// BodyPartStat holds summary stats for a single body part.
type BodyPartStat struct {
	BodyPart string `json:"body_part"`
	Records  int64  `json:"records"`
	Sets     int64  `json:"sets"`
}

// GetDataStats returns aggregate statistics for the stored catalog and records.
func (db *DB) GetDataStats(ctx context.Context) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FILTER (WHERE NOT is_archived), COUNT(*) FILTER (WHERE is_archived)
		 FROM exercises`,
	).Scan(&stats.Exercises, &stats.ArchivedExercises)
	if err != nil {
		return nil, fmt.Errorf("counting exercises: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(record_date)::timestamptz, MAX(record_date)::timestamptz FROM records`,
	).Scan(&stats.TotalRecords, &stats.EarliestRecord, &stats.LatestRecord)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}

	err = db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM record_sets`).Scan(&stats.TotalSets)
	if err != nil {
		return nil, fmt.Errorf("counting sets: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT e.body_part, COUNT(DISTINCT r.id), COUNT(s.set_number)
		 FROM records r
		 JOIN exercises e ON e.id = r.exercise_id
		 LEFT JOIN record_sets s ON s.record_id = r.id
		 GROUP BY e.body_part
		 ORDER BY COUNT(DISTINCT r.id) DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying records by body part: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s BodyPartStat
		if err := rows.Scan(&s.BodyPart, &s.Records, &s.Sets); err != nil {
			return nil, fmt.Errorf("scanning body part stat: %w", err)
		}
		stats.RecordsByBodyPart = append(stats.RecordsByBodyPart, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
