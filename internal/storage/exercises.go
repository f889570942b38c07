package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const exerciseColumns = `id, name, body_part, default_weight_unit, is_preset,
	seed_key, seed_version, is_archived, preset_sort_key`

func scanExercise(row pgx.Row) (models.Exercise, error) {
	var e models.Exercise
	var bodyPart, unit string
	if err := row.Scan(&e.ID, &e.Name, &bodyPart, &unit, &e.IsPreset,
		&e.SeedKey, &e.SeedVersion, &e.IsArchived, &e.PresetSortKey); err != nil {
		return models.Exercise{}, err
	}
	e.BodyPart = models.ParseBodyPart(bodyPart)
	parsed, err := models.ParseWeightUnit(unit)
	if err != nil {
		parsed = models.Kilogram
	}
	e.DefaultWeightUnit = parsed
	return e, nil
}

// ListExercises returns the exercise catalog, presets first then by name.
func (db *DB) ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT `+exerciseColumns+`
		 FROM exercises
		 WHERE $1 OR NOT is_archived
		 ORDER BY preset_sort_key ASC, name ASC`,
		includeArchived)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		e, err := scanExercise(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetExercise returns a single exercise by ID.
func (db *DB) GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error) {
	e, err := scanExercise(db.Pool.QueryRow(ctx,
		`SELECT `+exerciseColumns+` FROM exercises WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting exercise %s: %w", id, err)
	}
	return &e, nil
}

// FindExerciseByName looks up a non-archived exercise by case-insensitive name.
func (db *DB) FindExerciseByName(ctx context.Context, name string) (*models.Exercise, error) {
	e, err := scanExercise(db.Pool.QueryRow(ctx,
		`SELECT `+exerciseColumns+`
		 FROM exercises
		 WHERE lower(name) = lower($1) AND NOT is_archived
		 ORDER BY preset_sort_key ASC
		 LIMIT 1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("finding exercise %q: %w", name, err)
	}
	return &e, nil
}

// AddExercise inserts an exercise after validating it.
func (db *DB) AddExercise(ctx context.Context, e models.Exercise) (*models.Exercise, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO exercises (`+exerciseColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		e.ID, e.Name, string(e.BodyPart), string(e.DefaultWeightUnit), e.IsPreset,
		e.SeedKey, e.SeedVersion, e.IsArchived, e.PresetSortKey)
	if err != nil {
		return nil, fmt.Errorf("inserting exercise: %w", err)
	}
	return &e, nil
}

// UpdateExercise renames an exercise and changes its body part.
func (db *DB) UpdateExercise(ctx context.Context, id uuid.UUID, name string, bodyPart models.BodyPart) (*models.Exercise, error) {
	e, err := scanExercise(db.Pool.QueryRow(ctx,
		`UPDATE exercises SET name = $2, body_part = $3
		 WHERE id = $1
		 RETURNING `+exerciseColumns,
		id, name, string(bodyPart)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating exercise %s: %w", id, err)
	}
	return &e, nil
}

// ArchiveExercise hides an exercise from the catalog. Its records are kept.
func (db *DB) ArchiveExercise(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx,
		`UPDATE exercises SET is_archived = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("archiving exercise %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
