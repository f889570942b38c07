package storage

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PresetDefinition describes a built-in exercise. Bumping SeedVersion makes
// the next seeding run overwrite name, body part and unit of stored copies.
type PresetDefinition struct {
	ID                uuid.UUID
	SeedKey           string
	SeedVersion       int
	Name              string
	BodyPart          models.BodyPart
	DefaultWeightUnit models.WeightUnit
}

// Presets is the built-in exercise catalog.
var Presets = []PresetDefinition{
	{uuid.MustParse("0a8a5dec-e7f9-405b-bd0e-9f4454b1c328"), "bench_press", 1, "Bench Press", models.BodyPartChest, models.Kilogram},
	{uuid.MustParse("6f88c12e-a399-4b31-a9d9-c32f00733869"), "chest_press", 1, "Chest Press", models.BodyPartChest, models.Kilogram},
	{uuid.MustParse("349b02d5-6175-40ff-9255-d94ce4d3b2e4"), "deadlift", 1, "Deadlift", models.BodyPartBack, models.Kilogram},
	{uuid.MustParse("345e4884-d945-4a3d-9e2f-c4fa9bb7d4af"), "lat_pulldown", 1, "Lat Pulldown", models.BodyPartBack, models.Kilogram},
	{uuid.MustParse("ad40d7e3-eb1a-41d1-8125-967ddea0cd8d"), "squat", 1, "Squat", models.BodyPartLegs, models.Kilogram},
	{uuid.MustParse("7a38c212-9e21-4e48-bff7-04d975ae85f0"), "leg_press", 1, "Leg Press", models.BodyPartLegs, models.Kilogram},
	{uuid.MustParse("24bb8a64-78ba-470a-92a6-e59bf6e5d43f"), "shoulder_press", 1, "Shoulder Press", models.BodyPartShoulders, models.Kilogram},
	{uuid.MustParse("80ab552d-e762-46ec-a80e-f40752ee5379"), "side_raise", 1, "Side Raise", models.BodyPartShoulders, models.Kilogram},
	{uuid.MustParse("51e28625-96aa-4c42-9b33-c2fe202e087b"), "rear_raise", 1, "Rear Raise", models.BodyPartShoulders, models.Kilogram},
	{uuid.MustParse("ff395e31-a501-4d1b-9a72-663a3dad04ad"), "arm_curl", 1, "Arm Curl", models.BodyPartArms, models.Kilogram},
	{uuid.MustParse("c4db904c-5e15-407c-8ee2-0f44603caf8e"), "hip_thrust", 1, "Hip Thrust", models.BodyPartGlutes, models.Kilogram},
	{uuid.MustParse("8244380e-0c68-4464-ad40-e45312d19c16"), "abdominal", 1, "Abdominal", models.BodyPartCore, models.Kilogram},
}

// SeedResult counts what a seeding run changed.
type SeedResult struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Archived int `json:"archived"`
}

// seedPlan is the set of writes needed to bring the catalog in line with the presets.
type seedPlan struct {
	inserts []models.Exercise
	updates []models.Exercise
}

// planPresetSeeding matches each preset to an existing exercise by seed key,
// then ID, then name and body part, then name alone. Matches become presets;
// their display fields are only overwritten when the stored seed version is
// older. Unmatched presets are inserted.
func planPresetSeeding(existing []models.Exercise, presets []PresetDefinition) seedPlan {
	bySeedKey := make(map[string]*models.Exercise)
	byID := make(map[uuid.UUID]*models.Exercise)
	bySignature := make(map[string]*models.Exercise)
	byName := make(map[string]*models.Exercise)

	// Non-archived rows take precedence when several share a key.
	ordered := make([]models.Exercise, len(existing))
	copy(ordered, existing)
	sort.SliceStable(ordered, func(i, j int) bool {
		return !ordered[i].IsArchived && ordered[j].IsArchived
	})
	for i := range ordered {
		ex := &ordered[i]
		byID[ex.ID] = ex
		if ex.SeedKey != nil {
			if _, ok := bySeedKey[*ex.SeedKey]; !ok {
				bySeedKey[*ex.SeedKey] = ex
			}
		}
		sig := ex.Name + "|" + string(ex.BodyPart)
		if _, ok := bySignature[sig]; !ok {
			bySignature[sig] = ex
		}
		if _, ok := byName[ex.Name]; !ok {
			byName[ex.Name] = ex
		}
	}

	var plan seedPlan
	claimed := make(map[uuid.UUID]bool)
	for _, p := range presets {
		candidate := bySeedKey[p.SeedKey]
		if candidate == nil {
			candidate = byID[p.ID]
		}
		if candidate == nil {
			candidate = bySignature[p.Name+"|"+string(p.BodyPart)]
		}
		if candidate == nil {
			candidate = byName[p.Name]
		}
		if candidate != nil && claimed[candidate.ID] {
			candidate = nil
		}

		key := p.SeedKey
		if candidate == nil {
			plan.inserts = append(plan.inserts, models.Exercise{
				ID:                p.ID,
				Name:              p.Name,
				BodyPart:          p.BodyPart,
				DefaultWeightUnit: p.DefaultWeightUnit,
				IsPreset:          true,
				SeedKey:           &key,
				SeedVersion:       p.SeedVersion,
			})
			continue
		}

		claimed[candidate.ID] = true
		updated := *candidate
		if updated.SeedVersion < p.SeedVersion {
			updated.Name = p.Name
			updated.BodyPart = p.BodyPart
			updated.DefaultWeightUnit = p.DefaultWeightUnit
		}
		updated.IsPreset = true
		updated.SeedKey = &key
		updated.SeedVersion = max(updated.SeedVersion, p.SeedVersion)
		updated.PresetSortKey = 0
		if !sameExercise(*candidate, updated) {
			plan.updates = append(plan.updates, updated)
		}
	}
	return plan
}

func sameExercise(a, b models.Exercise) bool {
	if (a.SeedKey == nil) != (b.SeedKey == nil) {
		return false
	}
	if a.SeedKey != nil && *a.SeedKey != *b.SeedKey {
		return false
	}
	return a.Name == b.Name && a.BodyPart == b.BodyPart &&
		a.DefaultWeightUnit == b.DefaultWeightUnit && a.IsPreset == b.IsPreset &&
		a.SeedVersion == b.SeedVersion && a.PresetSortKey == b.PresetSortKey
}

// SeedPresets upserts the preset catalog and archives duplicate presets that
// share a seed key, moving their records to the surviving exercise.
// Safe to run on every start.
func (db *DB) SeedPresets(ctx context.Context, presets []PresetDefinition, log *slog.Logger) (*SeedResult, error) {
	existing, err := db.ListExercises(ctx, true)
	if err != nil {
		return nil, err
	}
	plan := planPresetSeeding(existing, presets)

	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result := &SeedResult{}
	for _, e := range plan.inserts {
		if _, err := tx.Exec(ctx,
			`INSERT INTO exercises (`+exerciseColumns+`)
			 VALUES ($1,$2,$3,$4,TRUE,$5,$6,FALSE,0)`,
			e.ID, e.Name, string(e.BodyPart), string(e.DefaultWeightUnit), e.SeedKey, e.SeedVersion); err != nil {
			return nil, fmt.Errorf("inserting preset %s: %w", *e.SeedKey, err)
		}
		result.Inserted++
	}
	for _, e := range plan.updates {
		if _, err := tx.Exec(ctx,
			`UPDATE exercises SET name = $2, body_part = $3, default_weight_unit = $4,
			 is_preset = TRUE, seed_key = $5, seed_version = $6, preset_sort_key = 0
			 WHERE id = $1`,
			e.ID, e.Name, string(e.BodyPart), string(e.DefaultWeightUnit), e.SeedKey, e.SeedVersion); err != nil {
			return nil, fmt.Errorf("updating preset %s: %w", *e.SeedKey, err)
		}
		result.Updated++
	}

	archived, err := dedupPresets(ctx, tx)
	if err != nil {
		return nil, err
	}
	result.Archived = archived

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing presets: %w", err)
	}
	log.Info("presets seeded", "inserted", result.Inserted, "updated", result.Updated, "archived", result.Archived)
	return result, nil
}

type presetCandidate struct {
	id         uuid.UUID
	seedKey    string
	hasRecords bool
}

// canonicalFirst orders duplicates so the one to keep comes first: exercises
// with records win, then the lowest ID.
func canonicalFirst(list []presetCandidate) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].hasRecords != list[j].hasRecords {
			return list[i].hasRecords
		}
		return list[i].id.String() < list[j].id.String()
	})
}

// dedupPresets archives all but one active preset per seed key.
func dedupPresets(ctx context.Context, tx pgx.Tx) (int, error) {
	rows, err := tx.Query(ctx,
		`SELECT e.id, e.seed_key,
		        EXISTS (SELECT 1 FROM records r WHERE r.exercise_id = e.id)
		 FROM exercises e
		 WHERE e.is_preset AND e.seed_key IS NOT NULL AND NOT e.is_archived`)
	if err != nil {
		return 0, fmt.Errorf("querying presets: %w", err)
	}
	groups := make(map[string][]presetCandidate)
	for rows.Next() {
		var c presetCandidate
		if err := rows.Scan(&c.id, &c.seedKey, &c.hasRecords); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scanning preset: %w", err)
		}
		groups[c.seedKey] = append(groups[c.seedKey], c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	archived := 0
	for _, list := range groups {
		if len(list) < 2 {
			continue
		}
		canonicalFirst(list)
		keep := list[0].id
		for _, dup := range list[1:] {
			// Days already logged on the kept exercise stay with the duplicate.
			if _, err := tx.Exec(ctx,
				`UPDATE records SET exercise_id = $1
				 WHERE exercise_id = $2
				   AND record_date NOT IN (SELECT record_date FROM records WHERE exercise_id = $1)`,
				keep, dup.id); err != nil {
				return 0, fmt.Errorf("moving records from %s: %w", dup.id, err)
			}
			if _, err := tx.Exec(ctx,
				`UPDATE exercises SET is_archived = TRUE WHERE id = $1`, dup.id); err != nil {
				return 0, fmt.Errorf("archiving duplicate %s: %w", dup.id, err)
			}
			archived++
		}
	}
	return archived, nil
}
