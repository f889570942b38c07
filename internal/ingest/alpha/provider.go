package alpha

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
)

// Store is the storage surface the provider writes through.
// *storage.DB satisfies it.
type Store interface {
	FindExerciseByName(ctx context.Context, name string) (*models.Exercise, error)
	AddExercise(ctx context.Context, e models.Exercise) (*models.Exercise, error)
	SaveRecord(ctx context.Context, rec models.RecordHeader) (*models.RecordHeader, error)
}

// Provider processes Alpha Progression CSV exports.
type Provider struct {
	db  Store
	log *slog.Logger
}

// NewProvider creates a new Alpha Progression ingest provider.
func NewProvider(db Store, log *slog.Logger) *Provider {
	return &Provider{db: db, log: log}
}

// Ingest parses a CSV export and saves one record per exercise and day.
// Exercises missing from the catalog are created as user exercises. A day
// that already has a record for the exercise is replaced, so re-importing
// the same export is idempotent.
func (p *Provider) Ingest(ctx context.Context, r io.Reader) (*ingest.Result, error) {
	sessions, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	result := &ingest.Result{SessionsReceived: len(sessions)}

	resolved := make(map[string]uuid.UUID)
	resolve := func(name string) (uuid.UUID, error) {
		k := strings.ToLower(name)
		if id, ok := resolved[k]; ok {
			return id, nil
		}
		id, created, err := p.resolveExercise(ctx, name)
		if err != nil {
			return uuid.Nil, err
		}
		if created {
			result.ExercisesCreated++
			result.CreatedExercises = append(result.CreatedExercises, name)
		}
		resolved[k] = id
		return id, nil
	}

	records, warmups, err := ToRecords(sessions, resolve)
	if err != nil {
		return result, err
	}
	result.WarmupsSkipped = warmups

	for _, rec := range records {
		if _, err := p.db.SaveRecord(ctx, rec); err != nil {
			return result, fmt.Errorf("saving record for %s on %s: %w",
				rec.ExerciseID, rec.Date.Format("2006-01-02"), err)
		}
		result.RecordsSaved++
		result.SetsSaved += len(rec.Sets)
	}

	p.log.Info("alpha import",
		"sessions", result.SessionsReceived,
		"records", result.RecordsSaved,
		"sets", result.SetsSaved,
		"exercises_created", result.ExercisesCreated)
	return result, nil
}

func (p *Provider) resolveExercise(ctx context.Context, name string) (uuid.UUID, bool, error) {
	existing, err := p.db.FindExerciseByName(ctx, name)
	if err == nil {
		return existing.ID, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return uuid.Nil, false, err
	}
	created, err := p.db.AddExercise(ctx, models.NewUserExercise(name, models.BodyPartOther, models.Kilogram))
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("creating exercise %q: %w", name, err)
	}
	p.log.Info("created exercise from import", "name", name, "id", created.ID)
	return created.ID, true, nil
}
