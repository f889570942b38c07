package importer

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
)

// Ingester consumes one export. *alpha.Provider satisfies it.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader) (*ingest.Result, error)
}

// LogStore receives one import log row per processed file.
type LogStore interface {
	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
}

// Stats tracks import progress.
type Stats struct {
	FilesFound     int
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	ingest.Result
}

// Importer walks a directory of Alpha Progression CSV exports and feeds each
// new or changed file to an Ingester.
type Importer struct {
	ingester Ingester
	state    *StateDB
	logs     LogStore
	log      *slog.Logger
	dryRun   bool
	stats    Stats
}

// New creates an Importer. state and logs may be nil; without state every
// file is imported on every run.
func New(ingester Ingester, state *StateDB, logs LogStore, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{ingester: ingester, state: state, logs: logs, log: log, dryRun: dryRun}
}

// Import processes every *.csv file under dir in lexical order. A file that
// fails to import is counted and logged; the walk continues.
func (imp *Importer) Import(ctx context.Context, dir string) (*Stats, error) {
	files, err := findExports(dir)
	if err != nil {
		return &imp.stats, err
	}
	imp.stats.FilesFound = len(files)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = filepath.Base(path)
		}
		if err := imp.importFile(ctx, path, rel); err != nil {
			imp.log.Warn("import failed", "file", rel, "error", err)
			imp.stats.FilesErrored++
		}
	}
	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path, rel string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	hash, err := HashFile(path)
	if err != nil {
		return err
	}
	if imp.state != nil {
		done, err := imp.state.IsImported(rel, info.Size(), hash)
		if err != nil {
			return err
		}
		if done {
			imp.log.Debug("already imported", "file", rel)
			imp.stats.FilesSkipped++
			return nil
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if imp.dryRun {
		result, err := countExport(f)
		if err != nil {
			return err
		}
		imp.stats.FilesProcessed++
		imp.stats.Add(result)
		imp.log.Info("dry run", "file", rel, "sessions", result.SessionsReceived, "records", result.RecordsSaved)
		return nil
	}

	start := time.Now()
	result, ingestErr := imp.ingester.Ingest(ctx, f)
	imp.logImport(ctx, rel, result, ingestErr, time.Since(start))
	if ingestErr != nil {
		return ingestErr
	}

	imp.stats.FilesProcessed++
	imp.stats.Add(result)
	if imp.state != nil {
		if err := imp.state.MarkImported(rel, info.Size(), hash, result.RecordsSaved); err != nil {
			return err
		}
	}
	imp.log.Info("imported", "file", rel, "records", result.RecordsSaved, "sets", result.SetsSaved)
	return nil
}

func (imp *Importer) logImport(ctx context.Context, rel string, result *ingest.Result, importErr error, elapsed time.Duration) {
	if imp.logs == nil {
		return
	}
	entry := storage.ImportLog{Source: "alpha:" + rel, Status: "success"}
	if result != nil {
		entry.SessionsReceived = result.SessionsReceived
		entry.RecordsSaved = result.RecordsSaved
		entry.SetsSaved = result.SetsSaved
		entry.ExercisesCreated = result.ExercisesCreated
	}
	if importErr != nil {
		entry.Status = "error"
		msg := importErr.Error()
		entry.ErrorMessage = &msg
	}
	ms := int(elapsed.Milliseconds())
	entry.DurationMs = &ms
	if _, err := imp.logs.InsertImportLog(ctx, entry); err != nil {
		imp.log.Error("failed to log import", "file", rel, "error", err)
	}
}

// countExport parses an export without touching storage. Exercise names are
// mapped to name-derived IDs so same-day merging matches a real import.
func countExport(r io.Reader) (*ingest.Result, error) {
	sessions, err := alpha.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	byName := func(name string) (uuid.UUID, error) {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.ToLower(name))), nil
	}
	records, warmups, err := alpha.ToRecords(sessions, byName)
	if err != nil {
		return nil, err
	}
	result := &ingest.Result{
		SessionsReceived: len(sessions),
		RecordsSaved:     len(records),
		WarmupsSkipped:   warmups,
	}
	for _, rec := range records {
		result.SetsSaved += len(rec.Sets)
	}
	return result, nil
}

// findExports returns the *.csv files under dir, sorted.
func findExports(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".csv") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}
