package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/claude/liftlog/internal/config"
	"github.com/claude/liftlog/internal/importer"
	"github.com/claude/liftlog/internal/ingest/alpha"
	"github.com/claude/liftlog/internal/storage"
	"github.com/claude/liftlog/internal/upload"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (not needed with -server)")
	exportPath := flag.String("path", "", "directory of Alpha Progression CSV exports (required)")
	dryRun := flag.Bool("dry-run", false, "report counts without writing anything")
	stateDir := flag.String("state-dir", "", "directory for the import state database (default from config, or .liftlog)")
	serverURL := flag.String("server", "", "upload to a LiftLog server instead of the database (e.g. https://liftlog.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("LIFTLOG_AUTH_API_KEY"), "API key for -server")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *exportPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: liftlog-import -path /path/to/exports [-config config.yaml | -server URL -api-key KEY] [-dry-run] [-state-dir DIR]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	info, err := os.Stat(*exportPath)
	if err != nil || !info.IsDir() {
		log.Error("export path does not exist or is not a directory", "path", *exportPath)
		os.Exit(1)
	}

	ctx := context.Background()

	if *dryRun {
		log.Info("DRY RUN mode: nothing will be written")
		stats, err := importer.New(nil, nil, nil, log, true).Import(ctx, *exportPath)
		printStats(log, stats)
		if err != nil {
			log.Error("import failed", "error", err)
			os.Exit(1)
		}
		return
	}

	var (
		ingester importer.Ingester
		logs     importer.LogStore
	)

	if *serverURL != "" {
		if *apiKey == "" {
			fmt.Fprintf(os.Stderr, "Error: -api-key is required with -server\n")
			os.Exit(1)
		}
		if *stateDir == "" {
			*stateDir = ".liftlog"
		}
		// The server writes its own import log rows.
		ingester = upload.NewClient(*serverURL, *apiKey)
		log.Info("uploading to server", "server", *serverURL)
	} else {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		if *stateDir == "" {
			*stateDir = cfg.Import.StateDir
		}

		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			log.Error("migration failed", "error", err)
			os.Exit(1)
		}
		log.Info("migrations applied")

		db, err := storage.New(ctx, dsn)
		if err != nil {
			log.Error("failed to connect database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("database connected")

		ingester = alpha.NewProvider(db, log)
		logs = db
	}

	state, err := importer.OpenStateDB(*stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	stats, err := importer.New(ingester, state, logs, log, false).Import(ctx, *exportPath)
	printStats(log, stats)
	if err != nil {
		log.Error("import failed", "error", err)
		os.Exit(1)
	}
	log.Info("import complete")
}

func printStats(log *slog.Logger, stats *importer.Stats) {
	if stats == nil {
		return
	}
	log.Info("import stats",
		"files_found", stats.FilesFound,
		"files_processed", stats.FilesProcessed,
		"files_skipped", stats.FilesSkipped,
		"files_errored", stats.FilesErrored,
		"sessions", stats.SessionsReceived,
		"records_saved", stats.RecordsSaved,
		"sets_saved", stats.SetsSaved,
		"warmups_skipped", stats.WarmupsSkipped,
		"exercises_created", stats.ExercisesCreated,
	)
	if len(stats.CreatedExercises) > 0 {
		log.Info("created exercises", "names", stats.CreatedExercises)
	}
}
