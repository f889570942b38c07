// liftlog-predict runs the next-workout predictor offline against an Alpha
// Progression CSV export.
//
// Usage:
//
//	liftlog-predict exercises --csv export.csv
//	liftlog-predict predict --csv export.csv --exercise "bench press" [--sets 4] [--unit lb]
//	liftlog-predict progress --csv export.csv --exercise squat [--json]
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/predict"
	"github.com/claude/liftlog/internal/progress"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "liftlog-predict",
		Usage:   "Predict the next workout from an Alpha Progression export",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "csv",
				Aliases:  []string{"c"},
				Usage:    "Path to the Alpha Progression CSV export",
				Required: true,
				EnvVars:  []string{"LIFTLOG_EXPORT_CSV"},
			},
		},
		Commands: []*cli.Command{
			exercisesCommand(),
			predictCommand(),
			progressCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var exerciseFlag = &cli.StringFlag{
	Name:     "exercise",
	Aliases:  []string{"e"},
	Usage:    "Exercise name or unique part of it",
	Required: true,
}

var unitFlag = &cli.StringFlag{
	Name:    "unit",
	Aliases: []string{"u"},
	Value:   "kg",
	Usage:   "Display unit (kg, lb)",
}

var jsonFlag = &cli.BoolFlag{
	Name:  "json",
	Usage: "Print JSON instead of a table",
}

func exercisesCommand() *cli.Command {
	return &cli.Command{
		Name:  "exercises",
		Usage: "List exercises in the export with their record counts",
		Action: func(c *cli.Context) error {
			all, err := loadExportFile(c.String("csv"))
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "EXERCISE\tRECORDS")
			for _, h := range sortedHistories(all) {
				fmt.Fprintf(tw, "%s\t%d\n", h.Name, len(h.Records))
			}
			return tw.Flush()
		},
	}
}

func predictCommand() *cli.Command {
	return &cli.Command{
		Name:  "predict",
		Usage: "Predict weight and reps for the next workout",
		Flags: []cli.Flag{
			exerciseFlag,
			&cli.IntFlag{
				Name:    "sets",
				Aliases: []string{"n"},
				Value:   3,
				Usage:   "Number of sets to predict",
			},
			&cli.IntFlag{
				Name:  "max-samples",
				Value: predict.DefaultMaxSamplesPerSet,
				Usage: "Past records used per set number",
			},
			unitFlag,
			jsonFlag,
		},
		Action: func(c *cli.Context) error {
			unit, err := models.ParseWeightUnit(c.String("unit"))
			if err != nil {
				return err
			}
			if c.Int("sets") < 1 {
				return fmt.Errorf("--sets must be positive")
			}
			all, err := loadExportFile(c.String("csv"))
			if err != nil {
				return err
			}
			h, err := findHistory(all, c.String("exercise"))
			if err != nil {
				return err
			}

			// Export weights are kilograms; convert for display only.
			preds := predict.New(c.Int("max-samples")).Predict(h.Records, models.Kilogram, c.Int("sets"))
			rows := predictionRows(preds, c.Int("sets"), unit)
			if c.Bool("json") {
				return writeJSON(c.App.Writer, map[string]any{
					"exercise":         h.Name,
					"unit":             unit,
					"based_on_records": len(h.Records),
					"sets":             rows,
				})
			}

			fmt.Fprintf(c.App.Writer, "%s (%d records)\n", h.Name, len(h.Records))
			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "SET\tWEIGHT (%s)\tREPS\n", unit.DisplayName())
			for _, r := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", r.SetNumber, orDash(r.Weight), orDash(r.Reps))
			}
			return tw.Flush()
		},
	}
}

func progressCommand() *cli.Command {
	return &cli.Command{
		Name:  "progress",
		Usage: "Show per-day load and estimated one-rep max",
		Flags: []cli.Flag{exerciseFlag, unitFlag, jsonFlag},
		Action: func(c *cli.Context) error {
			unit, err := models.ParseWeightUnit(c.String("unit"))
			if err != nil {
				return err
			}
			all, err := loadExportFile(c.String("csv"))
			if err != nil {
				return err
			}
			h, err := findHistory(all, c.String("exercise"))
			if err != nil {
				return err
			}
			days := progress.Daily(h.Records, unit)
			if c.Bool("json") {
				return writeJSON(c.App.Writer, days)
			}

			fmt.Fprintln(c.App.Writer, h.Name)
			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "DATE\tSETS\tLOAD\tMAX\tEST. 1RM (%s)\n", unit.DisplayName())
			for _, d := range days {
				fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", d.Date, d.Sets,
					formatWeight(d.TotalLoad), formatWeight(d.MaxWeight), formatWeight(d.MaxRM))
			}
			return tw.Flush()
		},
	}
}

// predictionRow is a display-ready prediction. Empty fields mean no signal.
type predictionRow struct {
	SetNumber int    `json:"set_number"`
	Weight    string `json:"weight,omitempty"`
	Reps      string `json:"reps,omitempty"`
}

// predictionRows lists set numbers 1..sets, converting kilogram weights to unit.
func predictionRows(preds map[int]predict.Prediction, sets int, unit models.WeightUnit) []predictionRow {
	rows := make([]predictionRow, 0, sets)
	for n := 1; n <= sets; n++ {
		row := predictionRow{SetNumber: n}
		if p, ok := preds[n]; ok {
			if p.Weight != nil {
				row.Weight = formatWeight(models.ConvertWeight(*p.Weight, models.Kilogram, unit))
			}
			if p.Reps != nil {
				row.Reps = fmt.Sprint(*p.Reps)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// formatWeight rounds to one decimal and drops a trailing ".0".
func formatWeight(w float64) string {
	return decimal.NewFromFloat(w).Round(1).String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
