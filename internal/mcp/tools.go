package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/predict"
	"github.com/claude/liftlog/internal/progress"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
)

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}

// optionalRange parses start/end arguments. Missing bounds stay zero.
func optionalRange(startStr, endStr string) (start, end time.Time, err error) {
	if startStr != "" {
		if start, err = parseFlexTime(startStr); err != nil {
			return
		}
	}
	if endStr != "" {
		end, err = parseFlexTime(endStr)
	}
	return
}

// defaultTimeRange returns start/end defaulting to the last 30 days.
func defaultTimeRange(startStr, endStr string) (time.Time, time.Time, error) {
	start, end, err := optionalRange(startStr, endStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if end.IsZero() {
		end = time.Now()
	}
	if start.IsZero() {
		start = end.AddDate(0, 0, -30)
	}
	return start, end, nil
}

// inRange reports whether day falls within [start, end]; zero bounds are open.
func inRange(day, start, end time.Time) bool {
	if !start.IsZero() && day.Before(models.Day(start)) {
		return false
	}
	if !end.IsZero() && day.After(models.Day(end)) {
		return false
	}
	return true
}

// --- Tool definitions ---

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the exercise catalog. Presets come first, then user exercises by name."),
	mcp.WithBoolean("include_archived", mcp.Description("Include archived exercises. Defaults to false.")),
	mcp.WithString("body_part", mcp.Description("Only exercises for this body part."),
		mcp.Enum("chest", "back", "legs", "shoulders", "arms", "glutes", "core", "fullBody", "other")),
)

var toolGetExerciseRecords = mcp.NewTool("get_exercise_records",
	mcp.WithDescription("Workout records for one exercise, newest first. Each record is one day with its sets (weight, unit, reps, memo)."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise ID or name (case-insensitive, partial match allowed when unambiguous)")),
	mcp.WithString("start", mcp.Description("Earliest day (YYYY-MM-DD). Defaults to no limit.")),
	mcp.WithString("end", mcp.Description("Latest day (YYYY-MM-DD). Defaults to no limit.")),
	mcp.WithNumber("limit", mcp.Description("Maximum records returned. Defaults to 20.")),
)

var toolPredictNextSets = mcp.NewTool("predict_next_sets",
	mcp.WithDescription("Predict weight and reps for each set of the next workout from the exercise's history, using a trend-adjusted average of past sets. Set numbers without enough history are omitted."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise ID or name")),
	mcp.WithNumber("sets", mcp.Description("Number of sets to predict. Defaults to the server setting and may not exceed its maximum.")),
	mcp.WithString("unit", mcp.Description("Weight unit. Only sets logged in this unit are used. Defaults to the exercise's unit."), mcp.Enum("kg", "lb")),
	mcp.WithString("before", mcp.Description("Only use records strictly before this day (YYYY-MM-DD), e.g. to predict a past workout.")),
)

var toolGetProgress = mcp.NewTool("get_progress",
	mcp.WithDescription("Per-day progress for an exercise: total load (weight x reps), heaviest set and estimated max (weight x reps/40 + weight). All weights converted to the requested unit."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise ID or name")),
	mcp.WithString("unit", mcp.Description("Weight unit. Defaults to the exercise's unit."), mcp.Enum("kg", "lb")),
	mcp.WithString("start", mcp.Description("Earliest day. Defaults to no limit.")),
	mcp.WithString("end", mcp.Description("Latest day. Defaults to no limit.")),
)

var toolGetWorkoutHistory = mcp.NewTool("get_workout_history",
	mcp.WithDescription("All workout records across exercises in a date range, grouped by day, oldest first."),
	mcp.WithString("start", mcp.Description("Start date (ISO 8601 or YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (ISO 8601 or YYYY-MM-DD), inclusive. Defaults to today.")),
)

// --- Tool handlers ---

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exercises, err := h.ds.ListExercises(ctx, req.GetBool("include_archived", false))
	if err != nil {
		h.log.Error("mcp list_exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	if bp := req.GetString("body_part", ""); bp != "" {
		want := models.ParseBodyPart(bp)
		filtered := exercises[:0]
		for _, e := range exercises {
			if e.BodyPart == want {
				filtered = append(filtered, e)
			}
		}
		exercises = filtered
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}

	result, err := mcp.NewToolResultJSON(exercises)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getExerciseRecords(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	start, end, err := optionalRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}
	limit := req.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}

	ex, err := h.findExercise(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := h.ds.ListRecords(ctx, ex.ID, nil)
	if err != nil {
		h.log.Error("mcp get_exercise_records", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	out := make([]models.RecordHeader, 0, min(limit, len(records)))
	for _, r := range records {
		if len(out) == limit {
			break
		}
		if inRange(models.Day(r.Date), start, end) {
			out = append(out, r)
		}
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"exercise": ex,
		"records":  out,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) predictNextSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	sets := req.GetInt("sets", h.defaultSets)
	if sets <= 0 || sets > h.maxSets {
		return mcp.NewToolResultError(fmt.Sprintf("sets must be between 1 and %d", h.maxSets)), nil
	}

	var before *time.Time
	if b := req.GetString("before", ""); b != "" {
		t, err := parseFlexTime(b)
		if err != nil {
			return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
		}
		before = &t
	}

	ex, err := h.findExercise(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	unit, err := unitOrDefault(req.GetString("unit", ""), ex.DefaultWeightUnit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	records, err := h.ds.ListRecords(ctx, ex.ID, before)
	if err != nil {
		h.log.Error("mcp predict_next_sets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	preds := h.predictor.Predict(records, unit, sets)

	result, err := mcp.NewToolResultJSON(map[string]any{
		"exercise_id":      ex.ID,
		"exercise":         ex.Name,
		"unit":             unit,
		"sets":             sets,
		"based_on_records": len(records),
		"predictions":      predict.Sorted(preds),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}
	start, end, err := optionalRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	ex, err := h.findExercise(ctx, ref)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	unit, err := unitOrDefault(req.GetString("unit", ""), ex.DefaultWeightUnit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	records, err := h.ds.ListRecords(ctx, ex.ID, nil)
	if err != nil {
		h.log.Error("mcp get_progress", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	filtered := records[:0]
	for _, r := range records {
		if inRange(models.Day(r.Date), start, end) {
			filtered = append(filtered, r)
		}
	}
	out := progress.Daily(filtered, unit)

	result, err := mcp.NewToolResultJSON(map[string]any{
		"exercise": ex.Name,
		"unit":     unit,
		"days":     out,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// historyDay is one day of get_workout_history output.
type historyDay struct {
	Date      string         `json:"date"`
	Exercises []historyEntry `json:"exercises"`
}

type historyEntry struct {
	ExerciseID uuid.UUID          `json:"exercise_id"`
	Exercise   string             `json:"exercise"`
	Sets       []models.RecordSet `json:"sets"`
}

func (h *handlers) getWorkoutHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start, end, err := defaultTimeRange(req.GetString("start", ""), req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid date format: " + err.Error()), nil
	}

	records, err := h.ds.ListRecordsBetween(ctx, start, models.Day(end).AddDate(0, 0, 1))
	if err != nil {
		h.log.Error("mcp get_workout_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	exercises, err := h.ds.ListExercises(ctx, true)
	if err != nil {
		h.log.Error("mcp get_workout_history exercises", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	names := make(map[uuid.UUID]string, len(exercises))
	for _, e := range exercises {
		names[e.ID] = e.Name
	}

	// Records arrive newest first.
	days := []historyDay{}
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		date := models.Day(r.Date).Format("2006-01-02")
		if len(days) == 0 || days[len(days)-1].Date != date {
			days = append(days, historyDay{Date: date})
		}
		cur := &days[len(days)-1]
		cur.Exercises = append(cur.Exercises, historyEntry{
			ExerciseID: r.ExerciseID,
			Exercise:   names[r.ExerciseID],
			Sets:       r.Sets,
		})
	}

	result, err := mcp.NewToolResultJSON(days)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// findExercise resolves an ID or name. Exact name matches win; otherwise a
// single partial match is accepted.
func (h *handlers) findExercise(ctx context.Context, ref string) (*models.Exercise, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		ex, err := h.ds.GetExercise(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("no exercise with id %s", id)
		}
		return ex, err
	}

	exercises, err := h.ds.ListExercises(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("listing exercises: %w", err)
	}
	var partial []models.Exercise
	needle := strings.ToLower(ref)
	for _, e := range exercises {
		if strings.EqualFold(e.Name, ref) {
			return &e, nil
		}
		if strings.Contains(strings.ToLower(e.Name), needle) {
			partial = append(partial, e)
		}
	}
	switch len(partial) {
	case 0:
		return nil, fmt.Errorf("no exercise named %q", ref)
	case 1:
		return &partial[0], nil
	default:
		names := make([]string, len(partial))
		for i, e := range partial {
			names[i] = e.Name
		}
		return nil, fmt.Errorf("%q matches several exercises: %s", ref, strings.Join(names, ", "))
	}
}

func unitOrDefault(s string, fallback models.WeightUnit) (models.WeightUnit, error) {
	if s == "" {
		return fallback, nil
	}
	return models.ParseWeightUnit(s)
}
