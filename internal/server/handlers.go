package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps storage errors to 404 or 500.
func (s *Server) writeStoreError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, what+" not found")
		return
	}
	s.log.Error("store error", "what", what, "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func exerciseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid exercise ID")
		return uuid.Nil, false
	}
	return id, true
}

// parseDay parses a YYYY-MM-DD calendar day in UTC.
func parseDay(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// parseTimeRange reads start/end query parameters as RFC 3339 or plain
// dates. A date-only end covers that whole day. Defaults to the last 30 days.
func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if endStr == "" {
		end = time.Now()
	} else if end, err = time.Parse(time.RFC3339, endStr); err != nil {
		if end, err = parseDay(endStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = end.AddDate(0, 0, 1)
	}

	if startStr == "" {
		start = end.AddDate(0, 0, -30)
	} else if start, err = time.Parse(time.RFC3339, startStr); err != nil {
		if start, err = parseDay(startStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("start must be before end")
	}
	return start, end, nil
}

// unitParam reads ?unit=, falling back to the exercise's default unit.
func unitParam(r *http.Request, fallback models.WeightUnit) (models.WeightUnit, error) {
	raw := r.URL.Query().Get("unit")
	if raw == "" {
		return fallback, nil
	}
	return models.ParseWeightUnit(raw)
}

// --- Exercises ---

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	archived, _ := strconv.ParseBool(r.URL.Query().Get("archived"))
	exercises, err := s.db.ListExercises(r.Context(), archived)
	if err != nil {
		s.writeStoreError(w, err, "exercises")
		return
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleGetExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := exerciseIDParam(w, r)
	if !ok {
		return
	}
	ex, err := s.db.GetExercise(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "exercise")
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

// exerciseRequest is the body of exercise create and update calls.
type exerciseRequest struct {
	Name              string `json:"name"`
	BodyPart          string `json:"body_part"`
	DefaultWeightUnit string `json:"default_weight_unit"`
}

func (req exerciseRequest) parse() (string, models.BodyPart, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", "", fmt.Errorf("name is required")
	}
	bp := models.BodyPart(req.BodyPart)
	if !bp.Valid() {
		return "", "", fmt.Errorf("unknown body part %q", req.BodyPart)
	}
	return name, bp, nil
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var req exerciseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name, bp, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	unit := models.Kilogram
	if req.DefaultWeightUnit != "" {
		if unit, err = models.ParseWeightUnit(req.DefaultWeightUnit); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	ex, err := s.db.AddExercise(r.Context(), models.NewUserExercise(name, bp, unit))
	if err != nil {
		s.writeStoreError(w, err, "exercise")
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := exerciseIDParam(w, r)
	if !ok {
		return
	}
	var req exerciseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	name, bp, err := req.parse()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	ex, err := s.db.UpdateExercise(r.Context(), id, name, bp)
	if err != nil {
		s.writeStoreError(w, err, "exercise")
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (s *Server) handleArchiveExercise(w http.ResponseWriter, r *http.Request) {
	id, ok := exerciseIDParam(w, r)
	if !ok {
		return
	}
	if err := s.db.ArchiveExercise(r.Context(), id); err != nil {
		s.writeStoreError(w, err, "exercise")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Imports ---

func (s *Server) handleAlphaIngest(w http.ResponseWriter, r *http.Request) {
	if s.alpha == nil {
		writeError(w, http.StatusServiceUnavailable, "alpha import is not configured")
		return
	}
	start := time.Now()
	logID := s.startImportLog(r, "alpha:upload")
	result, err := s.alpha.Ingest(r.Context(), http.MaxBytesReader(w, r.Body, 32*maxBodyBytes))
	s.finishImportLog(r, logID, "alpha:upload", result, err, time.Since(start))
	if err != nil {
		s.log.Error("alpha ingest error", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleImportLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := s.db.QueryImportLogs(r.Context(), limit)
	if err != nil {
		s.writeStoreError(w, err, "import logs")
		return
	}
	if logs == nil {
		logs = []storage.ImportLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// startImportLog inserts a "running" import log row. Returns 0 when the row
// could not be written; the import still proceeds.
func (s *Server) startImportLog(r *http.Request, source string) int64 {
	id, err := s.db.InsertImportLog(r.Context(), storage.ImportLog{Source: source, Status: "running"})
	if err != nil {
		s.log.Error("failed to log import", "source", source, "error", err)
		return 0
	}
	return id
}

// finishImportLog records an import's outcome on its log row.
func (s *Server) finishImportLog(r *http.Request, id int64, source string, result *ingest.Result, importErr error, elapsed time.Duration) {
	if id == 0 {
		return
	}
	entry := storage.ImportLog{Source: source, Status: "success"}
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

	if err := s.db.UpdateImportLog(r.Context(), id, entry); err != nil {
		s.log.Error("failed to update import log", "id", id, "error", err)
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.db.GetDataStats(r.Context())
	if err != nil {
		s.writeStoreError(w, err, "stats")
		return
	}
	if stats.RecordsByBodyPart == nil {
		stats.RecordsByBodyPart = []storage.BodyPartStat{}
	}
	writeJSON(w, http.StatusOK, stats)
}
