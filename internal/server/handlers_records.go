package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/predict"
	"github.com/claude/liftlog/internal/progress"
	"github.com/go-chi/chi/v5"
)

// exerciseFromPath loads the {id} exercise, writing the error response on failure.
func (s *Server) exerciseFromPath(w http.ResponseWriter, r *http.Request) (*models.Exercise, bool) {
	id, ok := exerciseIDParam(w, r)
	if !ok {
		return nil, false
	}
	ex, err := s.db.GetExercise(r.Context(), id)
	if err != nil {
		s.writeStoreError(w, err, "exercise")
		return nil, false
	}
	return ex, true
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.exerciseFromPath(w, r)
	if !ok {
		return
	}
	var before *time.Time
	if b := r.URL.Query().Get("before"); b != "" {
		day, err := parseDay(b)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		before = &day
	}
	records, err := s.db.ListRecords(r.Context(), ex.ID, before)
	if err != nil {
		s.writeStoreError(w, err, "records")
		return
	}
	if records == nil {
		records = []models.RecordHeader{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := exerciseIDParam(w, r)
	if !ok {
		return
	}
	day, err := parseDay(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := s.db.GetRecord(r.Context(), id, day)
	if err != nil {
		s.writeStoreError(w, err, "record")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// recordRequest is the body of PUT /exercises/{id}/records/{date}.
type recordRequest struct {
	Sets []setRequest `json:"sets"`
}

type setRequest struct {
	SetNumber int     `json:"set_number"`
	Weight    float64 `json:"weight"`
	Unit      string  `json:"unit"`
	Reps      int     `json:"reps"`
	Memo      string  `json:"memo"`
}

// handleSaveRecord replaces the day's sets. An empty set list deletes the
// day's record and answers 204.
func (s *Server) handleSaveRecord(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.exerciseFromPath(w, r)
	if !ok {
		return
	}
	day, err := parseDay(chi.URLParam(r, "date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req recordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec := models.RecordHeader{ExerciseID: ex.ID, Date: day, Sets: make([]models.RecordSet, 0, len(req.Sets))}
	for i, in := range req.Sets {
		set := models.RecordSet{
			SetNumber: in.SetNumber,
			Weight:    in.Weight,
			Unit:      ex.DefaultWeightUnit,
			Reps:      in.Reps,
			Memo:      in.Memo,
		}
		if set.SetNumber == 0 {
			set.SetNumber = i + 1
		}
		if in.Unit != "" {
			if set.Unit, err = models.ParseWeightUnit(in.Unit); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		rec.Sets = append(rec.Sets, set)
	}
	if err := rec.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	saved, err := s.db.SaveRecord(r.Context(), rec)
	if err != nil {
		s.writeStoreError(w, err, "record")
		return
	}
	if saved == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleRecordHistory(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := s.db.ListRecordsBetween(r.Context(), start, end)
	if err != nil {
		s.writeStoreError(w, err, "records")
		return
	}
	if records == nil {
		records = []models.RecordHeader{}
	}
	writeJSON(w, http.StatusOK, records)
}

// predictionResponse is returned by the predictions endpoint.
type predictionResponse struct {
	ExerciseID     string               `json:"exercise_id"`
	Unit           models.WeightUnit    `json:"unit"`
	Sets           int                  `json:"sets"`
	BasedOnRecords int                  `json:"based_on_records"`
	Predictions    []predict.Prediction `json:"predictions"`
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.exerciseFromPath(w, r)
	if !ok {
		return
	}
	unit, err := unitParam(r, ex.DefaultWeightUnit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sets := s.defaultSets
	if v := r.URL.Query().Get("sets"); v != "" {
		if sets, err = strconv.Atoi(v); err != nil || sets < 1 || sets > s.maxSets {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("sets must be between 1 and %d", s.maxSets))
			return
		}
	}
	var before *time.Time
	if b := r.URL.Query().Get("before"); b != "" {
		day, err := parseDay(b)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		before = &day
	}

	records, err := s.db.ListRecords(r.Context(), ex.ID, before)
	if err != nil {
		s.writeStoreError(w, err, "records")
		return
	}
	preds := s.predictor.Predict(records, unit, sets)
	writeJSON(w, http.StatusOK, predictionResponse{
		ExerciseID:     ex.ID.String(),
		Unit:           unit,
		Sets:           sets,
		BasedOnRecords: len(records),
		Predictions:    predict.Sorted(preds),
	})
}

// prefillRequest is the body of POST /exercises/{id}/prefill. Date is the
// day being entered; only records before it are used.
type prefillRequest struct {
	Unit string             `json:"unit"`
	Date string             `json:"date"`
	Sets []predict.DraftSet `json:"sets"`
}

type prefillResponse struct {
	Unit models.WeightUnit  `json:"unit"`
	Sets []predict.DraftSet `json:"sets"`
}

// handlePrefill fills blank weight and reps of draft sets from predictions.
// With no drafts, the default number of empty sets is filled.
func (s *Server) handlePrefill(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.exerciseFromPath(w, r)
	if !ok {
		return
	}
	var req prefillRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	unit := ex.DefaultWeightUnit
	if req.Unit != "" {
		var err error
		if unit, err = models.ParseWeightUnit(req.Unit); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	var before *time.Time
	if req.Date != "" {
		day, err := parseDay(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		before = &day
	}

	drafts := req.Sets
	if len(drafts) == 0 {
		drafts = make([]predict.DraftSet, s.defaultSets)
	}
	if len(drafts) > s.maxSets {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("at most %d sets can be prefilled", s.maxSets))
		return
	}
	maxSet := len(drafts)
	for _, d := range drafts {
		if d.SetNumber > s.maxSets {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("set_number must be at most %d", s.maxSets))
			return
		}
		maxSet = max(maxSet, d.SetNumber)
	}

	records, err := s.db.ListRecords(r.Context(), ex.ID, before)
	if err != nil {
		s.writeStoreError(w, err, "records")
		return
	}
	preds := s.predictor.Predict(records, unit, maxSet)
	writeJSON(w, http.StatusOK, prefillResponse{Unit: unit, Sets: predict.Prefill(drafts, preds)})
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	ex, ok := s.exerciseFromPath(w, r)
	if !ok {
		return
	}
	unit, err := unitParam(r, ex.DefaultWeightUnit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := s.db.ListRecords(r.Context(), ex.ID, nil)
	if err != nil {
		s.writeStoreError(w, err, "records")
		return
	}
	writeJSON(w, http.StatusOK, progress.Daily(records, unit))
}
