package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/predict"
	"github.com/claude/liftlog/internal/storage"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
)

const testKey = "test-key"

var (
	benchID = uuid.MustParse("0a8a5dec-e7f9-405b-bd0e-9f4454b1c328")
	day0    = time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
)

// fakeStore is an in-memory Store.
type fakeStore struct {
	mu        sync.Mutex
	exercises map[uuid.UUID]models.Exercise
	records   map[uuid.UUID][]models.RecordHeader
	logs      []storage.ImportLog
}

func newFakeStore() *fakeStore {
	kg := func(set int, weight float64, reps int) models.RecordSet {
		return models.RecordSet{SetNumber: set, Weight: weight, Unit: models.Kilogram, Reps: reps}
	}
	return &fakeStore{
		exercises: map[uuid.UUID]models.Exercise{
			benchID: {ID: benchID, Name: "Bench Press", BodyPart: models.BodyPartChest, DefaultWeightUnit: models.Kilogram},
		},
		records: map[uuid.UUID][]models.RecordHeader{
			benchID: {
				{ID: uuid.New(), ExerciseID: benchID, Date: day0, Sets: []models.RecordSet{kg(1, 100, 5), kg(2, 90, 6)}},
				{ID: uuid.New(), ExerciseID: benchID, Date: day0.AddDate(0, 0, 1), Sets: []models.RecordSet{kg(1, 110, 4)}},
				{ID: uuid.New(), ExerciseID: benchID, Date: day0.AddDate(0, 0, 2), Sets: []models.RecordSet{kg(1, 120, 3)}},
			},
		},
	}
}

func (f *fakeStore) ListExercises(_ context.Context, includeArchived bool) ([]models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Exercise
	for _, ex := range f.exercises {
		if ex.IsArchived && !includeArchived {
			continue
		}
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetExercise(_ context.Context, id uuid.UUID) (*models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ex, ok := f.exercises[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &ex, nil
}

func (f *fakeStore) AddExercise(_ context.Context, e models.Exercise) (*models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exercises[e.ID] = e
	return &e, nil
}

func (f *fakeStore) UpdateExercise(_ context.Context, id uuid.UUID, name string, bp models.BodyPart) (*models.Exercise, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ex, ok := f.exercises[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	ex.Name, ex.BodyPart = name, bp
	f.exercises[id] = ex
	return &ex, nil
}

func (f *fakeStore) ArchiveExercise(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ex, ok := f.exercises[id]
	if !ok {
		return storage.ErrNotFound
	}
	ex.IsArchived = true
	f.exercises[id] = ex
	return nil
}

func (f *fakeStore) SaveRecord(_ context.Context, rec models.RecordHeader) (*models.RecordHeader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	day := models.Day(rec.Date)
	kept := f.records[rec.ExerciseID][:0:0]
	for _, r := range f.records[rec.ExerciseID] {
		if !r.Date.Equal(day) {
			kept = append(kept, r)
		}
	}
	if len(rec.Sets) == 0 {
		f.records[rec.ExerciseID] = kept
		return nil, nil
	}
	rec.ID = uuid.New()
	rec.Date = day
	f.records[rec.ExerciseID] = append(kept, rec)
	return &rec, nil
}

func (f *fakeStore) GetRecord(_ context.Context, exerciseID uuid.UUID, day time.Time) (*models.RecordHeader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records[exerciseID] {
		if r.Date.Equal(models.Day(day)) {
			return &r, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeStore) ListRecords(_ context.Context, exerciseID uuid.UUID, before *time.Time) ([]models.RecordHeader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RecordHeader
	for _, r := range f.records[exerciseID] {
		if before != nil && !r.Date.Before(*before) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (f *fakeStore) ListRecordsBetween(_ context.Context, start, end time.Time) ([]models.RecordHeader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RecordHeader
	for _, recs := range f.records {
		for _, r := range recs {
			if !r.Date.Before(start) && r.Date.Before(end) {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (f *fakeStore) InsertImportLog(_ context.Context, log storage.ImportLog) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	log.ID = int64(len(f.logs) + 1)
	f.logs = append(f.logs, log)
	return log.ID, nil
}

func (f *fakeStore) UpdateImportLog(_ context.Context, id int64, log storage.ImportLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id < 1 || int(id) > len(f.logs) {
		return storage.ErrNotFound
	}
	log.ID = id
	f.logs[id-1] = log
	return nil
}

func (f *fakeStore) QueryImportLogs(_ context.Context, limit int) ([]storage.ImportLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.logs) {
		limit = len(f.logs)
	}
	return f.logs[:limit], nil
}

func (f *fakeStore) GetDataStats(_ context.Context) (*storage.DataStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	stats := &storage.DataStats{}
	for _, ex := range f.exercises {
		if ex.IsArchived {
			stats.ArchivedExercises++
		} else {
			stats.Exercises++
		}
	}
	for _, recs := range f.records {
		for _, r := range recs {
			stats.TotalRecords++
			stats.TotalSets += int64(len(r.Sets))
		}
	}
	return stats, nil
}

// fakeIngester returns a fixed result, or err when set.
type fakeIngester struct {
	err error
}

func (f fakeIngester) Ingest(_ context.Context, r io.Reader) (*ingest.Result, error) {
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &ingest.Result{SessionsReceived: 2, RecordsSaved: 3, SetsSaved: 9}, nil
}

func newTestServer(t *testing.T, store *fakeStore, alpha Ingester) *Server {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, alpha, predict.New(3), 3, 20, testKey, log)
}

// do sends a request through the full router.
func do(t *testing.T, s *Server, method, path, body string, withKey bool) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if withKey {
		req.Header.Set("X-API-Key", testKey)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode error: %v (body %q)", err, rec.Body.String())
	}
	return v
}

// TestExerciseLifecycle verifies create, update, list and archive.
func TestExerciseLifecycle(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)

	rec := do(t, s, http.MethodPost, "/api/v1/exercises", `{"name":" Arm Curl ","body_part":"arms","default_weight_unit":"lbs"}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201 (%s)", rec.Code, rec.Body)
	}
	created := decode[models.Exercise](t, rec)
	if created.Name != "Arm Curl" || created.DefaultWeightUnit != models.Pound || created.IsPreset {
		t.Errorf("created = %+v, want trimmed user exercise in lb", created)
	}

	path := "/api/v1/exercises/" + created.ID.String()
	rec = do(t, s, http.MethodPut, path, `{"name":"Hammer Curl","body_part":"arms"}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200", rec.Code)
	}
	if got := decode[models.Exercise](t, rec).Name; got != "Hammer Curl" {
		t.Errorf("updated name = %q, want Hammer Curl", got)
	}

	if rec = do(t, s, http.MethodDelete, path, "", true); rec.Code != http.StatusNoContent {
		t.Fatalf("archive status = %d, want 204", rec.Code)
	}

	active := decode[[]models.Exercise](t, do(t, s, http.MethodGet, "/api/v1/exercises", "", false))
	if len(active) != 1 || active[0].ID != benchID {
		t.Errorf("active exercises = %+v, want only bench", active)
	}
	all := decode[[]models.Exercise](t, do(t, s, http.MethodGet, "/api/v1/exercises?archived=true", "", false))
	if len(all) != 2 {
		t.Errorf("all exercises = %d, want 2", len(all))
	}
}

// TestWritesRequireAPIKey verifies mutating routes are gated and reads are not.
func TestWritesRequireAPIKey(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)

	if rec := do(t, s, http.MethodPost, "/api/v1/exercises", `{"name":"X","body_part":"core"}`, false); rec.Code != http.StatusUnauthorized {
		t.Errorf("create without key = %d, want 401", rec.Code)
	}
	if rec := do(t, s, http.MethodPut, "/api/v1/exercises/"+benchID.String()+"/records/2026-01-10", `{"sets":[]}`, false); rec.Code != http.StatusUnauthorized {
		t.Errorf("save without key = %d, want 401", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/exercises/"+benchID.String(), "", false); rec.Code != http.StatusOK {
		t.Errorf("read without key = %d, want 200", rec.Code)
	}
}

// TestExerciseRequestErrors verifies bad input maps to 400 and unknown IDs to 404.
func TestExerciseRequestErrors(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)
	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"blank name", http.MethodPost, "/api/v1/exercises", `{"name":"  ","body_part":"arms"}`, http.StatusBadRequest},
		{"bad body part", http.MethodPost, "/api/v1/exercises", `{"name":"X","body_part":"neck"}`, http.StatusBadRequest},
		{"bad unit", http.MethodPost, "/api/v1/exercises", `{"name":"X","body_part":"arms","default_weight_unit":"stone"}`, http.StatusBadRequest},
		{"unknown field", http.MethodPost, "/api/v1/exercises", `{"name":"X","body_part":"arms","color":"red"}`, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/v1/exercises/not-a-uuid", "", http.StatusBadRequest},
		{"missing", http.MethodGet, "/api/v1/exercises/" + uuid.NewString(), "", http.StatusNotFound},
		{"archive missing", http.MethodDelete, "/api/v1/exercises/" + uuid.NewString(), "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, s, tt.method, tt.path, tt.body, true); rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

// TestSaveRecordRoundTrip verifies a saved day can be read back and that an
// empty set list deletes it.
func TestSaveRecordRoundTrip(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)
	path := "/api/v1/exercises/" + benchID.String() + "/records/2026-01-10"

	rec := do(t, s, http.MethodPut, path, `{"sets":[{"weight":125,"reps":3},{"weight":100,"unit":"lb","reps":8,"memo":"back-off"}]}`, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("save status = %d, want 200 (%s)", rec.Code, rec.Body)
	}

	got := decode[models.RecordHeader](t, do(t, s, http.MethodGet, path, "", false))
	want := []models.RecordSet{
		{SetNumber: 1, Weight: 125, Unit: models.Kilogram, Reps: 3},
		{SetNumber: 2, Weight: 100, Unit: models.Pound, Reps: 8, Memo: "back-off"},
	}
	if diff := cmp.Diff(want, got.Sets); diff != "" {
		t.Errorf("saved sets mismatch (-want +got):\n%s", diff)
	}

	if rec = do(t, s, http.MethodPut, path, `{"sets":[]}`, true); rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}
	if rec = do(t, s, http.MethodGet, path, "", false); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
}

// TestSaveRecordValidation verifies invalid sets and dates are rejected.
func TestSaveRecordValidation(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)
	base := "/api/v1/exercises/" + benchID.String() + "/records/"
	tests := []struct {
		name string
		date string
		body string
	}{
		{"bad date", "10-01-2026", `{"sets":[]}`},
		{"negative reps", "2026-01-10", `{"sets":[{"weight":100,"reps":-1}]}`},
		{"duplicate set", "2026-01-10", `{"sets":[{"set_number":1,"weight":100,"reps":5},{"set_number":1,"weight":90,"reps":5}]}`},
		{"bad unit", "2026-01-10", `{"sets":[{"weight":100,"unit":"st","reps":5}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, s, http.MethodPut, base+tt.date, tt.body, true); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (%s)", rec.Code, rec.Body)
			}
		})
	}
}

// TestListRecordsBefore verifies records come newest first and ?before
// excludes that day and later.
func TestListRecordsBefore(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)
	path := "/api/v1/exercises/" + benchID.String() + "/records"

	all := decode[[]models.RecordHeader](t, do(t, s, http.MethodGet, path, "", false))
	if len(all) != 3 || !all[0].Date.Equal(day0.AddDate(0, 0, 2)) {
		t.Errorf("records = %+v, want 3 newest first", all)
	}
	older := decode[[]models.RecordHeader](t, do(t, s, http.MethodGet, path+"?before=2026-01-06", "", false))
	if len(older) != 1 || !older[0].Date.Equal(day0) {
		t.Errorf("records before 01-06 = %+v, want only 01-05", older)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/exercises/"+uuid.NewString()+"/records", "", false); rec.Code != http.StatusNotFound {
		t.Errorf("unknown exercise = %d, want 404", rec.Code)
	}
}

// TestPredictions verifies the trend-adjusted forecast through the API.
func TestPredictions(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)
	rec := do(t, s, http.MethodGet, "/api/v1/exercises/"+benchID.String()+"/predictions", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	out := decode[predictionResponse](t, rec)
	if out.Sets != 3 || out.Unit != models.Kilogram || out.BasedOnRecords != 3 {
		t.Errorf("response = %+v, want 3 kg sets from 3 records", out)
	}
	wantWeights := []float64{100, 90, 80}
	wantReps := []int{5, 6, 7}
	if len(out.Predictions) != 3 {
		t.Fatalf("predictions = %d, want 3", len(out.Predictions))
	}
	for i, p := range out.Predictions {
		if p.Weight == nil || *p.Weight != wantWeights[i] {
			t.Errorf("set %d weight = %v, want %v", p.SetNumber, p.Weight, wantWeights[i])
		}
		if p.Reps == nil || *p.Reps != wantReps[i] {
			t.Errorf("set %d reps = %v, want %v", p.SetNumber, p.Reps, wantReps[i])
		}
	}
}

// TestPredictionsOtherUnit verifies sets logged in another unit are ignored.
func TestPredictionsOtherUnit(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)
	rec := do(t, s, http.MethodGet, "/api/v1/exercises/"+benchID.String()+"/predictions?unit=lb&sets=2", "", false)
	out := decode[predictionResponse](t, rec)
	if len(out.Predictions) != 0 {
		t.Errorf("predictions = %+v, want none", out.Predictions)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/exercises/"+benchID.String()+"/predictions?sets=0", "", false); rec.Code != http.StatusBadRequest {
		t.Errorf("sets=0 status = %d, want 400", rec.Code)
	}
}

// TestPredictionsSetLimit verifies set counts above the configured maximum
// are rejected before any prediction work is done.
func TestPredictionsSetLimit(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)
	path := "/api/v1/exercises/" + benchID.String() + "/predictions"

	tests := []struct {
		query string
		want  int
	}{
		{"?sets=20", http.StatusOK},
		{"?sets=21", http.StatusBadRequest},
		{"?sets=2000000", http.StatusBadRequest},
		{"?sets=-1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, path+tt.query, "", false)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
			if tt.want == http.StatusBadRequest && !strings.Contains(rec.Body.String(), "between 1 and 20") {
				t.Errorf("body = %s, want the limit named", rec.Body)
			}
		})
	}
}

// TestPrefillSetLimit verifies draft lists and set numbers above the
// configured maximum are rejected.
func TestPrefillSetLimit(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)
	path := "/api/v1/exercises/" + benchID.String() + "/prefill"

	tooMany := "[" + strings.TrimSuffix(strings.Repeat("{},", 21), ",") + "]"
	tests := []struct {
		name string
		body string
		want int
	}{
		{"last allowed set", `{"sets":[{"set_number":20}]}`, http.StatusOK},
		{"set number above limit", `{"sets":[{"set_number":21}]}`, http.StatusBadRequest},
		{"huge set number", `{"sets":[{"set_number":2000000000}]}`, http.StatusBadRequest},
		{"too many drafts", `{"sets":` + tooMany + `}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, path, tt.body, false)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

// TestPrefill verifies blank draft fields are filled and entered values kept.
func TestPrefill(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)
	rec := do(t, s, http.MethodPost, "/api/v1/exercises/"+benchID.String()+"/prefill",
		`{"sets":[{"set_number":1,"weight":105},{"set_number":2}]}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body)
	}
	out := decode[prefillResponse](t, rec)
	if len(out.Sets) != 2 {
		t.Fatalf("sets = %d, want 2", len(out.Sets))
	}
	first, second := out.Sets[0], out.Sets[1]
	if *first.Weight != 105 || *first.Reps != 5 {
		t.Errorf("set 1 = %v x %v, want 105 x 5", *first.Weight, *first.Reps)
	}
	if *second.Weight != 90 || *second.Reps != 6 {
		t.Errorf("set 2 = %v x %v, want 90 x 6", *second.Weight, *second.Reps)
	}
}

// TestPrefillDefaultsAndDate verifies an empty draft list uses the default
// set count and date limits the history to earlier days.
func TestPrefillDefaultsAndDate(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)
	rec := do(t, s, http.MethodPost, "/api/v1/exercises/"+benchID.String()+"/prefill", `{"date":"2026-01-06"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body)
	}
	out := decode[prefillResponse](t, rec)
	if len(out.Sets) != 3 {
		t.Fatalf("sets = %d, want 3", len(out.Sets))
	}
	// Only the 01-05 record counts: 100x5, 90x6, then 80x7 by delta.
	wantWeights := []float64{100, 90, 80}
	for i, d := range out.Sets {
		if d.SetNumber != i+1 || d.Weight == nil || *d.Weight != wantWeights[i] {
			t.Errorf("set %d = %+v, want weight %v", i+1, d, wantWeights[i])
		}
	}
}

// TestProgress verifies per-day metrics come back in date order.
func TestProgress(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)
	rec := do(t, s, http.MethodGet, "/api/v1/exercises/"+benchID.String()+"/progress", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	days := decode[[]map[string]any](t, rec)
	if len(days) != 3 {
		t.Fatalf("days = %d, want 3", len(days))
	}
	if days[0]["date"] != "2026-01-05" || days[0]["total_load"] != float64(1040) {
		t.Errorf("first day = %v, want 2026-01-05 with load 1040", days[0])
	}
}

// TestRecordHistoryRange verifies /records honors start and end dates.
func TestRecordHistoryRange(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)
	out := decode[[]models.RecordHeader](t, do(t, s, http.MethodGet, "/api/v1/records?start=2026-01-06&end=2026-01-07", "", false))
	if len(out) != 2 {
		t.Errorf("records = %d, want 2 (end date inclusive)", len(out))
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/records?start=2026-01-08&end=2026-01-01", "", false); rec.Code != http.StatusBadRequest {
		t.Errorf("inverted range = %d, want 400", rec.Code)
	}
}

// TestAlphaIngest verifies uploads are ingested and logged, and that a
// failed import is logged with its error.
func TestAlphaIngest(t *testing.T) {
	store := newFakeStore()
	s := newTestServer(t, store, fakeIngester{})
	rec := do(t, s, http.MethodPost, "/api/v1/ingest/alpha", "csv body", true)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decode[ingest.Result](t, rec); got.RecordsSaved != 3 {
		t.Errorf("records saved = %d, want 3", got.RecordsSaved)
	}

	s = newTestServer(t, store, fakeIngester{err: errors.New("bad header")})
	if rec = do(t, s, http.MethodPost, "/api/v1/ingest/alpha", "csv body", true); rec.Code != http.StatusBadRequest {
		t.Errorf("failed ingest status = %d, want 400", rec.Code)
	}

	logs := decode[[]storage.ImportLog](t, do(t, s, http.MethodGet, "/api/v1/imports", "", false))
	if len(logs) != 2 {
		t.Fatalf("import logs = %d, want 2", len(logs))
	}
	if logs[0].Status != "success" || logs[0].SetsSaved != 9 {
		t.Errorf("first log = %+v, want success with 9 sets", logs[0])
	}
	if logs[1].Status != "error" || logs[1].ErrorMessage == nil || *logs[1].ErrorMessage != "bad header" {
		t.Errorf("second log = %+v, want error 'bad header'", logs[1])
	}
}

// TestAlphaIngestNotConfigured verifies a server without a provider answers 503.
func TestAlphaIngestNotConfigured(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)
	if rec := do(t, s, http.MethodPost, "/api/v1/ingest/alpha", "x", true); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

// TestStats verifies aggregate counts are served.
func TestStats(t *testing.T) {
	s := newTestServer(t, newFakeStore(), nil)
	rec := do(t, s, http.MethodGet, "/api/v1/stats", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decode[storage.DataStats](t, rec)
	if got.Exercises != 1 || got.TotalRecords != 3 || got.TotalSets != 4 {
		t.Errorf("stats = %+v, want 1 exercise, 3 records, 4 sets", got)
	}
	if got.RecordsByBodyPart == nil {
		t.Error("records_by_body_part = null, want []")
	}
}
