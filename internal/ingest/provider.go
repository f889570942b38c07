package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	SessionsReceived int `json:"sessions_received"`
	RecordsSaved     int `json:"records_saved"`
	SetsSaved        int `json:"sets_saved"`
	WarmupsSkipped   int `json:"warmups_skipped"`
	ExercisesCreated int `json:"exercises_created"`

	CreatedExercises []string `json:"created_exercises,omitempty"`

	Message string `json:"message,omitempty"`
}

// Add accumulates other into r.
func (r *Result) Add(other *Result) {
	if other == nil {
		return
	}
	r.SessionsReceived += other.SessionsReceived
	r.RecordsSaved += other.RecordsSaved
	r.SetsSaved += other.SetsSaved
	r.WarmupsSkipped += other.WarmupsSkipped
	r.ExercisesCreated += other.ExercisesCreated
	r.CreatedExercises = append(r.CreatedExercises, other.CreatedExercises...)
}
