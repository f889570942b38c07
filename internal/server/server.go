package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/liftlog/internal/ingest"
	"github.com/claude/liftlog/internal/models"
	"github.com/claude/liftlog/internal/predict"
	"github.com/claude/liftlog/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Store is the persistence surface used by the handlers.
// *storage.DB satisfies it.
type Store interface {
	ListExercises(ctx context.Context, includeArchived bool) ([]models.Exercise, error)
	GetExercise(ctx context.Context, id uuid.UUID) (*models.Exercise, error)
	AddExercise(ctx context.Context, e models.Exercise) (*models.Exercise, error)
	UpdateExercise(ctx context.Context, id uuid.UUID, name string, bodyPart models.BodyPart) (*models.Exercise, error)
	ArchiveExercise(ctx context.Context, id uuid.UUID) error

	SaveRecord(ctx context.Context, rec models.RecordHeader) (*models.RecordHeader, error)
	GetRecord(ctx context.Context, exerciseID uuid.UUID, day time.Time) (*models.RecordHeader, error)
	ListRecords(ctx context.Context, exerciseID uuid.UUID, before *time.Time) ([]models.RecordHeader, error)
	ListRecordsBetween(ctx context.Context, start, end time.Time) ([]models.RecordHeader, error)

	InsertImportLog(ctx context.Context, log storage.ImportLog) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, log storage.ImportLog) error
	QueryImportLogs(ctx context.Context, limit int) ([]storage.ImportLog, error)

	GetDataStats(ctx context.Context) (*storage.DataStats, error)
}

var _ Store = (*storage.DB)(nil)

// Ingester consumes an uploaded export. *alpha.Provider satisfies it.
type Ingester interface {
	Ingest(ctx context.Context, r io.Reader) (*ingest.Result, error)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	db          Store
	alpha       Ingester
	predictor   *predict.Predictor
	defaultSets int
	maxSets     int
	log         *slog.Logger
	apiKey      string
	router      chi.Router
}

// New creates a new Server with all routes configured. defaultSets is the
// prediction count used when a request does not pass one; maxSets bounds
// the requested count and every draft set number.
func New(db Store, alphaProvider Ingester, predictor *predict.Predictor, defaultSets, maxSets int, apiKey string, log *slog.Logger) *Server {
	if defaultSets <= 0 {
		defaultSets = 3
	}
	if maxSets <= 0 {
		maxSets = 20
	}
	maxSets = max(maxSets, defaultSets)
	s := &Server{
		db:          db,
		alpha:       alphaProvider,
		predictor:   predictor,
		defaultSets: defaultSets,
		maxSets:     maxSets,
		log:         log,
		apiKey:      apiKey,
		router:      chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// MountMCP serves an MCP endpoint at /mcp. The endpoint requires the API key.
func (s *Server) MountMCP(h http.Handler) {
	s.router.With(APIKeyAuth(s.apiKey)).Handle("/mcp", h)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Reads and prefill are open; tsnet handles access.
		r.Get("/exercises", s.handleListExercises)
		r.Get("/exercises/{id}", s.handleGetExercise)
		r.Get("/exercises/{id}/records", s.handleListRecords)
		r.Get("/exercises/{id}/records/{date}", s.handleGetRecord)
		r.Get("/exercises/{id}/predictions", s.handlePredictions)
		r.Get("/exercises/{id}/progress", s.handleProgress)
		r.Get("/records", s.handleRecordHistory)
		r.Get("/imports", s.handleImportLogs)
		r.Get("/stats", s.handleStats)
		r.Post("/exercises/{id}/prefill", s.handlePrefill)

		r.Group(func(r chi.Router) {
			r.Use(APIKeyAuth(s.apiKey))
			r.Post("/exercises", s.handleCreateExercise)
			r.Put("/exercises/{id}", s.handleUpdateExercise)
			r.Delete("/exercises/{id}", s.handleArchiveExercise)
			r.Put("/exercises/{id}/records/{date}", s.handleSaveRecord)
			r.Post("/ingest/alpha", s.handleAlphaIngest)
		})
	})
}
