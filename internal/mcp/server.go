package mcp

import (
	"log/slog"

	"github.com/claude/liftlog/internal/predict"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
// defaultSets is the number of sets predicted when a caller does not ask
// for a specific count, and maxSets is the largest count a caller may ask for.
func New(ds DataSource, predictor *predict.Predictor, defaultSets, maxSets int, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog strength training log. List exercises, read workout records, and predict weight and reps for the next workout from past records."),
	)

	if defaultSets <= 0 {
		defaultSets = 3
	}
	if maxSets <= 0 {
		maxSets = 20
	}
	h := &handlers{ds: ds, predictor: predictor, defaultSets: defaultSets, maxSets: max(maxSets, defaultSets), log: log}

	s.AddTools(
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetExerciseRecords, Handler: h.getExerciseRecords},
		server.ServerTool{Tool: toolPredictNextSets, Handler: h.predictNextSets},
		server.ServerTool{Tool: toolGetProgress, Handler: h.getProgress},
		server.ServerTool{Tool: toolGetWorkoutHistory, Handler: h.getWorkoutHistory},
	)

	s.AddResources(
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	ds          DataSource
	predictor   *predict.Predictor
	defaultSets int
	maxSets     int
	log         *slog.Logger
}

var resExerciseCatalog = mcp.NewResource(
	"liftlog://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("All active exercises with body part, default weight unit and preset flag"),
	mcp.WithMIMEType("application/json"),
)
