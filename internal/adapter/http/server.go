package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/crash-data-dashboard/internal/domain"
	"github.com/couchcryptid/crash-data-dashboard/internal/model"
	"github.com/couchcryptid/crash-data-dashboard/internal/observability"
	"github.com/couchcryptid/crash-data-dashboard/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DatasetService serves the loaded dataset and its filtered views.
type DatasetService interface {
	sharedobs.ReadinessChecker
	Status() pipeline.Status
	View(ctx context.Context, params domain.FilterParams) (*pipeline.View, error)
	Overview(ctx context.Context) (domain.Summary, error)
	WeatherConditions(ctx context.Context) ([]string, error)
	RoadConditions(ctx context.Context, f domain.RoadFilter) (pipeline.RoadReport, error)
}

// MapSource returns the pre-rendered hotspot map.
type MapSource interface {
	HTML() ([]byte, error)
}

// ModelSource resolves classifiers by name.
type ModelSource interface {
	Get(name string) (*model.Classifier, error)
	Names() ([]string, error)
}

// Deps are the backends the API reads from.
type Deps struct {
	Dataset DatasetService
	Map     MapSource
	Models  ModelSource
	Metrics *observability.Metrics
}

// Server exposes the dashboard API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	deps       Deps
	logger     *slog.Logger
}

// NewServer creates an HTTP server with every dashboard route registered.
func NewServer(addr string, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       10 * time.Second,
			// Requests may wait for the initial dataset load.
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(deps.Dataset))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/weather-conditions", s.handleWeatherConditions)
	mux.HandleFunc("GET /api/v1/summary", s.handleSummary)
	mux.HandleFunc("GET /api/v1/records", s.handleRecords)
	mux.HandleFunc("GET /api/v1/overview", s.handleOverview)
	mux.HandleFunc("GET /api/v1/road-conditions", s.handleRoadConditions)
	mux.HandleFunc("GET /map", s.handleMap)
	mux.HandleFunc("GET /api/v1/models", s.handleListModels)
	mux.HandleFunc("GET /api/v1/models/{name}", s.handleModel)
	mux.HandleFunc("POST /api/v1/models/{name}/predict", s.handlePredict)
	mux.HandleFunc("POST /api/v1/risk/assess", s.handleRiskAssess)

	s.httpServer.Handler = withRequestLogging(mux, logger)
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
