// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	service "github.com/okian/radrate/internal/app"
	"github.com/okian/radrate/internal/domain/model"
	"github.com/okian/radrate/internal/domain/stats"
	"github.com/okian/radrate/pkg/logger"
)

// DefaultMaxUploadBytes caps dataset uploads unless overridden.
const DefaultMaxUploadBytes int64 = 32 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	DatasetDependencies
	SessionDependencies
	RatingDependencies
	ExportDependencies
	StatsProvider
}

// DatasetDependencies covers dataset upload and browsing.
type DatasetDependencies interface {
	LoadDataset(ctx context.Context, r io.Reader) ([]model.Report, error)
	Reports(ctx context.Context) []model.Report
	View(ctx context.Context, userID string, idx int) (service.View, error)
}

// SessionDependencies covers login state.
type SessionDependencies interface {
	Login(ctx context.Context, name, email string) (model.User, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (model.User, bool)
	Users(ctx context.Context) []model.User
	ResumeIndex(ctx context.Context, userID string) int
}

// RatingDependencies covers reading and writing scores.
type RatingDependencies interface {
	Ratings(ctx context.Context, userID string) []model.ImageRating
	SaveImageRating(ctx context.Context, userID string, idx int, ratings []model.ModelRating) (model.ImageRating, error)
	RateDimension(ctx context.Context, userID string, idx, modelIndex int, dimension string, value float64) (model.ImageRating, error)
}

// ExportDependencies covers CSV downloads.
type ExportDependencies interface {
	Export(ctx context.Context, userID string) (service.Export, error)
	ExportBatch(ctx context.Context, userID string) (service.Export, error)
}

// StatsProvider exposes completion figures.
type StatsProvider interface {
	Stats(ctx context.Context) stats.Stats
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithMaxUploadBytes caps the size of dataset uploads.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithLogger sets the logger used for unexpected handler failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server wires HTTP routes for the business API.
type Server struct {
	maxUploadBytes int64
	logger         logger.Logger

	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	datasetHandler *DatasetHandler
	sessionHandler *SessionHandler
	ratingsHandler *RatingsHandler
	exportHandler  *ExportHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		maxUploadBytes: DefaultMaxUploadBytes,
		logger:         logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.healthHandler = NewHealthHandler()
	s.statsHandler = NewStatsHandler(deps)
	s.datasetHandler = NewDatasetHandler(deps, s.maxUploadBytes)
	s.sessionHandler = NewSessionHandler(deps)
	s.ratingsHandler = NewRatingsHandler(deps)
	s.exportHandler = NewExportHandler(deps)
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	s.logger.Debug(ctx, "registering api routes")

	handle := func(pattern, endpoint string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}

	handle("GET /healthz", "healthz", s.healthHandler.HandleHealth)

	handle("POST /dataset", "dataset", AdminOnly(s.datasetHandler.HandleUpload))
	handle("GET /reports", "reports", s.datasetHandler.HandleList)
	handle("GET /reports/{idx}", "report", s.datasetHandler.HandleView)

	handle("POST /login", "login", s.sessionHandler.HandleLogin)
	handle("POST /logout", "logout", s.sessionHandler.HandleLogout)
	handle("GET /session", "session", s.sessionHandler.HandleSession)
	handle("GET /users", "users", AdminOnly(s.sessionHandler.HandleUsers))

	handle("GET /ratings/{userID}", "ratings", s.ratingsHandler.HandleList)
	handle("PUT /ratings/{userID}/{idx}", "rating", s.ratingsHandler.HandleSave)
	handle("PATCH /ratings/{userID}/{idx}/models/{model}", "rating_dimension", s.ratingsHandler.HandleDimension)

	handle("GET /export/{userID}", "export", s.exportHandler.HandleExport)
	handle("GET /export/{userID}/batch", "export_batch", s.exportHandler.HandleBatch)

	handle("GET /stats", "stats", AdminOnly(s.statsHandler.HandleStats))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure picks the status and code for err.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeError(w, status, code, err)
}
