// Package handler implements the HTTP handlers of the metric API.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/ingest"
	"go-metric-engine/internal/logfields"
	"go-metric-engine/internal/logger"
	"go-metric-engine/internal/model"
	"go-metric-engine/internal/pipeline"
	"go-metric-engine/internal/store"
)

// Store is the persistence the handlers need.
type Store interface {
	SaveRecords(ctx context.Context, records []model.Record) (int, error)
	ListRecords(ctx context.Context, limit int) ([]model.Record, error)
	CountRecords(ctx context.Context) (int, error)
	DeleteRecord(ctx context.Context, id string) error
	SaveDashboard(ctx context.Context, set *model.DeclarationSet) error
	GetDashboard(ctx context.Context, name string) (*model.DeclarationSet, error)
	ListDashboards(ctx context.Context) ([]store.DashboardInfo, error)
}

// Handler serves the API. Each compute request runs its own engine invocation.
type Handler struct {
	store    Store
	loader   *ingest.Loader
	engine   []pipeline.Option
	rules    *model.ValidationRules
	fallback func() (*model.DeclarationSet, error)
	maxBody  int64
	logger   *slog.Logger
}

// DefaultMaxBodyBytes bounds a posted compute or ingest body.
const DefaultMaxBodyBytes = 32 << 20

// Config wires a Handler.
type Config struct {
	Store         Store
	Loader        *ingest.Loader
	EngineOptions []pipeline.Option
	Validation    *model.ValidationRules
	// DefaultDashboard is served when a requested dashboard is not stored and the name matches.
	DefaultDashboard func() (*model.DeclarationSet, error)
	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
	Logger       *slog.Logger
}

func New(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loader := cfg.Loader
	if loader == nil {
		loader = ingest.NewLoader(ingest.WithLogger(logger))
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}
	return &Handler{
		store:    cfg.Store,
		loader:   loader,
		engine:   append([]pipeline.Option{pipeline.WithLogger(logger)}, cfg.EngineOptions...),
		rules:    cfg.Validation,
		fallback: cfg.DefaultDashboard,
		maxBody:  maxBody,
		logger:   logger,
	}
}

// limitBody caps the request body; reads past the cap fail with *http.MaxBytesError.
func (h *Handler) limitBody(w http.ResponseWriter, r *http.Request, n int64) {
	r.Body = http.MaxBytesReader(w, r.Body, n)
}

func tooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

// newEngine builds an engine for one request, optionally pinned to now.
func (h *Handler) newEngine(now *time.Time) *pipeline.Engine {
	opts := h.engine
	if now != nil {
		opts = append(append([]pipeline.Option(nil), opts...), pipeline.WithNow(*now))
	}
	return pipeline.NewEngine(opts...)
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error    string `json:"error"`
	Category string `json:"category,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeEngineError maps an error category to a status code.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case engerrors.IsConfiguration(err), engerrors.IsCategory(err, engerrors.CategoryValidation):
		status = http.StatusUnprocessableEntity
	case engerrors.IsCategory(err, engerrors.CategoryIO):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("request failed", logfields.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Category: string(engerrors.GetCategory(err))})
}

// Healthz reports liveness and the stored record count
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} ErrorResponse
// @Router /healthz [get]
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.CountRecords(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "ok", "records": n})
}
