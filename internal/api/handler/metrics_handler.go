package handler

import (
	"encoding/json"
	"net/http"
	"time"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/logfields"
	"go-metric-engine/internal/logger"
	"go-metric-engine/internal/model"
	"go-metric-engine/internal/pipeline"
)

// ComputeRequest is the body of POST /api/v1/metrics/compute.
type ComputeRequest struct {
	Records []model.Record            `json:"records"`
	Metrics []model.MetricDeclaration `json:"metrics"`
	// Now pins the reference time; the server clock is used when absent.
	Now *time.Time `json:"now,omitempty"`
}

// ComputeResponse carries the ordered results, every error of the run and the run report.
type ComputeResponse struct {
	Results *pipeline.Results        `json:"results" swaggertype:"object"`
	Errors  []*engerrors.EngineError `json:"errors"`
	Report  model.RunReport          `json:"report"`
}

// ComputeMetrics computes a declaration list over the posted records
// @Summary Compute metrics
// @Description Run the engine over the given records and declarations. Metrics that fail are null in results and listed in errors.
// @Tags metrics
// @Accept json
// @Produce json
// @Param request body ComputeRequest true "Records and metric declarations"
// @Success 200 {object} ComputeResponse
// @Failure 400 {object} ErrorResponse "Invalid request payload"
// @Failure 413 {object} ErrorResponse "Body too large"
// @Failure 422 {object} ComputeResponse "Broken dependency graph"
// @Router /metrics/compute [post]
func (h *Handler) ComputeMetrics(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r, h.maxBody)
	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if tooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}
	if len(req.Metrics) == 0 {
		writeError(w, http.StatusBadRequest, "At least one metric declaration is required")
		return
	}
	h.compute(w, r, "", req.Records, req.Metrics, req.Now)
}

func (h *Handler) compute(w http.ResponseWriter, r *http.Request, dashboard string, records []model.Record, decls []model.MetricDeclaration, now *time.Time) {
	results, err := h.newEngine(now).ProcessMetrics(r.Context(), records, decls)
	resp := ComputeResponse{Results: results, Errors: results.Errors, Report: results.Report}
	if resp.Errors == nil {
		resp.Errors = []*engerrors.EngineError{}
	}

	status := http.StatusOK
	if err != nil {
		status = http.StatusUnprocessableEntity
		logger.FromContext(r.Context()).Warn("metric run rejected", logfields.Dashboard(dashboard), logfields.Error(err))
	}
	writeJSON(w, status, resp)
}

// parseNow reads an optional RFC3339 "now" query parameter.
func parseNow(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("now")
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, engerrors.InvalidParam("now", "must be an RFC3339 timestamp")
	}
	return &t, nil
}
