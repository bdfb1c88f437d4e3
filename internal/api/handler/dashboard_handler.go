package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"go-metric-engine/internal/config"
	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/logfields"
	"go-metric-engine/internal/logger"
	"go-metric-engine/internal/model"
	"go-metric-engine/internal/store"
	"go-metric-engine/pkg/router"
)

// maxDashboardBytes bounds a posted declaration document.
const maxDashboardBytes = 1 << 20

// SaveDashboard validates and stores a declaration set
// @Summary Save dashboard
// @Description Body is a declaration set in JSON (comments allowed) or YAML (Content-Type application/yaml). Graph and decode errors reject the set.
// @Tags dashboards
// @Accept json
// @Accept application/yaml
// @Produce json
// @Param dashboard body model.DeclarationSet true "Declaration set"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse "Body too large"
// @Failure 422 {object} map[string]interface{} "Declaration errors"
// @Router /dashboards [post]
func (h *Handler) SaveDashboard(w http.ResponseWriter, r *http.Request) {
	h.limitBody(w, r, maxDashboardBytes)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		if tooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	format := "jsonc"
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		format = "yaml"
	}
	set, err := config.ParseDeclarations(data, format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if set.Name == "" {
		writeError(w, http.StatusBadRequest, "dashboard name is required")
		return
	}
	if problems := h.newEngine(nil).Validate(set.Metrics); len(problems) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"error": "invalid declarations", "errors": problems})
		return
	}
	if err := h.store.SaveDashboard(r.Context(), set); err != nil {
		writeEngineError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("dashboard saved", logfields.Dashboard(set.Name), logfields.Metrics(len(set.Metrics)))
	writeJSON(w, http.StatusCreated, map[string]interface{}{"name": set.Name, "version": set.Version, "metrics": len(set.Metrics)})
}

// ListDashboards lists stored declaration sets
// @Summary List dashboards
// @Tags dashboards
// @Produce json
// @Success 200 {array} store.DashboardInfo
// @Failure 500 {object} ErrorResponse
// @Router /dashboards [get]
func (h *Handler) ListDashboards(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListDashboards(r.Context())
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if list == nil {
		list = []store.DashboardInfo{}
	}
	writeJSON(w, http.StatusOK, list)
}

// GetDashboard returns one declaration set
// @Summary Get dashboard
// @Tags dashboards
// @Produce json
// @Param name path string true "Dashboard name"
// @Success 200 {object} model.DeclarationSet
// @Failure 404 {object} ErrorResponse
// @Router /dashboards/{name} [get]
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	set, err := h.dashboard(r, router.Segment(r, 3))
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// ComputeDashboard computes a stored dashboard over the stored records
// @Summary Compute dashboard
// @Tags dashboards
// @Produce json
// @Param name path string true "Dashboard name"
// @Param now query string false "Reference time (RFC3339)"
// @Success 200 {object} ComputeResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ComputeResponse "Broken dependency graph"
// @Router /dashboards/{name}/metrics [get]
func (h *Handler) ComputeDashboard(w http.ResponseWriter, r *http.Request) {
	name := router.Segment(r, 3)
	now, err := parseNow(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Category: string(engerrors.GetCategory(err))})
		return
	}
	set, err := h.dashboard(r, name)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	records, err := h.store.ListRecords(r.Context(), 0)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	h.compute(w, r, name, records, set.Metrics, now)
}

// dashboard loads a stored set, falling back to the built-in dashboard of the same name.
func (h *Handler) dashboard(r *http.Request, name string) (*model.DeclarationSet, error) {
	set, err := h.store.GetDashboard(r.Context(), name)
	if !errors.Is(err, store.ErrNotFound) || h.fallback == nil {
		return set, err
	}
	def, ferr := h.fallback()
	if ferr != nil || def.Name != name {
		return nil, err
	}
	return def, nil
}
