package handler

import (
	"net/http"
	"strconv"
	"strings"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/ingest"
	"go-metric-engine/internal/model"
	"go-metric-engine/pkg/router"
)

// IngestResponse reports how many posted records were stored and why the rest were rejected.
type IngestResponse struct {
	Saved    int                      `json:"saved"`
	Rejected int                      `json:"rejected"`
	Errors   []*engerrors.EngineError `json:"errors"`
}

// IngestRecords stores posted records after validation
// @Summary Ingest records
// @Description Accepts a JSON array (or one object), or CSV with Content-Type text/csv. Records without an id get one.
// @Tags records
// @Accept json
// @Accept text/csv
// @Produce json
// @Param records body []map[string]interface{} true "Records"
// @Success 200 {object} IngestResponse
// @Failure 400 {object} ErrorResponse "Undecodable body"
// @Failure 413 {object} ErrorResponse "Body too large"
// @Failure 500 {object} ErrorResponse "Storage failure"
// @Router /records [post]
func (h *Handler) IngestRecords(w http.ResponseWriter, r *http.Request) {
	format := ingest.FormatJSON
	if strings.Contains(r.Header.Get("Content-Type"), "csv") {
		format = ingest.FormatCSV
	}
	h.limitBody(w, r, h.maxBody)
	records, err := h.loader.LoadReader("request", r.Body, format)
	if err != nil {
		if tooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	valid, invalid := ingest.Validate(records, h.rules, h.newEngine(nil).Location())
	saved, err := h.store.SaveRecords(r.Context(), valid)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if invalid == nil {
		invalid = []*engerrors.EngineError{}
	}
	writeJSON(w, http.StatusOK, IngestResponse{Saved: saved, Rejected: len(invalid), Errors: invalid})
}

// ListRecords returns stored records
// @Summary List records
// @Tags records
// @Produce json
// @Param limit query int false "Maximum number of records"
// @Success 200 {array} map[string]interface{}
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /records [get]
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	records, err := h.store.ListRecords(r.Context(), limit)
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if records == nil {
		records = []model.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// DeleteRecord removes one stored record
// @Summary Delete record
// @Tags records
// @Param id path string true "Record id"
// @Success 204
// @Failure 404 {object} ErrorResponse
// @Router /records/{id} [delete]
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteRecord(r.Context(), router.Segment(r, 3)); err != nil {
		writeEngineError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
