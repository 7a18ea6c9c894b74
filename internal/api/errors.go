package api

import (
	"errors"
	"net/http"

	"github.com/agroscope/agroscope/internal/datasource"
	"github.com/agroscope/agroscope/pkg/filter"
	"github.com/agroscope/agroscope/pkg/optimize"
	"github.com/agroscope/agroscope/pkg/table"
)

// errorResponse is the body of every non-2xx JSON response from the analysis
// endpoints. Dimension names the drill-down level the client should re-prompt.
type errorResponse struct {
	Error     string   `json:"error"`
	Code      string   `json:"code,omitempty"`
	Dimension string   `json:"dimension,omitempty"`
	Cleared   []string `json:"cleared,omitempty"`
}

// classify maps domain errors to an HTTP status and a stable code.
func classify(err error) (int, errorResponse) {
	resp := errorResponse{Error: err.Error()}

	var incomplete *filter.IncompleteFilterError
	var stale *filter.StaleSelectionError
	switch {
	case errors.As(err, &incomplete):
		resp.Code, resp.Dimension = "incomplete_filter", incomplete.Missing.Key
		return http.StatusUnprocessableEntity, resp
	case errors.As(err, &stale):
		resp.Code, resp.Dimension = "stale_selection", stale.Dimension.Key
		return http.StatusConflict, resp
	case errors.Is(err, filter.ErrUnknownDimension):
		resp.Code = "unknown_dimension"
		return http.StatusNotFound, resp
	case errors.Is(err, optimize.ErrAmbiguousRow):
		resp.Code = "ambiguous_row"
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, optimize.ErrNoMatchingRow):
		resp.Code = "no_matching_row"
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, optimize.ErrUnknownPlant):
		resp.Code = "unknown_plant"
		return http.StatusBadRequest, resp
	case errors.Is(err, table.ErrColumnNotFound):
		resp.Code = "column_not_found"
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, table.ErrNotNumeric):
		resp.Code = "not_numeric"
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, table.ErrNoRows):
		resp.Code = "no_values"
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, datasource.ErrDatasetNotFound):
		resp.Code = "dataset_not_found"
		return http.StatusNotFound, resp
	default:
		return http.StatusInternalServerError, resp
	}
}

func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	status, resp := classify(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, resp)
}
