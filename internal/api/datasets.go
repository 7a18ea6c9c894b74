package api

import (
	"context"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/agroscope/agroscope/internal/datasource"
	"github.com/agroscope/agroscope/pkg/filter"
	"github.com/agroscope/agroscope/pkg/table"
)

// maxUploadSize bounds POST /api/datasets bodies.
const maxUploadSize = 32 << 20

type datasetResponse struct {
	*datasource.Dataset
	URI       string           `json:"uri"`
	Hierarchy filter.Hierarchy `json:"hierarchy"`
	Plants    []string         `json:"plants"`
}

func (h *Handler) describe(d *datasource.Dataset) datasetResponse {
	return datasetResponse{
		Dataset:   d,
		URI:       d.URI(),
		Hierarchy: h.pipeline.Hierarchy,
		Plants:    h.pipeline.Optimizer.Plants,
	}
}

func (h *Handler) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	list, err := h.datasets.Catalog().List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list datasets: "+err.Error())
		return
	}
	if list == nil {
		list = []datasource.Dataset{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	id, ok := parseDatasetID(w, r)
	if !ok {
		return
	}
	rec, err := h.datasets.Catalog().Get(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.describe(rec))
}

// handlePushDataset handles POST /api/datasets as a multipart upload with a
// "file" part and optional "name" and "sheet" fields.
func (h *Handler) handlePushDataset(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}

	rec, err := h.datasets.Push(r.Context(), datasource.PushRequest{
		Name:     r.FormValue("name"),
		Filename: header.Filename,
		Sheet:    r.FormValue("sheet"),
		Data:     data,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, h.describe(rec))
}

func parseDatasetID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("datasetID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "dataset not found")
		return uuid.Nil, false
	}
	return id, true
}

// dataset returns the normalized table for a registered dataset, loading it
// through the cache.
func (h *Handler) dataset(ctx context.Context, id uuid.UUID) (*table.Dataset, error) {
	key := id.String()
	if ds := h.cache.Get(key); ds != nil {
		return ds, nil
	}
	ds, err := h.loader.Open(ctx, datasource.SchemeRegistry+"://"+key, "")
	if err != nil {
		return nil, err
	}
	h.cache.Put(key, ds)
	return ds, nil
}

// loadDataset resolves the {datasetID} path value and writes the error
// response when it cannot.
func (h *Handler) loadDataset(w http.ResponseWriter, r *http.Request) (*table.Dataset, bool) {
	id, ok := parseDatasetID(w, r)
	if !ok {
		return nil, false
	}
	ds, err := h.dataset(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return nil, false
	}
	return ds, true
}

// Preload loads one registered dataset into the cache.
func (h *Handler) Preload(ctx context.Context, id uuid.UUID) error {
	_, err := h.dataset(ctx, id)
	return err
}
