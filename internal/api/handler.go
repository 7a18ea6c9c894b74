// Package api implements the hosted Agroscope REST API.
// It serves drill-down choices and cost analyses over registered datasets.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/agroscope/agroscope/internal/datasource"
	"github.com/agroscope/agroscope/internal/logging"
	"github.com/agroscope/agroscope/pkg/analysis"
)

// Handler is the top-level API handler for the hosted Agroscope service.
type Handler struct {
	datasets *datasource.Service
	loader   *datasource.Loader
	pipeline *analysis.Pipeline
	cache    *DatasetCache
	log      *slog.Logger
}

// NewHandler creates a new API handler. The loader must resolve registry://
// URIs against the same catalog and store the service writes to.
func NewHandler(datasets *datasource.Service, loader *datasource.Loader, pipeline *analysis.Pipeline, cache *DatasetCache) *Handler {
	if cache == nil {
		cache = NewDatasetCacheFromEnv()
	}
	return &Handler{
		datasets: datasets,
		loader:   loader,
		pipeline: pipeline,
		cache:    cache,
		log:      logging.New("api"),
	}
}

// RegisterRoutes registers all API routes on the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.handleHealth)

	mux.HandleFunc("POST /api/datasets", h.handlePushDataset)
	mux.HandleFunc("GET /api/datasets", h.handleListDatasets)
	mux.HandleFunc("GET /api/datasets/{datasetID}", h.handleGetDataset)
	mux.HandleFunc("GET /api/datasets/{datasetID}/choices/{dimension}", h.handleChoices)
	mux.HandleFunc("GET /api/datasets/{datasetID}/selection", h.handleRevalidate)
	mux.HandleFunc("GET /api/datasets/{datasetID}/analysis", h.handleAnalysis)
	mux.HandleFunc("GET /api/datasets/{datasetID}/graph", h.handleGraph)
	mux.HandleFunc("GET /api/datasets/{datasetID}/charts/{chart}", h.handleChart)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
