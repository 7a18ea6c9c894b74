package api

import (
	"bytes"
	"errors"
	"net/http"
	"net/url"

	"github.com/agroscope/agroscope/pkg/analysis"
	"github.com/agroscope/agroscope/pkg/filter"
	"github.com/agroscope/agroscope/pkg/flowgraph"
	"github.com/agroscope/agroscope/pkg/optimize"
	"github.com/agroscope/agroscope/pkg/surface"
	"github.com/agroscope/agroscope/pkg/table"
)

var contentTypes = map[string]string{
	"text":     "text/plain; charset=utf-8",
	"markdown": "text/markdown; charset=utf-8",
	"md":       "text/markdown; charset=utf-8",
	"html":     "text/html; charset=utf-8",
	"xlsx":     "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

type choicesResponse struct {
	Dimension filter.Dimension `json:"dimension"`
	Choices   []string         `json:"choices"`
	Rows      int              `json:"rows"`
}

type selectionResponse struct {
	Selection map[string]string `json:"selection"`
	Cleared   []string          `json:"cleared"`
}

// stateFromQuery reads one query parameter per hierarchy key. "*" selects
// every value at that level.
func (h *Handler) stateFromQuery(q url.Values) filter.State {
	values := make(map[string]string, len(h.pipeline.Hierarchy))
	for _, d := range h.pipeline.Hierarchy {
		values[d.Key] = q.Get(d.Key)
	}
	return filter.StateFromValues(values)
}

func (h *Handler) handleChoices(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.loadDataset(w, r)
	if !ok {
		return
	}
	lvl, err := filter.ResolveLevel(ds, h.pipeline.Hierarchy, h.stateFromQuery(r.URL.Query()), r.PathValue("dimension"))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, choicesResponse{
		Dimension: lvl.Dimension,
		Choices:   lvl.Choices,
		Rows:      lvl.Rows.Len(),
	})
}

// handleRevalidate returns the query's selection with every stale or
// orphaned level dropped, so clients can re-prompt from the first gap.
func (h *Handler) handleRevalidate(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.loadDataset(w, r)
	if !ok {
		return
	}
	cleaned, cleared, err := filter.Revalidate(ds, h.pipeline.Hierarchy, h.stateFromQuery(r.URL.Query()))
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, selectionResponse{Selection: cleaned.Values(), Cleared: dimensionKeys(cleared)})
}

func (h *Handler) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.loadDataset(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()

	plant := q.Get("plant")
	if plant == "" {
		writeError(w, http.StatusBadRequest, "plant is required")
		return
	}
	topology, err := flowgraph.ParseTopology(q.Get("topology"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state := h.stateFromQuery(q)
	report, err := h.pipeline.Run(ds, analysis.Request{State: state, Plant: plant, Topology: topology})
	if err != nil {
		h.writeSelectionError(w, ds, state, err)
		return
	}

	format := q.Get("format")
	if format == "" || format == "json" {
		writeJSON(w, http.StatusOK, report)
		return
	}
	renderer, err := surface.ForFormat(format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := renderer.Render(&buf, report); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	if format == "xlsx" {
		w.Header().Set("Content-Disposition", `attachment; filename="agroscope.xlsx"`)
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) handleGraph(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.loadDataset(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	topology, err := flowgraph.ParseTopology(q.Get("topology"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	state := h.stateFromQuery(q)
	rows, err := filter.ResolveAll(ds, h.pipeline.Hierarchy, state)
	if err != nil {
		h.writeSelectionError(w, ds, state, err)
		return
	}
	g, err := flowgraph.Build(h.pipeline.Hierarchy, state, rows, h.pipeline.Optimizer.Plants, topology)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// handleChart renders plants.png for the resolved row or regions.png for
// the selected business unit.
func (h *Handler) handleChart(w http.ResponseWriter, r *http.Request) {
	ds, ok := h.loadDataset(w, r)
	if !ok {
		return
	}
	state := h.stateFromQuery(r.URL.Query())
	plants := h.pipeline.Optimizer.Plants

	var (
		s   optimize.Series
		err error
	)
	switch r.PathValue("chart") {
	case "plants.png":
		var rows *table.Dataset
		if rows, err = filter.ResolveAll(ds, h.pipeline.Hierarchy, state); err != nil {
			h.writeSelectionError(w, ds, state, err)
			return
		}
		s, err = optimize.PlantSeries(rows, plants)
	case "regions.png":
		s, err = h.pipeline.RegionAverages(ds, state)
	default:
		writeError(w, http.StatusNotFound, "unknown chart "+r.PathValue("chart"))
		return
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := surface.WriteChartPNG(&buf, s, surface.DefaultChartSize); err != nil {
		h.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// writeSelectionError reports a resolution failure. For stale selections the
// response also lists the levels Revalidate clears.
func (h *Handler) writeSelectionError(w http.ResponseWriter, ds *table.Dataset, state filter.State, err error) {
	if !errors.Is(err, filter.ErrStaleSelection) {
		h.writeDomainError(w, err)
		return
	}
	status, resp := classify(err)
	if _, cleared, rerr := filter.Revalidate(ds, h.pipeline.Hierarchy, state); rerr == nil {
		resp.Cleared = dimensionKeys(cleared)
	}
	writeJSON(w, status, resp)
}

func dimensionKeys(dims []filter.Dimension) []string {
	keys := make([]string, len(dims))
	for i, d := range dims {
		keys[i] = d.Key
	}
	return keys
}
