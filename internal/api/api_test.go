package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/agroscope/agroscope/internal/api"
	"github.com/agroscope/agroscope/internal/datasource"
	"github.com/agroscope/agroscope/pkg/analysis"
	"github.com/agroscope/agroscope/pkg/flowgraph"
	"github.com/agroscope/agroscope/pkg/optimize"
	"github.com/agroscope/agroscope/pkg/table"
)

const fixture = "../../testdata/potato_costs.csv"

type testServer struct {
	*httptest.Server
	cache   *api.DatasetCache
	dataset *datasource.Dataset
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	catalog := datasource.NewMemoryCatalog()
	store := datasource.NewLocalStorage(t.TempDir())
	svc := datasource.NewService(catalog, store)

	data, err := os.ReadFile(fixture)
	if err != nil {
		t.Fatal(err)
	}
	rec, err := svc.Push(context.Background(), datasource.PushRequest{Name: "costs", Filename: "potato_costs.csv", Data: data})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}

	cache := api.NewDatasetCache(4)
	h := api.NewHandler(svc, datasource.NewLoader(catalog, store), analysis.NewPipeline(optimize.New()), cache)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	srv := httptest.NewServer(api.Chain(mux, api.CORS()))
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, cache: cache, dataset: rec}
}

func (s *testServer) get(t *testing.T, path string, q url.Values) *http.Response {
	t.Helper()
	u := s.URL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	resp, err := http.Get(u)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (s *testServer) datasetPath(suffix string) string {
	return "/api/datasets/" + s.dataset.ID.String() + suffix
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func northA() url.Values {
	return url.Values{
		"bu":     {"India"},
		"season": {"Winter"},
		"region": {"North"},
		"potato": {"Variety A"},
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	resp := s.get(t, "/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}

func TestListAndGetDatasets(t *testing.T) {
	s := newTestServer(t)

	var list []datasource.Dataset
	decode(t, s.get(t, "/api/datasets", nil), &list)
	if len(list) != 1 || list[0].Name != "costs" {
		t.Fatalf("list = %+v", list)
	}

	var got struct {
		Name   string   `json:"name"`
		URI    string   `json:"uri"`
		Plants []string `json:"plants"`
	}
	decode(t, s.get(t, s.datasetPath(""), nil), &got)
	if got.URI != s.dataset.URI() {
		t.Errorf("uri = %q, want %q", got.URI, s.dataset.URI())
	}
	if diff := cmp.Diff(optimize.DefaultPlants(), got.Plants); diff != "" {
		t.Errorf("plants mismatch (-want +got):\n%s", diff)
	}

	if resp := s.get(t, "/api/datasets/not-a-uuid", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("bad id status = %d, want 404", resp.StatusCode)
	}
	if resp := s.get(t, "/api/datasets/6f1c2f5e-8f8a-4c55-9d0e-3f5a3c1d2b7a", nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", resp.StatusCode)
	}
}

func TestChoices(t *testing.T) {
	s := newTestServer(t)

	resp := s.get(t, s.datasetPath("/choices/season"), url.Values{"bu": {"India"}})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got struct {
		Choices []string `json:"choices"`
		Rows    int      `json:"rows"`
	}
	decode(t, resp, &got)
	if diff := cmp.Diff([]string{"Winter", "Summer"}, got.Choices); diff != "" {
		t.Errorf("choices mismatch (-want +got):\n%s", diff)
	}
	if got.Rows != 5 {
		t.Errorf("rows = %d, want 5", got.Rows)
	}
	if s.cache.Len() != 1 {
		t.Errorf("cache holds %d datasets, want 1", s.cache.Len())
	}
}

func TestChoicesErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name      string
		dimension string
		query     url.Values
		status    int
		code      string
	}{
		{"region before season", "region", url.Values{"bu": {"India"}}, http.StatusUnprocessableEntity, "incomplete_filter"},
		{"stale region", "potato", url.Values{"bu": {"India"}, "season": {"Winter"}, "region": {"Dhaka"}}, http.StatusConflict, "stale_selection"},
		{"unknown dimension", "grade", nil, http.StatusNotFound, "unknown_dimension"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.get(t, s.datasetPath("/choices/"+tt.dimension), tt.query)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			var body struct {
				Code string `json:"code"`
			}
			decode(t, resp, &body)
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
		})
	}
}

func TestSelectionRevalidate(t *testing.T) {
	s := newTestServer(t)
	q := url.Values{"bu": {"India"}, "season": {"Winter"}, "region": {"Dhaka"}, "potato": {"Variety D"}}

	var got struct {
		Selection map[string]string `json:"selection"`
		Cleared   []string          `json:"cleared"`
	}
	decode(t, s.get(t, s.datasetPath("/selection"), q), &got)
	if diff := cmp.Diff(map[string]string{"bu": "India", "season": "Winter"}, got.Selection); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"region", "potato"}, got.Cleared); diff != "" {
		t.Errorf("cleared mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalysisJSON(t *testing.T) {
	s := newTestServer(t)
	q := northA()
	q.Set("plant", "Channo")

	resp := s.get(t, s.datasetPath("/analysis"), q)
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var report analysis.Report
	decode(t, resp, &report)

	want := analysis.SummaryRow{BusinessUnit: "India", PlantToMove: "Channo", DestinationPlant: "Pune", CostDifference: 20}
	if diff := cmp.Diff(want, report.Summary()); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
	if report.Graph == nil || report.Graph.Topology != flowgraph.Chain {
		t.Errorf("graph = %+v", report.Graph)
	}
}

func TestAnalysisErrors(t *testing.T) {
	s := newTestServer(t)

	withPlant := func(q url.Values, plant string) url.Values {
		q.Set("plant", plant)
		return q
	}
	stale := url.Values{"bu": {"India"}, "season": {"Winter"}, "region": {"Dhaka"}, "potato": {"Variety D"}}
	wide := northA()
	wide.Set("potato", "*")

	tests := []struct {
		name    string
		query   url.Values
		status  int
		cleared []string
	}{
		{"missing plant", northA(), http.StatusBadRequest, nil},
		{"unknown plant", withPlant(northA(), "Delhi"), http.StatusBadRequest, nil},
		{"already optimal", withPlant(northA(), "Pune"), http.StatusOK, nil},
		{"stale selection", withPlant(stale, "Pune"), http.StatusConflict, []string{"region", "potato"}},
		{"ambiguous row", withPlant(wide, "Pune"), http.StatusUnprocessableEntity, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.get(t, s.datasetPath("/analysis"), tt.query)
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.cleared == nil {
				return
			}
			var body struct {
				Cleared []string `json:"cleared"`
			}
			decode(t, resp, &body)
			if diff := cmp.Diff(tt.cleared, body.Cleared); diff != "" {
				t.Errorf("cleared mismatch (-want +got):\n%s", diff)
			}
		})
	}

	q := withPlant(northA(), "Pune")
	q.Set("topology", "radial")
	if resp := s.get(t, s.datasetPath("/analysis"), q); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad topology status = %d, want 400", resp.StatusCode)
	}
}

func TestAnalysisMarkdown(t *testing.T) {
	s := newTestServer(t)
	q := northA()
	q.Set("plant", "Channo")
	q.Set("format", "markdown")

	resp := s.get(t, s.datasetPath("/analysis"), q)
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Pune") {
		t.Errorf("markdown missing destination:\n%s", body)
	}
}

func TestGraphFanOut(t *testing.T) {
	s := newTestServer(t)
	q := northA()
	q.Set("topology", "fanout")

	var g flowgraph.Graph
	decode(t, s.get(t, s.datasetPath("/graph"), q), &g)
	if err := flowgraph.Validate(&g); err != nil {
		t.Errorf("graph invalid: %v", err)
	}
	if want := flowgraph.ExpectedNodes(flowgraph.FanOut, 4, 4); len(g.Nodes) != want {
		t.Errorf("nodes = %d, want %d", len(g.Nodes), want)
	}
}

func TestCharts(t *testing.T) {
	s := newTestServer(t)

	for _, chart := range []string{"plants.png", "regions.png"} {
		t.Run(chart, func(t *testing.T) {
			resp := s.get(t, s.datasetPath("/charts/"+chart), northA())
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}
			body, _ := io.ReadAll(resp.Body)
			if !bytes.HasPrefix(body, []byte("\x89PNG")) {
				t.Error("body is not a PNG")
			}
		})
	}

	if resp := s.get(t, s.datasetPath("/charts/pie.png"), nil); resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown chart status = %d, want 404", resp.StatusCode)
	}
}

// push uploads csv as a new dataset and returns its record.
func (s *testServer) push(t *testing.T, name, csv string) *datasource.Dataset {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", name+".csv")
	_, _ = part.Write([]byte(csv))
	_ = mw.Close()

	resp, err := http.Post(s.URL+"/api/datasets", mw.FormDataContentType(), &body)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("push status = %d: %s", resp.StatusCode, msg)
	}
	var rec datasource.Dataset
	decode(t, resp, &rec)
	return &rec
}

func TestAnalysisPlantCells(t *testing.T) {
	s := newTestServer(t)
	rec := s.push(t, "gaps", "BU,Season,Region,Potato,Channo,Pune,Kolkata,UP\n"+
		"India,Winter,North,Variety A,100,80,120,\n"+
		"India,Winter,North,Variety B,n/a,95,105,95\n")
	path := "/api/datasets/" + rec.ID.String() + "/analysis"

	q := northA()
	q.Set("plant", "Channo")
	resp := s.get(t, path, q)
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("blank UP status = %d: %s", resp.StatusCode, msg)
	}
	var report analysis.Report
	decode(t, resp, &report)
	if report.Result.DestinationPlant != "Pune" || report.Result.CostDifference != 20 {
		t.Errorf("result = %+v", report.Result)
	}
	if diff := cmp.Diff([]string{"UP"}, report.MissingPlants); diff != "" {
		t.Errorf("missing plants mismatch (-want +got):\n%s", diff)
	}

	q.Set("potato", "Variety B")
	resp = s.get(t, path, q)
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("text cost status = %d, want 422", resp.StatusCode)
	}
	var e struct {
		Code string `json:"code"`
	}
	decode(t, resp, &e)
	if e.Code != "not_numeric" {
		t.Errorf("code = %q, want not_numeric", e.Code)
	}
}

func TestPushDataset(t *testing.T) {
	s := newTestServer(t)

	data, err := os.ReadFile(fixture)
	if err != nil {
		t.Fatal(err)
	}
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, _ := mw.CreateFormFile("file", "second.csv")
	_, _ = part.Write(data)
	_ = mw.WriteField("name", "second")
	_ = mw.Close()

	req, _ := http.NewRequest(http.MethodPost, s.URL+"/api/datasets", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(resp.Body)
		t.Fatalf("status = %d: %s", resp.StatusCode, msg)
	}
	var rec datasource.Dataset
	decode(t, resp, &rec)
	if rec.Name != "second" || rec.Rows != 6 {
		t.Errorf("pushed = %+v", rec)
	}

	var list []datasource.Dataset
	decode(t, s.get(t, "/api/datasets", nil), &list)
	if len(list) != 2 {
		t.Errorf("datasets = %d, want 2", len(list))
	}
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)
	req, _ := http.NewRequest(http.MethodOptions, s.URL+"/api/datasets", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d %q", resp.StatusCode, resp.Header.Get("Access-Control-Allow-Origin"))
	}
}

func TestDatasetCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ds, err := table.FromMaps([]string{"BU"}, map[string]any{"BU": "India"})
	if err != nil {
		t.Fatal(err)
	}
	c := api.NewDatasetCache(2)
	c.Put("a", ds)
	c.Put("b", ds)
	_ = c.Get("a")
	c.Put("c", ds)

	if c.Len() != 2 {
		t.Fatalf("Len = %d, want 2", c.Len())
	}
	if c.Get("b") != nil {
		t.Error("b should have been evicted")
	}
	if c.Get("a") == nil || c.Get("c") == nil {
		t.Error("a and c should be cached")
	}
}
