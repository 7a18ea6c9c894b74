package surface_test

import (
	"bytes"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/agroscope/agroscope/pkg/flowgraph"
	"github.com/agroscope/agroscope/pkg/optimize"
	"github.com/agroscope/agroscope/pkg/surface"
)

func TestMarkdownRenderer(t *testing.T) {
	md := surface.BuildMarkdown(sampleReport(t, "Channo", flowgraph.Chain))

	for _, want := range []string{
		"## Agroscope: India / Winter / North / Variety A",
		"| BU | Plant to move | Destination Plant | Difference in Cost |",
		"By relocating production from Channo to the Pune",
		"### Cost breakdown ($/ton)",
		"### Average cost per ton by region",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected %q in markdown:\n%s", want, md)
		}
	}
}

func TestHTMLRenderer(t *testing.T) {
	var buf bytes.Buffer
	if err := (&surface.HTMLRenderer{}).Render(&buf, sampleReport(t, "Channo", flowgraph.Chain)); err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	html := buf.String()
	for _, want := range []string{"<h2>", "<table>", "<th>Destination Plant</th>"} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in HTML:\n%s", want, html)
		}
	}
}

func TestWriteChartPNG(t *testing.T) {
	r := sampleReport(t, "Channo", flowgraph.Chain)

	var buf bytes.Buffer
	if err := surface.WriteChartPNG(&buf, r.PlantCosts, surface.DefaultChartSize); err != nil {
		t.Fatalf("WriteChartPNG: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}

	path := filepath.Join(t.TempDir(), "regions.png")
	if err := surface.SaveChart(path, *r.RegionAverages, surface.DefaultChartSize); err != nil {
		t.Fatalf("SaveChart: %v", err)
	}
}

func TestBarChartAxisRange(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		min, max float64 // the axis must reach at least this far
	}{
		{"positive", []float64{100, 80}, 0, 100},
		{"negative", []float64{-10, -25}, -25, 0},
		{"mixed", []float64{-20, 40}, -20, 40},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := optimize.Series{Title: tt.name, Labels: []string{"a", "b"}, Values: tt.values}
			p, err := surface.BarChart(s, "$/ton")
			if err != nil {
				t.Fatalf("BarChart: %v", err)
			}
			if p.Y.Min > tt.min || p.Y.Max < tt.max || p.Y.Min >= p.Y.Max {
				t.Errorf("y axis [%v, %v] does not cover [%v, %v]", p.Y.Min, p.Y.Max, tt.min, tt.max)
			}
		})
	}

	var buf bytes.Buffer
	zero := optimize.Series{Title: "zero", Labels: []string{"a", "b"}, Values: []float64{0, 0}}
	if err := surface.WriteChartPNG(&buf, zero, surface.DefaultChartSize); err != nil {
		t.Fatalf("WriteChartPNG(all zero): %v", err)
	}
}

func TestBarChartRejectsEmptySeries(t *testing.T) {
	if _, err := surface.BarChart(optimize.Series{Title: "empty"}, "$/ton"); err == nil {
		t.Error("expected error for empty series")
	}
}

func TestExportWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.xlsx")
	if err := surface.ExportWorkbook(path, sampleReport(t, "Channo", flowgraph.Chain)); err != nil {
		t.Fatalf("ExportWorkbook: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	for _, want := range []string{surface.SheetSummary, surface.SheetBreakdown, surface.SheetPlants, surface.SheetRegions, surface.SheetFlow} {
		if !slices.Contains(sheets, want) {
			t.Errorf("sheet %q missing from %v", want, sheets)
		}
	}

	rows, err := f.GetRows(surface.SheetSummary)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	// Header + 4 selections + blank + summary header + summary row.
	if len(rows) < 8 {
		t.Fatalf("summary sheet has %d rows", len(rows))
	}
	if got := strings.Join(rows[7], "|"); got != "India|Channo|Pune|20" {
		t.Errorf("summary row = %q", got)
	}

	plants, err := f.GetRows(surface.SheetPlants)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(plants) != 5 || plants[2][0] != "Pune" || plants[2][1] != "80" {
		t.Errorf("plant sheet = %v", plants)
	}
}
