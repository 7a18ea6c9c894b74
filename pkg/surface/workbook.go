package surface

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/agroscope/agroscope/pkg/analysis"
	"github.com/agroscope/agroscope/pkg/optimize"
)

// Sheet names of an exported workbook.
const (
	SheetSummary   = "Summary"
	SheetBreakdown = "Breakdown"
	SheetPlants    = "Plant Costs"
	SheetRegions   = "Region Averages"
	SheetFlow      = "Flow"
)

// WorkbookRenderer writes a Report as an XLSX workbook.
type WorkbookRenderer struct{}

func (r *WorkbookRenderer) Render(w io.Writer, report *analysis.Report) error {
	f, err := BuildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// ExportWorkbook writes the workbook for a report to path.
func ExportWorkbook(path string, report *analysis.Report) error {
	f, err := BuildWorkbook(report)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", path, err)
	}
	return nil
}

// BuildWorkbook lays a report out over one sheet per figure.
func BuildWorkbook(report *analysis.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return nil, err
	}

	sw := sheetWriter{f: f, sheet: SheetSummary}
	sw.row("Dimension", "Value")
	for _, s := range report.Selection {
		sw.row(s.Label, s.Value)
	}
	sw.row()
	headers := make([]any, len(analysis.SummaryHeaders))
	for i, h := range analysis.SummaryHeaders {
		headers[i] = h
	}
	sw.row(headers...)
	s := report.Summary()
	sw.row(s.BusinessUnit, s.PlantToMove, s.DestinationPlant, s.CostDifference)
	sw.row()
	sw.row(report.Narrative)
	if report.Itemized != "" {
		sw.row(report.Itemized)
	}
	for _, u := range report.Unavailable {
		sw.row("data unavailable", string(u.Figure), u.Reason)
	}
	if sw.err != nil {
		return nil, sw.err
	}

	if report.Selected != nil && report.Destination != nil {
		if _, err := f.NewSheet(SheetBreakdown); err != nil {
			return nil, err
		}
		sw = sheetWriter{f: f, sheet: SheetBreakdown}
		sw.row("Component", "Column", report.Selected.Plant, report.Destination.Plant)
		for i, c := range report.Selected.Components {
			sw.row(c.Name, c.Column, c.Value, report.Destination.Components[i].Value)
		}
		sw.row("Total", "", report.Selected.Total(), report.Destination.Total())
		if sw.err != nil {
			return nil, sw.err
		}
	}

	if err := seriesSheet(f, SheetPlants, "Plant", report.PlantCosts); err != nil {
		return nil, err
	}
	if report.RegionAverages != nil {
		if err := seriesSheet(f, SheetRegions, "Region", *report.RegionAverages); err != nil {
			return nil, err
		}
	}

	if report.Graph != nil {
		if _, err := f.NewSheet(SheetFlow); err != nil {
			return nil, err
		}
		sw = sheetWriter{f: f, sheet: SheetFlow}
		sw.row("Source", "Target", "Value")
		for _, e := range report.Graph.Edges {
			sw.row(report.Graph.Nodes[e.Source].Label, report.Graph.Nodes[e.Target].Label, e.Value)
		}
		if sw.err != nil {
			return nil, sw.err
		}
	}
	return f, nil
}

func seriesSheet(f *excelize.File, sheet, label string, s optimize.Series) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	sw := sheetWriter{f: f, sheet: sheet}
	sw.row(label, "$/ton")
	for i, l := range s.Labels {
		sw.row(l, s.Values[i])
	}
	return sw.err
}

// sheetWriter appends rows to a sheet and keeps the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	next  int
	err   error
}

func (sw *sheetWriter) row(values ...any) {
	sw.next++
	if sw.err != nil || len(values) == 0 {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, sw.next)
	if err != nil {
		sw.err = err
		return
	}
	if err := sw.f.SetSheetRow(sw.sheet, cell, &values); err != nil {
		sw.err = fmt.Errorf("writing %s row %d: %w", sw.sheet, sw.next, err)
	}
}
