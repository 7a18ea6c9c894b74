package surface

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/agroscope/agroscope/pkg/analysis"
	"github.com/agroscope/agroscope/pkg/optimize"
)

// tableMode selects how a go-pretty table is rendered.
type tableMode int

const (
	modeASCII tableMode = iota
	modeMarkdown
)

func newTable(header ...any) table.Writer {
	w := table.NewWriter()
	w.SetStyle(table.StyleLight)
	w.Style().Format.Header = text.FormatDefault
	w.Style().Format.Footer = text.FormatDefault
	w.AppendHeader(table.Row(header))
	return w
}

func render(w table.Writer, m tableMode) string {
	if m == modeMarkdown {
		return w.RenderMarkdown()
	}
	return w.Render()
}

func rightAlign(cols ...int) []table.ColumnConfig {
	cfgs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		cfgs[i] = table.ColumnConfig{Number: c, Align: text.AlignRight}
	}
	return cfgs
}

func summaryTable(r *analysis.Report, m tableMode) string {
	headers := make([]any, len(analysis.SummaryHeaders))
	for i, h := range analysis.SummaryHeaders {
		headers[i] = h
	}
	t := newTable(headers...)
	s := r.Summary()
	t.AppendRow(table.Row{s.BusinessUnit, s.PlantToMove, s.DestinationPlant, fmt.Sprintf("$%d/ton", s.CostDifference)})
	t.SetColumnConfigs(rightAlign(4))
	return render(t, m)
}

// breakdownTable shows the selected and destination breakdowns side by side.
func breakdownTable(r *analysis.Report, m tableMode) string {
	if r.Selected == nil || r.Destination == nil {
		return ""
	}
	if r.Result.AlreadyOptimal() {
		t := newTable("Component", r.Selected.Plant)
		for _, c := range r.Selected.Components {
			t.AppendRow(table.Row{c.Name, c.Value})
		}
		t.AppendFooter(table.Row{"Total", r.Selected.Total()})
		t.SetColumnConfigs(rightAlign(2))
		return render(t, m)
	}

	t := newTable("Component", r.Selected.Plant, r.Destination.Plant, "Difference")
	for i, c := range r.Selected.Components {
		d := r.Destination.Components[i]
		t.AppendRow(table.Row{c.Name, c.Value, d.Value, c.Value - d.Value})
	}
	t.AppendFooter(table.Row{"Total", r.Selected.Total(), r.Destination.Total(), r.Selected.Total() - r.Destination.Total()})
	t.SetColumnConfigs(rightAlign(2, 3, 4))
	return render(t, m)
}

func seriesTable(s optimize.Series, label, marked string, m tableMode) string {
	t := newTable(label, "$/ton")
	for i, l := range s.Labels {
		if l == marked {
			l += " *"
		}
		t.AppendRow(table.Row{l, fmt.Sprintf("%.2f", s.Values[i])})
	}
	t.SetColumnConfigs(rightAlign(2))
	return render(t, m)
}
