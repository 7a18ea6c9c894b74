package surface

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/agroscope/agroscope/pkg/analysis"
	"github.com/agroscope/agroscope/pkg/filter"
	"github.com/agroscope/agroscope/pkg/flowgraph"
)

// TerminalRenderer renders a Report as colored terminal output.
type TerminalRenderer struct{}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func noColor() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

func bold(s string) string {
	if noColor() {
		return s
	}
	return colorBold + s + colorReset
}

func dim(s string) string {
	if noColor() {
		return s
	}
	return colorDim + s + colorReset
}

func colored(s, color string) string {
	if noColor() || color == "" {
		return s
	}
	return color + s + colorReset
}

func (r *TerminalRenderer) Render(w io.Writer, report *analysis.Report) error {
	fmt.Fprintf(w, "%s\n\n", bold("Agroscope: "+report.Path()))

	fmt.Fprintln(w, summaryTable(report, modeASCII))
	fmt.Fprintln(w)

	color := colorGreen
	if report.Result.AlreadyOptimal() {
		color = colorYellow
	}
	for _, line := range wrapText(report.Narrative, 76) {
		fmt.Fprintln(w, colored(line, color))
	}
	if report.Itemized != "" {
		for _, line := range wrapText(report.Itemized, 76) {
			fmt.Fprintf(w, "%s\n", dim(line))
		}
	}
	fmt.Fprintln(w)

	if bt := breakdownTable(report, modeASCII); bt != "" {
		fmt.Fprintln(w, "Cost breakdown ($/ton):")
		fmt.Fprintln(w, bt)
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "Cost per plant:")
	fmt.Fprintln(w, seriesTable(report.PlantCosts, "Plant", report.Result.DestinationPlant, modeASCII))
	fmt.Fprintln(w)

	if report.RegionAverages != nil {
		fmt.Fprintln(w, "Average cost per ton by region:")
		fmt.Fprintln(w, seriesTable(*report.RegionAverages, "Region", "", modeASCII))
		fmt.Fprintln(w)
	}

	if report.Graph != nil {
		fmt.Fprintf(w, "Flow (%s):\n", report.Graph.Topology)
		writeFlow(w, report.Graph)
		fmt.Fprintln(w)
	}

	for _, u := range report.Unavailable {
		fmt.Fprintf(w, "%s %s\n", colored("data unavailable:", colorYellow), dim(fmt.Sprintf("%s (%s)", u.Figure, u.Reason)))
	}
	if len(report.MissingPlants) > 0 {
		fmt.Fprintf(w, "%s %s\n", colored("no cost recorded:", colorYellow), dim(strings.Join(report.MissingPlants, ", ")))
	}
	return nil
}

func writeFlow(w io.Writer, g *flowgraph.Graph) {
	for _, e := range g.Edges {
		src, dst := g.Nodes[e.Source], g.Nodes[e.Target]
		if dst.Kind == flowgraph.KindPlant {
			fmt.Fprintf(w, "  %s → %s  %s\n", src.Label, dst.Label, dim(fmt.Sprintf("$%.2f", e.Value)))
			continue
		}
		fmt.Fprintf(w, "  %s → %s\n", src.Label, dst.Label)
	}
}

// RenderLevel prints the choices available at one filter level.
func RenderLevel(w io.Writer, lvl filter.Level) error {
	fmt.Fprintf(w, "%s (%d rows):\n", bold(lvl.Dimension.Label), lvl.Rows.Len())
	if len(lvl.Choices) == 0 {
		fmt.Fprintln(w, dim("  no values"))
		return nil
	}
	for _, c := range lvl.Choices {
		fmt.Fprintf(w, "  • %s\n", c)
	}
	return nil
}

// wrapText wraps a string at the given width, returning lines.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	current := words[0]

	for _, word := range words[1:] {
		if len(current)+1+len(word) > width {
			lines = append(lines, current)
			current = word
		} else {
			current += " " + word
		}
	}
	lines = append(lines, current)
	return lines
}
