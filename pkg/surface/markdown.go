package surface

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/agroscope/agroscope/pkg/analysis"
)

// MarkdownRenderer renders a Report as GitHub-flavoured Markdown.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Render(w io.Writer, report *analysis.Report) error {
	_, err := io.WriteString(w, BuildMarkdown(report))
	return err
}

// BuildMarkdown returns the Markdown document for a report.
func BuildMarkdown(report *analysis.Report) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## Agroscope: %s\n\n", report.Path()))

	sb.WriteString("### Summary\n\n")
	sb.WriteString(summaryTable(report, modeMarkdown))
	sb.WriteString("\n\n")
	sb.WriteString(report.Narrative)
	sb.WriteString("\n\n")
	if report.Itemized != "" {
		sb.WriteString("_" + report.Itemized + "_\n\n")
	}

	if bt := breakdownTable(report, modeMarkdown); bt != "" {
		sb.WriteString("### Cost breakdown ($/ton)\n\n")
		sb.WriteString(bt)
		sb.WriteString("\n\n")
	}

	sb.WriteString("### Cost per plant\n\n")
	sb.WriteString(seriesTable(report.PlantCosts, "Plant", report.Result.DestinationPlant, modeMarkdown))
	sb.WriteString("\n\n")

	if report.RegionAverages != nil {
		sb.WriteString("### Average cost per ton by region\n\n")
		sb.WriteString(seriesTable(*report.RegionAverages, "Region", "", modeMarkdown))
		sb.WriteString("\n\n")
	}

	if len(report.Unavailable) > 0 {
		sb.WriteString("### Data unavailable\n\n")
		for _, u := range report.Unavailable {
			sb.WriteString(fmt.Sprintf("- **%s**: %s\n", u.Figure, u.Reason))
		}
		sb.WriteString("\n")
	}

	if len(report.MissingPlants) > 0 {
		sb.WriteString(fmt.Sprintf("_No cost recorded for %s._\n\n", strings.Join(report.MissingPlants, ", ")))
	}

	sb.WriteString("---\n_Generated by agroscope_\n")
	return sb.String()
}

// HTMLRenderer converts the Markdown report to an HTML fragment.
type HTMLRenderer struct{}

func (r *HTMLRenderer) Render(w io.Writer, report *analysis.Report) error {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(BuildMarkdown(report)), &buf); err != nil {
		return fmt.Errorf("converting report to HTML: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
