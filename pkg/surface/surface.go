// Package surface renders analysis reports for the different output
// targets: terminal, JSON, Markdown, HTML, PNG charts and XLSX workbooks.
package surface

import (
	"fmt"
	"io"

	"github.com/agroscope/agroscope/pkg/analysis"
)

// Renderer produces formatted output from a Report.
type Renderer interface {
	// Render writes the formatted report to the writer.
	Render(w io.Writer, report *analysis.Report) error
}

// ForFormat returns the renderer for an --output value.
func ForFormat(format string) (Renderer, error) {
	switch format {
	case "", "text":
		return &TerminalRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	case "markdown", "md":
		return &MarkdownRenderer{}, nil
	case "html":
		return &HTMLRenderer{}, nil
	case "xlsx":
		return &WorkbookRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want text, json, markdown, html or xlsx)", format)
	}
}
