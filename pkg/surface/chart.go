package surface

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/agroscope/agroscope/pkg/optimize"
)

// ChartSize is the rendered size of a bar chart.
type ChartSize struct {
	Width, Height vg.Length
}

// DefaultChartSize fits a four-plant chart.
var DefaultChartSize = ChartSize{Width: 8 * vg.Inch, Height: 5 * vg.Inch}

var barColor = color.RGBA{R: 70, G: 130, B: 180, A: 255}

// BarChart builds a labelled bar chart for a series.
func BarChart(s optimize.Series, yLabel string) (*plot.Plot, error) {
	if s.Len() == 0 {
		return nil, fmt.Errorf("chart %q has no values", s.Title)
	}

	p := plot.New()
	p.Title.Text = s.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Y.Label.Text = yLabel

	values := make(plotter.Values, s.Len())
	copy(values, s.Values)

	bars, err := plotter.NewBarChart(values, vg.Points(40))
	if err != nil {
		return nil, fmt.Errorf("building bar chart: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = vg.Length(0)
	p.Add(bars)
	p.NominalX(s.Labels...)
	if s.Len() > 6 {
		p.X.Tick.Label.Rotation = math.Pi / 4
		p.X.Tick.Label.YAlign = draw.YCenter
		p.X.Tick.Label.XAlign = draw.XRight
	}

	// The axis always spans zero, with headroom on the side that has bars.
	// An all-zero series keeps the autoscaled range.
	lowest, highest := 0.0, 0.0
	for _, v := range s.Values {
		lowest, highest = math.Min(lowest, v), math.Max(highest, v)
	}
	span := highest - lowest
	if span > 0 {
		p.Y.Min, p.Y.Max = 0, 0
		if lowest < 0 {
			p.Y.Min = lowest - span*0.15
		}
		if highest > 0 {
			p.Y.Max = highest + span*0.15
		}
	}

	xys := make([]plotter.XY, s.Len())
	labels := make([]string, s.Len())
	for i, v := range s.Values {
		offset := span * 0.02
		if v < 0 {
			offset = -span * 0.06
		}
		xys[i] = plotter.XY{X: float64(i), Y: v + offset}
		labels[i] = fmt.Sprintf("%.0f", v)
	}
	valueLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("building value labels: %w", err)
	}
	p.Add(valueLabels)

	return p, nil
}

// WriteChartPNG renders a series as a PNG bar chart.
func WriteChartPNG(w io.Writer, s optimize.Series, size ChartSize) error {
	p, err := BarChart(s, "$/ton")
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(size.Width, size.Height, "png")
	if err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveChart renders a series to an image file; the format follows the
// file extension (png, svg, pdf, ...).
func SaveChart(path string, s optimize.Series, size ChartSize) error {
	p, err := BarChart(s, "$/ton")
	if err != nil {
		return err
	}
	if err := p.Save(size.Width, size.Height, path); err != nil {
		return fmt.Errorf("saving chart %s: %w", path, err)
	}
	return nil
}
