// Package analysis runs the full synchronous pipeline for one filter state:
// resolve → optimize → breakdown → narrate → flow graph → chart series.
// Failures of secondary figures are recorded in Report.Unavailable and do
// not abort the run.
package analysis

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agroscope/agroscope/pkg/filter"
	"github.com/agroscope/agroscope/pkg/flowgraph"
	"github.com/agroscope/agroscope/pkg/optimize"
	"github.com/agroscope/agroscope/pkg/table"
)

// Figure names a secondary output that may be unavailable.
type Figure string

const (
	FigureBreakdown      Figure = "breakdown"
	FigureRegionAverages Figure = "region_averages"
)

// Unavailable records why a figure could not be computed.
type Unavailable struct {
	Figure Figure `json:"figure"`
	Reason string `json:"reason"`
}

// Request is one analysis: a complete filter state and the plant currently
// producing.
type Request struct {
	State    filter.State
	Plant    string
	Topology flowgraph.Topology
}

// Selected is one dimension of the request, in hierarchy order.
type Selected struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"` // "*" for a wildcard
}

// Report is everything the presentation layer renders for one request.
type Report struct {
	Selection      []Selected          `json:"selection"`
	Result         optimize.Result     `json:"result"`
	Narrative      string              `json:"narrative"`
	Selected       *optimize.Breakdown `json:"selected_breakdown,omitempty"`
	Destination    *optimize.Breakdown `json:"destination_breakdown,omitempty"`
	Itemized       string              `json:"itemized,omitempty"`
	Graph          *flowgraph.Graph    `json:"graph"`
	PlantCosts     optimize.Series     `json:"plant_costs"`
	RegionAverages *optimize.Series    `json:"region_averages,omitempty"`
	MissingPlants  []string            `json:"missing_plants,omitempty"` // declared plants with no cost in the row
	Unavailable    []Unavailable       `json:"unavailable,omitempty"`
}

// Available reports whether the figure was computed.
func (r *Report) Available(f Figure) bool {
	for _, u := range r.Unavailable {
		if u.Figure == f {
			return false
		}
	}
	return true
}

// SummaryRow is the record behind the summary table.
type SummaryRow struct {
	BusinessUnit     string `json:"bu"`
	PlantToMove      string `json:"plant_to_move"`
	DestinationPlant string `json:"destination_plant"`
	CostDifference   int    `json:"difference_in_cost"`
}

// SummaryHeaders are the summary table column titles.
var SummaryHeaders = []string{"BU", "Plant to move", "Destination Plant", "Difference in Cost"}

// Summary returns the summary table row.
func (r *Report) Summary() SummaryRow {
	return SummaryRow{
		BusinessUnit:     r.Result.BusinessUnit,
		PlantToMove:      r.Result.SelectedPlant,
		DestinationPlant: r.Result.DestinationPlant,
		CostDifference:   r.Result.CostDifference,
	}
}

// Pipeline holds the fixed configuration of an analysis.
type Pipeline struct {
	Hierarchy filter.Hierarchy
	Optimizer *optimize.Optimizer
	// RegionKey and BusinessUnitKey name the hierarchy dimensions used for
	// the region averages chart.
	RegionKey       string
	BusinessUnitKey string
}

// NewPipeline returns a pipeline over the default hierarchy.
func NewPipeline(o *optimize.Optimizer) *Pipeline {
	return &Pipeline{
		Hierarchy:       filter.DefaultHierarchy(),
		Optimizer:       o,
		RegionKey:       "region",
		BusinessUnitKey: "bu",
	}
}

// Run computes the report for req against ds. Resolution, optimization and
// the flow graph are required; breakdowns and region averages degrade to
// Unavailable entries.
func (p *Pipeline) Run(ds *table.Dataset, req Request) (*Report, error) {
	rows, err := filter.ResolveAll(ds, p.Hierarchy, req.State)
	if err != nil {
		return nil, err
	}
	result, err := p.Optimizer.Optimize(rows, req.Plant)
	if err != nil {
		return nil, err
	}

	topology := req.Topology
	if topology == "" {
		topology = flowgraph.Chain
	}
	g, err := flowgraph.Build(p.Hierarchy, req.State, rows, p.Optimizer.Plants, topology)
	if err != nil {
		return nil, fmt.Errorf("building flow graph: %w", err)
	}
	costs, err := optimize.PlantSeries(rows, p.Optimizer.Plants)
	if err != nil {
		return nil, fmt.Errorf("plant costs: %w", err)
	}

	r := &Report{
		Selection:  p.selection(req.State),
		Result:     result,
		Narrative:  optimize.Narrate(result),
		Graph:      g,
		PlantCosts: costs,
	}
	for _, plant := range p.Optimizer.Plants {
		if !slices.Contains(costs.Labels, plant) {
			r.MissingPlants = append(r.MissingPlants, plant)
		}
	}

	p.breakdowns(r, rows)
	p.regionAverages(r, ds, req.State)
	return r, nil
}

func (p *Pipeline) selection(state filter.State) []Selected {
	out := make([]Selected, 0, len(p.Hierarchy))
	for _, d := range p.Hierarchy {
		sel, _ := state.Get(d.Key)
		out = append(out, Selected{Key: d.Key, Label: d.Label, Value: sel.String()})
	}
	return out
}

// Path returns the selected values joined for headings, e.g.
// "India / Winter / North / Variety A".
func (r *Report) Path() string {
	parts := make([]string, len(r.Selection))
	for i, s := range r.Selection {
		parts[i] = s.Value
	}
	return strings.Join(parts, " / ")
}

func (p *Pipeline) breakdowns(r *Report, rows *table.Dataset) {
	sel, err := p.Optimizer.Breakdown(rows, r.Result.SelectedPlant)
	if err != nil {
		r.Unavailable = append(r.Unavailable, Unavailable{Figure: FigureBreakdown, Reason: err.Error()})
		return
	}
	r.Selected = &sel

	dest := sel
	if !r.Result.AlreadyOptimal() {
		dest, err = p.Optimizer.Breakdown(rows, r.Result.DestinationPlant)
		if err != nil {
			r.Unavailable = append(r.Unavailable, Unavailable{Figure: FigureBreakdown, Reason: err.Error()})
			return
		}
	}
	r.Destination = &dest
	r.Itemized = optimize.Itemize(dest)
}

func (p *Pipeline) regionAverages(r *Report, ds *table.Dataset, state filter.State) {
	s, err := p.RegionAverages(ds, state)
	if err != nil {
		r.Unavailable = append(r.Unavailable, Unavailable{Figure: FigureRegionAverages, Reason: err.Error()})
		return
	}
	r.RegionAverages = &s
}

// RegionAverages averages plant costs per region over the rows of the
// selected business unit, or over every row when the unit is a wildcard
// or unset. Lower levels of state are ignored.
func (p *Pipeline) RegionAverages(ds *table.Dataset, state filter.State) (optimize.Series, error) {
	region, err := p.Hierarchy.Lookup(p.RegionKey)
	if err != nil {
		return optimize.Series{}, err
	}
	rows := ds
	if bu, err := p.Hierarchy.Lookup(p.BusinessUnitKey); err == nil {
		if sel, ok := state.Get(bu.Key); ok && !sel.Any {
			if rows, err = table.Filter(ds, bu.Column, sel.Value); err != nil {
				return optimize.Series{}, err
			}
		}
	}
	return optimize.RegionAverages(rows, region.Column, p.Optimizer.Plants)
}
