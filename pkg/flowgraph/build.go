package flowgraph

import (
	"fmt"

	"github.com/agroscope/agroscope/pkg/filter"
	"github.com/agroscope/agroscope/pkg/optimize"
	"github.com/agroscope/agroscope/pkg/table"
)

// Build returns the flow graph for the single cost row in rows. Every
// dimension of h must be selected in state; a wildcard selection is
// labelled "All". Plants without a cost in the row get no node.
func Build(h filter.Hierarchy, state filter.State, rows *table.Dataset, plants []string, topology Topology) (*Graph, error) {
	if len(plants) == 0 {
		return nil, fmt.Errorf("flow graph needs at least one plant")
	}
	costs, err := optimize.PlantSeries(rows, plants)
	if err != nil {
		return nil, fmt.Errorf("plant costs: %w", err)
	}

	g := &Graph{Topology: topology}
	var last int

	switch topology {
	case Chain:
		if len(h) == 0 {
			return nil, fmt.Errorf("chain topology needs at least one dimension")
		}
		for i, d := range h {
			sel, ok := state.Get(d.Key)
			if !ok {
				return nil, &filter.IncompleteFilterError{Missing: d}
			}
			value := sel.Value
			if sel.Any {
				value = "All"
			}
			g.Nodes = append(g.Nodes, Node{
				Label: fmt.Sprintf("%s: %s", d.Label, value),
				Kind:  KindDimension,
				Key:   d.Key,
			})
			if i > 0 {
				g.Edges = append(g.Edges, Edge{Source: i - 1, Target: i, Value: 1})
			}
		}
		last = len(g.Nodes) - 1
	case FanOut:
		g.Nodes = append(g.Nodes, Node{Label: RootLabel, Kind: KindRoot})
		last = 0
	default:
		return nil, fmt.Errorf("unknown topology %q", topology)
	}

	for i, p := range costs.Labels {
		g.Nodes = append(g.Nodes, Node{Label: p + " Plant", Kind: KindPlant, Key: p})
		g.Edges = append(g.Edges, Edge{Source: last, Target: len(g.Nodes) - 1, Value: costs.Values[i]})
	}
	return g, nil
}

// Validate checks edge indices, the node layout of the topology and that
// every edge points forward, which makes the graph acyclic.
func Validate(g *Graph) error {
	if g == nil {
		return fmt.Errorf("graph is nil")
	}
	plants := g.CountKind(KindPlant)
	if plants == 0 {
		return fmt.Errorf("graph has no plant nodes")
	}

	switch g.Topology {
	case Chain:
		if g.CountKind(KindRoot) != 0 {
			return fmt.Errorf("chain graph has a root node")
		}
		dims := g.CountKind(KindDimension)
		if want := ExpectedNodes(Chain, dims, plants); len(g.Nodes) != want {
			return fmt.Errorf("chain graph has %d nodes, want %d", len(g.Nodes), want)
		}
	case FanOut:
		if g.CountKind(KindRoot) != 1 || g.CountKind(KindDimension) != 0 {
			return fmt.Errorf("fan-out graph must have exactly one root and no dimension nodes")
		}
		if want := ExpectedNodes(FanOut, 0, plants); len(g.Nodes) != want {
			return fmt.Errorf("fan-out graph has %d nodes, want %d", len(g.Nodes), want)
		}
	default:
		return fmt.Errorf("unknown topology %q", g.Topology)
	}

	for i, e := range g.Edges {
		if e.Source < 0 || e.Source >= len(g.Nodes) || e.Target < 0 || e.Target >= len(g.Nodes) {
			return fmt.Errorf("edge %d (%d → %d) out of range [0, %d)", i, e.Source, e.Target, len(g.Nodes))
		}
		if e.Source >= e.Target {
			return fmt.Errorf("edge %d (%d → %d) does not point forward", i, e.Source, e.Target)
		}
	}
	return nil
}
