// Package flowgraph builds the Sankey-style cost flow graph for one
// optimization: the filter selections followed by a fan-out to every plant.
// Node order is part of the contract because edges refer to nodes by index.
package flowgraph

import "fmt"

// Topology selects how nodes are linked.
type Topology string

const (
	// Chain links each dimension node to the next, and the last dimension
	// node to every plant weighted by that plant's cost.
	Chain Topology = "chain"
	// FanOut links a single Consumption Cost root to every plant.
	FanOut Topology = "fanout"
)

// ParseTopology accepts "chain" or "fanout" ("fan-out" too). The empty
// string selects Chain.
func ParseTopology(s string) (Topology, error) {
	switch s {
	case "", string(Chain):
		return Chain, nil
	case string(FanOut), "fan-out":
		return FanOut, nil
	default:
		return "", fmt.Errorf("unknown topology %q (want chain or fanout)", s)
	}
}

// NodeKind classifies a node.
type NodeKind string

const (
	KindDimension NodeKind = "dimension"
	KindRoot      NodeKind = "root"
	KindPlant     NodeKind = "plant"
)

// RootLabel is the label of the fan-out root node.
const RootLabel = "Consumption Cost"

// Graph is an ordered node list and an ordered edge list.
type Graph struct {
	Topology Topology `json:"topology"`
	Nodes    []Node   `json:"nodes"`
	Edges    []Edge   `json:"edges"`
}

// Node is one labelled vertex.
type Node struct {
	Label string   `json:"label"`
	Kind  NodeKind `json:"kind"`
	Key   string   `json:"key,omitempty"` // dimension key or plant name
}

// Edge links Nodes[Source] to Nodes[Target].
type Edge struct {
	Source int     `json:"source"`
	Target int     `json:"target"`
	Value  float64 `json:"value"`
}

// Labels returns the node labels in order.
func (g *Graph) Labels() []string {
	out := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		out[i] = n.Label
	}
	return out
}

// CountKind returns the number of nodes of the given kind.
func (g *Graph) CountKind(k NodeKind) int {
	var n int
	for _, node := range g.Nodes {
		if node.Kind == k {
			n++
		}
	}
	return n
}

// ExpectedNodes returns the node count a topology produces for the given
// number of dimensions and plants.
func ExpectedNodes(t Topology, dimensions, plants int) int {
	if t == FanOut {
		return 1 + plants
	}
	return dimensions + plants
}
