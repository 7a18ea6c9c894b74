// Package optimize finds the cheapest plant for a resolved cost row and
// explains the saving from relocating production there.
package optimize

// Result is the outcome of optimizing one cost row. Immutable once computed.
type Result struct {
	BusinessUnit     string  `json:"business_unit"`
	SelectedPlant    string  `json:"selected_plant"`
	DestinationPlant string  `json:"destination_plant"`
	SelectedCost     float64 `json:"selected_cost"`
	DestinationCost  float64 `json:"destination_cost"`
	CostDifference   int     `json:"cost_difference"` // RoundHalfUp(selected - destination), $/ton
}

// AlreadyOptimal reports whether the selected plant is the cheapest one.
func (r Result) AlreadyOptimal() bool {
	return r.SelectedPlant == r.DestinationPlant
}

// Component names a cost component column. Fragment is matched with
// table.FindColumn; when PerPlant is set the plant name is appended to it,
// so "Transportation cost " resolves to "Transportation cost Pune".
type Component struct {
	Name     string `json:"name" yaml:"name"`
	Fragment string `json:"fragment" yaml:"fragment"`
	PerPlant bool   `json:"per_plant,omitempty" yaml:"per_plant,omitempty"`
}

// ComponentValue is one line of a cost breakdown.
type ComponentValue struct {
	Name   string `json:"name"`
	Column string `json:"column"`
	Value  int    `json:"value"` // rounded $/ton
}

// Breakdown is the itemized consumption cost at one plant, in component order.
type Breakdown struct {
	Plant      string           `json:"plant"`
	Components []ComponentValue `json:"components"`
}

// Total returns the sum of the rounded component values.
func (b Breakdown) Total() int {
	var t int
	for _, c := range b.Components {
		t += c.Value
	}
	return t
}

// Get returns the value of the named component.
func (b Breakdown) Get(name string) (int, bool) {
	for _, c := range b.Components {
		if c.Name == name {
			return c.Value, true
		}
	}
	return 0, false
}

// Series is a labelled set of values for a bar chart.
type Series struct {
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Len returns the number of bars.
func (s Series) Len() int { return len(s.Labels) }
