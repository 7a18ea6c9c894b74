// Package filter implements the cascading drill-down over a cost dataset:
// Business Unit → Season → Region → Potato Variety. Every function here is a
// pure function of (dataset, hierarchy, state); callers own the State and
// replace it rather than mutate it.
package filter

import (
	"fmt"

	"github.com/agroscope/agroscope/pkg/table"
)

// Dimension is one categorical level of the drill-down.
type Dimension struct {
	Key    string `json:"key" yaml:"key"`       // stable identifier: "bu", "season"
	Column string `json:"column" yaml:"column"` // dataset column holding the value
	Label  string `json:"label" yaml:"label"`   // display name: "Business Unit"
}

// Hierarchy is the fixed order in which dimensions are selected.
type Hierarchy []Dimension

// DefaultHierarchy returns BU → Season → Region → Potato.
func DefaultHierarchy() Hierarchy {
	return Hierarchy{
		{Key: "bu", Column: "BU", Label: "Business Unit"},
		{Key: "season", Column: "Season", Label: "Season"},
		{Key: "region", Column: "Region", Label: "Region"},
		{Key: "potato", Column: "Potato", Label: "Potato Variety"},
	}
}

// Index returns the position of the dimension with the given key, or -1.
func (h Hierarchy) Index(key string) int {
	for i, d := range h {
		if d.Key == key {
			return i
		}
	}
	return -1
}

// Lookup returns the dimension with the given key.
func (h Hierarchy) Lookup(key string) (Dimension, error) {
	if i := h.Index(key); i >= 0 {
		return h[i], nil
	}
	return Dimension{}, fmt.Errorf("%w: %q", ErrUnknownDimension, key)
}

// Keys returns the dimension keys in hierarchy order.
func (h Hierarchy) Keys() []string {
	keys := make([]string, len(h))
	for i, d := range h {
		keys[i] = d.Key
	}
	return keys
}

// Validate checks that the hierarchy is well formed and that every
// dimension column exists in the dataset.
func (h Hierarchy) Validate(ds *table.Dataset) error {
	if len(h) == 0 {
		return fmt.Errorf("hierarchy has no dimensions")
	}
	seen := make(map[string]bool, len(h))
	for _, d := range h {
		if d.Key == "" || d.Column == "" {
			return fmt.Errorf("dimension %+v needs a key and a column", d)
		}
		if seen[d.Key] {
			return fmt.Errorf("duplicate dimension key %q", d.Key)
		}
		seen[d.Key] = true
		if ds != nil && !ds.HasColumn(d.Column) {
			return fmt.Errorf("dimension %s: %w", d.Key, &table.ColumnNotFoundError{Column: d.Column})
		}
	}
	return nil
}
