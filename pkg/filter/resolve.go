package filter

import (
	"slices"

	"github.com/agroscope/agroscope/pkg/table"
)

// Level is the resolved view at one dimension: the rows consistent with every
// selection above it, and the values that may be chosen at this dimension.
type Level struct {
	Dimension Dimension      `json:"dimension"`
	Rows      *table.Dataset `json:"-"`
	Choices   []string       `json:"choices"`
}

// ResolveLevel narrows ds by the selections above dimension key and returns
// the choices available at key. The selection at key itself, if any, is not
// checked; ResolveAll and Revalidate do that.
func ResolveLevel(ds *table.Dataset, h Hierarchy, state State, key string) (Level, error) {
	dim, err := h.Lookup(key)
	if err != nil {
		return Level{}, err
	}
	idx := h.Index(key)

	rows, err := narrow(ds, h[:idx], state)
	if err != nil {
		return Level{}, err
	}
	choices, err := table.UniqueValues(rows, dim.Column)
	if err != nil {
		return Level{}, err
	}
	return Level{Dimension: dim, Rows: rows, Choices: choices}, nil
}

// ResolveAll applies every level in order and returns the terminal row set.
// Every dimension must be selected (a wildcard counts) and every selection
// must still be valid.
func ResolveAll(ds *table.Dataset, h Hierarchy, state State) (*table.Dataset, error) {
	return narrow(ds, h, state)
}

// Revalidate walks the hierarchy and drops every selection from the first
// unset or stale level downward. It returns the cleaned state and the
// dimensions whose selections were dropped.
func Revalidate(ds *table.Dataset, h Hierarchy, state State) (State, []Dimension, error) {
	var cleared []Dimension
	out := state
	rows := ds
	broken := false

	for _, d := range h {
		sel, ok := out.Get(d.Key)
		if broken {
			if ok {
				out = out.Without(d.Key)
				cleared = append(cleared, d)
			}
			continue
		}
		if !ok {
			broken = true
			continue
		}
		if sel.Any {
			continue
		}

		choices, err := table.UniqueValues(rows, d.Column)
		if err != nil {
			return state, nil, err
		}
		if !slices.Contains(choices, sel.Value) {
			out = out.Without(d.Key)
			cleared = append(cleared, d)
			broken = true
			continue
		}
		rows, err = table.Filter(rows, d.Column, sel.Value)
		if err != nil {
			return state, nil, err
		}
	}
	return out, cleared, nil
}

// narrow filters ds by each dimension of levels in order.
func narrow(ds *table.Dataset, levels Hierarchy, state State) (*table.Dataset, error) {
	rows := ds
	for _, d := range levels {
		sel, ok := state.Get(d.Key)
		if !ok {
			return nil, &IncompleteFilterError{Missing: d}
		}
		if sel.Any {
			continue
		}

		choices, err := table.UniqueValues(rows, d.Column)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(choices, sel.Value) {
			return nil, &StaleSelectionError{Dimension: d, Value: sel.Value}
		}
		rows, err = table.Filter(rows, d.Column, sel.Value)
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}
