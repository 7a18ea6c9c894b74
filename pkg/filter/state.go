package filter

import "sort"

// Wildcard is the textual form of an "any value" selection.
const Wildcard = "*"

// Selection is the choice made at one dimension.
type Selection struct {
	Value string `json:"value,omitempty"`
	Any   bool   `json:"any,omitempty"`
}

func (s Selection) String() string {
	if s.Any {
		return Wildcard
	}
	return s.Value
}

// State is a partial assignment of dimension key → selection. An absent key
// means "not selected yet", which is distinct from the Any wildcard.
// State values are immutable: every method returns a new State.
type State struct {
	sel map[string]Selection
}

// NewState returns an empty state.
func NewState() State {
	return State{}
}

// StateFromValues builds a state from key → value pairs, as received from
// query strings or CLI flags. Empty values are skipped and Wildcard selects
// Any.
func StateFromValues(values map[string]string) State {
	s := State{sel: make(map[string]Selection, len(values))}
	for k, v := range values {
		switch v {
		case "":
			continue
		case Wildcard:
			s.sel[k] = Selection{Any: true}
		default:
			s.sel[k] = Selection{Value: v}
		}
	}
	return s
}

func (s State) clone() State {
	out := State{sel: make(map[string]Selection, len(s.sel)+1)}
	for k, v := range s.sel {
		out.sel[k] = v
	}
	return out
}

// With returns a copy of s with dimension key set to value.
func (s State) With(key, value string) State {
	out := s.clone()
	out.sel[key] = Selection{Value: value}
	return out
}

// WithAny returns a copy of s with dimension key set to the wildcard.
func (s State) WithAny(key string) State {
	out := s.clone()
	out.sel[key] = Selection{Any: true}
	return out
}

// Without returns a copy of s with dimension key unset.
func (s State) Without(key string) State {
	out := s.clone()
	delete(out.sel, key)
	return out
}

// Get returns the selection for key and whether one was made.
func (s State) Get(key string) (Selection, bool) {
	sel, ok := s.sel[key]
	return sel, ok
}

// Len returns the number of selected dimensions.
func (s State) Len() int { return len(s.sel) }

// Values returns the selections as key → value, wildcard as "*".
func (s State) Values() map[string]string {
	out := make(map[string]string, len(s.sel))
	for k, v := range s.sel {
		out[k] = v.String()
	}
	return out
}

// Keys returns the selected dimension keys, sorted.
func (s State) Keys() []string {
	keys := make([]string, 0, len(s.sel))
	for k := range s.sel {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
