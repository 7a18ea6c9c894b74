package filter

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteFilter is returned when a level is resolved before every
	// level above it has a selection. Callers keep prompting.
	ErrIncompleteFilter = errors.New("filter: incomplete filter")

	// ErrStaleSelection is returned when a selection is no longer among the
	// choices produced by the levels above it. Callers clear downstream
	// selections (see Revalidate) and re-prompt.
	ErrStaleSelection = errors.New("filter: stale selection")

	// ErrUnknownDimension is returned for a key that is not in the hierarchy.
	ErrUnknownDimension = errors.New("filter: unknown dimension")
)

// IncompleteFilterError names the first dimension lacking a selection.
type IncompleteFilterError struct {
	Missing Dimension
}

func (e *IncompleteFilterError) Error() string {
	return fmt.Sprintf("%s must be selected first", e.Missing.Label)
}

func (e *IncompleteFilterError) Is(target error) bool {
	return target == ErrIncompleteFilter
}

// StaleSelectionError names the dimension whose selection is out of date.
type StaleSelectionError struct {
	Dimension Dimension
	Value     string
}

func (e *StaleSelectionError) Error() string {
	return fmt.Sprintf("%s %q is not available for the current selection", e.Dimension.Label, e.Value)
}

func (e *StaleSelectionError) Is(target error) bool {
	return target == ErrStaleSelection
}
