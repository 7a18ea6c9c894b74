package optimize

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatchingRow is returned when the resolved filter matched nothing.
	ErrNoMatchingRow = errors.New("optimize: no matching row")

	// ErrAmbiguousRow is matched by AmbiguousRowError.
	ErrAmbiguousRow = errors.New("optimize: ambiguous row")

	// ErrUnknownPlant is matched by UnknownPlantError.
	ErrUnknownPlant = errors.New("optimize: unknown plant")

	// ErrComponentNotFound is matched by ComponentNotFoundError.
	ErrComponentNotFound = errors.New("optimize: component not found")
)

// AmbiguousRowError is returned when a resolved filter matches more than one
// row. The rows are not silently narrowed to the first.
type AmbiguousRowError struct {
	Count int
}

func (e *AmbiguousRowError) Error() string {
	return fmt.Sprintf("filter matches %d rows, want exactly one", e.Count)
}

func (e *AmbiguousRowError) Is(target error) bool {
	return target == ErrAmbiguousRow
}

// UnknownPlantError names a plant that is not in the declared plant list.
type UnknownPlantError struct {
	Plant  string
	Plants []string
}

func (e *UnknownPlantError) Error() string {
	return fmt.Sprintf("plant %q is not one of %v", e.Plant, e.Plants)
}

func (e *UnknownPlantError) Is(target error) bool {
	return target == ErrUnknownPlant
}

// ComponentNotFoundError wraps the column lookup failure for a component.
type ComponentNotFoundError struct {
	Component string
	Err       error
}

func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("cost component %s: %v", e.Component, e.Err)
}

func (e *ComponentNotFoundError) Is(target error) bool {
	return target == ErrComponentNotFound
}

func (e *ComponentNotFoundError) Unwrap() error { return e.Err }
