package optimize

import (
	"fmt"
	"math"
	"slices"

	"github.com/agroscope/agroscope/pkg/table"
)

// Optimizer compares plant costs in a declared plant order.
type Optimizer struct {
	Plants             []string    // declared order; ties go to the earliest
	BusinessUnitColumn string      // column copied into Result.BusinessUnit
	Components         []Component // used by Breakdown
}

// New returns an Optimizer with the default business unit column and
// components.
func New(plants ...string) *Optimizer {
	if len(plants) == 0 {
		plants = DefaultPlants()
	}
	return &Optimizer{
		Plants:             plants,
		BusinessUnitColumn: DefaultBusinessUnitColumn,
		Components:         DefaultComponents(),
	}
}

// RoundHalfUp rounds x to the nearest integer, with halves rounded towards
// positive infinity: 19.5 → 20, -19.5 → -19.
func RoundHalfUp(x float64) int {
	// x+0.5 can round up in floating point, e.g. 0.49999999999999994.
	f := math.Floor(x)
	if x-f >= 0.5 {
		f++
	}
	return int(f)
}

// Optimize finds the cheapest declared plant for the single row in rows and
// the rounded saving from moving production there from selected.
func (o *Optimizer) Optimize(rows *table.Dataset, selected string) (Result, error) {
	if err := single(rows); err != nil {
		return Result{}, err
	}
	if err := o.checkPlant(selected); err != nil {
		return Result{}, err
	}

	dest, destCost, err := table.ArgMin(rows, 0, o.Plants)
	if err != nil {
		return Result{}, fmt.Errorf("finding cheapest plant: %w", err)
	}
	selCost, err := rows.Number(0, selected)
	if err != nil {
		return Result{}, fmt.Errorf("selected plant cost: %w", err)
	}

	var bu string
	if o.BusinessUnitColumn != "" && rows.HasColumn(o.BusinessUnitColumn) {
		v, _ := rows.Value(0, o.BusinessUnitColumn)
		bu = v.String()
	}

	return Result{
		BusinessUnit:     bu,
		SelectedPlant:    selected,
		DestinationPlant: dest,
		SelectedCost:     selCost,
		DestinationCost:  destCost,
		CostDifference:   RoundHalfUp(selCost - destCost),
	}, nil
}

// Breakdown itemizes the consumption cost at plant for the single row in
// rows. Each component value is rounded with RoundHalfUp.
func (o *Optimizer) Breakdown(rows *table.Dataset, plant string) (Breakdown, error) {
	if err := single(rows); err != nil {
		return Breakdown{}, err
	}
	if err := o.checkPlant(plant); err != nil {
		return Breakdown{}, err
	}

	b := Breakdown{Plant: plant}
	for _, c := range o.Components {
		fragment := c.Fragment
		if c.PerPlant {
			fragment += plant
		}
		col, err := table.FindColumn(rows, fragment)
		if err != nil {
			return Breakdown{}, &ComponentNotFoundError{Component: c.Name, Err: err}
		}
		f, err := rows.Number(0, col)
		if err != nil {
			return Breakdown{}, fmt.Errorf("cost component %s: %w", c.Name, err)
		}
		b.Components = append(b.Components, ComponentValue{
			Name:   c.Name,
			Column: col,
			Value:  RoundHalfUp(f),
		})
	}
	return b, nil
}

func (o *Optimizer) checkPlant(plant string) error {
	if !slices.Contains(o.Plants, plant) {
		return &UnknownPlantError{Plant: plant, Plants: slices.Clone(o.Plants)}
	}
	return nil
}

func single(rows *table.Dataset) error {
	switch n := rows.Len(); {
	case n == 0:
		return ErrNoMatchingRow
	case n > 1:
		return &AmbiguousRowError{Count: n}
	}
	return nil
}
