package table

import "fmt"

// Op is a column aggregation.
type Op string

const (
	OpMean Op = "mean"
	OpMin  Op = "min"
)

// Aggregate reduces a numeric column. Empty cells are skipped; a text cell
// fails with ErrNotNumeric.
func Aggregate(d *Dataset, column string, op Op) (float64, error) {
	col, ok := d.index[column]
	if !ok {
		return 0, &ColumnNotFoundError{Column: column}
	}

	var (
		sum, lowest float64
		n           int
	)
	for i, r := range d.rows {
		v := r[col]
		if v.IsEmpty() {
			continue
		}
		f, ok := v.Float()
		if !ok {
			return 0, fmt.Errorf("column %q row %d (%q): %w", column, i, v.String(), ErrNotNumeric)
		}
		if n == 0 || f < lowest {
			lowest = f
		}
		sum += f
		n++
	}
	if n == 0 {
		return 0, fmt.Errorf("%s of %q: %w", op, column, ErrNoRows)
	}

	switch op {
	case OpMean:
		return sum / float64(n), nil
	case OpMin:
		return lowest, nil
	default:
		return 0, fmt.Errorf("unknown aggregation %q", op)
	}
}

// ArgMin returns the column among columns holding the smallest value in row
// i, together with that value. Ties go to the column listed first, so the
// caller's declared order decides. Empty cells are skipped.
func ArgMin(d *Dataset, i int, columns []string) (string, float64, error) {
	var (
		best  string
		value float64
		found bool
	)
	for _, c := range columns {
		v, err := d.Value(i, c)
		if err != nil {
			return "", 0, err
		}
		if v.IsEmpty() {
			continue
		}
		f, ok := v.Float()
		if !ok {
			return "", 0, fmt.Errorf("column %q row %d (%q): %w", c, i, v.String(), ErrNotNumeric)
		}
		if !found || f < value {
			best, value, found = c, f, true
		}
	}
	if !found {
		return "", 0, fmt.Errorf("argmin over %v: %w", columns, ErrNoRows)
	}
	return best, value, nil
}
