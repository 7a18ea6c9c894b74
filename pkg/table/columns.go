package table

import (
	"errors"
	"fmt"
	"strings"
)

// ErrColumnNotFound is matched by every ColumnNotFoundError.
var ErrColumnNotFound = errors.New("table: column not found")

// ColumnNotFoundError names the column or fragment that had no match.
type ColumnNotFoundError struct {
	Column string
}

func (e *ColumnNotFoundError) Error() string {
	return fmt.Sprintf("column %q not found", e.Column)
}

func (e *ColumnNotFoundError) Is(target error) bool {
	return target == ErrColumnNotFound
}

// DefaultSuffixes are the price markers stripped from plant cost columns,
// turning "Pune_Price" into "Pune".
var DefaultSuffixes = []string{"_Price", " Price"}

// NormalizeColumns trims column names and strips the given suffix tokens,
// producing bare plant names. Row values are shared, not copied.
func NormalizeColumns(d *Dataset, suffixes ...string) (*Dataset, error) {
	cols := make([]string, len(d.columns))
	index := make(map[string]int, len(d.columns))
	for i, c := range d.columns {
		name := strings.TrimSpace(c)
		for _, sfx := range suffixes {
			if sfx != "" && strings.HasSuffix(name, sfx) && len(name) > len(sfx) {
				name = strings.TrimSpace(strings.TrimSuffix(name, sfx))
				break
			}
		}
		if prev, dup := index[name]; dup {
			return nil, fmt.Errorf("normalizing %q: collides with column %q", c, d.columns[prev])
		}
		cols[i] = name
		index[name] = i
	}
	return &Dataset{columns: cols, index: index, rows: d.rows}, nil
}

// FindColumn returns the first column, in declared order, whose name
// contains fragment. An exact substring match wins; otherwise the match is
// retried ignoring case and runs of whitespace, since cost sheets disagree on
// spacing and capitalisation ("Cold Store Loss  $/Ton", "Plant loss $/ton").
func FindColumn(d *Dataset, fragment string) (string, error) {
	if fragment == "" {
		return "", &ColumnNotFoundError{Column: fragment}
	}
	for _, c := range d.columns {
		if strings.Contains(c, fragment) {
			return c, nil
		}
	}
	folded := fold(fragment)
	for _, c := range d.columns {
		if strings.Contains(fold(c), folded) {
			return c, nil
		}
	}
	return "", &ColumnNotFoundError{Column: fragment}
}

func fold(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
