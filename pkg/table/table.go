// Package table defines the in-memory cost dataset shared by every agroscope
// module. A Dataset is immutable once loaded; filtering returns a new Dataset
// that shares row storage with its parent.
package table

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is a single cell: either free text or a number.
type Value struct {
	text    string
	number  float64
	numeric bool
}

// Text returns a text cell.
func Text(s string) Value {
	return Value{text: s}
}

// Number returns a numeric cell.
func Number(f float64) Value {
	return Value{number: f, numeric: true}
}

// ParseValue classifies a raw cell read from a spreadsheet or CSV file.
// Surrounding whitespace is dropped. Cells that parse as a number after
// removing thousands separators and a leading "$" become numeric.
func ParseValue(raw string) Value {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Value{}
	}
	cleaned := strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	if f, err := strconv.ParseFloat(cleaned, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Value{text: s, number: f, numeric: true}
	}
	return Value{text: s}
}

// String returns the cell as displayed text.
func (v Value) String() string {
	if v.text != "" {
		return v.text
	}
	if v.numeric {
		return strconv.FormatFloat(v.number, 'f', -1, 64)
	}
	return ""
}

// Float returns the numeric value and whether the cell is numeric.
func (v Value) Float() (float64, bool) {
	return v.number, v.numeric
}

// IsEmpty reports whether the cell holds neither text nor a number.
func (v Value) IsEmpty() bool {
	return !v.numeric && v.text == ""
}

// Row is one dataset row, positionally aligned with Dataset.Columns.
type Row []Value

func (r Row) empty() bool {
	for _, v := range r {
		if !v.IsEmpty() {
			return false
		}
	}
	return true
}

// ErrNotNumeric is returned when a numeric operation meets a text cell.
var ErrNotNumeric = errors.New("table: value is not numeric")

// ErrNoRows is returned by aggregations over an empty dataset or an
// all-empty column.
var ErrNoRows = errors.New("table: no values to aggregate")

// Dataset is an ordered collection of rows with unique column names.
type Dataset struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// New builds a Dataset. Column names are trimmed and must be unique and
// non-empty. Rows are padded or truncated to the column count, and rows
// whose cells are all empty are dropped.
func New(columns []string, rows ...Row) (*Dataset, error) {
	cols := make([]string, len(columns))
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		name := strings.TrimSpace(c)
		if name == "" {
			return nil, fmt.Errorf("column %d has an empty name", i+1)
		}
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		cols[i] = name
		index[name] = i
	}

	ds := &Dataset{columns: cols, index: index}
	for _, r := range rows {
		row := make(Row, len(cols))
		copy(row, r)
		if row.empty() {
			continue
		}
		ds.rows = append(ds.rows, row)
	}
	return ds, nil
}

// FromMaps builds a Dataset from column→value records. Strings become text
// cells (or numbers when they parse as such), Go numeric types become numbers.
func FromMaps(columns []string, records ...map[string]any) (*Dataset, error) {
	rows := make([]Row, 0, len(records))
	for i, rec := range records {
		row := make(Row, len(columns))
		for j, c := range columns {
			raw, ok := rec[c]
			if !ok || raw == nil {
				continue
			}
			v, err := valueOf(raw)
			if err != nil {
				return nil, fmt.Errorf("record %d column %q: %w", i, c, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return New(columns, rows...)
}

func valueOf(raw any) (Value, error) {
	switch x := raw.(type) {
	case Value:
		return x, nil
	case string:
		return ParseValue(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case int32:
		return Number(float64(x)), nil
	default:
		return Value{}, fmt.Errorf("unsupported cell type %T", raw)
	}
}

// Columns returns the column names in declared order.
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.rows) }

// HasColumn reports whether a column with exactly this name exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.index[name]
	return ok
}

// Row returns row i. The returned slice must not be modified.
func (d *Dataset) Row(i int) Row {
	if i < 0 || i >= len(d.rows) {
		return nil
	}
	return d.rows[i]
}

// Value returns the cell at row i, column name.
func (d *Dataset) Value(i int, column string) (Value, error) {
	col, ok := d.index[column]
	if !ok {
		return Value{}, &ColumnNotFoundError{Column: column}
	}
	if i < 0 || i >= len(d.rows) {
		return Value{}, fmt.Errorf("row %d out of range [0, %d)", i, len(d.rows))
	}
	return d.rows[i][col], nil
}

// Number returns the numeric cell at row i, column name.
func (d *Dataset) Number(i int, column string) (float64, error) {
	v, err := d.Value(i, column)
	if err != nil {
		return 0, err
	}
	f, ok := v.Float()
	if !ok {
		return 0, fmt.Errorf("column %q row %d (%q): %w", column, i, v.String(), ErrNotNumeric)
	}
	return f, nil
}

// Filter returns the rows whose column equals value.
func Filter(d *Dataset, column, value string) (*Dataset, error) {
	col, ok := d.index[column]
	if !ok {
		return nil, &ColumnNotFoundError{Column: column}
	}
	out := &Dataset{columns: d.columns, index: d.index}
	for _, r := range d.rows {
		if r[col].String() == value {
			out.rows = append(out.rows, r)
		}
	}
	return out, nil
}

// UniqueValues returns the distinct non-empty values of a column in
// first-seen order.
func UniqueValues(d *Dataset, column string) ([]string, error) {
	col, ok := d.index[column]
	if !ok {
		return nil, &ColumnNotFoundError{Column: column}
	}
	seen := make(map[string]bool)
	var out []string
	for _, r := range d.rows {
		s := r[col].String()
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out, nil
}
