// Package dataset holds the in-memory record table shared by every
// analysis stage.
package dataset

import (
	"fmt"
	"math"
	"strconv"

	"startupstats/internal/errors"
)

// Kind is the inferred statistical type of a column
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// Column is a named, typed sequence of cells. Numeric cells use NaN for
// missing values; categorical cells carry an explicit missing mask.
type Column struct {
	name    string
	kind    Kind
	floats  []float64
	strings []string
	missing []bool
}

// NewNumericColumn creates a numeric column; NaN marks a missing cell
func NewNumericColumn(name string, values []float64) *Column {
	floats := make([]float64, len(values))
	copy(floats, values)
	return &Column{name: name, kind: KindNumeric, floats: floats}
}

// NewCategoricalColumn creates a categorical column. A nil missing mask
// means no cell is missing.
func NewCategoricalColumn(name string, values []string, missing []bool) *Column {
	strs := make([]string, len(values))
	copy(strs, values)
	mask := make([]bool, len(values))
	if missing != nil {
		copy(mask, missing)
	}
	for i := range strs {
		if mask[i] {
			strs[i] = ""
		}
	}
	return &Column{name: name, kind: KindCategorical, strings: strs, missing: mask}
}

func (c *Column) Name() string { return c.name }
func (c *Column) Kind() Kind   { return c.kind }

// Len returns the number of cells
func (c *Column) Len() int {
	if c.kind == KindNumeric {
		return len(c.floats)
	}
	return len(c.strings)
}

// IsMissing reports whether cell i is missing
func (c *Column) IsMissing(i int) bool {
	if c.kind == KindNumeric {
		return math.IsNaN(c.floats[i])
	}
	return c.missing[i]
}

// NonNull counts non-missing cells
func (c *Column) NonNull() int {
	count := 0
	for i := 0; i < c.Len(); i++ {
		if !c.IsMissing(i) {
			count++
		}
	}
	return count
}

// Float returns cell i of a numeric column
func (c *Column) Float(i int) float64 {
	return c.floats[i]
}

// Text returns cell i of a categorical column and whether it is present
func (c *Column) Text(i int) (string, bool) {
	return c.strings[i], !c.missing[i]
}

// Floats returns a copy of the numeric cells
func (c *Column) Floats() []float64 {
	out := make([]float64, len(c.floats))
	copy(out, c.floats)
	return out
}

// Texts returns a copy of the categorical cells; missing cells are empty
func (c *Column) Texts() []string {
	out := make([]string, len(c.strings))
	copy(out, c.strings)
	return out
}

// Format renders cell i for display
func (c *Column) Format(i int) string {
	if c.IsMissing(i) {
		return "NaN"
	}
	if c.kind == KindNumeric {
		return strconv.FormatFloat(c.floats[i], 'f', -1, 64)
	}
	return c.strings[i]
}

// Equal reports whether two columns have the same name, kind and cells
func (c *Column) Equal(other *Column) bool {
	if c.name != other.name || c.kind != other.kind || c.Len() != other.Len() {
		return false
	}
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) != other.IsMissing(i) {
			return false
		}
		if c.IsMissing(i) {
			continue
		}
		if c.kind == KindNumeric {
			if c.floats[i] != other.floats[i] {
				return false
			}
		} else if c.strings[i] != other.strings[i] {
			return false
		}
	}
	return true
}

// Table is an ordered collection of equal-length columns
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable builds a table; columns must have unique names and equal lengths
func NewTable(columns ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int)}
	for i, col := range columns {
		if i == 0 {
			t.rows = col.Len()
		}
		if err := t.AddColumn(col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Rows returns the row count
func (t *Table) Rows() int { return t.rows }

// Width returns the column count
func (t *Table) Width() int { return len(t.columns) }

// Names returns column names in order
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, col := range t.columns {
		names[i] = col.name
	}
	return names
}

// Columns returns the columns in order
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Has reports whether a column exists
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column looks up a column by name
func (t *Table) Column(name string) (*Column, error) {
	idx, ok := t.index[name]
	if !ok {
		return nil, errors.MissingColumn(name)
	}
	return t.columns[idx], nil
}

// Numeric returns a copy of a numeric column's cells
func (t *Table) Numeric(name string) ([]float64, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if col.kind != KindNumeric {
		return nil, errors.MalformedData(fmt.Sprintf("column %q is %s, expected numeric", name, col.kind))
	}
	return col.Floats(), nil
}

// Categorical returns a categorical column
func (t *Table) Categorical(name string) (*Column, error) {
	col, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	if col.kind != KindCategorical {
		return nil, errors.MalformedData(fmt.Sprintf("column %q is %s, expected categorical", name, col.kind))
	}
	return col, nil
}

// AddColumn appends a column. Re-adding an identical column is a no-op;
// replacing an existing column with different contents is refused.
func (t *Table) AddColumn(col *Column) error {
	if col.Len() != t.rows {
		return errors.MalformedData(fmt.Sprintf("column %q has %d rows, table has %d", col.name, col.Len(), t.rows))
	}
	if idx, ok := t.index[col.name]; ok {
		if t.columns[idx].Equal(col) {
			return nil
		}
		return errors.MalformedData(fmt.Sprintf("column %q already exists with different contents", col.name))
	}
	t.index[col.name] = len(t.columns)
	t.columns = append(t.columns, col)
	return nil
}

// Head returns the first n rows formatted for display
func (t *Table) Head(n int) [][]string {
	if n > t.rows {
		n = t.rows
	}
	rows := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(t.columns))
		for j, col := range t.columns {
			row[j] = col.Format(i)
		}
		rows[i] = row
	}
	return rows
}
